package glbuild

import (
	"errors"
	"strings"
)

// Output binds a named terminal slot (i.e: "color", "normal") to the Node that produces its value.
type Output struct {
	Slot string
	Node Node
}

// Graph is the set of Nodes reachable from its output slots. Nodes record their own inputs
// so a Graph only needs to hold the terminal bindings. Outputs are kept in insertion
// order so that emission is deterministic.
type Graph struct {
	outputs []Output
}

// NewGraph returns a graph with the given output bindings. See [Graph.AddOutput].
func NewGraph(outputs ...Output) (*Graph, error) {
	g := new(Graph)
	for _, out := range outputs {
		if err := g.AddOutput(out.Slot, out.Node); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddOutput binds slot to n. Slot names must be valid identifiers and may be bound only once.
func (g *Graph) AddOutput(slot string, n Node) error {
	if n == nil {
		return errors.New("nil node bound to slot " + slot)
	}
	if err := ValidateIdentifier(slot); err != nil {
		return err
	}
	for _, out := range g.outputs {
		if out.Slot == slot {
			return Errorf(DuplicateSlot, "slot %q already bound", slot)
		}
	}
	if !n.Type().IsFloating() {
		return Errorf(TypeMismatch, "slot %q must be a float or float vector, got %s", slot, n.Type())
	}
	g.outputs = append(g.outputs, Output{Slot: slot, Node: n})
	return nil
}

// Output returns the node bound to slot.
func (g *Graph) Output(slot string) (Node, bool) {
	for _, out := range g.outputs {
		if out.Slot == slot {
			return out.Node, true
		}
	}
	return nil, false
}

// Outputs returns a copy of the graph's output bindings in insertion order.
func (g *Graph) Outputs() []Output {
	return append([]Output(nil), g.outputs...)
}

// Len returns the number of bound output slots.
func (g *Graph) Len() int { return len(g.outputs) }

// SlotVarName returns the fragment stage variable an output slot is assigned to.
func SlotVarName(slot string) string { return slotPrefix + slot }

// AppendInputs appends n's direct inputs to dst and returns the result.
func AppendInputs(dst []Node, n Node) []Node {
	n.ForEachInput(nil, func(_ any, in Node) error {
		dst = append(dst, in)
		return nil
	})
	return dst
}

// AppendAllNodes appends every node reachable from root to dst in DFS post-order,
// meaning every node appears after all of its inputs. Shared nodes appear once.
// Traversal does not descend into varying nodes when stopAtVaryings is set.
func AppendAllNodes(dst []Node, root Node, stopAtVaryings bool) ([]Node, error) {
	w := walker{
		visited:        make(map[Node]bool),
		stopAtVaryings: stopAtVaryings,
	}
	w.order = dst
	err := w.visit(root)
	return w.order, err
}

// walker performs recursive post-order traversal with cycle detection.
// visited[n] is false while n is on the stack and true once all its inputs are done.
type walker struct {
	visited        map[Node]bool
	order          []Node
	stopAtVaryings bool
	// onEdge is called for every consumer->input edge found.
	onEdge func(consumer, in Node) error
}

var errNilInput = errors.New("nil node input")

func (w *walker) visit(n Node) error {
	if done, seen := w.visited[n]; seen {
		if !done {
			return Errorf(CyclicReference, "%s references itself", FormatNode(n))
		}
		return nil
	}
	w.visited[n] = false
	if !(w.stopAtVaryings && n.Kind() == KindVarying) {
		err := n.ForEachInput(nil, func(_ any, in Node) error {
			if in == nil {
				return errNilInput
			}
			if w.onEdge != nil {
				if err := w.onEdge(n, in); err != nil {
					return err
				}
			}
			return w.visit(in)
		})
		if err != nil {
			return err
		}
	}
	w.visited[n] = true
	w.order = append(w.order, n)
	return nil
}

// FormatNode returns a compact human readable description of the node tree rooted at n,
// i.e: "function call(texture sample(uniform,varying(attribute)),constant)".
// A node found among its own inputs is written as "<cycle>".
func FormatNode(n Node) string {
	var sb strings.Builder
	formatNode(&sb, n, make(map[Node]bool))
	return sb.String()
}

func formatNode(sb *strings.Builder, n Node, onStack map[Node]bool) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	} else if onStack[n] {
		sb.WriteString("<cycle>")
		return
	}
	sb.WriteString(n.Kind().String())
	inputs := AppendInputs(nil, n)
	if len(inputs) == 0 {
		return
	}
	onStack[n] = true
	sb.WriteByte('(')
	for i, in := range inputs {
		if i > 0 {
			sb.WriteByte(',')
		}
		formatNode(sb, in, onStack)
	}
	sb.WriteByte(')')
	onStack[n] = false
}
