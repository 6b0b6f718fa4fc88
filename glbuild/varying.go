package glbuild

import (
	"strconv"
)

const (
	slotPrefix    = "slot_"
	localPrefix   = "n"
	varyingPrefix = "vary"
)

// varying is a value computed per vertex and interpolated for the fragment stage.
type varying struct {
	name string
	// expr is the vertex stage expression forwarded by the varying.
	expr Node
}

// varyingSet deduplicates the varying nodes found in the fragment stage.
// Two varying nodes share a declaration when their wrapped expressions generate
// identical source text, regardless of whether they are the same Node.
type varyingSet struct {
	list  []varying
	byKey map[string]int
	byRef map[Node]int
	// inline memoizes the fully inlined source text of vertex stage nodes.
	inline   map[Node][]byte
	visiting map[Node]bool
}

func (vs *varyingSet) reset() {
	vs.list = vs.list[:0]
	if vs.byKey == nil {
		vs.byKey = make(map[string]int)
		vs.byRef = make(map[Node]int)
		vs.inline = make(map[Node][]byte)
		vs.visiting = make(map[Node]bool)
	}
	clear(vs.byKey)
	clear(vs.byRef)
	clear(vs.inline)
	clear(vs.visiting)
}

// add registers a varying node found during fragment traversal.
func (vs *varyingSet) add(ref Node) error {
	if _, ok := vs.byRef[ref]; ok {
		return nil
	}
	inputs := AppendInputs(nil, ref)
	if len(inputs) != 1 {
		return Errorf(ArityMismatch, "varying must wrap exactly one expression, got %d", len(inputs))
	}
	expr := inputs[0]
	if expr == nil {
		return errNilInput
	} else if !expr.Type().IsFloating() {
		return Errorf(TypeMismatch, "varying cannot forward %s", expr.Type())
	}
	key, err := vs.inlineExpr(expr)
	if err != nil {
		return err
	}
	idx, ok := vs.byKey[string(key)]
	if !ok {
		idx = len(vs.list)
		vs.list = append(vs.list, varying{
			name: varyingPrefix + strconv.Itoa(idx),
			expr: expr,
		})
		vs.byKey[string(key)] = idx
	}
	vs.byRef[ref] = idx
	return nil
}

// nameOf returns the varying name assigned to a registered varying node.
func (vs *varyingSet) nameOf(ref Node) string {
	return vs.list[vs.byRef[ref]].name
}

// inlineExpr returns the source text of n with every input inlined.
// It is the structural key used for deduplication.
func (vs *varyingSet) inlineExpr(n Node) ([]byte, error) {
	if got, ok := vs.inline[n]; ok {
		return got, nil
	}
	if vs.visiting[n] {
		return nil, Errorf(CyclicReference, "%s references itself", FormatNode(n))
	}
	if n.Kind() == KindVarying {
		return nil, Errorf(InvalidStage, "varying nested inside a vertex stage expression")
	}
	vs.visiting[n] = true
	var args [][]byte
	err := n.ForEachInput(nil, func(_ any, in Node) error {
		if in == nil {
			return errNilInput
		}
		arg, err := vs.inlineExpr(in)
		args = append(args, arg)
		return err
	})
	if err != nil {
		return nil, err
	}
	vs.visiting[n] = false
	expr := n.AppendExpr(nil, args)
	vs.inline[n] = expr
	return expr, nil
}
