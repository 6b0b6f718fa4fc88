package glbuild

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Decl is a named, typed declaration of a generated program.
type Decl struct {
	Name string
	Type Type
	// Value is the initial value of a uniform. Nil for other declarations.
	Value any
}

// Program is the source generated for a [Graph] by a [Programmer]. Bodies are
// sequences of statements meant to be placed inside the stage's main function.
// Funcs hold the function definitions each stage requires, to be placed at global scope.
type Program struct {
	VertexFuncs   string
	VertexBody    string
	FragmentFuncs string
	FragmentBody  string
	// Uniforms lists the uniforms used by either stage in order of first use.
	Uniforms []Decl
	// Varyings lists values written by the vertex stage and read by the fragment stage.
	Varyings []Decl
	// Attributes lists vertex attributes read by the vertex stage.
	Attributes []Decl
	// Outputs lists the fragment stage variables output slots are assigned to.
	Outputs []Decl
	// Functions lists the functions defined in either stage in order of first use.
	// Decl.Type is the return type.
	Functions []Decl
}

// FragmentSource returns the fragment function definitions followed by the fragment body.
func (p *Program) FragmentSource() string { return p.FragmentFuncs + p.FragmentBody }

// VertexSource returns the vertex function definitions followed by the vertex body.
func (p *Program) VertexSource() string { return p.VertexFuncs + p.VertexBody }

// Uniform looks up a uniform declaration by name.
func (p *Program) Uniform(name string) (Decl, bool) { return findDecl(p.Uniforms, name) }

// Output looks up the fragment variable an output slot is assigned to.
func (p *Program) Output(slot string) (Decl, bool) { return findDecl(p.Outputs, SlotVarName(slot)) }

// Function looks up a function definition by name.
func (p *Program) Function(name string) (Decl, bool) { return findDecl(p.Functions, name) }

// Attribute looks up an attribute declaration by name.
func (p *Program) Attribute(name string) (Decl, bool) { return findDecl(p.Attributes, name) }

func findDecl(decls []Decl, name string) (Decl, bool) {
	for _, d := range decls {
		if d.Name == name {
			return d, true
		}
	}
	return Decl{}, false
}

// Programmer implements shader generation logic for [Graph] type.
// A Programmer reuses its buffers between calls and must not be used concurrently.
type Programmer struct {
	objsScratch []ShaderObject
	args        [][]byte
	// names maps function name hashes to body hashes for checking duplicates.
	names      map[uint64]uint64
	vary       varyingSet
	vert, frag stage
	uniforms   []Decl
	attributes []Decl
	functions  []Decl
	// samplers maps sampler uniform names to the node that declared them.
	samplers map[string]Node
}

type stage struct {
	name   string
	order  []Node
	refs   map[Node]int
	exprs  map[Node][]byte
	funcs  []byte
	body   []byte
	nlocal int
	// emitted holds name hashes of functions already written in this stage.
	emitted map[uint64]struct{}
}

func (st *stage) reset() {
	st.order = st.order[:0]
	st.funcs = st.funcs[:0]
	st.body = st.body[:0]
	st.nlocal = 0
	if st.refs == nil {
		st.refs = make(map[Node]int)
		st.exprs = make(map[Node][]byte)
		st.emitted = make(map[uint64]struct{})
	}
	clear(st.refs)
	clear(st.exprs)
	clear(st.emitted)
}

// NewDefaultProgrammer returns a Programmer ready for use.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		objsScratch: make([]ShaderObject, 0, 8),
		names:       make(map[uint64]uint64),
		vert:        stage{name: "vertex"},
		frag:        stage{name: "fragment"},
	}
}

func (p *Programmer) reset() {
	if p.names == nil {
		p.names = make(map[uint64]uint64)
	}
	clear(p.names)
	p.vary.reset()
	p.vert.name = "vertex"
	p.frag.name = "fragment"
	p.vert.reset()
	p.frag.reset()
	p.uniforms = p.uniforms[:0]
	p.attributes = p.attributes[:0]
	p.functions = p.functions[:0]
	if p.samplers == nil {
		p.samplers = make(map[string]Node)
	}
	clear(p.samplers)
}

// Emit generates the vertex and fragment stage source for the graph.
// Output is deterministic: emitting the same graph twice yields identical programs.
func (p *Programmer) Emit(g *Graph) (Program, error) {
	if g == nil || g.Len() == 0 {
		return Program{}, errors.New("graph has no outputs")
	}
	p.reset()

	// Fragment stage traversal stops at varyings; their inputs are vertex stage data.
	fw := walker{
		visited:        make(map[Node]bool),
		stopAtVaryings: true,
		order:          p.frag.order,
		onEdge: func(consumer, in Node) error {
			if in.Kind() == KindAttribute {
				return Errorf(InvalidStage, "attribute consumed by fragment expression %s without a varying", FormatNode(consumer))
			}
			p.frag.refs[in]++
			return nil
		},
	}
	for _, out := range g.outputs {
		if out.Node.Kind() == KindAttribute {
			return Program{}, Errorf(InvalidStage, "attribute bound directly to fragment slot %q", out.Slot)
		}
		p.frag.refs[out.Node]++ // Slot assignment is a consumer.
		if err := fw.visit(out.Node); err != nil {
			return Program{}, fmt.Errorf("slot %q: %w", out.Slot, err)
		}
	}
	p.frag.order = fw.order

	for _, n := range p.frag.order {
		if n.Kind() == KindVarying {
			if err := p.vary.add(n); err != nil {
				return Program{}, err
			}
		}
	}

	vw := walker{
		visited: make(map[Node]bool),
		order:   p.vert.order,
		onEdge: func(consumer, in Node) error {
			if in.Kind() == KindVarying {
				return Errorf(InvalidStage, "varying nested inside a vertex stage expression")
			}
			p.vert.refs[in]++
			return nil
		},
	}
	for _, v := range p.vary.list {
		p.vert.refs[v.expr]++ // Varying assignment is a consumer.
		if err := vw.visit(v.expr); err != nil {
			return Program{}, fmt.Errorf("varying %s: %w", v.name, err)
		}
	}
	p.vert.order = vw.order

	if err := p.emitStage(&p.vert); err != nil {
		return Program{}, err
	}
	varyings := make([]Decl, len(p.vary.list))
	for i, v := range p.vary.list {
		p.vert.body = AppendAssign(p.vert.body, v.name, p.vert.exprs[v.expr])
		varyings[i] = Decl{Name: v.name, Type: v.expr.Type()}
	}

	if err := p.emitStage(&p.frag); err != nil {
		return Program{}, err
	}
	outputs := make([]Decl, len(g.outputs))
	for i, out := range g.outputs {
		name := SlotVarName(out.Slot)
		p.frag.body = AppendAssign(p.frag.body, name, p.frag.exprs[out.Node])
		outputs[i] = Decl{Name: name, Type: out.Node.Type()}
	}

	return Program{
		VertexFuncs:   string(p.vert.funcs),
		VertexBody:    string(p.vert.body),
		FragmentFuncs: string(p.frag.funcs),
		FragmentBody:  string(p.frag.body),
		Uniforms:      append([]Decl(nil), p.uniforms...),
		Varyings:      varyings,
		Attributes:    append([]Decl(nil), p.attributes...),
		Outputs:       outputs,
		Functions:     append([]Decl(nil), p.functions...),
	}, nil
}

// emitStage writes the stage's nodes in topological order. Nodes that are costly to evaluate
// or consumed more than once are bound to a local variable so they are evaluated exactly once.
func (p *Programmer) emitStage(st *stage) error {
	for _, n := range st.order {
		if st == &p.frag && n.Kind() == KindVarying {
			st.exprs[n] = []byte(p.vary.nameOf(n))
			continue
		}
		p.objsScratch = n.AppendShaderObjects(p.objsScratch[:0])
		for _, obj := range p.objsScratch {
			if err := p.declare(st, n, obj); err != nil {
				return err
			}
		}
		p.args = p.args[:0]
		n.ForEachInput(nil, func(_ any, in Node) error {
			p.args = append(p.args, st.exprs[in])
			return nil
		})
		expr := n.AppendExpr(nil, p.args)
		if len(expr) == 0 {
			return fmt.Errorf("%s stage: %s node generated empty expression", st.name, n.Kind())
		}
		if p.mustBind(st, n, expr) {
			name := localPrefix + strconv.Itoa(st.nlocal)
			st.nlocal++
			st.body = AppendDecl(st.body, n.Type(), name, expr)
			expr = []byte(name)
		}
		st.exprs[n] = expr
	}
	return nil
}

func (p *Programmer) mustBind(st *stage, n Node, expr []byte) bool {
	if IsIdentifier(expr) {
		return false // Uniforms, varyings and attributes are already named.
	}
	switch n.Kind() {
	case KindTextureSample, KindFunctionCall:
		return true
	}
	return st.refs[n] >= 2
}

// declare registers obj, required by node n, in stage st.
func (p *Programmer) declare(st *stage, n Node, obj ShaderObject) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	name := string(obj.NamePtr)
	switch obj.kind {
	case objFunction:
		nameHash := hash(obj.NamePtr, 0)
		bodyHash := hash(obj.funcSource, nameHash) // Body hash mixes name as well.
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict && gotBodyHash != bodyHash {
			return Errorf(DuplicateFunctionNameConflict, "function %s defined with distinct sources:\n%s", name, obj.funcSource)
		}
		if !nameConflict {
			if _, ok := findDecl(p.uniforms, name); ok {
				return Errorf(InvalidName, "function %s has the name of a uniform", name)
			}
			p.functions = append(p.functions, Decl{Name: name, Type: obj.Type})
		}
		p.names[nameHash] = bodyHash
		if _, written := st.emitted[nameHash]; written {
			return nil // Function already written in this stage and is identical, skip.
		}
		st.emitted[nameHash] = struct{}{}
		st.funcs = append(st.funcs, obj.funcSource...)
		st.funcs = append(st.funcs, "\n\n"...)

	case objUniform:
		if old, ok := findDecl(p.uniforms, name); ok {
			if old.Type != obj.Type || !valuesEqual(old.Value, obj.Value) {
				return Errorf(DuplicateUniformConflict, "uniform %s declared as %s and %s or with distinct initial values", name, old.Type, obj.Type)
			} else if obj.Type == Sampler2D && p.samplers[name] != n {
				// Samplers are bound after emission so equal initial values do not make them the same texture.
				return Errorf(DuplicateUniformConflict, "sampler %s declared by two distinct uniforms", name)
			}
			return nil
		}
		if _, ok := findDecl(p.functions, name); ok {
			return Errorf(InvalidName, "uniform %s has the name of a function", name)
		}
		if obj.Type == Sampler2D {
			p.samplers[name] = n
		}
		p.uniforms = append(p.uniforms, Decl{Name: name, Type: obj.Type, Value: obj.Value})

	case objAttribute:
		if st != &p.vert {
			return Errorf(InvalidStage, "attribute %s used in %s stage", name, st.name)
		}
		if old, ok := findDecl(p.attributes, name); ok {
			if old.Type != obj.Type {
				return Errorf(TypeMismatch, "attribute %s declared as %s and %s", name, old.Type, obj.Type)
			}
			return nil
		}
		p.attributes = append(p.attributes, Decl{Name: name, Type: obj.Type})
	}
	return nil
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
