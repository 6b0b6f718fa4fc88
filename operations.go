package gshade

import (
	"strings"

	"github.com/soypat/gshade/glbuild"
)

// Op enumerates the built-in operators available to [Operator] nodes.
type Op uint8

const (
	_ Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	// OpSwizzle selects and reorders vector components. See [NewSwizzle].
	OpSwizzle
	OpNormalize
	OpAbs
	OpDot
	OpCross
	OpLength
	OpMix
	OpMin
	OpMax
	OpClamp
	// OpCombine constructs a vector from floats and smaller vectors, i.e: vec4(v.xyz, 1.0).
	OpCombine
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpNeg:
		return "neg"
	case OpSwizzle:
		return "swizzle"
	case OpNormalize:
		return "normalize"
	case OpAbs:
		return "abs"
	case OpDot:
		return "dot"
	case OpCross:
		return "cross"
	case OpLength:
		return "length"
	case OpMix:
		return "mix"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	case OpClamp:
		return "clamp"
	case OpCombine:
		return "combine"
	}
	return "unknown op"
}

// Operator is a built-in arithmetic or vector operation on its input nodes.
type Operator struct {
	op      Op
	tp      glbuild.Type
	inputs  []glbuild.Node
	swizzle string
}

// NewOperator returns an operator node after checking arity and operand types.
// Arithmetic operators accept operands of equal type or a float broadcast against a vector.
// Multiplication also accepts mat3*vec3 and mat4*vec4. Use [NewSwizzle] for swizzles.
func NewOperator(op Op, inputs ...glbuild.Node) (*Operator, error) {
	if op == OpSwizzle {
		return nil, glbuild.Errorf(glbuild.ArityMismatch, "swizzle requires component selection, use NewSwizzle")
	}
	tp, err := operatorType(op, inputs)
	if err != nil {
		return nil, err
	}
	return &Operator{op: op, tp: tp, inputs: append([]glbuild.Node(nil), inputs...)}, nil
}

// NewSwizzle returns an operator selecting components of in, i.e: "xyz" or "rg".
func NewSwizzle(in glbuild.Node, components string) (*Operator, error) {
	if in == nil {
		return nil, errNilInput("swizzle", 0)
	}
	n := in.Type().Components()
	if n < 2 {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "swizzle requires vector input, got %s", in.Type())
	}
	if len(components) == 0 || len(components) > 4 {
		return nil, glbuild.Errorf(glbuild.ArityMismatch, "swizzle must select 1 to 4 components, got %q", components)
	}
	var set string
	for _, s := range [...]string{"xyzw", "rgba", "stpq"} {
		if strings.IndexByte(s, components[0]) >= 0 {
			set = s
			break
		}
	}
	if set == "" {
		return nil, glbuild.Errorf(glbuild.InvalidName, "invalid swizzle %q", components)
	}
	for i := 0; i < len(components); i++ {
		idx := strings.IndexByte(set, components[i])
		if idx < 0 {
			return nil, glbuild.Errorf(glbuild.InvalidName, "invalid swizzle %q mixes component sets", components)
		} else if idx >= n {
			return nil, glbuild.Errorf(glbuild.TypeMismatch, "swizzle %q out of range for %s", components, in.Type())
		}
	}
	return &Operator{
		op:      OpSwizzle,
		tp:      glbuild.VecType(len(components)),
		inputs:  []glbuild.Node{in},
		swizzle: components,
	}, nil
}

func operatorType(op Op, inputs []glbuild.Node) (glbuild.Type, error) {
	if err := checkNil(op.String(), inputs); err != nil {
		return glbuild.TypeInvalid, err
	}
	arity := func(want int) error {
		if len(inputs) != want {
			return glbuild.Errorf(glbuild.ArityMismatch, "%s expects %d operands, got %d", op, want, len(inputs))
		}
		return nil
	}
	typeErr := func() error {
		var sb strings.Builder
		for i, in := range inputs {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(in.Type().String())
		}
		return glbuild.Errorf(glbuild.TypeMismatch, "%s undefined for operands (%s)", op, sb.String())
	}
	var t0, t1, t2 glbuild.Type
	if len(inputs) > 0 {
		t0 = inputs[0].Type()
	}
	if len(inputs) > 1 {
		t1 = inputs[1].Type()
	}
	if len(inputs) > 2 {
		t2 = inputs[2].Type()
	}

	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		if err := arity(2); err != nil {
			return 0, err
		}
		if op == OpMul && ((t0 == glbuild.Mat3 && t1 == glbuild.Vec3) || (t0 == glbuild.Mat4 && t1 == glbuild.Vec4)) {
			return t1, nil
		}
		if !t0.IsFloating() || !t1.IsFloating() {
			return 0, typeErr()
		}
		switch {
		case t0 == t1, t1 == glbuild.Float:
			return t0, nil
		case t0 == glbuild.Float:
			return t1, nil
		}
		return 0, typeErr()

	case OpNeg, OpNormalize, OpAbs, OpLength:
		if err := arity(1); err != nil {
			return 0, err
		}
		if !t0.IsFloating() {
			return 0, typeErr()
		}
		if op == OpLength {
			return glbuild.Float, nil
		}
		return t0, nil

	case OpDot:
		if err := arity(2); err != nil {
			return 0, err
		}
		if !t0.IsFloating() || t0 != t1 {
			return 0, typeErr()
		}
		return glbuild.Float, nil

	case OpCross:
		if err := arity(2); err != nil {
			return 0, err
		}
		if t0 != glbuild.Vec3 || t1 != glbuild.Vec3 {
			return 0, typeErr()
		}
		return glbuild.Vec3, nil

	case OpMin, OpMax:
		if err := arity(2); err != nil {
			return 0, err
		}
		if !t0.IsFloating() || (t1 != t0 && t1 != glbuild.Float) {
			return 0, typeErr()
		}
		return t0, nil

	case OpMix:
		if err := arity(3); err != nil {
			return 0, err
		}
		if !t0.IsFloating() || t0 != t1 || (t2 != t0 && t2 != glbuild.Float) {
			return 0, typeErr()
		}
		return t0, nil

	case OpClamp:
		if err := arity(3); err != nil {
			return 0, err
		}
		if !t0.IsFloating() || t1 != t2 || (t1 != t0 && t1 != glbuild.Float) {
			return 0, typeErr()
		}
		return t0, nil

	case OpCombine:
		if len(inputs) < 2 || len(inputs) > 4 {
			return 0, glbuild.Errorf(glbuild.ArityMismatch, "combine expects 2 to 4 operands, got %d", len(inputs))
		}
		total := 0
		for _, in := range inputs {
			if !in.Type().IsFloating() {
				return 0, typeErr()
			}
			total += in.Type().Components()
		}
		if total > 4 {
			return 0, glbuild.Errorf(glbuild.TypeMismatch, "combine of %d components exceeds vec4", total)
		}
		return glbuild.VecType(total), nil
	}
	return 0, glbuild.Errorf(glbuild.InvalidName, "unknown operator %d", op)
}

// Op returns the operation performed by the node.
func (o *Operator) Op() Op { return o.op }

func (o *Operator) Type() glbuild.Type { return o.tp }
func (o *Operator) Kind() glbuild.Kind { return glbuild.KindOperator }
func (o *Operator) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	for _, in := range o.inputs {
		if err := fn(userData, in); err != nil {
			return err
		}
	}
	return nil
}
func (o *Operator) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (o *Operator) AppendExpr(b []byte, args [][]byte) []byte {
	switch o.op {
	case OpAdd, OpSub, OpMul, OpDiv:
		b = append(b, '(')
		b = append(b, args[0]...)
		b = append(b, "+-*/"[o.op-OpAdd])
		b = append(b, args[1]...)
		b = append(b, ')')
	case OpNeg:
		b = append(b, "(-"...)
		b = append(b, args[0]...)
		b = append(b, ')')
	case OpSwizzle:
		arg := args[0]
		if len(arg) > 0 && arg[len(arg)-1] != ')' && !glbuild.IsIdentifier(arg) {
			b = append(b, '(')
			b = append(b, arg...)
			b = append(b, ')')
		} else {
			b = append(b, arg...)
		}
		b = append(b, '.')
		b = append(b, o.swizzle...)
	case OpCombine:
		b = append(b, o.tp.String()...)
		b = appendArgs(b, args)
	default:
		// Remaining operators map directly to GLSL built-in functions.
		b = append(b, o.op.String()...)
		b = appendArgs(b, args)
	}
	return b
}

func appendArgs(b []byte, args [][]byte) []byte {
	b = append(b, '(')
	for i, arg := range args {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, arg...)
	}
	return append(b, ')')
}

// Op returns an operator node. See [NewOperator].
func (bld *Builder) Op(op Op, inputs ...glbuild.Node) glbuild.Node {
	o, err := NewOperator(op, inputs...)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return o
}

func (bld *Builder) Add(a, b glbuild.Node) glbuild.Node { return bld.Op(OpAdd, a, b) }
func (bld *Builder) Sub(a, b glbuild.Node) glbuild.Node { return bld.Op(OpSub, a, b) }
func (bld *Builder) Mul(a, b glbuild.Node) glbuild.Node { return bld.Op(OpMul, a, b) }
func (bld *Builder) Div(a, b glbuild.Node) glbuild.Node { return bld.Op(OpDiv, a, b) }
func (bld *Builder) Neg(a glbuild.Node) glbuild.Node    { return bld.Op(OpNeg, a) }
func (bld *Builder) Normalize(a glbuild.Node) glbuild.Node {
	return bld.Op(OpNormalize, a)
}
func (bld *Builder) Abs(a glbuild.Node) glbuild.Node    { return bld.Op(OpAbs, a) }
func (bld *Builder) Dot(a, b glbuild.Node) glbuild.Node { return bld.Op(OpDot, a, b) }
func (bld *Builder) Cross(a, b glbuild.Node) glbuild.Node {
	return bld.Op(OpCross, a, b)
}
func (bld *Builder) Length(a glbuild.Node) glbuild.Node    { return bld.Op(OpLength, a) }
func (bld *Builder) Mix(a, b, t glbuild.Node) glbuild.Node { return bld.Op(OpMix, a, b, t) }
func (bld *Builder) Min(a, b glbuild.Node) glbuild.Node    { return bld.Op(OpMin, a, b) }
func (bld *Builder) Max(a, b glbuild.Node) glbuild.Node    { return bld.Op(OpMax, a, b) }

// Clamp constrains x to the [lo, hi] range. lo and hi may be floats for vector x.
func (bld *Builder) Clamp(x, lo, hi glbuild.Node) glbuild.Node { return bld.Op(OpClamp, x, lo, hi) }

// Combine constructs a vector from the concatenated components of its inputs.
func (bld *Builder) Combine(inputs ...glbuild.Node) glbuild.Node {
	return bld.Op(OpCombine, inputs...)
}

// Swizzle selects components of a vector, i.e: Swizzle(color, "rgb").
func (bld *Builder) Swizzle(in glbuild.Node, components string) glbuild.Node {
	o, err := NewSwizzle(in, components)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return o
}
