package gshade

import (
	"github.com/soypat/gshade/glbuild"
)

// FunctionDefinition is a pure GLSL function with a typed signature. It is not a node itself;
// it is referenced by [FunctionCall] nodes and emitted once per shader stage that calls it.
type FunctionDefinition struct {
	obj glbuild.ShaderObject
}

// NewFunctionDefinition returns a function definition for source, the complete GLSL text
// of the function including its header. The parsed header must agree with name, params and ret.
func NewFunctionDefinition(name string, params []glbuild.Type, ret glbuild.Type, source string) (*FunctionDefinition, error) {
	def, err := ParseFunctionDefinition(source)
	if err != nil {
		return nil, err
	}
	if def.Name() != name {
		return nil, glbuild.Errorf(glbuild.InvalidName, "function declared as %q but source defines %q", name, def.Name())
	}
	if ret != def.obj.Type {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "function %s declared to return %s but source returns %s", name, ret, def.obj.Type)
	}
	if len(params) != len(def.obj.Params) {
		return nil, glbuild.Errorf(glbuild.ArityMismatch, "function %s declared with %d params but source has %d", name, len(params), len(def.obj.Params))
	}
	for i := range params {
		if params[i] != def.obj.Params[i] {
			return nil, glbuild.Errorf(glbuild.TypeMismatch, "function %s param %d declared %s but source has %s", name, i, params[i], def.obj.Params[i])
		}
	}
	return def, nil
}

// ParseFunctionDefinition returns a function definition whose signature is read from the source header.
func ParseFunctionDefinition(source string) (*FunctionDefinition, error) {
	obj, err := glbuild.MakeShaderFunction([]byte(source))
	if err != nil {
		return nil, err
	}
	return DefineFunction(obj)
}

// DefineFunction returns a function definition from a function shader object,
// such as those provided by the glsllib package.
func DefineFunction(obj glbuild.ShaderObject) (*FunctionDefinition, error) {
	if !obj.IsFunction() {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "shader object %q is not a function", obj.NamePtr)
	}
	name := string(obj.NamePtr)
	if glbuild.IsReservedName(name) {
		return nil, glbuild.Errorf(glbuild.InvalidName, "function name %q is reserved", name)
	}
	return &FunctionDefinition{obj: obj}, nil
}

// Name returns the GLSL function name.
func (def *FunctionDefinition) Name() string { return string(def.obj.NamePtr) }

// Params returns the function parameter types in order.
func (def *FunctionDefinition) Params() []glbuild.Type {
	return append([]glbuild.Type(nil), def.obj.Params...)
}

// ReturnType returns the type of the value the function evaluates to.
func (def *FunctionDefinition) ReturnType() glbuild.Type { return def.obj.Type }

// Source returns the full GLSL source of the function.
func (def *FunctionDefinition) Source() string { return string(def.obj.FunctionSource()) }

// FunctionCall is an invocation of a [FunctionDefinition] with argument nodes.
type FunctionCall struct {
	def  *FunctionDefinition
	args []glbuild.Node
}

// NewFunctionCall returns a call node. Argument count and types must match the definition's parameters.
func NewFunctionCall(def *FunctionDefinition, args ...glbuild.Node) (*FunctionCall, error) {
	if def == nil {
		return nil, errNilInput("function call definition", 0)
	}
	if len(args) != len(def.obj.Params) {
		return nil, glbuild.Errorf(glbuild.ArityMismatch, "%s expects %d arguments, got %d", def.Name(), len(def.obj.Params), len(args))
	}
	if err := checkNil(def.Name(), args); err != nil {
		return nil, err
	}
	for i, arg := range args {
		if arg.Type() != def.obj.Params[i] {
			return nil, glbuild.Errorf(glbuild.TypeMismatch, "%s argument %d expects %s, got %s", def.Name(), i, def.obj.Params[i], arg.Type())
		}
	}
	return &FunctionCall{def: def, args: append([]glbuild.Node(nil), args...)}, nil
}

// Definition returns the called function.
func (fc *FunctionCall) Definition() *FunctionDefinition { return fc.def }

func (fc *FunctionCall) Type() glbuild.Type { return fc.def.obj.Type }
func (fc *FunctionCall) Kind() glbuild.Kind { return glbuild.KindFunctionCall }
func (fc *FunctionCall) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	for _, arg := range fc.args {
		if err := fn(userData, arg); err != nil {
			return err
		}
	}
	return nil
}
func (fc *FunctionCall) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, fc.def.obj)
}
func (fc *FunctionCall) AppendExpr(b []byte, args [][]byte) []byte {
	b = append(b, fc.def.obj.NamePtr...)
	b = append(b, '(')
	for i, arg := range args {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, arg...)
	}
	b = append(b, ')')
	return b
}

// Call returns a call node. See [NewFunctionCall].
func (bld *Builder) Call(def *FunctionDefinition, args ...glbuild.Node) glbuild.Node {
	fc, err := NewFunctionCall(def, args...)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return fc
}

// ParseFunction returns a function definition parsed from GLSL source. See [ParseFunctionDefinition].
func (bld *Builder) ParseFunction(source string) *FunctionDefinition {
	def, err := ParseFunctionDefinition(source)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return def
}
