package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// VersionStr is the GLSL version directive all generated programs target.
const VersionStr = "#version 430\n"

// Type is the shader type a [Node] evaluates to.
type Type uint8

const (
	TypeInvalid Type = iota
	Float
	Vec2
	Vec3
	Vec4
	Mat3
	Mat4
	Sampler2D
)

// String returns the GLSL keyword for the type.
func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Mat3:
		return "mat3"
	case Mat4:
		return "mat4"
	case Sampler2D:
		return "sampler2D"
	}
	return "invalid"
}

// Components returns the number of float components of a float or float vector type.
// It returns 0 for matrices, samplers and invalid types.
func (t Type) Components() int {
	switch t {
	case Float:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	}
	return 0
}

// IsFloating returns true for float and float vector types.
func (t Type) IsFloating() bool { return t.Components() > 0 }

// VecType returns the float vector type with n components. n==1 returns [Float].
func VecType(n int) Type {
	switch n {
	case 1:
		return Float
	case 2:
		return Vec2
	case 3:
		return Vec3
	case 4:
		return Vec4
	}
	return TypeInvalid
}

// ParseType parses a GLSL type keyword.
func ParseType(s string) (Type, bool) {
	for t := Float; t <= Sampler2D; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return TypeInvalid, false
}

// Typer is implemented by uniform values whose shader type cannot be inferred
// from their Go type, such as texture handles.
type Typer interface {
	ShaderType() Type
}

// TypeOf returns the shader type of a Go value usable as a constant or uniform value.
func TypeOf(v any) (Type, error) {
	switch v := v.(type) {
	case float32:
		return Float, nil
	case ms2.Vec:
		return Vec2, nil
	case ms3.Vec:
		return Vec3, nil
	case [4]float32:
		return Vec4, nil
	case ms3.Mat3:
		return Mat3, nil
	case ms3.Mat4:
		return Mat4, nil
	case Typer:
		return v.ShaderType(), nil
	case nil:
		return TypeInvalid, errors.New("nil value has no shader type")
	}
	return TypeInvalid, fmt.Errorf("equivalent shader type not implemented for %T", v)
}

// Kind enumerates the closed set of [Node] variants.
type Kind uint8

const (
	_ Kind = iota
	KindConstant
	KindAttribute
	KindUniform
	KindVarying
	KindTextureSample
	KindFunctionCall
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindAttribute:
		return "attribute"
	case KindUniform:
		return "uniform"
	case KindVarying:
		return "varying"
	case KindTextureSample:
		return "texture sample"
	case KindFunctionCall:
		return "function call"
	case KindOperator:
		return "operator"
	}
	return "unknown"
}

// Node is a typed, immutable unit of shader computation with explicit inputs.
// Nodes are compared by identity; a Node may be consumed by several other Nodes.
type Node interface {
	// Type returns the type of the value the node evaluates to.
	Type() Type
	// Kind returns the node variant.
	Kind() Kind
	// ForEachInput iterates over the node's direct inputs in argument order.
	ForEachInput(userData any, fn func(userData any, in Node) error) error
	// AppendExpr appends the node's shader expression to b. args holds
	// the already generated expression of each input, in ForEachInput order.
	AppendExpr(b []byte, args [][]byte) []byte
	// AppendShaderObjects appends the declarations the node requires
	// to evaluate correctly (functions, uniforms, attributes).
	// See [ShaderObject] for more information.
	AppendShaderObjects(objs []ShaderObject) []ShaderObject
}

type objectKind uint8

const (
	objFunction objectKind = iota + 1
	objUniform
	objAttribute
)

// ShaderObject is a handle to a declaration needed to evaluate a [Node] correctly.
// A ShaderObject could represent any of the following:
//   - Function definition. Raw GLSL source emitted once per stage.
//   - Shader uniform. A named value set once per draw.
//   - Vertex attribute. Per-vertex data supplied by the mesh.
type ShaderObject struct {
	// NamePtr is the name of the object inside of the shader.
	NamePtr []byte
	// Type is the uniform or attribute type, or the return type of a function.
	Type Type
	// Params are the function parameter types in order. Nil for non-functions.
	Params []Type
	// Value is the initial value of a uniform.
	Value any
	kind  objectKind
	// for function shaders.
	funcSource []byte
}

func (obj ShaderObject) IsFunction() bool  { return obj.kind == objFunction }
func (obj ShaderObject) IsUniform() bool   { return obj.kind == objUniform }
func (obj ShaderObject) IsAttribute() bool { return obj.kind == objAttribute }

// FunctionSource returns the raw GLSL source of a function object.
func (obj ShaderObject) FunctionSource() []byte { return obj.funcSource }

// MakeShaderFunction parses the header of a raw GLSL function definition
// and returns a function object with its name, return type and parameter types.
// Leading line comments are permitted and preserved in the source.
func MakeShaderFunction(shaderDef []byte) (sf ShaderObject, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	header := shaderDef
	for bytes.HasPrefix(header, []byte("//")) {
		nl := bytes.IndexByte(header, '\n')
		if nl < 0 {
			return ShaderObject{}, errors.New("function source contains only comments")
		}
		header = bytes.TrimSpace(header[nl+1:])
	}
	paramStart := bytes.IndexByte(header, '(')
	paramEnd := bytes.IndexByte(header, ')')
	if paramStart < 0 || paramEnd < paramStart {
		return ShaderObject{}, errors.New("unable to parse function parameter list")
	}
	bodyStart := bytes.IndexByte(header[paramEnd:], '{')
	if bodyStart < 0 || !bytes.HasSuffix(header, []byte("}")) {
		return ShaderObject{}, errors.New("unable to parse function body")
	}
	decl := strings.Fields(string(header[:paramStart]))
	if len(decl) < 2 {
		return ShaderObject{}, errors.New("unable to parse function name")
	}
	name := decl[len(decl)-1]
	if err = ValidateIdentifier(name); err != nil {
		return ShaderObject{}, err
	}
	ret, ok := ParseType(decl[len(decl)-2])
	if !ok || !ret.IsFloating() {
		return ShaderObject{}, Errorf(TypeMismatch, "function %s must return a float or float vector, got %q", name, decl[len(decl)-2])
	}
	var params []Type
	paramList := strings.TrimSpace(string(header[paramStart+1 : paramEnd]))
	if paramList != "" && paramList != "void" {
		for i, param := range strings.Split(paramList, ",") {
			fields := strings.Fields(param)
			for len(fields) > 0 && isParamQualifier(fields[0]) {
				if fields[0] == "out" || fields[0] == "inout" {
					return ShaderObject{}, Errorf(TypeMismatch, "function %s param %d: out parameters not supported in pure functions", name, i)
				}
				fields = fields[1:]
			}
			if len(fields) != 2 {
				return ShaderObject{}, fmt.Errorf("function %s param %d: unable to parse %q", name, i, param)
			}
			tp, ok := ParseType(fields[0])
			if !ok {
				return ShaderObject{}, Errorf(TypeMismatch, "function %s param %d: unsupported type %q", name, i, fields[0])
			}
			params = append(params, tp)
		}
	}
	sf = ShaderObject{
		NamePtr:    []byte(name),
		Type:       ret,
		Params:     params,
		kind:       objFunction,
		funcSource: shaderDef,
	}
	return sf, nil
}

func isParamQualifier(s string) bool {
	switch s {
	case "in", "out", "inout", "const", "highp", "mediump", "lowp":
		return true
	}
	return false
}

// MakeShaderUniform returns a uniform object. A nil initial value is permitted for samplers,
// which are usually bound after construction.
func MakeShaderUniform(name string, tp Type, initial any) (ShaderObject, error) {
	if err := ValidateIdentifier(name); err != nil {
		return ShaderObject{}, err
	}
	if tp == TypeInvalid {
		return ShaderObject{}, Errorf(TypeMismatch, "uniform %s has invalid type", name)
	}
	if initial != nil {
		got, err := TypeOf(initial)
		if err != nil {
			return ShaderObject{}, Errorf(TypeMismatch, "uniform %s: %s", name, err)
		} else if got != tp {
			return ShaderObject{}, Errorf(TypeMismatch, "uniform %s declared %s but initial value is %s", name, tp, got)
		}
	} else if tp != Sampler2D {
		return ShaderObject{}, Errorf(TypeMismatch, "uniform %s of type %s requires an initial value", name, tp)
	}
	return ShaderObject{NamePtr: []byte(name), Type: tp, Value: initial, kind: objUniform}, nil
}

// MakeShaderAttribute returns a vertex attribute object.
func MakeShaderAttribute(name string, tp Type) ShaderObject {
	return ShaderObject{NamePtr: []byte(name), Type: tp, kind: objAttribute}
}

func (obj ShaderObject) Validate() error {
	if len(obj.NamePtr) == 0 {
		return errors.New("shader object zero-length name")
	}
	switch obj.kind {
	case objFunction:
		if len(obj.funcSource) == 0 {
			return errors.New("shader function object has no source")
		}
	case objUniform, objAttribute:
		if obj.Type == TypeInvalid {
			return errors.New("shader object invalid type")
		}
	default:
		return errors.New("shader object no usage defined")
	}
	return nil
}

// Names the code emitter and material templates reserve for themselves.
var builtinNames = map[string]struct{}{
	"main": {}, "modelMatrix": {}, "viewMatrix": {}, "projectionMatrix": {}, "cameraPosition": {},
	"position": {}, "normal": {}, "uv": {}, "tangent": {}, "fragColor": {},
	// GLSL keywords likely to be used as names by mistake.
	"float": {}, "int": {}, "uint": {}, "bool": {}, "vec2": {}, "vec3": {}, "vec4": {}, "mat3": {}, "mat4": {},
	"sampler2D": {}, "in": {}, "out": {}, "inout": {}, "uniform": {}, "const": {}, "return": {}, "if": {},
	"else": {}, "for": {}, "while": {}, "void": {}, "true": {}, "false": {}, "texture": {},
}

// ValidateIdentifier returns an [InvalidName] error if name is not a valid GLSL identifier.
func ValidateIdentifier(name string) error {
	if name == "" {
		return Errorf(InvalidName, "empty identifier")
	}
	if !IsIdentifier([]byte(name)) {
		return Errorf(InvalidName, "%q is not a valid identifier", name)
	}
	if strings.HasPrefix(name, "gl_") || strings.Contains(name, "__") {
		return Errorf(InvalidName, "%q uses a GLSL reserved prefix", name)
	}
	return nil
}

// IsReservedName reports whether name collides with a name generated by the [Programmer]
// or used by built-in attributes, uniforms and GLSL keywords.
func IsReservedName(name string) bool {
	if _, ok := builtinNames[name]; ok {
		return true
	}
	return strings.HasPrefix(name, slotPrefix) || isGeneratedName(name, localPrefix) || isGeneratedName(name, varyingPrefix)
}

func isGeneratedName(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return false
	}
	for _, c := range name[len(prefix):] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsIdentifier reports whether b is a bare GLSL identifier, i.e: a uniform or local variable name.
func IsIdentifier(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for i, c := range b {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// AppendValue appends the GLSL literal of a float, vector or matrix value.
func AppendValue(b []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case float32:
		return AppendFloat(b, '-', '.', v), nil
	case ms2.Vec:
		return appendVec(b, "vec2", v.X, v.Y), nil
	case ms3.Vec:
		return appendVec(b, "vec3", v.X, v.Y, v.Z), nil
	case [4]float32:
		return appendVec(b, "vec4", v[:]...), nil
	case ms3.Mat3:
		arr := v.Array()
		return appendMat(b, "mat3", 3, 3, arr[:]), nil
	case ms3.Mat4:
		arr := v.Array()
		return appendMat(b, "mat4", 4, 4, arr[:]), nil
	}
	return b, fmt.Errorf("no GLSL literal for %T", v)
}

func appendVec(b []byte, typename string, v ...float32) []byte {
	b = append(b, typename...)
	b = append(b, '(')
	b = AppendFloats(b, ',', '-', '.', v...)
	b = append(b, ')')
	return b
}

func appendMat(b []byte, typename string, row, col int, arr []float32) []byte {
	b = append(b, typename...)
	b = append(b, '(')
	for i := 0; i < row; i++ {
		for j := 0; j < col; j++ {
			v := arr[j*row+i] // Column major access, as per OpenGL standard.
			b = AppendFloat(b, '-', '.', v)
			last := i == row-1 && j == col-1
			if !last {
				b = append(b, ',')
			}
		}
	}
	b = append(b, ')')
	return b
}

// AppendFloat appends the shortest decimal representation of v that is
// a valid GLSL float literal, i.e: 1 is written as "1.0".
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if idx < 0 {
		idx = len(b) - start
		b = append(b, '.', '0')
	}
	if decimal != '.' {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	return b
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

// AppendDecl appends a typed declaration statement: "<type> <name>=<expr>;\n".
func AppendDecl(b []byte, tp Type, name string, expr []byte) []byte {
	b = append(b, tp.String()...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, '=')
	b = append(b, expr...)
	b = append(b, ";\n"...)
	return b
}

// AppendAssign appends an assignment statement: "<name>=<expr>;\n".
func AppendAssign(b []byte, name string, expr []byte) []byte {
	b = append(b, name...)
	b = append(b, '=')
	b = append(b, expr...)
	b = append(b, ";\n"...)
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]

	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
