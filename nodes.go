package gshade

import (
	"github.com/soypat/gshade/glbuild"
)

// Constant is a literal value known at graph construction time.
type Constant struct {
	value any
	tp    glbuild.Type
}

// NewConstant returns a literal node. v must be a float32, ms2.Vec, ms3.Vec or [4]float32.
func NewConstant(v any) (*Constant, error) {
	tp, err := glbuild.TypeOf(v)
	if err != nil {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "constant: %s", err)
	} else if !tp.IsFloating() {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "constant must be a float or float vector, got %s", tp)
	}
	return &Constant{value: v, tp: tp}, nil
}

// Value returns the literal value of the constant.
func (c *Constant) Value() any { return c.value }

func (c *Constant) Type() glbuild.Type { return c.tp }
func (c *Constant) Kind() glbuild.Kind { return glbuild.KindConstant }
func (c *Constant) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	return nil
}
func (c *Constant) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (c *Constant) AppendExpr(b []byte, args [][]byte) []byte {
	if f, ok := c.value.(float32); ok && f < 0 {
		// Parenthesize so that "a-b" with negative b is not emitted as "a--b".
		b = append(b, '(')
		b = glbuild.AppendFloat(b, '-', '.', f)
		return append(b, ')')
	}
	b, _ = glbuild.AppendValue(b, c.value)
	return b
}

// AttributeKind enumerates the per-vertex attributes supplied by meshes.
type AttributeKind uint8

const (
	_ AttributeKind = iota
	AttrPosition
	AttrNormal
	AttrUV
	// AttrTangent is a vec4 whose w component holds the bitangent handedness.
	AttrTangent
)

// Name returns the attribute variable name in generated vertex shaders.
func (k AttributeKind) Name() string {
	switch k {
	case AttrPosition:
		return "position"
	case AttrNormal:
		return "normal"
	case AttrUV:
		return "uv"
	case AttrTangent:
		return "tangent"
	}
	return ""
}

func (k AttributeKind) String() string {
	name := k.Name()
	if name == "" {
		return "unknown attribute"
	}
	return name
}

// Type returns the shader type of the attribute.
func (k AttributeKind) Type() glbuild.Type {
	switch k {
	case AttrPosition, AttrNormal:
		return glbuild.Vec3
	case AttrUV:
		return glbuild.Vec2
	case AttrTangent:
		return glbuild.Vec4
	}
	return glbuild.TypeInvalid
}

// Space is the coordinate system an attribute is expressed in.
type Space uint8

const (
	// Local is the object space the mesh was authored in.
	Local Space = iota
	// World applies the renderer supplied modelMatrix uniform in the vertex stage.
	World
)

func (s Space) String() string {
	switch s {
	case Local:
		return "local"
	case World:
		return "world"
	}
	return "unknown space"
}

// Attribute is per-vertex data read in the vertex stage. It must be wrapped in
// a [Varying] to be consumed by fragment outputs.
type Attribute struct {
	attr  AttributeKind
	space Space
}

// NewAttribute returns an attribute node. UV coordinates have no world space variant.
func NewAttribute(attr AttributeKind, space Space) (*Attribute, error) {
	if attr.Type() == glbuild.TypeInvalid {
		return nil, glbuild.Errorf(glbuild.InvalidName, "unknown attribute kind %d", attr)
	}
	if space != Local && space != World {
		return nil, glbuild.Errorf(glbuild.InvalidName, "unknown attribute space %d", space)
	}
	if attr == AttrUV && space == World {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "uv attribute has no world space")
	}
	return &Attribute{attr: attr, space: space}, nil
}

func (a *Attribute) Attribute() AttributeKind { return a.attr }
func (a *Attribute) Space() Space             { return a.space }

func (a *Attribute) Type() glbuild.Type { return a.attr.Type() }
func (a *Attribute) Kind() glbuild.Kind { return glbuild.KindAttribute }
func (a *Attribute) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	return nil
}
func (a *Attribute) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glbuild.MakeShaderAttribute(a.attr.Name(), a.attr.Type()))
}

func (a *Attribute) AppendExpr(b []byte, args [][]byte) []byte {
	name := a.attr.Name()
	if a.space == Local {
		return append(b, name...)
	}
	switch a.attr {
	case AttrPosition:
		b = append(b, "(modelMatrix*vec4("...)
		b = append(b, name...)
		b = append(b, ",1.0)).xyz"...)
	case AttrNormal:
		b = append(b, "normalize(mat3(modelMatrix)*"...)
		b = append(b, name...)
		b = append(b, ')')
	case AttrTangent:
		b = append(b, "vec4(normalize(mat3(modelMatrix)*"...)
		b = append(b, name...)
		b = append(b, ".xyz),"...)
		b = append(b, name...)
		b = append(b, ".w)"...)
	}
	return b
}

// Uniform is a named value set once per draw.
type Uniform struct {
	obj glbuild.ShaderObject
}

// NewUniform returns a uniform node. The initial value's shader type must match tp.
// Sampler uniforms may be created with a nil initial value and bound later.
func NewUniform(name string, tp glbuild.Type, initial any) (*Uniform, error) {
	if glbuild.IsReservedName(name) {
		return nil, glbuild.Errorf(glbuild.InvalidName, "uniform name %q is reserved", name)
	}
	obj, err := glbuild.MakeShaderUniform(name, tp, initial)
	if err != nil {
		return nil, err
	}
	return &Uniform{obj: obj}, nil
}

// Name returns the uniform's name in generated source.
func (u *Uniform) Name() string { return string(u.obj.NamePtr) }

// Value returns the uniform's initial value.
func (u *Uniform) Value() any { return u.obj.Value }

func (u *Uniform) Type() glbuild.Type { return u.obj.Type }
func (u *Uniform) Kind() glbuild.Kind { return glbuild.KindUniform }
func (u *Uniform) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	return nil
}
func (u *Uniform) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, u.obj)
}
func (u *Uniform) AppendExpr(b []byte, args [][]byte) []byte {
	return append(b, u.obj.NamePtr...)
}

// Varying forwards a vertex stage expression to the fragment stage. The value is
// interpolated across the primitive.
type Varying struct {
	expr glbuild.Node
}

// NewVarying wraps expr for fragment stage use. expr may not itself be a varying.
func NewVarying(expr glbuild.Node) (*Varying, error) {
	if expr == nil {
		return nil, errNilInput("varying", 0)
	} else if expr.Kind() == glbuild.KindVarying {
		return nil, glbuild.Errorf(glbuild.InvalidStage, "varying of a varying")
	} else if !expr.Type().IsFloating() {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "varying cannot forward %s", expr.Type())
	}
	return &Varying{expr: expr}, nil
}

func (v *Varying) Type() glbuild.Type { return v.expr.Type() }
func (v *Varying) Kind() glbuild.Kind { return glbuild.KindVarying }
func (v *Varying) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	return fn(userData, v.expr)
}
func (v *Varying) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

// AppendExpr appends the wrapped expression. The programmer replaces varyings
// with their declared name in the fragment stage.
func (v *Varying) AppendExpr(b []byte, args [][]byte) []byte {
	return append(b, args[0]...)
}

// TextureSample reads a sampler uniform at a vec2 coordinate and yields a vec4.
type TextureSample struct {
	sampler *Uniform
	coord   glbuild.Node
}

// NewTextureSample returns a node sampling the texture bound to sampler at coord.
func NewTextureSample(sampler *Uniform, coord glbuild.Node) (*TextureSample, error) {
	if sampler == nil {
		return nil, errNilInput("texture sample", 0)
	} else if coord == nil {
		return nil, errNilInput("texture sample", 1)
	}
	if sampler.Type() != glbuild.Sampler2D {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "texture sample requires sampler2D uniform, got %s %s", sampler.Type(), sampler.Name())
	}
	if coord.Type() != glbuild.Vec2 {
		return nil, glbuild.Errorf(glbuild.TypeMismatch, "texture coordinate must be vec2, got %s", coord.Type())
	}
	return &TextureSample{sampler: sampler, coord: coord}, nil
}

func (ts *TextureSample) Type() glbuild.Type { return glbuild.Vec4 }
func (ts *TextureSample) Kind() glbuild.Kind { return glbuild.KindTextureSample }
func (ts *TextureSample) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	if err := fn(userData, ts.sampler); err != nil {
		return err
	}
	return fn(userData, ts.coord)
}
func (ts *TextureSample) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}
func (ts *TextureSample) AppendExpr(b []byte, args [][]byte) []byte {
	b = append(b, "texture("...)
	b = append(b, args[0]...)
	b = append(b, ',')
	b = append(b, args[1]...)
	b = append(b, ')')
	return b
}

// Constant returns a literal node. See [NewConstant].
func (bld *Builder) Constant(v any) glbuild.Node {
	c, err := NewConstant(v)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return c
}

// Attribute returns a vertex attribute node. See [NewAttribute].
func (bld *Builder) Attribute(attr AttributeKind, space Space) glbuild.Node {
	a, err := NewAttribute(attr, space)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return a
}

// Uniform returns a uniform node. See [NewUniform].
func (bld *Builder) Uniform(name string, tp glbuild.Type, initial any) *Uniform {
	u, err := NewUniform(name, tp, initial)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return u
}

// Varying wraps a vertex stage expression for fragment use. See [NewVarying].
func (bld *Builder) Varying(expr glbuild.Node) glbuild.Node {
	v, err := NewVarying(expr)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return v
}

// VaryingAttribute is shorthand for wrapping an attribute in a varying.
func (bld *Builder) VaryingAttribute(attr AttributeKind, space Space) glbuild.Node {
	a := bld.Attribute(attr, space)
	if a == nil {
		return nil
	}
	return bld.Varying(a)
}

// TextureSample returns a texture read node. See [NewTextureSample].
func (bld *Builder) TextureSample(sampler *Uniform, coord glbuild.Node) glbuild.Node {
	ts, err := NewTextureSample(sampler, coord)
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return ts
}
