// Package material assembles shader graphs into complete physically based
// vertex and fragment programs ready for compilation by a renderer.
package material

import (
	"fmt"
	"reflect"

	"github.com/soypat/gshade/glbuild"
)

// Slots consumed by a Material. Graph outputs with other names are rejected.
const (
	SlotColor     = "color"
	SlotNormal    = "normal"
	SlotRoughness = "roughness"
	SlotMetalness = "metalness"
	SlotEmissive  = "emissive"
)

// Uniforms declared by every material program.
const (
	UniformMetalness = "uMetalness"
	UniformRoughness = "uRoughness"
)

// Uniforms the renderer must set before drawing. They are not listed by [Material.Uniforms].
const (
	ModelMatrix           = "modelMatrix"
	ViewMatrix            = "viewMatrix"
	ProjectionMatrix      = "projectionMatrix"
	CameraPosition        = "cameraPosition"
	HemisphereSkyColor    = "hemisphereSkyColor"
	HemisphereGroundColor = "hemisphereGroundColor"
	HemisphereIntensity   = "hemisphereIntensity"
	PointLightPosition    = "pointLightPosition"
	PointLightColor       = "pointLightColor"
	PointLightIntensity   = "pointLightIntensity"
)

var builtinUniforms = []glbuild.Decl{
	{Name: ModelMatrix, Type: glbuild.Mat4},
	{Name: ViewMatrix, Type: glbuild.Mat4},
	{Name: ProjectionMatrix, Type: glbuild.Mat4},
	{Name: CameraPosition, Type: glbuild.Vec3},
	{Name: HemisphereSkyColor, Type: glbuild.Vec3},
	{Name: HemisphereGroundColor, Type: glbuild.Vec3},
	{Name: HemisphereIntensity, Type: glbuild.Float},
	{Name: PointLightPosition, Type: glbuild.Vec3},
	{Name: PointLightColor, Type: glbuild.Vec3},
	{Name: PointLightIntensity, Type: glbuild.Float},
}

// BuiltinUniforms returns the renderer supplied uniforms declared by material programs.
func BuiltinUniforms() []glbuild.Decl {
	return append([]glbuild.Decl(nil), builtinUniforms...)
}

// NormalSpace selects how the normal slot value is interpreted.
type NormalSpace uint8

const (
	// TangentSpace normals are [0,1] encoded normal map values. Requires per-vertex tangents.
	TangentSpace NormalSpace = iota
	// WorldSpace normals are used directly after normalization.
	WorldSpace
)

func (ns NormalSpace) String() string {
	switch ns {
	case TangentSpace:
		return "tangent space"
	case WorldSpace:
		return "world space"
	}
	return "unknown normal space"
}

// Config holds material parameters that are not part of the shader graph.
type Config struct {
	// Metalness and Roughness are the initial values of the uMetalness and uRoughness uniforms
	// and must be within [0,1]. Roughness and metalness slots, when bound, are scaled by them.
	Metalness float32
	Roughness float32
	// NormalSpace is how the normal slot is interpreted.
	NormalSpace NormalSpace
}

// DefaultConfig returns a fully rough dielectric configuration.
func DefaultConfig() Config {
	return Config{
		Metalness: 0,
		Roughness: 1,
	}
}

// Uniform is a named uniform declaration and its current value.
type Uniform struct {
	Name  string
	Type  glbuild.Type
	Value any
}

// Material is a physically based material whose inputs are supplied by a shader graph.
// Generated source is cached and regenerated only by [Material.SetGraph].
// A Material must not be mutated concurrently.
type Material struct {
	cfg      Config
	graph    *glbuild.Graph
	prog     glbuild.Program
	vertSrc  string
	fragSrc  string
	uniforms []Uniform
	// generated counts source generations.
	generated int
}

// New validates the graph's slot bindings and generates the material's shader programs.
func New(g *glbuild.Graph, cfg Config) (*Material, error) {
	if cfg.Metalness < 0 || cfg.Metalness > 1 || cfg.Roughness < 0 || cfg.Roughness > 1 {
		return nil, fmt.Errorf("material: metalness %v and roughness %v must be in [0,1]", cfg.Metalness, cfg.Roughness)
	}
	if cfg.NormalSpace > WorldSpace {
		return nil, fmt.Errorf("material: invalid normal space %d", cfg.NormalSpace)
	}
	m := &Material{cfg: cfg}
	err := m.SetGraph(g)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SetGraph replaces the material's graph and regenerates its source. Values of uniforms
// present in both the old and new graph with the same type are preserved unless the
// new graph supplies a different non-nil initial value, which then takes effect.
// On error the material is left unchanged.
func (m *Material) SetGraph(g *glbuild.Graph) error {
	if g == nil {
		return errorf(MissingRequiredSlot, "nil graph")
	}
	if err := validateSlots(g); err != nil {
		return err
	}
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		return fmt.Errorf("material: %w", err)
	}
	for _, fn := range prog.Functions {
		if isMaterialName(fn.Name) {
			return errorf(ReservedUniformName, "graph function %q shadows material identifier", fn.Name)
		}
	}
	uniforms := make([]Uniform, 0, len(prog.Uniforms)+2)
	for _, u := range prog.Uniforms {
		if isMaterialName(u.Name) {
			return errorf(ReservedUniformName, "graph uniform %q shadows material identifier", u.Name)
		}
		value := u.Value
		if tex, ok := value.(*Texture); ok && tex == nil {
			value = nil // Unbound sampler.
		}
		uniforms = append(uniforms, Uniform{Name: u.Name, Type: u.Type, Value: value})
	}
	uniforms = append(uniforms,
		Uniform{Name: UniformMetalness, Type: glbuild.Float, Value: m.cfg.Metalness},
		Uniform{Name: UniformRoughness, Type: glbuild.Float, Value: m.cfg.Roughness},
	)
	for i := range uniforms {
		u := &uniforms[i]
		old, ok := m.findUniform(u.Name)
		if !ok || old.Type != u.Type || old.Value == nil {
			continue
		}
		if u.Value == nil || sameValue(u.Value, m.initialValue(u.Name)) {
			u.Value = old.Value
		}
	}
	m.graph = g
	m.prog = prog
	m.uniforms = uniforms
	m.vertSrc = m.appendVertexSource(nil)
	m.fragSrc = m.appendFragmentSource(nil)
	m.generated++
	return nil
}

var slotTypes = map[string][]glbuild.Type{
	SlotColor:     {glbuild.Vec3, glbuild.Vec4},
	SlotNormal:    {glbuild.Vec3, glbuild.Vec4},
	SlotRoughness: {glbuild.Float},
	SlotMetalness: {glbuild.Float},
	SlotEmissive:  {glbuild.Vec3},
}

func validateSlots(g *glbuild.Graph) error {
	for _, out := range g.Outputs() {
		allowed, ok := slotTypes[out.Slot]
		if !ok {
			return errorf(UnknownSlot, "%q", out.Slot)
		}
		tp := out.Node.Type()
		match := false
		for _, t := range allowed {
			match = match || t == tp
		}
		if !match {
			return errorf(SlotTypeMismatch, "slot %q bound to %s, want one of %v", out.Slot, tp, allowed)
		}
	}
	if _, ok := g.Output(SlotColor); !ok {
		return errorf(MissingRequiredSlot, "%q", SlotColor)
	}
	return nil
}

// initialValue returns the value a uniform was declared with by the current graph or config.
func (m *Material) initialValue(name string) any {
	switch name {
	case UniformMetalness:
		return m.cfg.Metalness
	case UniformRoughness:
		return m.cfg.Roughness
	}
	u, _ := m.prog.Uniform(name)
	return u.Value
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}

// isMaterialName reports whether name is declared by the material template or the renderer.
func isMaterialName(name string) bool {
	if name == UniformMetalness || name == UniformRoughness {
		return true
	}
	if _, ok := templateNames[name]; ok {
		return true
	}
	for _, b := range builtinUniforms {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Graph returns the graph the material was generated from.
func (m *Material) Graph() *glbuild.Graph { return m.graph }

// Program returns the generated graph program the material sources embed.
func (m *Material) Program() glbuild.Program { return m.prog }

// VertexSource returns the complete GLSL vertex shader. It is not null terminated.
func (m *Material) VertexSource() string { return m.vertSrc }

// FragmentSource returns the complete GLSL fragment shader. It is not null terminated.
func (m *Material) FragmentSource() string { return m.fragSrc }

// NormalSpace returns how the normal slot is interpreted.
func (m *Material) NormalSpace() NormalSpace { return m.cfg.NormalSpace }

// RequiresTangents reports whether meshes drawn with the material must supply the tangent attribute.
func (m *Material) RequiresTangents() bool {
	if _, ok := m.prog.Attribute("tangent"); ok {
		return true
	}
	_, hasNormal := m.graph.Output(SlotNormal)
	return hasNormal && m.cfg.NormalSpace == TangentSpace
}

// Attributes returns the vertex attributes the vertex shader reads, in declaration order.
func (m *Material) Attributes() []glbuild.Decl {
	attrs := []glbuild.Decl{
		{Name: "position", Type: glbuild.Vec3},
		{Name: "normal", Type: glbuild.Vec3},
	}
	if _, ok := m.prog.Attribute("uv"); ok {
		attrs = append(attrs, glbuild.Decl{Name: "uv", Type: glbuild.Vec2})
	}
	if m.RequiresTangents() {
		attrs = append(attrs, glbuild.Decl{Name: "tangent", Type: glbuild.Vec4})
	}
	return attrs
}

// Uniforms returns the material's uniforms in declaration order: graph uniforms in order
// of first use followed by uMetalness and uRoughness.
func (m *Material) Uniforms() []Uniform {
	return append([]Uniform(nil), m.uniforms...)
}

// Uniform returns the named uniform.
func (m *Material) Uniform(name string) (Uniform, error) {
	u, ok := m.findUniform(name)
	if !ok {
		return Uniform{}, errorf(UnknownUniform, "%q", name)
	}
	return u, nil
}

func (m *Material) findUniform(name string) (Uniform, bool) {
	for _, u := range m.uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return Uniform{}, false
}

// SetUniform sets a uniform's value. The value's shader type must match the declaration;
// sampler uniforms accept *Texture values.
func (m *Material) SetUniform(name string, value any) error {
	for i := range m.uniforms {
		u := &m.uniforms[i]
		if u.Name != name {
			continue
		}
		if tex, ok := value.(*Texture); ok && tex == nil {
			return errorf(UniformTypeMismatch, "%s: nil texture", name)
		}
		tp, err := glbuild.TypeOf(value)
		if err != nil {
			return errorf(UniformTypeMismatch, "%s: %s", name, err)
		} else if tp != u.Type {
			return errorf(UniformTypeMismatch, "%s declared %s, got %s", name, u.Type, tp)
		}
		u.Value = value
		return nil
	}
	return errorf(UnknownUniform, "%q", name)
}

// SetMetalness sets the uMetalness uniform.
func (m *Material) SetMetalness(metalness float32) error {
	return m.SetUniform(UniformMetalness, metalness)
}

// SetRoughness sets the uRoughness uniform.
func (m *Material) SetRoughness(roughness float32) error {
	return m.SetUniform(UniformRoughness, roughness)
}
