package glbuild_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gshade"
	"github.com/soypat/gshade/glbuild"
)

const triplanarSrc = `vec4 triplanar_mapping( sampler2D map, vec3 normal, vec3 position, float scale ) {
    vec3 bf = normalize( abs( normal ) );
    bf /= dot( bf, vec3( 1.0 ) );
    vec2 tx = position.yz * scale;
    vec2 ty = position.zx * scale;
    vec2 tz = position.xy * scale;
    vec4 cx = texture( map, tx ) * bf.x;
    vec4 cy = texture( map, ty ) * bf.y;
    vec4 cz = texture( map, tz ) * bf.z;
    return cx + cy + cz;
}`

func triplanarGraph(t *testing.T, bld *gshade.Builder) *glbuild.Graph {
	t.Helper()
	def, err := gshade.NewFunctionDefinition("triplanar_mapping",
		[]glbuild.Type{glbuild.Sampler2D, glbuild.Vec3, glbuild.Vec3, glbuild.Float}, glbuild.Vec4, triplanarSrc)
	if err != nil {
		t.Fatal(err)
	}
	tex := bld.Uniform("map", glbuild.Sampler2D, nil)
	normal := bld.VaryingAttribute(gshade.AttrNormal, gshade.World)
	position := bld.VaryingAttribute(gshade.AttrPosition, gshade.World)
	color := bld.Call(def, tex, normal, position, bld.Constant(float32(0.2)))
	return bld.NewGraph(glbuild.Output{Slot: "color", Node: color})
}

func TestTriplanarScenario(t *testing.T) {
	var bld gshade.Builder
	g := triplanarGraph(t, &bld)
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	src := prog.FragmentSource()
	if got := strings.Count(src, "bf /= dot( bf, vec3( 1.0 ) );"); got != 1 {
		t.Errorf("want function body once, got %d:\n%s", got, src)
	}
	const call = "triplanar_mapping(map,vary0,vary1,0.2)"
	if got := strings.Count(prog.FragmentBody, call); got != 1 {
		t.Errorf("want one call %q, got %d:\n%s", call, got, prog.FragmentBody)
	}
	if got := strings.Count(prog.FragmentFuncs, "texture( map, t"); got != 3 {
		t.Errorf("want three projected samples, got %d", got)
	}
	if strings.Index(src, "vec4 triplanar_mapping(") > strings.Index(src, call) {
		t.Error("function definition must precede its call site")
	}
	wantBody := "vec4 n0=" + call + ";\nslot_color=n0;\n"
	if prog.FragmentBody != wantBody {
		t.Errorf("fragment body mismatch:\nwant %q\ngot  %q", wantBody, prog.FragmentBody)
	}
	wantVert := "vary0=normalize(mat3(modelMatrix)*normal);\nvary1=(modelMatrix*vec4(position,1.0)).xyz;\n"
	if prog.VertexBody != wantVert {
		t.Errorf("vertex body mismatch:\nwant %q\ngot  %q", wantVert, prog.VertexBody)
	}
	if prog.VertexFuncs != "" {
		t.Errorf("unexpected vertex functions %q", prog.VertexFuncs)
	}
	if len(prog.Uniforms) != 1 || prog.Uniforms[0].Name != "map" || prog.Uniforms[0].Type != glbuild.Sampler2D {
		t.Errorf("unexpected uniforms %+v", prog.Uniforms)
	}
	if len(prog.Varyings) != 2 || len(prog.Attributes) != 2 {
		t.Errorf("want 2 varyings and 2 attributes, got %+v %+v", prog.Varyings, prog.Attributes)
	}
	if len(prog.Outputs) != 1 || prog.Outputs[0] != (glbuild.Decl{Name: "slot_color", Type: glbuild.Vec4}) {
		t.Errorf("unexpected outputs %+v", prog.Outputs)
	}
}

func TestDeterminism(t *testing.T) {
	var bld gshade.Builder
	g := triplanarGraph(t, &bld)
	prog := glbuild.NewDefaultProgrammer()
	p1, err := prog.Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	// Same programmer reuses buffers, distinct programmer starts from scratch.
	p2, err := prog.Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	p3, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []glbuild.Program{p2, p3} {
		if p.FragmentSource() != p1.FragmentSource() || p.VertexSource() != p1.VertexSource() {
			t.Errorf("non deterministic output:\n%s\n%s", p1.FragmentSource(), p.FragmentSource())
		}
	}
}

func TestSharedNodeEvaluatedOnce(t *testing.T) {
	var bld gshade.Builder
	pos := bld.VaryingAttribute(gshade.AttrPosition, gshade.Local)
	n := bld.Normalize(pos)
	sum := bld.Add(n, n)
	scaled := bld.Mul(sum, bld.Length(n))
	g := bld.NewGraph(glbuild.Output{Slot: "color", Node: scaled})
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	body := prog.FragmentBody
	if got := strings.Count(body, "normalize(vary0)"); got != 1 {
		t.Errorf("want one evaluation of shared node, got %d:\n%s", got, body)
	}
	want := "vec3 n0=normalize(vary0);\nslot_color=((n0+n0)*length(n0));\n"
	if body != want {
		t.Errorf("want\n%q\ngot\n%q", want, body)
	}
	if prog.VertexBody != "vary0=position;\n" {
		t.Errorf("unexpected vertex body %q", prog.VertexBody)
	}
}

func TestFunctionEmittedOnce(t *testing.T) {
	var bld gshade.Builder
	def := bld.ParseFunction("float lum(vec3 c) { return dot(c, vec3(0.2126, 0.7152, 0.0722)); }")
	// Identical definition parsed twice must be deduplicated by source.
	def2 := bld.ParseFunction("float lum(vec3 c) { return dot(c, vec3(0.2126, 0.7152, 0.0722)); }")
	a := bld.Call(def, bld.Constant(ms3.Vec{X: 1}))
	b := bld.Call(def2, bld.Constant(ms3.Vec{Y: 1}))
	c := bld.Call(def, bld.Constant(ms3.Vec{Z: 1}))
	g := bld.NewGraph(glbuild.Output{Slot: "roughness", Node: bld.Add(bld.Add(a, b), c)})
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	src := prog.FragmentSource()
	if got := strings.Count(src, "float lum(vec3 c)"); got != 1 {
		t.Errorf("want function body once, got %d:\n%s", got, src)
	}
	if got := strings.Count(src, "lum(vec3("); got != 3 {
		t.Errorf("want three call sites, got %d:\n%s", got, src)
	}
	if strings.Index(src, "float lum(") > strings.Index(src, "lum(vec3(") {
		t.Error("definition after call site")
	}
	want := "float n0=lum(vec3(1.0,0.0,0.0));\nfloat n1=lum(vec3(0.0,1.0,0.0));\nfloat n2=lum(vec3(0.0,0.0,1.0));\nslot_roughness=((n0+n1)+n2);\n"
	if prog.FragmentBody != want {
		t.Errorf("want\n%q\ngot\n%q", want, prog.FragmentBody)
	}
	if d, ok := prog.Function("lum"); !ok || d.Type != glbuild.Float || len(prog.Functions) != 1 {
		t.Errorf("unexpected function listing %+v", prog.Functions)
	}
}

func TestVaryingDeduplication(t *testing.T) {
	var bld gshade.Builder
	// Structurally identical varyings from distinct nodes.
	v1 := bld.VaryingAttribute(gshade.AttrPosition, gshade.World)
	v2 := bld.VaryingAttribute(gshade.AttrPosition, gshade.World)
	v3 := bld.VaryingAttribute(gshade.AttrPosition, gshade.Local)
	sum := bld.Add(bld.Add(v1, v2), bld.Add(v1, v3))
	g := bld.NewGraph(glbuild.Output{Slot: "emissive", Node: sum})
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Varyings) != 2 {
		t.Fatalf("want 2 varyings, got %+v", prog.Varyings)
	}
	if got := strings.Count(prog.VertexBody, "vary"); got != 2 {
		t.Errorf("want 2 varying assignments, got %d:\n%s", got, prog.VertexBody)
	}
	want := "slot_emissive=((vary0+vary0)+(vary0+vary1));\n"
	if prog.FragmentBody != want {
		t.Errorf("want %q, got %q", want, prog.FragmentBody)
	}
	if len(prog.Attributes) != 1 || prog.Attributes[0].Name != "position" {
		t.Errorf("want single position attribute, got %+v", prog.Attributes)
	}
}

func TestConstantOnly(t *testing.T) {
	var bld gshade.Builder
	g := bld.NewGraph(glbuild.Output{Slot: "color", Node: bld.Constant(ms3.Vec{X: 1, Y: 0.5, Z: 0})})
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	if prog.FragmentFuncs != "" || prog.VertexSource() != "" {
		t.Errorf("unexpected declarations %q %q", prog.FragmentFuncs, prog.VertexSource())
	}
	const want = "slot_color=vec3(1.0,0.5,0.0);\n"
	if prog.FragmentBody != want {
		t.Errorf("want %q, got %q", want, prog.FragmentBody)
	}
}

func TestArityMismatch(t *testing.T) {
	def, err := gshade.ParseFunctionDefinition(triplanarSrc)
	if err != nil {
		t.Fatal(err)
	}
	scale, _ := gshade.NewConstant(float32(1))
	_, err = gshade.NewFunctionCall(def, scale)
	if !errors.Is(err, glbuild.ErrArityMismatch) {
		t.Errorf("want arity mismatch, got %v", err)
	}
	_, err = gshade.NewFunctionCall(def, scale, scale, scale, scale)
	if !errors.Is(err, glbuild.ErrTypeMismatch) {
		t.Errorf("want type mismatch, got %v", err)
	}
}

func TestDuplicateFunctionConflict(t *testing.T) {
	bld := gshade.Builder{NoPanic: true}
	f1 := bld.ParseFunction("float f(float x) { return x; }")
	f2 := bld.ParseFunction("float f(float x) { return 2.0*x; }")
	x := bld.Constant(float32(1))
	g := bld.NewGraph(
		glbuild.Output{Slot: "roughness", Node: bld.Call(f1, x)},
		glbuild.Output{Slot: "metalness", Node: bld.Call(f2, x)},
	)
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	_, err := glbuild.NewDefaultProgrammer().Emit(g)
	if !errors.Is(err, glbuild.ErrDuplicateFunctionNameConflict) {
		t.Errorf("want duplicate function conflict, got %v", err)
	}
}

func TestDuplicateUniform(t *testing.T) {
	var bld gshade.Builder
	a := bld.Uniform("k", glbuild.Float, float32(1))
	b := bld.Uniform("k", glbuild.Float, float32(1))
	c := bld.Uniform("k", glbuild.Float, float32(2))
	prog := glbuild.NewDefaultProgrammer()
	p, err := prog.Emit(bld.NewGraph(glbuild.Output{Slot: "roughness", Node: bld.Add(a, b)}))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Uniforms) != 1 {
		t.Errorf("want single uniform declaration, got %+v", p.Uniforms)
	}
	_, err = prog.Emit(bld.NewGraph(glbuild.Output{Slot: "roughness", Node: bld.Add(a, c)}))
	if !errors.Is(err, glbuild.ErrDuplicateUniformConflict) {
		t.Errorf("want duplicate uniform conflict, got %v", err)
	}
}

func TestDuplicateSampler(t *testing.T) {
	var bld gshade.Builder
	albedo := bld.Uniform("map", glbuild.Sampler2D, nil)
	bump := bld.Uniform("map", glbuild.Sampler2D, nil)
	uv := bld.VaryingAttribute(gshade.AttrUV, gshade.Local)
	prog := glbuild.NewDefaultProgrammer()
	_, err := prog.Emit(bld.NewGraph(
		glbuild.Output{Slot: "color", Node: bld.TextureSample(albedo, uv)},
		glbuild.Output{Slot: "normal", Node: bld.TextureSample(bump, uv)},
	))
	if !errors.Is(err, glbuild.ErrDuplicateUniformConflict) {
		t.Errorf("want duplicate uniform conflict for distinct samplers, got %v", err)
	}
	// The same sampler node read twice is a single declaration.
	p, err := prog.Emit(bld.NewGraph(
		glbuild.Output{Slot: "color", Node: bld.TextureSample(albedo, uv)},
		glbuild.Output{Slot: "normal", Node: bld.Swizzle(bld.TextureSample(albedo, uv), "xyz")},
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Uniforms) != 1 {
		t.Errorf("want single sampler declaration, got %+v", p.Uniforms)
	}
}

func TestUniformFunctionNameClash(t *testing.T) {
	var bld gshade.Builder
	def := bld.ParseFunction("float lum(vec3 c) { return dot(c, vec3(0.2126, 0.7152, 0.0722)); }")
	u := bld.Uniform("lum", glbuild.Float, float32(1))
	call := bld.Call(def, bld.Constant(ms3.Vec{X: 1}))
	prog := glbuild.NewDefaultProgrammer()
	for _, node := range []glbuild.Node{bld.Add(call, u), bld.Add(u, call)} {
		_, err := prog.Emit(bld.NewGraph(glbuild.Output{Slot: "roughness", Node: node}))
		if !errors.Is(err, glbuild.ErrInvalidName) {
			t.Errorf("want invalid name, got %v", err)
		}
	}
}

func TestAppendAllNodes(t *testing.T) {
	var bld gshade.Builder
	pos := bld.Attribute(gshade.AttrPosition, gshade.Local)
	vpos := bld.Varying(pos)
	n := bld.Normalize(vpos)
	c := bld.Constant(ms3.Vec{X: 1})
	root := bld.Add(bld.Add(n, c), n)
	for _, test := range []struct {
		stopAtVaryings bool
		want           []glbuild.Node
	}{
		{stopAtVaryings: true, want: []glbuild.Node{vpos, n, c}},
		{stopAtVaryings: false, want: []glbuild.Node{pos, vpos, n, c}},
	} {
		nodes, err := glbuild.AppendAllNodes(nil, root, test.stopAtVaryings)
		if err != nil {
			t.Fatal(err)
		}
		if len(nodes) != len(test.want)+2 {
			t.Fatalf("want %d nodes, got %d", len(test.want)+2, len(nodes))
		}
		for i, want := range test.want {
			if nodes[i] != want {
				t.Errorf("stopAtVaryings=%v: node %d is %s, want %s", test.stopAtVaryings, i, glbuild.FormatNode(nodes[i]), glbuild.FormatNode(want))
			}
		}
		if nodes[len(nodes)-1] != root {
			t.Error("root must be last in post-order")
		}
	}
	if got := glbuild.FormatNode(root); got != "operator(operator(operator(varying(attribute)),constant),operator(varying(attribute)))" {
		t.Errorf("unexpected format %q", got)
	}
}

func TestInvalidStage(t *testing.T) {
	var bld gshade.Builder
	pos := bld.Attribute(gshade.AttrPosition, gshade.Local)
	prog := glbuild.NewDefaultProgrammer()
	for _, g := range []*glbuild.Graph{
		bld.NewGraph(glbuild.Output{Slot: "color", Node: pos}),
		bld.NewGraph(glbuild.Output{Slot: "color", Node: bld.Normalize(pos)}),
	} {
		_, err := prog.Emit(g)
		if !errors.Is(err, glbuild.ErrInvalidStage) {
			t.Errorf("want invalid stage, got %v", err)
		}
	}
	// Attributes nested in a varying expression are valid.
	g := bld.NewGraph(glbuild.Output{Slot: "color", Node: bld.Varying(bld.Normalize(pos))})
	p, err := prog.Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	if p.VertexBody != "vary0=normalize(position);\n" || p.FragmentBody != "slot_color=vary0;\n" {
		t.Errorf("unexpected program:\n%s\n%s", p.VertexBody, p.FragmentBody)
	}
}

// selfRef is a malformed node that lists itself as an input.
type selfRef struct{}

func (s *selfRef) Type() glbuild.Type { return glbuild.Float }
func (s *selfRef) Kind() glbuild.Kind { return glbuild.KindOperator }
func (s *selfRef) ForEachInput(userData any, fn func(userData any, in glbuild.Node) error) error {
	return fn(userData, s)
}
func (s *selfRef) AppendExpr(b []byte, args [][]byte) []byte { return append(b, "x"...) }
func (s *selfRef) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func TestCyclicReference(t *testing.T) {
	g, err := glbuild.NewGraph(glbuild.Output{Slot: "roughness", Node: &selfRef{}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = glbuild.NewDefaultProgrammer().Emit(g)
	if !errors.Is(err, glbuild.ErrCyclicReference) {
		t.Errorf("want cyclic reference, got %v", err)
	} else if !strings.Contains(err.Error(), "operator(<cycle>)") {
		t.Errorf("error does not describe cycle: %v", err)
	}
}

func TestGraphSlots(t *testing.T) {
	c, _ := gshade.NewConstant(float32(1))
	g := new(glbuild.Graph)
	if err := g.AddOutput("color", c); err != nil {
		t.Fatal(err)
	}
	if err := g.AddOutput("color", c); !errors.Is(err, glbuild.ErrDuplicateSlot) {
		t.Errorf("want duplicate slot, got %v", err)
	}
	if err := g.AddOutput("bad name", c); !errors.Is(err, glbuild.ErrInvalidName) {
		t.Errorf("want invalid name, got %v", err)
	}
	u, _ := gshade.NewUniform("tex", glbuild.Sampler2D, nil)
	if err := g.AddOutput("normal", u); !errors.Is(err, glbuild.ErrTypeMismatch) {
		t.Errorf("want type mismatch for sampler slot, got %v", err)
	}
	if n, ok := g.Output("color"); !ok || n != c {
		t.Error("output lookup failed")
	}
}

func TestMakeShaderFunction(t *testing.T) {
	for _, test := range []struct {
		src     string
		wantErr error
	}{
		{src: "// comment\nvec3 f(vec3 a, float b) { return a*b; }"},
		{src: "vec3 f(inout vec3 a) { return a; }", wantErr: glbuild.ErrTypeMismatch},
		{src: "void f(float a) { }", wantErr: glbuild.ErrTypeMismatch},
		{src: "float f(int a) { return 1.0; }", wantErr: glbuild.ErrTypeMismatch},
		{src: "float gl_f(float a) { return a; }", wantErr: glbuild.ErrInvalidName},
	} {
		_, err := glbuild.MakeShaderFunction([]byte(test.src))
		if test.wantErr == nil && err != nil {
			t.Errorf("%q: %s", test.src, err)
		} else if test.wantErr != nil && !errors.Is(err, test.wantErr) {
			t.Errorf("%q: want %v, got %v", test.src, test.wantErr, err)
		}
	}
}

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{0.2, "0.2"},
		{1, "1.0"},
		{-3, "-3.0"},
		{0, "0.0"},
		{1.5e-7, "0.00000015"},
	} {
		got := string(glbuild.AppendFloat(nil, '-', '.', test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v): want %q, got %q", test.v, test.want, got)
		}
	}
}
