package gshade_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gshade"
	"github.com/soypat/gshade/glbuild"
)

func TestBuilderPanics(t *testing.T) {
	var bld gshade.Builder
	defer func() {
		if recover() == nil {
			t.Error("expected panic on invalid construction")
		}
	}()
	bld.Add(bld.Constant(ms3.Vec{}), bld.Constant(ms2.Vec{}))
}

func TestBuilderAccumulates(t *testing.T) {
	bld := gshade.Builder{NoPanic: true}
	v3 := bld.Constant(ms3.Vec{X: 1})
	v2 := bld.Constant(ms2.Vec{X: 1})
	bad := bld.Add(v3, v2)
	if bad != nil {
		t.Error("expected nil node on error")
	}
	bld.Uniform("gl_Foo", glbuild.Float, float32(1))
	err := bld.Err()
	if !errors.Is(err, glbuild.ErrTypeMismatch) || !errors.Is(err, glbuild.ErrInvalidName) {
		t.Errorf("expected joined type mismatch and invalid name, got %v", err)
	}
	bld.ClearErrors()
	if bld.Err() != nil {
		t.Error("expected errors cleared")
	}
}

func TestOperatorTypes(t *testing.T) {
	f, _ := gshade.NewConstant(float32(2))
	v2, _ := gshade.NewConstant(ms2.Vec{X: 1, Y: 2})
	v3, _ := gshade.NewConstant(ms3.Vec{X: 1, Y: 2, Z: 3})
	v4, _ := gshade.NewConstant([4]float32{1, 2, 3, 4})
	m4, _ := gshade.NewUniform("uModel", glbuild.Mat4, ms3.ScalingMat4(ms3.Vec{X: 1, Y: 1, Z: 1}))
	for _, test := range []struct {
		op      gshade.Op
		inputs  []glbuild.Node
		want    glbuild.Type
		wantErr error
	}{
		{op: gshade.OpAdd, inputs: []glbuild.Node{v3, v3}, want: glbuild.Vec3},
		{op: gshade.OpMul, inputs: []glbuild.Node{f, v3}, want: glbuild.Vec3},
		{op: gshade.OpDiv, inputs: []glbuild.Node{v2, f}, want: glbuild.Vec2},
		{op: gshade.OpMul, inputs: []glbuild.Node{m4, v4}, want: glbuild.Vec4},
		{op: gshade.OpSub, inputs: []glbuild.Node{v3, v2}, wantErr: glbuild.ErrTypeMismatch},
		{op: gshade.OpAdd, inputs: []glbuild.Node{v3}, wantErr: glbuild.ErrArityMismatch},
		{op: gshade.OpDot, inputs: []glbuild.Node{v3, v3}, want: glbuild.Float},
		{op: gshade.OpCross, inputs: []glbuild.Node{v3, v3}, want: glbuild.Vec3},
		{op: gshade.OpCross, inputs: []glbuild.Node{v4, v4}, wantErr: glbuild.ErrTypeMismatch},
		{op: gshade.OpLength, inputs: []glbuild.Node{v4}, want: glbuild.Float},
		{op: gshade.OpMix, inputs: []glbuild.Node{v3, v3, f}, want: glbuild.Vec3},
		{op: gshade.OpMix, inputs: []glbuild.Node{v3, v3, v2}, wantErr: glbuild.ErrTypeMismatch},
		{op: gshade.OpClamp, inputs: []glbuild.Node{v3, f, f}, want: glbuild.Vec3},
		{op: gshade.OpMax, inputs: []glbuild.Node{v2, f}, want: glbuild.Vec2},
		{op: gshade.OpCombine, inputs: []glbuild.Node{v3, f}, want: glbuild.Vec4},
		{op: gshade.OpCombine, inputs: []glbuild.Node{v3, v2}, wantErr: glbuild.ErrTypeMismatch},
		{op: gshade.OpNormalize, inputs: []glbuild.Node{m4}, wantErr: glbuild.ErrTypeMismatch},
		{op: gshade.OpSwizzle, inputs: []glbuild.Node{v3}, wantErr: glbuild.ErrArityMismatch},
	} {
		o, err := gshade.NewOperator(test.op, test.inputs...)
		if test.wantErr != nil {
			if !errors.Is(err, test.wantErr) {
				t.Errorf("%s: want %v, got %v", test.op, test.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %s", test.op, err)
			continue
		}
		if o.Type() != test.want {
			t.Errorf("%s: want type %s, got %s", test.op, test.want, o.Type())
		}
	}
}

func TestSwizzle(t *testing.T) {
	var bld gshade.Builder
	tex := bld.Uniform("albedo", glbuild.Sampler2D, nil)
	uv := bld.VaryingAttribute(gshade.AttrUV, gshade.Local)
	rgb := bld.Swizzle(bld.TextureSample(tex, uv), "rgb")
	if rgb.Type() != glbuild.Vec3 {
		t.Fatalf("want vec3, got %s", rgb.Type())
	}
	g := bld.NewGraph(glbuild.Output{Slot: "color", Node: bld.Swizzle(bld.Add(rgb, rgb), "xy")})
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	want := "vec4 n0=texture(albedo,vary0);\nvec3 n1=n0.rgb;\nslot_color=(n1+n1).xy;\n"
	if prog.FragmentBody != want {
		t.Errorf("want\n%q\ngot\n%q", want, prog.FragmentBody)
	}

	for _, test := range []struct {
		comps   string
		wantErr error
	}{
		{comps: "xyzw", wantErr: glbuild.ErrTypeMismatch}, // vec3 input.
		{comps: "xg", wantErr: glbuild.ErrInvalidName},
		{comps: "k", wantErr: glbuild.ErrInvalidName},
		{comps: "", wantErr: glbuild.ErrArityMismatch},
		{comps: "zzzz"},
		{comps: "p"},
	} {
		_, err := gshade.NewSwizzle(rgb, test.comps)
		if test.wantErr == nil && err != nil {
			t.Errorf("swizzle %q: %s", test.comps, err)
		} else if test.wantErr != nil && !errors.Is(err, test.wantErr) {
			t.Errorf("swizzle %q: want %v, got %v", test.comps, test.wantErr, err)
		}
	}
}

func TestTextureSampleValidation(t *testing.T) {
	f, _ := gshade.NewUniform("uScale", glbuild.Float, float32(1))
	tex, _ := gshade.NewUniform("tex", glbuild.Sampler2D, nil)
	v3, _ := gshade.NewConstant(ms3.Vec{})
	v2, _ := gshade.NewConstant(ms2.Vec{})
	if _, err := gshade.NewTextureSample(f, v2); !errors.Is(err, glbuild.ErrTypeMismatch) {
		t.Errorf("want type mismatch for float sampler, got %v", err)
	}
	if _, err := gshade.NewTextureSample(tex, v3); !errors.Is(err, glbuild.ErrTypeMismatch) {
		t.Errorf("want type mismatch for vec3 coordinate, got %v", err)
	}
	if _, err := gshade.NewTextureSample(tex, v2); err != nil {
		t.Error(err)
	}
}

func TestUniformValidation(t *testing.T) {
	for _, test := range []struct {
		name    string
		tp      glbuild.Type
		initial any
		wantErr error
	}{
		{name: "uTint", tp: glbuild.Vec3, initial: ms3.Vec{X: 1}},
		{name: "uTint", tp: glbuild.Vec4, initial: ms3.Vec{X: 1}, wantErr: glbuild.ErrTypeMismatch},
		{name: "uTint", tp: glbuild.Float, wantErr: glbuild.ErrTypeMismatch},
		{name: "modelMatrix", tp: glbuild.Mat4, initial: ms3.ScalingMat4(ms3.Vec{X: 1, Y: 1, Z: 1}), wantErr: glbuild.ErrInvalidName},
		{name: "n0", tp: glbuild.Float, initial: float32(0), wantErr: glbuild.ErrInvalidName},
		{name: "slot_color", tp: glbuild.Vec3, initial: ms3.Vec{}, wantErr: glbuild.ErrInvalidName},
		{name: "2fast", tp: glbuild.Float, initial: float32(0), wantErr: glbuild.ErrInvalidName},
	} {
		_, err := gshade.NewUniform(test.name, test.tp, test.initial)
		if test.wantErr == nil && err != nil {
			t.Errorf("%s: %s", test.name, err)
		} else if test.wantErr != nil && !errors.Is(err, test.wantErr) {
			t.Errorf("%s: want %v, got %v", test.name, test.wantErr, err)
		}
	}
}

func TestFunctionDefinitionSignature(t *testing.T) {
	const src = "vec2 rot(vec2 p, float a) { return vec2(cos(a)*p.x-sin(a)*p.y, sin(a)*p.x+cos(a)*p.y); }"
	params := []glbuild.Type{glbuild.Vec2, glbuild.Float}
	def, err := gshade.NewFunctionDefinition("rot", params, glbuild.Vec2, src)
	if err != nil {
		t.Fatal(err)
	}
	if def.Name() != "rot" || def.ReturnType() != glbuild.Vec2 || len(def.Params()) != 2 || def.Source() != src {
		t.Errorf("unexpected definition %s %s %v", def.Name(), def.ReturnType(), def.Params())
	}
	if _, err = gshade.NewFunctionDefinition("rotate", params, glbuild.Vec2, src); !errors.Is(err, glbuild.ErrInvalidName) {
		t.Errorf("want invalid name, got %v", err)
	}
	if _, err = gshade.NewFunctionDefinition("rot", params, glbuild.Vec3, src); !errors.Is(err, glbuild.ErrTypeMismatch) {
		t.Errorf("want type mismatch, got %v", err)
	}
	if _, err = gshade.NewFunctionDefinition("rot", params[:1], glbuild.Vec2, src); !errors.Is(err, glbuild.ErrArityMismatch) {
		t.Errorf("want arity mismatch, got %v", err)
	}
	if _, err = gshade.ParseFunctionDefinition("vec3 main(vec3 p) { return p; }"); !errors.Is(err, glbuild.ErrInvalidName) {
		t.Errorf("want invalid name for reserved function, got %v", err)
	}
}

func TestAttributes(t *testing.T) {
	if _, err := gshade.NewAttribute(gshade.AttrUV, gshade.World); !errors.Is(err, glbuild.ErrTypeMismatch) {
		t.Errorf("want type mismatch for world uv, got %v", err)
	}
	var bld gshade.Builder
	tangent := bld.VaryingAttribute(gshade.AttrTangent, gshade.World)
	g := bld.NewGraph(glbuild.Output{Slot: "normal", Node: bld.Swizzle(tangent, "xyz")})
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	const wantVert = "vary0=vec4(normalize(mat3(modelMatrix)*tangent.xyz),tangent.w);\n"
	if prog.VertexBody != wantVert {
		t.Errorf("want %q, got %q", wantVert, prog.VertexBody)
	}
	if attr, ok := prog.Attribute("tangent"); !ok || attr.Type != glbuild.Vec4 {
		t.Errorf("want vec4 tangent attribute, got %+v", attr)
	}
}

func TestNegativeConstant(t *testing.T) {
	var bld gshade.Builder
	u := bld.Uniform("uOffset", glbuild.Float, float32(0))
	g := bld.NewGraph(glbuild.Output{Slot: "roughness", Node: bld.Sub(u, bld.Constant(float32(-1)))})
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(prog.FragmentBody, "--") {
		t.Errorf("negative literal emitted as decrement: %q", prog.FragmentBody)
	}
}

func TestWorldTriplanar(t *testing.T) {
	var bld gshade.Builder
	tex := bld.Uniform("map", glbuild.Sampler2D, nil)
	color := bld.Swizzle(bld.WorldTriplanar(tex, 0.2), "rgb")
	g := bld.NewGraph(glbuild.Output{Slot: "color", Node: color})
	prog, err := glbuild.NewDefaultProgrammer().Emit(g)
	if err != nil {
		t.Fatal(err)
	}
	want := "vec4 n0=triplanar_mapping(map,vary0,vary1,0.2);\nslot_color=n0.rgb;\n"
	if prog.FragmentBody != want {
		t.Errorf("want\n%q\ngot\n%q", want, prog.FragmentBody)
	}
	if got := strings.Count(prog.FragmentFuncs, "vec4 triplanar_mapping("); got != 1 {
		t.Errorf("want one definition, got %d", got)
	}
}
