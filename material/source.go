package material

import (
	"bytes"
	_ "embed"

	"github.com/soypat/gshade/glbuild"
)

//go:embed pbr.glsl
var pbrSrc string

// Names of template variables forwarded from the vertex stage.
const (
	vWorldPosition = "vWorldPosition"
	vWorldNormal   = "vWorldNormal"
	vWorldTangent  = "vWorldTangent"
)

// templateNames are the identifiers the material template declares at global scope
// or in main. Graph uniforms and functions may not reuse them.
var templateNames = map[string]struct{}{
	vWorldPosition: {}, vWorldNormal: {}, vWorldTangent: {},
	"PI": {}, "worldPosition": {}, "fragColor": {},
	"evalPBR": {}, "distributionGGX": {}, "geometrySchlickGGX": {}, "fresnelSchlick": {},
	"baseColor": {}, "N": {}, "T": {}, "B": {}, "V": {}, "roughness": {}, "metalness": {},
	"albedo": {}, "toLight": {}, "radiance": {}, "outColor": {}, "hemi": {}, "irradiance": {},
}

func writeDecl(buf *bytes.Buffer, qualifier string, tp glbuild.Type, name string) {
	if qualifier != "" {
		buf.WriteString(qualifier)
		buf.WriteByte(' ')
	}
	buf.WriteString(tp.String())
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(";\n")
}

func (m *Material) writeUniformDecls(buf *bytes.Buffer) {
	for _, u := range builtinUniforms {
		writeDecl(buf, "uniform", u.Type, u.Name)
	}
	for _, u := range m.uniforms {
		writeDecl(buf, "uniform", u.Type, u.Name)
	}
}

func (m *Material) appendVertexSource(dst []byte) string {
	buf := bytes.NewBuffer(dst)
	tangents := m.RequiresTangents()
	buf.WriteString(glbuild.VersionStr)
	for _, attr := range m.Attributes() {
		writeDecl(buf, "in", attr.Type, attr.Name)
	}
	m.writeUniformDecls(buf)
	writeDecl(buf, "out", glbuild.Vec3, vWorldPosition)
	writeDecl(buf, "out", glbuild.Vec3, vWorldNormal)
	if tangents {
		writeDecl(buf, "out", glbuild.Vec4, vWorldTangent)
	}
	for _, v := range m.prog.Varyings {
		writeDecl(buf, "out", v.Type, v.Name)
	}
	buf.WriteString(m.prog.VertexFuncs)
	buf.WriteString("void main() {\n")
	buf.WriteString("vec4 worldPosition=modelMatrix*vec4(position,1.0);\n")
	buf.WriteString(vWorldPosition + "=worldPosition.xyz;\n")
	buf.WriteString(vWorldNormal + "=normalize(mat3(modelMatrix)*normal);\n")
	if tangents {
		buf.WriteString(vWorldTangent + "=vec4(normalize(mat3(modelMatrix)*tangent.xyz),tangent.w);\n")
	}
	buf.WriteString(m.prog.VertexBody)
	buf.WriteString("gl_Position=projectionMatrix*viewMatrix*worldPosition;\n}\n")
	return buf.String()
}

func (m *Material) appendFragmentSource(dst []byte) string {
	buf := bytes.NewBuffer(dst)
	tangents := m.RequiresTangents()
	buf.WriteString(glbuild.VersionStr)
	writeDecl(buf, "in", glbuild.Vec3, vWorldPosition)
	writeDecl(buf, "in", glbuild.Vec3, vWorldNormal)
	if tangents {
		writeDecl(buf, "in", glbuild.Vec4, vWorldTangent)
	}
	for _, v := range m.prog.Varyings {
		writeDecl(buf, "in", v.Type, v.Name)
	}
	buf.WriteString("out vec4 fragColor;\n")
	m.writeUniformDecls(buf)
	buf.WriteString(pbrSrc)
	buf.WriteByte('\n')
	buf.WriteString(m.prog.FragmentFuncs)

	buf.WriteString("void main() {\n")
	for _, out := range m.prog.Outputs {
		writeDecl(buf, "", out.Type, out.Name)
	}
	buf.WriteString(m.prog.FragmentBody)

	color, _ := m.prog.Output(SlotColor)
	if color.Type == glbuild.Vec3 {
		buf.WriteString("vec4 baseColor=vec4(" + color.Name + ",1.0);\n")
	} else {
		buf.WriteString("vec4 baseColor=" + color.Name + ";\n")
	}
	buf.WriteString("vec3 N=normalize(" + vWorldNormal + ");\n")
	if normal, ok := m.prog.Output(SlotNormal); ok {
		if m.cfg.NormalSpace == WorldSpace {
			buf.WriteString("N=normalize(" + normal.Name + ".xyz);\n")
		} else {
			buf.WriteString("vec3 T=normalize(" + vWorldTangent + ".xyz);\n")
			buf.WriteString("vec3 B=cross(N,T)*" + vWorldTangent + ".w;\n")
			buf.WriteString("N=normalize(mat3(T,B,N)*(" + normal.Name + ".xyz*2.0-1.0));\n")
		}
	}
	buf.WriteString("float roughness=" + UniformRoughness)
	if r, ok := m.prog.Output(SlotRoughness); ok {
		buf.WriteString("*" + r.Name)
	}
	buf.WriteString(";\nroughness=clamp(roughness,0.04,1.0);\n")
	buf.WriteString("float metalness=" + UniformMetalness)
	if mt, ok := m.prog.Output(SlotMetalness); ok {
		buf.WriteString("*" + mt.Name)
	}
	buf.WriteString(";\nmetalness=clamp(metalness,0.0,1.0);\n")
	buf.WriteString(`vec3 V=normalize(cameraPosition-vWorldPosition);
vec3 albedo=baseColor.rgb;
vec3 toLight=pointLightPosition-vWorldPosition;
vec3 radiance=pointLightColor*pointLightIntensity*PI;
vec3 outColor=evalPBR(N,V,normalize(toLight),radiance,albedo,metalness,roughness);
float hemi=0.5*N.y+0.5;
vec3 irradiance=mix(hemisphereGroundColor,hemisphereSkyColor,hemi)*hemisphereIntensity;
outColor+=irradiance*albedo*(1.0-metalness);
`)
	if e, ok := m.prog.Output(SlotEmissive); ok {
		buf.WriteString("outColor+=" + e.Name + ";\n")
	}
	buf.WriteString("fragColor=vec4(pow(outColor,vec3(1.0/2.2)),baseColor.a);\n}\n")
	return buf.String()
}
