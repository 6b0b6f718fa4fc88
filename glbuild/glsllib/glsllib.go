// Package glsllib contains reusable GLSL function definitions for use with [glbuild.Node] graphs.
package glsllib

import (
	_ "embed"

	"github.com/soypat/gshade/glbuild"
)

//go:embed triplanar.glsl
var triplanarSrc []byte

// TriplanarMapping projects a texture along the three axes and blends the samples
// by the absolute normal components:
//
//	vec4 triplanar_mapping(sampler2D map, vec3 normal, vec3 position, float scale)
func TriplanarMapping() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(triplanarSrc)
	return obj
}

//go:embed triplanar_normal.glsl
var triplanarNormalSrc []byte

// TriplanarNormal samples a tangent space normal map along the three axes and
// returns the blended world space normal:
//
//	vec3 triplanar_normal(sampler2D normalMap, vec3 normal, vec3 position, float scale)
func TriplanarNormal() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(triplanarNormalSrc)
	return obj
}
