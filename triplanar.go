package gshade

import (
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/glbuild/glsllib"
)

// TriplanarMapping returns a vec4 node sampling tex along the three axis planes of position
// and blending the samples by the absolute components of normal. scale must be a float node.
// See [glsllib.TriplanarMapping].
func (bld *Builder) TriplanarMapping(tex *Uniform, normal, position, scale glbuild.Node) glbuild.Node {
	def, err := DefineFunction(glsllib.TriplanarMapping())
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return bld.Call(def, tex, normal, position, scale)
}

// TriplanarNormal returns a world space vec3 normal node perturbed by the tangent space normal
// map tex projected along the three axis planes of position. normal must be a world space normal.
// See [glsllib.TriplanarNormal].
func (bld *Builder) TriplanarNormal(tex *Uniform, normal, position, scale glbuild.Node) glbuild.Node {
	def, err := DefineFunction(glsllib.TriplanarNormal())
	if err != nil {
		bld.nodeError(err)
		return nil
	}
	return bld.Call(def, tex, normal, position, scale)
}

// WorldTriplanar builds the graph sampling tex triplanarly with world space normals and
// positions forwarded from the vertex stage. It returns the vec4 color node.
func (bld *Builder) WorldTriplanar(tex *Uniform, scale float32) glbuild.Node {
	normal := bld.VaryingAttribute(AttrNormal, World)
	position := bld.VaryingAttribute(AttrPosition, World)
	return bld.TriplanarMapping(tex, normal, position, bld.Constant(scale))
}
