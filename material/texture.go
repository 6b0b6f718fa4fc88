package material

import (
	"errors"

	"github.com/soypat/gshade/glbuild"
)

// Wrap is the texture coordinate wrapping mode.
type Wrap uint8

const (
	Repeat Wrap = iota
	ClampToEdge
	MirroredRepeat
)

func (w Wrap) String() string {
	switch w {
	case Repeat:
		return "repeat"
	case ClampToEdge:
		return "clamp to edge"
	case MirroredRepeat:
		return "mirrored repeat"
	}
	return "unknown wrap"
}

// Filter is the texture sampling filter.
type Filter uint8

const (
	Linear Filter = iota
	Nearest
	// LinearMipmapLinear requires the renderer to generate mipmaps. Valid only as a minifying filter.
	LinearMipmapLinear
)

func (f Filter) String() string {
	switch f {
	case Linear:
		return "linear"
	case Nearest:
		return "nearest"
	case LinearMipmapLinear:
		return "linear mipmap linear"
	}
	return "unknown filter"
}

// Texture is a handle to 2D image data bound to a sampler2D uniform.
// The renderer uploads Pixels and sets GLID.
type Texture struct {
	Name   string
	Width  int
	Height int
	WrapS  Wrap
	WrapT  Wrap
	// MinFilter defaults to [Linear].
	MinFilter Filter
	MagFilter Filter
	// Pixels in RGBA8 format, 4 bytes per pixel, row-major, top to bottom.
	Pixels []byte
	// GLID is the GPU texture object, zero until uploaded.
	GLID uint32
}

// ShaderType implements [glbuild.Typer] so textures may be used as sampler uniform values.
func (tex *Texture) ShaderType() glbuild.Type { return glbuild.Sampler2D }

// Validate checks the texture dimensions match its pixel data and its filters are valid.
func (tex *Texture) Validate() error {
	if tex.Width <= 0 || tex.Height <= 0 {
		return errors.New("texture " + tex.Name + " has zero dimension")
	}
	if len(tex.Pixels) != 4*tex.Width*tex.Height {
		return errors.New("texture " + tex.Name + " pixel data does not match dimensions")
	}
	if tex.MagFilter == LinearMipmapLinear {
		return errors.New("texture " + tex.Name + " mipmap filter not valid for magnification")
	}
	return nil
}

// NewSolidTexture returns a 1x1 repeating texture of the given RGBA color.
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: []byte{r, g, b, a},
	}
}
