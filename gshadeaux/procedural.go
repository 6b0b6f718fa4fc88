package gshadeaux

import (
	"errors"
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/gshade/material"
)

// HSV color logic taken from Esme Lamb's (@dedelala)
// excellent color manipulation work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

// CheckerTexture returns a size×size repeating texture of cells×cells squares alternating
// between c0 and c1. Square edges are anti-aliased over a texel, interpolating in HSV space.
func CheckerTexture(name string, size, cells int, c0, c1 color.Color) (*material.Texture, error) {
	if size <= 0 || size > maxTextureSize || size&(size-1) != 0 {
		return nil, errors.New("checker size must be a power of two")
	} else if cells <= 0 || cells > size {
		return nil, errors.New("checker cells must be in [1,size]")
	}
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	pix := make([]byte, 4*size*size)
	cellSize := float32(size) / float32(cells)
	halfTexel := 0.5 / cellSize
	for y := 0; y < size; y++ {
		fy := (float32(y) + 0.5) / cellSize
		by := squareWave(fy, halfTexel)
		for x := 0; x < size; x++ {
			fx := (float32(x) + 0.5) / cellSize
			bx := squareWave(fx, halfTexel)
			// XOR of the two square waves.
			blend := bx + by - 2*bx*by
			c := rgbToC(hsvToRGB(interpHSV(h0, s0, v0, h1, s1, v1, blend)))
			off := 4 * (y*size + x)
			pix[off] = uint8(c >> 16)
			pix[off+1] = uint8(c >> 8)
			pix[off+2] = uint8(c)
			pix[off+3] = 255
		}
	}
	return &material.Texture{
		Name:      name,
		Width:     size,
		Height:    size,
		MinFilter: material.LinearMipmapLinear,
		Pixels:    pix,
	}, nil
}

// squareWave is 0 on even unit intervals of t and 1 on odd ones, smoothed by width at transitions.
func squareWave(t, width float32) float32 {
	f := t - math.Floor(t/2)*2 // in [0,2)
	return ms1.SmoothStep(1-width, 1+width, f) - ms1.SmoothStep(2-width, 2+width, f) +
		1 - ms1.SmoothStep(-width, width, f)
}

// BumpNormalMap returns a size×size tangent-space normal map of the tileable height field
// sin(2π·freq·u)·sin(2π·freq·v). strength scales the slope. Normals are encoded into [0,1].
func BumpNormalMap(name string, size, freq int, strength float32) (*material.Texture, error) {
	if size <= 0 || size > maxTextureSize || size&(size-1) != 0 {
		return nil, errors.New("normal map size must be a power of two")
	} else if freq <= 0 {
		return nil, errors.New("bump frequency must be positive")
	} else if strength < 0 || math.IsNaN(strength) {
		return nil, errors.New("bump strength must be non-negative")
	}
	pix := make([]byte, 4*size*size)
	w := 2 * math.Pi * float32(freq)
	for y := 0; y < size; y++ {
		// Rows are stored top to bottom, V increases upwards.
		v := 1 - (float32(y)+0.5)/float32(size)
		sv, cv := math.Sincos(w * v)
		for x := 0; x < size; x++ {
			u := (float32(x) + 0.5) / float32(size)
			su, cu := math.Sincos(w * u)
			n := ms3.Unit(ms3.Vec{X: -strength * cu * sv, Y: -strength * su * cv, Z: 1})
			off := 4 * (y*size + x)
			pix[off] = encodeUnorm(n.X)
			pix[off+1] = encodeUnorm(n.Y)
			pix[off+2] = encodeUnorm(n.Z)
			pix[off+3] = 255
		}
	}
	return &material.Texture{
		Name:      name,
		Width:     size,
		Height:    size,
		MinFilter: material.LinearMipmapLinear,
		Pixels:    pix,
	}, nil
}

func encodeUnorm(f float32) uint8 {
	return uint8(ms1.Clamp(f*0.5+0.5, 0, 1)*math.MaxUint8 + 0.5)
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

func colorToHSV(c color.Color) (h, s, v float32) {
	r0, g0, b0, _ := c.RGBA()
	return rgbToHSV(float32(r0>>8)/math.MaxUint8, float32(g0>>8)/math.MaxUint8, float32(b0>>8)/math.MaxUint8)
}

// rgbToC converts r, g, and b values on the range of 0.0 to 1.0 to a
// 24 bit RGB value stored in the least significant bits of a uint32. The inputs
// are clamped to the range of 0.0 to 1.0
func rgbToC(r, g, b float32) (c uint32) {
	return uint32(ms1.Clamp(r, 0, 1)*math.MaxUint8+0.5)<<16 |
		uint32(ms1.Clamp(g, 0, 1)*math.MaxUint8+0.5)<<8 |
		uint32(ms1.Clamp(b, 0, 1)*math.MaxUint8+0.5)
}

// hsvToRGB converts hue, saturation and brightness values on the range of 0.0
// to 1.0 to RGB floating point values on the range of 0.0 to 1.0
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)

	switch {
	case h >= 0 && h <= 1.0/6:
		r, g, b = c, x, 0
	case h > 1.0/6 && h <= 2.0/6:
		r, g, b = x, c, 0
	case h > 2.0/6 && h <= 3.0/6:
		r, g, b = 0, c, x
	case h > 3.0/6 && h <= 4.0/6:
		r, g, b = 0, x, c
	case h > 4.0/6 && h <= 5.0/6:
		r, g, b = x, 0, c
	case h > 5.0/6 && h <= 1.0:
		r, g, b = c, 0, x
	}

	r, g, b = r+m, g+m, b+m
	return r, g, b
}

// rgbToHSV converts red, green, and blue floating point values on the range
// 0.0 to 1.0 to hue, saturation and brightness values on the range 0.0 to 1.0
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return
}
