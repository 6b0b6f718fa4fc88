package gshadeaux

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/gshade/material"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxTextureSize bounds the resampled texture edge length.
const maxTextureSize = 4096

// LoadTexture decodes a PNG, JPEG, BMP or WebP image file into a repeating, mipmapped texture
// named after the file's base name. Non power-of-two images are resampled up to the next power of two.
func LoadTexture(path string) (*material.Texture, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tex, err := DecodeTexture(fp, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tex, nil
}

// DecodeTexture decodes an image from r into a texture. See [LoadTexture].
func DecodeTexture(r io.Reader, name string) (*material.Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return TextureFromImage(name, img)
}

// TextureFromImage converts img to an RGBA8 texture with power-of-two dimensions,
// repeat wrapping and trilinear minification.
func TextureFromImage(name string, img image.Image) (*material.Texture, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("empty image")
	}
	pw, ph := nextPow2(w), nextPow2(h)
	if pw > maxTextureSize || ph > maxTextureSize {
		return nil, fmt.Errorf("image %dx%d exceeds max texture size %d", w, h, maxTextureSize)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || pw != w || ph != h || rgba.Stride != 4*w || bounds.Min != (image.Point{}) {
		dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
		if pw == w && ph == h {
			draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		} else {
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		}
		rgba = dst
	}
	return &material.Texture{
		Name:      name,
		Width:     pw,
		Height:    ph,
		WrapS:     material.Repeat,
		WrapT:     material.Repeat,
		MinFilter: material.LinearMipmapLinear,
		MagFilter: material.Linear,
		Pixels:    rgba.Pix,
	}, nil
}

func nextPow2(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}
