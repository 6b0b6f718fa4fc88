// Package gshadeaux provides the window, renderer and asset helpers used to view
// materials generated with gshade. Applications with their own renderer need only
// consume [material.Material] sources and uniforms.
package gshadeaux

import (
	"context"
	"errors"
	"fmt"
	"time"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gshade/glrender"
	"github.com/soypat/gshade/material"
)

// UIConfig configures [UI].
type UIConfig struct {
	Width, Height int
	Title         string
	// Camera defaults to a 75° camera at (0,15,15) looking at the origin.
	Camera *OrbitCamera
	// Lights defaults to [DefaultLights] if zero valued.
	Lights Lights
	// Background clear color.
	Background ms3.Vec
	// ShowStats draws a frame rate overlay in the top left corner.
	ShowStats bool
	// Silent disables progress printing.
	Silent bool
	// Context when cancelled closes the window and UI returns the context's error.
	Context context.Context
}

// Lights are the scene lights fed to material built-in uniforms.
type Lights struct {
	SkyColor            ms3.Vec
	GroundColor         ms3.Vec
	HemisphereIntensity float32
	PointPosition       ms3.Vec
	PointColor          ms3.Vec
	PointIntensity      float32
}

// DefaultLights returns a warm sky hemisphere light and a white point light above the scene.
func DefaultLights() Lights {
	return Lights{
		SkyColor:            HexColor(0xffffbb),
		GroundColor:         HexColor(0x080820),
		HemisphereIntensity: 0.3,
		PointPosition:       ms3.Vec{X: 10, Y: 10, Z: 5},
		PointColor:          HexColor(0xffffff),
		PointIntensity:      0.4,
	}
}

// HexColor converts a 24 bit RGB value stored in the least significant bits to a color vector.
func HexColor(c uint32) ms3.Vec {
	return ms3.Vec{
		X: float32(uint8(c>>16)) / math.MaxUint8,
		Y: float32(uint8(c>>8)) / math.MaxUint8,
		Z: float32(uint8(c)) / math.MaxUint8,
	}
}

// UI opens a window and renders mesh with mat until the window is closed.
// It must be called from the main OS thread and requires cgo.
func UI(mat *material.Material, mesh *glrender.Mesh, cfg UIConfig) error {
	if mat == nil || mesh == nil {
		return errors.New("UI requires material and mesh")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("UI requires positive window dimensions")
	}
	if cfg.Title == "" {
		cfg.Title = "gshade material viewer"
	}
	if cfg.Lights == (Lights{}) {
		cfg.Lights = DefaultLights()
	}
	if cfg.Camera == nil {
		cam, err := NewOrbitCamera(ms3.Vec{Y: 15, Z: 15}, ms3.Vec{}, 75)
		if err != nil {
			return err
		}
		cfg.Camera = cam
	}
	attrs, err := vertexData(mat, mesh)
	if err != nil {
		return err
	}
	return ui(mat, mesh, attrs, cfg)
}

type vertexAttrib struct {
	name       string
	components int32
	data       []float32
}

// vertexData flattens the mesh attributes read by the material's vertex shader.
func vertexData(mat *material.Material, mesh *glrender.Mesh) ([]vertexAttrib, error) {
	err := mesh.Validate()
	if err != nil {
		return nil, err
	}
	if len(mesh.Indices) == 0 {
		return nil, errors.New("mesh has no triangles")
	}
	var attrs []vertexAttrib
	for _, decl := range mat.Attributes() {
		data, comps, err := mesh.AppendAttribute(nil, decl.Name)
		if err != nil {
			return nil, fmt.Errorf("material attribute %s: %w", decl.Name, err)
		} else if comps != decl.Type.Components() {
			return nil, fmt.Errorf("material attribute %s is %s, mesh provides %d components", decl.Name, decl.Type, comps)
		}
		attrs = append(attrs, vertexAttrib{name: decl.Name, components: int32(comps), data: data})
	}
	return attrs, nil
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
