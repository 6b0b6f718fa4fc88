package glrender

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// NewUVSphere returns a sphere centered at the origin. widthSegments divide the sphere
// around the Y axis and heightSegments from pole to pole. The U coordinate increases
// with the azimuth and V increases towards the +Y pole. Tangents are included.
func NewUVSphere(radius float32, widthSegments, heightSegments int) (*Mesh, error) {
	if radius <= 0 || math32.IsNaN(radius) || math32.IsInf(radius, 0) {
		return nil, errors.New("invalid sphere radius")
	} else if widthSegments < 3 || heightSegments < 2 {
		return nil, errors.New("sphere requires at least 3 width segments and 2 height segments")
	}
	nv := (widthSegments + 1) * (heightSegments + 1)
	m := &Mesh{
		Positions: make([]ms3.Vec, 0, nv),
		Normals:   make([]ms3.Vec, 0, nv),
		UVs:       make([]ms2.Vec, 0, nv),
		Indices:   make([]uint32, 0, 6*widthSegments*(heightSegments-1)),
	}
	for ring := 0; ring <= heightSegments; ring++ {
		v := float32(ring) / float32(heightSegments)
		sinPhi, cosPhi := math32.Sincos(v * math32.Pi)
		for seg := 0; seg <= widthSegments; seg++ {
			u := float32(seg) / float32(widthSegments)
			sinTheta, cosTheta := math32.Sincos(u * 2 * math32.Pi)
			n := ms3.Vec{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			m.Normals = append(m.Normals, n)
			m.Positions = append(m.Positions, ms3.Scale(radius, n))
			m.UVs = append(m.UVs, ms2.Vec{X: u, Y: 1 - v})
		}
	}
	stride := uint32(widthSegments + 1)
	for ring := 0; ring < heightSegments; ring++ {
		for seg := 0; seg < widthSegments; seg++ {
			current := uint32(ring)*stride + uint32(seg)
			next := current + stride
			// Pole triangles with two coincident vertices are omitted.
			if ring != 0 {
				m.Indices = append(m.Indices, current, current+1, next)
			}
			if ring != heightSegments-1 {
				m.Indices = append(m.Indices, current+1, next+1, next)
			}
		}
	}
	err := ComputeTangents(m)
	if err != nil {
		return nil, err
	}
	return m, nil
}
