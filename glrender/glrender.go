// Package glrender generates and reads the triangle meshes materials are drawn on.
package glrender

import (
	"errors"
	"fmt"
	"io"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.RenderAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// Mesh is an indexed triangle mesh with per-vertex attributes. Triangles
// are wound counter-clockwise when viewed from the side the normals point to.
type Mesh struct {
	Positions []ms3.Vec
	Normals   []ms3.Vec
	UVs       []ms2.Vec
	// Tangents hold the direction of increasing U in XYZ and the bitangent sign in W
	// such that bitangent = cross(normal, tangent.xyz) * tangent.w. See [ComputeTangents].
	Tangents [][4]float32
	Indices  []uint32
}

// Validate checks attribute lengths agree and indices are in range.
func (m *Mesh) Validate() error {
	nv := len(m.Positions)
	if nv == 0 {
		return errors.New("mesh has no vertices")
	}
	if len(m.Normals) != nv {
		return fmt.Errorf("mesh has %d normals for %d vertices", len(m.Normals), nv)
	}
	if m.UVs != nil && len(m.UVs) != nv {
		return fmt.Errorf("mesh has %d uvs for %d vertices", len(m.UVs), nv)
	}
	if m.Tangents != nil && len(m.Tangents) != nv {
		return fmt.Errorf("mesh has %d tangents for %d vertices", len(m.Tangents), nv)
	}
	if len(m.Indices)%3 != 0 {
		return errors.New("mesh index count not multiple of 3")
	}
	for i, idx := range m.Indices {
		if int(idx) >= nv {
			return fmt.Errorf("mesh index %d out of range: %d", i, idx)
		}
	}
	return nil
}

// NumTriangles returns the amount of triangles in the mesh.
func (m *Mesh) NumTriangles() int { return len(m.Indices) / 3 }

// Bounds returns the bounding box of the mesh positions.
func (m *Mesh) Bounds() ms3.Box {
	if len(m.Positions) == 0 {
		return ms3.Box{}
	}
	bb := ms3.Box{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		bb.Min = ms3.MinElem(bb.Min, p)
		bb.Max = ms3.MaxElem(bb.Max, p)
	}
	return bb
}

// Triangle returns the i'th triangle of the mesh.
func (m *Mesh) Triangle(i int) ms3.Triangle {
	idx := m.Indices[3*i : 3*i+3]
	return ms3.Triangle{m.Positions[idx[0]], m.Positions[idx[1]], m.Positions[idx[2]]}
}

// AppendAttribute appends the flattened float data of the named vertex attribute to dst
// and returns the amount of components per vertex. Names are those used by generated shaders:
// "position", "normal", "uv" and "tangent".
func (m *Mesh) AppendAttribute(dst []float32, name string) (_ []float32, components int, err error) {
	switch name {
	case "position", "normal":
		src := m.Positions
		if name == "normal" {
			src = m.Normals
		}
		for _, v := range src {
			dst = append(dst, v.X, v.Y, v.Z)
		}
		return dst, 3, nil
	case "uv":
		if m.UVs == nil {
			return dst, 0, errors.New("mesh has no uv coordinates")
		}
		for _, v := range m.UVs {
			dst = append(dst, v.X, v.Y)
		}
		return dst, 2, nil
	case "tangent":
		if m.Tangents == nil {
			return dst, 0, errors.New("mesh has no tangents, see ComputeTangents")
		}
		for _, v := range m.Tangents {
			dst = append(dst, v[:]...)
		}
		return dst, 4, nil
	}
	return dst, 0, fmt.Errorf("unknown mesh attribute %q", name)
}

// MeshReader implements [Renderer] by reading a [Mesh]'s triangles in index order.
type MeshReader struct {
	m    *Mesh
	next int
}

// NewMeshReader returns a triangle reader for m.
func NewMeshReader(m *Mesh) (*MeshReader, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &MeshReader{m: m}, nil
}

// ReadTriangles reads the next triangles of the mesh into dst. It returns io.EOF after
// the last triangle has been read. userData is unused.
func (mr *MeshReader) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	if len(dst) == 0 {
		return 0, io.ErrShortBuffer
	}
	total := mr.m.NumTriangles()
	for n < len(dst) && mr.next < total {
		dst[n] = mr.m.Triangle(mr.next)
		n++
		mr.next++
	}
	if mr.next == total {
		return n, io.EOF
	}
	return n, nil
}

// Reset rewinds the reader to the first triangle.
func (mr *MeshReader) Reset() { mr.next = 0 }
