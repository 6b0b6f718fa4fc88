package glrender

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// ComputeTangents sets the mesh's per-vertex tangents from its positions, normals and
// UV coordinates. Tangents point in the direction of increasing U, are orthogonalized
// against the vertex normal and carry the bitangent handedness in W (+1 or -1).
// Vertices no triangle with non-degenerate UVs touches get an arbitrary tangent orthogonal to the normal.
func ComputeTangents(m *Mesh) error {
	if m.UVs == nil {
		return errors.New("tangent computation requires uv coordinates")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	nv := len(m.Positions)
	tan := make([]ms3.Vec, nv)
	bitan := make([]ms3.Vec, nv)
	for i := 0; i < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		e1 := ms3.Sub(m.Positions[i1], m.Positions[i0])
		e2 := ms3.Sub(m.Positions[i2], m.Positions[i0])
		du1 := m.UVs[i1].X - m.UVs[i0].X
		dv1 := m.UVs[i1].Y - m.UVs[i0].Y
		du2 := m.UVs[i2].X - m.UVs[i0].X
		dv2 := m.UVs[i2].Y - m.UVs[i0].Y
		det := du1*dv2 - du2*dv1
		if math32.Abs(det) < 1e-12 {
			continue
		}
		r := 1 / det
		t := ms3.Scale(r, ms3.Sub(ms3.Scale(dv2, e1), ms3.Scale(dv1, e2)))
		b := ms3.Scale(r, ms3.Sub(ms3.Scale(du1, e2), ms3.Scale(du2, e1)))
		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = ms3.Add(tan[idx], t)
			bitan[idx] = ms3.Add(bitan[idx], b)
		}
	}
	if cap(m.Tangents) >= nv {
		m.Tangents = m.Tangents[:nv]
	} else {
		m.Tangents = make([][4]float32, nv)
	}
	for i := range m.Tangents {
		n := ms3.Unit(m.Normals[i])
		// Gram-Schmidt.
		t := ms3.Sub(tan[i], ms3.Scale(ms3.Dot(n, tan[i]), n))
		if ms3.Norm(t) < 1e-6 {
			t = anyOrthogonal(n)
		}
		t = ms3.Unit(t)
		w := float32(1)
		if ms3.Dot(cross(n, t), bitan[i]) < 0 {
			w = -1
		}
		m.Tangents[i] = [4]float32{t.X, t.Y, t.Z, w}
	}
	return nil
}

func cross(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func anyOrthogonal(n ms3.Vec) ms3.Vec {
	axis := ms3.Vec{X: 1}
	if math32.Abs(n.X) > 0.9 {
		axis = ms3.Vec{Y: 1}
	}
	return cross(n, axis)
}
