package glrender

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

func TestUVSphere(t *testing.T) {
	const radius = 5
	const wseg, hseg = 20, 20
	m, err := NewUVSphere(radius, wseg, hseg)
	if err != nil {
		t.Fatal(err)
	}
	if err = m.Validate(); err != nil {
		t.Fatal(err)
	}
	wantTriangles := 2*wseg*hseg - 2*wseg
	if m.NumTriangles() != wantTriangles {
		t.Errorf("want %d triangles, got %d", wantTriangles, m.NumTriangles())
	}
	for i, p := range m.Positions {
		if math32.Abs(ms3.Norm(p)-radius) > 1e-4 {
			t.Fatalf("vertex %d not on sphere surface: %v", i, p)
		}
	}
	bb := m.Bounds()
	if math32.Abs(bb.Max.Y-radius) > 1e-4 || math32.Abs(bb.Min.Y+radius) > 1e-4 {
		t.Errorf("unexpected bounds %+v", bb)
	}
	for i := 0; i < m.NumTriangles(); i++ {
		tri := m.Triangle(i)
		n := cross(ms3.Sub(tri[1], tri[0]), ms3.Sub(tri[2], tri[0]))
		if ms3.Norm(n) < 1e-6 {
			t.Fatalf("triangle %d is degenerate", i)
		}
		centroid := ms3.Scale(1./3, ms3.Add(ms3.Add(tri[0], tri[1]), tri[2]))
		if ms3.Dot(n, centroid) <= 0 {
			t.Fatalf("triangle %d faces inwards", i)
		}
	}
}

func TestUVSphereInvalid(t *testing.T) {
	for _, test := range []struct {
		r    float32
		w, h int
	}{
		{r: 0, w: 8, h: 8},
		{r: -1, w: 8, h: 8},
		{r: math32.NaN(), w: 8, h: 8},
		{r: 1, w: 2, h: 8},
		{r: 1, w: 8, h: 1},
	} {
		_, err := NewUVSphere(test.r, test.w, test.h)
		if err == nil {
			t.Errorf("expected error for %+v", test)
		}
	}
}

func TestComputeTangents(t *testing.T) {
	m, err := NewUVSphere(1, 16, 12)
	if err != nil {
		t.Fatal(err)
	}
	used := make([]bool, len(m.Positions))
	for _, idx := range m.Indices {
		used[idx] = true
	}
	var handedness float32
	for i, tg := range m.Tangents {
		tv := ms3.Vec{X: tg[0], Y: tg[1], Z: tg[2]}
		if math32.Abs(ms3.Norm(tv)-1) > 1e-4 {
			t.Fatalf("tangent %d not unit length: %v", i, tv)
		}
		if d := ms3.Dot(tv, m.Normals[i]); math32.Abs(d) > 1e-4 {
			t.Fatalf("tangent %d not orthogonal to normal: dot=%v", i, d)
		}
		if tg[3] != 1 && tg[3] != -1 {
			t.Fatalf("tangent %d handedness %v", i, tg[3])
		}
		if !used[i] {
			continue
		}
		if handedness == 0 {
			handedness = tg[3]
		} else if handedness != tg[3] {
			t.Fatalf("inconsistent handedness at vertex %d", i)
		}
	}

	m.UVs = nil
	if err = ComputeTangents(m); err == nil {
		t.Error("expected error for missing uvs")
	}
}

func TestMeshAttributes(t *testing.T) {
	m, err := NewUVSphere(1, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	nv := len(m.Positions)
	for _, test := range []struct {
		name  string
		comps int
	}{
		{"position", 3}, {"normal", 3}, {"uv", 2}, {"tangent", 4},
	} {
		data, comps, err := m.AppendAttribute(nil, test.name)
		if err != nil {
			t.Fatal(err)
		}
		if comps != test.comps || len(data) != comps*nv {
			t.Errorf("%s: got %d components and %d floats", test.name, comps, len(data))
		}
	}
	if _, _, err = m.AppendAttribute(nil, "color"); err == nil {
		t.Error("expected error for unknown attribute")
	}
	m.Tangents = nil
	if _, _, err = m.AppendAttribute(nil, "tangent"); err == nil {
		t.Error("expected error for missing tangents")
	}
	m.Indices = append(m.Indices, uint32(nv))
	if err = m.Validate(); err == nil {
		t.Error("expected validation error")
	}
}

func TestRenderAll(t *testing.T) {
	m, err := NewUVSphere(2, 64, 48)
	if err != nil {
		t.Fatal(err)
	}
	mr, err := NewMeshReader(m)
	if err != nil {
		t.Fatal(err)
	}
	tris, err := RenderAll(mr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tris) != m.NumTriangles() {
		t.Fatalf("want %d triangles, got %d", m.NumTriangles(), len(tris))
	}
	if tris[len(tris)-1] != m.Triangle(m.NumTriangles()-1) {
		t.Error("last triangle mismatch")
	}
	mr.Reset()
	buf := make([]ms3.Triangle, 7)
	n, err := mr.ReadTriangles(buf, nil)
	if n != len(buf) || err != nil {
		t.Errorf("want full read, got n=%d err=%v", n, err)
	}
}

func TestWriteBinarySTL(t *testing.T) {
	m, err := NewUVSphere(1, 8, 6)
	if err != nil {
		t.Fatal(err)
	}
	mr, err := NewMeshReader(m)
	if err != nil {
		t.Fatal(err)
	}
	tris, err := RenderAll(mr, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := WriteBinarySTL(&buf, tris)
	if err != nil {
		t.Fatal(err)
	}
	want := 84 + 50*len(tris)
	if n != want || buf.Len() != want {
		t.Fatalf("want %d bytes, wrote %d (counted %d)", want, buf.Len(), n)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[80:]); int(got) != len(tris) {
		t.Errorf("header triangle count %d, want %d", got, len(tris))
	}
	// First facet normal points away from the origin.
	facet := buf.Bytes()[84:]
	normal := ms3.Vec{
		X: math.Float32frombits(binary.LittleEndian.Uint32(facet[0:])),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(facet[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(facet[8:])),
	}
	if ms3.Dot(normal, tris[0][0]) <= 0 {
		t.Errorf("facet normal %v faces inwards", normal)
	}
}
