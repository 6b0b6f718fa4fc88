package glrender

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/soypat/geometry/ms3"
)

const stlHeader = "binary STL written by github.com/soypat/gshade"

// WriteBinarySTL writes triangles to w in binary STL format and returns the amount of bytes written.
// Facet normals are computed from counter-clockwise vertex order.
func WriteBinarySTL(w io.Writer, triangles []ms3.Triangle) (int, error) {
	if uint64(len(triangles)) > math.MaxUint32 {
		return 0, errors.New("too many triangles for STL")
	}
	var header [84]byte
	copy(header[:80], stlHeader)
	binary.LittleEndian.PutUint32(header[80:], uint32(len(triangles)))
	n, err := w.Write(header[:])
	if err != nil {
		return n, err
	}
	var facet [50]byte
	for _, tri := range triangles {
		normal := cross(ms3.Sub(tri[1], tri[0]), ms3.Sub(tri[2], tri[0]))
		if l := ms3.Norm(normal); l > 0 {
			normal = ms3.Scale(1/l, normal)
		}
		putVec(facet[0:], normal)
		putVec(facet[12:], tri[0])
		putVec(facet[24:], tri[1])
		putVec(facet[36:], tri[2])
		// facet[48:50] attribute byte count stays zero.
		ngot, err := w.Write(facet[:])
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func putVec(b []byte, v ms3.Vec) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
}
