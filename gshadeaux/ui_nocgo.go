//go:build tinygo || !cgo

package gshadeaux

import (
	"errors"

	"github.com/soypat/gshade/glrender"
	"github.com/soypat/gshade/material"
)

func ui(mat *material.Material, mesh *glrender.Mesh, attrs []vertexAttrib, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
