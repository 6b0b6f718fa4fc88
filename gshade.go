// Package gshade implements the node variants used to compose shader graphs
// and a [Builder] that constructs them with panic or error accumulation strategies.
// Graphs are emitted to GLSL source by [glbuild.Programmer].
package gshade

import (
	"errors"
	"fmt"

	"github.com/soypat/gshade/glbuild"
)

// Builder wraps all node construction logic.
// Provides error handling strategies with panics or error accumulation during graph construction.
type Builder struct {
	// NoPanic makes the Builder accumulate construction errors instead of panicking.
	// Accumulated errors are returned by [Builder.Err].
	NoPanic   bool
	accumErrs []error
}

// Err returns all errors accumulated during construction joined. Returns nil if no errors occurred.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated errors so the Builder may be reused.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) must(n glbuild.Node, err error) glbuild.Node {
	if err != nil {
		bld.nodeError(err)
	}
	return n
}

func (bld *Builder) nodeError(err error) {
	if !bld.NoPanic {
		panic(err.Error())
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

// NewGraph returns a graph with the given slot bindings, i.e: "color" and "normal".
// Slots are bound in argument order which determines emission order.
func (bld *Builder) NewGraph(outputs ...glbuild.Output) *glbuild.Graph {
	g, err := glbuild.NewGraph(outputs...)
	if err != nil {
		bld.nodeError(err)
		return new(glbuild.Graph)
	}
	return g
}

func errNilInput(what string, idx int) error {
	return fmt.Errorf("nil input %d to %s", idx, what)
}

func checkNil(what string, inputs []glbuild.Node) error {
	for i, in := range inputs {
		if in == nil {
			return errNilInput(what, i)
		} else if u, ok := in.(*Uniform); ok && u == nil {
			return errNilInput(what, i) // Failed Builder.Uniform call.
		}
	}
	return nil
}
