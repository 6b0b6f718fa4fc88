package glbuild

import "fmt"

// ErrorKind classifies a [GraphError].
type ErrorKind uint8

const (
	_ ErrorKind = iota
	// ArityMismatch is returned when a node receives the wrong number of inputs.
	ArityMismatch
	// TypeMismatch is returned when an input's type does not match the expected operand type.
	TypeMismatch
	// CyclicReference is returned when traversal finds a node among its own inputs.
	// Graphs built with constructors cannot contain cycles.
	CyclicReference
	// DuplicateFunctionNameConflict is returned when two distinct function
	// definitions share a name but differ in source.
	DuplicateFunctionNameConflict
	// DuplicateUniformConflict is returned when two uniforms share a name but differ in type or initial value.
	DuplicateUniformConflict
	// InvalidStage is returned when a node is used in a shader stage it cannot be evaluated in,
	// i.e: an attribute reached from a fragment output without a varying.
	InvalidStage
	// InvalidName is returned for malformed or reserved identifiers.
	InvalidName
	// DuplicateSlot is returned when an output slot is bound twice.
	DuplicateSlot
)

func (k ErrorKind) String() string {
	switch k {
	case ArityMismatch:
		return "arity mismatch"
	case TypeMismatch:
		return "type mismatch"
	case CyclicReference:
		return "cyclic reference"
	case DuplicateFunctionNameConflict:
		return "duplicate function name conflict"
	case DuplicateUniformConflict:
		return "duplicate uniform conflict"
	case InvalidStage:
		return "invalid stage"
	case InvalidName:
		return "invalid name"
	case DuplicateSlot:
		return "duplicate slot"
	}
	return "unknown graph error"
}

// GraphError is returned by node constructors and the [Programmer] when a graph is malformed.
// Use errors.Is with the Err* sentinels to check the kind.
type GraphError struct {
	Kind ErrorKind
	Msg  string
}

func (e *GraphError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is reports whether target is a [GraphError] of the same kind.
func (e *GraphError) Is(target error) bool {
	t, ok := target.(*GraphError)
	return ok && t.Kind == e.Kind
}

// Sentinels for use with errors.Is.
var (
	ErrArityMismatch                 error = &GraphError{Kind: ArityMismatch}
	ErrTypeMismatch                  error = &GraphError{Kind: TypeMismatch}
	ErrCyclicReference               error = &GraphError{Kind: CyclicReference}
	ErrDuplicateFunctionNameConflict error = &GraphError{Kind: DuplicateFunctionNameConflict}
	ErrDuplicateUniformConflict      error = &GraphError{Kind: DuplicateUniformConflict}
	ErrInvalidStage                  error = &GraphError{Kind: InvalidStage}
	ErrInvalidName                   error = &GraphError{Kind: InvalidName}
	ErrDuplicateSlot                 error = &GraphError{Kind: DuplicateSlot}
)

// Errorf returns a [*GraphError] of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &GraphError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
