package material

import "fmt"

// ErrorKind classifies a [MaterialError].
type ErrorKind uint8

const (
	_ ErrorKind = iota
	// MissingRequiredSlot is returned when the graph does not bind the color slot.
	MissingRequiredSlot
	// UnknownSlot is returned for graph outputs the material does not consume.
	UnknownSlot
	// SlotTypeMismatch is returned when a slot is bound to a node of the wrong type.
	SlotTypeMismatch
	// UnknownUniform is returned when setting or getting a uniform the material does not declare.
	UnknownUniform
	// UniformTypeMismatch is returned when a uniform value's type differs from its declaration.
	UniformTypeMismatch
	// ReservedUniformName is returned when a graph uniform or function shadows an identifier
	// declared by the material template or supplied by the renderer.
	ReservedUniformName
)

func (k ErrorKind) String() string {
	switch k {
	case MissingRequiredSlot:
		return "missing required slot"
	case UnknownSlot:
		return "unknown slot"
	case SlotTypeMismatch:
		return "slot type mismatch"
	case UnknownUniform:
		return "unknown uniform"
	case UniformTypeMismatch:
		return "uniform type mismatch"
	case ReservedUniformName:
		return "reserved uniform name"
	}
	return "unknown material error"
}

// MaterialError is returned by [New] and [Material] methods. Use errors.Is with the Err* sentinels to check the kind.
type MaterialError struct {
	Kind ErrorKind
	Msg  string
}

func (e *MaterialError) Error() string {
	if e.Msg == "" {
		return "material: " + e.Kind.String()
	}
	return "material: " + e.Kind.String() + ": " + e.Msg
}

// Is reports whether target is a [MaterialError] of the same kind.
func (e *MaterialError) Is(target error) bool {
	t, ok := target.(*MaterialError)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingRequiredSlot error = &MaterialError{Kind: MissingRequiredSlot}
	ErrUnknownSlot         error = &MaterialError{Kind: UnknownSlot}
	ErrSlotTypeMismatch    error = &MaterialError{Kind: SlotTypeMismatch}
	ErrUnknownUniform      error = &MaterialError{Kind: UnknownUniform}
	ErrUniformTypeMismatch error = &MaterialError{Kind: UniformTypeMismatch}
	ErrReservedUniformName error = &MaterialError{Kind: ReservedUniformName}
)

func errorf(kind ErrorKind, format string, args ...any) error {
	return &MaterialError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
