package unserial

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTypeTag is returned when a value starts with a tag outside
	// the known set.
	ErrUnknownTypeTag = errors.New("unserial: unknown type tag")

	// ErrUnknownKeyTypeTag is returned when an array or object key is
	// neither an integer nor a string.
	ErrUnknownKeyTypeTag = errors.New("unserial: unknown key type tag")

	// ErrMalformedPropertyName is returned when a non-public property name
	// does not carry two NUL markers.
	ErrMalformedPropertyName = errors.New("unserial: malformed property name")

	// ErrUnexpectedEnd is returned when the input ends before a value is
	// complete.
	ErrUnexpectedEnd = errors.New("unserial: unexpected end of input")

	// ErrCyclicValue is returned by the bridges when a value refers back to
	// one of its own ancestors.
	ErrCyclicValue = errors.New("unserial: value contains a reference cycle")
)

// ErrorKind classifies a DecodeError.
type ErrorKind uint8

const (
	KindUnknownTypeTag ErrorKind = iota + 1
	KindUnknownKeyTypeTag
	KindMalformedPropertyName
	KindUnexpectedEnd
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindUnknownTypeTag:
		return "UnknownTypeTag"
	case KindUnknownKeyTypeTag:
		return "UnknownKeyTypeTag"
	case KindMalformedPropertyName:
		return "MalformedPropertyName"
	case KindUnexpectedEnd:
		return "UnexpectedEnd"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// DecodeError describes why decoding stopped.
//
// Partial holds the outermost array or object that was under
// construction when the error occurred, or nil if the failure happened
// outside any container.
type DecodeError struct {
	Kind    ErrorKind
	Tag     string // offending tag for the tag kinds
	Name    string // raw property name for KindMalformedPropertyName
	Offset  int    // byte offset into the input
	Partial *Value
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindUnknownTypeTag:
		return fmt.Sprintf("unserial: unknown type %q at position %d", e.Tag, e.Offset)
	case KindUnknownKeyTypeTag:
		return fmt.Sprintf("unserial: unknown key type %q at position %d", e.Tag, e.Offset)
	case KindMalformedPropertyName:
		return fmt.Sprintf("unserial: expected two <NUL> characters in non-public property name %q at position %d", e.Name, e.Offset)
	case KindUnexpectedEnd:
		return fmt.Sprintf("unserial: unexpected end of input at position %d", e.Offset)
	default:
		return fmt.Sprintf("unserial: decode error at position %d", e.Offset)
	}
}

// Unwrap returns the sentinel error matching the kind.
func (e *DecodeError) Unwrap() error {
	switch e.Kind {
	case KindUnknownTypeTag:
		return ErrUnknownTypeTag
	case KindUnknownKeyTypeTag:
		return ErrUnknownKeyTypeTag
	case KindMalformedPropertyName:
		return ErrMalformedPropertyName
	case KindUnexpectedEnd:
		return ErrUnexpectedEnd
	default:
		return nil
	}
}

func unexpectedEnd(offset int) *DecodeError {
	return &DecodeError{Kind: KindUnexpectedEnd, Offset: offset}
}

// withPartial records the container under construction on err.
// Enclosing containers overwrite it on the way out.
func withPartial(err error, partial *Value) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.Partial = partial
	}
	return err
}
