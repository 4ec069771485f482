package dify

import (
	"fmt"

	"github.com/petal-labs/dify-go/core"
)

// UnrecognizedValueError reports a string that does not belong to a closed
// enumeration. It classifies as core.ErrDecode.
type UnrecognizedValueError struct {
	Enum  string // enumeration name, e.g. "StreamEvent"
	Value string // the offending raw value
}

// Error implements the error interface.
func (e *UnrecognizedValueError) Error() string {
	return fmt.Sprintf("dify: unrecognized %s value %q", e.Enum, e.Value)
}

// Unwrap classifies the failure as a decode error.
func (e *UnrecognizedValueError) Unwrap() error {
	return core.ErrDecode
}

// parseEnum resolves raw against the declared value set of an enumeration.
// Matching is exact and case-sensitive. Resolving the string form of an
// already-typed value returns that value unchanged.
func parseEnum[E ~string](enum, raw string, values []E) (E, error) {
	for _, v := range values {
		if raw == string(v) {
			return v, nil
		}
	}
	var zero E
	return zero, &UnrecognizedValueError{Enum: enum, Value: raw}
}

// parseEnumOr is the tolerant variant: an unknown value resolves to def
// instead of failing.
func parseEnumOr[E ~string](raw string, values []E, def E) E {
	for _, v := range values {
		if raw == string(v) {
			return v
		}
	}
	return def
}
