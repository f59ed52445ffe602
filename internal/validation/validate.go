// Package validation provides pluggable round-trip validation functions.
package validation

import (
	"bytes"
	"fmt"
)

// Func decides whether a decoded output is an acceptable round trip of the
// encoded input.
type Func func(input, output []byte) bool

// BytesEqual is the default validation: bytewise equality.
func BytesEqual(input, output []byte) bool {
	return bytes.Equal(input, output)
}

// SameLength accepts any output of the input's length. Useful when the
// round trip is only expected to preserve cardinality.
func SameLength(input, output []byte) bool {
	return len(input) == len(output)
}

// Describe summarizes a failed validation for error messages.
func Describe(input, output []byte) string {
	if len(input) != len(output) {
		return fmt.Sprintf("output is %d bytes, input was %d bytes", len(output), len(input))
	}
	for i := range input {
		if input[i] != output[i] {
			return fmt.Sprintf("output diverges from input at byte %d", i)
		}
	}
	return "output equals input"
}
