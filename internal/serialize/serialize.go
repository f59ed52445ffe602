// Package serialize converts between raw payload bytes and the on-wire byte
// form fed to the symbol encoder.
package serialize

import (
	"encoding/base64"

	"github.com/mkarlsen/qrvid/internal/errors"
)

// Serializer is a bijection between payload bytes and symbol-encoder input.
// Deserialize(Serialize(b)) == b for every byte sequence b.
type Serializer interface {
	Serialize(data []byte) []byte
	Deserialize(data []byte) ([]byte, error)
	Name() string
}

// Identity passes bytes through unchanged. Use when the symbol encoder
// accepts arbitrary bytes losslessly.
type Identity struct{}

// Serialize returns data unchanged.
func (Identity) Serialize(data []byte) []byte { return data }

// Deserialize returns data unchanged.
func (Identity) Deserialize(data []byte) ([]byte, error) { return data, nil }

// Name returns the serializer name.
func (Identity) Name() string { return "identity" }

// Base64 applies standard base64 with padding in both directions. Use when
// the symbol encoder's byte mode has byte-value restrictions or when text
// safety matters downstream.
type Base64 struct{}

// Serialize base64-encodes data with standard padding.
func (Base64) Serialize(data []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out
}

// Deserialize base64-decodes data. Malformed input fails with DecodeCorrupt.
func (Base64) Deserialize(data []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(out, data)
	if err != nil {
		return nil, errors.NewDecodeCorruptError("malformed base64 payload", err)
	}
	return out[:n], nil
}

// Name returns the serializer name.
func (Base64) Name() string { return "base64" }

// ForName returns the serializer registered under name.
func ForName(name string) (Serializer, error) {
	switch name {
	case "identity", "":
		return Identity{}, nil
	case "base64":
		return Base64{}, nil
	default:
		return nil, errors.NewConfigError("unknown serializer: " + name)
	}
}
