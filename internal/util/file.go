package util

import (
	"fmt"
	"math/rand"
	"os"
)

// ReadBinaryFile reads the full binary content of the file at path.
func ReadBinaryFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// WriteBinaryFile writes data to path, creating or truncating the file.
func WriteBinaryFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RandomBytes generates n pseudo-random bytes from the given seed.
// The same seed always yields the same sequence.
func RandomBytes(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	rng.Read(out)
	return out
}
