// Package config provides configuration types and defaults for qrvid.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Default constants
const (
	// DefaultFramesPerSecond is the container frame rate. Informational only;
	// the decoder does not rely on timing.
	DefaultFramesPerSecond int = 24

	// DefaultBoxSize is the default render scale in pixels per QR module.
	DefaultBoxSize int = 10

	// DefaultBorder is the default quiet-zone width in modules.
	DefaultBorder int = 4

	// DefaultChunkBuffer is the number of extra tasks to keep in flight
	// beyond the worker count.
	DefaultChunkBuffer int = 4
)

// ErrorCorrectionLevel is the QR error correction level, trading symbol
// capacity for redundancy.
type ErrorCorrectionLevel int

const (
	// LevelL recovers from ~7% symbol damage.
	LevelL ErrorCorrectionLevel = iota
	// LevelM recovers from ~15% symbol damage.
	LevelM
	// LevelQ recovers from ~25% symbol damage.
	LevelQ
	// LevelH recovers from ~30% symbol damage.
	LevelH
)

// String returns the single-letter name of the level.
func (l ErrorCorrectionLevel) String() string {
	switch l {
	case LevelL:
		return "L"
	case LevelM:
		return "M"
	case LevelQ:
		return "Q"
	case LevelH:
		return "H"
	default:
		return "unknown"
	}
}

// MaxBytes returns the maximum byte-mode payload of a single symbol at this
// level, across all symbol versions.
// See: https://www.qrcode.com/en/about/version.html
func (l ErrorCorrectionLevel) MaxBytes() int {
	switch l {
	case LevelL:
		return 2953
	case LevelM:
		return 2331
	case LevelQ:
		return 1663
	case LevelH:
		return 1273
	default:
		return 0
	}
}

// ParseLevel converts a level string to an ErrorCorrectionLevel.
// Valid values are "L", "M", "Q", and "H" (case-insensitive).
func ParseLevel(s string) (ErrorCorrectionLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return LevelL, nil
	case "M":
		return LevelM, nil
	case "Q":
		return LevelQ, nil
	case "H":
		return LevelH, nil
	default:
		return 0, fmt.Errorf("invalid error correction level %q: must be L, M, Q, or H", s)
	}
}

// Config holds the knobs that travel with an encoded payload plus the
// execution knobs of a single run.
type Config struct {
	// ErrorCorrection determines per-symbol byte capacity.
	ErrorCorrection ErrorCorrectionLevel

	// ChunkSize bounds the segment size; nil means the level capacity.
	// The effective segment size is min(ChunkSize, capacity).
	ChunkSize *int

	// FramesPerSecond sets container timing only.
	FramesPerSecond int

	// BoxSize is the render scale in pixels per module.
	BoxSize int

	// Border controls the quiet zone: 0 disables it, any positive value
	// renders the symbol renderer's fixed 4-module quiet zone. Widths other
	// than 4 are not drawn.
	Border int

	// EnableParallel selects the parallel worker pool over sequential
	// execution. Output is identical either way.
	EnableParallel bool

	// MaxWorkers bounds the worker pool; nil means the logical core count.
	MaxWorkers *int

	// ChunkBuffer is the number of extra tasks buffered beyond the workers.
	ChunkBuffer int

	// ShowDecodeWindow and Verbose are observability toggles. They must not
	// affect pipeline output and may be overridden by the decoder's caller.
	ShowDecodeWindow bool
	Verbose          bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ErrorCorrection: LevelM,
		FramesPerSecond: DefaultFramesPerSecond,
		BoxSize:         DefaultBoxSize,
		Border:          DefaultBorder,
		ChunkBuffer:     DefaultChunkBuffer,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ErrorCorrection < LevelL || c.ErrorCorrection > LevelH {
		return fmt.Errorf("error correction level must be L, M, Q, or H, got %d", int(c.ErrorCorrection))
	}

	if c.ChunkSize != nil && *c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", *c.ChunkSize)
	}

	if c.FramesPerSecond <= 0 {
		return fmt.Errorf("frames per second must be positive, got %d", c.FramesPerSecond)
	}

	if c.BoxSize <= 0 {
		return fmt.Errorf("box size must be positive, got %d", c.BoxSize)
	}

	if c.Border < 0 {
		return fmt.Errorf("border must be non-negative, got %d", c.Border)
	}

	if c.MaxWorkers != nil && *c.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be positive, got %d", *c.MaxWorkers)
	}

	return nil
}

// EffectiveChunkSize returns min(ChunkSize, capacity) for the configured
// level. A ChunkSize above the capacity is clamped, never rejected.
func (c *Config) EffectiveChunkSize() int {
	maxBytes := c.ErrorCorrection.MaxBytes()
	if c.ChunkSize != nil && *c.ChunkSize < maxBytes {
		return *c.ChunkSize
	}
	return maxBytes
}

// WorkerCount returns the worker pool size: MaxWorkers when set, otherwise
// the logical core count.
func (c *Config) WorkerCount() int {
	if c.MaxWorkers != nil {
		return *c.MaxWorkers
	}
	return runtime.NumCPU()
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	if c.ChunkSize != nil {
		v := *c.ChunkSize
		out.ChunkSize = &v
	}
	if c.MaxWorkers != nil {
		v := *c.MaxWorkers
		out.MaxWorkers = &v
	}
	return &out
}

// Equal reports whether two configurations carry the same wire-traveling
// values. ChunkBuffer is a per-run execution knob and is not compared.
func (c *Config) Equal(o *Config) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.ErrorCorrection != o.ErrorCorrection ||
		c.FramesPerSecond != o.FramesPerSecond ||
		c.BoxSize != o.BoxSize ||
		c.Border != o.Border ||
		c.EnableParallel != o.EnableParallel ||
		c.ShowDecodeWindow != o.ShowDecodeWindow ||
		c.Verbose != o.Verbose {
		return false
	}
	if !equalIntPtr(c.ChunkSize, o.ChunkSize) {
		return false
	}
	return equalIntPtr(c.MaxWorkers, o.MaxWorkers)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
