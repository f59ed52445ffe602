// Package header implements the self-describing header frame wire format:
// a 4-byte big-endian length prefix followed by a CBOR configuration blob.
// The prefix layout is stable; the blob layout is private to this build.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
)

// Version identifies the blob layout. Bumped on any field change.
const Version uint8 = 1

// prefixLen is the size of the mandatory length prefix.
const prefixLen = 4

// record is the fixed-shape CBOR form of a configuration. Short keys keep
// the header symbol small at high error correction levels.
type record struct {
	Version    uint8  `cbor:"v"`
	Level      uint8  `cbor:"ec"`
	ChunkSize  *int   `cbor:"cs,omitempty"`
	FPS        int    `cbor:"fps"`
	BoxSize    int    `cbor:"box"`
	Border     int    `cbor:"bd"`
	Parallel   bool   `cbor:"mp"`
	MaxWorkers *int   `cbor:"mw,omitempty"`
	ShowWindow bool   `cbor:"sw"`
	Verbose    bool   `cbor:"vb"`
}

// Encode serializes cfg as a length-prefixed blob suitable for frame 0.
func Encode(cfg *config.Config) ([]byte, error) {
	rec := record{
		Version:    Version,
		Level:      uint8(cfg.ErrorCorrection),
		ChunkSize:  cfg.ChunkSize,
		FPS:        cfg.FramesPerSecond,
		BoxSize:    cfg.BoxSize,
		Border:     cfg.Border,
		Parallel:   cfg.EnableParallel,
		MaxWorkers: cfg.MaxWorkers,
		ShowWindow: cfg.ShowDecodeWindow,
		Verbose:    cfg.Verbose,
	}

	blob, err := cbor.Marshal(rec)
	if err != nil {
		return nil, errors.NewInvariantViolationError(fmt.Sprintf("header blob encode failed: %v", err))
	}

	out := make([]byte, prefixLen+len(blob))
	binary.BigEndian.PutUint32(out[:prefixLen], uint32(len(blob)))
	copy(out[prefixLen:], blob)
	return out, nil
}

// Decode parses a length-prefixed blob back into a configuration.
// The prefix is parsed first and gates access to the blob; a short prefix or
// a blob shorter than announced fails with HeaderTruncated.
func Decode(data []byte) (*config.Config, error) {
	if len(data) < prefixLen {
		return nil, errors.NewHeaderTruncatedError(
			fmt.Sprintf("header is %d bytes, need at least %d for the length prefix", len(data), prefixLen))
	}

	blobLen := binary.BigEndian.Uint32(data[:prefixLen])
	blob := data[prefixLen:]
	if uint32(len(blob)) < blobLen {
		return nil, errors.NewHeaderTruncatedError(
			fmt.Sprintf("header announces a %d-byte blob but carries %d bytes", blobLen, len(blob)))
	}
	blob = blob[:blobLen]

	var rec record
	if err := cbor.Unmarshal(blob, &rec); err != nil {
		return nil, errors.NewHeaderTruncatedError(fmt.Sprintf("header blob does not parse: %v", err))
	}

	if rec.Version != Version {
		return nil, errors.NewHeaderTruncatedError(
			fmt.Sprintf("unsupported header version %d, this build reads version %d", rec.Version, Version))
	}

	level := config.ErrorCorrectionLevel(rec.Level)
	if level < config.LevelL || level > config.LevelH {
		return nil, errors.NewHeaderTruncatedError(fmt.Sprintf("header carries invalid level %d", rec.Level))
	}

	cfg := config.NewConfig()
	cfg.ErrorCorrection = level
	cfg.ChunkSize = rec.ChunkSize
	cfg.FramesPerSecond = rec.FPS
	cfg.BoxSize = rec.BoxSize
	cfg.Border = rec.Border
	cfg.EnableParallel = rec.Parallel
	cfg.MaxWorkers = rec.MaxWorkers
	cfg.ShowDecodeWindow = rec.ShowWindow
	cfg.Verbose = rec.Verbose

	if err := cfg.Validate(); err != nil {
		return nil, errors.NewHeaderTruncatedError(fmt.Sprintf("header carries invalid configuration: %v", err))
	}

	return cfg, nil
}
