// Package bench provides the benchmark harness: named scenarios, round-trip
// timing, and CSV results.
package bench

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
)

// Scenario describes one benchmark case.
type Scenario struct {
	Name         string `json:"name"`
	PayloadBytes int    `json:"payload_bytes"`
	Seed         int64  `json:"seed"`
	Level        string `json:"level"`
	ChunkSize    *int   `json:"chunk_size,omitempty"`
	Parallel     bool   `json:"parallel"`
	Workers      *int   `json:"workers,omitempty"`
	Serializer   string `json:"serializer,omitempty"`
	FPS          int    `json:"fps,omitempty"`
}

// scenarioSchema validates a scenario file before a run starts; a bad field
// should fail the whole bench up front, not scenario thirty.
const scenarioSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["name", "payload_bytes", "level"],
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"payload_bytes": {"type": "integer", "minimum": 0},
			"seed": {"type": "integer"},
			"level": {"type": "string", "enum": ["L", "M", "Q", "H", "l", "m", "q", "h"]},
			"chunk_size": {"type": "integer", "minimum": 1},
			"parallel": {"type": "boolean"},
			"workers": {"type": "integer", "minimum": 1},
			"serializer": {"type": "string", "enum": ["identity", "base64"]},
			"fps": {"type": "integer", "minimum": 1}
		}
	}
}`

// LoadScenarios reads and validates a scenario JSON file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("reading scenario file", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(scenarioSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("scenario file does not parse: %v", err))
	}
	if !result.Valid() {
		msg := "scenario file is invalid:"
		for _, e := range result.Errors() {
			msg += "\n  " + e.String()
		}
		return nil, errors.NewConfigError(msg)
	}

	var scenarios []Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("scenario file does not decode: %v", err))
	}
	return scenarios, nil
}

// DefaultScenarios returns the built-in scenario sweep: payload size against
// error correction level, sequential and parallel.
func DefaultScenarios() []Scenario {
	chunk := func(v int) *int { return &v }
	return []Scenario{
		{Name: "small_M_seq", PayloadBytes: 10_000, Seed: 42, Level: "M"},
		{Name: "small_H_seq", PayloadBytes: 10_000, Seed: 42, Level: "H"},
		{Name: "medium_M_seq", PayloadBytes: 100_000, Seed: 42, Level: "M"},
		{Name: "medium_M_par", PayloadBytes: 100_000, Seed: 42, Level: "M", Parallel: true},
		{Name: "large_L_seq", PayloadBytes: 1_000_000, Seed: 42, Level: "L", ChunkSize: chunk(2953)},
		{Name: "large_L_par", PayloadBytes: 1_000_000, Seed: 42, Level: "L", ChunkSize: chunk(2953), Parallel: true},
	}
}

// Config converts a scenario into a pipeline configuration.
func (s *Scenario) Config() (*config.Config, error) {
	level, err := config.ParseLevel(s.Level)
	if err != nil {
		return nil, errors.NewConfigError(err.Error())
	}

	cfg := config.NewConfig()
	cfg.ErrorCorrection = level
	cfg.ChunkSize = s.ChunkSize
	cfg.EnableParallel = s.Parallel
	cfg.MaxWorkers = s.Workers
	if s.FPS > 0 {
		cfg.FramesPerSecond = s.FPS
	}
	return cfg, nil
}
