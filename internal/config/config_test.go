package config

import (
	"runtime"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ErrorCorrectionLevel
		wantErr bool
	}{
		{name: "upper L", input: "L", want: LevelL},
		{name: "lower m", input: "m", want: LevelM},
		{name: "whitespace", input: "  Q  ", want: LevelQ},
		{name: "upper H", input: "H", want: LevelH},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "X", wantErr: true},
		{name: "word", input: "medium", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelMaxBytes(t *testing.T) {
	tests := []struct {
		level ErrorCorrectionLevel
		want  int
	}{
		{LevelL, 2953},
		{LevelM, 2331},
		{LevelQ, 1663},
		{LevelH, 1273},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.MaxBytes(); got != tt.want {
				t.Errorf("MaxBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero chunk size", mutate: func(c *Config) { c.ChunkSize = intPtr(0) }, wantErr: true},
		{name: "negative chunk size", mutate: func(c *Config) { c.ChunkSize = intPtr(-1) }, wantErr: true},
		{name: "valid chunk size", mutate: func(c *Config) { c.ChunkSize = intPtr(500) }},
		{name: "zero fps", mutate: func(c *Config) { c.FramesPerSecond = 0 }, wantErr: true},
		{name: "zero box size", mutate: func(c *Config) { c.BoxSize = 0 }, wantErr: true},
		{name: "negative border", mutate: func(c *Config) { c.Border = -1 }, wantErr: true},
		{name: "zero border", mutate: func(c *Config) { c.Border = 0 }},
		{name: "zero workers", mutate: func(c *Config) { c.MaxWorkers = intPtr(0) }, wantErr: true},
		{name: "valid workers", mutate: func(c *Config) { c.MaxWorkers = intPtr(8) }},
		{name: "bad level", mutate: func(c *Config) { c.ErrorCorrection = ErrorCorrectionLevel(9) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveChunkSize(t *testing.T) {
	tests := []struct {
		name  string
		level ErrorCorrectionLevel
		chunk *int
		want  int
	}{
		{name: "unset defaults to capacity", level: LevelM, want: 2331},
		{name: "smaller chunk wins", level: LevelM, chunk: intPtr(100), want: 100},
		{name: "oversized chunk is clamped", level: LevelH, chunk: intPtr(5000), want: 1273},
		{name: "exactly capacity", level: LevelL, chunk: intPtr(2953), want: 2953},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.ErrorCorrection = tt.level
			cfg.ChunkSize = tt.chunk
			if got := cfg.EffectiveChunkSize(); got != tt.want {
				t.Errorf("EffectiveChunkSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWorkerCount(t *testing.T) {
	cfg := NewConfig()
	if got := cfg.WorkerCount(); got != runtime.NumCPU() {
		t.Errorf("WorkerCount() = %d, want NumCPU %d", got, runtime.NumCPU())
	}

	cfg.MaxWorkers = intPtr(3)
	if got := cfg.WorkerCount(); got != 3 {
		t.Errorf("WorkerCount() = %d, want 3", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg := NewConfig()
	cfg.ChunkSize = intPtr(100)
	cfg.MaxWorkers = intPtr(4)

	clone := cfg.Clone()
	if !cfg.Equal(clone) {
		t.Fatal("clone should equal the original")
	}

	*clone.ChunkSize = 200
	*clone.MaxWorkers = 8
	if *cfg.ChunkSize != 100 || *cfg.MaxWorkers != 4 {
		t.Error("mutating the clone must not touch the original")
	}
	if cfg.Equal(clone) {
		t.Error("Equal() should notice diverged pointer fields")
	}
}

func TestEqual(t *testing.T) {
	a := NewConfig()
	b := NewConfig()
	if !a.Equal(b) {
		t.Error("fresh configs should be equal")
	}

	b.ErrorCorrection = LevelH
	if a.Equal(b) {
		t.Error("configs with different levels should differ")
	}

	b = NewConfig()
	b.ChunkSize = intPtr(10)
	if a.Equal(b) {
		t.Error("nil vs set chunk size should differ")
	}
}
