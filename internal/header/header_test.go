package header

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
)

func intPtr(v int) *int { return &v }

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "defaults", mutate: func(c *config.Config) {}},
		{name: "level L", mutate: func(c *config.Config) { c.ErrorCorrection = config.LevelL }},
		{name: "level H with chunk", mutate: func(c *config.Config) {
			c.ErrorCorrection = config.LevelH
			c.ChunkSize = intPtr(1000)
		}},
		{name: "parallel with workers", mutate: func(c *config.Config) {
			c.EnableParallel = true
			c.MaxWorkers = intPtr(8)
		}},
		{name: "observability toggles", mutate: func(c *config.Config) {
			c.ShowDecodeWindow = true
			c.Verbose = true
		}},
		{name: "render knobs", mutate: func(c *config.Config) {
			c.BoxSize = 5
			c.Border = 0
			c.FramesPerSecond = 60
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(cfg)

			wire, err := Encode(cfg)
			require.NoError(t, err)

			got, err := Decode(wire)
			require.NoError(t, err)
			assert.True(t, cfg.Equal(got), "decoded config differs from input")
		})
	}
}

func TestPrefixIsBigEndianLength(t *testing.T) {
	wire, err := Encode(config.NewConfig())
	require.NoError(t, err)
	require.Greater(t, len(wire), 4)

	blobLen := binary.BigEndian.Uint32(wire[:4])
	assert.Equal(t, len(wire)-4, int(blobLen))
}

func TestEncodeIsDeterministic(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ChunkSize = intPtr(2953)

	a, err := Encode(cfg)
	require.NoError(t, err)
	b, err := Encode(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeTruncated(t *testing.T) {
	wire, err := Encode(config.NewConfig())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short prefix", data: wire[:3]},
		{name: "prefix only", data: wire[:4]},
		{name: "blob cut short", data: wire[:len(wire)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindHeaderTruncated))
		})
	}
}

func TestDecodeGarbageBlob(t *testing.T) {
	// Payload bytes mistaken for a header: the announced length far exceeds
	// the carried bytes.
	_, err := Decode([]byte("Hello World"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindHeaderTruncated))
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	cfg := config.NewConfig()
	wire, err := Encode(cfg)
	require.NoError(t, err)

	// A version this build does not read. The version byte lives inside the
	// CBOR blob, so patch that byte in a copy of the encoded wire form.
	patched := make([]byte, len(wire))
	copy(patched, wire)
	// Find the value byte following the "v" key in the tiny blob.
	for i := 4; i < len(patched)-1; i++ {
		if patched[i] == 'v' && patched[i+1] == 0x01 {
			patched[i+1] = 0x09
			break
		}
	}

	_, err = Decode(patched)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindHeaderTruncated))
}
