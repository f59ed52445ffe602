package video

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
	"github.com/mkarlsen/qrvid/internal/frame"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestMemoryHandlerRoundTrip(t *testing.T) {
	h := NewMemoryHandler()
	cfg := config.NewConfig()
	ctx := context.Background()

	in := []image.Image{
		solid(8, 8, color.White),
		solid(8, 8, color.Black),
		solid(8, 8, color.White),
	}

	n, err := h.Write(ctx, frame.FromSlice(in), "mem://a", cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stream, err := h.Read(ctx, "mem://a", cfg)
	require.NoError(t, err)

	out, err := frame.Collect(stream)
	require.NoError(t, err)
	require.Len(t, out, 3)

	for i := range out {
		assert.Equal(t, in[i].Bounds(), out[i].Bounds(), "frame %d", i)
	}
}

func TestMemoryHandlerNormalizesDimensions(t *testing.T) {
	h := NewMemoryHandler()
	cfg := config.NewConfig()
	ctx := context.Background()

	// The second frame is smaller; the handler must resize it to the first
	// frame's dimensions.
	in := []image.Image{
		solid(16, 16, color.White),
		solid(8, 8, color.Black),
	}

	_, err := h.Write(ctx, frame.FromSlice(in), "mem://b", cfg)
	require.NoError(t, err)

	stream, err := h.Read(ctx, "mem://b", cfg)
	require.NoError(t, err)
	out, err := frame.Collect(stream)
	require.NoError(t, err)

	for i, img := range out {
		b := img.Bounds()
		assert.Equal(t, 16, b.Dx(), "frame %d width", i)
		assert.Equal(t, 16, b.Dy(), "frame %d height", i)
	}
}

func TestMemoryHandlerReadMissing(t *testing.T) {
	h := NewMemoryHandler()

	_, err := h.Read(context.Background(), "mem://nope", config.NewConfig())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIO))
}

func TestMemoryHandlerSeparatePaths(t *testing.T) {
	h := NewMemoryHandler()
	cfg := config.NewConfig()
	ctx := context.Background()

	_, err := h.Write(ctx, frame.FromSlice([]image.Image{solid(4, 4, color.White)}), "mem://one", cfg)
	require.NoError(t, err)
	_, err = h.Write(ctx, frame.FromSlice([]image.Image{solid(4, 4, color.Black), solid(4, 4, color.Black)}), "mem://two", cfg)
	require.NoError(t, err)

	one, err := h.Read(ctx, "mem://one", cfg)
	require.NoError(t, err)
	frames, err := frame.Collect(one)
	require.NoError(t, err)
	assert.Len(t, frames, 1)

	two, err := h.Read(ctx, "mem://two", cfg)
	require.NoError(t, err)
	frames, err = frame.Collect(two)
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestFFmpegWriteEmptyStream(t *testing.T) {
	h := NewFFmpegHandler(t.TempDir())

	_, err := h.Write(context.Background(), frame.FromSlice(nil), "out.mp4", config.NewConfig())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvariantViolation))
}

func TestFFmpegReadMissingFile(t *testing.T) {
	h := NewFFmpegHandler(t.TempDir())

	_, err := h.Read(context.Background(), "/does/not/exist.mp4", config.NewConfig())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIO))
}
