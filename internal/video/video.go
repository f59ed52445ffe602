// Package video writes ordered frame streams to a lossless container and
// streams them back.
package video

import (
	"context"
	"image"
	"io"
	"sync"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
	"github.com/mkarlsen/qrvid/internal/frame"
)

// Handler is the container layer contract: Write consumes an ordered frame
// stream into the file at path; Read yields the frames back in the order
// written, with bit-identical rasters.
type Handler interface {
	Write(ctx context.Context, frames frame.Stream, path string, cfg *config.Config) (int, error)
	Read(ctx context.Context, path string, cfg *config.Config) (frame.Stream, error)
}

// normalize resizes img to the reference dimensions. Every frame of one
// container must share the dimensions of the first frame.
func normalize(img image.Image, width, height int) image.Image {
	return frame.Resize(img, width, height)
}

// MemoryHandler is a Handler that keeps containers in process memory, keyed
// by path. It applies the same first-frame dimension normalization as a
// real container and is intended for tests and benchmarks.
type MemoryHandler struct {
	mu     sync.Mutex
	videos map[string][]image.Image
}

// NewMemoryHandler creates an empty in-memory handler.
func NewMemoryHandler() *MemoryHandler {
	return &MemoryHandler{videos: make(map[string][]image.Image)}
}

// Write drains the stream into memory under path.
func (h *MemoryHandler) Write(ctx context.Context, frames frame.Stream, path string, cfg *config.Config) (int, error) {
	var stored []image.Image
	width, height := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return 0, errors.NewCancelledError()
		}
		img, err := frames.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if len(stored) == 0 {
			b := img.Bounds()
			width, height = b.Dx(), b.Dy()
		}
		stored = append(stored, normalize(img, width, height))
	}

	h.mu.Lock()
	h.videos[path] = stored
	h.mu.Unlock()
	return len(stored), nil
}

// Read streams the frames stored under path.
func (h *MemoryHandler) Read(ctx context.Context, path string, cfg *config.Config) (frame.Stream, error) {
	h.mu.Lock()
	stored, ok := h.videos[path]
	h.mu.Unlock()
	if !ok {
		return nil, errors.NewIOError("no video stored at "+path, nil)
	}
	return frame.FromSlice(stored), nil
}
