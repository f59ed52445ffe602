// Package encoder turns serialized bytes into an ordered frame sequence and
// back. Chunking, per-chunk symbol rendering, and per-frame detection run
// either sequentially or on an order-preserving parallel worker pool; the
// observable frame sequence is identical in both modes.
package encoder

import (
	"context"
	"image"
	"io"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
	"github.com/mkarlsen/qrvid/internal/frame"
	"github.com/mkarlsen/qrvid/internal/symbol"
	"github.com/mkarlsen/qrvid/internal/worker"
)

// Encoder drives the per-frame symbol codec over chunked data.
type Encoder struct {
	codec symbol.Codec
}

// New creates an Encoder on top of the given symbol codec.
func New(codec symbol.Codec) *Encoder {
	return &Encoder{codec: codec}
}

// Chunks splits data into segments of at most seg bytes, ordered by offset.
// The last chunk may be short but never empty; empty data yields no chunks.
func Chunks(data []byte, seg int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(data)+seg-1)/seg)
	for i := 0; i < len(data); i += seg {
		end := i + seg
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[i:end])
	}
	return out
}

// FrameCount returns the number of payload frames for n serialized bytes at
// segment size seg.
func FrameCount(n, seg int) int {
	if n == 0 {
		return 0
	}
	return (n + seg - 1) / seg
}

// Encode chunks data and renders one frame per chunk, in chunk order.
// The returned stream is lazy; the int is the total frame count.
func (e *Encoder) Encode(ctx context.Context, data []byte, cfg *config.Config) (frame.Stream, int, error) {
	seg := cfg.EffectiveChunkSize()
	if seg <= 0 {
		return nil, 0, errors.NewConfigError("segment size is not positive; check the error correction level")
	}
	chunks := Chunks(data, seg)
	maxBytes := cfg.ErrorCorrection.MaxBytes()

	render := func(idx int, chunk []byte) (image.Image, error) {
		if len(chunk) > maxBytes {
			return nil, errors.NewCapacityExceededError(idx, len(chunk), maxBytes)
		}
		img, err := e.codec.Render(chunk, cfg)
		if err != nil {
			if errors.IsKind(err, errors.KindCapacityExceeded) {
				return nil, errors.NewCapacityExceededError(idx, len(chunk), maxBytes)
			}
			return nil, err
		}
		return img, nil
	}

	if e.parallel(cfg, len(chunks)) {
		src := sliceSource(chunks)
		workers := cfg.WorkerCount()
		permits := worker.Permits(workers, cfg.ChunkBuffer)
		return mapOrdered(ctx, src, workers, permits, render), len(chunks), nil
	}

	i := 0
	seq := frame.Func(func() (image.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError()
		}
		if i >= len(chunks) {
			return nil, io.EOF
		}
		img, err := render(i, chunks[i])
		if err != nil {
			return nil, err
		}
		i++
		return img, nil
	})
	return seq, len(chunks), nil
}

// FrameSize renders a synthetic full chunk of n bytes and returns its raster
// dimensions. Byte-mode content is the worst case for symbol version, so no
// real chunk of n bytes renders larger.
func (e *Encoder) FrameSize(cfg *config.Config, n int) (int, int, error) {
	probe := make([]byte, n)
	for i := range probe {
		probe[i] = 0xa5
	}
	img, err := e.codec.Render(probe, cfg)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Decode detects every frame of the stream and concatenates the results in
// frame order. baseIndex offsets the frame index reported in errors, so a
// payload stream that follows a header frame reports container positions.
// A nil cfg forces sequential execution.
func (e *Encoder) Decode(ctx context.Context, frames frame.Stream, cfg *config.Config, baseIndex int) ([]byte, error) {
	detect := func(idx int, img image.Image) ([]byte, error) {
		data, err := e.codec.Detect(img)
		if err != nil {
			return nil, errors.NewFrameCorruptError(baseIndex+idx, err)
		}
		return data, nil
	}

	if cfg != nil && e.parallel(cfg, -1) {
		src := func() (image.Image, error) { return frames.Next() }
		workers := cfg.WorkerCount()
		permits := worker.Permits(workers, cfg.ChunkBuffer)
		s := mapOrdered(ctx, src, workers, permits, detect)

		var out []byte
		for {
			part, err := s.Next()
			if err == io.EOF {
				return out, nil
			}
			if err != nil {
				return nil, err
			}
			out = append(out, part...)
		}
	}

	var out []byte
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelledError()
		}
		img, err := frames.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		part, err := detect(idx, img)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
}

// parallel reports whether the worker pool should run. A single task always
// runs sequentially; n < 0 means the task count is unknown.
func (e *Encoder) parallel(cfg *config.Config, n int) bool {
	if !cfg.EnableParallel || cfg.WorkerCount() <= 1 {
		return false
	}
	return n < 0 || n > 1
}

func sliceSource(chunks [][]byte) func() ([]byte, error) {
	i := 0
	return func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}
}
