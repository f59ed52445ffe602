// Package frame provides the raster frame type and lazy frame streams that
// connect the encoder, the video handler, and the pipeline.
package frame

import (
	"image"
	"io"

	xdraw "golang.org/x/image/draw"
)

// Stream is a pull-based ordered sequence of frames. Next returns io.EOF
// after the last frame; any other error is fatal for the stream.
type Stream interface {
	Next() (image.Image, error)
}

// Func adapts a pull function to a Stream.
type Func func() (image.Image, error)

// Next calls the underlying function.
func (f Func) Next() (image.Image, error) { return f() }

// FromSlice returns a stream over the given frames in order.
func FromSlice(frames []image.Image) Stream {
	i := 0
	return Func(func() (image.Image, error) {
		if i >= len(frames) {
			return nil, io.EOF
		}
		img := frames[i]
		i++
		return img, nil
	})
}

// Collect drains a stream into a slice.
func Collect(s Stream) ([]image.Image, error) {
	var out []image.Image
	for {
		img, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
}

// Concat yields every frame of a, then every frame of b.
func Concat(a, b Stream) Stream {
	first := true
	return Func(func() (image.Image, error) {
		if first {
			img, err := a.Next()
			if err == nil {
				return img, nil
			}
			if err != io.EOF {
				return nil, err
			}
			first = false
		}
		return b.Next()
	})
}

// Tap invokes fn after every frame successfully pulled from s.
func Tap(s Stream, fn func(idx int, img image.Image)) Stream {
	i := 0
	return Func(func() (image.Image, error) {
		img, err := s.Next()
		if err != nil {
			return nil, err
		}
		fn(i, img)
		i++
		return img, nil
	})
}

// Resize scales img to width x height with nearest-neighbour sampling.
// Returns img unchanged when the dimensions already match. QR rasters are
// hard-edged module grids, so nearest neighbour preserves detectability.
func Resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
