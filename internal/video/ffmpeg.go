package video

import (
	"context"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
	"github.com/mkarlsen/qrvid/internal/ffmpeg"
	"github.com/mkarlsen/qrvid/internal/ffprobe"
	"github.com/mkarlsen/qrvid/internal/frame"
	"github.com/mkarlsen/qrvid/internal/util"
)

// FFmpegHandler muxes frames into an MP4 container through ffmpeg, using a
// lossless RGB codec so rasters survive the write/read round trip
// bit-identically. Frames pass through a PNG work directory on disk.
type FFmpegHandler struct {
	// WorkDir is the base directory for frame staging; empty means the
	// system temp directory.
	WorkDir string

	// Warn receives low-disk-space and cleanup diagnostics; may be nil.
	Warn func(format string, args ...any)
}

// NewFFmpegHandler creates a handler staging frames under workDir.
func NewFFmpegHandler(workDir string) *FFmpegHandler {
	return &FFmpegHandler{WorkDir: workDir}
}

// Write drains the stream into numbered PNGs and muxes them into path.
func (h *FFmpegHandler) Write(ctx context.Context, frames frame.Stream, path string, cfg *config.Config) (int, error) {
	work, err := util.CreateTempDir(h.WorkDir, "qrvid_mux")
	if err != nil {
		return 0, errors.NewIOError("creating frame work directory", err)
	}
	defer func() { _ = work.Cleanup() }()

	util.CheckDiskSpace(work.Path(), h.Warn)

	count := 0
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
		if count == 0 {
			b := img.Bounds()
			width, height = b.Dx(), b.Dy()
		}

		name := filepath.Join(work.Path(), ffmpeg.FrameFileName(count+1))
		if err := writePNG(name, normalize(img, width, height)); err != nil {
			return 0, err
		}
		count++
	}

	if count == 0 {
		return 0, errors.NewInvariantViolationError("no frames supplied to the container writer")
	}

	muxArgs := ffmpeg.BuildMuxArgs(&ffmpeg.MuxParams{
		FramePattern:    ffmpeg.FramePattern(work.Path()),
		FramesPerSecond: cfg.FramesPerSecond,
		OutputPath:      path,
	})
	if err := ffmpeg.Run(ctx, muxArgs); err != nil {
		return 0, err
	}

	if err := ffprobe.VerifyFrameCount(ctx, path, count); err != nil {
		return 0, err
	}
	return count, nil
}

// Read extracts every frame of the container at path into a work directory
// and streams them back in order. The work directory is removed once the
// stream is exhausted.
func (h *FFmpegHandler) Read(ctx context.Context, path string, cfg *config.Config) (frame.Stream, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewIOError("container not readable", err)
	}

	work, err := util.CreateTempDir(h.WorkDir, "qrvid_demux")
	if err != nil {
		return nil, errors.NewIOError("creating frame work directory", err)
	}

	extractArgs := ffmpeg.BuildExtractArgs(&ffmpeg.ExtractParams{
		InputPath:    path,
		FramePattern: ffmpeg.FramePattern(work.Path()),
	})
	if err := ffmpeg.Run(ctx, extractArgs); err != nil {
		_ = work.Cleanup()
		return nil, err
	}

	names, err := frameFiles(work.Path())
	if err != nil {
		_ = work.Cleanup()
		return nil, err
	}

	i := 0
	return frame.Func(func() (image.Image, error) {
		if err := ctx.Err(); err != nil {
			_ = work.Cleanup()
			return nil, errors.NewCancelledError()
		}
		if i >= len(names) {
			_ = work.Cleanup()
			return nil, io.EOF
		}
		img, err := readPNG(names[i])
		if err != nil {
			_ = work.Cleanup()
			return nil, err
		}
		i++
		return img, nil
	}), nil
}

func frameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIOError("listing extracted frames", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

func writePNG(path string, img image.Image) error {
	// The muxer wants plain RGB input; flatten whatever raster the symbol
	// renderer produced.
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("creating frame file", err)
	}
	if err := png.Encode(f, rgba); err != nil {
		_ = f.Close()
		return errors.NewIOError("encoding frame", err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError("closing frame file", err)
	}
	return nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("opening frame file", err)
	}
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.NewIOError("decoding frame "+filepath.Base(path), err)
	}
	return img, nil
}
