// Package ffmpeg builds and executes the FFmpeg invocations that mux frame
// rasters into a container and extract them back.
package ffmpeg

import (
	"fmt"
	"strconv"
)

// MuxParams describes a frames-to-container mux.
type MuxParams struct {
	FramePattern    string // printf-style input pattern, e.g. work/frame_%06d.png
	FramesPerSecond int
	OutputPath      string
}

// ExtractParams describes a container-to-frames extraction.
type ExtractParams struct {
	InputPath    string
	FramePattern string // printf-style output pattern
}

// BuildMuxArgs returns the ffmpeg arguments for writing a lossless
// container from numbered frame images. libx264rgb at qp 0 keeps the RGB
// rasters bit-identical through a write/read round trip.
func BuildMuxArgs(p *MuxParams) []string {
	return []string{
		"-y",
		"-framerate", strconv.Itoa(p.FramesPerSecond),
		"-i", p.FramePattern,
		"-c:v", "libx264rgb",
		"-qp", "0",
		"-preset", "veryfast",
		"-pix_fmt", "rgb24",
		p.OutputPath,
	}
}

// BuildExtractArgs returns the ffmpeg arguments for dumping every frame of
// a container to numbered frame images.
func BuildExtractArgs(p *ExtractParams) []string {
	return []string{
		"-y",
		"-i", p.InputPath,
		"-fps_mode", "passthrough",
		p.FramePattern,
	}
}

// FramePattern returns the printf-style frame file pattern inside dir.
func FramePattern(dir string) string {
	return fmt.Sprintf("%s/frame_%%06d.png", dir)
}

// FrameFileName returns the file name the pattern produces for a 1-based
// frame number.
func FrameFileName(num int) string {
	return fmt.Sprintf("frame_%06d.png", num)
}
