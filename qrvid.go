// Package qrvid provides a Go library for transporting opaque byte payloads
// through QR-code video files.
//
// A payload is serialized, split into capacity-bounded chunks, rendered as
// one QR symbol per video frame, and muxed into a lossless container. Frame
// zero is a self-describing header carrying the encoding configuration, so
// decoding needs only the file and a codec built with the same serializer
// (the serializer is not recorded in the header).
//
// Basic usage:
//
//	codec, err := qrvid.New(
//	    qrvid.WithErrorCorrection(qrvid.LevelH),
//	    qrvid.WithParallelism(8),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := codec.EncodeFile(ctx, payload, "payload.mp4"); err != nil {
//	    log.Fatal(err)
//	}
//
//	payload, err = codec.DecodeFile(ctx, "payload.mp4")
package qrvid

import (
	"context"
	"time"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/pipeline"
	"github.com/mkarlsen/qrvid/internal/reporter"
	"github.com/mkarlsen/qrvid/internal/serialize"
	"github.com/mkarlsen/qrvid/internal/validation"
	"github.com/mkarlsen/qrvid/internal/video"
)

// Level is the QR error correction level.
type Level = config.ErrorCorrectionLevel

const (
	LevelL = config.LevelL
	LevelM = config.LevelM
	LevelQ = config.LevelQ
	LevelH = config.LevelH
)

// ParseLevel converts a level string ("L", "M", "Q", "H") to a Level.
func ParseLevel(s string) (Level, error) {
	return config.ParseLevel(s)
}

// Codec is the main entry point for encoding and decoding QR videos.
type Codec struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
}

// Result contains the outcome of a round trip.
type Result struct {
	Output         []byte
	FrameCount     int
	EncodeDuration time.Duration
	DecodeDuration time.Duration
}

// options collects construction-time settings that are not part of the
// wire-traveling configuration.
type options struct {
	serializer serialize.Serializer
	handler    video.Handler
	rep        reporter.Reporter
	validate   validation.Func
}

// Option configures the codec.
type Option func(*config.Config, *options)

// New creates a new Codec with the given options.
func New(opts ...Option) (*Codec, error) {
	cfg := config.NewConfig()
	o := &options{
		serializer: serialize.Base64{},
		handler:    video.NewFFmpegHandler(""),
		rep:        reporter.NullReporter{},
		validate:   validation.BytesEqual,
	}

	for _, opt := range opts {
		opt(cfg, o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pipe := pipeline.New(
		pipeline.WithSerializer(o.serializer),
		pipeline.WithVideoHandler(o.handler),
		pipeline.WithReporter(o.rep),
		pipeline.WithValidation(o.validate),
	)

	return &Codec{cfg: cfg, pipe: pipe}, nil
}

// WithErrorCorrection sets the QR error correction level.
func WithErrorCorrection(l Level) Option {
	return func(c *config.Config, _ *options) {
		c.ErrorCorrection = l
	}
}

// WithChunkSize bounds the per-symbol segment size. Values above the
// level's capacity are clamped.
func WithChunkSize(n int) Option {
	return func(c *config.Config, _ *options) {
		c.ChunkSize = &n
	}
}

// WithFramesPerSecond sets the container frame rate.
func WithFramesPerSecond(fps int) Option {
	return func(c *config.Config, _ *options) {
		c.FramesPerSecond = fps
	}
}

// WithParallelism enables the worker pool with the given worker count.
// Zero workers enables the pool at the logical core count.
func WithParallelism(workers int) Option {
	return func(c *config.Config, _ *options) {
		c.EnableParallel = true
		if workers > 0 {
			c.MaxWorkers = &workers
		}
	}
}

// WithBoxSize sets the render scale in pixels per QR module.
func WithBoxSize(px int) Option {
	return func(c *config.Config, _ *options) {
		c.BoxSize = px
	}
}

// WithBorder sets the quiet-zone knob: 0 disables the quiet zone, any
// positive value renders a fixed 4-module quiet zone.
func WithBorder(modules int) Option {
	return func(c *config.Config, _ *options) {
		c.Border = modules
	}
}

// WithVerbose enables verbose progress reporting.
func WithVerbose() Option {
	return func(c *config.Config, _ *options) {
		c.Verbose = true
	}
}

// WithIdentitySerializer passes payload bytes to the symbol layer unchanged.
// The default is base64, which keeps arbitrary binary payloads inside the
// byte values every symbol detector round-trips cleanly.
func WithIdentitySerializer() Option {
	return func(_ *config.Config, o *options) {
		o.serializer = serialize.Identity{}
	}
}

// WithSerializerName selects the serializer by registry name.
func WithSerializerName(name string) Option {
	return func(_ *config.Config, o *options) {
		if s, err := serialize.ForName(name); err == nil {
			o.serializer = s
		}
	}
}

// WithVideoHandler replaces the container layer. The default shells out to
// ffmpeg with a lossless RGB codec.
func WithVideoHandler(h video.Handler) Option {
	return func(_ *config.Config, o *options) {
		o.handler = h
	}
}

// WithMemoryVideo keeps containers in process memory. Intended for tests.
func WithMemoryVideo() Option {
	return func(_ *config.Config, o *options) {
		o.handler = video.NewMemoryHandler()
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r reporter.Reporter) Option {
	return func(_ *config.Config, o *options) {
		o.rep = r
	}
}

// WithLengthValidation validates round trips by length instead of content.
func WithLengthValidation() Option {
	return func(_ *config.Config, o *options) {
		o.validate = validation.SameLength
	}
}

// Config returns a copy of the codec's configuration.
func (c *Codec) Config() *config.Config {
	return c.cfg.Clone()
}

// EncodeFile encodes payload into a QR video at videoPath.
func (c *Codec) EncodeFile(ctx context.Context, payload []byte, videoPath string) error {
	_, err := c.pipe.EncodeToFile(ctx, payload, c.cfg, videoPath)
	return err
}

// DecodeFile recovers the payload from the QR video at videoPath. The
// encoding parameters come from the video's header frame; the codec's own
// configuration only contributes execution and observability knobs.
func (c *Codec) DecodeFile(ctx context.Context, videoPath string) ([]byte, error) {
	out, _, err := c.pipe.DecodeFile(ctx, videoPath, c.cfg)
	return out, err
}

// Roundtrip encodes payload to videoPath, decodes it back, and validates
// the result. With mock set, the container step is skipped and frames flow
// through memory.
func (c *Codec) Roundtrip(ctx context.Context, payload []byte, videoPath string, mock bool) (*Result, error) {
	res, err := c.pipe.Run(ctx, payload, videoPath, c.cfg, mock)
	if err != nil {
		return nil, err
	}
	return &Result{
		Output:         res.Output,
		FrameCount:     res.FrameCount,
		EncodeDuration: res.EncodeDuration,
		DecodeDuration: res.DecodeDuration,
	}, nil
}
