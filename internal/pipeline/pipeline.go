// Package pipeline composes the serializer, the encoder, and the video
// handler into the full codec pipeline, owns the header-frame protocol, and
// validates round trips.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/encoder"
	"github.com/mkarlsen/qrvid/internal/errors"
	"github.com/mkarlsen/qrvid/internal/frame"
	"github.com/mkarlsen/qrvid/internal/header"
	"github.com/mkarlsen/qrvid/internal/reporter"
	"github.com/mkarlsen/qrvid/internal/serialize"
	"github.com/mkarlsen/qrvid/internal/symbol"
	"github.com/mkarlsen/qrvid/internal/validation"
	"github.com/mkarlsen/qrvid/internal/video"
)

// Pipeline drives the staged data flow bytes -> frames -> container and back.
type Pipeline struct {
	ser      serialize.Serializer
	enc      *encoder.Encoder
	vid      video.Handler
	rep      reporter.Reporter
	validate validation.Func
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSerializer sets the payload serializer.
func WithSerializer(s serialize.Serializer) Option {
	return func(p *Pipeline) { p.ser = s }
}

// WithVideoHandler sets the container layer.
func WithVideoHandler(h video.Handler) Option {
	return func(p *Pipeline) { p.vid = h }
}

// WithSymbolCodec sets the per-frame symbol primitive.
func WithSymbolCodec(c symbol.Codec) Option {
	return func(p *Pipeline) { p.enc = encoder.New(c) }
}

// WithReporter sets the progress reporter.
func WithReporter(r reporter.Reporter) Option {
	return func(p *Pipeline) { p.rep = r }
}

// WithValidation sets the round-trip validation function.
func WithValidation(fn validation.Func) Option {
	return func(p *Pipeline) { p.validate = fn }
}

// New creates a Pipeline. The defaults are the identity serializer, the QR
// symbol codec, the ffmpeg container handler, and bytewise validation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		ser:      serialize.Identity{},
		enc:      encoder.New(symbol.NewQR()),
		vid:      video.NewFFmpegHandler(""),
		rep:      reporter.NullReporter{},
		validate: validation.BytesEqual,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of a full round trip.
type Result struct {
	Output         []byte
	FrameCount     int
	EncodeDuration time.Duration
	DecodeDuration time.Duration
}

// Encode produces the ordered frame stream for payload: the header frame
// carrying cfg, then one frame per payload chunk. The stream is lazy; the
// int is the total frame count including the header.
func (p *Pipeline) Encode(ctx context.Context, payload []byte, cfg *config.Config) (frame.Stream, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, errors.NewConfigError(err.Error())
	}

	headerImg, err := p.encodeHeader(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}

	serialized := p.ser.Serialize(payload)

	// Every frame of one container shares the first frame's dimensions, and
	// downscaling a payload symbol would destroy its detectability. Render
	// the header at the raster size of the largest payload symbol so the
	// handler's defensive resize only ever scales frames up.
	if len(serialized) > 0 {
		probeLen := cfg.EffectiveChunkSize()
		if len(serialized) < probeLen {
			probeLen = len(serialized)
		}
		pw, ph, err := p.enc.FrameSize(cfg, probeLen)
		if err != nil {
			return nil, 0, err
		}
		hb := headerImg.Bounds()
		if pw > hb.Dx() || ph > hb.Dy() {
			headerImg = frame.Resize(headerImg, pw, ph)
		}
	}

	payloadStream, payloadFrames, err := p.enc.Encode(ctx, serialized, cfg)
	if err != nil {
		return nil, 0, err
	}

	p.rep.Verbose(fmt.Sprintf("Encoding %d payload bytes into %d frames at level %s",
		len(payload), payloadFrames+1, cfg.ErrorCorrection))

	headerStream := frame.FromSlice([]image.Image{headerImg})
	return frame.Concat(headerStream, payloadStream), payloadFrames + 1, nil
}

// encodeHeader renders the length-prefixed configuration blob as frame 0.
// The header always occupies exactly one symbol; chunking never applies
// because the blob is far below any level's capacity.
func (p *Pipeline) encodeHeader(ctx context.Context, cfg *config.Config) (image.Image, error) {
	wire, err := header.Encode(cfg)
	if err != nil {
		return nil, err
	}

	headerCfg := cfg.Clone()
	headerCfg.ChunkSize = nil
	headerCfg.EnableParallel = false

	stream, n, err := p.enc.Encode(ctx, p.ser.Serialize(wire), headerCfg)
	if err != nil {
		return nil, err
	}
	if n != 1 {
		return nil, errors.NewInvariantViolationError(
			fmt.Sprintf("header serialized to %d frames, expected exactly 1", n))
	}

	img, err := stream.Next()
	if err != nil {
		return nil, err
	}
	return img, nil
}

// EncodeToFile encodes payload and writes the frame stream through the
// video handler to path. Returns the total frame count.
func (p *Pipeline) EncodeToFile(ctx context.Context, payload []byte, cfg *config.Config, path string) (int, error) {
	// A failed write must not strand the worker pool behind the stream.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, total, err := p.Encode(ctx, payload, cfg)
	if err != nil {
		return 0, err
	}

	p.rep.FramesStarted("Rendering frames", total)
	stream = frame.Tap(stream, func(idx int, img image.Image) {
		p.rep.FrameProgress(idx+1, total)
	})

	written, err := p.vid.Write(ctx, stream, path, cfg)
	p.rep.FramesComplete()
	if err != nil {
		return 0, err
	}
	if written != total {
		return 0, errors.NewInvariantViolationError(
			fmt.Sprintf("wrote %d frames, expected %d", written, total))
	}
	return total, nil
}

// Decode recovers the payload from an ordered frame stream. The first frame
// is unconditionally treated as the header; its configuration drives the
// remaining frames. Observability and execution knobs of override replace
// the recovered ones, the wire-relevant fields never do. Returns the
// payload and the recovered configuration.
func (p *Pipeline) Decode(ctx context.Context, frames frame.Stream, override *config.Config) ([]byte, *config.Config, error) {
	if frames == nil {
		return nil, nil, errors.NewEmptyInputError()
	}

	// A failed stage must not strand upstream workers feeding the stream.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	first, err := frames.Next()
	if err == io.EOF {
		return nil, nil, errors.NewEmptyInputError()
	}
	if err != nil {
		return nil, nil, err
	}

	cfg, err := p.decodeHeader(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	applyOverride(cfg, override)

	p.rep.Verbose(fmt.Sprintf("Recovered configuration: level %s, %d fps", cfg.ErrorCorrection, cfg.FramesPerSecond))

	p.rep.FramesStarted("Decoding frames", -1)
	counted := frame.Tap(frames, func(idx int, img image.Image) {
		p.rep.FrameProgress(idx+1, -1)
	})

	serialized, err := p.enc.Decode(ctx, counted, cfg, 1)
	p.rep.FramesComplete()
	if err != nil {
		return nil, nil, err
	}

	payload, err := p.ser.Deserialize(serialized)
	if err != nil {
		return nil, nil, err
	}
	return payload, cfg, nil
}

// decodeHeader detects frame 0 and parses the length-prefixed blob.
func (p *Pipeline) decodeHeader(ctx context.Context, first image.Image) (*config.Config, error) {
	headerData, err := p.enc.Decode(ctx, frame.FromSlice([]image.Image{first}), nil, 0)
	if err != nil {
		return nil, errors.NewHeaderUnreadableError(err)
	}

	wire, err := p.ser.Deserialize(headerData)
	if err != nil {
		return nil, errors.NewHeaderUnreadableError(err)
	}

	return header.Decode(wire)
}

// DecodeFile reads the container at path and decodes its frames.
func (p *Pipeline) DecodeFile(ctx context.Context, path string, override *config.Config) ([]byte, *config.Config, error) {
	if path == "" {
		return nil, nil, errors.NewEmptyInputError()
	}

	readCfg := override
	if readCfg == nil {
		readCfg = config.NewConfig()
	}

	stream, err := p.vid.Read(ctx, path, readCfg)
	if err != nil {
		return nil, nil, err
	}
	return p.Decode(ctx, stream, override)
}

// Run performs the full round trip: encode payload, pass it through the
// container at path (skipped when mock is true), decode it back, and
// validate. The container pass is the losslessness check: the decoded
// frames come from the file, never from the in-memory stream.
func (p *Pipeline) Run(ctx context.Context, payload []byte, path string, cfg *config.Config, mock bool) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &Result{}
	encodeStart := time.Now()

	var (
		out         []byte
		decodeStart time.Time
	)

	if mock {
		frames, total, err := p.Encode(ctx, payload, cfg)
		if err != nil {
			return nil, err
		}
		res.FrameCount = total

		decodeStart = time.Now()
		res.EncodeDuration = decodeStart.Sub(encodeStart)

		out, _, err = p.Decode(ctx, frames, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		if path == "" {
			return nil, errors.NewConfigError("run requires a container file path unless mock is set")
		}

		total, err := p.EncodeToFile(ctx, payload, cfg, path)
		if err != nil {
			return nil, err
		}
		res.FrameCount = total

		decodeStart = time.Now()
		res.EncodeDuration = decodeStart.Sub(encodeStart)

		out, _, err = p.DecodeFile(ctx, path, cfg)
		if err != nil {
			return nil, err
		}
	}
	res.DecodeDuration = time.Since(decodeStart)

	if !p.validate(payload, out) {
		return nil, errors.NewValidationFailedError(validation.Describe(payload, out))
	}

	res.Output = out
	return res, nil
}

// applyOverride copies the caller-owned knobs of o onto cfg: the
// observability toggles and the execution knobs that cannot change the
// decoded output.
func applyOverride(cfg, o *config.Config) {
	if o == nil {
		return
	}
	cfg.ShowDecodeWindow = o.ShowDecodeWindow
	cfg.Verbose = o.Verbose
	cfg.EnableParallel = o.EnableParallel
	cfg.ChunkBuffer = o.ChunkBuffer
	if o.MaxWorkers != nil {
		v := *o.MaxWorkers
		cfg.MaxWorkers = &v
	}
}
