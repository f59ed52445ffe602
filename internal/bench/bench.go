package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mkarlsen/qrvid/internal/pipeline"
	"github.com/mkarlsen/qrvid/internal/reporter"
	"github.com/mkarlsen/qrvid/internal/serialize"
	"github.com/mkarlsen/qrvid/internal/util"
	"github.com/mkarlsen/qrvid/internal/video"
)

// Result is one row of a benchmark run.
type Result struct {
	RunID         string
	Scenario      string
	PayloadBytes  int
	Level         string
	FrameCount    int
	EncodeSecs    float64
	DecodeSecs    float64
	TotalSecs     float64
	ThroughputBps float64
	OK            bool
	Error         string
}

// Runner executes scenarios through a shared pipeline setup.
type Runner struct {
	// WorkDir holds the per-scenario container files; empty means the
	// system temp directory.
	WorkDir string

	// Handler overrides the container layer; nil means the ffmpeg handler.
	Handler video.Handler

	// Reporter receives progress; nil means silent.
	Reporter reporter.Reporter
}

// Run executes every scenario and returns one result row per scenario.
// Individual scenario failures are recorded in the row, not propagated; a
// sweep should survive one misconfigured case.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	runID := uuid.NewString()

	rep := r.Reporter
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	info := util.GetSystemInfo()
	rep.Verbose(fmt.Sprintf("Run %s on %s: %d logical cores, %s available (%s/%s)",
		runID, info.Hostname, info.NumCPU, util.FormatBytes(util.AvailableMemoryBytes()), info.OS, info.Arch))

	work, err := util.CreateTempDir(r.WorkDir, "qrvid_bench")
	if err != nil {
		return nil, err
	}
	defer func() { _ = work.Cleanup() }()

	handler := r.Handler
	if handler == nil {
		handler = video.NewFFmpegHandler(work.Path())
	}

	results := make([]Result, 0, len(scenarios))
	for i, s := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		rep.StageProgress(reporter.StageProgress{
			Stage:   fmt.Sprintf("Scenario %d/%d", i+1, len(scenarios)),
			Message: s.Name,
		})

		results = append(results, r.runOne(ctx, &s, runID, work.Path(), handler, rep))
	}
	return results, nil
}

func (r *Runner) runOne(
	ctx context.Context,
	s *Scenario,
	runID, workDir string,
	handler video.Handler,
	rep reporter.Reporter,
) Result {
	row := Result{
		RunID:        runID,
		Scenario:     s.Name,
		PayloadBytes: s.PayloadBytes,
		Level:        s.Level,
	}

	cfg, err := s.Config()
	if err != nil {
		row.Error = err.Error()
		return row
	}

	ser, err := serialize.ForName(s.Serializer)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	p := pipeline.New(
		pipeline.WithSerializer(ser),
		pipeline.WithVideoHandler(handler),
		pipeline.WithReporter(rep),
	)

	payload := util.RandomBytes(s.PayloadBytes, s.Seed)
	containerPath := filepath.Join(workDir, s.Name+".mp4")

	start := time.Now()
	res, err := p.Run(ctx, payload, containerPath, cfg, false)
	total := time.Since(start)

	row.TotalSecs = total.Seconds()
	if err != nil {
		row.Error = err.Error()
		return row
	}

	row.OK = true
	row.FrameCount = res.FrameCount
	row.EncodeSecs = res.EncodeDuration.Seconds()
	row.DecodeSecs = res.DecodeDuration.Seconds()
	if total > 0 {
		row.ThroughputBps = float64(s.PayloadBytes) / total.Seconds()
	}
	return row
}

// csvHeader is the column layout of WriteCSV.
var csvHeader = []string{
	"run_id", "scenario", "payload_bytes", "level", "frame_count",
	"encode_secs", "decode_secs", "total_secs", "throughput_bps", "ok", "error",
}

// WriteCSV writes results as CSV, header row first.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			r.RunID,
			r.Scenario,
			strconv.Itoa(r.PayloadBytes),
			r.Level,
			strconv.Itoa(r.FrameCount),
			strconv.FormatFloat(r.EncodeSecs, 'f', 4, 64),
			strconv.FormatFloat(r.DecodeSecs, 'f', 4, 64),
			strconv.FormatFloat(r.TotalSecs, 'f', 4, 64),
			strconv.FormatFloat(r.ThroughputBps, 'f', 1, 64),
			strconv.FormatBool(r.OK),
			r.Error,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
