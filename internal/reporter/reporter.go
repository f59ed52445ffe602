// Package reporter provides progress reporting for qrvid operations.
package reporter

import "time"

// StageProgress describes a pipeline stage transition.
type StageProgress struct {
	Stage   string
	Message string
}

// RunSummary describes a completed encode, decode, or roundtrip.
type RunSummary struct {
	Operation    string
	PayloadBytes uint64
	FrameCount   int
	Duration     time.Duration
	Throughput   string
	Validation   string
}

// Reporter defines the interface for progress reporting.
type Reporter interface {
	StageProgress(update StageProgress)
	FramesStarted(stage string, totalFrames int)
	FrameProgress(completed, totalFrames int)
	FramesComplete()
	Warning(message string)
	Error(message string)
	RunComplete(summary RunSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) StageProgress(StageProgress) {}
func (NullReporter) FramesStarted(string, int)   {}
func (NullReporter) FrameProgress(int, int)      {}
func (NullReporter) FramesComplete()             {}
func (NullReporter) Warning(string)              {}
func (NullReporter) Error(string)                {}
func (NullReporter) RunComplete(RunSummary)      {}
func (NullReporter) Verbose(string)              {}
