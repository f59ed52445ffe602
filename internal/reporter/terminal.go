package reporter

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/mkarlsen/qrvid/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu       sync.Mutex
	progress *progressbar.ProgressBar
	verbose  bool
	cyan     *color.Color
	green    *color.Color
	yellow   *color.Color
	red      *color.Color
	bold     *color.Color
}

// NewTerminalReporter creates a new terminal reporter.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		bold:    color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		fmt.Println()
		r.progress = nil
	}
}

func (r *TerminalReporter) StageProgress(update StageProgress) {
	r.finishProgress()
	_, _ = r.cyan.Printf("%s\n", update.Stage)
	if update.Message != "" {
		fmt.Printf("  %s\n", update.Message)
	}
}

func (r *TerminalReporter) FramesStarted(stage string, totalFrames int) {
	r.finishProgress()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = progressbar.NewOptions(totalFrames,
		progressbar.OptionSetDescription(stage),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) FrameProgress(completed, totalFrames int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Set(completed)
	}
}

func (r *TerminalReporter) FramesComplete() {
	r.finishProgress()
}

func (r *TerminalReporter) Warning(message string) {
	r.finishProgress()
	_, _ = r.yellow.Printf("Warning: %s\n", message)
}

func (r *TerminalReporter) Error(message string) {
	r.finishProgress()
	_, _ = r.red.Fprintf(os.Stderr, "Error: %s\n", message)
}

func (r *TerminalReporter) RunComplete(summary RunSummary) {
	r.finishProgress()
	_, _ = r.green.Printf("%s complete\n", summary.Operation)
	r.printLabel("Payload:", util.FormatBytes(summary.PayloadBytes))
	r.printLabel("Frames:", fmt.Sprintf("%d", summary.FrameCount))
	r.printLabel("Duration:", util.FormatDuration(summary.Duration.Seconds()))
	if summary.Throughput != "" {
		r.printLabel("Rate:", summary.Throughput)
	}
	if summary.Validation != "" {
		r.printLabel("Validation:", summary.Validation)
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	r.finishProgress()
	fmt.Printf("  %s\n", message)
}

// printLabel prints a bold label with fixed width padding followed by a value.
func (r *TerminalReporter) printLabel(label, value string) {
	paddedLabel := fmt.Sprintf("%-12s", label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}
