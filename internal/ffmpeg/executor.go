package ffmpeg

import (
	"context"
	"os/exec"
	"strings"

	"github.com/mkarlsen/qrvid/internal/errors"
)

// binary is the ffmpeg executable resolved from PATH.
const binary = "ffmpeg"

// Available reports whether ffmpeg can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Run executes ffmpeg with the given arguments, capturing stderr for error
// reporting. The command is killed when ctx is cancelled.
func Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelledError()
		}
		return errors.WrapExecError(binary, err, tail(stderr.String(), 2048))
	}
	return nil
}

// tail returns at most n trailing bytes of s; ffmpeg puts the useful
// diagnostics at the end of its stderr.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
