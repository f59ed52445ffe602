// Package ffprobe inspects written containers for post-encode verification.
package ffprobe

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mkarlsen/qrvid/internal/errors"
)

// binary is the ffprobe executable resolved from PATH.
const binary = "ffprobe"

// Available reports whether ffprobe can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// PacketCount returns the number of video packets in the container at path.
// With one packet per frame, this is the container's frame count.
func PacketCount(ctx context.Context, path string) (int, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		path,
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		return 0, errors.WrapExecError(binary, err, stderr)
	}

	return parsePacketCount(string(out))
}

func parsePacketCount(out string) (int, error) {
	s := strings.TrimSpace(out)
	if s == "" {
		return 0, errors.NewIOError("ffprobe reported no video stream", nil)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewIOError("unexpected ffprobe output: "+s, err)
	}
	return n, nil
}

// VerifyFrameCount checks that the container at path holds exactly want
// frames. A missing ffprobe binary skips the check.
func VerifyFrameCount(ctx context.Context, path string, want int) error {
	if !Available() {
		return nil
	}

	got, err := PacketCount(ctx, path)
	if err != nil {
		return err
	}
	if got != want {
		return errors.NewInvariantViolationError(
			"container holds " + strconv.Itoa(got) + " frames, expected " + strconv.Itoa(want))
	}
	return nil
}
