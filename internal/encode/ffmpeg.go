package encode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// FFmpeg assembles a directory of sequentially numbered PNG frames into a
// video file with a single ffmpeg invocation, the same contract the
// original converter had: ordered frame_%d.png inputs, one call per run.
type FFmpeg struct {
	// Binary overrides the ffmpeg executable name. Empty means "ffmpeg"
	// resolved from PATH.
	Binary string
}

func (f FFmpeg) Encode(ctx context.Context, pattern string, fps int, outPath string) error {
	bin := f.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", bin, err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-i", pattern,
		"-r", strconv.Itoa(fps),
		outPath,
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}
