package download

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// FrameExtractor splits a downloaded video into numbered JPEG frames.
type FrameExtractor interface {
	// ExtractFrames writes outDir/0.jpg, outDir/1.jpg, ... for the video at
	// videoPath. outDir exists when it is called.
	ExtractFrames(ctx context.Context, videoPath, outDir string) error
}

// FFmpeg extracts frames by running an ffmpeg binary.
type FFmpeg struct {
	// Binary is the ffmpeg executable, looked up on PATH. Empty means "ffmpeg".
	Binary string
}

func (f FFmpeg) binary() string {
	if f.Binary == "" {
		return "ffmpeg"
	}
	return f.Binary
}

// ExtractFrames runs ffmpeg with frames numbered from 0.
func (f FFmpeg) ExtractFrames(ctx context.Context, videoPath, outDir string) error {
	cmd := exec.CommandContext(ctx, f.binary(),
		"-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-start_number", "0",
		filepath.Join(outDir, "%d.jpg"),
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to extract frames with %s (is ffmpeg installed?): %w: %s",
			f.binary(), err, bytes.TrimSpace(output))
	}
	return nil
}
