// Package acquire collects a track's audio from outside the
// fingerprinting core: a local file needs downmixing to the canonical
// container the PCM Loader expects, and a YouTube URL needs
// downloading first. Both live here so cmd/server and cmd/cli can
// share them.
package acquire

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ConvertToWAV shells out to ffmpeg to downmix inputPath to mono,
// 44100 Hz, 16-bit PCM WAV, the format internal/pcmio expects, under
// outputDir. The output name is UUID-prefixed so concurrent requests
// never collide on the same temp file.
func ConvertToWAV(ctx context.Context, inputPath, outputDir string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	outputPath := filepath.Join(outputDir, uuid.NewString()+".wav")

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "44100",
		"-c:a", "pcm_s16le",
		outputPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %w (%s)", err, out)
	}

	return outputPath, nil
}
