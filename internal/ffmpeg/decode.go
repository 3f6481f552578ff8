package ffmpeg

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// DecodePCM decodes an audio file to mono float64 samples at the given
// sample rate, streaming raw f64le over a pipe so nothing touches disk.
func (e *Executor) DecodePCM(ctx context.Context, path string, sampleRate int) ([]float64, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	args := []string{
		"-v", "error",
		"-i", path,
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	}

	e.logger.Debug().
		Str("path", path).
		Int("sample_rate", sampleRate).
		Msg("decoding audio to PCM")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("audio decode failed for %s: %w: %s", path, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("audio decode failed for %s: %w", path, err)
	}

	if len(output) < 8 {
		return nil, fmt.Errorf("audio decode produced no samples for %s", path)
	}

	samples := make([]float64, len(output)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(output[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	e.logger.Debug().Int("samples", len(samples)).Msg("audio decoded")
	return samples, nil
}
