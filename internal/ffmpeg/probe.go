package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// ErrNoVideoStream is returned by Probe when the file carries no video
// stream. Callers use it to distinguish unusable sources from engine
// failures.
var ErrNoVideoStream = errors.New("no video stream present")

// ProbeResult holds the metadata the pipeline needs from a media file.
type ProbeResult struct {
	Path     string
	Duration float64
	Width    int
	Height   int
}

// probeOutput matches the ffprobe JSON structure.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe returns duration and video dimensions for a media file. It fails
// with ErrNoVideoStream when the file has no video stream.
func (e *Executor) Probe(ctx context.Context, path string) (ProbeResult, error) {
	out, err := e.runProbe(ctx, path)
	if err != nil {
		return ProbeResult{}, err
	}

	result := ProbeResult{Path: path}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		result.Duration = d
	}

	for _, stream := range out.Streams {
		if stream.CodecType == "video" {
			result.Width = stream.Width
			result.Height = stream.Height
			return result, nil
		}
	}

	return ProbeResult{}, fmt.Errorf("%s: %w", path, ErrNoVideoStream)
}

// ProbeDuration returns the container duration in seconds. Works for
// audio-only files.
func (e *Executor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := e.runProbe(ctx, path)
	if err != nil {
		return 0, err
	}

	d, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration for %s: %w", path, err)
	}
	return d, nil
}

func (e *Executor) runProbe(ctx context.Context, path string) (*probeOutput, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	e.logger.Debug().Str("cmd", "ffprobe").Str("path", path).Msg("probing")

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe failed for %s: %w: %s", path, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &out, nil
}
