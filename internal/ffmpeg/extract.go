package ffmpeg

import (
	"context"
	"fmt"
	"time"
)

// ExtractOptions defines a single clip extraction.
type ExtractOptions struct {
	Input    string
	Output   string
	Start    float64 // seconds into the source
	Duration float64 // seconds to cut
	Filters  *FilterBuilder
	Settings EncoderSettings
	Timeout  time.Duration
}

// ExtractClip cuts exactly Duration seconds from the source starting at
// Start, applies the filter chain, and re-encodes with the fixed encoder
// configuration: constant frame rate, forced keyframe at the clip start,
// no audio track.
func (e *Executor) ExtractClip(ctx context.Context, opts ExtractOptions) error {
	if opts.Input == "" || opts.Output == "" {
		return fmt.Errorf("input and output paths are required")
	}
	if opts.Duration <= 0 {
		return fmt.Errorf("invalid clip duration %.3f", opts.Duration)
	}

	e.logger.Debug().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Float64("start", opts.Start).
		Float64("duration", opts.Duration).
		Msg("extracting clip")

	args := []string{
		"-ss", fmt.Sprintf("%.6f", opts.Start),
		"-i", opts.Input,
		"-t", fmt.Sprintf("%.6f", opts.Duration),
	}

	if opts.Filters != nil {
		if chain := opts.Filters.Build(); chain != "" {
			args = append(args, "-vf", chain)
		}
	}

	args = append(args, opts.Settings.videoArgs()...)
	args = append(args,
		"-force_key_frames", fmt.Sprintf("expr:gte(t,0+n_forced*%.6f)", opts.Duration),
		"-fps_mode", "cfr",
		"-movflags", "+faststart+empty_moov",
		"-an",
		opts.Output,
	)

	runOpts := RunOptions{
		Args:       args,
		Timeout:    opts.Timeout,
		OutputPath: opts.Output,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}
	return nil
}
