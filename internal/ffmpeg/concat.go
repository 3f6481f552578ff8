package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ConcatOptions defines the concatenation of extracted segment clips into
// one continuous stream.
type ConcatOptions struct {
	Inputs   []string
	Output   string
	Settings EncoderSettings
}

// Concat merges the input clips in order. The clips are re-encoded rather
// than stream-copied so timestamps stay monotonic across cut boundaries.
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Msg("concatenating clips")

	concatFile, err := e.createConcatFile(opts.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(concatFile)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", concatFile,
	}
	args = append(args, opts.Settings.videoArgs()...)
	args = append(args, "-movflags", "+faststart", opts.Output)

	runOpts := RunOptions{
		Args:       args,
		OutputPath: opts.Output,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concatenating")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("concatenation failed: %w", err)
	}
	return nil
}

// createConcatFile generates a temporary file list for the concat demuxer.
func (e *Executor) createConcatFile(inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "beatcannon-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", absPath); err != nil {
			return "", err
		}
	}

	return tmpFile.Name(), nil
}

// MuxOptions defines muxing an audio track over a video-only stream.
type MuxOptions struct {
	Video    string
	Audio    string
	Output   string
	Settings EncoderSettings
}

// Mux combines the concatenated video with the original audio track. The
// video stream is copied without re-encode; the audio is encoded at a fixed
// bitrate; the result is truncated to the shorter of the two streams.
func (e *Executor) Mux(ctx context.Context, opts MuxOptions) error {
	if opts.Video == "" || opts.Audio == "" || opts.Output == "" {
		return fmt.Errorf("video, audio and output paths are required")
	}

	e.logger.Info().
		Str("video", opts.Video).
		Str("audio", opts.Audio).
		Str("output", opts.Output).
		Msg("muxing audio track")

	args := []string{
		"-i", opts.Video,
		"-i", opts.Audio,
		"-c:v", "copy",
		"-c:a", opts.Settings.AudioCodec,
		"-b:a", opts.Settings.AudioBitrate,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		opts.Output,
	}

	runOpts := RunOptions{
		Args:       args,
		OutputPath: opts.Output,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("muxing")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("mux failed: %w", err)
	}
	return nil
}
