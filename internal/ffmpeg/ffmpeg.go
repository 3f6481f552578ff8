package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Executor handles all ffmpeg and ffprobe invocations.
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates an ffmpeg executor, resolving the binaries up front so a
// missing installation fails fast rather than mid-pipeline.
func New(logger zerolog.Logger, ffmpegBin, ffprobeBin string, threads int) (*Executor, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(ffmpegBin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath(ffprobeBin)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     threads,
	}, nil
}

// RunOptions configures a single ffmpeg invocation.
type RunOptions struct {
	Args []string

	// Timeout is the hard wall-clock limit for the invocation. Zero means
	// no limit beyond the caller's context.
	Timeout time.Duration

	// OutputPath, when set, names the file the invocation writes. It is
	// removed if the invocation fails or times out, so a retry never sees
	// a partial artifact.
	OutputPath string

	LogHandler func(line string)
}

// Run executes ffmpeg with the given arguments. On failure or timeout the
// process is killed and any partial output file is removed before returning.
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	baseArgs := []string{"-y", "-hide_banner", "-v", "warning"}
	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", fmt.Sprintf("%d", e.threads))
	}
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	// Keep the last few stderr lines for the error message; ffmpeg puts
	// its diagnostics there.
	var tail []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if opts.LogHandler != nil {
			opts.LogHandler(line)
		}
		tail = append(tail, line)
		if len(tail) > 8 {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		e.removePartialOutput(opts.OutputPath)
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg timed out after %s: %w", opts.Timeout, ctx.Err())
		}
		if ctx.Err() == context.Canceled {
			return ctx.Err()
		}
		if len(tail) > 0 {
			return fmt.Errorf("ffmpeg execution failed: %w: %s", err, strings.Join(tail, "; "))
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// removePartialOutput discards an incomplete output file. Failure to delete
// is logged and never escalated; it must not block the retry path.
func (e *Executor) removePartialOutput(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("failed to remove partial output")
		return
	}
	e.logger.Debug().Str("path", path).Msg("removed partial output")
}
