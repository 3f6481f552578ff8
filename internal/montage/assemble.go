package montage

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"beatcannon/internal/analysis"
	"beatcannon/internal/ffmpeg"
	"beatcannon/pkg/util"
)

// Options configures one assembly run.
type Options struct {
	OutputPath string

	// AudioPath, when set, is muxed over the concatenated video. A mux
	// failure falls back to the video-only artifact instead of failing
	// the run.
	AudioPath string

	// Workers bounds the number of concurrent segment extractions.
	Workers int

	// Seed roots the per-worker random streams; zero picks a time seed.
	Seed int64

	// OnSegment, when set, is called once per segment as it reaches a
	// terminal state, in completion order.
	OnSegment func(ExtractionResult)
}

// Assembler runs extraction across all planned segments, concatenates the
// successful clips in original order, and muxes the soundtrack.
type Assembler struct {
	logger    zerolog.Logger
	engine    Engine
	extractor *Extractor
	workdir   *Workdir
	settings  ffmpeg.EncoderSettings
}

// NewAssembler creates an assembler.
func NewAssembler(logger zerolog.Logger, engine Engine, extractor *Extractor, workdir *Workdir, settings ffmpeg.EncoderSettings) *Assembler {
	return &Assembler{
		logger:    logger.With().Str("component", "assembler").Logger(),
		engine:    engine,
		extractor: extractor,
		workdir:   workdir,
		settings:  settings,
	}
}

// Run produces the final artifact and returns its path. Segments are
// extracted by a bounded worker pool; concatenation is a strict barrier
// that starts only after every segment has reached success or exhaustion,
// and consumes clips in original segment order regardless of completion
// order.
func (a *Assembler) Run(ctx context.Context, plan *analysis.Analysis, opts Options) (string, error) {
	if opts.OutputPath == "" {
		return "", fmt.Errorf("output path is required")
	}

	segments := plan.Segments
	results := a.extractAll(ctx, segments, opts)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var clips []string
	failed := 0
	for _, r := range results {
		if r.Success {
			clips = append(clips, r.ClipPath)
		} else {
			failed++
		}
	}

	if len(clips) == 0 {
		return "", fmt.Errorf("all %d segments failed to extract", len(segments))
	}
	if failed > 0 {
		a.logger.Warn().
			Int("failed", failed).
			Int("planned", len(segments)).
			Msg("some segments failed; final video will be shorter than planned")
	}

	concatOut := a.workdir.File("montage_video.mp4")
	if err := a.engine.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs:   clips,
		Output:   concatOut,
		Settings: a.settings,
	}); err != nil {
		return "", err
	}

	if opts.AudioPath == "" {
		if err := util.MoveFile(concatOut, opts.OutputPath); err != nil {
			return "", fmt.Errorf("failed to move final video: %w", err)
		}
		a.logger.Info().Str("output", opts.OutputPath).Msg("montage complete")
		return opts.OutputPath, nil
	}

	if err := a.muxAudio(ctx, concatOut, opts.AudioPath, opts.OutputPath); err != nil {
		a.logger.Error().Err(err).Msg("audio mux failed; emitting video-only output")
		if err := util.MoveFile(concatOut, opts.OutputPath); err != nil {
			return "", fmt.Errorf("failed to move final video: %w", err)
		}
	}

	a.logger.Info().Str("output", opts.OutputPath).Msg("montage complete")
	return opts.OutputPath, nil
}

// extractAll fans segment jobs out to the worker pool and waits for every
// one to reach a terminal state. Each worker carries its own random stream
// so concurrent picks are uncorrelated, and each attempt writes a uniquely
// named file, so the only shared resource is the directory itself.
func (a *Assembler) extractAll(ctx context.Context, segments []analysis.Segment, opts Options) []ExtractionResult {
	results := make([]ExtractionResult, len(segments))

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(segments) {
		workers = len(segments)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	jobs := make(chan int)
	done := make(chan ExtractionResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(workerID)))
			for i := range jobs {
				res := a.extractor.Extract(ctx, segments[i], i, rng)
				results[i] = res
				done <- res
			}
		}(w)
	}

	go func() {
		defer close(jobs)
		for i := range segments {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	for res := range done {
		if opts.OnSegment != nil {
			opts.OnSegment(res)
		}
	}

	return results
}

func (a *Assembler) muxAudio(ctx context.Context, video, audio, output string) error {
	duration, err := a.engine.ProbeDuration(ctx, audio)
	if err != nil {
		return fmt.Errorf("failed to probe audio track: %w", err)
	}
	a.logger.Info().
		Str("audio", audio).
		Float64("duration", duration).
		Msg("adding audio track")

	return a.engine.Mux(ctx, ffmpeg.MuxOptions{
		Video:    video,
		Audio:    audio,
		Output:   output,
		Settings: a.settings,
	})
}
