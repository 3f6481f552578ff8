package montage

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"beatcannon/internal/analysis"
	"beatcannon/internal/catalog"
	"beatcannon/internal/ffmpeg"
)

// ExtractionResult is the terminal outcome of one segment's extraction.
type ExtractionResult struct {
	SegmentIndex int
	Success      bool
	ClipPath     string
}

// ExtractorConfig holds the per-segment extraction parameters.
type ExtractorConfig struct {
	Width      int
	Height     int
	MaxRetries int
	Timeout    time.Duration
	Settings   ffmpeg.EncoderSettings
}

// Extractor cuts one transformed clip per planned segment, retrying with a
// freshly chosen random source on every failure.
type Extractor struct {
	logger  zerolog.Logger
	engine  Engine
	sources *catalog.Catalog
	workdir *Workdir
	cfg     ExtractorConfig
}

// NewExtractor creates a segment extractor.
func NewExtractor(logger zerolog.Logger, engine Engine, sources *catalog.Catalog, workdir *Workdir, cfg ExtractorConfig) *Extractor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Extractor{
		logger:  logger.With().Str("component", "extractor").Logger(),
		engine:  engine,
		sources: sources,
		workdir: workdir,
		cfg:     cfg,
	}
}

// Extract resolves one segment to success or exhaustion. Each attempt picks
// a source and an in-clip offset independently at random, so a corrupt
// source does not poison the retries. The rng is caller-supplied so tests
// can make the choices deterministic.
func (x *Extractor) Extract(ctx context.Context, seg analysis.Segment, index int, rng *rand.Rand) ExtractionResult {
	for attempt := 1; attempt <= x.cfg.MaxRetries; attempt++ {
		clipPath, err := x.attempt(ctx, seg, index, rng)
		if err == nil {
			return ExtractionResult{SegmentIndex: index, Success: true, ClipPath: clipPath}
		}
		if ctx.Err() != nil {
			break
		}
		x.logger.Warn().
			Err(err).
			Int("segment", index+1).
			Int("attempt", attempt).
			Int("max_retries", x.cfg.MaxRetries).
			Msg("segment extraction attempt failed")
	}

	x.logger.Error().
		Int("segment", index+1).
		Msg("segment failed after all retries")
	return ExtractionResult{SegmentIndex: index}
}

func (x *Extractor) attempt(ctx context.Context, seg analysis.Segment, index int, rng *rand.Rand) (string, error) {
	source := x.sources.Pick(rng)

	meta, err := x.engine.Probe(ctx, source)
	if err != nil {
		return "", err
	}

	// Uniform random start; clips shorter than the segment start at zero
	// and the engine pads nothing, the cut is simply the whole clip.
	maxStart := meta.Duration - seg.Duration
	start := 0.0
	if maxStart > 0 {
		start = rng.Float64() * maxStart
	}

	filters := PlanGeometry(meta.Width, meta.Height, x.cfg.Width, x.cfg.Height, x.cfg.Settings.PixelFormat).
		ResetPTS()

	clipPath := x.workdir.File(fmt.Sprintf("segment_%03d_%s.mp4", index+1, uuid.NewString()[:8]))

	x.logger.Debug().
		Int("segment", index+1).
		Str("source", source).
		Float64("start", start).
		Float64("duration", seg.Duration).
		Msg("extracting segment clip")

	err = x.engine.ExtractClip(ctx, ffmpeg.ExtractOptions{
		Input:    source,
		Output:   clipPath,
		Start:    start,
		Duration: seg.Duration,
		Filters:  filters,
		Settings: x.cfg.Settings,
		Timeout:  x.cfg.Timeout,
	})
	if err != nil {
		return "", err
	}

	return clipPath, nil
}
