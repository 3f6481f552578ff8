// Package montage fills a beat-aligned segment plan with randomly chosen,
// center-cropped source clips and assembles them into the final video.
package montage

import (
	"context"

	"beatcannon/internal/ffmpeg"
)

// Engine is the external media engine contract the pipeline depends on.
// Satisfied by *ffmpeg.Executor; tests substitute fakes to exercise the
// retry and fallback boundaries in isolation.
type Engine interface {
	Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error)
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractClip(ctx context.Context, opts ffmpeg.ExtractOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
	Mux(ctx context.Context, opts ffmpeg.MuxOptions) error
}
