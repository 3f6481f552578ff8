package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"beatcannon/pkg/util"
)

// AudioDecoder decodes an audio file to mono PCM samples. Implemented by
// the ffmpeg executor.
type AudioDecoder interface {
	DecodePCM(ctx context.Context, path string, sampleRate int) ([]float64, error)
}

// Analyzer turns an audio file into a segment plan.
type Analyzer struct {
	logger     zerolog.Logger
	decoder    AudioDecoder
	sampleRate int
	features   FeatureConfig
}

// NewAnalyzer creates an analyzer using the given decoder.
func NewAnalyzer(logger zerolog.Logger, decoder AudioDecoder, sampleRate int, features FeatureConfig) *Analyzer {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	return &Analyzer{
		logger:     logger.With().Str("component", "analyzer").Logger(),
		decoder:    decoder,
		sampleRate: sampleRate,
		features:   features,
	}
}

// Analyze decodes the track, tracks beats, extracts the energy curve, and
// runs the segmentation engine.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Analysis, error) {
	samples, err := a.decoder.DecodePCM(ctx, path, a.sampleRate)
	if err != nil {
		return nil, err
	}

	duration := float64(len(samples)) / float64(a.sampleRate)
	a.logger.Info().
		Str("file", filepath.Base(path)).
		Float64("duration", duration).
		Msg("audio decoded")

	tempo, beatTimes, err := TrackBeats(samples, a.sampleRate, a.features)
	if err != nil {
		return nil, fmt.Errorf("beat tracking failed: %w", err)
	}

	a.logger.Info().
		Float64("tempo", tempo).
		Int("beats", len(beatTimes)).
		Msg("beats tracked")

	energy, averageEnergy := Features(samples, a.sampleRate, a.features)
	if len(energy) == 0 {
		return nil, fmt.Errorf("energy analysis produced no frames")
	}

	result := BuildSegments(beatTimes, energy, a.sampleRate, a.features.HopSize, duration)
	if result.DriftExceeded() {
		a.logger.Warn().
			Float64("drift", result.Drift).
			Float64("audio_duration", duration).
			Msg("total segment duration differs from audio duration")
	}

	a.logger.Info().
		Int("segments", len(result.Segments)).
		Float64("average_energy", averageEnergy).
		Msg("segmentation complete")

	return &Analysis{
		FileName:      filepath.Base(path),
		Tempo:         tempo,
		Duration:      duration,
		TotalBeats:    len(beatTimes),
		AverageEnergy: averageEnergy,
		Segments:      result.Segments,
	}, nil
}

// Save writes the analysis next to the audio file with the extension
// replaced by .json, pretty-printed. Returns the written path.
func Save(a *Analysis, audioPath string) (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", err
	}

	jsonPath := util.ReplaceExt(audioPath, ".json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write analysis: %w", err)
	}
	return jsonPath, nil
}

// Load reads and validates a segment plan document.
func Load(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment plan: %w", err)
	}

	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid segment plan %s: %w", path, err)
	}

	if len(a.Segments) == 0 {
		return nil, fmt.Errorf("segment plan %s has no segments", path)
	}
	for i, seg := range a.Segments {
		if seg.Duration <= 0 {
			return nil, fmt.Errorf("segment plan %s: segment %d has non-positive duration", path, i+1)
		}
	}

	return &a, nil
}
