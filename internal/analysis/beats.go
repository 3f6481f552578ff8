package analysis

import (
	"fmt"
	"math"
)

// Beat tracking: an onset-strength envelope is autocorrelated to find the
// dominant beat period, then the beat grid is laid at that period from the
// phase offset that best lines up with the onsets.

const (
	minTempoBPM = 30.0
	maxTempoBPM = 300.0
)

// TrackBeats estimates tempo (BPM) and a strictly increasing sequence of
// beat timestamps for a mono signal.
func TrackBeats(samples []float64, sampleRate int, cfg FeatureConfig) (float64, []float64, error) {
	if cfg.FrameSize <= 0 || cfg.HopSize <= 0 {
		cfg = DefaultFeatureConfig()
	}
	if len(samples) < cfg.FrameSize*4 {
		return 0, nil, fmt.Errorf("signal too short for beat tracking (%d samples)", len(samples))
	}

	envelope := onsetStrength(samples, cfg.FrameSize, cfg.HopSize)
	if len(envelope) < 8 {
		return 0, nil, fmt.Errorf("onset envelope too short (%d frames)", len(envelope))
	}

	framesPerSecond := float64(sampleRate) / float64(cfg.HopSize)

	// Autocorrelation lag bounds from the valid tempo range.
	minLag := int(framesPerSecond * 60.0 / maxTempoBPM)
	maxLag := int(framesPerSecond * 60.0 / minTempoBPM)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(envelope)/2 {
		maxLag = len(envelope)/2 - 1
	}
	if maxLag <= minLag {
		return 0, nil, fmt.Errorf("signal too short to resolve tempo")
	}

	bestLag := dominantLag(envelope, minLag, maxLag)
	period := float64(bestLag) / framesPerSecond
	tempo := 60.0 / period

	phase := bestPhase(envelope, bestLag)
	firstBeat := float64(phase) / framesPerSecond

	duration := float64(len(samples)) / float64(sampleRate)
	var beats []float64
	for t := firstBeat; t < duration; t += period {
		beats = append(beats, t)
	}
	if len(beats) < 2 {
		return 0, nil, fmt.Errorf("fewer than 2 beats detected")
	}

	return tempo, beats, nil
}

// onsetStrength computes a half-wave rectified first difference of the RMS
// envelope. Rising energy marks onsets.
func onsetStrength(samples []float64, frameSize, hopSize int) []float64 {
	envelope := frameRMS(samples, frameSize, hopSize)
	if len(envelope) < 2 {
		return nil
	}
	strength := make([]float64, len(envelope)-1)
	for i := range strength {
		diff := envelope[i+1] - envelope[i]
		if diff > 0 {
			strength[i] = diff
		}
	}
	return strength
}

// dominantLag finds the autocorrelation peak in [minLag, maxLag].
func dominantLag(envelope []float64, minLag, maxLag int) int {
	bestLag := minLag
	bestScore := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		score := 0.0
		for i := 0; i+lag < len(envelope); i++ {
			score += envelope[i] * envelope[i+lag]
		}
		// Normalize so long lags with fewer terms compete fairly.
		score /= float64(len(envelope) - lag)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	return bestLag
}

// bestPhase finds the grid offset in [0, period) whose comb of onsets
// accumulates the most strength.
func bestPhase(envelope []float64, period int) int {
	bestPhase := 0
	bestScore := math.Inf(-1)
	for phase := 0; phase < period; phase++ {
		score := 0.0
		for i := phase; i < len(envelope); i += period {
			score += envelope[i]
		}
		if score > bestScore {
			bestScore = score
			bestPhase = phase
		}
	}
	return bestPhase
}
