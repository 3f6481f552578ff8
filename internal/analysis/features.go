package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FeatureConfig controls the framing of the energy analysis.
type FeatureConfig struct {
	FrameSize int
	HopSize   int
}

// DefaultFeatureConfig matches the framing the segmentation heuristics were
// tuned against.
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		FrameSize: 2048,
		HopSize:   512,
	}
}

// Features computes the per-frame energy curve of a mono signal: frame-wise
// RMS blended with frame-wise spectral centroid, each min-max normalized to
// [0,1] and averaged. RMS is a loudness proxy, the centroid a brightness
// proxy; together they track perceived musical energy better than either
// alone. Returns the curve and its mean.
func Features(samples []float64, sampleRate int, cfg FeatureConfig) ([]float64, float64) {
	if cfg.FrameSize <= 0 || cfg.HopSize <= 0 {
		cfg = DefaultFeatureConfig()
	}
	if len(samples) < cfg.FrameSize {
		return nil, 0
	}

	rms := frameRMS(samples, cfg.FrameSize, cfg.HopSize)
	centroid := frameCentroid(samples, sampleRate, cfg.FrameSize, cfg.HopSize)

	minMaxNormalize(rms)
	minMaxNormalize(centroid)

	n := len(rms)
	if len(centroid) < n {
		n = len(centroid)
	}
	energy := make([]float64, n)
	for i := range energy {
		energy[i] = (rms[i] + centroid[i]) / 2
	}

	return energy, stat.Mean(energy, nil)
}

// frameRMS computes root-mean-square energy per frame.
func frameRMS(samples []float64, frameSize, hopSize int) []float64 {
	numFrames := (len(samples)-frameSize)/hopSize + 1
	out := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		sumSquares := 0.0
		for j := start; j < start+frameSize; j++ {
			sumSquares += samples[j] * samples[j]
		}
		out[i] = math.Sqrt(sumSquares / float64(frameSize))
	}

	return out
}

// frameCentroid computes the spectral centroid per frame over the same
// framing as frameRMS. Each frame is Hann-windowed before the FFT.
func frameCentroid(samples []float64, sampleRate, frameSize, hopSize int) []float64 {
	numFrames := (len(samples)-frameSize)/hopSize + 1
	out := make([]float64, numFrames)

	window := hannWindow(frameSize)
	frame := make([]float64, frameSize)
	freqBins := frameSize/2 + 1

	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		for j := range frame {
			frame[j] = samples[start+j] * window[j]
		}

		spectrum := fft.FFTReal(frame)

		numerator := 0.0
		denominator := 0.0
		for k := 0; k < freqBins; k++ {
			mag := cmplx.Abs(spectrum[k])
			freq := float64(k) * float64(sampleRate) / float64(frameSize)
			numerator += freq * mag
			denominator += mag
		}

		if denominator > 0 {
			out[i] = numerator / denominator
		}
	}

	return out
}

func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

// minMaxNormalize rescales the curve to [0,1] in place. A constant curve
// maps to all zeros.
func minMaxNormalize(curve []float64) {
	if len(curve) == 0 {
		return
	}
	lo := floats.Min(curve)
	hi := floats.Max(curve)
	span := hi - lo
	if span < 1e-12 {
		for i := range curve {
			curve[i] = 0
		}
		return
	}
	for i := range curve {
		curve[i] = (curve[i] - lo) / span
	}
}
