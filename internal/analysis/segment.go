package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Segmentation engine: a greedy scan over beat intervals that cuts on energy
// changes and musical phrase lengths, reconstructing the full audio duration.

const (
	minSegmentBeats   = 1
	maxSegmentBeats   = 16
	minRemainderSecs  = 1.0
	durationTolerance = 0.1
)

// SegmentResult carries the emitted segments plus the duration drift, which
// the caller surfaces as a warning when it exceeds the tolerance.
type SegmentResult struct {
	Segments []Segment

	// Drift is the absolute difference between the summed segment duration
	// and the audio duration.
	Drift float64
}

// DriftExceeded reports whether the emitted segments fail to reconstruct the
// audio duration within tolerance.
func (r SegmentResult) DriftExceeded() bool {
	return r.Drift > durationTolerance
}

// BuildSegments converts beat timestamps and a frame-resolution energy curve
// into an ordered, contiguous segment sequence covering the audio duration.
//
// The energy curve is first resampled onto the beat grid, then the absolute
// first difference of that series drives the cut decisions. The primary cut
// threshold and the 4/8-beat soft boundaries both compare against a single
// track-wide mean energy change, not a rolling one; switching that statistic
// changes segmentation output materially.
func BuildSegments(beatTimes, energy []float64, sampleRate, hopSize int, audioDuration float64) SegmentResult {
	if len(beatTimes) < 2 || audioDuration <= 0 {
		return SegmentResult{Drift: audioDuration}
	}

	energyBeats := beatAlignEnergy(beatTimes, energy, sampleRate, hopSize)
	changes := energyChanges(energyBeats)
	meanChange := stat.Mean(changes, nil)

	var segments []Segment
	currentStart := 0
	currentLength := 0
	totalDuration := 0.0

	emit := func(start, end float64, beats, lastIdx int) {
		segments = append(segments, Segment{
			Start:       start,
			End:         end,
			Duration:    end - start,
			Beats:       beats,
			Number:      len(segments) + 1,
			EnergyLevel: meanRange(energyBeats, currentStart, lastIdx+1),
		})
		totalDuration += end - start
	}

	for i := 0; i < len(beatTimes)-1; i++ {
		currentLength++
		nextDuration := beatTimes[i+1] - beatTimes[currentStart]

		// Extending past the audio duration: close with a truncated
		// segment if at least a second remains, otherwise stop.
		if totalDuration+nextDuration > audioDuration {
			remaining := audioDuration - totalDuration
			if remaining >= minRemainderSecs {
				start := beatTimes[currentStart]
				emit(start, start+remaining, currentLength, i)
			}
			currentLength = 0
			break
		}

		cut := (changes[i] > meanChange*1.5 && currentLength >= minSegmentBeats) ||
			currentLength >= maxSegmentBeats ||
			((currentLength == 4 || currentLength == 8) && changes[i] > meanChange)

		if cut {
			emit(beatTimes[currentStart], beatTimes[i+1], currentLength, i)
			currentStart = i + 1
			currentLength = 0
		}
	}

	// The beat grid usually ends short of the audio's end. Flush the open
	// segment out to the full duration so the montage reconstructs the
	// whole track.
	if currentLength > 0 {
		remaining := audioDuration - totalDuration
		if remaining >= minRemainderSecs {
			start := beatTimes[currentStart]
			emit(start, start+remaining, currentLength, len(beatTimes)-2)
		}
	}

	return SegmentResult{
		Segments: segments,
		Drift:    math.Abs(totalDuration - audioDuration),
	}
}

// beatAlignEnergy averages the energy frames falling between consecutive
// beats, yielding one value per beat. The final beat's value covers the
// frames after it.
func beatAlignEnergy(beatTimes, energy []float64, sampleRate, hopSize int) []float64 {
	framesPerSecond := float64(sampleRate) / float64(hopSize)
	out := make([]float64, len(beatTimes))

	for i := range beatTimes {
		startFrame := int(beatTimes[i] * framesPerSecond)
		var endFrame int
		if i < len(beatTimes)-1 {
			endFrame = int(beatTimes[i+1] * framesPerSecond)
		} else {
			endFrame = len(energy)
		}
		out[i] = meanFrames(energy, startFrame, endFrame)
	}

	return out
}

// energyChanges is the absolute first difference of the beat-aligned energy,
// padded by repeating the final value so its length matches the beat count.
func energyChanges(energyBeats []float64) []float64 {
	if len(energyBeats) < 2 {
		return make([]float64, len(energyBeats))
	}
	changes := make([]float64, len(energyBeats))
	for i := 0; i < len(energyBeats)-1; i++ {
		changes[i] = math.Abs(energyBeats[i+1] - energyBeats[i])
	}
	changes[len(changes)-1] = changes[len(changes)-2]
	return changes
}

func meanFrames(energy []float64, start, end int) float64 {
	if start < 0 {
		start = 0
	}
	if end > len(energy) {
		end = len(energy)
	}
	if start >= end {
		return 0
	}
	return stat.Mean(energy[start:end], nil)
}

func meanRange(values []float64, start, end int) float64 {
	if start < 0 {
		start = 0
	}
	if end > len(values) {
		end = len(values)
	}
	if start >= end {
		return 0
	}
	return stat.Mean(values[start:end], nil)
}
