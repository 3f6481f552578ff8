package montage

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"beatcannon/internal/analysis"
	"beatcannon/internal/catalog"
	"beatcannon/internal/ffmpeg"
)

// fakeEngine scripts the media engine so retry, ordering, and fallback
// behavior can be exercised without ffmpeg on the machine. Extraction
// failures are consumed from failBeforeSuccess; Concat and Mux create their
// output files so the post-processing file moves behave as they would with
// real encoder output.
type fakeEngine struct {
	mu sync.Mutex

	probe     ffmpeg.ProbeResult
	probeErr  error
	audioDur  float64
	muxErr    error
	concatErr error

	failBeforeSuccess int

	extracts []ffmpeg.ExtractOptions
	concats  []ffmpeg.ConcatOptions
	muxes    []ffmpeg.MuxOptions
}

func (f *fakeEngine) Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	if f.probeErr != nil {
		return ffmpeg.ProbeResult{}, f.probeErr
	}
	res := f.probe
	res.Path = path
	return res, nil
}

func (f *fakeEngine) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return f.audioDur, nil
}

func (f *fakeEngine) ExtractClip(ctx context.Context, opts ffmpeg.ExtractOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracts = append(f.extracts, opts)
	if f.failBeforeSuccess > 0 {
		f.failBeforeSuccess--
		return errors.New("encoder exploded")
	}
	return os.WriteFile(opts.Output, []byte("clip"), 0o644)
}

func (f *fakeEngine) Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.concats = append(f.concats, opts)
	if f.concatErr != nil {
		return f.concatErr
	}
	return os.WriteFile(opts.Output, []byte("video"), 0o644)
}

func (f *fakeEngine) Mux(ctx context.Context, opts ffmpeg.MuxOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muxes = append(f.muxes, opts)
	if f.muxErr != nil {
		return f.muxErr
	}
	return os.WriteFile(opts.Output, []byte("video+audio"), 0o644)
}

func testWorkdir(t *testing.T) *Workdir {
	t.Helper()
	wd, err := NewWorkdir(zerolog.Nop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkdir: %v", err)
	}
	return wd
}

func testExtractor(t *testing.T, engine Engine, maxRetries int) *Extractor {
	t.Helper()
	sources := catalog.FromPaths([]string{"a.mp4", "b.mp4", "c.mp4"})
	return NewExtractor(zerolog.Nop(), engine, sources, testWorkdir(t), ExtractorConfig{
		Width:      1920,
		Height:     1080,
		MaxRetries: maxRetries,
		Timeout:    time.Second,
		Settings:   ffmpeg.DefaultEncoderSettings(),
	})
}

func TestExtractShortSourceStartsAtZero(t *testing.T) {
	engine := &fakeEngine{probe: ffmpeg.ProbeResult{Duration: 2.0, Width: 1920, Height: 1080}}
	x := testExtractor(t, engine, 3)

	seg := analysis.Segment{Start: 0, End: 8, Duration: 8.0, Number: 1}
	res := x.Extract(context.Background(), seg, 0, rand.New(rand.NewSource(1)))

	if !res.Success {
		t.Fatal("extraction should succeed")
	}
	if len(engine.extracts) != 1 {
		t.Fatalf("got %d extract calls, want 1", len(engine.extracts))
	}
	got := engine.extracts[0]
	if got.Start != 0 {
		t.Errorf("start offset = %v, want 0 for a source shorter than the segment", got.Start)
	}
	if got.Duration != 8.0 {
		t.Errorf("duration = %v, want the full segment duration", got.Duration)
	}
}

func TestExtractOffsetStaysInBounds(t *testing.T) {
	engine := &fakeEngine{probe: ffmpeg.ProbeResult{Duration: 60.0, Width: 1920, Height: 1080}}
	x := testExtractor(t, engine, 1)
	rng := rand.New(rand.NewSource(42))

	seg := analysis.Segment{Duration: 4.5}
	for i := 0; i < 50; i++ {
		res := x.Extract(context.Background(), seg, i, rng)
		if !res.Success {
			t.Fatalf("extraction %d failed", i)
		}
	}

	for i, call := range engine.extracts {
		if call.Start < 0 || call.Start > 60.0-4.5 {
			t.Errorf("call %d: start %v outside [0, %v]", i, call.Start, 60.0-4.5)
		}
	}
}

func TestExtractRetriesUntilSuccess(t *testing.T) {
	engine := &fakeEngine{
		probe:             ffmpeg.ProbeResult{Duration: 30.0, Width: 1280, Height: 720},
		failBeforeSuccess: 2,
	}
	x := testExtractor(t, engine, 3)

	seg := analysis.Segment{Duration: 3.0, Number: 5}
	res := x.Extract(context.Background(), seg, 4, rand.New(rand.NewSource(7)))

	if !res.Success {
		t.Fatal("third attempt should have succeeded")
	}
	if len(engine.extracts) != 3 {
		t.Fatalf("got %d attempts, want 3", len(engine.extracts))
	}
	if res.ClipPath != engine.extracts[2].Output {
		t.Errorf("result clip %q is not the final attempt's output %q", res.ClipPath, engine.extracts[2].Output)
	}
	if _, err := os.Stat(res.ClipPath); err != nil {
		t.Errorf("clip file missing: %v", err)
	}
	if !strings.Contains(res.ClipPath, "segment_005_") {
		t.Errorf("clip path %q should carry the 1-based segment number", res.ClipPath)
	}
}

func TestExtractExhaustsRetries(t *testing.T) {
	engine := &fakeEngine{
		probe:             ffmpeg.ProbeResult{Duration: 30.0, Width: 1280, Height: 720},
		failBeforeSuccess: 100,
	}
	x := testExtractor(t, engine, 3)

	res := x.Extract(context.Background(), analysis.Segment{Duration: 2.0}, 0, rand.New(rand.NewSource(1)))

	if res.Success {
		t.Fatal("every attempt failed; result must not report success")
	}
	if res.ClipPath != "" {
		t.Errorf("failed result carries clip path %q", res.ClipPath)
	}
	if len(engine.extracts) != 3 {
		t.Errorf("got %d attempts, want exactly MaxRetries", len(engine.extracts))
	}
}

func TestExtractProbeFailureRetriesWithNewSource(t *testing.T) {
	engine := &fakeEngine{probeErr: errors.New("moov atom not found")}
	x := testExtractor(t, engine, 3)

	res := x.Extract(context.Background(), analysis.Segment{Duration: 2.0}, 0, rand.New(rand.NewSource(1)))

	if res.Success {
		t.Fatal("probe never succeeds; result must report failure")
	}
	if len(engine.extracts) != 0 {
		t.Errorf("extract should never run when probing fails, got %d calls", len(engine.extracts))
	}
}

func TestExtractStopsOnCancelledContext(t *testing.T) {
	engine := &fakeEngine{
		probe:             ffmpeg.ProbeResult{Duration: 30.0, Width: 1280, Height: 720},
		failBeforeSuccess: 100,
	}
	x := testExtractor(t, engine, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := x.Extract(ctx, analysis.Segment{Duration: 2.0}, 0, rand.New(rand.NewSource(1)))
	if res.Success {
		t.Fatal("cancelled extraction must not report success")
	}
	if len(engine.extracts) > 1 {
		t.Errorf("got %d attempts after cancellation, want at most 1", len(engine.extracts))
	}
}
