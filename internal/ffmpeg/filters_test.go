package ffmpeg

import (
	"strings"
	"testing"
)

func TestFilterBuilderJoinsWithCommas(t *testing.T) {
	chain := NewFilterBuilder().
		Scale(1920, 1080).
		Crop(1080, 1080, 420, 0).
		Format("yuv420p").
		ResetPTS().
		Build()

	want := "scale=1920:1080,crop=1080:1080:420:0,format=yuv420p,setpts=PTS-STARTPTS"
	if chain != want {
		t.Errorf("chain = %q, want %q", chain, want)
	}
}

func TestFilterBuilderSkipsInvalidSteps(t *testing.T) {
	chain := NewFilterBuilder().
		Scale(0, 1080).
		Crop(-1, 100, 0, 0).
		Format("").
		Build()

	if chain != "" {
		t.Errorf("invalid steps should be dropped, got %q", chain)
	}
}

func TestFilterBuilderCustom(t *testing.T) {
	chain := NewFilterBuilder().Custom("hue=s=0").Scale(640, 480).Build()
	if chain != "hue=s=0,scale=640:480" {
		t.Errorf("chain = %q", chain)
	}
}

func TestVideoArgsCarryColorTriple(t *testing.T) {
	args := DefaultEncoderSettings().videoArgs()
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-c:v libx264",
		"-preset medium",
		"-crf 23",
		"-video_track_timescale 30000",
		"-pix_fmt yuv420p",
		"-color_range 1",
		"-colorspace bt709",
		"-color_primaries bt709",
		"-color_trc bt709",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("videoArgs missing %q in %q", want, joined)
		}
	}
}
