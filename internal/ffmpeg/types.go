package ffmpeg

import "strconv"

// EncoderSettings is the fixed encoder configuration every segment clip and
// the concatenated stream are produced with. Consistent timestamps, frame
// pacing, and color metadata across clips are what make the concat step
// seamless.
type EncoderSettings struct {
	VideoCodec     string
	Preset         string
	CRF            int
	PixelFormat    string
	ColorSpace     string
	TrackTimescale int
	AudioCodec     string
	AudioBitrate   string
}

// DefaultEncoderSettings mirrors the defaults in the config package.
func DefaultEncoderSettings() EncoderSettings {
	return EncoderSettings{
		VideoCodec:     "libx264",
		Preset:         "medium",
		CRF:            23,
		PixelFormat:    "yuv420p",
		ColorSpace:     "bt709",
		TrackTimescale: 30000,
		AudioCodec:     "aac",
		AudioBitrate:   "192k",
	}
}

// videoArgs returns the encoder arguments shared by clip extraction and
// concatenation.
func (s EncoderSettings) videoArgs() []string {
	return []string{
		"-c:v", s.VideoCodec,
		"-preset", s.Preset,
		"-crf", strconv.Itoa(s.CRF),
		"-video_track_timescale", strconv.Itoa(s.TrackTimescale),
		"-pix_fmt", s.PixelFormat,
		"-color_range", "1",
		"-colorspace", s.ColorSpace,
		"-color_primaries", s.ColorSpace,
		"-color_trc", s.ColorSpace,
	}
}
