package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Encoder settings for segment clips and concatenation
	Encode EncodeConfig `yaml:"encode"`

	// Extraction settings
	Extract ExtractConfig `yaml:"extract"`

	// Assembly settings
	Assemble AssembleConfig `yaml:"assemble"`

	// Analysis settings
	Analyze AnalyzeConfig `yaml:"analyze"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
}

type EncodeConfig struct {
	VideoCodec     string `yaml:"video_codec"`
	Preset         string `yaml:"preset"`
	CRF            int    `yaml:"crf"`
	PixelFormat    string `yaml:"pixel_format"`
	ColorSpace     string `yaml:"color_space"`
	TrackTimescale int    `yaml:"track_timescale"`
	AudioCodec     string `yaml:"audio_codec"`
	AudioBitrate   string `yaml:"audio_bitrate"`
}

type ExtractConfig struct {
	MaxRetries     int `yaml:"max_retries"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type AssembleConfig struct {
	Workers    int      `yaml:"workers"`
	Width      int      `yaml:"width"`
	Height     int      `yaml:"height"`
	Extensions []string `yaml:"extensions"`
}

type AnalyzeConfig struct {
	SampleRate int `yaml:"sample_rate"`
	HopSize    int `yaml:"hop_size"`
	FrameSize  int `yaml:"frame_size"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
		Encode: EncodeConfig{
			VideoCodec:     "libx264",
			Preset:         "medium",
			CRF:            23,
			PixelFormat:    "yuv420p",
			ColorSpace:     "bt709",
			TrackTimescale: 30000,
			AudioCodec:     "aac",
			AudioBitrate:   "192k",
		},
		Extract: ExtractConfig{
			MaxRetries:     3,
			TimeoutSeconds: 100,
		},
		Assemble: AssembleConfig{
			Workers:    4,
			Width:      1920,
			Height:     1080,
			Extensions: []string{"mp4", "mov", "mkv", "avi"},
		},
		Analyze: AnalyzeConfig{
			SampleRate: 22050,
			HopSize:    512,
			FrameSize:  2048,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./beatcannon.yaml",
		"./beatcannon.yml",
		filepath.Join(os.Getenv("HOME"), ".beatcannon", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
