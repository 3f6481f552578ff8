package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Encode.VideoCodec != "libx264" || cfg.Encode.CRF != 23 {
		t.Errorf("encoder defaults wrong: %+v", cfg.Encode)
	}
	if cfg.Extract.MaxRetries != 3 || cfg.Extract.TimeoutSeconds != 100 {
		t.Errorf("extract defaults wrong: %+v", cfg.Extract)
	}
	if cfg.Assemble.Width != 1920 || cfg.Assemble.Height != 1080 {
		t.Errorf("assemble defaults wrong: %+v", cfg.Assemble)
	}
	if cfg.Analyze.SampleRate != 22050 || cfg.Analyze.HopSize != 512 || cfg.Analyze.FrameSize != 2048 {
		t.Errorf("analyze defaults wrong: %+v", cfg.Analyze)
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beatcannon.yaml")
	body := `
encode:
  crf: 18
  preset: slow
assemble:
  width: 1080
  height: 1920
  workers: 8
extract:
  max_retries: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Encode.CRF != 18 || cfg.Encode.Preset != "slow" {
		t.Errorf("encode overrides not applied: %+v", cfg.Encode)
	}
	if cfg.Assemble.Width != 1080 || cfg.Assemble.Height != 1920 || cfg.Assemble.Workers != 8 {
		t.Errorf("assemble overrides not applied: %+v", cfg.Assemble)
	}
	if cfg.Extract.MaxRetries != 5 {
		t.Errorf("extract override not applied: %+v", cfg.Extract)
	}
	// Untouched keys keep their defaults.
	if cfg.Encode.VideoCodec != "libx264" {
		t.Errorf("unset key lost its default: %q", cfg.Encode.VideoCodec)
	}
	if cfg.Extract.TimeoutSeconds != 100 {
		t.Errorf("unset key lost its default: %d", cfg.Extract.TimeoutSeconds)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("encode: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML must be an error")
	}
}

func TestConfigContextRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Assemble.Workers = 99

	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got.Assemble.Workers != 99 {
		t.Errorf("context round trip lost the config: %+v", got.Assemble)
	}

	// A bare context yields usable defaults rather than nil.
	if got := FromContext(context.Background()); got == nil || got.Encode.VideoCodec == "" {
		t.Error("FromContext on a bare context must return defaults")
	}
}
