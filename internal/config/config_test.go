package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kagelump/vlog/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWatch := filepath.Join(tempHome, "vlog", "inbox")
	if cfg.Paths.WatchDir != wantWatch {
		t.Fatalf("unexpected watch dir: got %q want %q", cfg.Paths.WatchDir, wantWatch)
	}
	wantCatalog := filepath.Join(tempHome, ".local", "share", "vlog", "catalog.db")
	if cfg.Paths.CatalogPath != wantCatalog {
		t.Fatalf("unexpected catalog path: %q", cfg.Paths.CatalogPath)
	}
	if cfg.Ingest.BatchSize != 5 {
		t.Fatalf("unexpected batch size: %d", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.BatchTimeout != 60 {
		t.Fatalf("unexpected batch timeout: %d", cfg.Ingest.BatchTimeout)
	}
	if cfg.Ingest.SettleDelay != 2 {
		t.Fatalf("unexpected settle delay: %d", cfg.Ingest.SettleDelay)
	}
	if got := len(cfg.Ingest.Extensions); got != 4 {
		t.Fatalf("expected 4 default extensions, got %d", got)
	}
	if cfg.Describe.BaseURL != "http://127.0.0.1:5555" {
		t.Fatalf("unexpected describe base url: %q", cfg.Describe.BaseURL)
	}
	if !cfg.Transcription.Enabled {
		t.Fatal("expected transcription enabled by default")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadParsesFileAndClampsFloors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
watch_dir = "` + dir + `/inbox"
data_dir = "` + dir + `/data"
log_dir = "` + dir + `/logs"

[ingest]
batch_size = 0
batch_timeout = 0
settle_delay = -5
extensions = [".MP4", "mov", " "]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Ingest.BatchSize != 1 {
		t.Fatalf("expected batch_size clamped to 1, got %d", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.BatchTimeout != 1 {
		t.Fatalf("expected batch_timeout clamped to 1, got %d", cfg.Ingest.BatchTimeout)
	}
	if cfg.Ingest.SettleDelay != 0 {
		t.Fatalf("expected settle_delay clamped to 0, got %d", cfg.Ingest.SettleDelay)
	}
	want := []string{"mp4", "mov"}
	if len(cfg.Ingest.Extensions) != len(want) {
		t.Fatalf("unexpected extensions: %v", cfg.Ingest.Extensions)
	}
	for i, ext := range want {
		if cfg.Ingest.Extensions[i] != ext {
			t.Fatalf("unexpected extensions: %v", cfg.Ingest.Extensions)
		}
	}
}

func TestAllowedExtensionIsCaseInsensitive(t *testing.T) {
	cfg := config.Default()

	cases := []struct {
		path string
		want bool
	}{
		{"/inbox/clip.mp4", true},
		{"/inbox/CLIP.MOV", true},
		{"/inbox/clip.Mkv", true},
		{"/inbox/clip.srt", false},
		{"/inbox/clip", false},
		{"/inbox/.hidden", false},
	}
	for _, tc := range cases {
		if got := cfg.AllowedExtension(tc.path); got != tc.want {
			t.Errorf("AllowedExtension(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CatalogPath = filepath.Join(t.TempDir(), "catalog.db")
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported log format")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample config content")
	}
}
