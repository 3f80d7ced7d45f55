package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/kagelump/vlog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "inbox")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CatalogPath = filepath.Join(base, "data", "catalog.db")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Ingest.SettleDelay = 0
	cfg.Transcription.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBatch overrides batch scheduler sizing on the test config.
func WithBatch(size, timeoutSeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.BatchSize = size
		cfg.Ingest.BatchTimeout = timeoutSeconds
	}
}

// WithExtensions overrides the watcher extension allow-list.
func WithExtensions(exts ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.Extensions = exts
	}
}
