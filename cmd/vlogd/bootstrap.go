package main

import (
	"log/slog"
	"path/filepath"

	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/describe"
	"github.com/kagelump/vlog/internal/pipeline"
	"github.com/kagelump/vlog/internal/transcribe"
)

// buildRunner assembles the per-file processing pipeline. Transcription is
// only wired in when the config enables it.
func buildRunner(cfg *config.Config, store pipeline.Store, describer *describe.Client, logger *slog.Logger) *pipeline.Runner {
	var preprocessor pipeline.Preprocessor
	if cfg.Transcription.Enabled {
		preprocessor = transcribe.New(cfg.Transcription, logger)
	}
	return pipeline.NewRunner(store, describer, preprocessor, logger)
}

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join("", "vlogd.sock")
	}
	return filepath.Join(cfg.Paths.DataDir, "vlogd.sock")
}
