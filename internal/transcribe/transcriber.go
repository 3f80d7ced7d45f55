// Package transcribe runs whisper transcription as the pipeline's
// preprocessing stage and cleans the resulting subtitle file.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/services"
	"github.com/kagelump/vlog/internal/subtitles"
)

// Transcriber produces a cleaned SRT transcript next to each video file.
type Transcriber struct {
	cfg    config.Transcription
	logger *slog.Logger

	commandRunner func(ctx context.Context, name string, args ...string) error
}

// New creates a transcriber from configuration.
func New(cfg config.Transcription, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "transcribe"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcriber) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	t.commandRunner = runner
}

// Preprocess transcribes videoPath and writes a cleaned subtitle file. It
// returns (true, cleanedPath) on success. A disabled transcriber or a failed
// whisper run returns (false, "") without an error so the caller can proceed
// to description without a transcript; only context cancellation is surfaced.
func (t *Transcriber) Preprocess(ctx context.Context, videoPath string) (bool, string) {
	if !t.cfg.Enabled {
		return false, ""
	}

	srtPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".srt"
	if err := t.runWhisper(ctx, videoPath); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			t.logger.Warn("transcription cancelled",
				logging.String(logging.FieldFile, filepath.Base(videoPath)),
				logging.Error(err))
			return false, ""
		}
		t.logger.Error("transcription failed",
			logging.String(logging.FieldFile, filepath.Base(videoPath)),
			logging.Error(services.Wrap(services.ErrTransient, "transcribe", "whisper", "", err)))
		return false, ""
	}

	raw, err := os.ReadFile(srtPath)
	if err != nil {
		t.logger.Warn("transcript not found after whisper run",
			logging.String("srt", srtPath),
			logging.Error(err))
		return false, ""
	}

	cleaned, stats := subtitles.CleanSRT(raw)
	cleanedPath := strings.TrimSuffix(srtPath, ".srt") + "_cleaned.srt"
	if err := os.WriteFile(cleanedPath, cleaned, 0o644); err != nil {
		t.logger.Error("write cleaned transcript",
			logging.String("srt", cleanedPath),
			logging.Error(err))
		return false, ""
	}

	t.logger.Info("transcript ready",
		logging.String(logging.FieldFile, filepath.Base(videoPath)),
		logging.Int("removed_cues", stats.RemovedCues))
	return true, cleanedPath
}

func (t *Transcriber) runWhisper(ctx context.Context, videoPath string) error {
	args := []string{
		"--model", t.cfg.Model,
		"-f", "srt",
		"--task", "transcribe",
		videoPath,
	}
	if t.commandRunner != nil {
		return t.commandRunner(ctx, t.cfg.Binary, args...)
	}

	runCtx := ctx
	if t.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(t.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, t.cfg.Binary, args...) //nolint:gosec
	cmd.Dir = filepath.Dir(videoPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", t.cfg.Binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}
