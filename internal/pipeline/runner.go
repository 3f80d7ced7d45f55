package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kagelump/vlog/internal/catalog"
	"github.com/kagelump/vlog/internal/describe"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/media"
	"github.com/kagelump/vlog/internal/metrics"
	"github.com/kagelump/vlog/internal/services"
)

// Describer generates an ML description for a clip of known length.
type Describer interface {
	DescribeFile(ctx context.Context, path string, lengthSeconds float64) (describe.Response, error)
}

// Preprocessor produces a cleaned transcript before description. A false
// return means no transcript is available; the pipeline continues without one.
type Preprocessor interface {
	Preprocess(ctx context.Context, videoPath string) (ok bool, cleanedPath string)
}

// Store is the catalog surface the pipeline writes to.
type Store interface {
	Has(ctx context.Context, filename string) (bool, error)
	Upsert(ctx context.Context, rec *catalog.Record) error
}

// Runner walks a batch of video files through transcription, description,
// and catalog persistence. Failures are isolated per file so one bad clip
// never sinks the rest of its batch.
type Runner struct {
	store        Store
	describer    Describer
	preprocessor Preprocessor
	probe        func(ctx context.Context, path string) media.ClipInfo
	logger       *slog.Logger
}

// NewRunner builds a pipeline runner. The preprocessor may be nil when
// transcription is disabled.
func NewRunner(store Store, describer Describer, preprocessor Preprocessor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		store:        store,
		describer:    describer,
		preprocessor: preprocessor,
		logger:       logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
	r.probe = r.defaultProbe
	return r
}

// WithProbe overrides how clip metadata is gathered (for testing).
func (r *Runner) WithProbe(probe func(ctx context.Context, path string) media.ClipInfo) {
	if probe != nil {
		r.probe = probe
	}
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	Processed int
	Skipped   int
	Failed    int
}

// ProcessBatch runs the pipeline over each path in order. It returns early
// only when ctx is cancelled; per-file errors are logged and counted.
func (r *Runner) ProcessBatch(ctx context.Context, batchID string, paths []string) BatchResult {
	var result BatchResult
	ctx = services.WithBatchID(ctx, batchID)
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()
	logger.Info("batch started", logging.Int(logging.FieldBatchSize, len(paths)))

	for _, path := range paths {
		if ctx.Err() != nil {
			logger.Warn("batch interrupted",
				logging.Int("remaining", len(paths)-result.Processed-result.Skipped-result.Failed))
			break
		}
		switch err := r.processFile(ctx, path); {
		case err == nil:
			result.Processed++
		case errors.Is(err, errAlreadyCataloged):
			result.Skipped++
		default:
			result.Failed++
			logging.WithContext(ctx, r.logger).Error("file failed",
				logging.String(logging.FieldFile, filepath.Base(path)),
				logging.Error(err))
		}
	}

	metrics.BatchDuration.Observe(time.Since(started).Seconds())
	logger.Info("batch finished",
		logging.Int("processed", result.Processed),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Duration("elapsed", time.Since(started)))
	return result
}

// errAlreadyCataloged distinguishes the idempotent skip from a real failure.
var errAlreadyCataloged = errors.New("already cataloged")

func (r *Runner) processFile(ctx context.Context, path string) error {
	filename := filepath.Base(path)
	ctx = services.WithFile(ctx, filename)
	logger := logging.WithContext(ctx, r.logger)

	// Files can land in the catalog between enqueue and batch start, so the
	// idempotency check runs again here.
	exists, err := r.store.Has(ctx, filename)
	if err != nil {
		metrics.FilesProcessedTotal.WithLabelValues("catalog_failed").Inc()
		return services.Wrap(services.ErrTransient, "pipeline", "precheck", "catalog lookup", err)
	}
	if exists {
		logger.Info("file already cataloged, skipping")
		metrics.FilesProcessedTotal.WithLabelValues("skipped").Inc()
		return errAlreadyCataloged
	}

	subtitlePath := ""
	if r.preprocessor != nil {
		ok, cleaned := r.preprocessor.Preprocess(ctx, path)
		if ok {
			subtitlePath = cleaned
		} else {
			// Description still works without a transcript.
			metrics.FilesProcessedTotal.WithLabelValues("preprocess_failed").Inc()
			logger.Warn("transcript preprocessing failed, describing without subtitles")
		}
	}

	info := r.probe(ctx, path)
	resp, err := r.describer.DescribeFile(ctx, path, info.LengthSeconds)
	if err != nil {
		metrics.FilesProcessedTotal.WithLabelValues("describe_failed").Inc()
		return services.Wrap(services.ErrTransient, "pipeline", "describe", filename, err)
	}

	rec := recordFromResponse(filename, subtitlePath, info, resp)
	if err := r.store.Upsert(ctx, rec); err != nil {
		metrics.FilesProcessedTotal.WithLabelValues("catalog_failed").Inc()
		return services.Wrap(services.ErrTransient, "pipeline", "persist", filename, err)
	}

	metrics.FilesProcessedTotal.WithLabelValues("ok").Inc()
	logger.Info("file cataloged",
		logging.String("short_description", rec.ShortDescription),
		logging.Float64("rating", rec.Rating))
	return nil
}

// recordFromResponse merges the daemon's answer with locally probed metadata.
// The daemon reports its own clip length; the local probe fills the gap when
// it does not.
func recordFromResponse(filename, subtitlePath string, info media.ClipInfo, resp describe.Response) *catalog.Record {
	length := resp.VideoLengthSeconds
	if length <= 0 {
		length = info.LengthSeconds
	}
	timestamp := resp.VideoTimestamp
	if timestamp == "" {
		timestamp = info.Timestamp
	}
	return &catalog.Record{
		Filename:              filename,
		Description:           resp.DescriptionLong,
		ShortDescription:      resp.DescriptionShort,
		ShotType:              resp.PrimaryShotType,
		Tags:                  resp.Tags,
		Rating:                resp.Rating,
		InTimestamp:           resp.InTimestamp,
		OutTimestamp:          resp.OutTimestamp,
		VideoLengthSeconds:    length,
		VideoTimestamp:        timestamp,
		ClassificationModel:   resp.ClassificationModel,
		ClassificationSeconds: resp.ClassificationTime,
		SubtitlePath:          subtitlePath,
		Keep:                  true,
	}
}

func (r *Runner) defaultProbe(ctx context.Context, path string) media.ClipInfo {
	info, err := media.Probe(ctx, "", path)
	if err != nil {
		logging.WithContext(ctx, r.logger).Warn("clip probe failed, using defaults", logging.Error(err))
	}
	return info
}
