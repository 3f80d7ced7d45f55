package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/services"
)

// CatalogChecker is the idempotency surface the service consults before
// enqueueing a file.
type CatalogChecker interface {
	Has(ctx context.Context, filename string) (bool, error)
}

// Service is the composition root for ingestion: it wires the watcher to the
// scheduler, pre-checks the catalog, scans the backlog at startup, and owns
// orderly shutdown.
type Service struct {
	cfg     *config.Config
	checker CatalogChecker
	process ProcessFunc
	logger  *slog.Logger

	mu        sync.Mutex
	running   bool
	watchDir  string
	watcher   *FileWatcher
	scheduler *BatchScheduler
}

// Status is a non-blocking snapshot of the service state.
type Status struct {
	Running      bool   `json:"running"`
	WatchDir     string `json:"watch_dir"`
	Queued       int    `json:"queued"`
	WorkerActive bool   `json:"worker_active"`
	BatchSize    int    `json:"batch_size"`
	BatchTimeout int    `json:"batch_timeout_seconds"`
}

// NewService constructs the ingest service. process receives every batch the
// scheduler triggers.
func NewService(cfg *config.Config, checker CatalogChecker, process ProcessFunc, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:     cfg,
		checker: checker,
		process: process,
		logger:  logger.With(logging.String(logging.FieldComponent, "ingest")),
	}
}

// Start validates dir, begins watching it, and scans existing contents so
// files that arrived while the service was down are recovered. An empty dir
// falls back to the configured watch directory.
func (s *Service) Start(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return services.Wrap(services.ErrAlreadyRunning, "ingest", "start", s.watchDir, nil)
	}

	if strings.TrimSpace(dir) == "" {
		dir = s.cfg.Paths.WatchDir
	}
	stat, err := os.Stat(dir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "ingest", "start", "watch directory "+dir, err)
	}
	if !stat.IsDir() {
		return services.Wrap(services.ErrConfiguration, "ingest", "start", dir+" is not a directory", nil)
	}

	s.scheduler = NewBatchScheduler(
		s.cfg.Ingest.BatchSize,
		time.Duration(s.cfg.Ingest.BatchTimeout)*time.Second,
		time.Duration(s.cfg.Ingest.ShutdownWait)*time.Second,
		s.process,
		s.logger,
	)
	s.watcher = NewFileWatcher(
		time.Duration(s.cfg.Ingest.SettleDelay)*time.Second,
		s.cfg.AllowedExtension,
		s.onCandidate,
		s.logger,
	)
	if err := s.watcher.Start(dir); err != nil {
		s.scheduler = nil
		s.watcher = nil
		return err
	}
	s.running = true
	s.watchDir = dir

	s.logger.Info("ingest service started",
		logging.String("dir", dir),
		logging.Int("batch_size", s.cfg.Ingest.BatchSize),
		logging.Int("batch_timeout_seconds", s.cfg.Ingest.BatchTimeout))

	s.scanExisting(ctx, dir)
	return nil
}

// Stop halts the watcher first so no new enqueues arrive, then shuts the
// scheduler down. Every file enqueued before Stop has been handed to the
// pipeline by the time it returns.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	watcher := s.watcher
	scheduler := s.scheduler
	s.watcher = nil
	s.scheduler = nil
	s.mu.Unlock()

	watcher.Stop()
	scheduler.Shutdown(ctx)
	s.logger.Info("ingest service stopped")
}

// Status never blocks on an in-progress pipeline run.
func (s *Service) Status() Status {
	s.mu.Lock()
	running := s.running
	dir := s.watchDir
	scheduler := s.scheduler
	s.mu.Unlock()

	status := Status{
		Running:      running,
		WatchDir:     dir,
		BatchSize:    s.cfg.Ingest.BatchSize,
		BatchTimeout: s.cfg.Ingest.BatchTimeout,
	}
	if scheduler != nil {
		status.Queued = scheduler.Queued()
		status.WorkerActive = scheduler.WorkerActive()
	}
	return status
}

// onCandidate is the watcher callback: catalog pre-check, then enqueue.
func (s *Service) onCandidate(path string) {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler == nil {
		return
	}

	filename := filepath.Base(path)
	exists, err := s.checker.Has(context.Background(), filename)
	if err != nil {
		// The pipeline re-checks before describing, so enqueue anyway.
		s.logger.Warn("catalog pre-check failed",
			logging.String(logging.FieldFile, filename), logging.Error(err))
	} else if exists {
		s.logger.Info("file already cataloged, not enqueueing",
			logging.String(logging.FieldFile, filename))
		return
	}
	scheduler.Enqueue(Item{Path: path, DiscoveredAt: time.Now()})
}

// scanExisting recovers files already sitting in dir when the service
// starts, applying the same filter and idempotency checks as live events.
func (s *Service) scanExisting(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("startup scan failed", logging.Error(err))
		return
	}
	found := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, name)
		if !s.cfg.AllowedExtension(path) {
			continue
		}
		exists, err := s.checker.Has(ctx, name)
		if err != nil {
			s.logger.Warn("catalog pre-check failed",
				logging.String(logging.FieldFile, name), logging.Error(err))
		} else if exists {
			continue
		}
		if s.scheduler.Enqueue(Item{Path: path, DiscoveredAt: time.Now()}) {
			found++
		}
	}
	if found > 0 {
		s.logger.Info("startup scan enqueued backlog", logging.Int("files", found))
	}
}
