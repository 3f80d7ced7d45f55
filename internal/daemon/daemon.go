package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"github.com/kagelump/vlog/internal/catalog"
	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/describe"
	"github.com/kagelump/vlog/internal/ingest"
	"github.com/kagelump/vlog/internal/logging"
)

// Daemon coordinates the ingest service, catalog, and HTTP API, and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *catalog.Catalog
	ingest    *ingest.Service
	describer *describe.Client

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool
	PID         int
	LockPath    string
	CatalogPath string
	Ingest      ingest.Status
	Describe    describe.Health
	DescribeErr string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Catalog, svc *ingest.Service, describer *describe.Client, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || svc == nil {
		return nil, errors.New("daemon requires config, catalog, and ingest service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "vlogd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:     store,
		ingest:    svc,
		describer: describer,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock, starts watching dir, and brings the API
// up. An empty dir falls back to the configured watch directory.
func (d *Daemon) Start(ctx context.Context, dir string) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vlog daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.ingest.Start(runCtx, dir); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start ingest: %w", err)
	}
	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.ingest.Stop(context.Background())
			cancel()
			_ = d.lock.Unlock()
			return err
		}
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("watch_dir", d.cfg.Paths.WatchDir))
	return nil
}

// Stop drains the ingest service, shuts the API down, and releases the lock.
// Stop blocks until every already-enqueued file has been handed to the
// pipeline.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(),
		time.Duration(d.cfg.Ingest.ShutdownWait+30)*time.Second)
	defer cancelStop()

	d.ingest.Stop(stopCtx)
	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports daemon, ingest, and description-daemon state.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:     d.running.Load(),
		PID:         os.Getpid(),
		LockPath:    d.lockPath,
		CatalogPath: d.store.Path(),
		Ingest:      d.ingest.Status(),
	}
	if d.describer != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		health, err := d.describer.Health(probeCtx)
		if err != nil {
			status.DescribeErr = err.Error()
		} else {
			status.Describe = health
		}
	}
	return status
}

// ListCatalog returns all catalog records.
func (d *Daemon) ListCatalog(ctx context.Context) ([]*catalog.Record, error) {
	return d.store.List(ctx)
}

// GetRecord fetches one catalog record by filename.
func (d *Daemon) GetRecord(ctx context.Context, filename string) (*catalog.Record, error) {
	return d.store.Get(ctx, filename)
}

// RemoveRecord deletes a catalog record, reporting whether it existed.
func (d *Daemon) RemoveRecord(ctx context.Context, filename string) (bool, error) {
	return d.store.Remove(ctx, filename)
}

// SetKeep updates the keep flag on a record.
func (d *Daemon) SetKeep(ctx context.Context, filename string, keep bool) (bool, error) {
	return d.store.SetKeep(ctx, filename, keep)
}

// CatalogSummary returns aggregate catalog statistics.
func (d *Daemon) CatalogSummary(ctx context.Context) (catalog.Stats, error) {
	return d.store.Summary(ctx)
}
