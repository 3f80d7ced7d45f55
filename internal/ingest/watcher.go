package ingest

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/metrics"
	"github.com/kagelump/vlog/internal/services"
)

// Callback receives one settled, filtered candidate path.
type Callback func(path string)

// FileWatcher turns raw filesystem create notifications into a deduplicated,
// extension-filtered, settle-delayed stream of candidate paths. No ordering
// guarantee is made between unrelated paths.
type FileWatcher struct {
	settleDelay time.Duration
	allowed     func(path string) bool
	callback    Callback
	logger      *slog.Logger

	mu       sync.Mutex
	running  bool
	inFlight map[string]struct{}
	fsw      *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewFileWatcher constructs a watcher. The allowed filter decides which
// paths are candidates; callback receives each accepted path after the
// settle delay has passed.
func NewFileWatcher(settleDelay time.Duration, allowed func(string) bool, callback Callback, logger *slog.Logger) *FileWatcher {
	if settleDelay < 0 {
		settleDelay = 0
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileWatcher{
		settleDelay: settleDelay,
		allowed:     allowed,
		callback:    callback,
		logger:      logger.With(logging.String(logging.FieldComponent, "watcher")),
		inFlight:    make(map[string]struct{}),
	}
}

// Start begins watching dir for newly created files.
func (w *FileWatcher) Start(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return services.Wrap(services.ErrAlreadyRunning, "watcher", "start", dir, nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "watcher", "start", "create filesystem watcher", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return services.Wrap(services.ErrConfiguration, "watcher", "start", "watch "+dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fsw = fsw
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Info("watching directory", logging.String("dir", dir))
	return nil
}

// Stop shuts the watcher down and waits for in-flight callbacks to return.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.fsw.Close()
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *FileWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			// Each create gets its own goroutine so one file's settle
			// delay never stalls notifications for the others.
			w.wg.Add(1)
			go w.handleCreate(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			metrics.WatcherErrors.Inc()
			w.logger.Warn("watch error", logging.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

func (w *FileWatcher) handleCreate(ctx context.Context, path string) {
	defer w.wg.Done()

	if w.allowed != nil && !w.allowed(path) {
		metrics.WatcherEventsTotal.WithLabelValues("filtered").Inc()
		return
	}

	// Let the writer finish before touching the file.
	if w.settleDelay > 0 {
		settle := time.NewTimer(w.settleDelay)
		defer settle.Stop()
		select {
		case <-settle.C:
		case <-ctx.Done():
			return
		}
	}

	stat, err := os.Stat(path)
	if err != nil || stat.IsDir() {
		// Renamed or removed during the settle window, or a directory.
		metrics.WatcherEventsTotal.WithLabelValues("filtered").Inc()
		return
	}

	if !w.claim(path) {
		metrics.WatcherEventsTotal.WithLabelValues("duplicate").Inc()
		return
	}
	defer w.release(path)

	metrics.WatcherEventsTotal.WithLabelValues("accepted").Inc()
	w.logger.Info("file settled", logging.String(logging.FieldFile, path))
	if w.callback != nil {
		w.callback(path)
	}
}

// claim marks path as in flight, guarding against duplicate OS notifications
// for the same file. It reports whether the caller won the claim.
func (w *FileWatcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inFlight[path]; busy {
		return false
	}
	w.inFlight[path] = struct{}{}
	return true
}

// release is deferred so membership is removed on every exit path of the
// callback, including panic.
func (w *FileWatcher) release(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, path)
}
