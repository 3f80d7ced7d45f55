package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kagelump/vlog/internal/logging"
	"github.com/kagelump/vlog/internal/metrics"
)

// ProcessFunc runs one batch through the pipeline. It is always invoked
// outside the scheduler's lock and must handle per-file failures itself.
type ProcessFunc func(ctx context.Context, batch Batch)

// BatchScheduler owns the pending queue, the debounce timer, and the
// single-worker invariant. Files accumulate until either the queue reaches
// batchSize or batchTimeout elapses since the last arrival; either way at
// most one worker goroutine drains batches at any instant.
type BatchScheduler struct {
	batchSize    int
	batchTimeout time.Duration
	shutdownWait time.Duration
	process      ProcessFunc
	logger       *slog.Logger

	mu           sync.Mutex
	pending      []Item
	pendingSet   map[string]struct{}
	timer        *time.Timer
	timerGen     uint64
	workerActive bool
	stopping     bool
	workerDone   chan struct{}
}

// NewBatchScheduler constructs a scheduler. batchSize is clamped to at least
// one item and batchTimeout to a positive duration so a zero value can never
// busy-loop immediate triggers.
func NewBatchScheduler(batchSize int, batchTimeout, shutdownWait time.Duration, process ProcessFunc, logger *slog.Logger) *BatchScheduler {
	if batchSize < 1 {
		batchSize = 1
	}
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	if shutdownWait <= 0 {
		shutdownWait = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BatchScheduler{
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		shutdownWait: shutdownWait,
		process:      process,
		logger:       logger.With(logging.String(logging.FieldComponent, "scheduler")),
		pendingSet:   make(map[string]struct{}),
	}
}

// Enqueue adds a file to the pending queue. Re-enqueueing a path that is
// already pending is a no-op. It reports whether the item was accepted.
func (s *BatchScheduler) Enqueue(item Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		s.logger.Warn("enqueue rejected during shutdown", logging.String(logging.FieldFile, item.Path))
		return false
	}
	if _, dup := s.pendingSet[item.Path]; dup {
		return false
	}
	if item.DiscoveredAt.IsZero() {
		item.DiscoveredAt = time.Now()
	}
	s.pending = append(s.pending, item)
	s.pendingSet[item.Path] = struct{}{}
	metrics.FilesEnqueuedTotal.Inc()
	metrics.QueueDepth.Set(float64(len(s.pending)))

	// Every arrival resets the debounce window. A size trigger disarms the
	// timer so the same items cannot be processed twice.
	s.stopTimerLocked()
	if len(s.pending) >= s.batchSize {
		s.triggerLocked("size")
		return true
	}
	s.armTimerLocked()
	return true
}

// Queued returns the number of items currently pending.
func (s *BatchScheduler) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// WorkerActive reports whether a drain worker is currently running.
func (s *BatchScheduler) WorkerActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workerActive
}

// BatchSize returns the configured size trigger.
func (s *BatchScheduler) BatchSize() int { return s.batchSize }

// BatchTimeout returns the configured debounce window.
func (s *BatchScheduler) BatchTimeout() time.Duration { return s.batchTimeout }

// Shutdown stops triggering, waits up to shutdownWait for an active worker,
// then processes any leftover pending items synchronously on the calling
// goroutine. It never returns while enqueued work would be silently lost.
func (s *BatchScheduler) Shutdown(ctx context.Context) {
	s.mu.Lock()
	s.stopping = true
	s.stopTimerLocked()
	active := s.workerActive
	done := s.workerDone
	s.mu.Unlock()

	if active && done != nil {
		wait := time.NewTimer(s.shutdownWait)
		defer wait.Stop()
		select {
		case <-done:
		case <-wait.C:
			s.logger.Warn("shutdown wait expired with worker still active",
				logging.Duration("waited", s.shutdownWait))
		case <-ctx.Done():
			s.logger.Warn("shutdown interrupted while worker still active", logging.Error(ctx.Err()))
		}
	}

	// The stopping flag keeps the worker's drain loop away from the queue,
	// so this synchronous drain never overlaps it on the same items.
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.snapshotLocked()
		s.mu.Unlock()
		s.runBatch(batch, "shutdown")
	}
}

// triggerLocked spawns a worker for the current queue. Callers must hold
// s.mu. When a worker is already active this is a no-op: the running worker
// discovers new arrivals itself, which is what keeps a second worker from
// ever being spawned.
func (s *BatchScheduler) triggerLocked(trigger string) {
	if s.workerActive || len(s.pending) == 0 {
		return
	}
	batch := s.snapshotLocked()
	s.workerActive = true
	s.workerDone = make(chan struct{})
	go s.worker(batch, trigger, s.workerDone)
}

// snapshotLocked atomically moves the pending queue into a new batch.
// Callers must hold s.mu.
func (s *BatchScheduler) snapshotLocked() Batch {
	batch := Batch{ID: uuid.NewString(), Items: s.pending}
	s.pending = nil
	s.pendingSet = make(map[string]struct{})
	metrics.QueueDepth.Set(0)
	return batch
}

// worker drains batches greedily: after the initial batch it keeps taking
// whatever arrived during processing until the queue is empty or shutdown
// begins. process always runs outside the lock.
func (s *BatchScheduler) worker(initial Batch, trigger string, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("worker panic, scheduler stays live", logging.Any("panic", r))
			s.mu.Lock()
			s.workerActive = false
			// The panic skipped the drain loop. Items that arrived while
			// this worker ran have no armed timer anymore: their debounce
			// window fired as a no-op against the active worker. Hand them
			// to a fresh worker now instead of leaving them stranded.
			if !s.stopping {
				s.triggerLocked("recover")
			}
			s.mu.Unlock()
		}
	}()

	s.runBatch(initial, trigger)
	for {
		s.mu.Lock()
		if s.stopping || len(s.pending) == 0 {
			s.workerActive = false
			s.mu.Unlock()
			return
		}
		batch := s.snapshotLocked()
		s.mu.Unlock()
		s.runBatch(batch, "drain")
	}
}

func (s *BatchScheduler) runBatch(batch Batch, trigger string) {
	metrics.BatchesTotal.WithLabelValues(trigger).Inc()
	s.logger.Info("processing batch",
		logging.String(logging.FieldBatchID, batch.ID),
		logging.Int(logging.FieldBatchSize, len(batch.Items)),
		logging.String("trigger", trigger))
	if s.process != nil {
		s.process(context.Background(), batch)
	}
}

// armTimerLocked arms a fresh debounce window. Each arm bumps the generation
// counter so a callback that already fired, but has not yet taken the lock,
// can recognize it was superseded by a later arrival. Callers must hold s.mu.
func (s *BatchScheduler) armTimerLocked() {
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.batchTimeout, func() { s.onTimeout(gen) })
}

// stopTimerLocked disarms the debounce timer. The generation bump invalidates
// a callback the Stop raced with. Callers must hold s.mu.
func (s *BatchScheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *BatchScheduler) onTimeout(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen {
		// A newer arrival re-armed the window after this callback fired.
		return
	}
	if s.stopping || len(s.pending) == 0 {
		return
	}
	s.triggerLocked("timeout")
}
