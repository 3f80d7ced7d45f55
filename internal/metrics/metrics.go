package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vlog_watcher_events_total",
			Help: "Total number of filesystem events observed by the watcher",
		},
		[]string{"result"}, // "accepted", "filtered", "duplicate"
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vlog_watcher_errors_total",
			Help: "Total number of watcher errors",
		},
	)
)

// Scheduler metrics
var (
	FilesEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vlog_files_enqueued_total",
			Help: "Total number of files accepted into the pending queue",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vlog_queue_depth",
			Help: "Number of files currently pending in the scheduler queue",
		},
	)

	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vlog_batches_total",
			Help: "Total number of processed batches",
		},
		[]string{"trigger"}, // "size", "timeout", "drain", "shutdown", "recover"
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vlog_batch_duration_seconds",
			Help:    "Wall-clock duration of one pipeline batch",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
)

// Pipeline metrics
var (
	FilesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vlog_files_processed_total",
			Help: "Pipeline outcomes per file and stage",
		},
		[]string{"status"}, // "ok", "skipped", "preprocess_failed", "describe_failed", "catalog_failed"
	)
)
