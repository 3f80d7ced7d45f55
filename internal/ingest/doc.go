// Package ingest contains the debounced batch-ingestion core: a directory
// watcher that settles and filters new video files, a batch scheduler that
// debounces arrivals into batches and guarantees a single drain worker, and
// the service that wires them to the processing pipeline.
//
// The scheduler's contract is that every enqueued file is handed to the
// pipeline exactly once, across concurrent arrivals, batch boundaries, and
// shutdown.
package ingest
