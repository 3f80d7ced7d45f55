// Package catalog persists processed-video results in SQLite.
//
// The Catalog stores one record per filename: the long and short descriptions
// produced by the description daemon, shot type, tags, rating, and timing
// metadata. Upsert is insert-or-replace so reprocessing a file overwrites the
// earlier result instead of duplicating it, and Has provides the idempotency
// pre-check the ingest service runs before enqueueing a file.
//
// Schema changes bump the version in catalog.go; databases with a different
// version are rejected at open time.
package catalog
