// Package daemon hosts the long-running vlog process: it owns the instance
// lock, drives the ingest service, and exposes status and catalog access
// over HTTP.
package daemon
