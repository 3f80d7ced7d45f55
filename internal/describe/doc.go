// Package describe provides the HTTP client for the MLX video description
// daemon. The daemon handles one clip at a time and answers 503 while busy,
// which the client surfaces as services.ErrUnavailable so callers can retry.
package describe
