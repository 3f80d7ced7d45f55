package ipc

import "github.com/kagelump/vlog/internal/api"

// CatalogRecord mirrors the HTTP API catalog DTO for IPC callers.
type CatalogRecord = api.CatalogRecord

// StartRequest triggers ingest startup. An empty Dir uses the configured
// watch directory.
type StartRequest struct {
	Dir string `json:"dir"`
}

// StartResponse indicates whether the daemon began watching.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops ingestion and drains pending work.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse carries combined daemon and scheduler status.
type StatusResponse struct {
	Running     bool               `json:"running"`
	PID         int                `json:"pid"`
	LockPath    string             `json:"lock_path"`
	CatalogPath string             `json:"catalog_path"`
	Ingest      api.IngestStatus   `json:"ingest"`
	Describe    api.DescribeHealth `json:"describe"`
}

// CatalogListRequest lists catalog entries.
type CatalogListRequest struct{}

// CatalogListResponse contains catalog records, most recent first.
type CatalogListResponse struct {
	Records []CatalogRecord `json:"records"`
}

// CatalogRemoveRequest deletes one record by filename.
type CatalogRemoveRequest struct {
	Filename string `json:"filename"`
}

// CatalogRemoveResponse reports whether a record was deleted.
type CatalogRemoveResponse struct {
	Removed bool `json:"removed"`
}

// CatalogKeepRequest updates a record's keep flag.
type CatalogKeepRequest struct {
	Filename string `json:"filename"`
	Keep     bool   `json:"keep"`
}

// CatalogKeepResponse reports whether a record was updated.
type CatalogKeepResponse struct {
	Updated bool `json:"updated"`
}

// CatalogStatsRequest fetches aggregate statistics.
type CatalogStatsRequest struct{}

// CatalogStatsResponse carries catalog totals.
type CatalogStatsResponse struct {
	Stats api.CatalogStats `json:"stats"`
}
