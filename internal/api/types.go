package api

import (
	"time"

	"github.com/kagelump/vlog/internal/catalog"
)

// CatalogRecord is the wire form of one processed video.
type CatalogRecord struct {
	Filename              string   `json:"filename"`
	Description           string   `json:"description"`
	ShortDescription      string   `json:"short_description"`
	ShotType              string   `json:"shot_type"`
	Tags                  []string `json:"tags"`
	Rating                float64  `json:"rating"`
	InTimestamp           string   `json:"in_timestamp,omitempty"`
	OutTimestamp          string   `json:"out_timestamp,omitempty"`
	VideoLengthSeconds    float64  `json:"video_length_seconds"`
	VideoTimestamp        string   `json:"video_timestamp,omitempty"`
	ClassificationModel   string   `json:"classification_model,omitempty"`
	ClassificationSeconds float64  `json:"classification_seconds,omitempty"`
	SubtitlePath          string   `json:"subtitle_path,omitempty"`
	Keep                  bool     `json:"keep"`
	CreatedAt             string   `json:"created_at,omitempty"`
	UpdatedAt             string   `json:"updated_at,omitempty"`
}

// FromCatalogRecord converts a catalog record to its wire form.
func FromCatalogRecord(rec *catalog.Record) CatalogRecord {
	if rec == nil {
		return CatalogRecord{}
	}
	out := CatalogRecord{
		Filename:              rec.Filename,
		Description:           rec.Description,
		ShortDescription:      rec.ShortDescription,
		ShotType:              rec.ShotType,
		Tags:                  rec.Tags,
		Rating:                rec.Rating,
		InTimestamp:           rec.InTimestamp,
		OutTimestamp:          rec.OutTimestamp,
		VideoLengthSeconds:    rec.VideoLengthSeconds,
		VideoTimestamp:        rec.VideoTimestamp,
		ClassificationModel:   rec.ClassificationModel,
		ClassificationSeconds: rec.ClassificationSeconds,
		SubtitlePath:          rec.SubtitlePath,
		Keep:                  rec.Keep,
	}
	if !rec.CreatedAt.IsZero() {
		out.CreatedAt = rec.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !rec.UpdatedAt.IsZero() {
		out.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// FromCatalogRecords converts a slice of catalog records.
func FromCatalogRecords(recs []*catalog.Record) []CatalogRecord {
	out := make([]CatalogRecord, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		out = append(out, FromCatalogRecord(rec))
	}
	return out
}

// IngestStatus is the wire form of the scheduler state snapshot.
type IngestStatus struct {
	Running      bool   `json:"running"`
	WatchDir     string `json:"watch_dir"`
	Queued       int    `json:"queued"`
	WorkerActive bool   `json:"worker_active"`
	BatchSize    int    `json:"batch_size"`
	BatchTimeout int    `json:"batch_timeout_seconds"`
}

// DescribeHealth is the wire form of the description daemon's health.
type DescribeHealth struct {
	Status      string `json:"status,omitempty"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelName   string `json:"model_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DaemonStatus is the combined daemon status payload.
type DaemonStatus struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	LockPath    string         `json:"lock_path"`
	CatalogPath string         `json:"catalog_path"`
	Ingest      IngestStatus   `json:"ingest"`
	Describe    DescribeHealth `json:"describe"`
}

// CatalogStats is the wire form of aggregate catalog statistics.
type CatalogStats struct {
	Total        int     `json:"total"`
	Kept         int     `json:"kept"`
	TotalSeconds float64 `json:"total_seconds"`
}
