package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kagelump/vlog/internal/services"
)

// Record represents one processed video in the catalog, keyed by filename.
type Record struct {
	Filename              string
	Description           string
	ShortDescription      string
	ShotType              string
	Tags                  []string
	Rating                float64
	InTimestamp           string
	OutTimestamp          string
	VideoLengthSeconds    float64
	VideoTimestamp        string
	ClassificationModel   string
	ClassificationSeconds float64
	SubtitlePath          string
	Keep                  bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

const recordColumns = `filename, description, short_description, shot_type, tags_json,
    rating, in_timestamp, out_timestamp, video_length_seconds, video_timestamp,
    classification_model, classification_seconds, subtitle_path, keep, created_at, updated_at`

// Has reports whether a record for filename exists. This is the idempotency
// pre-check used before enqueueing a file.
func (c *Catalog) Has(ctx context.Context, filename string) (bool, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return false, errors.New("filename required")
	}
	var one int
	err := c.db.QueryRowContext(ctx, "SELECT 1 FROM results WHERE filename = ?", filename).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check filename: %w", err)
	}
	return true, nil
}

// Upsert inserts or replaces the record for rec.Filename. Reprocessing the
// same filename overwrites the previous result, it does not duplicate it.
func (c *Catalog) Upsert(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record required")
	}
	if strings.TrimSpace(rec.Filename) == "" {
		return errors.New("record filename required")
	}

	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = c.db.ExecContext(ctx, `
        INSERT INTO results (
            filename, description, short_description, shot_type, tags_json,
            rating, in_timestamp, out_timestamp, video_length_seconds, video_timestamp,
            classification_model, classification_seconds, subtitle_path, keep, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(filename) DO UPDATE SET
            description = excluded.description,
            short_description = excluded.short_description,
            shot_type = excluded.shot_type,
            tags_json = excluded.tags_json,
            rating = excluded.rating,
            in_timestamp = excluded.in_timestamp,
            out_timestamp = excluded.out_timestamp,
            video_length_seconds = excluded.video_length_seconds,
            video_timestamp = excluded.video_timestamp,
            classification_model = excluded.classification_model,
            classification_seconds = excluded.classification_seconds,
            subtitle_path = excluded.subtitle_path,
            keep = excluded.keep,
            updated_at = excluded.updated_at`,
		rec.Filename,
		rec.Description,
		rec.ShortDescription,
		rec.ShotType,
		string(tagsJSON),
		rec.Rating,
		nullableString(rec.InTimestamp),
		nullableString(rec.OutTimestamp),
		rec.VideoLengthSeconds,
		nullableString(rec.VideoTimestamp),
		rec.ClassificationModel,
		rec.ClassificationSeconds,
		rec.SubtitlePath,
		boolToInt(rec.Keep),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Get fetches the record for filename, or services.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, filename string) (*Record, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM results WHERE filename = ?", filename)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get", filename, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns all records ordered by most recently updated.
func (c *Catalog) List(ctx context.Context) ([]*Record, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM results ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Remove deletes the record for filename and reports whether one existed.
func (c *Catalog) Remove(ctx context.Context, filename string) (bool, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM results WHERE filename = ?", filename)
	if err != nil {
		return false, fmt.Errorf("remove record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetKeep flips the keep/discard flag for filename and reports whether a
// record existed.
func (c *Catalog) SetKeep(ctx context.Context, filename string, keep bool) (bool, error) {
	res, err := c.db.ExecContext(ctx,
		"UPDATE results SET keep = ?, updated_at = ? WHERE filename = ?",
		boolToInt(keep), time.Now().UTC().Format(time.RFC3339Nano), filename)
	if err != nil {
		return false, fmt.Errorf("update keep: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats summarizes catalog contents.
type Stats struct {
	Total        int
	Kept         int
	TotalSeconds float64
}

// Summary returns aggregate catalog statistics.
func (c *Catalog) Summary(ctx context.Context) (Stats, error) {
	var stats Stats
	err := c.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(keep), 0),
               COALESCE(SUM(video_length_seconds), 0)
        FROM results`).Scan(&stats.Total, &stats.Kept, &stats.TotalSeconds)
	if err != nil {
		return Stats{}, fmt.Errorf("summarize catalog: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		tagsJSON  string
		inTS      sql.NullString
		outTS     sql.NullString
		videoTS   sql.NullString
		keep      int
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&rec.Filename,
		&rec.Description,
		&rec.ShortDescription,
		&rec.ShotType,
		&tagsJSON,
		&rec.Rating,
		&inTS,
		&outTS,
		&rec.VideoLengthSeconds,
		&videoTS,
		&rec.ClassificationModel,
		&rec.ClassificationSeconds,
		&rec.SubtitlePath,
		&keep,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	rec.InTimestamp = inTS.String
	rec.OutTimestamp = outTS.String
	rec.VideoTimestamp = videoTS.String
	rec.Keep = keep != 0
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = ts
	}
	return &rec, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
