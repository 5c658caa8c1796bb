package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobsift-engine/internal/domain"
)

// SaveJob inserts one scored job. Returns (record, true) when the row was
// new; (zero, false) when the URL was already present. INSERT OR IGNORE plus
// RowsAffected is the dedup mechanism; the url UNIQUE constraint is the
// source of truth.
func (d *DB) SaveJob(ctx context.Context, sj domain.ScoredJob) (domain.JobRecord, bool, error) {
	blob, err := json.Marshal(sj.Job)
	if err != nil {
		return domain.JobRecord{}, false, fmt.Errorf("marshal job: %w", err)
	}

	res, err := d.Pool.ExecContext(ctx, `
		INSERT OR IGNORE INTO jobs (url, title, company, location, score, source_site, job_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sj.URL, sj.Job.Title, sj.Job.Company, sj.Job.Location, sj.Score, sj.SourceSite, string(blob))
	if err != nil {
		return domain.JobRecord{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.JobRecord{}, false, err
	}
	if n == 0 {
		return domain.JobRecord{}, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.JobRecord{}, false, err
	}
	return domain.JobRecord{
		ID:         id,
		Job:        sj.Job,
		Score:      sj.Score,
		URL:        sj.URL,
		SourceSite: sj.SourceSite,
		CreatedAt:  time.Now(),
	}, true, nil
}

// SaveBatch inserts jobs one by one, counting new rows and duplicates.
// Duplicate URLs inside the batch follow the same rule as duplicates against
// the table: the first one wins.
func (d *DB) SaveBatch(ctx context.Context, jobs []domain.ScoredJob) (saved, skipped int, inserted []domain.JobRecord, err error) {
	for _, sj := range jobs {
		rec, ok, serr := d.SaveJob(ctx, sj)
		if serr != nil {
			return saved, skipped, inserted, serr
		}
		if ok {
			saved++
			inserted = append(inserted, rec)
		} else {
			skipped++
		}
	}
	return saved, skipped, inserted, nil
}

// HasJob reports whether a URL is already stored.
func (d *DB) HasJob(ctx context.Context, url string) (bool, error) {
	var one int
	err := d.Pool.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE url = ?`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetNewJobsSince returns jobs first stored after the cutoff, newest first.
func (d *DB) GetNewJobsSince(ctx context.Context, since time.Time) ([]domain.JobRecord, error) {
	// created_at is CURRENT_TIMESTAMP text in UTC; compare in the same format
	rows, err := d.Pool.QueryContext(ctx, `
		SELECT id, url, score, source_site, job_json, created_at
		FROM jobs WHERE created_at > ? ORDER BY created_at DESC`,
		since.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobRows(rows)
}

// ListJobs returns stored jobs ordered by score, highest first.
func (d *DB) ListJobs(ctx context.Context, minScore, limit int) ([]domain.JobRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.Pool.QueryContext(ctx, `
		SELECT id, url, score, source_site, job_json, created_at
		FROM jobs WHERE score >= ? ORDER BY score DESC, created_at DESC LIMIT ?`,
		minScore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobRows(rows)
}

func scanJobRows(rows *sql.Rows) ([]domain.JobRecord, error) {
	var out []domain.JobRecord
	for rows.Next() {
		var rec domain.JobRecord
		var blob string
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Score, &rec.SourceSite, &blob, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blob), &rec.Job); err != nil {
			return nil, fmt.Errorf("decode job %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
