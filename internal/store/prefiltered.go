package store

import (
	"context"
	"database/sql"

	"jobsift-engine/internal/domain"
)

const previewLen = 500

// SavePreFiltered records a posting rejected before the LLM call. Write-once
// per URL; a re-rejection of the same URL is ignored.
func (d *DB) SavePreFiltered(ctx context.Context, pf domain.PreFilteredJob) error {
	preview := pf.ContentPreview
	if len(preview) > previewLen {
		preview = preview[:previewLen]
	}
	_, err := d.Pool.ExecContext(ctx, `
		INSERT OR IGNORE INTO pre_filtered_jobs
			(url, title, snippet, source_site, filter_reason, filter_details, content_preview)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pf.URL, pf.Title, pf.Snippet, pf.SourceSite, pf.FilterReason, pf.FilterDetails, preview)
	return err
}

// WasPreFiltered reports whether a URL was rejected in a previous run, so it
// can be skipped before extraction.
func (d *DB) WasPreFiltered(ctx context.Context, url string) (bool, error) {
	var one int
	err := d.Pool.QueryRowContext(ctx, `SELECT 1 FROM pre_filtered_jobs WHERE url = ?`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PreFilterReasonCounts aggregates rejections by rule, for the stats view.
func (d *DB) PreFilterReasonCounts(ctx context.Context) (map[string]int, error) {
	rows, err := d.Pool.QueryContext(ctx, `
		SELECT filter_reason, COUNT(*) FROM pre_filtered_jobs GROUP BY filter_reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[reason] = n
	}
	return out, rows.Err()
}
