package store

import (
	"context"
	"strings"

	"jobsift-engine/internal/domain"
)

// RecordFailure upserts a URL that exhausted every extraction method. The
// first failure lands with retry_count=1; each repeat bumps the count and
// refreshes last_seen. first_seen never changes.
func (d *DB) RecordFailure(ctx context.Context, cand domain.Candidate, attempted []string, errMsg string) error {
	_, err := d.Pool.ExecContext(ctx, `
		INSERT INTO unextracted_jobs (url, title, snippet, source_site, methods_attempted, error_message, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(url) DO UPDATE SET
			retry_count       = retry_count + 1,
			methods_attempted = excluded.methods_attempted,
			error_message     = excluded.error_message,
			last_seen         = CURRENT_TIMESTAMP`,
		cand.URL, cand.Title, cand.Snippet, cand.SourceSite,
		strings.Join(attempted, ","), errMsg)
	return err
}

// ClearFailure removes a URL from the failure log after a successful
// extraction. Clearing an absent URL is a no-op.
func (d *DB) ClearFailure(ctx context.Context, url string) error {
	_, err := d.Pool.ExecContext(ctx, `DELETE FROM unextracted_jobs WHERE url = ?`, url)
	return err
}

// ListUnextracted returns failed URLs still under the retry ceiling, oldest
// first so stale entries get retried before fresh ones.
func (d *DB) ListUnextracted(ctx context.Context, maxRetries int) ([]domain.UnextractedJob, error) {
	rows, err := d.Pool.QueryContext(ctx, `
		SELECT id, url, title, snippet, source_site, methods_attempted,
		       error_message, retry_count, first_seen, last_seen
		FROM unextracted_jobs WHERE retry_count < ? ORDER BY first_seen ASC`, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnextractedJob
	for rows.Next() {
		var u domain.UnextractedJob
		var methods string
		if err := rows.Scan(&u.ID, &u.URL, &u.Title, &u.Snippet, &u.SourceSite,
			&methods, &u.ErrorMessage, &u.RetryCount, &u.FirstSeen, &u.LastSeen); err != nil {
			return nil, err
		}
		if methods != "" {
			u.MethodsAttempted = strings.Split(methods, ",")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUnextracted returns the failure-log size, for the stats view.
func (d *DB) CountUnextracted(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM unextracted_jobs`).Scan(&n)
	return n, err
}
