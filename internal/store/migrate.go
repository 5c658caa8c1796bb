package store

import (
	"context"
	"fmt"
)

// migrations are applied in order inside one transaction per pending step,
// tracked via PRAGMA user_version.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS jobs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	url          TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	company      TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	score        INTEGER NOT NULL DEFAULT 0,
	source_site  TEXT NOT NULL DEFAULT '',
	job_json     TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_jobs_score ON jobs(score);

CREATE TABLE IF NOT EXISTS unextracted_jobs (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	url               TEXT NOT NULL UNIQUE,
	title             TEXT NOT NULL DEFAULT '',
	snippet           TEXT NOT NULL DEFAULT '',
	source_site       TEXT NOT NULL DEFAULT '',
	methods_attempted TEXT NOT NULL DEFAULT '',
	error_message     TEXT NOT NULL DEFAULT '',
	retry_count       INTEGER NOT NULL DEFAULT 0,
	first_seen        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pre_filtered_jobs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	url             TEXT NOT NULL UNIQUE,
	title           TEXT NOT NULL DEFAULT '',
	snippet         TEXT NOT NULL DEFAULT '',
	source_site     TEXT NOT NULL DEFAULT '',
	filter_reason   TEXT NOT NULL,
	filter_details  TEXT NOT NULL DEFAULT '',
	content_preview TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	`
CREATE TABLE IF NOT EXISTS skill_frequency (
	skill      TEXT NOT NULL,
	category   TEXT NOT NULL,
	times_seen INTEGER NOT NULL DEFAULT 1,
	first_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (skill, category)
);
`,
}

func (d *DB) migrate(ctx context.Context) error {
	var version int
	if err := d.Pool.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := d.Pool.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA cannot take a bind parameter
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bump user_version to %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
