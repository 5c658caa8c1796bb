package store

import (
	"context"
	"encoding/json"
	"strings"

	"jobsift-engine/internal/domain"
)

// Categorize maps a job title onto a coarse role bucket for the skill
// aggregate. Order matters: more specific buckets first.
func Categorize(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "applied scientist"):
		return "applied-scientist"
	case strings.Contains(t, "machine learning") || strings.Contains(t, "ml engineer") || strings.Contains(t, "ml "):
		return "ml-engineer"
	case strings.Contains(t, "ai engineer") || strings.Contains(t, "artificial intelligence"):
		return "ai-engineer"
	case strings.Contains(t, "data scientist") || strings.Contains(t, "data science"):
		return "data-scientist"
	default:
		return "other"
	}
}

// RecordSkills bumps the frequency counters for every skill a parsed job
// mentions, under the job's role category.
func (d *DB) RecordSkills(ctx context.Context, job domain.StructuredJob) error {
	category := Categorize(job.Title)
	skills := append(append([]string{}, job.RequiredSkills...), job.PreferredSkills...)
	for _, skill := range domain.NormalizeSet(skills) {
		_, err := d.Pool.ExecContext(ctx, `
			INSERT INTO skill_frequency (skill, category)
			VALUES (?, ?)
			ON CONFLICT(skill, category) DO UPDATE SET
				times_seen = times_seen + 1,
				last_seen  = CURRENT_TIMESTAMP`,
			skill, category)
		if err != nil {
			return err
		}
	}
	return nil
}

// TopSkills returns the most-seen skills for a category, or across all
// categories when category is empty.
func (d *DB) TopSkills(ctx context.Context, category string, limit int) ([]domain.SkillCount, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT skill, category, times_seen, first_seen, last_seen
		FROM skill_frequency`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY times_seen DESC, skill ASC LIMIT ?`
	args = append(args, limit)

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SkillCount
	for rows.Next() {
		var sc domain.SkillCount
		if err := rows.Scan(&sc.Skill, &sc.Category, &sc.TimesSeen, &sc.FirstSeen, &sc.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Stats is a compact snapshot of the database for the stats command.
type Stats struct {
	TotalJobs        int            `json:"total_jobs"`
	AverageScore     float64        `json:"average_score"`
	Unextracted      int            `json:"unextracted"`
	PreFiltered      map[string]int `json:"pre_filtered_by_reason"`
	JobsBySourceSite map[string]int `json:"jobs_by_source_site"`
	TopCompanies     map[string]int `json:"top_companies"`
	AverageYoE       float64        `json:"average_yoe"`
}

func (d *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats

	err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score), 0) FROM jobs`).Scan(&s.TotalJobs, &s.AverageScore)
	if err != nil {
		return s, err
	}

	if s.Unextracted, err = d.CountUnextracted(ctx); err != nil {
		return s, err
	}
	if s.PreFiltered, err = d.PreFilterReasonCounts(ctx); err != nil {
		return s, err
	}

	if s.JobsBySourceSite, err = d.groupCount(ctx,
		`SELECT source_site, COUNT(*) FROM jobs GROUP BY source_site`); err != nil {
		return s, err
	}
	if s.TopCompanies, err = d.groupCount(ctx,
		`SELECT company, COUNT(*) FROM jobs WHERE company != '' GROUP BY company ORDER BY COUNT(*) DESC LIMIT 10`); err != nil {
		return s, err
	}
	s.AverageYoE, err = d.averageYoE(ctx)
	return s, err
}

// averageYoE averages yoe_required over jobs that state one. Zero means
// unstated and is excluded.
func (d *DB) averageYoE(ctx context.Context) (float64, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT job_json FROM jobs`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var sum, n int
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return 0, err
		}
		var job domain.StructuredJob
		if err := json.Unmarshal([]byte(blob), &job); err != nil {
			continue
		}
		if job.YearsExperience > 0 {
			sum += job.YearsExperience
			n++
		}
	}
	if n == 0 {
		return 0, rows.Err()
	}
	return float64(sum) / float64(n), rows.Err()
}

func (d *DB) groupCount(ctx context.Context, query string) (map[string]int, error) {
	rows, err := d.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
