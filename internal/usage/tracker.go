package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Pricing for cost estimates. Google CSE: 100 free queries/day then $5 per
// 1000. gpt-4o-mini: $0.15 per 1M prompt tokens, $0.60 per 1M completion.
const (
	googleFreeQueries   = 100
	googleCostPer1000   = 5.0
	llmPromptCostPerM   = 0.15
	llmCompleteCostPerM = 0.60
)

type QueryLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Keyword   string    `json:"keyword"`
	Site      string    `json:"site"`
	Success   bool      `json:"success"`
	Results   int       `json:"results_count"`
	Error     string    `json:"error,omitempty"`
}

type ExtractionLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

type LLMLogEntry struct {
	Timestamp        time.Time `json:"timestamp"`
	Success          bool      `json:"success"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Error            string    `json:"error,omitempty"`
}

type ErrorLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
	Error     string    `json:"error"`
}

// Report is the immutable per-run snapshot persisted at the end of a run.
type Report struct {
	RunID       string `json:"run_id"`
	RunType     string `json:"run_type"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`

	SearchQueriesMade       int     `json:"search_queries_made"`
	SearchQueriesSuccessful int     `json:"search_queries_successful"`
	SearchQueriesFailed     int     `json:"search_queries_failed"`
	SearchResultsTotal      int     `json:"search_results_total"`
	SearchResultsUnique     int     `json:"search_results_unique"`
	SearchCostEstimate      float64 `json:"search_cost_estimate"`

	LLMRequestsMade       int     `json:"llm_requests_made"`
	LLMRequestsSuccessful int     `json:"llm_requests_successful"`
	LLMRequestsFailed     int     `json:"llm_requests_failed"`
	LLMTokensPrompt       int     `json:"llm_tokens_prompt"`
	LLMTokensCompletion   int     `json:"llm_tokens_completion"`
	LLMTokensTotal        int     `json:"llm_tokens_total"`
	LLMCostEstimate       float64 `json:"llm_cost_estimate"`

	ExtractionAttempted int            `json:"extraction_attempted"`
	ExtractionByMethod  map[string]int `json:"extraction_success_by_method"`
	ExtractionFailed    int            `json:"extraction_failed"`

	JobsSearched     int `json:"jobs_searched"`
	JobsEarlySkipped int `json:"jobs_early_skipped"`
	JobsExtracted    int `json:"jobs_extracted"`
	JobsPreFiltered  int `json:"jobs_pre_filtered"`
	JobsParsed       int `json:"jobs_parsed"`
	JobsScored       int `json:"jobs_scored"`
	JobsSaved        int `json:"jobs_saved"`
	JobsSkipped      int `json:"jobs_skipped"`

	QueryLog      []QueryLogEntry      `json:"query_log"`
	ExtractionLog []ExtractionLogEntry `json:"extraction_log"`
	LLMLog        []LLMLogEntry        `json:"llm_log"`
	Errors        []ErrorLogEntry      `json:"errors"`
}

// TotalCost returns the combined estimate. Costs are filled by Finalize.
func (r Report) TotalCost() float64 {
	return r.SearchCostEstimate + r.LLMCostEstimate
}

// Tracker accumulates counters across one pipeline run. Safe for concurrent
// use; the extraction worker pool reports from multiple goroutines.
type Tracker struct {
	mu     sync.Mutex
	report Report
	start  time.Time
}

func NewTracker(runType string) *Tracker {
	now := time.Now()
	return &Tracker{
		start: now,
		report: Report{
			RunID:              now.Format("20060102_150405"),
			RunType:            runType,
			StartedAt:          now.Format(time.RFC3339),
			ExtractionByMethod: map[string]int{},
		},
	}
}

func (t *Tracker) LogSearchQuery(keyword, site string, success bool, results int, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.SearchQueriesMade++
	if success {
		t.report.SearchQueriesSuccessful++
		t.report.SearchResultsTotal += results
	} else {
		t.report.SearchQueriesFailed++
	}
	t.report.QueryLog = append(t.report.QueryLog, QueryLogEntry{
		Timestamp: time.Now(), Keyword: keyword, Site: site,
		Success: success, Results: results, Error: errMsg,
	})
}

func (t *Tracker) LogExtraction(url, method string, success bool, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.ExtractionAttempted++
	if success {
		t.report.ExtractionByMethod[method]++
	} else {
		t.report.ExtractionFailed++
	}
	t.report.ExtractionLog = append(t.report.ExtractionLog, ExtractionLogEntry{
		Timestamp: time.Now(), URL: url, Method: method, Success: success, Error: errMsg,
	})
}

// LogLLMRequest records one request. Token counts are added even for failed
// requests when the provider metered them before erroring.
func (t *Tracker) LogLLMRequest(success bool, promptTokens, completionTokens int, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.LLMRequestsMade++
	if success {
		t.report.LLMRequestsSuccessful++
	} else {
		t.report.LLMRequestsFailed++
	}
	t.report.LLMTokensPrompt += promptTokens
	t.report.LLMTokensCompletion += completionTokens
	t.report.LLMTokensTotal += promptTokens + completionTokens
	t.report.LLMLog = append(t.report.LLMLog, LLMLogEntry{
		Timestamp: time.Now(), Success: success,
		PromptTokens: promptTokens, CompletionTokens: completionTokens, Error: errMsg,
	})
}

func (t *Tracker) LogError(component, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.Errors = append(t.report.Errors, ErrorLogEntry{
		Timestamp: time.Now(), Component: component, Error: errMsg,
	})
}

// StageCounts carries the counts at each pipeline stage boundary.
type StageCounts struct {
	Searched     int
	EarlySkipped int
	Extracted    int
	PreFiltered  int
	Parsed       int
	Scored       int
	Saved        int
	Skipped      int
}

func (t *Tracker) SetStageCounts(c StageCounts) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.JobsSearched = c.Searched
	t.report.JobsEarlySkipped = c.EarlySkipped
	t.report.JobsExtracted = c.Extracted
	t.report.JobsPreFiltered = c.PreFiltered
	t.report.JobsParsed = c.Parsed
	t.report.JobsScored = c.Scored
	t.report.JobsSaved = c.Saved
	t.report.JobsSkipped = c.Skipped
}

func (t *Tracker) SetUniqueResults(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.SearchResultsUnique = n
}

// Finalize stamps completion time, computes cost estimates, and returns an
// immutable snapshot. Callable with whatever partial counts exist; the
// orchestrator calls it even when a run dies early.
func (t *Tracker) Finalize() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.report.CompletedAt = time.Now().Format(time.RFC3339)

	if t.report.SearchQueriesMade > googleFreeQueries {
		t.report.SearchCostEstimate = float64(t.report.SearchQueriesMade-googleFreeQueries) / 1000 * googleCostPer1000
	}
	t.report.LLMCostEstimate = float64(t.report.LLMTokensPrompt)/1_000_000*llmPromptCostPerM +
		float64(t.report.LLMTokensCompletion)/1_000_000*llmCompleteCostPerM

	return snapshot(t.report)
}

func snapshot(r Report) Report {
	out := r
	out.ExtractionByMethod = make(map[string]int, len(r.ExtractionByMethod))
	for k, v := range r.ExtractionByMethod {
		out.ExtractionByMethod[k] = v
	}
	out.QueryLog = append([]QueryLogEntry(nil), r.QueryLog...)
	out.ExtractionLog = append([]ExtractionLogEntry(nil), r.ExtractionLog...)
	out.LLMLog = append([]LLMLogEntry(nil), r.LLMLog...)
	out.Errors = append([]ErrorLogEntry(nil), r.Errors...)
	return out
}

// SaveReport finalizes and writes the run's snapshot as a dated JSON artifact
// under dir. Returns the written path.
func (t *Tracker) SaveReport(dir string) (string, error) {
	report := t.Finalize()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("usage report dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("usage_%s.json", report.RunID))

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("usage report marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("usage report write: %w", err)
	}
	return path, nil
}

// HistoricalTotals aggregates saved report artifacts over a trailing window.
type HistoricalTotals struct {
	Reports       int     `json:"reports"`
	SearchQueries int     `json:"search_queries"`
	LLMTokens     int     `json:"llm_tokens"`
	JobsSaved     int     `json:"jobs_saved"`
	TotalCost     float64 `json:"total_cost"`
}

func HistoricalUsage(dir string, days int) (HistoricalTotals, error) {
	var totals HistoricalTotals

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return totals, nil
		}
		return totals, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		var r Report
		if err := json.Unmarshal(b, &r); err != nil {
			continue
		}
		started, err := time.Parse(time.RFC3339, r.StartedAt)
		if err != nil || started.Before(cutoff) {
			continue
		}
		totals.Reports++
		totals.SearchQueries += r.SearchQueriesMade
		totals.LLMTokens += r.LLMTokensTotal
		totals.JobsSaved += r.JobsSaved
		totals.TotalCost += r.TotalCost()
	}
	return totals, nil
}
