package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerCounters(t *testing.T) {
	tr := NewTracker("run")
	tr.LogSearchQuery("ml", "a.example", true, 10, "")
	tr.LogSearchQuery("nlp", "a.example", false, 0, "quota")
	tr.LogExtraction("https://x/1", "reader", true, "")
	tr.LogExtraction("https://x/2", "scraper", false, "thin")
	tr.LogLLMRequest(true, 1000, 200, "")
	tr.LogError("parse", "boom")
	tr.SetUniqueResults(9)

	r := tr.Finalize()
	assert.Equal(t, 2, r.SearchQueriesMade)
	assert.Equal(t, 1, r.SearchQueriesSuccessful)
	assert.Equal(t, 1, r.SearchQueriesFailed)
	assert.Equal(t, 10, r.SearchResultsTotal)
	assert.Equal(t, 9, r.SearchResultsUnique)
	assert.Equal(t, 1, r.ExtractionByMethod["reader"])
	assert.Equal(t, 1, r.ExtractionFailed)
	assert.Equal(t, 1200, r.LLMTokensTotal)
	assert.Len(t, r.Errors, 1)
	assert.NotEmpty(t, r.CompletedAt)
}

func TestCostEstimates(t *testing.T) {
	tr := NewTracker("run")
	// under the free tier: no search cost
	for i := 0; i < 50; i++ {
		tr.LogSearchQuery("k", "s", true, 1, "")
	}
	tr.LogLLMRequest(true, 1_000_000, 1_000_000, "")

	r := tr.Finalize()
	assert.Zero(t, r.SearchCostEstimate)
	assert.InDelta(t, 0.75, r.LLMCostEstimate, 1e-9) // 0.15 + 0.60
	assert.InDelta(t, 0.75, r.TotalCost(), 1e-9)
}

func TestSearchCostPastFreeTier(t *testing.T) {
	tr := NewTracker("run")
	for i := 0; i < 300; i++ {
		tr.LogSearchQuery("k", "s", true, 1, "")
	}
	r := tr.Finalize()
	// 200 billable queries at $5/1000
	assert.InDelta(t, 1.0, r.SearchCostEstimate, 1e-9)
}

func TestSaveReportAndHistorical(t *testing.T) {
	dir := t.TempDir()

	tr := NewTracker("run")
	tr.LogSearchQuery("k", "s", true, 3, "")
	tr.LogLLMRequest(true, 100, 50, "")
	tr.SetStageCounts(StageCounts{Saved: 2})

	path, err := tr.SaveReport(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "usage_"+tr.report.RunID+".json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var r Report
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, "run", r.RunType)
	assert.Equal(t, 2, r.JobsSaved)

	totals, err := HistoricalUsage(dir, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Reports)
	assert.Equal(t, 1, totals.SearchQueries)
	assert.Equal(t, 150, totals.LLMTokens)
	assert.Equal(t, 2, totals.JobsSaved)
}

func TestHistoricalUsageMissingDir(t *testing.T) {
	totals, err := HistoricalUsage(filepath.Join(t.TempDir(), "nope"), 7)
	require.NoError(t, err)
	assert.Zero(t, totals.Reports)
}

func TestFinalizeSnapshotIsDetached(t *testing.T) {
	tr := NewTracker("run")
	tr.LogExtraction("https://x/1", "reader", true, "")

	r := tr.Finalize()
	r.ExtractionByMethod["reader"] = 99

	r2 := tr.Finalize()
	assert.Equal(t, 1, r2.ExtractionByMethod["reader"])
}
