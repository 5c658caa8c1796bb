package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsift-engine/internal/usage"
)

// fakeCSE serves deterministic pages: totalItems results named after the
// query, 10 per page.
func fakeCSE(t *testing.T, totalItems int) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		q := r.URL.Query()
		require.NotEmpty(t, q.Get("key"))
		require.NotEmpty(t, q.Get("cx"))

		start, _ := strconv.Atoi(q.Get("start"))
		num, _ := strconv.Atoi(q.Get("num"))

		var items []apiItem
		for i := start; i < start+num && i <= totalItems; i++ {
			items = append(items, apiItem{
				Title:       fmt.Sprintf("Job %d", i),
				Link:        fmt.Sprintf("https://boards.example/%s/%d", q.Get("q"), i),
				Snippet:     "snippet",
				DisplayLink: "boards.example",
			})
		}
		_ = json.NewEncoder(w).Encode(apiResponse{Items: items})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(srv *httptest.Server, tracker *usage.Tracker) *Client {
	c := NewClient("test-key", "test-cx", tracker).WithBaseURL(srv.URL)
	// tests should not sleep
	c.limiter.SetLimit(1000)
	c.backoff = time.Millisecond
	return c
}

func TestFindStandardPaginates(t *testing.T) {
	srv, calls := fakeCSE(t, 30)
	tracker := usage.NewTracker("test")
	c := newTestClient(srv, tracker)

	batch, err := c.Find(context.Background(), Request{
		Keywords:   []string{"ml"},
		Sites:      []string{"boards.example"},
		NumResults: 25,
		Mode:       ModeStandard,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, batch.Raw)
	assert.Equal(t, 25, batch.Unique)
	assert.Equal(t, 3, *calls)

	report := tracker.Finalize()
	assert.Equal(t, 1, report.SearchQueriesMade)
	assert.Equal(t, 1, report.SearchQueriesSuccessful)
	assert.Equal(t, 25, report.SearchResultsUnique)
}

func TestFindComprehensiveCrossesKeywordsAndSites(t *testing.T) {
	srv, _ := fakeCSE(t, 5)
	tracker := usage.NewTracker("test")
	c := newTestClient(srv, tracker)

	batch, err := c.Find(context.Background(), Request{
		Keywords:   []string{"ml", "nlp"},
		Sites:      []string{"a.example", "b.example"},
		NumResults: 5,
		Mode:       ModeComprehensive,
	})
	require.NoError(t, err)
	// 2 keywords x 2 sites, 5 distinct results each (URLs embed the query)
	assert.Equal(t, 20, batch.Raw)
	assert.Equal(t, 20, batch.Unique)
	assert.Equal(t, 4, tracker.Finalize().SearchQueriesMade)
}

func TestFindDeduplicatesAcrossQueries(t *testing.T) {
	// same URL from every query
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(apiResponse{Items: []apiItem{
			{Title: "Job", Link: "https://boards.example/same", DisplayLink: "boards.example"},
		}})
	}))
	defer srv.Close()
	c := newTestClient(srv, nil)

	batch, err := c.Find(context.Background(), Request{
		Keywords:   []string{"ml", "nlp"},
		Sites:      []string{"a.example", "b.example"},
		NumResults: 10,
		Mode:       ModePerSite,
	})
	require.NoError(t, err)
	assert.Greater(t, batch.Raw, batch.Unique)
	assert.Equal(t, 1, batch.Unique)
}

func TestQueryFailureDoesNotAbortRound(t *testing.T) {
	failures := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		failures++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	tracker := usage.NewTracker("test")
	c := newTestClient(srv, tracker)

	batch, err := c.Find(context.Background(), Request{
		Keywords:   []string{"ml"},
		Sites:      []string{"a.example"},
		NumResults: 10,
		Mode:       ModeStandard,
	})
	require.NoError(t, err)
	assert.Empty(t, batch.Candidates)

	report := tracker.Finalize()
	assert.Equal(t, 1, report.SearchQueriesFailed)
	// 4xx is not retried
	assert.Equal(t, 1, failures)
}

func TestServerErrorsAreRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(apiResponse{Items: []apiItem{
			{Title: "Job", Link: "https://boards.example/1", DisplayLink: "boards.example"},
		}})
	}))
	defer srv.Close()
	c := newTestClient(srv, nil)

	batch, err := c.Find(context.Background(), Request{
		Keywords:   []string{"ml"},
		NumResults: 10,
		Mode:       ModeStandard,
	})
	require.NoError(t, err)
	require.Len(t, batch.Candidates, 1)
	assert.Equal(t, 3, attempts)
}
