package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsift-engine/internal/domain"
	"jobsift-engine/internal/usage"
)

type fakeMethod struct {
	name string
	text string
	err  error

	mu    sync.Mutex
	calls []string
}

func (f *fakeMethod) Name() string { return f.name }

func (f *fakeMethod) Attempt(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeFailureLog struct {
	mu       sync.Mutex
	recorded map[string][]string
	cleared  []string
}

func newFakeFailureLog() *fakeFailureLog {
	return &fakeFailureLog{recorded: map[string][]string{}}
}

func (f *fakeFailureLog) RecordFailure(ctx context.Context, cand domain.Candidate, attempted []string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[cand.URL] = attempted
	return nil
}

func (f *fakeFailureLog) ClearFailure(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, url)
	return nil
}

func newTestEngine(reader, browser, scraper Method, failures FailureLog, jsHeavy ...string) *Engine {
	return NewEngine(reader, browser, scraper, Options{
		JSHeavySites:  jsHeavy,
		Workers:       2,
		HostReqPerSec: 1000,
		Failures:      failures,
	})
}

func TestExtractOneReaderFirst(t *testing.T) {
	reader := &fakeMethod{name: "reader", text: "long enough content"}
	browser := &fakeMethod{name: "browser", text: "browser content"}
	scraper := &fakeMethod{name: "scraper", text: "scraper content"}
	e := newTestEngine(reader, browser, scraper, nil)

	res := e.ExtractOne(context.Background(), domain.Candidate{URL: "https://boards.example/1"})
	require.NoError(t, res.Err)
	assert.Equal(t, "reader", res.Method)
	assert.Equal(t, []string{"reader"}, res.Attempted)
	assert.Empty(t, browser.calls)
	assert.Empty(t, scraper.calls)
}

func TestExtractOneJSHeavyGoesBrowserFirst(t *testing.T) {
	reader := &fakeMethod{name: "reader", text: "reader content"}
	browser := &fakeMethod{name: "browser", text: "browser content"}
	scraper := &fakeMethod{name: "scraper", text: "scraper content"}
	e := newTestEngine(reader, browser, scraper, nil, "myworkdayjobs.com")

	res := e.ExtractOne(context.Background(), domain.Candidate{URL: "https://acme.wd1.myworkdayjobs.com/job/1"})
	require.NoError(t, res.Err)
	assert.Equal(t, "browser", res.Method)
	assert.Empty(t, reader.calls)
}

func TestExtractOneFallsThroughToScraper(t *testing.T) {
	reader := &fakeMethod{name: "reader", err: fmt.Errorf("thin: %w", ErrContentTooShort)}
	browser := &fakeMethod{name: "browser", err: errors.New("chrome crashed")}
	scraper := &fakeMethod{name: "scraper", text: "static page content"}
	log := newFakeFailureLog()
	e := newTestEngine(reader, browser, scraper, log)

	res := e.ExtractOne(context.Background(), domain.Candidate{URL: "https://boards.example/1"})
	require.NoError(t, res.Err)
	assert.Equal(t, "scraper", res.Method)
	assert.Equal(t, []string{"reader", "browser", "scraper"}, res.Attempted)
	// success clears any earlier failure record
	assert.Equal(t, []string{"https://boards.example/1"}, log.cleared)
	assert.Empty(t, log.recorded)
}

func TestExtractOneAllMethodsFail(t *testing.T) {
	fail := errors.New("nope")
	reader := &fakeMethod{name: "reader", err: fail}
	browser := &fakeMethod{name: "browser", err: fail}
	scraper := &fakeMethod{name: "scraper", err: fail}
	log := newFakeFailureLog()
	e := newTestEngine(reader, browser, scraper, log)

	res := e.ExtractOne(context.Background(), domain.Candidate{URL: "https://boards.example/1"})
	require.Error(t, res.Err)
	assert.Equal(t, []string{"reader", "browser", "scraper"}, res.Attempted)
	assert.Equal(t, []string{"reader", "browser", "scraper"}, log.recorded["https://boards.example/1"])
	assert.Empty(t, log.cleared)
}

func TestExtractBatchPreservesOrder(t *testing.T) {
	reader := &fakeMethod{name: "reader", text: "content"}
	e := newTestEngine(reader, &fakeMethod{name: "browser"}, &fakeMethod{name: "scraper"}, nil)

	var cands []domain.Candidate
	for i := 0; i < 20; i++ {
		cands = append(cands, domain.Candidate{URL: fmt.Sprintf("https://boards.example/%d", i)})
	}
	results, err := e.ExtractBatch(context.Background(), cands)
	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, res := range results {
		assert.Equal(t, cands[i].URL, res.URL)
		assert.NoError(t, res.Err)
	}
}

func TestExtractBatchReportsToTracker(t *testing.T) {
	tracker := usage.NewTracker("test")
	reader := &fakeMethod{name: "reader", text: "content"}

	e := NewEngine(reader, &fakeMethod{name: "browser", err: errors.New("down")},
		&fakeMethod{name: "scraper", err: errors.New("down")}, Options{
			Workers:       2,
			HostReqPerSec: 1000,
			Tracker:       tracker,
		})

	_, err := e.ExtractBatch(context.Background(), []domain.Candidate{
		{URL: "https://boards.example/1"},
		{URL: "https://boards.example/2"},
	})
	require.NoError(t, err)

	report := tracker.Finalize()
	assert.Equal(t, 2, report.ExtractionAttempted)
	assert.Equal(t, 2, report.ExtractionByMethod["reader"])
	assert.Zero(t, report.ExtractionFailed)
}

func TestBaseDomain(t *testing.T) {
	assert.Equal(t, "myworkdayjobs.com", BaseDomain("https://acme.wd1.myworkdayjobs.com/job/1"))
	assert.Equal(t, "greenhouse.io", BaseDomain("https://boards.greenhouse.io/acme/jobs/1"))
	assert.Equal(t, "lever.co", BaseDomain("https://jobs.lever.co/acme/1"))
	assert.Equal(t, "example.com", BaseDomain("https://example.com/x"))
	assert.Equal(t, "", BaseDomain("not a url"))
}

func TestCleanText(t *testing.T) {
	in := "line one   has    runs\r\n\r\n\r\n\r\nline two\t\t end "
	out := cleanText(in)
	assert.Equal(t, "line one has runs\n\nline two end", out)
}
