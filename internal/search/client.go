package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"jobsift-engine/internal/domain"
	"jobsift-engine/internal/usage"
)

const (
	// The API serves at most 10 results per page and 100 per query.
	pageSize      = 10
	maxPerQuery   = 100
	maxPageTries  = 3
	defaultAPIURL = "https://www.googleapis.com/customsearch/v1"
)

// Mode selects how keywords and sites are combined into queries.
type Mode string

const (
	ModeStandard      Mode = "standard"
	ModePerSite       Mode = "per_site"
	ModeComprehensive Mode = "comprehensive"
)

// Request describes one discovery round.
type Request struct {
	Keywords     []string
	Sites        []string
	NumResults   int
	DateRestrict string
	Mode         Mode
}

// Batch is the deduplicated candidate list plus raw-vs-unique counts.
type Batch struct {
	Candidates []domain.Candidate
	Raw        int
	Unique     int
}

// Client wraps the Custom Search JSON API. Individual query failures are
// logged into the usage tracker and never abort the round; whatever was
// collected is always returned.
type Client struct {
	hc      *http.Client
	apiKey  string
	cseID   string
	baseURL string
	backoff time.Duration
	limiter *rate.Limiter
	tracker *usage.Tracker
}

func NewClient(apiKey, cseID string, tracker *usage.Tracker) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		cseID:   cseID,
		baseURL: defaultAPIURL,
		backoff: time.Second,
		// polite gap between pages; the free tier throttles hard
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		tracker: tracker,
	}
}

// WithBaseURL points the client at a different endpoint. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Find runs the request in its configured mode and returns deduplicated
// candidates.
func (c *Client) Find(ctx context.Context, req Request) (Batch, error) {
	if req.NumResults <= 0 || req.NumResults > maxPerQuery {
		req.NumResults = maxPerQuery
	}

	var raw []domain.Candidate
	switch req.Mode {
	case ModePerSite:
		// one keyword set, issued once per site, N results per site
		for _, site := range req.Sites {
			q := BuildQuery(req.Keywords, []string{site})
			got := c.search(ctx, strings.Join(req.Keywords, ","), site, q, req.DateRestrict, req.NumResults)
			raw = append(raw, got...)
		}
	case ModeComprehensive:
		// full cartesian product, each pair issued once
		for _, kw := range req.Keywords {
			for _, site := range req.Sites {
				q := BuildQuery([]string{kw}, []string{site})
				got := c.search(ctx, kw, site, q, req.DateRestrict, req.NumResults)
				raw = append(raw, got...)
			}
		}
	default:
		// standard: one query per keyword, merged across all sites
		for _, kw := range req.Keywords {
			q := BuildQuery([]string{kw}, req.Sites)
			got := c.search(ctx, kw, strings.Join(req.Sites, ","), q, req.DateRestrict, req.NumResults)
			raw = append(raw, got...)
			if len(raw) >= req.NumResults {
				raw = raw[:req.NumResults]
				break
			}
		}
	}

	unique := dedupeByURL(raw)
	batch := Batch{Candidates: unique, Raw: len(raw), Unique: len(unique)}
	if c.tracker != nil {
		c.tracker.SetUniqueResults(len(unique))
	}
	log.Printf("[search] mode=%s queries done raw=%d unique=%d", req.Mode, batch.Raw, batch.Unique)
	return batch, nil
}

type apiItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

type apiResponse struct {
	Items []apiItem `json:"items"`
}

// search runs one query with pagination. Page failures are retried a bounded
// number of times with backoff; a query that keeps failing is logged and
// skipped, returning whatever pages succeeded.
func (c *Client) search(ctx context.Context, keyword, site, query, dateRestrict string, numResults int) []domain.Candidate {
	var out []domain.Candidate
	var lastErr error

	for start := 1; start <= numResults; start += pageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		num := pageSize
		if remaining := numResults - len(out); remaining < num {
			num = remaining
		}
		if num <= 0 {
			break
		}

		items, err := c.fetchPage(ctx, query, dateRestrict, start, num)
		if err != nil {
			lastErr = err
			log.Printf("[search] query failed keyword=%q site=%q start=%d err=%v", keyword, site, start, err)
			break
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			out = append(out, domain.Candidate{
				URL:        it.Link,
				Title:      it.Title,
				Snippet:    it.Snippet,
				SourceSite: it.DisplayLink,
			})
		}
		if len(out) >= numResults {
			break
		}
	}

	if c.tracker != nil {
		errMsg := ""
		if lastErr != nil {
			errMsg = lastErr.Error()
		}
		c.tracker.LogSearchQuery(keyword, site, lastErr == nil, len(out), errMsg)
	}
	return out
}

func (c *Client) fetchPage(ctx context.Context, query, dateRestrict string, start, num int) ([]apiItem, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cseID)
	params.Set("q", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("num", strconv.Itoa(num))
	if dateRestrict != "" {
		params.Set("dateRestrict", dateRestrict)
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 1; attempt <= maxPageTries; attempt++ {
		items, retryable, err := c.doPage(ctx, params)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("page fetch exhausted %d attempts: %w", maxPageTries, lastErr)
}

func (c *Client) doPage(ctx context.Context, params url.Values) (items []apiItem, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, err
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, true, fmt.Errorf("search read body: %w", err)
	}

	if res.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "rateLimitExceeded") {
		return nil, false, fmt.Errorf("search quota exhausted (status %d)", res.StatusCode)
	}
	if res.StatusCode >= 400 {
		return nil, res.StatusCode >= 500, fmt.Errorf("search status %d", res.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("search decode: %w", err)
	}
	return parsed.Items, false, nil
}

func dedupeByURL(in []domain.Candidate) []domain.Candidate {
	seen := map[string]bool{}
	out := make([]domain.Candidate, 0, len(in))
	for _, c := range in {
		u := strings.TrimSpace(c.URL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, c)
	}
	return out
}
