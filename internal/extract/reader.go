package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Reader fetches pages through a text-rendering proxy (r.jina.ai by default)
// that returns the page as plain markdown. Cheapest method that handles
// moderate JS.
type Reader struct {
	hc       *http.Client
	endpoint string
	minChars int
}

func NewReader(endpoint string, timeout time.Duration, minChars int) *Reader {
	return &Reader{
		hc:       &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(endpoint, "/"),
		minChars: minChars,
	}
}

func (r *Reader) Name() string { return "reader" }

func (r *Reader) Attempt(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/"+url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")

	res, err := r.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("reader fetch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("reader read: %w", err)
	}

	text := cleanText(string(body))
	if len(text) < r.minChars {
		return "", fmt.Errorf("reader got %d chars: %w", len(text), ErrContentTooShort)
	}
	return text, nil
}
