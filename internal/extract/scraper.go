package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const scraperUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Scraper does a plain HTTP fetch and strips the HTML down to text. Last
// resort: works on static pages, gets nothing from JS-rendered shells.
type Scraper struct {
	hc       *http.Client
	minChars int
}

func NewScraper(timeout time.Duration, minChars int) *Scraper {
	return &Scraper{
		hc:       &http.Client{Timeout: timeout},
		minChars: minChars,
	}
}

func (s *Scraper) Name() string { return "scraper" }

func (s *Scraper) Attempt(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", scraperUA)

	res, err := s.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("scraper fetch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraper status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("scraper parse: %w", err)
	}

	doc.Find("script, style, nav, footer, header, noscript, iframe").Remove()

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		sb.WriteString(sel.Text())
		sb.WriteString("\n")
	})

	text := cleanText(sb.String())
	if len(text) < s.minChars {
		return "", fmt.Errorf("scraper got %d chars: %w", len(text), ErrContentTooShort)
	}
	return text, nil
}
