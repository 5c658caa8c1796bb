package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser renders pages in headless Chrome for sites that serve an empty
// shell without JS. Expensive, so the router keeps it off the default path.
type Browser struct {
	timeout  time.Duration
	settle   time.Duration
	minChars int
}

func NewBrowser(timeout time.Duration, minChars int) *Browser {
	return &Browser{
		timeout:  timeout,
		settle:   2 * time.Second,
		minChars: minChars,
	}
}

func (b *Browser) Name() string { return "browser" }

func (b *Browser) Attempt(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
		)...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, b.timeout)
	defer cancelRun()

	var body string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(b.settle),
		chromedp.Text("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser render: %w", err)
	}

	text := cleanText(body)
	if len(text) < b.minChars {
		return "", fmt.Errorf("browser got %d chars: %w", len(text), ErrContentTooShort)
	}
	return text, nil
}
