package extract

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"jobsift-engine/internal/domain"
	"jobsift-engine/internal/usage"
)

// FailureLog records URLs whose extraction exhausted every method, and
// clears them once a later run succeeds. Implemented by the store.
type FailureLog interface {
	RecordFailure(ctx context.Context, cand domain.Candidate, attempted []string, errMsg string) error
	ClearFailure(ctx context.Context, url string) error
}

// Engine routes each URL through the extraction methods in cost order and
// falls back until one produces enough text. JS-heavy sites go browser-first
// since the cheap methods only see their empty shells.
type Engine struct {
	reader  Method
	browser Method
	scraper Method

	jsHeavy  map[string]bool
	workers  int
	limiter  *HostLimiter
	tracker  *usage.Tracker
	failures FailureLog
}

type Options struct {
	JSHeavySites  []string
	Workers       int
	HostReqPerSec float64
	Tracker       *usage.Tracker
	Failures      FailureLog
}

func NewEngine(reader, browser, scraper Method, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.HostReqPerSec <= 0 {
		opts.HostReqPerSec = 1
	}
	js := make(map[string]bool, len(opts.JSHeavySites))
	for _, s := range opts.JSHeavySites {
		js[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return &Engine{
		reader:   reader,
		browser:  browser,
		scraper:  scraper,
		jsHeavy:  js,
		workers:  opts.Workers,
		limiter:  NewHostLimiter(opts.HostReqPerSec, 1),
		tracker:  opts.Tracker,
		failures: opts.Failures,
	}
}

// order returns the method sequence for a URL. The scraper is always the
// final fallback.
func (e *Engine) order(url string) []Method {
	if e.jsHeavy[BaseDomain(url)] {
		return []Method{e.browser, e.reader, e.scraper}
	}
	return []Method{e.reader, e.browser, e.scraper}
}

// ExtractOne tries methods in order until one yields enough text.
func (e *Engine) ExtractOne(ctx context.Context, cand domain.Candidate) Result {
	res := Result{URL: cand.URL}

	var lastErr error
	for _, m := range e.order(cand.URL) {
		if m == nil {
			continue
		}
		if err := e.limiter.WaitURL(ctx, cand.URL); err != nil {
			res.Err = err
			return res
		}
		res.Attempted = append(res.Attempted, m.Name())
		text, err := m.Attempt(ctx, cand.URL)
		if err == nil {
			res.Text = text
			res.Method = m.Name()
			if e.tracker != nil {
				e.tracker.LogExtraction(cand.URL, m.Name(), true, "")
			}
			if e.failures != nil {
				if cerr := e.failures.ClearFailure(ctx, cand.URL); cerr != nil {
					log.Printf("[extract] clear failure url=%q err=%v", cand.URL, cerr)
				}
			}
			return res
		}
		lastErr = err
		log.Printf("[extract] method=%s url=%q err=%v", m.Name(), cand.URL, err)
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
	}

	res.Err = fmt.Errorf("all methods failed: %w", lastErr)
	if e.tracker != nil {
		last := ""
		if n := len(res.Attempted); n > 0 {
			last = res.Attempted[n-1]
		}
		e.tracker.LogExtraction(cand.URL, last, false, res.Err.Error())
	}
	if e.failures != nil {
		if rerr := e.failures.RecordFailure(ctx, cand, res.Attempted, res.Err.Error()); rerr != nil {
			log.Printf("[extract] record failure url=%q err=%v", cand.URL, rerr)
		}
	}
	return res
}

// ExtractBatch runs candidates through a bounded worker pool. Results come
// back in input order; per-URL failures are carried in Result.Err, never
// returned as the batch error.
func (e *Engine) ExtractBatch(ctx context.Context, cands []domain.Candidate) ([]Result, error) {
	results := make([]Result, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	idx := make(chan int)

	g.Go(func() error {
		defer close(idx)
		for i := range cands {
			select {
			case idx <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < e.workers; w++ {
		g.Go(func() error {
			for i := range idx {
				results[i] = e.ExtractOne(gctx, cands[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
