package pipeline

import (
	"context"
	"fmt"
	"log"

	"jobsift-engine/internal/domain"
)

const defaultMaxRetries = 5

// RetryUnextracted re-runs the post-discovery stages over URLs whose
// extraction previously failed. The extractor's failure log does the
// bookkeeping: another full miss bumps retry_count, a success clears the
// row. URLs at the retry ceiling are left alone.
func (p *Pipeline) RetryUnextracted(ctx context.Context, opts Options, maxRetries int) (Summary, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	pending, err := p.store.ListUnextracted(ctx, maxRetries)
	if err != nil {
		return Summary{}, fmt.Errorf("list unextracted: %w", err)
	}
	if len(pending) == 0 {
		log.Printf("[pipeline] retry: nothing pending")
		return Summary{}, nil
	}

	cands := make([]domain.Candidate, 0, len(pending))
	for _, u := range pending {
		cands = append(cands, domain.Candidate{
			URL:        u.URL,
			Title:      u.Title,
			Snippet:    u.Snippet,
			SourceSite: u.SourceSite,
		})
	}
	log.Printf("[pipeline] retry: %d urls pending", len(cands))

	return p.process(ctx, cands, opts)
}
