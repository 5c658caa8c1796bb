package pipeline

import (
	"context"
	"fmt"
	"log"

	"jobsift-engine/internal/domain"
	"jobsift-engine/internal/extract"
	"jobsift-engine/internal/filter"
	"jobsift-engine/internal/rank"
	"jobsift-engine/internal/search"
	"jobsift-engine/internal/usage"
)

// Dependencies are expressed as interfaces so tests can run the whole
// pipeline with fakes. The real implementations live in search, extract,
// parse, alerts, and store.

type Searcher interface {
	Find(ctx context.Context, req search.Request) (search.Batch, error)
}

type Extractor interface {
	ExtractBatch(ctx context.Context, cands []domain.Candidate) ([]extract.Result, error)
}

type Parser interface {
	ParseOne(ctx context.Context, res extract.Result) (domain.StructuredJob, error)
}

type AlertSource interface {
	Fetch(ctx context.Context, sites []string) ([]domain.Candidate, error)
}

type Store interface {
	SaveBatch(ctx context.Context, jobs []domain.ScoredJob) (saved, skipped int, inserted []domain.JobRecord, err error)
	HasJob(ctx context.Context, url string) (bool, error)
	SavePreFiltered(ctx context.Context, pf domain.PreFilteredJob) error
	WasPreFiltered(ctx context.Context, url string) (bool, error)
	RecordSkills(ctx context.Context, job domain.StructuredJob) error
	ListUnextracted(ctx context.Context, maxRetries int) ([]domain.UnextractedJob, error)
}

// Options carries the per-run knobs the stages need.
type Options struct {
	SearchRequest    search.Request
	Profile          domain.Profile
	PreFilterEnabled bool
	MinScore         int
}

// Summary is what a run reports back to the CLI.
type Summary struct {
	Searched     int
	EarlySkipped int
	Extracted    int
	PreFiltered  int
	Parsed       int
	Scored       int
	Saved        int
	Skipped      int
	NewJobs      []domain.JobRecord
}

type Pipeline struct {
	searcher  Searcher
	alerts    AlertSource
	extractor Extractor
	parser    Parser
	store     Store
	tracker   *usage.Tracker
}

func New(searcher Searcher, alerts AlertSource, extractor Extractor, parser Parser, store Store, tracker *usage.Tracker) *Pipeline {
	return &Pipeline{
		searcher:  searcher,
		alerts:    alerts,
		extractor: extractor,
		parser:    parser,
		store:     store,
		tracker:   tracker,
	}
}

// Run executes one discovery round: search, early filter, extract, pre-filter,
// parse, score, save. Per-item failures are logged and skipped; only
// infrastructure failures (search, store) abort the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	batch, err := p.searcher.Find(ctx, opts.SearchRequest)
	if err != nil {
		return Summary{}, fmt.Errorf("search: %w", err)
	}
	cands := batch.Candidates

	if p.alerts != nil {
		mined, err := p.alerts.Fetch(ctx, opts.SearchRequest.Sites)
		if err != nil {
			// alert mining is a supplement; a dead mailbox must not kill the run
			log.Printf("[pipeline] alerts source failed: %v", err)
			if p.tracker != nil {
				p.tracker.LogError("alerts", err.Error())
			}
		} else {
			cands = mergeCandidates(cands, mined)
		}
	}

	return p.process(ctx, cands, opts)
}

// process runs candidates through every stage after discovery. Shared by Run
// and RetryUnextracted.
func (p *Pipeline) process(ctx context.Context, cands []domain.Candidate, opts Options) (Summary, error) {
	var sum Summary
	sum.Searched = len(cands)

	// Cheap gates first: profile screen, then URLs already settled in the
	// store from earlier runs.
	var toExtract []domain.Candidate
	for _, cand := range cands {
		if dec := filter.EarlyFilter(cand, opts.Profile); !dec.Keep {
			sum.EarlySkipped++
			log.Printf("[pipeline] early skip url=%q reason=%s", cand.URL, dec.Reason)
			continue
		}
		if seen, err := p.store.HasJob(ctx, cand.URL); err != nil {
			return sum, fmt.Errorf("dedup lookup: %w", err)
		} else if seen {
			sum.EarlySkipped++
			continue
		}
		if rejected, err := p.store.WasPreFiltered(ctx, cand.URL); err != nil {
			return sum, fmt.Errorf("prefilter lookup: %w", err)
		} else if rejected {
			sum.EarlySkipped++
			continue
		}
		toExtract = append(toExtract, cand)
	}

	results, err := p.extractor.ExtractBatch(ctx, toExtract)
	if err != nil {
		return sum, fmt.Errorf("extract: %w", err)
	}

	var scored []domain.ScoredJob
	for i, res := range results {
		if !res.OK() {
			continue
		}
		sum.Extracted++
		cand := toExtract[i]

		if pf := filter.PreFilter(res.Text, opts.Profile, opts.PreFilterEnabled); !pf.Keep {
			sum.PreFiltered++
			err := p.store.SavePreFiltered(ctx, domain.PreFilteredJob{
				URL:            cand.URL,
				Title:          cand.Title,
				Snippet:        cand.Snippet,
				SourceSite:     cand.SourceSite,
				FilterReason:   pf.Rule,
				FilterDetails:  pf.Detail,
				ContentPreview: res.Text,
			})
			if err != nil {
				return sum, fmt.Errorf("save pre-filtered: %w", err)
			}
			continue
		}

		job, err := p.parser.ParseOne(ctx, res)
		if err != nil {
			log.Printf("[pipeline] parse failed url=%q err=%v", res.URL, err)
			if p.tracker != nil {
				p.tracker.LogError("parse", err.Error())
			}
			continue
		}
		sum.Parsed++

		if err := p.store.RecordSkills(ctx, job); err != nil {
			log.Printf("[pipeline] record skills url=%q err=%v", res.URL, err)
		}

		dec := rank.Evaluate(job, opts.Profile, opts.MinScore)
		if !dec.Accept {
			log.Printf("[pipeline] rejected url=%q reason=%s score=%d", res.URL, dec.Reason, dec.Score.Total)
			continue
		}
		sum.Scored++
		scored = append(scored, domain.ScoredJob{
			Job:        job,
			Score:      dec.Score.Total,
			URL:        cand.URL,
			SourceSite: cand.SourceSite,
		})
	}

	saved, skipped, inserted, err := p.store.SaveBatch(ctx, scored)
	if err != nil {
		return sum, fmt.Errorf("save batch: %w", err)
	}
	sum.Saved = saved
	sum.Skipped = skipped
	sum.NewJobs = inserted

	if p.tracker != nil {
		p.tracker.SetStageCounts(usage.StageCounts{
			Searched:     sum.Searched,
			EarlySkipped: sum.EarlySkipped,
			Extracted:    sum.Extracted,
			PreFiltered:  sum.PreFiltered,
			Parsed:       sum.Parsed,
			Scored:       sum.Scored,
			Saved:        sum.Saved,
			Skipped:      sum.Skipped,
		})
	}
	log.Printf("[pipeline] done searched=%d early_skipped=%d extracted=%d pre_filtered=%d parsed=%d scored=%d saved=%d skipped=%d",
		sum.Searched, sum.EarlySkipped, sum.Extracted, sum.PreFiltered, sum.Parsed, sum.Scored, sum.Saved, sum.Skipped)
	return sum, nil
}

// mergeCandidates appends extras not already present by URL.
func mergeCandidates(base, extras []domain.Candidate) []domain.Candidate {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.URL] = true
	}
	out := base
	for _, c := range extras {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}
