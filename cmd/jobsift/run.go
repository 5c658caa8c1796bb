package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"

	"jobsift-engine/internal/alerts"
	"jobsift-engine/internal/extract"
	"jobsift-engine/internal/parse"
	"jobsift-engine/internal/pipeline"
	"jobsift-engine/internal/search"
	"jobsift-engine/internal/secrets"
	"jobsift-engine/internal/usage"
)

func newRunCmd(flags *appFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one discovery round: search, extract, parse, score, save",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			defer a.close()

			tracker := usage.NewTracker("run")
			p, err := buildPipeline(a, tracker, true)
			if err != nil {
				return err
			}
			defer saveUsage(a, tracker)

			sum, err := p.Run(cmd.Context(), pipelineOptions(a))
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		},
	}
}

func newRetryCmd(flags *appFlags) *cobra.Command {
	var maxRetries int
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-attempt extraction for previously failed URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			defer a.close()

			tracker := usage.NewTracker("retry")
			p, err := buildPipeline(a, tracker, false)
			if err != nil {
				return err
			}
			defer saveUsage(a, tracker)

			sum, err := p.RetryUnextracted(cmd.Context(), pipelineOptions(a), maxRetries)
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxRetries, "max-retries", 5, "skip URLs that already failed this many times")
	return cmd
}

// buildPipeline assembles the real stage implementations. withSearch=false
// skips the search client and its API key requirement, for retry runs.
func buildPipeline(a *app, tracker *usage.Tracker, withSearch bool) (*pipeline.Pipeline, error) {
	var searcher pipeline.Searcher
	if withSearch {
		googleKey, err := secrets.GoogleAPIKey()
		if err != nil {
			return nil, err
		}
		searcher = search.NewClient(googleKey, a.cfg.Search.CSEID, tracker)
	}

	openaiKey, err := secrets.OpenAIAPIKey()
	if err != nil {
		return nil, err
	}
	model, err := openai.New(openai.WithToken(openaiKey), openai.WithModel(a.cfg.LLM.Model))
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	timeout := time.Duration(a.cfg.Extract.TimeoutSeconds) * time.Second
	minChars := a.cfg.Extract.MinContentChars
	engine := extract.NewEngine(
		extract.NewReader(a.cfg.Extract.ReaderEndpoint, timeout, minChars),
		extract.NewBrowser(timeout, minChars),
		extract.NewScraper(timeout, minChars),
		extract.Options{
			JSHeavySites:  a.cfg.Extract.JSHeavySites,
			Workers:       a.cfg.Extract.Workers,
			HostReqPerSec: a.cfg.Extract.HostReqPerSec,
			Tracker:       tracker,
			Failures:      a.db,
		},
	)

	parser := parse.New(model, parse.Config{
		ModelName:       a.cfg.LLM.Model,
		MaxAttempts:     a.cfg.LLM.MaxAttempts,
		MaxContentChars: a.cfg.LLM.MaxContentChars,
		MaxTokens:       a.cfg.LLM.MaxTokens,
	}, tracker)

	var alertSource pipeline.AlertSource
	if withSearch && a.cfg.Alerts.Enabled {
		alertSource = alerts.NewSource(a.cfg.Alerts)
	}

	return pipeline.New(searcher, alertSource, engine, parser, a.db, tracker), nil
}

func pipelineOptions(a *app) pipeline.Options {
	return pipeline.Options{
		SearchRequest: search.Request{
			Keywords:     a.cfg.Search.Keywords,
			Sites:        a.cfg.Search.Sites,
			NumResults:   a.cfg.Search.NumResults,
			DateRestrict: a.cfg.Search.DateRestrict,
			Mode:         search.Mode(a.cfg.Search.Mode),
		},
		Profile:          a.cfg.Profile,
		PreFilterEnabled: a.cfg.PreFilter.Enabled,
		MinScore:         a.cfg.Scoring.MinScore,
	}
}

func saveUsage(a *app, tracker *usage.Tracker) {
	path, err := tracker.SaveReport(filepath.Join(a.dataDir, "usage"))
	if err != nil {
		log.Printf("[usage] save report: %v", err)
		return
	}
	log.Printf("[usage] report written to %s", path)
}

func printSummary(sum pipeline.Summary) {
	fmt.Printf("searched:      %d\n", sum.Searched)
	fmt.Printf("early skipped: %d\n", sum.EarlySkipped)
	fmt.Printf("extracted:     %d\n", sum.Extracted)
	fmt.Printf("pre-filtered:  %d\n", sum.PreFiltered)
	fmt.Printf("parsed:        %d\n", sum.Parsed)
	fmt.Printf("scored:        %d\n", sum.Scored)
	fmt.Printf("saved:         %d (skipped %d duplicates)\n", sum.Saved, sum.Skipped)
	for _, rec := range sum.NewJobs {
		fmt.Printf("  [%3d] %s - %s (%s)\n", rec.Score, rec.Job.Company, rec.Job.Title, rec.URL)
	}
}
