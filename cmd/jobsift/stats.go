package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobsift-engine/internal/usage"
)

func newStatsCmd(flags *appFlags) *cobra.Command {
	var skillCategory string
	var topSkills int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics and top skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.db.Stats(cmd.Context())
			if err != nil {
				return err
			}
			skills, err := a.db.TopSkills(cmd.Context(), skillCategory, topSkills)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"stats":  stats,
					"skills": skills,
				})
			}

			fmt.Printf("jobs stored:    %d (avg score %.1f)\n", stats.TotalJobs, stats.AverageScore)
			fmt.Printf("unextracted:    %d\n", stats.Unextracted)
			if stats.AverageYoE > 0 {
				fmt.Printf("avg yoe stated: %.1f\n", stats.AverageYoE)
			}
			if len(stats.PreFiltered) > 0 {
				fmt.Println("pre-filtered:")
				for reason, n := range stats.PreFiltered {
					fmt.Printf("  %-22s %d\n", reason, n)
				}
			}
			if len(stats.JobsBySourceSite) > 0 {
				fmt.Println("by source site:")
				for site, n := range stats.JobsBySourceSite {
					fmt.Printf("  %-22s %d\n", site, n)
				}
			}
			if len(stats.TopCompanies) > 0 {
				fmt.Println("top companies:")
				for company, n := range stats.TopCompanies {
					fmt.Printf("  %-22s %d\n", company, n)
				}
			}
			if len(skills) > 0 {
				fmt.Println("top skills:")
				for _, sc := range skills {
					fmt.Printf("  %-22s %-18s %d\n", sc.Skill, sc.Category, sc.TimesSeen)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&skillCategory, "category", "", "limit top skills to one role category")
	cmd.Flags().IntVar(&topSkills, "top", 20, "number of top skills to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")
	return cmd
}

func newUsageCmd(flags *appFlags) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Aggregate API usage and cost over recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := flags.dataDir
			if dataDir == "" {
				dataDir = os.Getenv("JOBSIFT_DATA_DIR")
			}
			if dataDir == "" {
				dataDir = "data"
			}

			totals, err := usage.HistoricalUsage(filepath.Join(dataDir, "usage"), days)
			if err != nil {
				return err
			}
			fmt.Printf("runs:           %d (last %d days)\n", totals.Reports, days)
			fmt.Printf("search queries: %d\n", totals.SearchQueries)
			fmt.Printf("llm tokens:     %d\n", totals.LLMTokens)
			fmt.Printf("jobs saved:     %d\n", totals.JobsSaved)
			fmt.Printf("estimated cost: $%.4f\n", totals.TotalCost)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "trailing window in days")
	return cmd
}
