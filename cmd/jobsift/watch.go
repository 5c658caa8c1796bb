package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"jobsift-engine/internal/pipeline"
	"jobsift-engine/internal/scheduler"
	"jobsift-engine/internal/usage"
)

func newWatchCmd(flags *appFlags) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run discovery rounds on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			defer a.close()

			scheduler.Every(cmd.Context(), interval, "discover", func(ctx context.Context) error {
				// fresh tracker per round so each report covers one round
				tracker := usage.NewTracker("watch")
				p, err := buildPipeline(a, tracker, true)
				if err != nil {
					return err
				}
				defer saveUsage(a, tracker)

				var sum pipeline.Summary
				if sum, err = p.Run(ctx, pipelineOptions(a)); err != nil {
					return err
				}
				printSummary(sum)
				return nil
			})
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 6*time.Hour, "time between discovery rounds")
	return cmd
}
