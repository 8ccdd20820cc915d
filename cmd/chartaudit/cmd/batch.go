package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ggvfx/precision-color-auditor/pkg/audit"
)

// NewBatchCmd audits every job file found in the args, in parallel.
func NewBatchCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [job.yaml|dir]...",
		Short: "audit many images",
		Long:  "Finds job YAML files (recursing into directories) and audits them on a pool of workers. One image failing does not stop the others.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			workers, _ := cmd.Flags().GetInt("workers")

			jobs, err := audit.LoadJobs(cfg, args...)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return fmt.Errorf("no job files found in %v", args)
			}

			results := audit.RunBatch(ctx, jobs, workers)
			for _, br := range results {
				fmt.Println(br)
			}
			summary := audit.Summarize(results)
			fmt.Print(summary)

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d images failed", summary.Failed, summary.Jobs)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.IntP("workers", "w", 4, "images to audit at once")

	return cmd
}
