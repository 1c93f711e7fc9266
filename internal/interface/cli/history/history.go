package history

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewCommand creates the history command
func NewCommand() *cobra.Command {
	var (
		limit    int
		loopID   string
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished executions",
		Example: `  # Last 10 runs
  loopkit history --limit 10

  # Runs of one loop
  loopkit history --loop morning

  # Forget all runs
  loopkit history --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			container, err := common.StartContainer(ctx, cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			engine := container.GetEngine()
			presenter := container.GetPresenter()

			if clearAll {
				if err := engine.ClearHistory(ctx); err != nil {
					return err
				}
				return presenter.PresentSuccess("History cleared", nil)
			}

			entries, err := engine.History(ctx, 0)
			if err != nil {
				return err
			}
			if loopID != "" {
				entries = execution.FilterByLoop(entries, loopID)
			}
			stats := execution.ComputeStats(entries)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			return presenter.PresentHistory(entries, stats)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 = all)")
	cmd.Flags().StringVar(&loopID, "loop", "", "Only show runs of this loop")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all history")
	return cmd
}
