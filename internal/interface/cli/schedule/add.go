package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewAddCommand creates the schedule add command
func NewAddCommand() *cobra.Command {
	flags := &settingsFlags{}

	cmd := &cobra.Command{
		Use:   "add <loop-id>",
		Short: "Schedule a loop from the catalog",
		Long: `Schedule a loop. Without --time the loop's own schedule block from
loops.yaml is used.`,
		Example: `  # Every day at 07:30
  loopkit schedule add morning --time 07:30

  # Monday, Wednesday and Friday with a reminder and auto-start
  loopkit schedule add morning --frequency weekly --days 1,3,5 --time 08:00 --reminder 10 --auto-start`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			l, err := container.GetLoopCatalog().FindByID(ctx, args[0])
			if err != nil {
				return err
			}

			var base loop.ScheduleSettings
			if l.Schedule != nil {
				base = *l.Schedule
			}
			settings := flags.apply(cmd, base)
			if settings.Time == "" {
				return fmt.Errorf("--time is required when loop %s has no schedule", l.ID)
			}

			scheduled, err := container.GetScheduler().ScheduleLoop(ctx, l, settings)
			if err != nil {
				return err
			}
			return container.GetPresenter().PresentSuccess("Loop scheduled", scheduled)
		},
	}

	flags.bind(cmd)
	return cmd
}
