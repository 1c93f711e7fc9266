package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewUpdateCommand creates the schedule update command
func NewUpdateCommand() *cobra.Command {
	flags := &settingsFlags{}

	cmd := &cobra.Command{
		Use:   "update <schedule-id>",
		Short: "Change the settings of a schedule",
		Long:  "Only the flags given are changed; the next execution is recomputed from now.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			scheduler := container.GetScheduler()
			current, err := scheduler.GetScheduledLoop(ctx, args[0])
			if err != nil {
				return err
			}

			updated, err := scheduler.UpdateSchedule(ctx, args[0], flags.apply(cmd, current.Settings))
			if err != nil {
				return err
			}
			return container.GetPresenter().PresentSuccess("Schedule updated", updated)
		},
	}

	flags.bind(cmd)
	return cmd
}
