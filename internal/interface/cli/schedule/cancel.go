package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewCancelCommand creates the schedule cancel command
func NewCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <schedule-id>",
		Short: "Remove a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			if err := container.GetScheduler().CancelScheduledLoop(cmd.Context(), args[0]); err != nil {
				return err
			}
			return container.GetPresenter().PresentSuccess(fmt.Sprintf("Schedule %s cancelled", args[0]), nil)
		},
	}
}

// NewActiveCommand creates schedule pause (active=false) or resume (active=true)
func NewActiveCommand(use string, active bool) *cobra.Command {
	short := "Stop a schedule from coming due"
	message := "Schedule paused"
	if active {
		short = "Reactivate a paused schedule"
		message = "Schedule resumed"
	}

	return &cobra.Command{
		Use:   use + " <schedule-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			updated, err := container.GetScheduler().SetScheduleActive(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			return container.GetPresenter().PresentSuccess(message, updated)
		},
	}
}
