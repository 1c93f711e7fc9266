package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewListCommand creates the schedule list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled loops by next execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			schedules, err := container.GetScheduler().ListScheduledLoops(cmd.Context())
			if err != nil {
				return err
			}
			return container.GetPresenter().PresentSchedules(schedules)
		},
	}
	return cmd
}
