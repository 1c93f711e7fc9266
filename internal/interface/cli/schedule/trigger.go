package schedule

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewTriggerCommand creates the schedule trigger command
func NewTriggerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <schedule-id>",
		Short: "Record an occurrence as executed and advance to the next one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			triggered, err := container.GetScheduler().TriggerScheduledLoop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return container.GetPresenter().PresentSuccess("Schedule triggered", triggered)
		},
	}
}
