package schedule

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewDueCommand creates the schedule due command
func NewDueCommand() *cobra.Command {
	var poll bool

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List schedules that are due now",
		Long: `List active schedules whose next execution has arrived.
With --poll, one scheduler pass runs instead: reminders are sent, auto-start
schedules start their loop and the others raise a due notification.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !poll {
				container, err := common.InitializeContainer(cmd)
				if err != nil {
					return fmt.Errorf("failed to initialize container: %w", err)
				}
				defer container.Close()

				due, err := container.GetScheduler().CheckDueSchedules(ctx)
				if err != nil {
					return err
				}
				return container.GetPresenter().PresentSchedules(due)
			}

			container, err := common.StartContainer(ctx, cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			res, err := container.GetPoller().Poll(ctx)
			if err != nil {
				return err
			}
			summary := fmt.Sprintf("Poll: %d reminded, %d started, %d notified, %d failed",
				len(res.Reminded), len(res.Started), len(res.Notified), len(res.Failed))
			if len(res.Failed) > 0 {
				summary += " (" + strings.Join(res.Failed, ", ") + ")"
			}
			return container.GetPresenter().PresentSuccess(summary, nil)
		},
	}

	cmd.Flags().BoolVar(&poll, "poll", false, "Run one scheduler pass")
	return cmd
}
