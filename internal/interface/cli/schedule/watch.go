package schedule

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewWatchCommand creates the schedule watch command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll schedules until interrupted",
		Long: `Run the scheduler in the foreground. Schedules are polled every
schedule_poll_sec seconds; auto-start schedules start their loop, which keeps
running in this process and is recovered by the next loopkit run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			container, err := common.StartContainer(ctx, cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			if err := container.StartScheduler(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching schedules every %s (Ctrl-C to stop)\n", common.GetGlobalConfig().SchedulePoll())

			<-ctx.Done()
			return nil
		},
	}
}
