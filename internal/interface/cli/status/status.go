package status

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewCommand creates the status command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current execution",
		Long: `Show the live execution, recovering it first if loopkit exited while it
was running, and the outcome of the last recovery.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			container, err := common.StartContainer(ctx, cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			if err := container.GetPresenter().PresentExecution(container.GetEngine().GetCurrentExecution()); err != nil {
				return err
			}

			if common.JSONOutput() {
				return nil
			}
			rec, err := container.GetStateRepository().LoadRecovery(ctx)
			if err != nil {
				return err
			}
			if rec != nil {
				fmt.Fprintln(cmd.OutOrStdout(), formatRecovery(rec))
			}
			return nil
		},
	}
	return cmd
}

func formatRecovery(rec *repository.RecoveryRecord) string {
	at := rec.At.Local().Format(time.RFC3339)
	switch rec.Outcome {
	case repository.RecoveryRestored:
		return fmt.Sprintf("\nLast recovery: restored %s at %s (%s missed)", rec.ExecutionID, at, rec.MissedTime.Round(time.Second))
	default:
		return fmt.Sprintf("\nLast recovery: discarded %s at %s: %s", rec.ExecutionID, at, rec.Reason)
	}
}
