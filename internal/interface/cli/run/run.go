package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [loop-id]",
		Short: "Run a loop interactively",
		Long: `Start a loop from the catalog, or resume the interrupted execution when no
loop id is given. Commands are read one per line from stdin:

  n      complete the current activity
  s      skip the current activity
  b      go back to the previous activity
  p / r  pause / resume
  x N    toggle sub-item N of the current activity
  d      detach (the execution keeps running and is recovered on the next run)
  q      stop the loop
  c      cancel the loop
  ?      show help; an empty line shows the current state

Ctrl+Z moves the execution to the background; the next line brings it back.`,
		Example: `  # Start the morning loop
  loopkit run morning

  # Resume whatever was running when loopkit last exited
  loopkit run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, sessionSignals()...)
			defer signal.Stop(signals)

			loopID := ""
			if len(args) == 1 {
				loopID = args[0]
			}
			return runLoop(cmd.Context(), cmd, loopID, signals)
		},
	}
	return cmd
}

func runLoop(ctx context.Context, cmd *cobra.Command, loopID string, signals <-chan os.Signal) error {
	container, err := common.StartContainer(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	engine := container.GetEngine()
	presenter := container.GetPresenter()

	s := newSession(engine, presenter, cmd.OutOrStdout())
	unsubscribe := engine.Subscribe(s.listen)
	defer unsubscribe()

	current := engine.GetCurrentExecution()
	switch {
	case current != nil && (loopID == "" || loopID == current.LoopID):
		if err := engine.OnForeground(ctx); err != nil {
			return err
		}
		if rec, err := container.GetStateRepository().LoadRecovery(ctx); err == nil && rec != nil && rec.ExecutionID == current.ID {
			presenter.PresentSuccess(fmt.Sprintf("Resumed %s (%s missed while away)", current.LoopTitle, rec.MissedTime), nil)
		} else {
			presenter.PresentSuccess(fmt.Sprintf("Resumed %s", current.LoopTitle), nil)
		}

	case loopID == "":
		return fmt.Errorf("no execution to resume; pass a loop id")

	default:
		l, err := container.GetLoopCatalog().FindByID(ctx, loopID)
		if err != nil {
			return err
		}
		if _, err := engine.StartLoop(ctx, l); err != nil {
			return err
		}
	}

	if state := engine.GetCurrentExecution(); state != nil {
		s.track(state)
		if err := presenter.PresentExecution(state); err != nil {
			return err
		}
	}
	return s.run(ctx, cmd.InOrStdin(), signals)
}
