package loops

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewShowCommand creates the loops show command
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <loop-id>",
		Short: "Show a loop and its activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			l, err := container.GetLoopCatalog().FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return container.GetPresenter().PresentSuccess(l.Title, l)
		},
	}
}
