package loops

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewListCommand creates the loops list command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog loops",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := common.InitializeContainer(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			loops, err := container.GetLoopCatalog().List(cmd.Context())
			if err != nil {
				return err
			}
			return container.GetPresenter().PresentLoops(loops)
		},
	}
}
