package loops

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

// NewValidateCommand creates the loops validate command
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every catalog loop can be executed",
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

			out := cmd.OutOrStdout()
			invalid := 0
			for _, l := range loops {
				if err := l.Validate(); err != nil {
					invalid++
					fmt.Fprintf(out, "✗ %s: %v\n", l.ID, err)
					continue
				}
				fmt.Fprintf(out, "✓ %s\n", l.ID)
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d loops are invalid", invalid, len(loops))
			}
			fmt.Fprintf(out, "All %d loops are valid\n", len(loops))
			return nil
		},
	}
}
