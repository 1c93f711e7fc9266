package loops

import (
	"github.com/spf13/cobra"
)

// NewCommand creates the loops command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loops",
		Short: "Inspect the loop catalog",
		Long:  "Commands for reading loops.yaml",
	}

	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewValidateCommand())

	return cmd
}
