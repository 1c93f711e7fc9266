package cli

import (
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/app"
	infraConfig "github.com/YoshitsuguKoike/loopkit/internal/infra/config"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/history"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/loops"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/run"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/schedule"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/status"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/version"
)

// NewRoot builds the loopkit command tree
func NewRoot() *cobra.Command {
	var (
		home       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:           "loopkit",
		Short:         "Run timed routine loops from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration before any command runs
			// Priority: --home > LOOPKIT_HOME > default
			baseDir := home
			if baseDir == "" {
				baseDir = infraConfig.ResolveHome()
			}

			cfg, err := infraConfig.LoadSettings(common.Fs(), baseDir)
			if err != nil {
				return err
			}
			common.SetGlobalConfig(cfg)
			common.SetJSONOutput(jsonOutput)

			app.SetLogger(app.NewLogger(app.LogLevelFromString(cfg.StderrLevel()), cmd.ErrOrStderr()))
			app.GetLogger().Debug("config loaded from %s (home %s, store %s)", cfg.ConfigSource(), cfg.Home(), cfg.Store())
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}

	cmd.PersistentFlags().StringVar(&home, "home", "", "loopkit home directory (default $LOOPKIT_HOME or .loopkit)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(run.NewCommand())
	cmd.AddCommand(status.NewCommand())
	cmd.AddCommand(history.NewCommand())
	cmd.AddCommand(schedule.NewCommand())
	cmd.AddCommand(loops.NewCommand())
	cmd.AddCommand(version.NewCommand())
	return cmd
}
