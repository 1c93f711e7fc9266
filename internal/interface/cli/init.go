package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	infraConfig "github.com/YoshitsuguKoike/loopkit/internal/infra/config"
	"github.com/YoshitsuguKoike/loopkit/internal/infra/persistence/file"
	"github.com/YoshitsuguKoike/loopkit/internal/interface/cli/common"
)

const sampleLoops = `version: 1
loops:
  - id: morning
    title: Morning Routine
    background_execution: true
    notifications:
      enabled: true
      activity_start: true
      activity_complete: true
      loop_complete: true
    activities:
      - id: stretch
        template_id: stretch
        duration_minutes: 5
        order: 0
      - id: journal
        template_id: journal
        title: Journal
        order: 1
        sub_items:
          - label: gratitude
          - label: plan the day
      - id: breathe
        template_id: breathing
        duration_minutes: 3
        order: 2
        skippable: false
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create setting.json and a sample loops.yaml",
		Long: `Initialize the loopkit home directory.
setting.json is written with default values and loops.yaml receives a sample loop.
Existing files are kept unless --force is given.`,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg := common.GetGlobalConfig()
			fs := common.Fs()
			out := c.OutOrStdout()

			if err := fs.MkdirAll(cfg.Home(), 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", cfg.Home(), err)
			}

			settingPath := filepath.Join(cfg.Home(), infraConfig.SettingFile)
			if err := writeInitFile(fs, out, settingPath, infraConfig.CreateDefaultSettings(), force); err != nil {
				return err
			}
			if err := writeInitFile(fs, out, cfg.LoopsFile(), []byte(sampleLoops), force); err != nil {
				return err
			}

			fmt.Fprintf(out, "Initialized loopkit in %s\n", cfg.Home())
			fmt.Fprintln(out, "Next: loopkit loops list, then loopkit run morning")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func writeInitFile(fs afero.Fs, out io.Writer, path string, content []byte, force bool) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if exists && !force {
		fmt.Fprintf(out, "SKIP: %s (exists; use --force to overwrite)\n", path)
		return nil
	}
	if err := file.WriteFileAtomic(fs, path, content); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if exists {
		fmt.Fprintf(out, "WROTE (force): %s\n", path)
	} else {
		fmt.Fprintf(out, "WROTE: %s\n", path)
	}
	return nil
}
