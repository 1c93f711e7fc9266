package common

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/infrastructure/di"
)

// InitializeContainer creates a DI container from the loaded configuration,
// writing presenter output to the command's stdout and notifications to its
// stderr
func InitializeContainer(cmd *cobra.Command) (*di.Container, error) {
	cfg := GetGlobalConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	format := "cli"
	if JSONOutput() {
		format = "json"
	}

	return di.NewContainer(di.Config{
		App:          cfg,
		Fs:           Fs(),
		OutputFormat: format,
		OutputWriter: cmd.OutOrStdout(),
		NotifyWriter: cmd.ErrOrStderr(),
		Clock:        Clock(),
		Logger:       app.GetLogger(),
	})
}

// StartContainer builds the container and initializes the engine, which
// runs crash recovery
func StartContainer(ctx context.Context, cmd *cobra.Command) (*di.Container, error) {
	container, err := InitializeContainer(cmd)
	if err != nil {
		return nil, err
	}
	if err := container.Start(ctx); err != nil {
		_ = container.Close()
		return nil, err
	}
	return container, nil
}
