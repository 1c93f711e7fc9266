package common

import (
	"sync"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/loopkit/internal/app/config"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

var (
	mu sync.RWMutex

	// globalConfig holds the loaded configuration for all commands
	globalConfig config.Config

	// jsonOutput selects the JSON presenter (--json)
	jsonOutput bool

	fs  afero.Fs    = afero.NewOsFs()
	clk clock.Clock = clock.SystemClock{}
)

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(cfg config.Config) {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() config.Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// SetJSONOutput toggles JSON output for every command
func SetJSONOutput(on bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOutput = on
}

// JSONOutput reports whether --json was given
func JSONOutput() bool {
	mu.RLock()
	defer mu.RUnlock()
	return jsonOutput
}

// Fs returns the filesystem commands read and write through
func Fs() afero.Fs {
	mu.RLock()
	defer mu.RUnlock()
	return fs
}

// Clock returns the time source handed to the container
func Clock() clock.Clock {
	mu.RLock()
	defer mu.RUnlock()
	return clk
}

// SetEnvironment replaces the filesystem and clock, returning a func that
// restores the previous ones
func SetEnvironment(newFs afero.Fs, newClock clock.Clock) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prevFs, prevClock := fs, clk
	fs, clk = newFs, newClock
	return func() {
		mu.Lock()
		defer mu.Unlock()
		fs, clk = prevFs, prevClock
	}
}
