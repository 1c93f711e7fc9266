package execution

import (
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
)

// Preferences tune the engine's cadence and retention
type Preferences struct {
	ForegroundTick       time.Duration
	BackgroundTick       time.Duration
	SaveInterval         time.Duration
	HistoryLimit         int
	NotificationsEnabled bool
}

// DefaultPreferences returns 1s/10s ticks, a 10s save interval and 50 history entries
func DefaultPreferences() Preferences {
	return Preferences{
		ForegroundTick:       time.Second,
		BackgroundTick:       10 * time.Second,
		SaveInterval:         10 * time.Second,
		HistoryLimit:         DefaultHistoryLimit,
		NotificationsEnabled: true,
	}
}

// Validate rejects non-positive intervals and limits
func (p Preferences) Validate() error {
	if p.ForegroundTick <= 0 || p.BackgroundTick <= 0 {
		return model.NewInvalidInputError("tick intervals must be positive")
	}
	if p.SaveInterval < 0 {
		return model.NewInvalidInputError("save interval must not be negative")
	}
	if p.HistoryLimit <= 0 {
		return model.NewInvalidInputError("history limit must be positive")
	}
	return nil
}

// TickInterval returns the cadence for the given background state
func (p Preferences) TickInterval(state BackgroundState) time.Duration {
	if state.InBackground() {
		return p.BackgroundTick
	}
	return p.ForegroundTick
}
