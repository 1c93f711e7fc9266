package repository

import (
	"context"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
)

// BackgroundSnapshot is written on entering the background, separately from
// the main execution snapshot, so a crash while backgrounded can be diagnosed
type BackgroundSnapshot struct {
	ExecutionID   execution.ExecutionID
	LoopID        string
	State         execution.BackgroundState
	EnteredAt     time.Time
	CurrentIndex  int
	TimeRemaining time.Duration
}

// RecoveryOutcome tells what startup recovery did with a snapshot
type RecoveryOutcome string

const (
	RecoveryRestored  RecoveryOutcome = "restored"
	RecoveryDiscarded RecoveryOutcome = "discarded"
)

// RecoveryRecord describes the last startup recovery
type RecoveryRecord struct {
	At          time.Time
	ExecutionID execution.ExecutionID
	Outcome     RecoveryOutcome
	Reason      string
	MissedTime  time.Duration
}

// ExecutionStateRepository manages the single live execution slot
type ExecutionStateRepository interface {
	// Load returns the persisted execution, or nil when the slot is empty.
	// Undecodable data yields a CorruptStateError.
	Load(ctx context.Context) (*execution.ExecutionState, error)

	// Save persists the execution snapshot
	Save(ctx context.Context, state *execution.ExecutionState) error

	// Clear removes the execution and background snapshots
	Clear(ctx context.Context) error

	// SaveBackground persists the background snapshot
	SaveBackground(ctx context.Context, snap BackgroundSnapshot) error

	// LoadBackground returns the background snapshot, or nil when absent
	LoadBackground(ctx context.Context) (*BackgroundSnapshot, error)

	// SaveRecovery records the outcome of startup recovery
	SaveRecovery(ctx context.Context, rec RecoveryRecord) error

	// LoadRecovery returns the last recovery record, or nil when absent
	LoadRecovery(ctx context.Context) (*RecoveryRecord, error)
}

// HistoryRepository manages the capped, newest-first execution history
type HistoryRepository interface {
	// Append adds entry as the newest record and evicts beyond limit
	Append(ctx context.Context, entry execution.ExecutionHistory, limit int) error

	// List returns up to limit entries, newest first; limit <= 0 returns all
	List(ctx context.Context, limit int) ([]execution.ExecutionHistory, error)

	// Clear removes all history
	Clear(ctx context.Context) error
}

// PreferencesRepository persists execution preferences
type PreferencesRepository interface {
	// Load returns stored preferences, or nil when none were saved
	Load(ctx context.Context) (*execution.Preferences, error)

	// Save persists preferences
	Save(ctx context.Context, prefs execution.Preferences) error
}
