package output

import "context"

// Storage keys. Each is a process-wide singleton slot.
const (
	KeyCurrentExecution   = "loop_execution_current"
	KeyExecutionHistory   = "loop_execution_history"
	KeyBackgroundSnapshot = "loop_execution_background"
	KeyRecoverySnapshot   = "loop_execution_recovery"
	KeyScheduledLoops     = "scheduled_loops"
	KeyPreferences        = "loop_execution_preferences"
)

// KeyValueStore is the persistence gateway contract.
// Supports memory, local filesystem, SQLite and cloud storage (S3) backends.
type KeyValueStore interface {
	// Get returns the stored value, or nil with no error when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key; removing an absent key is not an error
	Remove(ctx context.Context, key string) error

	// RemoveMany deletes every listed key
	RemoveMany(ctx context.Context, keys []string) error
}
