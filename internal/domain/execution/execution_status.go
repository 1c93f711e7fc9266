package execution

// ExecutionStatus is the primary lifecycle status of a loop execution
type ExecutionStatus string

const (
	StatusIdle      ExecutionStatus = "idle"
	StatusRunning   ExecutionStatus = "running"
	StatusPaused    ExecutionStatus = "paused"
	StatusCompleted ExecutionStatus = "completed"
	StatusStopped   ExecutionStatus = "stopped"
	StatusCancelled ExecutionStatus = "cancelled"
)

// String returns the string representation of the status
func (s ExecutionStatus) String() string {
	return string(s)
}

// IsActive returns true while the execution occupies the single live slot
func (s ExecutionStatus) IsActive() bool {
	return s == StatusRunning || s == StatusPaused
}

// IsTerminal returns true if no further transition is possible
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusCancelled
}

// IsValid returns true if the status is valid
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusPaused, StatusCompleted, StatusStopped, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if transition to another status is allowed
func (s ExecutionStatus) CanTransitionTo(next ExecutionStatus) bool {
	validTransitions := map[ExecutionStatus][]ExecutionStatus{
		StatusIdle:      {StatusRunning},
		StatusRunning:   {StatusPaused, StatusCompleted, StatusStopped, StatusCancelled},
		StatusPaused:    {StatusRunning, StatusCompleted, StatusStopped, StatusCancelled},
		StatusCompleted: {},
		StatusStopped:   {},
		StatusCancelled: {},
	}

	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}

	for _, validNext := range allowed {
		if validNext == next {
			return true
		}
	}

	return false
}

// ActivityStatus is the status of one activity inside an execution
type ActivityStatus string

const (
	ActivityPending    ActivityStatus = "pending"
	ActivityInProgress ActivityStatus = "in_progress"
	ActivityCompleted  ActivityStatus = "completed"
	ActivitySkipped    ActivityStatus = "skipped"
)

// IsDone returns true for completed or skipped activities
func (s ActivityStatus) IsDone() bool {
	return s == ActivityCompleted || s == ActivitySkipped
}

// IsValid returns true if the activity status is known
func (s ActivityStatus) IsValid() bool {
	switch s {
	case ActivityPending, ActivityInProgress, ActivityCompleted, ActivitySkipped:
		return true
	default:
		return false
	}
}

// BackgroundState tracks whether the host app is in the foreground.
// BackgroundRecovered is set after a crash recovery and cleared on the next
// foreground sync.
type BackgroundState string

const (
	BackgroundForeground BackgroundState = "foreground"
	BackgroundActive     BackgroundState = "background"
	BackgroundSuspended  BackgroundState = "suspended"
	BackgroundRecovered  BackgroundState = "recovered"
)

// IsValid returns true if the background state is known
func (b BackgroundState) IsValid() bool {
	switch b {
	case BackgroundForeground, BackgroundActive, BackgroundSuspended, BackgroundRecovered:
		return true
	default:
		return false
	}
}

// InBackground returns true while ticks run at the background cadence
func (b BackgroundState) InBackground() bool {
	return b == BackgroundActive || b == BackgroundSuspended
}
