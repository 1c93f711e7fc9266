package execution

import "time"

// DefaultHistoryLimit is the number of history entries kept when no limit is configured
const DefaultHistoryLimit = 50

// ExecutionHistory is the archival record of a terminated execution
type ExecutionHistory struct {
	ID                  string
	ExecutionID         ExecutionID
	LoopID              string
	LoopTitle           string
	StartedAt           time.Time
	EndedAt             time.Time
	FinalStatus         ExecutionStatus
	TotalDuration       time.Duration
	CompletedActivities int
	SkippedActivities   int
	TotalActivities     int
	BackgroundDuration  time.Duration
	Interrupted         bool
}

// NewExecutionHistory archives a terminated execution.
// A run counts as interrupted if it did not complete or went through recovery.
func NewExecutionHistory(id string, s *ExecutionState) ExecutionHistory {
	ended := s.LastTickAt
	if s.CompletedAt != nil {
		ended = *s.CompletedAt
	}
	return ExecutionHistory{
		ID:                  id,
		ExecutionID:         s.ID,
		LoopID:              s.LoopID,
		LoopTitle:           s.LoopTitle,
		StartedAt:           s.StartedAt,
		EndedAt:             ended,
		FinalStatus:         s.Status,
		TotalDuration:       s.TotalElapsed,
		CompletedActivities: s.CompletedCount(),
		SkippedActivities:   s.SkippedCount(),
		TotalActivities:     len(s.Activities),
		BackgroundDuration:  s.BackgroundDuration,
		Interrupted:         s.WasRecovered || s.Status != StatusCompleted,
	}
}

// PrependHistory puts entry first and evicts the oldest entries beyond limit.
// The returned slice is newest first.
func PrependHistory(history []ExecutionHistory, entry ExecutionHistory, limit int) []ExecutionHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out := make([]ExecutionHistory, 0, min(len(history)+1, limit))
	out = append(out, entry)
	for _, h := range history {
		if len(out) >= limit {
			break
		}
		out = append(out, h)
	}
	return out
}

// HistoryStats summarizes a history list
type HistoryStats struct {
	Runs           int
	Completed      int
	Interrupted    int
	TotalTime      time.Duration
	BackgroundTime time.Duration
	CompletionRate float64 // percent
}

// ComputeStats aggregates runs, completion and time across history entries
func ComputeStats(history []ExecutionHistory) HistoryStats {
	var stats HistoryStats
	for _, h := range history {
		stats.Runs++
		if h.FinalStatus == StatusCompleted {
			stats.Completed++
		}
		if h.Interrupted {
			stats.Interrupted++
		}
		stats.TotalTime += h.TotalDuration
		stats.BackgroundTime += h.BackgroundDuration
	}
	if stats.Runs > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Runs) * 100
	}
	return stats
}

// FilterByLoop returns the entries for one loop, preserving order
func FilterByLoop(history []ExecutionHistory, loopID string) []ExecutionHistory {
	var out []ExecutionHistory
	for _, h := range history {
		if h.LoopID == loopID {
			out = append(out, h)
		}
	}
	return out
}
