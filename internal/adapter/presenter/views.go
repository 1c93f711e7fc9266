package presenter

import (
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
)

// ExecutionView is the JSON shape of a live execution. Durations are milliseconds.
type ExecutionView struct {
	ID                 string         `json:"id"`
	LoopID             string         `json:"loop_id"`
	LoopTitle          string         `json:"loop_title"`
	Status             string         `json:"status"`
	CurrentIndex       int            `json:"current_index"`
	CurrentActivity    string         `json:"current_activity"`
	TimeRemainingMs    int64          `json:"time_remaining_ms"`
	TotalElapsedMs     int64          `json:"total_elapsed_ms"`
	PausedDurationMs   int64          `json:"paused_duration_ms"`
	BackgroundState    string         `json:"background_state"`
	BackgroundTimeMs   int64          `json:"background_time_ms"`
	Progress           float64        `json:"progress"`
	StartedAt          time.Time      `json:"started_at"`
	WasRecovered       bool           `json:"was_recovered"`
	Activities         []ActivityView `json:"activities"`
}

// ActivityView is one activity with its progress
type ActivityView struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Status            string `json:"status"`
	DurationMs        int64  `json:"duration_ms"`
	ActualDurationMs  int64  `json:"actual_duration_ms"`
	SubItems          int    `json:"sub_items"`
	CompletedSubItems []int  `json:"completed_sub_items,omitempty"`
}

// HistoryView is the JSON shape of a history listing
type HistoryView struct {
	Entries []HistoryEntryView `json:"entries"`
	Stats   StatsView          `json:"stats"`
}

// HistoryEntryView is one archived execution
type HistoryEntryView struct {
	ID                  string    `json:"id"`
	ExecutionID         string    `json:"execution_id"`
	LoopID              string    `json:"loop_id"`
	LoopTitle           string    `json:"loop_title"`
	StartedAt           time.Time `json:"started_at"`
	EndedAt             time.Time `json:"ended_at"`
	FinalStatus         string    `json:"final_status"`
	TotalDurationMs     int64     `json:"total_duration_ms"`
	CompletedActivities int       `json:"completed_activities"`
	SkippedActivities   int       `json:"skipped_activities"`
	TotalActivities     int       `json:"total_activities"`
	Interrupted         bool      `json:"interrupted"`
}

// StatsView aggregates a history listing
type StatsView struct {
	Runs             int     `json:"runs"`
	Completed        int     `json:"completed"`
	Interrupted      int     `json:"interrupted"`
	TotalTimeMs      int64   `json:"total_time_ms"`
	BackgroundTimeMs int64   `json:"background_time_ms"`
	CompletionRate   float64 `json:"completion_rate"`
}

// NewExecutionView flattens an execution for JSON output
func NewExecutionView(s *execution.ExecutionState) ExecutionView {
	v := ExecutionView{
		ID:               string(s.ID),
		LoopID:           s.LoopID,
		LoopTitle:        s.LoopTitle,
		Status:           string(s.Status),
		CurrentIndex:     s.CurrentIndex,
		TimeRemainingMs:  s.TimeRemaining.Milliseconds(),
		TotalElapsedMs:   s.TotalElapsed.Milliseconds(),
		PausedDurationMs: s.PausedDuration.Milliseconds(),
		BackgroundState:  string(s.BackgroundState),
		BackgroundTimeMs: s.BackgroundDuration.Milliseconds(),
		Progress:         s.Progress,
		StartedAt:        s.StartedAt,
		WasRecovered:     s.WasRecovered,
		Activities:       make([]ActivityView, len(s.Activities)),
	}
	if a, ok := s.CurrentActivity(); ok {
		v.CurrentActivity = a.DisplayTitle()
	}
	for i, a := range s.Activities {
		av := ActivityView{
			ID:         a.ID,
			Title:      a.DisplayTitle(),
			DurationMs: a.Duration().Milliseconds(),
			SubItems:   len(a.SubItems),
		}
		if i < len(s.Steps) {
			st := s.Steps[i]
			av.Status = string(st.Status)
			av.ActualDurationMs = st.ActualDuration.Milliseconds()
			av.CompletedSubItems = st.CompletedSubItems
		}
		v.Activities[i] = av
	}
	return v
}

// NewHistoryView converts history entries and stats for JSON output
func NewHistoryView(entries []execution.ExecutionHistory, stats execution.HistoryStats) HistoryView {
	v := HistoryView{
		Entries: make([]HistoryEntryView, len(entries)),
		Stats: StatsView{
			Runs:             stats.Runs,
			Completed:        stats.Completed,
			Interrupted:      stats.Interrupted,
			TotalTimeMs:      stats.TotalTime.Milliseconds(),
			BackgroundTimeMs: stats.BackgroundTime.Milliseconds(),
			CompletionRate:   stats.CompletionRate,
		},
	}
	for i, h := range entries {
		v.Entries[i] = HistoryEntryView{
			ID:                  h.ID,
			ExecutionID:         string(h.ExecutionID),
			LoopID:              h.LoopID,
			LoopTitle:           h.LoopTitle,
			StartedAt:           h.StartedAt,
			EndedAt:             h.EndedAt,
			FinalStatus:         string(h.FinalStatus),
			TotalDurationMs:     h.TotalDuration.Milliseconds(),
			CompletedActivities: h.CompletedActivities,
			SkippedActivities:   h.SkippedActivities,
			TotalActivities:     h.TotalActivities,
			Interrupted:         h.Interrupted,
		}
	}
	return v
}
