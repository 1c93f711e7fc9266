package repository

import (
	"fmt"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

// Persisted layout: timestamps are RFC3339Nano strings (empty when unset),
// durations are integer nanoseconds.

const recordVersion = 1

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toNanos(d time.Duration) int64 {
	return int64(d)
}

func fromNanos(ns int64) time.Duration {
	return time.Duration(ns)
}

// timeParser collects the first parse error so decoders stay linear
type timeParser struct {
	err error
}

func (p *timeParser) at(s string) time.Time {
	t, err := parseTime(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return t
}

func (p *timeParser) ptr(s string) *time.Time {
	t, err := parseTimePtr(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return t
}

type activityProgressRecord struct {
	ActivityID        string `json:"activity_id"`
	Status            string `json:"status"`
	StartedAt         string `json:"started_at,omitempty"`
	EndedAt           string `json:"ended_at,omitempty"`
	ActualDurationNs  int64  `json:"actual_duration_ns"`
	CompletedSubItems []int  `json:"completed_sub_items,omitempty"`
}

type executionRecord struct {
	Version              int                       `json:"version"`
	ID                   string                    `json:"id"`
	LoopID               string                    `json:"loop_id"`
	LoopTitle            string                    `json:"loop_title"`
	Activities           []loop.ActivityInstance   `json:"activities"`
	Progress             []activityProgressRecord  `json:"activity_progress"`
	CurrentIndex         int                       `json:"current_activity_index"`
	Cycle                int                       `json:"current_cycle"`
	Status               string                    `json:"status"`
	StartedAt            string                    `json:"started_at"`
	PausedAt             string                    `json:"paused_at,omitempty"`
	CompletedAt          string                    `json:"completed_at,omitempty"`
	TotalElapsedNs       int64                     `json:"total_elapsed_ns"`
	PausedDurationNs     int64                     `json:"paused_duration_ns"`
	TimeRemainingNs      int64                     `json:"current_activity_time_remaining_ns"`
	BackgroundState      string                    `json:"background_state"`
	BackgroundStartedAt  string                    `json:"background_started_at,omitempty"`
	BackgroundDurationNs int64                     `json:"background_duration_ns"`
	ContinueInBackground bool                      `json:"continue_in_background"`
	Notifications        loop.NotificationSettings `json:"notifications"`
	ProgressPercent      float64                   `json:"progress"`
	LastTickAt           string                    `json:"last_tick_at"`
	LastSavedAt          string                    `json:"last_saved_at"`
	WasRecovered         bool                      `json:"was_recovered,omitempty"`
}

func encodeExecution(s *execution.ExecutionState) executionRecord {
	progress := make([]activityProgressRecord, len(s.Steps))
	for i, st := range s.Steps {
		progress[i] = activityProgressRecord{
			ActivityID:        st.ActivityID,
			Status:            string(st.Status),
			StartedAt:         formatTimePtr(st.StartedAt),
			EndedAt:           formatTimePtr(st.EndedAt),
			ActualDurationNs:  toNanos(st.ActualDuration),
			CompletedSubItems: st.CompletedSubItems,
		}
	}
	return executionRecord{
		Version:              recordVersion,
		ID:                   string(s.ID),
		LoopID:               s.LoopID,
		LoopTitle:            s.LoopTitle,
		Activities:           s.Activities,
		Progress:             progress,
		CurrentIndex:         s.CurrentIndex,
		Cycle:                s.Cycle,
		Status:               string(s.Status),
		StartedAt:            formatTime(s.StartedAt),
		PausedAt:             formatTimePtr(s.PausedAt),
		CompletedAt:          formatTimePtr(s.CompletedAt),
		TotalElapsedNs:       toNanos(s.TotalElapsed),
		PausedDurationNs:     toNanos(s.PausedDuration),
		TimeRemainingNs:      toNanos(s.TimeRemaining),
		BackgroundState:      string(s.BackgroundState),
		BackgroundStartedAt:  formatTimePtr(s.BackgroundStartedAt),
		BackgroundDurationNs: toNanos(s.BackgroundDuration),
		ContinueInBackground: s.ContinueInBackground,
		Notifications:        s.Notifications,
		ProgressPercent:      s.Progress,
		LastTickAt:           formatTime(s.LastTickAt),
		LastSavedAt:          formatTime(s.LastSavedAt),
		WasRecovered:         s.WasRecovered,
	}
}

func decodeExecution(r executionRecord) (*execution.ExecutionState, error) {
	var p timeParser
	steps := make([]execution.ActivityProgress, len(r.Progress))
	for i, st := range r.Progress {
		steps[i] = execution.ActivityProgress{
			ActivityID:        st.ActivityID,
			Status:            execution.ActivityStatus(st.Status),
			StartedAt:         p.ptr(st.StartedAt),
			EndedAt:           p.ptr(st.EndedAt),
			ActualDuration:    fromNanos(st.ActualDurationNs),
			CompletedSubItems: st.CompletedSubItems,
		}
	}

	s := &execution.ExecutionState{
		ID:                   execution.ExecutionID(r.ID),
		LoopID:               r.LoopID,
		LoopTitle:            r.LoopTitle,
		Activities:           r.Activities,
		Steps:                steps,
		CurrentIndex:         r.CurrentIndex,
		Cycle:                r.Cycle,
		Status:               execution.ExecutionStatus(r.Status),
		StartedAt:            p.at(r.StartedAt),
		PausedAt:             p.ptr(r.PausedAt),
		CompletedAt:          p.ptr(r.CompletedAt),
		TotalElapsed:         fromNanos(r.TotalElapsedNs),
		PausedDuration:       fromNanos(r.PausedDurationNs),
		TimeRemaining:        fromNanos(r.TimeRemainingNs),
		BackgroundState:      execution.BackgroundState(r.BackgroundState),
		BackgroundStartedAt:  p.ptr(r.BackgroundStartedAt),
		BackgroundDuration:   fromNanos(r.BackgroundDurationNs),
		ContinueInBackground: r.ContinueInBackground,
		Notifications:        r.Notifications,
		Progress:             r.ProgressPercent,
		LastTickAt:           p.at(r.LastTickAt),
		LastSavedAt:          p.at(r.LastSavedAt),
		WasRecovered:         r.WasRecovered,
	}
	if p.err != nil {
		return nil, p.err
	}
	return s, nil
}

type historyRecord struct {
	ID                   string `json:"id"`
	ExecutionID          string `json:"execution_id"`
	LoopID               string `json:"loop_id"`
	LoopTitle            string `json:"loop_title"`
	StartedAt            string `json:"start_time"`
	EndedAt              string `json:"end_time"`
	FinalStatus          string `json:"final_status"`
	TotalDurationNs      int64  `json:"total_duration_ns"`
	CompletedActivities  int    `json:"completed_activities"`
	SkippedActivities    int    `json:"skipped_activities"`
	TotalActivities      int    `json:"total_activities"`
	BackgroundDurationNs int64  `json:"background_time_ns"`
	Interrupted          bool   `json:"was_interrupted"`
}

func encodeHistory(h execution.ExecutionHistory) historyRecord {
	return historyRecord{
		ID:                   h.ID,
		ExecutionID:          string(h.ExecutionID),
		LoopID:               h.LoopID,
		LoopTitle:            h.LoopTitle,
		StartedAt:            formatTime(h.StartedAt),
		EndedAt:              formatTime(h.EndedAt),
		FinalStatus:          string(h.FinalStatus),
		TotalDurationNs:      toNanos(h.TotalDuration),
		CompletedActivities:  h.CompletedActivities,
		SkippedActivities:    h.SkippedActivities,
		TotalActivities:      h.TotalActivities,
		BackgroundDurationNs: toNanos(h.BackgroundDuration),
		Interrupted:          h.Interrupted,
	}
}

func decodeHistory(r historyRecord) (execution.ExecutionHistory, error) {
	var p timeParser
	h := execution.ExecutionHistory{
		ID:                  r.ID,
		ExecutionID:         execution.ExecutionID(r.ExecutionID),
		LoopID:              r.LoopID,
		LoopTitle:           r.LoopTitle,
		StartedAt:           p.at(r.StartedAt),
		EndedAt:             p.at(r.EndedAt),
		FinalStatus:         execution.ExecutionStatus(r.FinalStatus),
		TotalDuration:       fromNanos(r.TotalDurationNs),
		CompletedActivities: r.CompletedActivities,
		SkippedActivities:   r.SkippedActivities,
		TotalActivities:     r.TotalActivities,
		BackgroundDuration:  fromNanos(r.BackgroundDurationNs),
		Interrupted:         r.Interrupted,
	}
	return h, p.err
}

type scheduledLoopRecord struct {
	ID             string                `json:"id"`
	LoopID         string                `json:"loop_id"`
	Loop           loop.Loop             `json:"loop"`
	Settings       loop.ScheduleSettings `json:"schedule_settings"`
	NextExecution  string                `json:"next_execution"`
	Active         bool                  `json:"is_active"`
	ExecutionCount int                   `json:"execution_count"`
	LastExecuted   string                `json:"last_executed,omitempty"`
	RemindedFor    string                `json:"reminded_for,omitempty"`
	CreatedAt      string                `json:"created_at"`
}

func encodeSchedule(s *schedule.ScheduledLoop) scheduledLoopRecord {
	return scheduledLoopRecord{
		ID:             s.ID,
		LoopID:         s.LoopID,
		Loop:           s.Loop,
		Settings:       s.Settings,
		NextExecution:  formatTime(s.NextExecution),
		Active:         s.Active,
		ExecutionCount: s.ExecutionCount,
		LastExecuted:   formatTimePtr(s.LastExecuted),
		RemindedFor:    formatTimePtr(s.RemindedFor),
		CreatedAt:      formatTime(s.CreatedAt),
	}
}

func decodeSchedule(r scheduledLoopRecord) (*schedule.ScheduledLoop, error) {
	var p timeParser
	s := &schedule.ScheduledLoop{
		ID:             r.ID,
		LoopID:         r.LoopID,
		Loop:           r.Loop,
		Settings:       r.Settings,
		NextExecution:  p.at(r.NextExecution),
		Active:         r.Active,
		ExecutionCount: r.ExecutionCount,
		LastExecuted:   p.ptr(r.LastExecuted),
		RemindedFor:    p.ptr(r.RemindedFor),
		CreatedAt:      p.at(r.CreatedAt),
	}
	if p.err != nil {
		return nil, p.err
	}
	return s, nil
}

type preferencesRecord struct {
	ForegroundTickNs     int64 `json:"foreground_tick_ns"`
	BackgroundTickNs     int64 `json:"background_tick_ns"`
	SaveIntervalNs       int64 `json:"save_interval_ns"`
	HistoryLimit         int   `json:"history_limit"`
	NotificationsEnabled bool  `json:"notifications_enabled"`
}

type backgroundRecord struct {
	ExecutionID     string `json:"execution_id"`
	LoopID          string `json:"loop_id"`
	State           string `json:"state"`
	EnteredAt       string `json:"background_start_time"`
	CurrentIndex    int    `json:"current_activity_index"`
	TimeRemainingNs int64  `json:"time_remaining_ns"`
}

type recoveryRecord struct {
	At          string `json:"at"`
	ExecutionID string `json:"execution_id,omitempty"`
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason,omitempty"`
	MissedNs    int64  `json:"missed_time_ns"`
}
