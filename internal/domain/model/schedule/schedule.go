// Package schedule computes recurring loop occurrences and models the
// ScheduledLoop record.
package schedule

import (
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
)

// ScheduledLoop binds a loop snapshot to a recurring schedule
type ScheduledLoop struct {
	ID             string                `json:"id"`
	LoopID         string                `json:"loop_id"`
	Loop           loop.Loop             `json:"loop"`
	Settings       loop.ScheduleSettings `json:"settings"`
	NextExecution  time.Time             `json:"next_execution"`
	Active         bool                  `json:"active"`
	ExecutionCount int                   `json:"execution_count"`
	LastExecuted   *time.Time            `json:"last_executed,omitempty"`
	RemindedFor    *time.Time            `json:"reminded_for,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// NextOccurrence computes the first occurrence strictly after from.
//
// For daily schedules the candidate is today's time-of-day, moved to
// tomorrow when it is not in the future. For weekly and custom schedules the
// smallest day offset whose weekday is configured wins; an offset of zero is
// only accepted while today's time is still ahead, otherwise the same weekday
// next week is used. A weekly schedule without days recurs on from's weekday.
func NextOccurrence(settings loop.ScheduleSettings, from time.Time) (time.Time, error) {
	if err := settings.Validate(); err != nil {
		return time.Time{}, err
	}
	hour, minute, _ := loop.ParseTimeOfDay(settings.Time)

	y, m, d := from.Date()
	loc := from.Location()
	candidate := time.Date(y, m, d, hour, minute, 0, 0, loc)

	if settings.Frequency == loop.FrequencyDaily {
		if !candidate.After(from) {
			candidate = time.Date(y, m, d+1, hour, minute, 0, 0, loc)
		}
		return candidate, nil
	}

	days := make(map[int]bool, len(settings.DaysOfWeek))
	for _, day := range settings.DaysOfWeek {
		days[day] = true
	}
	if len(days) == 0 {
		days[int(candidate.Weekday())] = true
	}

	start := int(candidate.Weekday())
	for offset := 0; offset <= 7; offset++ {
		if !days[(start+offset)%7] {
			continue
		}
		if offset == 0 && !candidate.After(from) {
			continue
		}
		return time.Date(y, m, d+offset, hour, minute, 0, 0, loc), nil
	}

	// Unreachable for validated settings: offset 7 always matches a configured day.
	return time.Time{}, model.NewInvalidInputError("no occurrence found for %s", settings)
}

// NewScheduledLoop creates an active schedule whose next execution is
// computed from now
func NewScheduledLoop(id string, l loop.Loop, settings loop.ScheduleSettings, now time.Time) (*ScheduledLoop, error) {
	next, err := NextOccurrence(settings, now)
	if err != nil {
		return nil, err
	}
	snapshot := l.Clone()
	snapshot.Schedule = nil
	return &ScheduledLoop{
		ID:            id,
		LoopID:        l.ID,
		Loop:          *snapshot,
		Settings:      settings,
		NextExecution: next,
		Active:        true,
		CreatedAt:     now,
	}, nil
}

// UpdateSettings replaces the settings and recomputes the next execution
func (s *ScheduledLoop) UpdateSettings(settings loop.ScheduleSettings, now time.Time) error {
	next, err := NextOccurrence(settings, now)
	if err != nil {
		return err
	}
	s.Settings = settings
	s.NextExecution = next
	s.RemindedFor = nil
	return nil
}

// Trigger records an execution and recomputes the next occurrence from now.
// Occurrences missed while the app was closed are skipped, not replayed.
func (s *ScheduledLoop) Trigger(now time.Time) error {
	next, err := NextOccurrence(s.Settings, now)
	if err != nil {
		return err
	}
	executed := now
	s.ExecutionCount++
	s.LastExecuted = &executed
	s.NextExecution = next
	s.RemindedFor = nil
	return nil
}

// IsDue reports whether an active schedule's next execution has arrived
func (s *ScheduledLoop) IsDue(now time.Time) bool {
	return s.Active && !s.NextExecution.After(now)
}

// ReminderAt returns when the reminder for the next execution opens, or
// false when no reminder is configured
func (s *ScheduledLoop) ReminderAt() (time.Time, bool) {
	if s.Settings.ReminderMinutes <= 0 {
		return time.Time{}, false
	}
	return s.NextExecution.Add(-time.Duration(s.Settings.ReminderMinutes) * time.Minute), true
}

// NeedsReminder reports whether the reminder window for the upcoming
// occurrence is open and no reminder has been sent for it yet
func (s *ScheduledLoop) NeedsReminder(now time.Time) bool {
	if !s.Active {
		return false
	}
	at, ok := s.ReminderAt()
	if !ok || now.Before(at) || !now.Before(s.NextExecution) {
		return false
	}
	return s.RemindedFor == nil || !s.RemindedFor.Equal(s.NextExecution)
}

// MarkReminded records that the reminder for the upcoming occurrence was sent
func (s *ScheduledLoop) MarkReminded() {
	next := s.NextExecution
	s.RemindedFor = &next
}
