package loop

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
)

// Frequency is how often a scheduled loop recurs
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// IsValid returns true if the frequency is known
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	default:
		return false
	}
}

// ScheduleSettings describes when a loop should run.
// DaysOfWeek uses time.Weekday numbering (0 = Sunday).
type ScheduleSettings struct {
	Frequency       Frequency `json:"frequency" yaml:"frequency"`
	Time            string    `json:"time" yaml:"time"` // "HH:MM", 24h
	DaysOfWeek      []int     `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
	ReminderMinutes int       `json:"reminder_minutes,omitempty" yaml:"reminder_minutes,omitempty"`
	AutoStart       bool      `json:"auto_start" yaml:"auto_start"`
}

// ParseTimeOfDay parses "HH:MM" into hour and minute
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, model.NewInvalidInputError("time %q must be HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, model.NewInvalidInputError("time %q has invalid hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, model.NewInvalidInputError("time %q has invalid minute", s)
	}
	return hour, minute, nil
}

// Validate checks the settings can produce occurrences
func (s ScheduleSettings) Validate() error {
	if !s.Frequency.IsValid() {
		return model.NewInvalidInputError("unknown frequency %q", s.Frequency)
	}
	if _, _, err := ParseTimeOfDay(s.Time); err != nil {
		return err
	}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return model.NewInvalidInputError("day of week %d out of range 0-6", d)
		}
	}
	if s.Frequency == FrequencyCustom && len(s.DaysOfWeek) == 0 {
		return model.NewInvalidInputError("custom frequency requires at least one day of week")
	}
	if s.ReminderMinutes < 0 {
		return model.NewInvalidInputError("reminder minutes must not be negative")
	}
	return nil
}

// String renders the settings for display
func (s ScheduleSettings) String() string {
	if s.Frequency == FrequencyDaily {
		return fmt.Sprintf("daily at %s", s.Time)
	}
	return fmt.Sprintf("%s at %s on %v", s.Frequency, s.Time, s.DaysOfWeek)
}
