package loop

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
)

// Loop is a user-authored routine made of ordered activities
type Loop struct {
	ID                  string               `json:"id" yaml:"id"`
	Title               string               `json:"title" yaml:"title"`
	Description         string               `json:"description,omitempty" yaml:"description,omitempty"`
	Activities          []ActivityInstance   `json:"activities" yaml:"activities"`
	Tags                []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Category            string               `json:"category,omitempty" yaml:"category,omitempty"`
	BackgroundExecution bool                 `json:"background_execution" yaml:"background_execution"`
	Notifications       NotificationSettings `json:"notifications" yaml:"notifications"`
	Schedule            *ScheduleSettings    `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// ActivityInstance is one configured step within a Loop
type ActivityInstance struct {
	ID              string    `json:"id" yaml:"id"`
	TemplateID      string    `json:"template_id" yaml:"template_id"`
	Title           string    `json:"title,omitempty" yaml:"title,omitempty"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	DurationMinutes float64   `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Quantity        *Quantity `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	SubItems        []SubItem `json:"sub_items,omitempty" yaml:"sub_items,omitempty"`
	LinkedEntryType string    `json:"linked_entry_type,omitempty" yaml:"linked_entry_type,omitempty"`
	Order           int       `json:"order" yaml:"order"`
	Skippable       *bool     `json:"skippable,omitempty" yaml:"skippable,omitempty"`
}

// Quantity is an optional amount attached to an activity (e.g. 20 reps)
type Quantity struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// SubItem is a checklist entry inside an activity
type SubItem struct {
	Label     string `json:"label" yaml:"label"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// NotificationSettings controls which notifications a loop emits
type NotificationSettings struct {
	Enabled          bool `json:"enabled" yaml:"enabled"`
	ActivityStart    bool `json:"activity_start" yaml:"activity_start"`
	ActivityComplete bool `json:"activity_complete" yaml:"activity_complete"`
	LoopComplete     bool `json:"loop_complete" yaml:"loop_complete"`
}

// Duration returns the configured duration; zero means untimed
func (a ActivityInstance) Duration() time.Duration {
	if a.DurationMinutes <= 0 {
		return 0
	}
	return time.Duration(a.DurationMinutes * float64(time.Minute))
}

// IsTimed reports whether the activity counts down
func (a ActivityInstance) IsTimed() bool {
	return a.Duration() > 0
}

// IsSkippable defaults to true when unset
func (a ActivityInstance) IsSkippable() bool {
	return a.Skippable == nil || *a.Skippable
}

// DisplayTitle returns the title override or falls back to the template id
func (a ActivityInstance) DisplayTitle() string {
	if a.Title != "" {
		return a.Title
	}
	return a.TemplateID
}

// NormalizeTitle applies NFKC normalization and trims surrounding space
func NormalizeTitle(title string) string {
	return strings.TrimSpace(norm.NFKC.String(title))
}

// Normalize normalizes titles and re-sorts activities by their order index
func (l *Loop) Normalize() {
	l.Title = NormalizeTitle(l.Title)
	for i := range l.Activities {
		l.Activities[i].Title = NormalizeTitle(l.Activities[i].Title)
	}
	sort.SliceStable(l.Activities, func(i, j int) bool {
		return l.Activities[i].Order < l.Activities[j].Order
	})
}

// Validate checks the loop is structurally usable for execution
func (l *Loop) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return model.NewInvalidInputError("loop id is required")
	}
	if NormalizeTitle(l.Title) == "" {
		return model.NewInvalidInputError("loop %s: title is required", l.ID)
	}
	if len(l.Activities) == 0 {
		return model.NewInvalidInputError("loop %s: at least one activity is required", l.ID)
	}

	seen := make(map[string]bool, len(l.Activities))
	for i, a := range l.Activities {
		if a.ID == "" {
			return model.NewInvalidInputError("loop %s: activity %d has no id", l.ID, i)
		}
		if seen[a.ID] {
			return model.NewInvalidInputError("loop %s: duplicate activity id %s", l.ID, a.ID)
		}
		seen[a.ID] = true
		if a.DurationMinutes < 0 {
			return model.NewInvalidInputError("activity %s: duration must not be negative", a.ID)
		}
	}

	if l.Schedule != nil {
		if err := l.Schedule.Validate(); err != nil {
			return fmt.Errorf("loop %s: %w", l.ID, err)
		}
	}
	return nil
}

// TotalDuration sums the configured durations of timed activities
func (l *Loop) TotalDuration() time.Duration {
	var total time.Duration
	for _, a := range l.Activities {
		total += a.Duration()
	}
	return total
}

// Clone returns a deep copy of the loop
func (l *Loop) Clone() *Loop {
	c := *l
	c.Tags = append([]string(nil), l.Tags...)
	c.Activities = CloneActivities(l.Activities)
	if l.Schedule != nil {
		s := *l.Schedule
		s.DaysOfWeek = append([]int(nil), l.Schedule.DaysOfWeek...)
		c.Schedule = &s
	}
	return &c
}

// Duplicate copies the loop with fresh loop and activity ids
func (l *Loop) Duplicate(title string) *Loop {
	c := l.Clone()
	c.ID = model.NewEntityID()
	if title != "" {
		c.Title = NormalizeTitle(title)
	}
	for i := range c.Activities {
		c.Activities[i].ID = model.NewEntityID()
		for j := range c.Activities[i].SubItems {
			c.Activities[i].SubItems[j].Completed = false
		}
	}
	return c
}

// CloneActivities deep-copies a slice of activities
func CloneActivities(activities []ActivityInstance) []ActivityInstance {
	if activities == nil {
		return nil
	}
	out := make([]ActivityInstance, len(activities))
	for i, a := range activities {
		out[i] = a.clone()
	}
	return out
}

func (a ActivityInstance) clone() ActivityInstance {
	c := a
	if a.Quantity != nil {
		q := *a.Quantity
		c.Quantity = &q
	}
	if a.Skippable != nil {
		s := *a.Skippable
		c.Skippable = &s
	}
	c.SubItems = append([]SubItem(nil), a.SubItems...)
	return c
}
