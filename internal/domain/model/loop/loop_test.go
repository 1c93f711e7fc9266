package loop

import (
	"testing"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
)

func boolPtr(b bool) *bool { return &b }

func sampleLoop() *Loop {
	return &Loop{
		ID:    "loop-1",
		Title: "Morning Routine",
		Activities: []ActivityInstance{
			{ID: "a1", TemplateID: "stretch", DurationMinutes: 1, Order: 0},
			{ID: "a2", TemplateID: "journal", Title: "Write", Order: 1,
				SubItems: []SubItem{{Label: "gratitude"}, {Label: "plan", Completed: true}}},
			{ID: "a3", TemplateID: "water", DurationMinutes: 0.5, Order: 2, Skippable: boolPtr(false),
				Quantity: &Quantity{Amount: 500, Unit: "ml"}},
		},
		Tags:     []string{"morning"},
		Schedule: &ScheduleSettings{Frequency: FrequencyDaily, Time: "07:00"},
	}
}

func TestActivityInstance_Duration(t *testing.T) {
	tests := []struct {
		name    string
		minutes float64
		want    time.Duration
		timed   bool
	}{
		{"one minute", 1, time.Minute, true},
		{"half minute", 0.5, 30 * time.Second, true},
		{"untimed", 0, 0, false},
		{"negative treated as untimed", -3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ActivityInstance{DurationMinutes: tt.minutes}
			if got := a.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
			if a.IsTimed() != tt.timed {
				t.Errorf("IsTimed() = %v, want %v", a.IsTimed(), tt.timed)
			}
		})
	}
}

func TestActivityInstance_IsSkippable(t *testing.T) {
	if !(ActivityInstance{}).IsSkippable() {
		t.Error("unset skippable should default to true")
	}
	if (ActivityInstance{Skippable: boolPtr(false)}).IsSkippable() {
		t.Error("explicit false should not be skippable")
	}
}

func TestActivityInstance_DisplayTitle(t *testing.T) {
	if got := (ActivityInstance{TemplateID: "run"}).DisplayTitle(); got != "run" {
		t.Errorf("expected template fallback, got %q", got)
	}
	if got := (ActivityInstance{TemplateID: "run", Title: "Jog"}).DisplayTitle(); got != "Jog" {
		t.Errorf("expected override, got %q", got)
	}
}

func TestNormalizeTitle(t *testing.T) {
	// Full-width letters and ideographic space fold under NFKC
	got := NormalizeTitle("  Ｍｏｒｎｉｎｇ　Ｒｏｕｔｉｎｅ ")
	if got != "Morning Routine" {
		t.Errorf("NormalizeTitle() = %q", got)
	}
}

func TestLoop_Normalize_SortsByOrder(t *testing.T) {
	l := &Loop{
		Title: "x",
		Activities: []ActivityInstance{
			{ID: "b", Order: 2},
			{ID: "a", Order: 1},
			{ID: "c", Order: 3},
		},
	}
	l.Normalize()

	want := []string{"a", "b", "c"}
	for i, id := range want {
		if l.Activities[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, l.Activities[i].ID, id)
		}
	}
}

func TestLoop_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(l *Loop)
		wantErr bool
	}{
		{"valid", func(l *Loop) {}, false},
		{"missing id", func(l *Loop) { l.ID = "" }, true},
		{"blank title", func(l *Loop) { l.Title = "   " }, true},
		{"no activities", func(l *Loop) { l.Activities = nil }, true},
		{"activity without id", func(l *Loop) { l.Activities[1].ID = "" }, true},
		{"duplicate activity id", func(l *Loop) { l.Activities[1].ID = "a1" }, true},
		{"negative duration", func(l *Loop) { l.Activities[0].DurationMinutes = -1 }, true},
		{"bad schedule", func(l *Loop) { l.Schedule.Time = "25:00" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := sampleLoop()
			tt.mutate(l)
			err := l.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !model.IsInvalidInput(err) {
				t.Errorf("expected invalid input error, got %v", err)
			}
		})
	}
}

func TestLoop_TotalDuration(t *testing.T) {
	if got := sampleLoop().TotalDuration(); got != 90*time.Second {
		t.Errorf("TotalDuration() = %v, want 90s", got)
	}
}

func TestLoop_Clone_IsDeep(t *testing.T) {
	original := sampleLoop()
	c := original.Clone()

	c.Activities[1].SubItems[0].Completed = true
	c.Activities[2].Quantity.Amount = 1
	*c.Activities[2].Skippable = true
	c.Schedule.Time = "09:00"
	c.Tags[0] = "evening"

	if original.Activities[1].SubItems[0].Completed {
		t.Error("sub items should not be shared")
	}
	if original.Activities[2].Quantity.Amount != 500 {
		t.Error("quantity should not be shared")
	}
	if *original.Activities[2].Skippable {
		t.Error("skippable pointer should not be shared")
	}
	if original.Schedule.Time != "07:00" {
		t.Error("schedule should not be shared")
	}
	if original.Tags[0] != "morning" {
		t.Error("tags should not be shared")
	}
}

func TestLoop_Duplicate(t *testing.T) {
	original := sampleLoop()
	dup := original.Duplicate("Evening Routine")

	if dup.ID == original.ID {
		t.Error("duplicate should get a new loop id")
	}
	if dup.Title != "Evening Routine" {
		t.Errorf("unexpected title %q", dup.Title)
	}
	for i := range dup.Activities {
		if dup.Activities[i].ID == original.Activities[i].ID {
			t.Errorf("activity %d kept its id", i)
		}
		if dup.Activities[i].TemplateID != original.Activities[i].TemplateID {
			t.Errorf("activity %d lost its template", i)
		}
	}
	if dup.Activities[1].SubItems[1].Completed {
		t.Error("duplicated sub items should be reset")
	}
	if !original.Activities[1].SubItems[1].Completed {
		t.Error("original sub items should be untouched")
	}
	if err := dup.Validate(); err != nil {
		t.Errorf("duplicate should validate: %v", err)
	}
}

func TestLoop_Duplicate_KeepsTitleWhenEmpty(t *testing.T) {
	dup := sampleLoop().Duplicate("")
	if dup.Title != "Morning Routine" {
		t.Errorf("expected original title, got %q", dup.Title)
	}
}
