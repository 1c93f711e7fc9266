package presenter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

var base = time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)

func sampleLoop() *loop.Loop {
	required := false
	return &loop.Loop{
		ID:    "morning",
		Title: "Morning",
		Tags:  []string{"daily"},
		Activities: []loop.ActivityInstance{
			{ID: "a1", TemplateID: "stretch", DurationMinutes: 1, Quantity: &loop.Quantity{Amount: 20, Unit: "reps"}},
			{ID: "a2", TemplateID: "journal", Title: "Journal", Order: 1, Skippable: &required,
				SubItems: []loop.SubItem{{Label: "gratitude"}, {Label: "plan"}}},
		},
	}
}

func runningExecution(t *testing.T) *execution.ExecutionState {
	t.Helper()
	s, err := execution.NewExecutionState("exec-1", sampleLoop(), base)
	require.NoError(t, err)
	s.Tick(base.Add(15 * time.Second))
	return s
}

func sampleSchedule(t *testing.T) *schedule.ScheduledLoop {
	t.Helper()
	settings := loop.ScheduleSettings{Frequency: loop.FrequencyDaily, Time: "08:00", ReminderMinutes: 10, AutoStart: true}
	sl, err := schedule.NewScheduledLoop("sched-1", *sampleLoop(), settings, base)
	require.NoError(t, err)
	return sl
}

func sampleHistory() ([]execution.ExecutionHistory, execution.HistoryStats) {
	entries := []execution.ExecutionHistory{
		{ID: "h2", ExecutionID: "exec-2", LoopID: "morning", LoopTitle: "Morning", StartedAt: base.Add(time.Hour),
			FinalStatus: execution.StatusStopped, TotalDuration: 30 * time.Second, TotalActivities: 2, Interrupted: true},
		{ID: "h1", ExecutionID: "exec-1", LoopID: "morning", LoopTitle: "Morning", StartedAt: base,
			FinalStatus: execution.StatusCompleted, TotalDuration: 90 * time.Second, CompletedActivities: 2, TotalActivities: 2},
	}
	return entries, execution.ComputeStats(entries)
}
