package service

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/adapter/gateway/storage"
	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	repoimpl "github.com/YoshitsuguKoike/loopkit/internal/infrastructure/repository"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

// wednesday09 is a Wednesday
var wednesday09 = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func weeklyMonWed() loop.ScheduleSettings {
	return loop.ScheduleSettings{Frequency: loop.FrequencyWeekly, Time: "08:00", DaysOfWeek: []int{1, 3}}
}

type schedulerFixture struct {
	ctx       context.Context
	clk       *clock.ManualClock
	schedules *repoimpl.ScheduleRepositoryImpl
	catalog   *repoimpl.LoopCatalogImpl
	svc       *SchedulerService
}

func newSchedulerFixture(t *testing.T, start time.Time) *schedulerFixture {
	t.Helper()
	f := &schedulerFixture{
		ctx:       context.Background(),
		clk:       clock.NewManualClock(start),
		schedules: repoimpl.NewScheduleRepositoryImpl(storage.NewMemoryStore()),
		catalog:   repoimpl.NewLoopCatalogImpl(afero.NewMemMapFs(), "/home/loops.yaml"),
	}
	f.svc = NewSchedulerService(SchedulerDeps{
		Schedules: f.schedules,
		Loops:     f.catalog,
		Clock:     f.clk,
		IDs:       &seqIDs{},
		Logger:    app.NopLogger{},
	})
	return f
}

func TestSchedulerService_WeeklyNextExecution(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)

	first, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), weeklyMonWed())
	require.NoError(t, err)
	second, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), weeklyMonWed())
	require.NoError(t, err)

	monday := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	assert.True(t, first.NextExecution.Equal(monday), "got %s", first.NextExecution)
	assert.True(t, second.NextExecution.Equal(monday), "got %s", second.NextExecution)
	assert.Equal(t, "id-001", first.ID)
	assert.Equal(t, "loop-1", first.LoopID)
	assert.True(t, first.Active)
	assert.Nil(t, first.Loop.Schedule)

	all, err := f.svc.ListScheduledLoops(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{"id-001", "id-002"}, []string{all[0].ID, all[1].ID})
}

func TestSchedulerService_ScheduleLoopRejectsInvalid(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)

	tests := []struct {
		name     string
		loop     *loop.Loop
		settings loop.ScheduleSettings
	}{
		{name: "nil loop", loop: nil, settings: weeklyMonWed()},
		{name: "invalid loop", loop: &loop.Loop{ID: "x", Title: "x"}, settings: weeklyMonWed()},
		{name: "bad time", loop: threeStepLoop(), settings: loop.ScheduleSettings{Frequency: loop.FrequencyDaily, Time: "25:00"}},
		{name: "custom without days", loop: threeStepLoop(), settings: loop.ScheduleSettings{Frequency: loop.FrequencyCustom, Time: "08:00"}},
		{name: "unknown frequency", loop: threeStepLoop(), settings: loop.ScheduleSettings{Frequency: "hourly", Time: "08:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ScheduleLoop(f.ctx, tt.loop, tt.settings)
			assert.True(t, model.IsInvalidInput(err), "got %v", err)
		})
	}

	all, err := f.svc.ListScheduledLoops(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSchedulerService_ScheduleLoopByID(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)
	require.NoError(t, f.catalog.Save(f.ctx, threeStepLoop()))

	sl, err := f.svc.ScheduleLoopByID(f.ctx, "loop-1", weeklyMonWed())
	require.NoError(t, err)
	assert.Equal(t, "Morning", sl.Loop.Title)
	assert.Len(t, sl.Loop.Activities, 3)

	_, err = f.svc.ScheduleLoopByID(f.ctx, "missing", weeklyMonWed())
	assert.True(t, model.IsNotFound(err))

	noCatalog := NewSchedulerService(SchedulerDeps{Schedules: f.schedules, Logger: app.NopLogger{}})
	_, err = noCatalog.ScheduleLoopByID(f.ctx, "loop-1", weeklyMonWed())
	assert.Error(t, err)
}

func TestSchedulerService_UpdateSchedule(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)
	sl, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), weeklyMonWed())
	require.NoError(t, err)

	updated, err := f.svc.UpdateSchedule(f.ctx, sl.ID, loop.ScheduleSettings{Frequency: loop.FrequencyDaily, Time: "10:00"})
	require.NoError(t, err)
	assert.True(t, updated.NextExecution.Equal(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)))

	got, err := f.svc.GetScheduledLoop(f.ctx, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, loop.FrequencyDaily, got.Settings.Frequency)

	_, err = f.svc.UpdateSchedule(f.ctx, sl.ID, loop.ScheduleSettings{Frequency: loop.FrequencyDaily, Time: "noon"})
	assert.True(t, model.IsInvalidInput(err))
	got, err = f.svc.GetScheduledLoop(f.ctx, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.Settings.Time, "failed update is not persisted")

	_, err = f.svc.UpdateSchedule(f.ctx, "nope", weeklyMonWed())
	assert.True(t, model.IsNotFound(err))
}

func TestSchedulerService_DueAndTrigger(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)
	sl, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), weeklyMonWed())
	require.NoError(t, err)

	due, err := f.svc.CheckDueSchedules(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	f.clk.Set(time.Date(2026, 3, 9, 8, 0, 30, 0, time.UTC))
	due, err = f.svc.CheckDueSchedules(f.ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, sl.ID, due[0].ID)

	triggered, err := f.svc.TriggerScheduledLoop(f.ctx, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, triggered.ExecutionCount)
	require.NotNil(t, triggered.LastExecuted)
	assert.True(t, triggered.NextExecution.Equal(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)))

	due, err = f.svc.CheckDueSchedules(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = f.svc.TriggerScheduledLoop(f.ctx, "nope")
	assert.True(t, model.IsNotFound(err))
}

func TestSchedulerService_MissedOccurrencesSkipped(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)
	sl, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), weeklyMonWed())
	require.NoError(t, err)

	// Friday two weeks later
	f.clk.Set(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))
	triggered, err := f.svc.TriggerScheduledLoop(f.ctx, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, triggered.ExecutionCount)
	assert.True(t, triggered.NextExecution.Equal(time.Date(2026, 3, 23, 8, 0, 0, 0, time.UTC)))
}

func TestSchedulerService_SetScheduleActive(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)
	sl, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), weeklyMonWed())
	require.NoError(t, err)

	_, err = f.svc.SetScheduleActive(f.ctx, sl.ID, false)
	require.NoError(t, err)

	f.clk.Set(time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC))
	due, err := f.svc.CheckDueSchedules(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, due, "inactive schedules are never due")

	resumed, err := f.svc.SetScheduleActive(f.ctx, sl.ID, true)
	require.NoError(t, err)
	assert.True(t, resumed.Active)
	assert.True(t, resumed.NextExecution.Equal(time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)))

	again, err := f.svc.SetScheduleActive(f.ctx, sl.ID, true)
	require.NoError(t, err)
	assert.True(t, again.NextExecution.Equal(resumed.NextExecution))
}

func TestSchedulerService_Cancel(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)
	sl, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), weeklyMonWed())
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelScheduledLoop(f.ctx, sl.ID))
	assert.True(t, model.IsNotFound(f.svc.CancelScheduledLoop(f.ctx, sl.ID)))

	_, err = f.svc.GetScheduledLoop(f.ctx, sl.ID)
	assert.True(t, model.IsNotFound(err))

	stored, err := f.schedules.LoadAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSchedulerService_DueReminders(t *testing.T) {
	f := newSchedulerFixture(t, wednesday09)
	settings := loop.ScheduleSettings{Frequency: loop.FrequencyDaily, Time: "09:30", ReminderMinutes: 15}
	sl, err := f.svc.ScheduleLoop(f.ctx, threeStepLoop(), settings)
	require.NoError(t, err)

	f.clk.Set(wednesday09.Add(10 * time.Minute))
	reminded, err := f.svc.DueReminders(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, reminded)

	f.clk.Set(wednesday09.Add(16 * time.Minute))
	reminded, err = f.svc.DueReminders(f.ctx)
	require.NoError(t, err)
	require.Len(t, reminded, 1)
	assert.Equal(t, sl.ID, reminded[0].ID)

	reminded, err = f.svc.DueReminders(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, reminded, "one reminder per occurrence")

	got, err := f.svc.GetScheduledLoop(f.ctx, sl.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RemindedFor)
	assert.True(t, got.RemindedFor.Equal(got.NextExecution))

	f.clk.Set(wednesday09.Add(30 * time.Minute))
	_, err = f.svc.TriggerScheduledLoop(f.ctx, sl.ID)
	require.NoError(t, err)

	f.clk.Set(wednesday09.Add(24*time.Hour + 20*time.Minute))
	reminded, err = f.svc.DueReminders(f.ctx)
	require.NoError(t, err)
	assert.Len(t, reminded, 1, "next occurrence gets its own reminder")
}
