package presenter_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/adapter/presenter"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

func TestCLILoopPresenter_PresentExecution(t *testing.T) {
	buf := &bytes.Buffer{}
	p := presenter.NewCLILoopPresenter(buf)

	require.NoError(t, p.PresentExecution(runningExecution(t)))
	out := buf.String()

	assert.Contains(t, out, "Loop: Morning")
	assert.Contains(t, out, "Execution: exec-1")
	assert.Contains(t, out, "Status: running")
	assert.Contains(t, out, "Elapsed: 0:15")
	assert.Contains(t, out, "> 1. stretch (in_progress) 0:45 left x20 reps")
	assert.Contains(t, out, "  2. Journal (pending)")
	assert.Contains(t, out, "[ ] gratitude")
}

func TestCLILoopPresenter_PresentExecutionIdle(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, presenter.NewCLILoopPresenter(buf).PresentExecution(nil))
	assert.Equal(t, "No active execution\n", buf.String())
}

func TestCLILoopPresenter_PresentHistory(t *testing.T) {
	buf := &bytes.Buffer{}
	entries, stats := sampleHistory()

	require.NoError(t, presenter.NewCLILoopPresenter(buf).PresentHistory(entries, stats))
	out := buf.String()

	assert.Contains(t, out, "1. Morning (stopped)")
	assert.Contains(t, out, "interrupted")
	assert.Contains(t, out, "2. Morning (completed)")
	assert.Contains(t, out, "Runs: 2  Completed: 1  Interrupted: 1")
	assert.Contains(t, out, "Total time: 2:00  Completion rate: 50.0%")
}

func TestCLILoopPresenter_PresentSchedules(t *testing.T) {
	buf := &bytes.Buffer{}
	p := presenter.NewCLILoopPresenter(buf)

	require.NoError(t, p.PresentSchedules(nil))
	assert.Equal(t, "No scheduled loops\n", buf.String())

	buf.Reset()
	require.NoError(t, p.PresentSchedules([]*schedule.ScheduledLoop{sampleSchedule(t)}))
	out := buf.String()
	assert.Contains(t, out, "Total: 1 schedules")
	assert.Contains(t, out, "1. Morning (active)")
	assert.Contains(t, out, "ID: sched-1")
	assert.Contains(t, out, "When: daily at 08:00")
	assert.Contains(t, out, "Reminder: 10 min before")
	assert.Contains(t, out, "Auto-start: yes")
}

func TestCLILoopPresenter_PresentLoops(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, presenter.NewCLILoopPresenter(buf).PresentLoops([]*loop.Loop{sampleLoop()}))
	assert.Equal(t, "morning  Morning  (2 activities, 1:00)\n", buf.String())
}

func TestCLILoopPresenter_PresentSuccess(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) interface{}
		want []string
	}{
		{
			name: "no data",
			data: func(*testing.T) interface{} { return nil },
			want: []string{"✓ Paused\n"},
		},
		{
			name: "loop",
			data: func(*testing.T) interface{} { return sampleLoop() },
			want: []string{"Loop: Morning", "Tags: daily", "2. Journal [required]", "- plan"},
		},
		{
			name: "schedule",
			data: func(t *testing.T) interface{} { return sampleSchedule(t) },
			want: []string{"Morning (active)", "ID: sched-1"},
		},
		{
			name: "execution",
			data: func(t *testing.T) interface{} { return runningExecution(t) },
			want: []string{"Execution: exec-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, presenter.NewCLILoopPresenter(buf).PresentSuccess("Paused", tt.data(t)))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestCLILoopPresenter_PresentError(t *testing.T) {
	buf := &bytes.Buffer{}
	testErr := errors.New("boom")

	err := presenter.NewCLILoopPresenter(buf).PresentError(testErr)
	assert.Equal(t, testErr, err)
	assert.Equal(t, "✗ Error: boom\n", buf.String())
}

func TestCLILoopPresenter_PresentProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, presenter.NewCLILoopPresenter(buf).PresentProgress("Morning", 50))
	assert.Equal(t, "\rMorning [██████████░░░░░░░░░░] 50.0%", buf.String())
}
