package presenter_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/adapter/presenter"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(buf).Decode(&result))
	return result
}

func TestJSONPresenter_PresentSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	p := presenter.NewJSONPresenter(buf)

	require.NoError(t, p.PresentSuccess("Started", runningExecution(t)))
	result := decode(t, buf)

	assert.Equal(t, true, result["success"])
	assert.Equal(t, "Started", result["message"])
	data, ok := result["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "exec-1", data["id"])
}

func TestJSONPresenter_PresentError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode interface{}
	}{
		{name: "plain", err: errors.New("test error"), wantCode: nil},
		{name: "domain", err: fmt.Errorf("start: %w", model.NewConflictError("busy")), wantCode: model.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, presenter.NewJSONPresenter(buf).PresentError(tt.err))
			result := decode(t, buf)

			assert.Equal(t, false, result["success"])
			assert.Equal(t, tt.err.Error(), result["error"])
			assert.Equal(t, tt.wantCode, result["code"])
		})
	}
}

func TestJSONPresenter_PresentExecution(t *testing.T) {
	buf := &bytes.Buffer{}
	p := presenter.NewJSONPresenter(buf)

	require.NoError(t, p.PresentExecution(runningExecution(t)))
	result := decode(t, buf)
	assert.Equal(t, "execution", result["type"])

	data := result["data"].(map[string]interface{})
	assert.Equal(t, "running", data["status"])
	assert.Equal(t, "stretch", data["current_activity"])
	assert.Equal(t, float64(45000), data["time_remaining_ms"])
	assert.Equal(t, float64(15000), data["total_elapsed_ms"])
	activities := data["activities"].([]interface{})
	require.Len(t, activities, 2)
	assert.Equal(t, float64(2), activities[1].(map[string]interface{})["sub_items"])

	buf.Reset()
	require.NoError(t, p.PresentExecution(nil))
	result = decode(t, buf)
	assert.Nil(t, result["data"])
}

func TestJSONPresenter_PresentHistory(t *testing.T) {
	buf := &bytes.Buffer{}
	entries, stats := sampleHistory()

	require.NoError(t, presenter.NewJSONPresenter(buf).PresentHistory(entries, stats))
	result := decode(t, buf)

	data := result["data"].(map[string]interface{})
	list := data["entries"].([]interface{})
	require.Len(t, list, 2)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "h2", first["id"])
	assert.Equal(t, float64(30000), first["total_duration_ms"])
	assert.Equal(t, float64(50), data["stats"].(map[string]interface{})["completion_rate"])
}

func TestJSONPresenter_PresentCollections(t *testing.T) {
	buf := &bytes.Buffer{}
	p := presenter.NewJSONPresenter(buf)

	require.NoError(t, p.PresentSchedules([]*schedule.ScheduledLoop{sampleSchedule(t)}))
	result := decode(t, buf)
	schedules := result["data"].([]interface{})
	require.Len(t, schedules, 1)
	assert.Equal(t, "sched-1", schedules[0].(map[string]interface{})["id"])

	buf.Reset()
	require.NoError(t, p.PresentLoops(nil))
	result = decode(t, buf)
	assert.Equal(t, []interface{}{}, result["data"])

	buf.Reset()
	require.NoError(t, p.PresentLoops([]*loop.Loop{sampleLoop()}))
	result = decode(t, buf)
	assert.Equal(t, "morning", result["data"].([]interface{})[0].(map[string]interface{})["id"])
}
