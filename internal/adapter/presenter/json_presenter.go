package presenter

import (
	"encoding/json"
	"io"

	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

// JSONPresenter implements output.LoopPresenter for JSON output
// Formats all output as JSON for programmatic consumption
type JSONPresenter struct {
	output io.Writer
}

// NewJSONPresenter creates a new JSON presenter
func NewJSONPresenter(output io.Writer) *JSONPresenter {
	return &JSONPresenter{output: output}
}

var _ output.LoopPresenter = (*JSONPresenter)(nil)

func (p *JSONPresenter) encode(v interface{}) error {
	enc := json.NewEncoder(p.output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PresentSuccess presents a successful result as JSON
func (p *JSONPresenter) PresentSuccess(message string, data interface{}) error {
	result := map[string]interface{}{
		"success": true,
		"message": message,
	}
	if data != nil {
		if s, ok := data.(*execution.ExecutionState); ok {
			data = NewExecutionView(s)
		}
		result["data"] = data
	}
	return p.encode(result)
}

// PresentError presents an error as JSON, with the error code when known
func (p *JSONPresenter) PresentError(err error) error {
	result := map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	}
	if code := model.CodeOf(err); code != "" {
		result["code"] = code
	}
	return p.encode(result)
}

// PresentExecution presents the live execution; data is null when idle
func (p *JSONPresenter) PresentExecution(state *execution.ExecutionState) error {
	result := map[string]interface{}{
		"success": true,
		"type":    "execution",
		"data":    nil,
	}
	if state != nil {
		result["data"] = NewExecutionView(state)
	}
	return p.encode(result)
}

// PresentHistory presents history entries with stats
func (p *JSONPresenter) PresentHistory(entries []execution.ExecutionHistory, stats execution.HistoryStats) error {
	return p.encode(map[string]interface{}{
		"success": true,
		"type":    "history",
		"data":    NewHistoryView(entries, stats),
	})
}

// PresentSchedules presents scheduled loops
func (p *JSONPresenter) PresentSchedules(schedules []*schedule.ScheduledLoop) error {
	if schedules == nil {
		schedules = []*schedule.ScheduledLoop{}
	}
	return p.encode(map[string]interface{}{
		"success": true,
		"type":    "schedules",
		"data":    schedules,
	})
}

// PresentLoops presents catalog loops
func (p *JSONPresenter) PresentLoops(loops []*loop.Loop) error {
	if loops == nil {
		loops = []*loop.Loop{}
	}
	return p.encode(map[string]interface{}{
		"success": true,
		"type":    "loops",
		"data":    loops,
	})
}
