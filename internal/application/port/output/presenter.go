package output

import (
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

// Presenter defines the interface for presenting output to users
// Different implementations can format output for CLI, JSON, or other formats
type Presenter interface {
	// PresentSuccess presents a successful result
	PresentSuccess(message string, data interface{}) error

	// PresentError presents an error
	PresentError(err error) error
}

// LoopPresenter renders engine and scheduler data
type LoopPresenter interface {
	Presenter

	// PresentExecution presents the live execution, or idle when nil
	PresentExecution(state *execution.ExecutionState) error

	// PresentHistory presents history entries with their aggregate stats
	PresentHistory(entries []execution.ExecutionHistory, stats execution.HistoryStats) error

	// PresentSchedules presents scheduled loops
	PresentSchedules(schedules []*schedule.ScheduledLoop) error

	// PresentLoops presents catalog loops
	PresentLoops(loops []*loop.Loop) error
}
