package notification

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

// ConsoleGateway prints notifications as single lines to a writer.
// Without permission every call is a silent no-op.
type ConsoleGateway struct {
	mu      sync.Mutex
	out     io.Writer
	clock   clock.Clock
	logger  app.Logger
	granted bool
	active  map[output.NotificationHandle]string // handle -> loop id
}

// NewConsoleGateway creates a console notification gateway
func NewConsoleGateway(out io.Writer, clk clock.Clock, logger app.Logger, granted bool) *ConsoleGateway {
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &ConsoleGateway{
		out:     out,
		clock:   clk,
		logger:  logger,
		granted: granted,
		active:  make(map[output.NotificationHandle]string),
	}
}

var _ output.NotificationGateway = (*ConsoleGateway)(nil)

// SetPermission grants or revokes notification permission
func (g *ConsoleGateway) SetPermission(granted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.granted = granted
}

// RequestPermission reports the current permission as a typed error
func (g *ConsoleGateway) RequestPermission() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.granted {
		return model.NewPermissionDeniedError("notification", nil)
	}
	return nil
}

func (g *ConsoleGateway) NotifyActivityStart(ctx context.Context, activity loop.ActivityInstance, l output.LoopRef) error {
	msg := fmt.Sprintf("%s: starting %s", l.Title, activity.DisplayTitle())
	if d := activity.Duration(); d > 0 {
		msg += fmt.Sprintf(" (%s)", d.Round(time.Second))
	}
	return g.emit("activity", msg)
}

func (g *ConsoleGateway) NotifyActivityComplete(ctx context.Context, activity loop.ActivityInstance, l output.LoopRef, isLast bool) error {
	msg := fmt.Sprintf("%s: finished %s", l.Title, activity.DisplayTitle())
	if isLast {
		msg += " (last activity)"
	}
	return g.emit("activity", msg)
}

func (g *ConsoleGateway) NotifyLoopComplete(ctx context.Context, l output.LoopRef, state *execution.ExecutionState) error {
	msg := fmt.Sprintf("%s: loop %s", l.Title, state.Status)
	if state.Status == execution.StatusCompleted {
		msg = fmt.Sprintf("%s: loop complete, %d done, %d skipped in %s",
			l.Title, state.CompletedCount(), state.SkippedCount(), state.TotalElapsed.Round(time.Second))
	}
	return g.emit("loop", msg)
}

// NotifyBackgroundExecution shows a persistent notification and returns its handle.
// The handle is empty when permission is missing.
func (g *ConsoleGateway) NotifyBackgroundExecution(ctx context.Context, l output.LoopRef, current loop.ActivityInstance) (output.NotificationHandle, error) {
	g.mu.Lock()
	if !g.granted {
		g.mu.Unlock()
		g.logger.Debug("notification permission missing, background notice for %s dropped", l.ID)
		return "", nil
	}
	handle := output.NotificationHandle(model.NewSortableID(g.clock.Now()))
	g.active[handle] = l.ID
	g.mu.Unlock()

	return handle, g.write("background", fmt.Sprintf("%s running in background: %s", l.Title, current.DisplayTitle()))
}

func (g *ConsoleGateway) NotifyScheduleReminder(ctx context.Context, s *schedule.ScheduledLoop, startsIn time.Duration) error {
	return g.emit("reminder", fmt.Sprintf("%s starts in %s", s.Loop.Title, startsIn.Round(time.Minute)))
}

func (g *ConsoleGateway) NotifyScheduleDue(ctx context.Context, s *schedule.ScheduledLoop) error {
	return g.emit("schedule", fmt.Sprintf("%s is due now", s.Loop.Title))
}

// Cancel removes a persistent notification; unknown handles are ignored
func (g *ConsoleGateway) Cancel(ctx context.Context, handle output.NotificationHandle) error {
	if handle == "" {
		return nil
	}
	g.mu.Lock()
	delete(g.active, handle)
	g.mu.Unlock()
	return nil
}

// CancelAllForLoop removes every persistent notification of a loop
func (g *ConsoleGateway) CancelAllForLoop(ctx context.Context, loopID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for h, id := range g.active {
		if id == loopID {
			delete(g.active, h)
		}
	}
	return nil
}

// ActiveHandles returns the persistent notifications still shown, sorted
func (g *ConsoleGateway) ActiveHandles() []output.NotificationHandle {
	g.mu.Lock()
	defer g.mu.Unlock()
	handles := make([]output.NotificationHandle, 0, len(g.active))
	for h := range g.active {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

func (g *ConsoleGateway) emit(kind, msg string) error {
	g.mu.Lock()
	granted := g.granted
	g.mu.Unlock()
	if !granted {
		g.logger.Debug("notification permission missing, %s notice dropped", kind)
		return nil
	}
	return g.write(kind, msg)
}

func (g *ConsoleGateway) write(kind, msg string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.out == nil {
		return nil
	}
	if _, err := fmt.Fprintf(g.out, "[%s] %s\n", kind, msg); err != nil {
		return fmt.Errorf("notification: write: %w", err)
	}
	return nil
}
