package output

import (
	"context"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

// NotificationHandle identifies a persistent notification so it can be cancelled
type NotificationHandle string

// NotificationGateway emits user-facing notifications.
// Implementations must be no-ops, not errors, when permission is missing.
type NotificationGateway interface {
	NotifyActivityStart(ctx context.Context, activity loop.ActivityInstance, l LoopRef) error
	NotifyActivityComplete(ctx context.Context, activity loop.ActivityInstance, l LoopRef, isLast bool) error
	NotifyLoopComplete(ctx context.Context, l LoopRef, state *execution.ExecutionState) error
	NotifyBackgroundExecution(ctx context.Context, l LoopRef, current loop.ActivityInstance) (NotificationHandle, error)
	NotifyScheduleReminder(ctx context.Context, s *schedule.ScheduledLoop, startsIn time.Duration) error
	NotifyScheduleDue(ctx context.Context, s *schedule.ScheduledLoop) error
	Cancel(ctx context.Context, handle NotificationHandle) error
	CancelAllForLoop(ctx context.Context, loopID string) error
}

// LoopRef is the part of a loop a notification needs
type LoopRef struct {
	ID    string
	Title string
}

// BackgroundTaskGateway keeps a periodic wake-up alive while the host is backgrounded.
// Start and End are idempotent.
type BackgroundTaskGateway interface {
	StartBackgroundTask(ctx context.Context) error
	EndBackgroundTask(ctx context.Context) error
	IsSupported() bool
}
