package service

import (
	"context"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
)

// OnBackground is called by the host when it leaves the foreground. The
// execution switches to the background cadence, a separate background
// snapshot is written and, if the loop allows it, a wake-up is kept alive.
func (e *ExecutionEngine) OnBackground(ctx context.Context) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil {
			return nil
		}
		res, ok := s.EnterBackground(now)
		if !ok {
			e.logger.Debug("background ignored: execution %s already %s", s.ID, s.BackgroundState)
			return nil
		}
		e.emit(fx, EventExecutionBackgrounded, s, now)

		if res.Expired {
			finished, _ := s.CurrentActivity()
			e.applyAdvanceLocked(now, fx, finished, s.CompleteCurrent(now))
			if e.current == nil {
				return nil
			}
		}

		e.startTickerLocked()
		e.saveLocked(now)
		e.writer.saveBackground(repository.BackgroundSnapshot{
			ExecutionID:   s.ID,
			LoopID:        s.LoopID,
			State:         s.BackgroundState,
			EnteredAt:     now,
			CurrentIndex:  s.CurrentIndex,
			TimeRemaining: s.TimeRemaining,
		})

		if !s.ContinueInBackground {
			return nil
		}
		e.startBackgroundTaskLocked(fx)
		if current, ok := s.CurrentActivity(); ok && e.wants(s, true) {
			ref := loopRef(s)
			fx.do(func(ctx context.Context) {
				handle, err := e.notifier.NotifyBackgroundExecution(ctx, ref, current)
				e.gatewayResult("background notification", err)
				e.handleMu.Lock()
				e.bgHandle = handle
				e.handleMu.Unlock()
			})
		}
		return nil
	})
}

// OnForeground is called by the host when it returns. Elapsed background
// time is added to the execution and the tick reference is reset to now so
// the gap is not attributed twice.
func (e *ExecutionEngine) OnForeground(ctx context.Context) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil {
			return nil
		}
		res, bg, ok := s.EnterForeground(now)
		if !ok {
			return nil
		}
		e.logger.Debug("execution %s foregrounded after %s in background", s.ID, bg)
		e.cancelBackgroundNoticeLocked(fx)
		e.emit(fx, EventExecutionForegrounded, s, now)

		if res.Expired {
			finished, _ := s.CurrentActivity()
			e.applyAdvanceLocked(now, fx, finished, s.CompleteCurrent(now))
			if e.current == nil {
				return nil
			}
		}
		e.startTickerLocked()
		e.saveLocked(now)
		return nil
	})
}

func (e *ExecutionEngine) cancelBackgroundNoticeLocked(fx *effects) {
	if e.notifier == nil {
		return
	}
	fx.do(func(ctx context.Context) {
		e.handleMu.Lock()
		handle := e.bgHandle
		e.bgHandle = ""
		e.handleMu.Unlock()
		if handle != "" {
			e.gatewayResult("cancel background notification", e.notifier.Cancel(ctx, handle))
		}
	})
}
