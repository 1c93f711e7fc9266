package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

// EngineDeps holds the collaborators of an ExecutionEngine.
// Preferences, Notifier and Background are optional.
type EngineDeps struct {
	States      repository.ExecutionStateRepository
	History     repository.HistoryRepository
	Preferences repository.PreferencesRepository
	Notifier    output.NotificationGateway
	Background  output.BackgroundTaskGateway
	Clock       clock.Clock
	IDs         model.IDGenerator
	Logger      app.Logger
	Defaults    *execution.Preferences // nil means execution.DefaultPreferences()
}

// tickLoop identifies one ticker goroutine and the session it belongs to
type tickLoop struct {
	id       execution.ExecutionID
	interval time.Duration
	stop     chan struct{}
}

// ExecutionEngine owns the single active execution. Commands are serialized
// by a mutex; events and gateway calls run after the mutex is released, in
// the order the commands were accepted. A listener may issue commands: their
// effects are queued behind the event being delivered.
type ExecutionEngine struct {
	states     repository.ExecutionStateRepository
	history    repository.HistoryRepository
	prefsRepo  repository.PreferencesRepository
	notifier   output.NotificationGateway
	background output.BackgroundTaskGateway
	clock      clock.Clock
	ids        model.IDGenerator
	logger     app.Logger
	bus        *EventBus

	mu          sync.Mutex
	queue       []effectBatch // guarded by mu
	delivering  bool          // one goroutine drains queue at a time
	deliveries  sync.WaitGroup
	initialized bool
	closed      bool
	prefs       execution.Preferences
	current     *execution.ExecutionState
	ticker      *tickLoop
	bgTaskOn    bool
	writer      *snapshotWriter
	tickers     sync.WaitGroup
	wake        chan struct{}
	retrySave   atomic.Bool

	handleMu sync.Mutex
	bgHandle output.NotificationHandle
}

// NewExecutionEngine creates an engine. Call Initialize before any command.
func NewExecutionEngine(deps EngineDeps) *ExecutionEngine {
	prefs := execution.DefaultPreferences()
	if deps.Defaults != nil {
		prefs = *deps.Defaults
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = model.ULIDGenerator{}
	}
	if deps.Logger == nil {
		deps.Logger = app.GetLogger()
	}
	return &ExecutionEngine{
		states:     deps.States,
		history:    deps.History,
		prefsRepo:  deps.Preferences,
		notifier:   deps.Notifier,
		background: deps.Background,
		clock:      deps.Clock,
		ids:        deps.IDs,
		logger:     deps.Logger,
		bus:        NewEventBus(),
		prefs:      prefs,
		wake:       make(chan struct{}, 1),
	}
}

// effects collects side effects produced under the state lock
type effects struct {
	steps []func(ctx context.Context)
}

func (f *effects) do(fn func(ctx context.Context)) {
	f.steps = append(f.steps, fn)
}

// effectBatch is the effects of one accepted command
type effectBatch struct {
	ctx   context.Context
	steps []func(ctx context.Context)
}

// Subscribe registers a listener for every event
func (e *ExecutionEngine) Subscribe(fn Listener) (unsubscribe func()) {
	return e.bus.Subscribe(fn)
}

// On registers a listener for a single event type
func (e *ExecutionEngine) On(eventType EventType, fn Listener) (unsubscribe func()) {
	return e.bus.On(eventType, fn)
}

// exec runs fn under the state lock, then performs the collected effects
func (e *ExecutionEngine) exec(ctx context.Context, fn func(now time.Time, fx *effects) error) error {
	e.mu.Lock()
	if !e.initialized || e.closed {
		e.mu.Unlock()
		return model.ErrNotInitialized
	}
	fx := &effects{}
	err := fn(e.clock.Now(), fx)
	e.dispatch(ctx, fx)
	return err
}

// dispatch must be called with e.mu held; it releases it. Batches are queued
// under mu, so queue order is command order. If another call is already
// delivering, including the caller's own listener further up the stack, that
// call runs the batch once it is done with the earlier ones.
func (e *ExecutionEngine) dispatch(ctx context.Context, fx *effects) {
	if !e.enqueueLocked(ctx, fx.steps) {
		e.mu.Unlock()
		return
	}
	e.deliverLocked()
}

// enqueueLocked appends a batch and reports whether the caller must deliver
func (e *ExecutionEngine) enqueueLocked(ctx context.Context, steps []func(ctx context.Context)) bool {
	if len(steps) > 0 {
		e.queue = append(e.queue, effectBatch{ctx: ctx, steps: steps})
	}
	if e.delivering || len(e.queue) == 0 {
		return false
	}
	e.delivering = true
	return true
}

// deliverLocked runs queued batches until the queue is empty. It is entered
// with mu held and returns with mu released.
func (e *ExecutionEngine) deliverLocked() {
	for len(e.queue) > 0 {
		batch := e.queue[0]
		e.queue[0] = effectBatch{}
		e.queue = e.queue[1:]

		e.mu.Unlock()
		for _, step := range batch.steps {
			step(batch.ctx)
		}
		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
}

func (e *ExecutionEngine) emit(fx *effects, t EventType, s *execution.ExecutionState, now time.Time) {
	ev := Event{Type: t, At: now}
	if s != nil {
		ev.ExecutionID = s.ID
		ev.LoopID = s.LoopID
		ev.State = s.Clone()
	}
	fx.do(func(context.Context) { e.bus.Publish(ev) })
}

// Initialize loads preferences and runs crash recovery once.
// A corrupt snapshot is discarded; a storage failure is returned.
func (e *ExecutionEngine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return nil
	}
	if e.closed {
		e.mu.Unlock()
		return model.ErrNotInitialized
	}
	now := e.clock.Now()

	e.loadPreferencesLocked(ctx)

	state, err := e.states.Load(ctx)
	if err != nil && !model.IsCorruptState(err) {
		e.mu.Unlock()
		return fmt.Errorf("initialize engine: %w", err)
	}

	e.writer = newSnapshotWriter(e.states, e.history, e.onWriteError)
	e.initialized = true

	fx := &effects{}
	switch {
	case err != nil:
		e.discardLocked(ctx, now, "", err)
	case state != nil:
		e.recoverLocked(ctx, now, state, fx)
	}
	e.dispatch(ctx, fx)
	return nil
}

func (e *ExecutionEngine) loadPreferencesLocked(ctx context.Context) {
	if e.prefsRepo == nil {
		return
	}
	p, err := e.prefsRepo.Load(ctx)
	switch {
	case err != nil:
		e.logger.Warn("load preferences: %v (using defaults)", err)
	case p == nil:
	case p.Validate() != nil:
		e.logger.Warn("stored preferences invalid: %v (using defaults)", p.Validate())
	default:
		e.prefs = *p
	}
}

func (e *ExecutionEngine) discardLocked(ctx context.Context, now time.Time, id execution.ExecutionID, cause error) {
	e.logger.Warn("discarding execution snapshot %s: %v", id, cause)
	if err := e.states.Clear(ctx); err != nil {
		e.logger.Error("clear corrupt snapshot: %v", err)
	}
	rec := repository.RecoveryRecord{
		At:          now,
		ExecutionID: id,
		Outcome:     repository.RecoveryDiscarded,
		Reason:      cause.Error(),
	}
	if err := e.states.SaveRecovery(ctx, rec); err != nil {
		e.logger.Warn("save recovery record: %v", err)
	}
}

func (e *ExecutionEngine) recoverLocked(ctx context.Context, now time.Time, state *execution.ExecutionState, fx *effects) {
	if err := state.Validate(); err != nil {
		e.discardLocked(ctx, now, state.ID, err)
		return
	}

	missed := state.Recover(now)
	e.current = state
	e.saveLocked(now)

	rec := repository.RecoveryRecord{
		At:          now,
		ExecutionID: state.ID,
		Outcome:     repository.RecoveryRestored,
		MissedTime:  missed,
	}
	if err := e.states.SaveRecovery(ctx, rec); err != nil {
		e.logger.Warn("save recovery record: %v", err)
	}
	e.logger.Info("recovered execution %s of loop %s (%s missed, %s)", state.ID, state.LoopID, missed, state.Status)
	e.emit(fx, EventExecutionRecovered, state, now)

	if state.Expired() {
		finished, _ := state.CurrentActivity()
		e.applyAdvanceLocked(now, fx, finished, state.CompleteCurrent(now))
	}
	if e.current != nil && e.current.Status == execution.StatusRunning {
		e.startTickerLocked()
		if e.current.ContinueInBackground {
			e.startBackgroundTaskLocked(fx)
		}
	}
}

// Close persists the live execution, stops tick goroutines and drains pending writes
func (e *ExecutionEngine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	fx := &effects{}
	if e.initialized && e.current != nil {
		e.current.Tick(e.clock.Now())
		e.saveLocked(e.clock.Now())
	}
	e.stopTickerLocked()
	e.endBackgroundTaskLocked(fx)
	e.closed = true
	writer := e.writer

	e.dispatch(ctx, fx)

	e.tickers.Wait()
	if writer != nil {
		writer.close()
	}
	e.deliveries.Wait()
	return nil
}

// Flush waits until every snapshot queued so far has been written
func (e *ExecutionEngine) Flush(ctx context.Context) error {
	e.mu.Lock()
	writer := e.writer
	e.mu.Unlock()
	if writer == nil {
		return nil
	}
	return writer.flush(ctx)
}

// StartLoop snapshots the loop and starts executing its first activity.
// It is rejected with a ConflictError while another execution is active.
func (e *ExecutionEngine) StartLoop(ctx context.Context, l *loop.Loop) (*execution.ExecutionState, error) {
	var started *execution.ExecutionState
	err := e.exec(ctx, func(now time.Time, fx *effects) error {
		if cur := e.current; cur != nil {
			return model.NewConflictError("execution %s of loop %s is %s", cur.ID, cur.LoopID, cur.Status).
				WithDetails(map[string]interface{}{"execution_id": string(cur.ID), "loop_id": cur.LoopID})
		}

		s, err := execution.NewExecutionState(execution.ExecutionID(e.ids.NewID(now)), l, now)
		if err != nil {
			return err
		}
		e.current = s
		e.saveLocked(now)
		e.startTickerLocked()
		if s.ContinueInBackground {
			e.startBackgroundTaskLocked(fx)
		}

		if first, ok := s.CurrentActivity(); ok && e.wants(s, s.Notifications.ActivityStart) {
			e.notifyStart(fx, first, s)
		}
		e.emit(fx, EventExecutionStarted, s, now)
		e.logger.Info("started execution %s of loop %s", s.ID, s.LoopID)
		started = s.Clone()
		return nil
	})
	return started, err
}

// PauseLoop pauses a running execution; otherwise it is a no-op
func (e *ExecutionEngine) PauseLoop(ctx context.Context) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil || !s.Pause(now) {
			e.logger.Debug("pause ignored: no running execution")
			return nil
		}
		e.stopTickerLocked()
		e.saveLocked(now)
		e.emit(fx, EventExecutionPaused, s, now)
		return nil
	})
}

// ResumeLoop resumes a paused execution; otherwise it is a no-op
func (e *ExecutionEngine) ResumeLoop(ctx context.Context) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil || !s.Resume(now) {
			e.logger.Debug("resume ignored: no paused execution")
			return nil
		}
		e.startTickerLocked()
		e.saveLocked(now)
		e.emit(fx, EventExecutionResumed, s, now)
		return nil
	})
}

// CompleteCurrentActivity completes the current activity and advances
func (e *ExecutionEngine) CompleteCurrentActivity(ctx context.Context) error {
	return e.CompleteActivity(ctx, "")
}

// SkipCurrentActivity skips the current activity if it is skippable
func (e *ExecutionEngine) SkipCurrentActivity(ctx context.Context) error {
	return e.SkipActivity(ctx, "")
}

// CompleteActivity completes activityID if it is still the current activity.
// An empty id targets whatever is current when the command is accepted.
func (e *ExecutionEngine) CompleteActivity(ctx context.Context, activityID string) error {
	return e.finishActivity(ctx, "complete", activityID, (*execution.ExecutionState).CompleteCurrent)
}

// SkipActivity skips activityID if it is still current and skippable
func (e *ExecutionEngine) SkipActivity(ctx context.Context, activityID string) error {
	return e.finishActivity(ctx, "skip", activityID, (*execution.ExecutionState).SkipCurrent)
}

// finishActivity applies a user complete or skip. An activity whose timer ran
// out before the command was accepted is auto-completed first, so the command
// lost the race and becomes a no-op, as does one aimed at an activity that is
// no longer current.
func (e *ExecutionEngine) finishActivity(ctx context.Context, verb, activityID string, finish func(*execution.ExecutionState, time.Time) execution.Advance) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil {
			e.logger.Warn("%s ignored: no active execution", verb)
			return nil
		}
		target, _ := s.CurrentActivity()
		if activityID == "" {
			activityID = target.ID
		}
		if s.Tick(now).Expired {
			e.applyAdvanceLocked(now, fx, target, s.CompleteCurrent(now))
			if e.current == nil {
				e.logger.Warn("%s ignored: execution %s completed on expiry", verb, s.ID)
				return nil
			}
		}

		cur, ok := s.CurrentActivity()
		if !ok || cur.ID != activityID {
			e.logger.Warn("%s ignored: activity %s is no longer current", verb, activityID)
			return nil
		}
		adv := finish(s, now)
		if adv == execution.AdvanceNone {
			e.logger.Warn("%s ignored: activity %s of execution %s (%s)", verb, cur.ID, s.ID, s.Status)
			return nil
		}
		e.applyAdvanceLocked(now, fx, cur, adv)
		return nil
	})
}

// PreviousActivity reopens the activity before the current one
func (e *ExecutionEngine) PreviousActivity(ctx context.Context) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil || !s.Previous(now) {
			e.logger.Warn("previous ignored: no earlier activity")
			return nil
		}
		if a, ok := s.CurrentActivity(); ok && e.wants(s, s.Notifications.ActivityStart) {
			e.notifyStart(fx, a, s)
		}
		e.saveLocked(now)
		e.emit(fx, EventActivityChanged, s, now)
		return nil
	})
}

// StopLoop ends the execution with status stopped
func (e *ExecutionEngine) StopLoop(ctx context.Context) error {
	return e.terminate(ctx, execution.StatusStopped)
}

// CancelExecution ends the execution with status cancelled
func (e *ExecutionEngine) CancelExecution(ctx context.Context) error {
	return e.terminate(ctx, execution.StatusCancelled)
}

func (e *ExecutionEngine) terminate(ctx context.Context, status execution.ExecutionStatus) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil {
			e.logger.Warn("%s ignored: no active execution", status)
			return nil
		}
		if err := s.Terminate(status, now); err != nil {
			return err
		}
		e.finishLocked(now, fx)
		return nil
	})
}

// UpdateSubItemProgress marks a sub-item of the current activity done or not done.
// It never changes activity status.
func (e *ExecutionEngine) UpdateSubItemProgress(ctx context.Context, index int, completed bool) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		s := e.current
		if s == nil {
			e.logger.Warn("sub-item update ignored: no active execution")
			return nil
		}
		changed, err := s.ToggleSubItem(index, completed)
		if err != nil || !changed {
			return err
		}
		e.saveLocked(now)
		e.emit(fx, EventSubItemProgress, s, now)
		return nil
	})
}

// GetCurrentExecution returns a copy of the active execution, or nil
func (e *ExecutionEngine) GetCurrentExecution() *execution.ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	return e.current.Clone()
}

// IsExecuting reports whether an execution is active
func (e *ExecutionEngine) IsExecuting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Tick runs one tick immediately
func (e *ExecutionEngine) Tick(ctx context.Context) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		if e.current != nil {
			e.tickLocked(now, fx)
		}
		return nil
	})
}

// HandleBackgroundWake asks the tick goroutine for an extra tick. It never
// blocks, so the background gateway can call it from its own goroutine.
func (e *ExecutionEngine) HandleBackgroundWake(ctx context.Context) {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Preferences returns the active preferences
func (e *ExecutionEngine) Preferences() execution.Preferences {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prefs
}

// UpdatePreferences validates, applies and persists new preferences.
// A running ticker picks up the new cadence immediately.
func (e *ExecutionEngine) UpdatePreferences(ctx context.Context, p execution.Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := e.exec(ctx, func(now time.Time, fx *effects) error {
		e.prefs = p
		if e.current != nil && e.current.Status == execution.StatusRunning {
			e.startTickerLocked()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if e.prefsRepo == nil {
		return nil
	}
	return e.prefsRepo.Save(ctx, p)
}

// History returns archived executions, newest first. limit <= 0 returns all.
func (e *ExecutionEngine) History(ctx context.Context, limit int) ([]execution.ExecutionHistory, error) {
	if err := e.Flush(ctx); err != nil {
		return nil, err
	}
	return e.history.List(ctx, limit)
}

// ClearHistory deletes every archived execution
func (e *ExecutionEngine) ClearHistory(ctx context.Context) error {
	if err := e.Flush(ctx); err != nil {
		return err
	}
	return e.history.Clear(ctx)
}

// Stats aggregates the full history
func (e *ExecutionEngine) Stats(ctx context.Context) (execution.HistoryStats, error) {
	entries, err := e.History(ctx, 0)
	if err != nil {
		return execution.HistoryStats{}, err
	}
	return execution.ComputeStats(entries), nil
}

// tickLocked accrues time, auto-completes an expired activity and saves
// when the save interval has passed
func (e *ExecutionEngine) tickLocked(now time.Time, fx *effects) {
	s := e.current
	res := s.Tick(now)
	if res.Expired {
		finished, _ := s.CurrentActivity()
		e.applyAdvanceLocked(now, fx, finished, s.CompleteCurrent(now))
		return
	}
	if s.Status != execution.StatusRunning {
		return
	}
	if e.retrySave.Load() || now.Sub(s.LastSavedAt) >= e.prefs.SaveInterval {
		e.saveLocked(now)
	}
	e.emit(fx, EventExecutionTick, s, now)
}

func (e *ExecutionEngine) applyAdvanceLocked(now time.Time, fx *effects, finished loop.ActivityInstance, adv execution.Advance) {
	s := e.current
	switch adv {
	case execution.AdvanceNext:
		if e.wants(s, s.Notifications.ActivityComplete) {
			e.notifyComplete(fx, finished, s, false)
		}
		if next, ok := s.CurrentActivity(); ok && e.wants(s, s.Notifications.ActivityStart) {
			e.notifyStart(fx, next, s)
		}
		e.saveLocked(now)
		e.emit(fx, EventActivityChanged, s, now)
	case execution.AdvanceFinished:
		if e.wants(s, s.Notifications.ActivityComplete) {
			e.notifyComplete(fx, finished, s, true)
		}
		e.finishLocked(now, fx)
	}
}

// finishLocked archives the terminated execution and releases the session
func (e *ExecutionEngine) finishLocked(now time.Time, fx *effects) {
	s := e.current
	e.stopTickerLocked()
	e.endBackgroundTaskLocked(fx)
	e.cancelNotificationsLocked(fx, s.LoopID)

	entry := execution.NewExecutionHistory(e.ids.NewID(now), s)
	e.writer.archive(entry, e.prefs.HistoryLimit)
	e.current = nil
	e.retrySave.Store(false)

	if s.Status == execution.StatusCompleted {
		if e.wants(s, s.Notifications.LoopComplete) {
			final := s.Clone()
			ref := loopRef(s)
			fx.do(func(ctx context.Context) {
				e.gatewayResult("loop complete notification", e.notifier.NotifyLoopComplete(ctx, ref, final))
			})
		}
		e.emit(fx, EventExecutionCompleted, s, now)
	} else {
		e.emit(fx, EventExecutionStopped, s, now)
	}
	e.logger.Info("execution %s %s after %s", s.ID, s.Status, s.TotalElapsed)
}

func (e *ExecutionEngine) saveLocked(now time.Time) {
	s := e.current
	s.LastSavedAt = now
	e.retrySave.Store(false)
	e.writer.save(s.Clone())
}

// onWriteError runs on the writer goroutine. The error event joins the
// effect queue so listeners see it in order with command events; it is
// delivered from a separate goroutine so a listener can still call Flush.
func (e *ExecutionEngine) onWriteError(kind writeKind, err error) {
	e.logger.Error("%s: %v", kind, err)
	if kind == writeSave || kind == writeBackground {
		e.retrySave.Store(true)
	}

	e.mu.Lock()
	ev := Event{
		Type: EventExecutionError,
		At:   e.clock.Now(),
		Err:  model.NewPersistenceError(kind.String(), err),
	}
	if s := e.current; s != nil {
		ev.ExecutionID = s.ID
		ev.LoopID = s.LoopID
	}
	publish := func(context.Context) { e.bus.Publish(ev) }
	if !e.enqueueLocked(context.Background(), []func(ctx context.Context){publish}) {
		e.mu.Unlock()
		return
	}
	e.deliveries.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.deliveries.Done()
		e.mu.Lock()
		e.deliverLocked()
	}()
}

// startTickerLocked replaces the ticker goroutine with one at the cadence
// of the current background state. Nothing runs unless the execution runs.
func (e *ExecutionEngine) startTickerLocked() {
	e.stopTickerLocked()
	s := e.current
	if s == nil || s.Status != execution.StatusRunning {
		return
	}
	t := &tickLoop{
		id:       s.ID,
		interval: e.prefs.TickInterval(s.BackgroundState),
		stop:     make(chan struct{}),
	}
	e.ticker = t
	src := e.clock.NewTicker(t.interval)
	e.tickers.Add(1)
	go e.runTicker(t, src)
}

func (e *ExecutionEngine) stopTickerLocked() {
	if e.ticker != nil {
		close(e.ticker.stop)
		e.ticker = nil
	}
}

func (e *ExecutionEngine) runTicker(t *tickLoop, src clock.Ticker) {
	defer e.tickers.Done()
	defer src.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-src.C():
		case <-e.wake:
		}
		_ = e.tickFrom(context.Background(), t)
	}
}

// tickFrom ticks on behalf of t. A late tick from a replaced ticker or a
// finished session is dropped.
func (e *ExecutionEngine) tickFrom(ctx context.Context, t *tickLoop) error {
	return e.exec(ctx, func(now time.Time, fx *effects) error {
		if e.ticker != t || e.current == nil || e.current.ID != t.id {
			return nil
		}
		e.tickLocked(now, fx)
		return nil
	})
}

func (e *ExecutionEngine) startBackgroundTaskLocked(fx *effects) {
	if e.background == nil || e.bgTaskOn || !e.background.IsSupported() {
		return
	}
	e.bgTaskOn = true
	fx.do(func(ctx context.Context) {
		e.gatewayResult("start background task", e.background.StartBackgroundTask(ctx))
	})
}

func (e *ExecutionEngine) endBackgroundTaskLocked(fx *effects) {
	if !e.bgTaskOn {
		return
	}
	e.bgTaskOn = false
	fx.do(func(ctx context.Context) {
		e.gatewayResult("end background task", e.background.EndBackgroundTask(ctx))
	})
}

func (e *ExecutionEngine) cancelNotificationsLocked(fx *effects, loopID string) {
	if e.notifier == nil {
		return
	}
	fx.do(func(ctx context.Context) {
		e.handleMu.Lock()
		e.bgHandle = ""
		e.handleMu.Unlock()
		e.gatewayResult("cancel notifications", e.notifier.CancelAllForLoop(ctx, loopID))
	})
}

// wants reports whether a notification of the given kind should be sent
func (e *ExecutionEngine) wants(s *execution.ExecutionState, kind bool) bool {
	return e.notifier != nil && e.prefs.NotificationsEnabled && s.Notifications.Enabled && kind
}

func (e *ExecutionEngine) notifyStart(fx *effects, a loop.ActivityInstance, s *execution.ExecutionState) {
	ref := loopRef(s)
	fx.do(func(ctx context.Context) {
		e.gatewayResult("activity start notification", e.notifier.NotifyActivityStart(ctx, a, ref))
	})
}

func (e *ExecutionEngine) notifyComplete(fx *effects, a loop.ActivityInstance, s *execution.ExecutionState, isLast bool) {
	ref := loopRef(s)
	fx.do(func(ctx context.Context) {
		e.gatewayResult("activity complete notification", e.notifier.NotifyActivityComplete(ctx, a, ref, isLast))
	})
}

// gatewayResult logs gateway failures; missing permissions are not failures
func (e *ExecutionEngine) gatewayResult(what string, err error) {
	switch {
	case err == nil:
	case model.IsPermissionDenied(err):
		e.logger.Debug("%s skipped: %v", what, err)
	default:
		e.logger.Warn("%s failed: %v", what, err)
	}
}

func loopRef(s *execution.ExecutionState) output.LoopRef {
	return output.LoopRef{ID: s.LoopID, Title: s.LoopTitle}
}
