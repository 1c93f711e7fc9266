package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/adapter/gateway/storage"
	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
	repoimpl "github.com/YoshitsuguKoike/loopkit/internal/infrastructure/repository"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

var t0 = time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)

// threeStepLoop has a 60s activity, an untimed one with two sub-items and a
// 30s activity that cannot be skipped
func threeStepLoop() *loop.Loop {
	noSkip := false
	return &loop.Loop{
		ID:                  "loop-1",
		Title:               "Morning",
		BackgroundExecution: true,
		Notifications: loop.NotificationSettings{
			Enabled: true, ActivityStart: true, ActivityComplete: true, LoopComplete: true,
		},
		Activities: []loop.ActivityInstance{
			{ID: "a1", TemplateID: "stretch", DurationMinutes: 1, Order: 0},
			{ID: "a2", TemplateID: "journal", Order: 1, SubItems: []loop.SubItem{{Label: "gratitude"}, {Label: "plan"}}},
			{ID: "a3", TemplateID: "breathe", DurationMinutes: 0.5, Order: 2, Skippable: &noSkip},
		},
	}
}

// seqIDs hands out id-001, id-002, ...
type seqIDs struct {
	n atomic.Int64
}

func (s *seqIDs) NewID(time.Time) string {
	return fmt.Sprintf("id-%03d", s.n.Add(1))
}

type recordingNotifier struct {
	mu      sync.Mutex
	calls   []string
	handles int
	err     error
}

func (n *recordingNotifier) record(call string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
	return n.err
}

func (n *recordingNotifier) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func (n *recordingNotifier) NotifyActivityStart(ctx context.Context, a loop.ActivityInstance, l output.LoopRef) error {
	return n.record("start:" + a.ID)
}

func (n *recordingNotifier) NotifyActivityComplete(ctx context.Context, a loop.ActivityInstance, l output.LoopRef, isLast bool) error {
	return n.record(fmt.Sprintf("complete:%s:last=%t", a.ID, isLast))
}

func (n *recordingNotifier) NotifyLoopComplete(ctx context.Context, l output.LoopRef, s *execution.ExecutionState) error {
	return n.record("loop_complete:" + l.ID)
}

func (n *recordingNotifier) NotifyBackgroundExecution(ctx context.Context, l output.LoopRef, current loop.ActivityInstance) (output.NotificationHandle, error) {
	n.mu.Lock()
	n.handles++
	h := output.NotificationHandle(fmt.Sprintf("h%d", n.handles))
	n.mu.Unlock()
	return h, n.record("background:" + l.ID + ":" + current.ID)
}

func (n *recordingNotifier) NotifyScheduleReminder(ctx context.Context, s *schedule.ScheduledLoop, startsIn time.Duration) error {
	return n.record(fmt.Sprintf("reminder:%s:%s", s.ID, startsIn))
}

func (n *recordingNotifier) NotifyScheduleDue(ctx context.Context, s *schedule.ScheduledLoop) error {
	return n.record("due:" + s.ID)
}

func (n *recordingNotifier) Cancel(ctx context.Context, h output.NotificationHandle) error {
	return n.record("cancel:" + string(h))
}

func (n *recordingNotifier) CancelAllForLoop(ctx context.Context, loopID string) error {
	return n.record("cancel_all:" + loopID)
}

type fakeBackground struct {
	mu        sync.Mutex
	supported bool
	running   bool
	starts    int
	ends      int
}

func (b *fakeBackground) StartBackgroundTask(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts++
	b.running = true
	return nil
}

func (b *fakeBackground) EndBackgroundTask(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends++
	b.running = false
	return nil
}

func (b *fakeBackground) IsSupported() bool { return b.supported }

func (b *fakeBackground) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// toggleStore fails every write while fail is set
type toggleStore struct {
	*storage.MemoryStore
	fail atomic.Bool
}

func (s *toggleStore) Set(ctx context.Context, key string, value []byte) error {
	if s.fail.Load() {
		return fmt.Errorf("disk full")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) Types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var types []EventType
	for _, ev := range l.events {
		if ev.Type != EventExecutionTick {
			types = append(types, ev.Type)
		}
	}
	return types
}

func (l *eventLog) Last(t EventType) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Type == t {
			return l.events[i], true
		}
	}
	return Event{}, false
}

func (l *eventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	clk      *clock.ManualClock
	store    *toggleStore
	states   *repoimpl.StateRepositoryImpl
	history  *repoimpl.HistoryRepositoryImpl
	prefs    *repoimpl.PreferencesRepositoryImpl
	notifier *recordingNotifier
	bg       *fakeBackground
	engine   *ExecutionEngine
	events   *eventLog
}

// newHarness builds an engine over an in-memory store without initializing it
func newHarness(t *testing.T) *harness {
	t.Helper()
	store := &toggleStore{MemoryStore: storage.NewMemoryStore()}
	return newHarnessOn(t, store, clock.NewManualClock(t0))
}

func newHarnessOn(t *testing.T, store *toggleStore, clk *clock.ManualClock) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		clk:      clk,
		store:    store,
		states:   repoimpl.NewStateRepositoryImpl(store),
		history:  repoimpl.NewHistoryRepositoryImpl(store),
		prefs:    repoimpl.NewPreferencesRepositoryImpl(store),
		notifier: &recordingNotifier{},
		bg:       &fakeBackground{supported: true},
		events:   &eventLog{},
	}
	h.engine = NewExecutionEngine(EngineDeps{
		States:      h.states,
		History:     h.history,
		Preferences: h.prefs,
		Notifier:    h.notifier,
		Background:  h.bg,
		Clock:       clk,
		IDs:         &seqIDs{},
		Logger:      app.NopLogger{},
	})
	h.engine.Subscribe(h.events.add)
	t.Cleanup(func() { _ = h.engine.Close(context.Background()) })
	return h
}

func (h *harness) init() *harness {
	h.t.Helper()
	require.NoError(h.t, h.engine.Initialize(h.ctx))
	return h
}

// startedHarness returns an initialized engine running threeStepLoop at t0
func startedHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t).init()
	_, err := h.engine.StartLoop(h.ctx, threeStepLoop())
	require.NoError(t, err)
	return h
}

func (h *harness) at(d time.Duration) {
	h.clk.Set(t0.Add(d))
}

func (h *harness) current() *execution.ExecutionState {
	h.t.Helper()
	s := h.engine.GetCurrentExecution()
	require.NotNil(h.t, s)
	return s
}

func (h *harness) flush() {
	h.t.Helper()
	require.NoError(h.t, h.engine.Flush(h.ctx))
}
