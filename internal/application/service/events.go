package service

import (
	"sort"
	"sync"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
)

// EventType names an engine event
type EventType string

const (
	EventExecutionStarted      EventType = "execution_started"
	EventExecutionPaused       EventType = "execution_paused"
	EventExecutionResumed      EventType = "execution_resumed"
	EventExecutionStopped      EventType = "execution_stopped"
	EventExecutionCompleted    EventType = "execution_completed"
	EventActivityChanged       EventType = "activity_changed"
	EventExecutionBackgrounded EventType = "execution_backgrounded"
	EventExecutionForegrounded EventType = "execution_foregrounded"
	EventExecutionRecovered    EventType = "execution_recovered"
	EventExecutionError        EventType = "execution_error"
	EventSubItemProgress       EventType = "subitem_progress_changed"
	EventExecutionTick         EventType = "execution_tick"
)

// Event is delivered to subscribers. State is a private copy taken when the
// event was produced and may be nil for errors outside a session.
type Event struct {
	Type        EventType
	At          time.Time
	ExecutionID execution.ExecutionID
	LoopID      string
	State       *execution.ExecutionState
	Err         error
}

// Listener receives events synchronously and in order. A command issued
// from a listener returns before its own events are delivered; they follow
// once the current event has reached every listener.
type Listener func(Event)

type subscription struct {
	filter EventType // empty matches everything
	fn     Listener
}

// EventBus fans events out to subscribers
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]subscription)}
}

// Subscribe registers a listener for every event
func (b *EventBus) Subscribe(fn Listener) (unsubscribe func()) {
	return b.add(subscription{fn: fn})
}

// On registers a listener for one event type
func (b *EventBus) On(eventType EventType, fn Listener) (unsubscribe func()) {
	return b.add(subscription{filter: eventType, fn: fn})
}

func (b *EventBus) add(sub subscription) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to matching listeners in subscription order
func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	subs := make(map[int]subscription, len(b.subs))
	for id, s := range b.subs {
		subs[id] = s
	}
	b.mu.RUnlock()

	sort.Ints(ids)
	for _, id := range ids {
		s := subs[id]
		if s.filter == "" || s.filter == ev.Type {
			s.fn(ev)
		}
	}
}

// Len returns the number of active subscriptions
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
