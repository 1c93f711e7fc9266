package service

import (
	"context"
	"sync"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
)

type writeKind int

const (
	writeSave writeKind = iota
	writeBackground
	writeArchive
	writeClear
	writeBarrier
)

func (k writeKind) String() string {
	switch k {
	case writeSave:
		return "save execution"
	case writeBackground:
		return "save background snapshot"
	case writeArchive:
		return "archive execution"
	case writeClear:
		return "clear execution"
	default:
		return "barrier"
	}
}

type writeOp struct {
	kind       writeKind
	state      *execution.ExecutionState
	background repository.BackgroundSnapshot
	entry      execution.ExecutionHistory
	limit      int
	done       chan struct{}
}

// snapshotWriter applies persistence operations on a single goroutine in
// the order they were enqueued. Adjacent saves collapse to the newest one,
// so a stale snapshot can never land after a newer one or after a clear.
type snapshotWriter struct {
	states  repository.ExecutionStateRepository
	history repository.HistoryRepository
	onError func(kind writeKind, err error)

	mu      sync.Mutex
	queue   []writeOp
	closed  bool
	applied int // operations executed, for tests

	signal chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func newSnapshotWriter(states repository.ExecutionStateRepository, history repository.HistoryRepository, onError func(writeKind, error)) *snapshotWriter {
	w := &snapshotWriter{
		states:  states,
		history: history,
		onError: onError,
		signal:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *snapshotWriter) save(state *execution.ExecutionState) {
	w.enqueue(writeOp{kind: writeSave, state: state})
}

func (w *snapshotWriter) saveBackground(snap repository.BackgroundSnapshot) {
	w.enqueue(writeOp{kind: writeBackground, background: snap})
}

// archive appends the entry to history, then clears the live slot
func (w *snapshotWriter) archive(entry execution.ExecutionHistory, limit int) {
	w.enqueue(writeOp{kind: writeArchive, entry: entry, limit: limit})
	w.enqueue(writeOp{kind: writeClear})
}

func (w *snapshotWriter) clear() {
	w.enqueue(writeOp{kind: writeClear})
}

func (w *snapshotWriter) enqueue(op writeOp) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}

	if n := len(w.queue); op.kind == writeSave && n > 0 && w.queue[n-1].kind == writeSave {
		w.queue[n-1] = op
	} else {
		w.queue = append(w.queue, op)
	}

	select {
	case w.signal <- struct{}{}:
	default:
	}
	return true
}

// flush blocks until every operation enqueued before it has been applied
func (w *snapshotWriter) flush(ctx context.Context) error {
	done := make(chan struct{})
	if !w.enqueue(writeOp{kind: writeBarrier, done: done}) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains pending operations and stops the worker
func (w *snapshotWriter) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
}

func (w *snapshotWriter) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *snapshotWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.signal:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *snapshotWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		op := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.apply(op)
	}
}

func (w *snapshotWriter) apply(op writeOp) {
	// Detached: a write must finish even if the command that queued it was cancelled
	ctx := context.Background()

	var err error
	switch op.kind {
	case writeSave:
		err = w.states.Save(ctx, op.state)
	case writeBackground:
		err = w.states.SaveBackground(ctx, op.background)
	case writeArchive:
		err = w.history.Append(ctx, op.entry, op.limit)
	case writeClear:
		err = w.states.Clear(ctx)
	case writeBarrier:
		close(op.done)
	}

	w.mu.Lock()
	w.applied++
	w.mu.Unlock()

	if err != nil && w.onError != nil {
		w.onError(op.kind, err)
	}
}
