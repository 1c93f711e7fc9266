package run

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/application/service"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
)

// session relays stdin commands to the engine and renders engine events.
// Listeners run on engine goroutines, so events are queued and rendered
// from the session loop only.
type session struct {
	engine    *service.ExecutionEngine
	presenter output.LoopPresenter
	out       io.Writer

	events   chan service.Event
	done     chan struct{}
	doneOnce sync.Once

	backgrounded bool
	shown        string // id of the activity the user last saw
}

func newSession(engine *service.ExecutionEngine, presenter output.LoopPresenter, out io.Writer) *session {
	return &session{
		engine:    engine,
		presenter: presenter,
		out:       out,
		events:    make(chan service.Event, 64),
		done:      make(chan struct{}),
	}
}

// listen is the engine listener. It never blocks.
func (s *session) listen(ev service.Event) {
	switch ev.Type {
	case service.EventExecutionTick:
		return
	case service.EventExecutionCompleted, service.EventExecutionStopped:
		s.doneOnce.Do(func() { close(s.done) })
	}
	select {
	case s.events <- ev:
	default:
	}
}

// run processes commands until the execution ends, the input is exhausted,
// the user detaches or ctx is cancelled. The live execution stays persisted
// in every case but a terminal one.
func (s *session) run(ctx context.Context, in io.Reader, signals <-chan os.Signal) error {
	quit := make(chan struct{})
	defer close(quit)
	lines := readLines(in, quit)

	for {
		select {
		case ev := <-s.events:
			s.render(ev)
			continue
		default:
		}

		select {
		case ev := <-s.events:
			s.render(ev)
		case <-s.done:
			s.drain()
			return nil
		case <-ctx.Done():
			fmt.Fprintln(s.out, "Interrupted; the execution will be recovered on the next run")
			return nil
		case sig := <-signals:
			if !isBackgroundSignal(sig) {
				fmt.Fprintln(s.out, "Interrupted; the execution will be recovered on the next run")
				return nil
			}
			if err := s.engine.OnBackground(ctx); err != nil {
				s.presenter.PresentError(err)
				continue
			}
			s.backgrounded = true
			fmt.Fprintln(s.out, "In background; press Enter to return")
		case line, ok := <-lines:
			if !ok {
				s.drain()
				return nil
			}
			if s.backgrounded {
				s.backgrounded = false
				if err := s.engine.OnForeground(ctx); err != nil {
					s.presenter.PresentError(err)
				}
			}
			detach, err := s.handle(ctx, line)
			if err != nil {
				s.presenter.PresentError(err)
			}
			if detach {
				s.drain()
				fmt.Fprintln(s.out, "Detached; the execution keeps running")
				return nil
			}
		}
	}
}

// drain renders events queued before the session ended
func (s *session) drain() {
	for {
		select {
		case ev := <-s.events:
			s.render(ev)
		default:
			return
		}
	}
}

func (s *session) handle(ctx context.Context, line string) (detach bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		if state := s.engine.GetCurrentExecution(); state != nil {
			s.track(state)
			return false, s.presenter.PresentExecution(state)
		}
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "n":
		return false, s.engine.CompleteActivity(ctx, s.shown)
	case "s":
		return false, s.engine.SkipActivity(ctx, s.shown)
	case "b":
		return false, s.engine.PreviousActivity(ctx)
	case "p":
		return false, s.engine.PauseLoop(ctx)
	case "r":
		return false, s.engine.ResumeLoop(ctx)
	case "x":
		return false, s.toggleSubItem(ctx, fields[1:])
	case "q":
		return false, s.engine.StopLoop(ctx)
	case "c":
		return false, s.engine.CancelExecution(ctx)
	case "d":
		return true, s.engine.OnBackground(ctx)
	case "?", "h", "help":
		fmt.Fprintln(s.out, "n=complete s=skip b=previous p=pause r=resume x N=toggle sub-item d=detach q=stop c=cancel")
		return false, nil
	default:
		fmt.Fprintf(s.out, "Unknown command %q (? for help)\n", fields[0])
		return false, nil
	}
}

// toggleSubItem flips sub-item N (1-based) of the current activity
func (s *session) toggleSubItem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: x <sub-item number>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid sub-item number %q", args[0])
	}
	state := s.engine.GetCurrentExecution()
	if state == nil {
		return nil
	}
	step, ok := state.CurrentStep()
	if !ok {
		return nil
	}
	index := n - 1
	return s.engine.UpdateSubItemProgress(ctx, index, !step.IsSubItemCompleted(index))
}

// track remembers the current activity so a command typed against it does
// not land on the next one after a timer advanced the loop
func (s *session) track(state *execution.ExecutionState) {
	if a, ok := state.CurrentActivity(); ok {
		s.shown = a.ID
	}
}

func (s *session) render(ev service.Event) {
	if ev.State != nil && ev.State.Status.IsActive() {
		s.track(ev.State)
	}
	switch ev.Type {
	case service.EventActivityChanged:
		if ev.State == nil {
			return
		}
		if a, ok := ev.State.CurrentActivity(); ok {
			s.presenter.PresentSuccess(fmt.Sprintf("Now: %s (%d/%d)", a.DisplayTitle(), ev.State.CurrentIndex+1, len(ev.State.Activities)), nil)
		}
	case service.EventExecutionStarted:
		s.presenter.PresentSuccess("Loop started", nil)
	case service.EventExecutionPaused:
		s.presenter.PresentSuccess("Paused", nil)
	case service.EventExecutionResumed:
		s.presenter.PresentSuccess("Resumed", nil)
	case service.EventSubItemProgress:
		if ev.State != nil {
			s.presenter.PresentExecution(ev.State)
		}
	case service.EventExecutionCompleted:
		s.presenter.PresentSuccess("Loop completed", ev.State)
	case service.EventExecutionStopped:
		if ev.State != nil {
			s.presenter.PresentSuccess(fmt.Sprintf("Loop %s", ev.State.Status), ev.State)
		}
	case service.EventExecutionError:
		s.presenter.PresentError(ev.Err)
	case service.EventExecutionForegrounded:
		s.presenter.PresentSuccess("Back in the foreground", nil)
	}
}

// readLines scans in on its own goroutine until EOF or quit is closed
func readLines(in io.Reader, quit <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-quit:
				return
			}
		}
	}()
	return lines
}
