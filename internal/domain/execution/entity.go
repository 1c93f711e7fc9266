package execution

import (
	"fmt"
	"sort"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
)

// ExecutionID is a value object for execution identifier
type ExecutionID string

// String returns the string representation of the id
func (id ExecutionID) String() string {
	return string(id)
}

// ActivityProgress is the per-activity record inside an execution
type ActivityProgress struct {
	ActivityID        string
	Status            ActivityStatus
	StartedAt         *time.Time
	EndedAt           *time.Time
	ActualDuration    time.Duration
	CompletedSubItems []int // sorted, unique
}

// IsSubItemCompleted reports whether the sub-item index is marked done
func (p ActivityProgress) IsSubItemCompleted(index int) bool {
	i := sort.SearchInts(p.CompletedSubItems, index)
	return i < len(p.CompletedSubItems) && p.CompletedSubItems[i] == index
}

// AllSubItemsCompleted reports whether every one of total sub-items is done.
// The engine never gates completion on this; callers may.
func (p ActivityProgress) AllSubItemsCompleted(total int) bool {
	for i := 0; i < total; i++ {
		if !p.IsSubItemCompleted(i) {
			return false
		}
	}
	return true
}

// ExecutionState is the live record of one run of a Loop
type ExecutionState struct {
	ID                   ExecutionID
	LoopID               string
	LoopTitle            string
	Activities           []loop.ActivityInstance
	Steps                []ActivityProgress
	CurrentIndex         int
	Cycle                int
	Status               ExecutionStatus
	StartedAt            time.Time
	PausedAt             *time.Time
	CompletedAt          *time.Time
	TotalElapsed         time.Duration
	PausedDuration       time.Duration
	TimeRemaining        time.Duration // current activity countdown
	BackgroundState      BackgroundState
	BackgroundStartedAt  *time.Time
	BackgroundDuration   time.Duration
	ContinueInBackground bool
	Notifications        loop.NotificationSettings
	Progress             float64 // percent, 0-100
	LastTickAt           time.Time
	LastSavedAt          time.Time
	WasRecovered         bool
}

// Advance describes what completing or skipping an activity did
type Advance int

const (
	// AdvanceNone means the command was not applicable
	AdvanceNone Advance = iota
	// AdvanceNext means the next activity became current
	AdvanceNext
	// AdvanceFinished means the last activity ended and the execution completed
	AdvanceFinished
)

// TickResult reports the outcome of one tick
type TickResult struct {
	Elapsed time.Duration
	Expired bool
}

// NewExecutionState snapshots the loop and starts its first activity
func NewExecutionState(id ExecutionID, l *loop.Loop, now time.Time) (*ExecutionState, error) {
	if l == nil {
		return nil, model.NewInvalidInputError("loop is required")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	snapshot := l.Clone()
	snapshot.Normalize()

	steps := make([]ActivityProgress, len(snapshot.Activities))
	for i, a := range snapshot.Activities {
		steps[i] = ActivityProgress{ActivityID: a.ID, Status: ActivityPending}
	}

	s := &ExecutionState{
		ID:                   id,
		LoopID:               snapshot.ID,
		LoopTitle:            snapshot.Title,
		Activities:           snapshot.Activities,
		Steps:                steps,
		Cycle:                1,
		Status:               StatusRunning,
		StartedAt:            now,
		BackgroundState:      BackgroundForeground,
		ContinueInBackground: snapshot.BackgroundExecution,
		Notifications:        snapshot.Notifications,
		LastTickAt:           now,
	}
	s.startStep(now)
	return s, nil
}

// CurrentActivity returns the activity at the current index
func (s *ExecutionState) CurrentActivity() (loop.ActivityInstance, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Activities) {
		return loop.ActivityInstance{}, false
	}
	return s.Activities[s.CurrentIndex], true
}

// CurrentStep returns the progress record of the current activity
func (s *ExecutionState) CurrentStep() (ActivityProgress, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Steps) {
		return ActivityProgress{}, false
	}
	return s.Steps[s.CurrentIndex], true
}

// IsLastActivity reports whether the current activity is the final one
func (s *ExecutionState) IsLastActivity() bool {
	return s.CurrentIndex == len(s.Activities)-1
}

// CompletedCount returns the number of completed activities
func (s *ExecutionState) CompletedCount() int {
	return s.countSteps(ActivityCompleted)
}

// SkippedCount returns the number of skipped activities
func (s *ExecutionState) SkippedCount() int {
	return s.countSteps(ActivitySkipped)
}

func (s *ExecutionState) countSteps(status ActivityStatus) int {
	n := 0
	for _, st := range s.Steps {
		if st.Status == status {
			n++
		}
	}
	return n
}

func (s *ExecutionState) currentInProgress() bool {
	st, ok := s.CurrentStep()
	return ok && st.Status == ActivityInProgress
}

// Expired reports whether the current timed activity has run out while running
func (s *ExecutionState) Expired() bool {
	if s.Status != StatusRunning || !s.currentInProgress() {
		return false
	}
	a, _ := s.CurrentActivity()
	return a.IsTimed() && s.TimeRemaining <= 0
}

// accrue moves wall-clock time since the last tick into the counters.
// It never completes an activity on its own.
func (s *ExecutionState) accrue(now time.Time) time.Duration {
	if s.Status != StatusRunning {
		return 0
	}
	elapsed := now.Sub(s.LastTickAt)
	if elapsed < 0 {
		elapsed = 0
	}
	s.LastTickAt = now
	s.TotalElapsed += elapsed
	s.drainRemaining(elapsed)
	return elapsed
}

func (s *ExecutionState) drainRemaining(d time.Duration) {
	if a, ok := s.CurrentActivity(); ok && a.IsTimed() {
		s.TimeRemaining -= d
		if s.TimeRemaining < 0 {
			s.TimeRemaining = 0
		}
	}
}

// Tick accrues elapsed time and reports whether the current activity expired.
// Progress never decreases across ticks.
func (s *ExecutionState) Tick(now time.Time) TickResult {
	if s.Status != StatusRunning {
		return TickResult{}
	}
	elapsed := s.accrue(now)
	if p := s.computeProgress(); p > s.Progress {
		s.Progress = p
	}
	return TickResult{Elapsed: elapsed, Expired: s.Expired()}
}

// CompleteCurrent marks the current activity completed and advances
func (s *ExecutionState) CompleteCurrent(now time.Time) Advance {
	return s.finishCurrent(now, ActivityCompleted)
}

// SkipCurrent marks the current activity skipped and advances.
// Non-skippable activities are left untouched.
func (s *ExecutionState) SkipCurrent(now time.Time) Advance {
	a, ok := s.CurrentActivity()
	if !ok || !a.IsSkippable() {
		return AdvanceNone
	}
	return s.finishCurrent(now, ActivitySkipped)
}

func (s *ExecutionState) finishCurrent(now time.Time, status ActivityStatus) Advance {
	if !s.Status.IsActive() || !s.currentInProgress() {
		return AdvanceNone
	}
	s.accrue(now)

	step := &s.Steps[s.CurrentIndex]
	step.Status = status
	ended := now
	step.EndedAt = &ended
	if step.StartedAt != nil {
		step.ActualDuration = now.Sub(*step.StartedAt)
	}

	if s.CurrentIndex+1 < len(s.Steps) {
		s.CurrentIndex++
		s.startStep(now)
		s.Progress = s.computeProgress()
		return AdvanceNext
	}

	s.TimeRemaining = 0
	s.finish(StatusCompleted, now)
	return AdvanceFinished
}

// Previous reopens the activity before the current one
func (s *ExecutionState) Previous(now time.Time) bool {
	if !s.Status.IsActive() || s.CurrentIndex <= 0 || s.CurrentIndex >= len(s.Steps) {
		return false
	}
	s.accrue(now)

	cur := &s.Steps[s.CurrentIndex]
	cur.Status = ActivityPending
	cur.StartedAt = nil
	cur.EndedAt = nil
	cur.ActualDuration = 0

	s.CurrentIndex--
	prev := &s.Steps[s.CurrentIndex]
	prev.EndedAt = nil
	prev.ActualDuration = 0
	s.startStep(now)
	s.Progress = s.computeProgress()
	return true
}

func (s *ExecutionState) startStep(now time.Time) {
	started := now
	step := &s.Steps[s.CurrentIndex]
	step.Status = ActivityInProgress
	step.StartedAt = &started
	s.TimeRemaining = s.Activities[s.CurrentIndex].Duration()
}

// Pause stops the countdown. Returns false unless running.
func (s *ExecutionState) Pause(now time.Time) bool {
	if s.Status != StatusRunning {
		return false
	}
	s.Tick(now)
	paused := now
	s.Status = StatusPaused
	s.PausedAt = &paused
	return true
}

// Resume continues the countdown. Returns false unless paused.
func (s *ExecutionState) Resume(now time.Time) bool {
	if s.Status != StatusPaused {
		return false
	}
	s.closePause(now)
	s.LastTickAt = now
	s.Status = StatusRunning
	return true
}

func (s *ExecutionState) closePause(now time.Time) {
	if s.PausedAt == nil {
		return
	}
	if d := now.Sub(*s.PausedAt); d > 0 {
		s.PausedDuration += d
	}
	s.PausedAt = nil
}

// Terminate force-ends the execution as stopped or cancelled
func (s *ExecutionState) Terminate(status ExecutionStatus, now time.Time) error {
	if status != StatusStopped && status != StatusCancelled {
		return model.NewInvalidInputError("cannot terminate with status %s", status)
	}
	if !s.Status.IsActive() {
		return model.NewConflictError("execution %s is already %s", s.ID, s.Status)
	}
	s.accrue(now)
	s.finish(status, now)
	return nil
}

func (s *ExecutionState) finish(status ExecutionStatus, now time.Time) {
	s.closePause(now)
	s.closeBackground(now)
	completed := now
	s.Status = status
	s.CompletedAt = &completed
	if status == StatusCompleted {
		s.Progress = 100
	} else if p := s.computeProgress(); p > s.Progress {
		s.Progress = p
	}
}

func (s *ExecutionState) closeBackground(now time.Time) time.Duration {
	if s.BackgroundStartedAt == nil {
		return 0
	}
	d := now.Sub(*s.BackgroundStartedAt)
	if d < 0 {
		d = 0
	}
	s.BackgroundDuration += d
	s.BackgroundStartedAt = nil
	return d
}

// EnterBackground switches to background bookkeeping after a catch-up tick
func (s *ExecutionState) EnterBackground(now time.Time) (TickResult, bool) {
	if s.BackgroundState.InBackground() || !s.Status.IsActive() {
		return TickResult{}, false
	}
	res := s.Tick(now)
	started := now
	s.BackgroundState = BackgroundActive
	s.BackgroundStartedAt = &started
	return res, true
}

// EnterForeground closes the background window and resynchronizes the tick
// reference so the next tick measures from now. It also clears the
// recovered marker. The returned duration is the background time just closed.
func (s *ExecutionState) EnterForeground(now time.Time) (TickResult, time.Duration, bool) {
	if s.BackgroundState == BackgroundForeground || !s.Status.IsActive() {
		return TickResult{}, 0, false
	}
	res := s.Tick(now)
	bg := s.closeBackground(now)
	s.LastTickAt = now
	s.BackgroundState = BackgroundForeground
	return res, bg, true
}

// Recover applies the time missed since the snapshot was saved.
// Running executions accrue the missed time as elapsed background time;
// paused executions are left as is because resume measures from PausedAt.
func (s *ExecutionState) Recover(now time.Time) time.Duration {
	ref := s.LastSavedAt
	if ref.IsZero() {
		ref = s.LastTickAt
	}
	missed := now.Sub(ref)
	if missed < 0 {
		missed = 0
	}

	// Background time up to the save point; the rest is counted as missed.
	if s.BackgroundStartedAt != nil {
		s.closeBackground(ref)
	}

	if s.Status == StatusRunning {
		s.TotalElapsed += missed
		s.BackgroundDuration += missed
		s.drainRemaining(missed)
		s.LastTickAt = now
		if p := s.computeProgress(); p > s.Progress {
			s.Progress = p
		}
	}

	s.BackgroundState = BackgroundRecovered
	s.WasRecovered = true
	return missed
}

// ToggleSubItem sets the completion of a sub-item of the current activity.
// It returns true when the set changed.
func (s *ExecutionState) ToggleSubItem(index int, completed bool) (bool, error) {
	if !s.Status.IsActive() {
		return false, nil
	}
	a, ok := s.CurrentActivity()
	if !ok {
		return false, nil
	}
	if index < 0 || index >= len(a.SubItems) {
		return false, model.NewInvalidInputError("sub-item %d out of range for activity %s", index, a.ID)
	}

	step := &s.Steps[s.CurrentIndex]
	if step.IsSubItemCompleted(index) == completed {
		return false, nil
	}
	if completed {
		step.CompletedSubItems = append(step.CompletedSubItems, index)
		sort.Ints(step.CompletedSubItems)
		return true, nil
	}
	kept := step.CompletedSubItems[:0]
	for _, i := range step.CompletedSubItems {
		if i != index {
			kept = append(kept, i)
		}
	}
	step.CompletedSubItems = kept
	return true, nil
}

// computeProgress is (done + fraction of current) / total * 100
func (s *ExecutionState) computeProgress() float64 {
	n := len(s.Steps)
	if n == 0 {
		return 0
	}
	if s.Status == StatusCompleted {
		return 100
	}

	done := 0
	for _, st := range s.Steps {
		if st.Status.IsDone() {
			done++
		}
	}

	fraction := 0.0
	if s.currentInProgress() {
		a := s.Activities[s.CurrentIndex]
		if total := a.Duration(); total > 0 {
			fraction = float64(total-s.TimeRemaining) / float64(total)
			if fraction < 0 {
				fraction = 0
			} else if fraction > 1 {
				fraction = 1
			}
		}
	}

	return (float64(done) + fraction) / float64(n) * 100
}

// Validate checks the structural integrity of a persisted active execution
func (s *ExecutionState) Validate() error {
	if reason := s.structuralProblem(); reason != "" {
		return model.NewCorruptStateError(reason, nil).WithDetails(map[string]interface{}{
			"execution_id": string(s.ID),
		})
	}
	return nil
}

func (s *ExecutionState) structuralProblem() string {
	switch {
	case s.ID == "":
		return "missing execution id"
	case s.LoopID == "":
		return "missing loop id"
	case len(s.Activities) == 0:
		return "no activities"
	case len(s.Steps) != len(s.Activities):
		return fmt.Sprintf("%d progress entries for %d activities", len(s.Steps), len(s.Activities))
	case s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Activities):
		return fmt.Sprintf("current index %d out of range", s.CurrentIndex)
	case !s.Status.IsActive():
		return fmt.Sprintf("status %q is not resumable", s.Status)
	case !s.BackgroundState.IsValid():
		return fmt.Sprintf("unknown background state %q", s.BackgroundState)
	case s.Status == StatusPaused && s.PausedAt == nil:
		return "paused without pause timestamp"
	}

	for i, st := range s.Steps {
		if st.ActivityID != s.Activities[i].ID {
			return fmt.Sprintf("progress %d refers to activity %s, want %s", i, st.ActivityID, s.Activities[i].ID)
		}
		switch {
		case i < s.CurrentIndex && !st.Status.IsDone():
			return fmt.Sprintf("activity %d before current is %s", i, st.Status)
		case i == s.CurrentIndex && st.Status != ActivityInProgress:
			return fmt.Sprintf("current activity is %s", st.Status)
		case i > s.CurrentIndex && st.Status != ActivityPending:
			return fmt.Sprintf("activity %d after current is %s", i, st.Status)
		}
	}
	return ""
}

// Clone returns a deep copy safe to hand to listeners
func (s *ExecutionState) Clone() *ExecutionState {
	c := *s
	c.Activities = loop.CloneActivities(s.Activities)
	c.Steps = make([]ActivityProgress, len(s.Steps))
	for i, st := range s.Steps {
		st.StartedAt = copyTime(st.StartedAt)
		st.EndedAt = copyTime(st.EndedAt)
		st.CompletedSubItems = append([]int(nil), st.CompletedSubItems...)
		c.Steps[i] = st
	}
	c.PausedAt = copyTime(s.PausedAt)
	c.CompletedAt = copyTime(s.CompletedAt)
	c.BackgroundStartedAt = copyTime(s.BackgroundStartedAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
