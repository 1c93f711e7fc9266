package presenter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

const (
	timeLayout = "2006-01-02 15:04"
	barWidth   = 20
)

// CLILoopPresenter implements output.LoopPresenter for CLI output
// Formats output in a human-readable text format
type CLILoopPresenter struct {
	output io.Writer
}

// NewCLILoopPresenter creates a new CLI presenter
func NewCLILoopPresenter(output io.Writer) *CLILoopPresenter {
	return &CLILoopPresenter{output: output}
}

var _ output.LoopPresenter = (*CLILoopPresenter)(nil)

// PresentSuccess presents a successful result
func (p *CLILoopPresenter) PresentSuccess(message string, data interface{}) error {
	fmt.Fprintf(p.output, "✓ %s\n", message)

	switch v := data.(type) {
	case nil:
	case *execution.ExecutionState:
		fmt.Fprintln(p.output)
		return p.PresentExecution(v)
	case *schedule.ScheduledLoop:
		fmt.Fprintln(p.output)
		p.presentSchedule(v)
	case *loop.Loop:
		fmt.Fprintln(p.output)
		p.presentLoop(v)
	case string:
		fmt.Fprintf(p.output, "%s\n", v)
	default:
		// Fallback for unknown types
		fmt.Fprintf(p.output, "%+v\n", data)
	}
	return nil
}

// PresentError presents an error
func (p *CLILoopPresenter) PresentError(err error) error {
	fmt.Fprintf(p.output, "✗ Error: %v\n", err)
	return err
}

// PresentProgress draws a single-line progress bar for percent in [0,100]
func (p *CLILoopPresenter) PresentProgress(message string, percent float64) error {
	fmt.Fprintf(p.output, "\r%s [%s] %.1f%%", message, progressBar(percent, barWidth), percent)
	return nil
}

// PresentExecution presents the live execution
func (p *CLILoopPresenter) PresentExecution(s *execution.ExecutionState) error {
	if s == nil {
		fmt.Fprintf(p.output, "No active execution\n")
		return nil
	}

	fmt.Fprintf(p.output, "Loop: %s\n", s.LoopTitle)
	fmt.Fprintf(p.output, "Execution: %s\n", s.ID)
	fmt.Fprintf(p.output, "Status: %s", s.Status)
	if s.BackgroundState != execution.BackgroundForeground {
		fmt.Fprintf(p.output, " (%s)", s.BackgroundState)
	}
	if s.WasRecovered {
		fmt.Fprintf(p.output, " [recovered]")
	}
	fmt.Fprintln(p.output)
	fmt.Fprintf(p.output, "Elapsed: %s", formatDuration(s.TotalElapsed))
	if s.PausedDuration > 0 {
		fmt.Fprintf(p.output, " (paused %s)", formatDuration(s.PausedDuration))
	}
	fmt.Fprintln(p.output)
	fmt.Fprintf(p.output, "Progress: [%s] %.1f%%\n", progressBar(s.Progress, barWidth), s.Progress)

	fmt.Fprintf(p.output, "\nActivities:\n")
	for i, a := range s.Activities {
		marker := " "
		if i == s.CurrentIndex && s.Status.IsActive() {
			marker = ">"
		}
		status := execution.ActivityPending
		var step execution.ActivityProgress
		if i < len(s.Steps) {
			step = s.Steps[i]
			status = step.Status
		}

		fmt.Fprintf(p.output, "%s %d. %s (%s)", marker, i+1, a.DisplayTitle(), status)
		switch {
		case i == s.CurrentIndex && a.IsTimed() && s.Status.IsActive():
			fmt.Fprintf(p.output, " %s left", formatDuration(s.TimeRemaining))
		case a.IsTimed():
			fmt.Fprintf(p.output, " %s", formatDuration(a.Duration()))
		}
		if a.Quantity != nil {
			fmt.Fprintf(p.output, " x%g %s", a.Quantity.Amount, a.Quantity.Unit)
		}
		fmt.Fprintln(p.output)

		for j, item := range a.SubItems {
			check := " "
			if step.IsSubItemCompleted(j) {
				check = "x"
			}
			fmt.Fprintf(p.output, "     [%s] %s\n", check, item.Label)
		}
	}
	return nil
}

// PresentHistory presents history entries followed by stats
func (p *CLILoopPresenter) PresentHistory(entries []execution.ExecutionHistory, stats execution.HistoryStats) error {
	if len(entries) == 0 {
		fmt.Fprintf(p.output, "No history\n")
		return nil
	}

	for i, h := range entries {
		fmt.Fprintf(p.output, "%d. %s (%s)\n", i+1, h.LoopTitle, h.FinalStatus)
		fmt.Fprintf(p.output, "   Started: %s  Duration: %s  Activities: %d/%d",
			h.StartedAt.Local().Format(timeLayout), formatDuration(h.TotalDuration),
			h.CompletedActivities, h.TotalActivities)
		if h.Interrupted {
			fmt.Fprintf(p.output, "  interrupted")
		}
		fmt.Fprintln(p.output)
	}

	fmt.Fprintf(p.output, "\nRuns: %d  Completed: %d  Interrupted: %d\n", stats.Runs, stats.Completed, stats.Interrupted)
	fmt.Fprintf(p.output, "Total time: %s  Completion rate: %.1f%%\n", formatDuration(stats.TotalTime), stats.CompletionRate)
	return nil
}

// PresentSchedules presents scheduled loops
func (p *CLILoopPresenter) PresentSchedules(schedules []*schedule.ScheduledLoop) error {
	if len(schedules) == 0 {
		fmt.Fprintf(p.output, "No scheduled loops\n")
		return nil
	}
	fmt.Fprintf(p.output, "Total: %d schedules\n\n", len(schedules))
	for i, sl := range schedules {
		fmt.Fprintf(p.output, "%d. ", i+1)
		p.presentSchedule(sl)
	}
	return nil
}

func (p *CLILoopPresenter) presentSchedule(sl *schedule.ScheduledLoop) {
	state := "active"
	if !sl.Active {
		state = "paused"
	}
	fmt.Fprintf(p.output, "%s (%s)\n", sl.Loop.Title, state)
	fmt.Fprintf(p.output, "   ID: %s\n", sl.ID)
	fmt.Fprintf(p.output, "   When: %s\n", sl.Settings)
	fmt.Fprintf(p.output, "   Next: %s\n", sl.NextExecution.Local().Format(timeLayout))
	if sl.Settings.ReminderMinutes > 0 {
		fmt.Fprintf(p.output, "   Reminder: %d min before\n", sl.Settings.ReminderMinutes)
	}
	if sl.Settings.AutoStart {
		fmt.Fprintf(p.output, "   Auto-start: yes\n")
	}
	if sl.ExecutionCount > 0 {
		fmt.Fprintf(p.output, "   Runs: %d", sl.ExecutionCount)
		if sl.LastExecuted != nil {
			fmt.Fprintf(p.output, " (last %s)", sl.LastExecuted.Local().Format(timeLayout))
		}
		fmt.Fprintln(p.output)
	}
}

// PresentLoops presents catalog loops
func (p *CLILoopPresenter) PresentLoops(loops []*loop.Loop) error {
	if len(loops) == 0 {
		fmt.Fprintf(p.output, "No loops\n")
		return nil
	}
	for _, l := range loops {
		fmt.Fprintf(p.output, "%s  %s  (%d activities", l.ID, l.Title, len(l.Activities))
		if total := l.TotalDuration(); total > 0 {
			fmt.Fprintf(p.output, ", %s", formatDuration(total))
		}
		fmt.Fprintf(p.output, ")\n")
	}
	return nil
}

func (p *CLILoopPresenter) presentLoop(l *loop.Loop) {
	fmt.Fprintf(p.output, "Loop: %s\n", l.Title)
	fmt.Fprintf(p.output, "ID: %s\n", l.ID)
	if l.Category != "" {
		fmt.Fprintf(p.output, "Category: %s\n", l.Category)
	}
	if len(l.Tags) > 0 {
		fmt.Fprintf(p.output, "Tags: %s\n", strings.Join(l.Tags, ", "))
	}
	if l.Schedule != nil {
		fmt.Fprintf(p.output, "Schedule: %s\n", *l.Schedule)
	}
	if l.Description != "" {
		fmt.Fprintf(p.output, "\nDescription:\n%s\n", l.Description)
	}

	fmt.Fprintf(p.output, "\nActivities:\n")
	for i, a := range l.Activities {
		fmt.Fprintf(p.output, "  %d. %s", i+1, a.DisplayTitle())
		if a.IsTimed() {
			fmt.Fprintf(p.output, " (%s)", formatDuration(a.Duration()))
		}
		if !a.IsSkippable() {
			fmt.Fprintf(p.output, " [required]")
		}
		fmt.Fprintln(p.output)
		for _, item := range a.SubItems {
			fmt.Fprintf(p.output, "     - %s\n", item.Label)
		}
	}
}

// progressBar renders percent as a fixed-width bar
func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatDuration renders d as m:ss, or h:mm:ss past an hour
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
