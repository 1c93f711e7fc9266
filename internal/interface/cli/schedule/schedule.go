package schedule

import (
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
)

// NewCommand creates the schedule command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage scheduled loops",
		Long:  "Commands for scheduling loops to recur daily, weekly or on chosen weekdays",
	}

	// Add subcommands
	cmd.AddCommand(NewAddCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewUpdateCommand())
	cmd.AddCommand(NewCancelCommand())
	cmd.AddCommand(NewActiveCommand("pause", false))
	cmd.AddCommand(NewActiveCommand("resume", true))
	cmd.AddCommand(NewTriggerCommand())
	cmd.AddCommand(NewDueCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}

// settingsFlags binds the schedule settings flags shared by add and update
type settingsFlags struct {
	frequency string
	at        string
	days      []int
	reminder  int
	autoStart bool
}

func (f *settingsFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.frequency, "frequency", "daily", "Recurrence (daily|weekly|custom)")
	cmd.Flags().StringVar(&f.at, "time", "", "Time of day, HH:MM (24h)")
	cmd.Flags().IntSliceVar(&f.days, "days", nil, "Weekdays for weekly/custom, 0=Sunday (e.g. 1,3,5)")
	cmd.Flags().IntVar(&f.reminder, "reminder", 0, "Remind this many minutes before (0 = no reminder)")
	cmd.Flags().BoolVar(&f.autoStart, "auto-start", false, "Start the loop automatically when due")
}

// apply overrides base with every flag the user set
func (f *settingsFlags) apply(cmd *cobra.Command, base loop.ScheduleSettings) loop.ScheduleSettings {
	flags := cmd.Flags()
	if flags.Changed("frequency") || base.Frequency == "" {
		base.Frequency = loop.Frequency(f.frequency)
	}
	if flags.Changed("time") {
		base.Time = f.at
	}
	if flags.Changed("days") {
		base.DaysOfWeek = f.days
	}
	if flags.Changed("reminder") {
		base.ReminderMinutes = f.reminder
	}
	if flags.Changed("auto-start") {
		base.AutoStart = f.autoStart
	}
	return base
}
