package service

import (
	"context"
	"sync"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

// LoopStarter starts executions; *ExecutionEngine satisfies it
type LoopStarter interface {
	StartLoop(ctx context.Context, l *loop.Loop) (*execution.ExecutionState, error)
}

// PollResult summarizes one poll pass by schedule id
type PollResult struct {
	Reminded []string
	Started  []string
	Notified []string
	Failed   []string
}

// SchedulePollerConfig holds configuration for the poller
type SchedulePollerConfig struct {
	Interval time.Duration
}

// DefaultSchedulePollerConfig polls once a minute
func DefaultSchedulePollerConfig() SchedulePollerConfig {
	return SchedulePollerConfig{Interval: time.Minute}
}

// SchedulePoller periodically surfaces reminders and due schedules.
// Due schedules with auto-start begin an execution; the others raise a
// due notification. Either way the schedule is triggered.
type SchedulePoller struct {
	scheduler *SchedulerService
	starter   LoopStarter
	notifier  output.NotificationGateway
	clock     clock.Clock
	logger    app.Logger
	config    SchedulePollerConfig

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewSchedulePoller creates a poller; starter and notifier may be nil
func NewSchedulePoller(scheduler *SchedulerService, starter LoopStarter, notifier output.NotificationGateway, clk clock.Clock, logger app.Logger, config SchedulePollerConfig) *SchedulePoller {
	if config.Interval <= 0 {
		config = DefaultSchedulePollerConfig()
	}
	if logger == nil {
		logger = app.GetLogger()
	}
	return &SchedulePoller{
		scheduler: scheduler,
		starter:   starter,
		notifier:  notifier,
		clock:     clk,
		logger:    logger,
		config:    config,
	}
}

// Start polls once immediately, then on every interval until Stop
func (p *SchedulePoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	ticker := p.clock.NewTicker(p.config.Interval)
	go p.run(runCtx, ticker)
	return nil
}

// Stop ends polling and waits for an in-flight pass to finish
func (p *SchedulePoller) Stop() error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		cancel, done := p.cancel, p.done
		p.mu.Unlock()
		if cancel != nil {
			cancel()
			<-done
		}
	})
	return nil
}

func (p *SchedulePoller) run(ctx context.Context, ticker clock.Ticker) {
	defer close(p.done)
	defer ticker.Stop()

	p.pollAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.pollAndLog(ctx)
		}
	}
}

func (p *SchedulePoller) pollAndLog(ctx context.Context) {
	res, err := p.Poll(ctx)
	if err != nil {
		p.logger.Error("schedule poll: %v", err)
		return
	}
	if n := len(res.Started) + len(res.Notified) + len(res.Reminded); n > 0 {
		p.logger.Info("schedule poll: %d started, %d notified, %d reminded", len(res.Started), len(res.Notified), len(res.Reminded))
	}
}

// Poll runs one pass: reminders first, then due schedules
func (p *SchedulePoller) Poll(ctx context.Context) (PollResult, error) {
	var res PollResult

	reminders, err := p.scheduler.DueReminders(ctx)
	if err != nil {
		return res, err
	}
	now := p.clock.Now()
	for _, sl := range reminders {
		if p.notifier != nil {
			if err := p.notifier.NotifyScheduleReminder(ctx, sl, sl.NextExecution.Sub(now)); err != nil && !model.IsPermissionDenied(err) {
				p.logger.Warn("reminder for schedule %s: %v", sl.ID, err)
			}
		}
		res.Reminded = append(res.Reminded, sl.ID)
	}

	due, err := p.scheduler.CheckDueSchedules(ctx)
	if err != nil {
		return res, err
	}
	for _, sl := range due {
		if sl.Settings.AutoStart && p.starter != nil {
			snapshot := sl.Loop
			if _, err := p.starter.StartLoop(ctx, &snapshot); err != nil {
				if model.IsConflict(err) {
					p.logger.Warn("auto-start of schedule %s skipped: %v", sl.ID, err)
				} else {
					p.logger.Error("auto-start of schedule %s: %v", sl.ID, err)
				}
				res.Failed = append(res.Failed, sl.ID)
			} else {
				res.Started = append(res.Started, sl.ID)
			}
		} else {
			if p.notifier != nil {
				if err := p.notifier.NotifyScheduleDue(ctx, sl); err != nil && !model.IsPermissionDenied(err) {
					p.logger.Warn("due notification for schedule %s: %v", sl.ID, err)
				}
			}
			res.Notified = append(res.Notified, sl.ID)
		}

		if _, err := p.scheduler.TriggerScheduledLoop(ctx, sl.ID); err != nil {
			return res, err
		}
	}
	return res, nil
}
