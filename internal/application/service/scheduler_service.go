package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

// SchedulerDeps holds the collaborators of a SchedulerService. Loops is
// only needed by ScheduleLoopByID.
type SchedulerDeps struct {
	Schedules repository.ScheduleRepository
	Loops     repository.LoopRepository
	Clock     clock.Clock
	IDs       model.IDGenerator
	Logger    app.Logger
}

// SchedulerService maintains the ScheduledLoop collection. Every mutation
// rewrites the whole collection.
type SchedulerService struct {
	schedules repository.ScheduleRepository
	loops     repository.LoopRepository
	clock     clock.Clock
	ids       model.IDGenerator
	logger    app.Logger

	mu sync.Mutex // serializes load-modify-save cycles
}

// NewSchedulerService creates a scheduler
func NewSchedulerService(deps SchedulerDeps) *SchedulerService {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = model.ULIDGenerator{}
	}
	if deps.Logger == nil {
		deps.Logger = app.GetLogger()
	}
	return &SchedulerService{
		schedules: deps.Schedules,
		loops:     deps.Loops,
		clock:     deps.Clock,
		ids:       deps.IDs,
		logger:    deps.Logger,
	}
}

// ScheduleLoop binds a snapshot of l to settings
func (s *SchedulerService) ScheduleLoop(ctx context.Context, l *loop.Loop, settings loop.ScheduleSettings) (*schedule.ScheduledLoop, error) {
	if l == nil {
		return nil, model.NewInvalidInputError("loop is required")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	var created *schedule.ScheduledLoop
	err := s.mutate(ctx, func(all []*schedule.ScheduledLoop) ([]*schedule.ScheduledLoop, error) {
		now := s.clock.Now()
		sl, err := schedule.NewScheduledLoop(s.ids.NewID(now), *l, settings, now)
		if err != nil {
			return nil, err
		}
		created = sl
		return append(all, sl), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("scheduled loop %s as %s, next at %s", created.LoopID, created.ID, created.NextExecution)
	return created, nil
}

// ScheduleLoopByID looks the loop up in the catalog and schedules it
func (s *SchedulerService) ScheduleLoopByID(ctx context.Context, loopID string, settings loop.ScheduleSettings) (*schedule.ScheduledLoop, error) {
	if s.loops == nil {
		return nil, fmt.Errorf("no loop catalog configured")
	}
	l, err := s.loops.FindByID(ctx, loopID)
	if err != nil {
		return nil, err
	}
	return s.ScheduleLoop(ctx, l, settings)
}

// UpdateSchedule replaces the settings and recomputes the next execution
func (s *SchedulerService) UpdateSchedule(ctx context.Context, id string, settings loop.ScheduleSettings) (*schedule.ScheduledLoop, error) {
	return s.update(ctx, id, func(sl *schedule.ScheduledLoop) error {
		return sl.UpdateSettings(settings, s.clock.Now())
	})
}

// TriggerScheduledLoop records an execution; missed occurrences are skipped
func (s *SchedulerService) TriggerScheduledLoop(ctx context.Context, id string) (*schedule.ScheduledLoop, error) {
	return s.update(ctx, id, func(sl *schedule.ScheduledLoop) error {
		return sl.Trigger(s.clock.Now())
	})
}

// SetScheduleActive pauses or resumes a schedule. Reactivation recomputes
// the next execution so a stale time does not fire immediately.
func (s *SchedulerService) SetScheduleActive(ctx context.Context, id string, active bool) (*schedule.ScheduledLoop, error) {
	return s.update(ctx, id, func(sl *schedule.ScheduledLoop) error {
		if active && !sl.Active {
			if err := sl.UpdateSettings(sl.Settings, s.clock.Now()); err != nil {
				return err
			}
		}
		sl.Active = active
		return nil
	})
}

// CancelScheduledLoop removes a schedule
func (s *SchedulerService) CancelScheduledLoop(ctx context.Context, id string) error {
	return s.mutate(ctx, func(all []*schedule.ScheduledLoop) ([]*schedule.ScheduledLoop, error) {
		for i, sl := range all {
			if sl.ID == id {
				return append(all[:i], all[i+1:]...), nil
			}
		}
		return nil, model.NewNotFoundError("schedule", id)
	})
}

// GetScheduledLoop returns one schedule
func (s *SchedulerService) GetScheduledLoop(ctx context.Context, id string) (*schedule.ScheduledLoop, error) {
	all, err := s.ListScheduledLoops(ctx)
	if err != nil {
		return nil, err
	}
	for _, sl := range all {
		if sl.ID == id {
			return sl, nil
		}
	}
	return nil, model.NewNotFoundError("schedule", id)
}

// ListScheduledLoops returns all schedules ordered by next execution
func (s *SchedulerService) ListScheduledLoops(ctx context.Context) ([]*schedule.ScheduledLoop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.schedules.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	sortByNext(all)
	return all, nil
}

// CheckDueSchedules returns active schedules whose next execution has arrived
func (s *SchedulerService) CheckDueSchedules(ctx context.Context) ([]*schedule.ScheduledLoop, error) {
	all, err := s.ListScheduledLoops(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var due []*schedule.ScheduledLoop
	for _, sl := range all {
		if sl.IsDue(now) {
			due = append(due, sl)
		}
	}
	return due, nil
}

// DueReminders returns schedules whose reminder window just opened and
// marks them reminded, so each occurrence is reminded once
func (s *SchedulerService) DueReminders(ctx context.Context) ([]*schedule.ScheduledLoop, error) {
	var reminded []*schedule.ScheduledLoop
	err := s.mutate(ctx, func(all []*schedule.ScheduledLoop) ([]*schedule.ScheduledLoop, error) {
		now := s.clock.Now()
		for _, sl := range all {
			if sl.NeedsReminder(now) {
				sl.MarkReminded()
				reminded = append(reminded, sl)
			}
		}
		if len(reminded) == 0 {
			return nil, errNoChange
		}
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	sortByNext(reminded)
	return reminded, nil
}

// errNoChange lets a mutation skip the write
var errNoChange = errors.New("no change")

func (s *SchedulerService) update(ctx context.Context, id string, fn func(*schedule.ScheduledLoop) error) (*schedule.ScheduledLoop, error) {
	var updated *schedule.ScheduledLoop
	err := s.mutate(ctx, func(all []*schedule.ScheduledLoop) ([]*schedule.ScheduledLoop, error) {
		for _, sl := range all {
			if sl.ID != id {
				continue
			}
			if err := fn(sl); err != nil {
				return nil, err
			}
			updated = sl
			return all, nil
		}
		return nil, model.NewNotFoundError("schedule", id)
	})
	return updated, err
}

func (s *SchedulerService) mutate(ctx context.Context, fn func([]*schedule.ScheduledLoop) ([]*schedule.ScheduledLoop, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.schedules.LoadAll(ctx)
	if err != nil {
		return err
	}
	next, err := fn(all)
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.schedules.SaveAll(ctx, next)
}

func sortByNext(all []*schedule.ScheduledLoop) {
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].NextExecution.Before(all[j].NextExecution)
	})
}
