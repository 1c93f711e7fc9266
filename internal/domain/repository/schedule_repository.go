package repository

import (
	"context"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
)

// ScheduleRepository stores the scheduled-loop collection as one snapshot
type ScheduleRepository interface {
	// LoadAll returns every scheduled loop; an empty store yields an empty slice
	LoadAll(ctx context.Context) ([]*schedule.ScheduledLoop, error)

	// SaveAll replaces the whole collection
	SaveAll(ctx context.Context, schedules []*schedule.ScheduledLoop) error
}

// LoopRepository is the catalog of user-authored loops
type LoopRepository interface {
	// FindByID returns the loop or a NotFoundError
	FindByID(ctx context.Context, id string) (*loop.Loop, error)

	// List returns all loops in catalog order
	List(ctx context.Context) ([]*loop.Loop, error)

	// Save inserts or replaces a loop by id
	Save(ctx context.Context, l *loop.Loop) error
}
