package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/schedule"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
)

// ScheduleRepositoryImpl writes the whole scheduled-loop collection on every save
type ScheduleRepositoryImpl struct {
	store output.KeyValueStore
}

// NewScheduleRepositoryImpl creates a KV-backed schedule repository
func NewScheduleRepositoryImpl(store output.KeyValueStore) *ScheduleRepositoryImpl {
	return &ScheduleRepositoryImpl{store: store}
}

var _ repository.ScheduleRepository = (*ScheduleRepositoryImpl)(nil)

// LoadAll returns every scheduled loop
func (r *ScheduleRepositoryImpl) LoadAll(ctx context.Context) ([]*schedule.ScheduledLoop, error) {
	b, err := r.store.Get(ctx, output.KeyScheduledLoops)
	if err != nil {
		return nil, model.NewPersistenceError("load schedules", err)
	}
	if b == nil {
		return []*schedule.ScheduledLoop{}, nil
	}

	var records []scheduledLoopRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, model.NewCorruptStateError("schedules are not valid JSON", err)
	}

	out := make([]*schedule.ScheduledLoop, 0, len(records))
	for _, rec := range records {
		s, err := decodeSchedule(rec)
		if err != nil {
			return nil, model.NewCorruptStateError(fmt.Sprintf("schedule %s has invalid fields", rec.ID), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// SaveAll replaces the stored collection
func (r *ScheduleRepositoryImpl) SaveAll(ctx context.Context, schedules []*schedule.ScheduledLoop) error {
	records := make([]scheduledLoopRecord, len(schedules))
	for i, s := range schedules {
		records[i] = encodeSchedule(s)
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal schedules: %w", err)
	}
	if err := r.store.Set(ctx, output.KeyScheduledLoops, b); err != nil {
		return model.NewPersistenceError("save schedules", err)
	}
	return nil
}
