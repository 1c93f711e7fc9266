package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
)

// StateRepositoryImpl implements repository.ExecutionStateRepository on a KeyValueStore
type StateRepositoryImpl struct {
	store output.KeyValueStore
}

// NewStateRepositoryImpl creates a KV-backed execution state repository
func NewStateRepositoryImpl(store output.KeyValueStore) *StateRepositoryImpl {
	return &StateRepositoryImpl{store: store}
}

var _ repository.ExecutionStateRepository = (*StateRepositoryImpl)(nil)

// Load retrieves the live execution snapshot
func (r *StateRepositoryImpl) Load(ctx context.Context) (*execution.ExecutionState, error) {
	b, err := r.store.Get(ctx, output.KeyCurrentExecution)
	if err != nil {
		return nil, model.NewPersistenceError("load execution", err)
	}
	if b == nil {
		return nil, nil
	}

	var rec executionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, model.NewCorruptStateError("execution snapshot is not valid JSON", err)
	}
	state, err := decodeExecution(rec)
	if err != nil {
		return nil, model.NewCorruptStateError("execution snapshot has invalid fields", err)
	}
	return state, nil
}

// Save persists the execution snapshot
func (r *StateRepositoryImpl) Save(ctx context.Context, state *execution.ExecutionState) error {
	b, err := json.Marshal(encodeExecution(state))
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	if err := r.store.Set(ctx, output.KeyCurrentExecution, b); err != nil {
		return model.NewPersistenceError("save execution", err)
	}
	return nil
}

// Clear removes the execution and background snapshots together
func (r *StateRepositoryImpl) Clear(ctx context.Context) error {
	if err := r.store.RemoveMany(ctx, []string{output.KeyCurrentExecution, output.KeyBackgroundSnapshot}); err != nil {
		return model.NewPersistenceError("clear execution", err)
	}
	return nil
}

// SaveBackground persists the background snapshot
func (r *StateRepositoryImpl) SaveBackground(ctx context.Context, snap repository.BackgroundSnapshot) error {
	b, err := json.Marshal(backgroundRecord{
		ExecutionID:     string(snap.ExecutionID),
		LoopID:          snap.LoopID,
		State:           string(snap.State),
		EnteredAt:       formatTime(snap.EnteredAt),
		CurrentIndex:    snap.CurrentIndex,
		TimeRemainingNs: toNanos(snap.TimeRemaining),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal background snapshot: %w", err)
	}
	if err := r.store.Set(ctx, output.KeyBackgroundSnapshot, b); err != nil {
		return model.NewPersistenceError("save background snapshot", err)
	}
	return nil
}

// LoadBackground retrieves the background snapshot
func (r *StateRepositoryImpl) LoadBackground(ctx context.Context) (*repository.BackgroundSnapshot, error) {
	b, err := r.store.Get(ctx, output.KeyBackgroundSnapshot)
	if err != nil {
		return nil, model.NewPersistenceError("load background snapshot", err)
	}
	if b == nil {
		return nil, nil
	}

	var rec backgroundRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, model.NewCorruptStateError("background snapshot is not valid JSON", err)
	}
	entered, err := parseTime(rec.EnteredAt)
	if err != nil {
		return nil, model.NewCorruptStateError("background snapshot has invalid fields", err)
	}
	return &repository.BackgroundSnapshot{
		ExecutionID:   execution.ExecutionID(rec.ExecutionID),
		LoopID:        rec.LoopID,
		State:         execution.BackgroundState(rec.State),
		EnteredAt:     entered,
		CurrentIndex:  rec.CurrentIndex,
		TimeRemaining: fromNanos(rec.TimeRemainingNs),
	}, nil
}

// SaveRecovery records the outcome of startup recovery
func (r *StateRepositoryImpl) SaveRecovery(ctx context.Context, rec repository.RecoveryRecord) error {
	b, err := json.Marshal(recoveryRecord{
		At:          formatTime(rec.At),
		ExecutionID: string(rec.ExecutionID),
		Outcome:     string(rec.Outcome),
		Reason:      rec.Reason,
		MissedNs:    toNanos(rec.MissedTime),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal recovery record: %w", err)
	}
	if err := r.store.Set(ctx, output.KeyRecoverySnapshot, b); err != nil {
		return model.NewPersistenceError("save recovery record", err)
	}
	return nil
}

// LoadRecovery retrieves the last recovery record
func (r *StateRepositoryImpl) LoadRecovery(ctx context.Context) (*repository.RecoveryRecord, error) {
	b, err := r.store.Get(ctx, output.KeyRecoverySnapshot)
	if err != nil {
		return nil, model.NewPersistenceError("load recovery record", err)
	}
	if b == nil {
		return nil, nil
	}

	var rec recoveryRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, model.NewCorruptStateError("recovery record is not valid JSON", err)
	}
	at, err := parseTime(rec.At)
	if err != nil {
		return nil, model.NewCorruptStateError("recovery record has invalid fields", err)
	}
	return &repository.RecoveryRecord{
		At:          at,
		ExecutionID: execution.ExecutionID(rec.ExecutionID),
		Outcome:     repository.RecoveryOutcome(rec.Outcome),
		Reason:      rec.Reason,
		MissedTime:  fromNanos(rec.MissedNs),
	}, nil
}
