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

// HistoryRepositoryImpl stores the whole history list under one key, newest first
type HistoryRepositoryImpl struct {
	store output.KeyValueStore
}

// NewHistoryRepositoryImpl creates a KV-backed history repository
func NewHistoryRepositoryImpl(store output.KeyValueStore) *HistoryRepositoryImpl {
	return &HistoryRepositoryImpl{store: store}
}

var _ repository.HistoryRepository = (*HistoryRepositoryImpl)(nil)

// Append prepends entry and evicts the oldest entries beyond limit
func (r *HistoryRepositoryImpl) Append(ctx context.Context, entry execution.ExecutionHistory, limit int) error {
	current, err := r.loadAll(ctx)
	if err != nil {
		return err
	}
	return r.saveAll(ctx, execution.PrependHistory(current, entry, limit))
}

// List returns up to limit entries, newest first
func (r *HistoryRepositoryImpl) List(ctx context.Context, limit int) ([]execution.ExecutionHistory, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Clear removes all history
func (r *HistoryRepositoryImpl) Clear(ctx context.Context) error {
	if err := r.store.Remove(ctx, output.KeyExecutionHistory); err != nil {
		return model.NewPersistenceError("clear history", err)
	}
	return nil
}

func (r *HistoryRepositoryImpl) loadAll(ctx context.Context) ([]execution.ExecutionHistory, error) {
	b, err := r.store.Get(ctx, output.KeyExecutionHistory)
	if err != nil {
		return nil, model.NewPersistenceError("load history", err)
	}
	if b == nil {
		return []execution.ExecutionHistory{}, nil
	}

	var records []historyRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, model.NewCorruptStateError("history is not valid JSON", err)
	}

	out := make([]execution.ExecutionHistory, 0, len(records))
	for _, rec := range records {
		h, err := decodeHistory(rec)
		if err != nil {
			return nil, model.NewCorruptStateError("history entry has invalid fields", err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *HistoryRepositoryImpl) saveAll(ctx context.Context, entries []execution.ExecutionHistory) error {
	records := make([]historyRecord, len(entries))
	for i, h := range entries {
		records[i] = encodeHistory(h)
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := r.store.Set(ctx, output.KeyExecutionHistory, b); err != nil {
		return model.NewPersistenceError("save history", err)
	}
	return nil
}
