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

// PreferencesRepositoryImpl stores execution preferences under one key
type PreferencesRepositoryImpl struct {
	store output.KeyValueStore
}

// NewPreferencesRepositoryImpl creates a KV-backed preferences repository
func NewPreferencesRepositoryImpl(store output.KeyValueStore) *PreferencesRepositoryImpl {
	return &PreferencesRepositoryImpl{store: store}
}

var _ repository.PreferencesRepository = (*PreferencesRepositoryImpl)(nil)

// Load returns stored preferences or nil when none exist
func (r *PreferencesRepositoryImpl) Load(ctx context.Context) (*execution.Preferences, error) {
	b, err := r.store.Get(ctx, output.KeyPreferences)
	if err != nil {
		return nil, model.NewPersistenceError("load preferences", err)
	}
	if b == nil {
		return nil, nil
	}

	var rec preferencesRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, model.NewCorruptStateError("preferences are not valid JSON", err)
	}
	return &execution.Preferences{
		ForegroundTick:       fromNanos(rec.ForegroundTickNs),
		BackgroundTick:       fromNanos(rec.BackgroundTickNs),
		SaveInterval:         fromNanos(rec.SaveIntervalNs),
		HistoryLimit:         rec.HistoryLimit,
		NotificationsEnabled: rec.NotificationsEnabled,
	}, nil
}

// Save persists preferences
func (r *PreferencesRepositoryImpl) Save(ctx context.Context, prefs execution.Preferences) error {
	b, err := json.Marshal(preferencesRecord{
		ForegroundTickNs:     toNanos(prefs.ForegroundTick),
		BackgroundTickNs:     toNanos(prefs.BackgroundTick),
		SaveIntervalNs:       toNanos(prefs.SaveInterval),
		HistoryLimit:         prefs.HistoryLimit,
		NotificationsEnabled: prefs.NotificationsEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := r.store.Set(ctx, output.KeyPreferences, b); err != nil {
		return model.NewPersistenceError("save preferences", err)
	}
	return nil
}
