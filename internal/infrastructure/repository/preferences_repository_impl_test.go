package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/adapter/gateway/storage"
	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
)

func TestPreferencesRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewPreferencesRepositoryImpl(storage.NewMemoryStore())

	prefs, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, prefs)

	want := execution.Preferences{
		ForegroundTick:       500 * time.Millisecond,
		BackgroundTick:       15 * time.Second,
		SaveInterval:         20 * time.Second,
		HistoryLimit:         25,
		NotificationsEnabled: false,
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestPreferencesRepository_CorruptValue(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, output.KeyPreferences, []byte("{not json")))

	_, err := NewPreferencesRepositoryImpl(store).Load(ctx)
	require.Error(t, err)
	assert.True(t, model.IsCorruptState(err))
}
