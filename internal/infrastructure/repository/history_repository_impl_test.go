package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/adapter/gateway/storage"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
)

func TestHistoryRepository_AppendCapsAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepositoryImpl(storage.NewMemoryStore())

	for i := 0; i < 60; i++ {
		require.NoError(t, repo.Append(ctx, execution.ExecutionHistory{
			ID:            fmt.Sprintf("h%02d", i),
			FinalStatus:   execution.StatusCompleted,
			StartedAt:     base.Add(time.Duration(i) * time.Hour),
			EndedAt:       base.Add(time.Duration(i)*time.Hour + 10*time.Minute),
			TotalDuration: 10 * time.Minute,
		}, 50))
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 50)
	assert.Equal(t, "h59", all[0].ID)
	assert.Equal(t, "h10", all[49].ID)
	assert.Equal(t, 10*time.Minute, all[0].TotalDuration)
	assert.True(t, all[0].StartedAt.Equal(base.Add(59*time.Hour)))

	recent, err := repo.List(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 5)
	assert.Equal(t, "h55", recent[4].ID)
}

func TestHistoryRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepositoryImpl(storage.NewMemoryStore())

	require.NoError(t, repo.Append(ctx, execution.ExecutionHistory{ID: "h1"}, 50))
	require.NoError(t, repo.Clear(ctx))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}
