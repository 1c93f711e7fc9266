package repository

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
)

const catalogYAML = `version: 1
loops:
  - id: morning
    title: "  Morning Routine  "
    background_execution: true
    notifications:
      enabled: true
      activity_start: true
      activity_complete: true
      loop_complete: true
    activities:
      - id: meditate
        template_id: meditation
        duration_minutes: 5
        order: 2
      - id: stretch
        template_id: stretching
        duration_minutes: 1.5
        order: 1
        sub_items:
          - label: neck
          - label: back
    schedule:
      frequency: weekly
      time: "07:00"
      days_of_week: [1, 3, 5]
      auto_start: false
`

func TestLoopCatalog_List(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/loops.yaml", []byte(catalogYAML), 0o644))
	catalog := NewLoopCatalogImpl(fs, "/home/loops.yaml")

	loops, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, loops, 1)

	l := loops[0]
	assert.Equal(t, "Morning Routine", l.Title)
	assert.Equal(t, "stretch", l.Activities[0].ID, "activities sorted by order")
	assert.Len(t, l.Activities[0].SubItems, 2)
	require.NotNil(t, l.Schedule)
	assert.Equal(t, loop.FrequencyWeekly, l.Schedule.Frequency)
	assert.Equal(t, []int{1, 3, 5}, l.Schedule.DaysOfWeek)
}

func TestLoopCatalog_FindByID(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "loops.yaml", []byte(catalogYAML), 0o644))
	catalog := NewLoopCatalogImpl(fs, "loops.yaml")

	l, err := catalog.FindByID(context.Background(), "morning")
	require.NoError(t, err)
	assert.Equal(t, "morning", l.ID)

	_, err = catalog.FindByID(context.Background(), "evening")
	assert.True(t, model.IsNotFound(err))
}

func TestLoopCatalog_MissingFileIsEmpty(t *testing.T) {
	catalog := NewLoopCatalogImpl(afero.NewMemMapFs(), "loops.yaml")
	loops, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loops)
}

func TestLoopCatalog_RejectsUnknownFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "loops.yaml", []byte("loops:\n  - id: x\n    colour: red\n"), 0o644))

	_, err := NewLoopCatalogImpl(fs, "loops.yaml").List(context.Background())
	assert.True(t, model.IsInvalidInput(err), "got %v", err)
}

func TestLoopCatalog_SaveInsertsAndReplaces(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	catalog := NewLoopCatalogImpl(fs, "/data/loops.yaml")

	l := sampleLoop()
	require.NoError(t, catalog.Save(ctx, l))

	l.Title = "Renamed"
	require.NoError(t, catalog.Save(ctx, l))

	other := sampleLoop()
	other.ID = "loop-2"
	require.NoError(t, catalog.Save(ctx, other))

	loops, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, loops, 2)
	assert.Equal(t, "Renamed", loops[0].Title)
	assert.Equal(t, "loop-2", loops[1].ID)

	// Written file re-parses with strict decoding
	reread := NewLoopCatalogImpl(fs, "/data/loops.yaml")
	again, err := reread.FindByID(ctx, "loop-1")
	require.NoError(t, err)
	assert.Equal(t, l.Activities[0].Quantity, again.Activities[0].Quantity)
}

func TestLoopCatalog_SaveRejectsInvalid(t *testing.T) {
	catalog := NewLoopCatalogImpl(afero.NewMemMapFs(), "loops.yaml")
	err := catalog.Save(context.Background(), &loop.Loop{ID: "x", Title: "No activities"})
	assert.True(t, model.IsInvalidInput(err))
}

func TestLoopCatalog_Validate(t *testing.T) {
	fs := afero.NewMemMapFs()
	broken := catalogYAML + `  - id: empty
    title: Empty
    activities: []
`
	require.NoError(t, afero.WriteFile(fs, "loops.yaml", []byte(broken), 0o644))

	problems, err := NewLoopCatalogImpl(fs, "loops.yaml").Validate(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.True(t, model.IsInvalidInput(problems[0]))
}
