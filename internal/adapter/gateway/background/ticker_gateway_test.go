package background

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var start = time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)

func TestTickerGateway_StartEndIdempotent(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManualClock(start)
	g := NewTickerGateway(clk, 10*time.Second, true, nil)

	require.NoError(t, g.EndBackgroundTask(ctx))
	require.NoError(t, g.StartBackgroundTask(ctx))
	require.NoError(t, g.StartBackgroundTask(ctx))
	assert.True(t, g.IsRunning())
	assert.Equal(t, 1, clk.ActiveTickers())

	require.NoError(t, g.EndBackgroundTask(ctx))
	require.NoError(t, g.EndBackgroundTask(ctx))
	assert.False(t, g.IsRunning())
	assert.Equal(t, 0, clk.ActiveTickers())
}

func TestTickerGateway_WakesOnInterval(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManualClock(start)
	g := NewTickerGateway(clk, 10*time.Second, true, nil)

	var wakes atomic.Int32
	g.SetWakeHandler(func(context.Context) { wakes.Add(1) })
	require.NoError(t, g.StartBackgroundTask(ctx))
	defer g.EndBackgroundTask(ctx)

	clk.Advance(5 * time.Second)
	clk.Advance(5 * time.Second)
	assert.Eventually(t, func() bool { return wakes.Load() == 1 }, time.Second, 5*time.Millisecond)

	clk.Advance(10 * time.Second)
	assert.Eventually(t, func() bool { return wakes.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestTickerGateway_Unsupported(t *testing.T) {
	clk := clock.NewManualClock(start)
	g := NewTickerGateway(clk, time.Second, false, nil)

	assert.False(t, g.IsSupported())
	require.NoError(t, g.StartBackgroundTask(context.Background()))
	assert.False(t, g.IsRunning())
	assert.Equal(t, 0, clk.ActiveTickers())
}
