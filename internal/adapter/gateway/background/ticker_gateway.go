package background

import (
	"context"
	"sync"
	"time"

	"github.com/YoshitsuguKoike/loopkit/internal/app"
	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

// WakeFunc is invoked on every background wake-up
type WakeFunc func(ctx context.Context)

// TickerGateway keeps a periodic wake-up goroutine alive between
// StartBackgroundTask and EndBackgroundTask. Both calls are idempotent.
type TickerGateway struct {
	mu        sync.Mutex
	clock     clock.Clock
	interval  time.Duration
	supported bool
	logger    app.Logger
	wake      WakeFunc

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTickerGateway creates a background gateway waking every interval
func NewTickerGateway(clk clock.Clock, interval time.Duration, supported bool, logger app.Logger) *TickerGateway {
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &TickerGateway{
		clock:     clk,
		interval:  interval,
		supported: supported,
		logger:    logger,
	}
}

var _ output.BackgroundTaskGateway = (*TickerGateway)(nil)

// SetWakeHandler installs the callback run on each wake-up
func (g *TickerGateway) SetWakeHandler(fn WakeFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.wake = fn
}

// IsSupported reports whether background wake-ups are available
func (g *TickerGateway) IsSupported() bool {
	return g.supported
}

// IsRunning reports whether the wake-up goroutine is alive
func (g *TickerGateway) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancel != nil
}

// StartBackgroundTask starts the wake-up goroutine if it is not running
func (g *TickerGateway) StartBackgroundTask(ctx context.Context) error {
	if !g.supported {
		g.logger.Debug("background tasks unsupported, start ignored")
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return nil
	}

	// Detached from ctx: the task outlives the command that started it
	runCtx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	ticker := g.clock.NewTicker(g.interval)
	go g.run(runCtx, ticker, g.done)

	g.logger.Debug("background task started (every %s)", g.interval)
	return nil
}

// EndBackgroundTask stops the wake-up goroutine and waits for it to exit
func (g *TickerGateway) EndBackgroundTask(ctx context.Context) error {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	g.logger.Debug("background task ended")
	return nil
}

func (g *TickerGateway) run(ctx context.Context, ticker clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			g.mu.Lock()
			wake := g.wake
			g.mu.Unlock()
			if wake != nil {
				wake(ctx)
			}
		}
	}
}
