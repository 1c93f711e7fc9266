package execution

import (
	"testing"
	"time"
)

func TestPreferences(t *testing.T) {
	p := DefaultPreferences()
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if p.TickInterval(BackgroundForeground) != time.Second {
		t.Errorf("foreground tick = %v", p.TickInterval(BackgroundForeground))
	}
	if p.TickInterval(BackgroundActive) != 10*time.Second {
		t.Errorf("background tick = %v", p.TickInterval(BackgroundActive))
	}
	if p.TickInterval(BackgroundRecovered) != time.Second {
		t.Error("recovered state ticks at the foreground cadence")
	}

	bad := p
	bad.HistoryLimit = 0
	if bad.Validate() == nil {
		t.Error("zero history limit should be rejected")
	}
	bad = p
	bad.ForegroundTick = 0
	if bad.Validate() == nil {
		t.Error("zero tick should be rejected")
	}
}
