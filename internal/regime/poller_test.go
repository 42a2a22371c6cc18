package regime

import (
	"context"
	"testing"
	"time"
)

type fakeEngine struct {
	applied map[string][2]float64
	known   map[string]bool
}

func newFakeEngine(known ...string) *fakeEngine {
	set := make(map[string]bool, len(known))
	for _, s := range known {
		set[s] = true
	}
	return &fakeEngine{applied: make(map[string][2]float64), known: set}
}

func (f *fakeEngine) SetRegime(symbol string, volatility, drift float64) bool {
	if !f.known[symbol] {
		return false
	}
	f.applied[symbol] = [2]float64{volatility, drift}
	return true
}

func TestPollerSyncAppliesKnownOverrides(t *testing.T) {
	engine := newFakeEngine("AAPL", "MSFT")
	overrides := []Override{
		{Symbol: "AAPL", Volatility: 0.4, Drift: 0.02},
		{Symbol: "MSFT", Volatility: 0.3, Drift: -0.01},
	}
	p := &Poller{engine: engine, interval: time.Second, store: nil}
	if err := p.applyAll(overrides); err != nil {
		t.Fatalf("applyAll: %v", err)
	}
	if engine.applied["AAPL"] != [2]float64{0.4, 0.02} {
		t.Fatalf("AAPL override not applied: %v", engine.applied["AAPL"])
	}
	if engine.applied["MSFT"] != [2]float64{0.3, -0.01} {
		t.Fatalf("MSFT override not applied: %v", engine.applied["MSFT"])
	}
}

func TestPollerSyncIgnoresUnknownSymbol(t *testing.T) {
	engine := newFakeEngine("AAPL")
	overrides := []Override{{Symbol: "ZZZZ", Volatility: 0.9, Drift: 0}}
	p := &Poller{engine: engine, interval: time.Second}
	if err := p.applyAll(overrides); err != nil {
		t.Fatalf("applyAll: %v", err)
	}
	if _, ok := engine.applied["ZZZZ"]; ok {
		t.Fatalf("expected unknown symbol to be skipped")
	}
}

func TestPollerRunStopsOnContextCancel(t *testing.T) {
	engine := newFakeEngine("AAPL")
	p := NewPoller(nil, engine, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
