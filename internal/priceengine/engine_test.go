package priceengine

import (
	"testing"

	"github.com/shopspring/decimal"

	"finstream/internal/model"
)

func testConfigs() []model.SymbolConfig {
	return []model.SymbolConfig{
		{
			Symbol:       "AAPL",
			InitialPrice: decimal.NewFromFloat(150.00),
			Volatility:   0.2,
			Drift:        0.05,
			TickSize:     decimal.NewFromFloat(0.01),
			LotSize:      100,
			BidLevels:    5,
			AskLevels:    5,
			LevelDepth:   500,
			Exchange:     "SIM",
			VolumeWeight: 1.0,
		},
		{
			Symbol:       "MSFT",
			InitialPrice: decimal.NewFromFloat(300.00),
			Volatility:   0.25,
			Drift:        0.0,
			TickSize:     decimal.NewFromFloat(0.01),
			LotSize:      100,
			BidLevels:    5,
			AskLevels:    5,
			LevelDepth:   500,
			Exchange:     "SIM",
			VolumeWeight: 1.0,
		},
	}
}

func TestDeterministicReplay(t *testing.T) {
	e1 := New(testConfigs(), 42)
	e2 := New(testConfigs(), 42)

	for i := 0; i < 500; i++ {
		for _, sym := range e1.Symbols() {
			if err := e1.Tick(sym); err != nil {
				t.Fatalf("e1 tick: %v", err)
			}
			if err := e2.Tick(sym); err != nil {
				t.Fatalf("e2 tick: %v", err)
			}
		}
	}

	for _, sym := range e1.Symbols() {
		s1, _ := e1.State(sym)
		s2, _ := e2.State(sym)
		if !s1.Price.Equal(s2.Price) {
			t.Fatalf("%s: price diverged: %s vs %s", sym, s1.Price, s2.Price)
		}
		if !s1.BidPrice.Equal(s2.BidPrice) || !s1.AskPrice.Equal(s2.AskPrice) {
			t.Fatalf("%s: book diverged", sym)
		}
		for i := range s1.BidSizes {
			if s1.BidSizes[i] != s2.BidSizes[i] {
				t.Fatalf("%s: bid size %d diverged", sym, i)
			}
		}
	}
}

func TestPriceStaysPositiveAndTickAligned(t *testing.T) {
	e := New(testConfigs(), 7)
	for i := 0; i < 5000; i++ {
		for _, sym := range e.Symbols() {
			if err := e.Tick(sym); err != nil {
				t.Fatalf("tick: %v", err)
			}
			st, _ := e.State(sym)
			if !st.Price.GreaterThan(decimal.Zero) {
				t.Fatalf("%s: price went non-positive: %s", sym, st.Price)
			}
			units := st.Price.Div(decimal.NewFromFloat(0.01))
			if !units.Round(0).Sub(units).Abs().LessThan(decimal.NewFromFloat(0.0001)) {
				t.Fatalf("%s: price %s not tick-aligned", sym, st.Price)
			}
		}
	}
}

func TestQuoteSpreadInvariant(t *testing.T) {
	e := New(testConfigs(), 9)
	for i := 0; i < 1000; i++ {
		for _, sym := range e.Symbols() {
			_ = e.Tick(sym)
			st, _ := e.State(sym)
			tick := decimal.NewFromFloat(0.01)
			if st.AskPrice.Sub(st.BidPrice).LessThan(tick) {
				t.Fatalf("%s: spread %s below tick size", sym, st.Spread)
			}
		}
	}
}

func TestBookSizesFloorAt100(t *testing.T) {
	e := New(testConfigs(), 11)
	for i := 0; i < 2000; i++ {
		for _, sym := range e.Symbols() {
			_ = e.Tick(sym)
			st, _ := e.State(sym)
			for _, sz := range st.BidSizes {
				if sz < 100 {
					t.Fatalf("%s: bid size %d below floor", sym, sz)
				}
			}
			for _, sz := range st.AskSizes {
				if sz < 100 {
					t.Fatalf("%s: ask size %d below floor", sym, sz)
				}
			}
		}
	}
}

func TestParetoSizeBounds(t *testing.T) {
	rng := newSource(3)
	for i := 0; i < 10000; i++ {
		size := paretoSize(rng)
		if size < 1 {
			t.Fatalf("pareto size below minimum: %d", size)
		}
		if size > paretoMax {
			t.Fatalf("pareto size above maximum: %d", size)
		}
	}
}

func TestUnknownSymbolErrors(t *testing.T) {
	e := New(testConfigs(), 1)
	if err := e.Tick("NOPE"); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}
