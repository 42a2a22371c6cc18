package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SymbolConfig describes the static simulation parameters for one watchlist
// symbol. It is owned by the price engine and never mutated after load.
type SymbolConfig struct {
	Symbol       string
	InitialPrice decimal.Decimal
	Volatility   float64 // annualized long-run volatility sigma-bar
	Drift        float64 // per-step drift mu
	TickSize     decimal.Decimal
	LotSize      int64
	BidLevels    int
	AskLevels    int
	LevelDepth   int64
	Exchange     string
	VolumeWeight float64 // relative trade emission weight for this symbol
}

// Validate enforces the watchlist invariant (spec.md §3): a symbol is
// 1-10 characters, uppercase.
func (c SymbolConfig) Validate() error {
	if len(c.Symbol) < 1 || len(c.Symbol) > 10 {
		return fmt.Errorf("model: symbol %q must be 1-10 characters", c.Symbol)
	}
	if c.Symbol != strings.ToUpper(c.Symbol) {
		return fmt.Errorf("model: symbol %q must be uppercase", c.Symbol)
	}
	return nil
}

// PriceState is the engine's mutable per-symbol GBM state. It is created at
// startup, mutated exactly once per tick, and destroyed at shutdown.
type PriceState struct {
	Symbol      string
	Price       decimal.Decimal
	Sigma       float64 // current mean-reverting volatility
	BidPrice    decimal.Decimal
	AskPrice    decimal.Decimal
	Spread      decimal.Decimal
	BidSizes    []int64
	AskSizes    []int64
	High        decimal.Decimal
	Low         decimal.Decimal
	Volume      int64
	TradeCount  int64
	BuyPressure float64
}
