package config

import (
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"finstream/internal/model"
)

// defaultSymbols is the fixed set of SymbolConfigs the price engine can
// simulate; WATCHLIST selects from it and there are no per-symbol env
// overrides. Values are representative, not sourced from any live feed.
var defaultSymbols = map[string]model.SymbolConfig{
	"AAPL": {
		Symbol: "AAPL", InitialPrice: decimal.NewFromFloat(190.00),
		Volatility: 0.25, Drift: 0.08, TickSize: decimal.NewFromFloat(0.01),
		LotSize: 100, BidLevels: 5, AskLevels: 5, LevelDepth: 500,
		Exchange: "NASDAQ", VolumeWeight: 1.0,
	},
	"MSFT": {
		Symbol: "MSFT", InitialPrice: decimal.NewFromFloat(410.00),
		Volatility: 0.22, Drift: 0.07, TickSize: decimal.NewFromFloat(0.01),
		LotSize: 100, BidLevels: 5, AskLevels: 5, LevelDepth: 500,
		Exchange: "NASDAQ", VolumeWeight: 1.0,
	},
	"GOOGL": {
		Symbol: "GOOGL", InitialPrice: decimal.NewFromFloat(165.00),
		Volatility: 0.28, Drift: 0.06, TickSize: decimal.NewFromFloat(0.01),
		LotSize: 100, BidLevels: 5, AskLevels: 5, LevelDepth: 500,
		Exchange: "NASDAQ", VolumeWeight: 0.8,
	},
	"TSLA": {
		Symbol: "TSLA", InitialPrice: decimal.NewFromFloat(250.00),
		Volatility: 0.55, Drift: 0.05, TickSize: decimal.NewFromFloat(0.01),
		LotSize: 100, BidLevels: 5, AskLevels: 5, LevelDepth: 300,
		Exchange: "NASDAQ", VolumeWeight: 1.5,
	},
	"BTCUSDT": {
		Symbol: "BTCUSDT", InitialPrice: decimal.NewFromFloat(65000.00),
		Volatility: 0.65, Drift: 0.10, TickSize: decimal.NewFromFloat(0.10),
		LotSize: 1, BidLevels: 8, AskLevels: 8, LevelDepth: 50,
		Exchange: "BINANCE", VolumeWeight: 2.0,
	},
}

// Watchlist parses WATCHLIST (a comma-separated symbol list, default
// "AAPL,MSFT,GOOGL") and returns the matching SymbolConfigs in order.
// Unknown symbols are skipped with a caller-visible reduction in count
// rather than a hard failure, since the watchlist is a simulation
// convenience, not an external contract.
func Watchlist(raw string) []model.SymbolConfig {
	if strings.TrimSpace(raw) == "" {
		raw = "AAPL,MSFT,GOOGL"
	}
	var out []model.SymbolConfig
	for _, sym := range strings.Split(raw, ",") {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		cfg, ok := defaultSymbols[sym]
		if !ok {
			continue
		}
		if err := cfg.Validate(); err != nil {
			log.Printf("[config] watchlist: skipping %s: %v", sym, err)
			continue
		}
		out = append(out, cfg)
	}
	return out
}
