package priceengine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"finstream/internal/model"
)

// Quote builds the current top-of-book Quote for symbol from the engine's
// most recent Tick. Call after Tick.
func (e *Engine) Quote(symbol string, now time.Time) (model.Quote, error) {
	st, ok := e.states[symbol]
	if !ok {
		return model.Quote{}, errUnknownSymbol(symbol)
	}
	bidSize, askSize := int64(0), int64(0)
	if len(st.state.BidSizes) > 0 {
		bidSize = st.state.BidSizes[0]
	}
	if len(st.state.AskSizes) > 0 {
		askSize = st.state.AskSizes[0]
	}
	return model.Quote{
		Symbol:    symbol,
		BidPrice:  st.state.BidPrice,
		BidSize:   bidSize,
		AskPrice:  st.state.AskPrice,
		AskSize:   askSize,
		Exchange:  st.cfg.Exchange,
		Timestamp: now,
	}, nil
}

// Trades draws a batch of trade prints for symbol for one batch tick,
// sized in proportion to the symbol's configured volume weight, and
// updates buy pressure, volume, and trade_count as a side effect.
func (e *Engine) Trades(symbol string, now time.Time, idFn func() string) ([]model.Trade, error) {
	st, ok := e.states[symbol]
	if !ok {
		return nil, errUnknownSymbol(symbol)
	}

	count := tradeCountForWeight(st.rng, st.cfg.VolumeWeight)
	trades := make([]model.Trade, 0, count)
	for i := 0; i < count; i++ {
		trades = append(trades, st.nextTrade(now, idFn()))
	}
	return trades, nil
}

// tradeCountForWeight draws a small non-negative trade count for this
// batch tick; higher volume weights produce more prints on average.
func tradeCountForWeight(rng *source, weight float64) int {
	if weight <= 0 {
		weight = 1
	}
	lambda := weight
	// Simple thinned-Poisson-like draw via repeated coin flips, avoids
	// pulling in a full Poisson sampler for a bounded small mean.
	n := 0
	p := lambda / (lambda + 1)
	for n < 50 && rng.uniform() < p {
		n++
	}
	return n
}

func (st *symbolState) nextTrade(now time.Time, id string) model.Trade {
	side := model.SideBuy
	sideSign := 1.0
	if st.rng.uniform() >= st.buyPressure {
		side = model.SideSell
		sideSign = -1.0
	}

	st.buyPressure = st.buyPressure + 0.01*(0.5-st.buyPressure) + st.rng.normal()*0.02 + sideSign*0.01
	if st.buyPressure < buyPressureMin {
		st.buyPressure = buyPressureMin
	}
	if st.buyPressure > buyPressureMax {
		st.buyPressure = buyPressureMax
	}
	st.state.BuyPressure = st.buyPressure

	base := st.state.AskPrice
	if side == model.SideSell {
		base = st.state.BidPrice
	}
	spreadFloat := tickFloat(st.state.Spread)
	noise := st.rng.normal() * spreadFloat * 0.1
	priceFloat, _ := base.Float64()
	priceFloat += noise
	if priceFloat < 0.01 {
		priceFloat = 0.01
	}
	price := decimal.NewFromFloat(priceFloat).Round(2)

	qty := paretoSize(st.rng)

	st.state.Volume += qty
	st.state.TradeCount++

	return model.Trade{
		TradeID:   id,
		Symbol:    st.cfg.Symbol,
		Price:     price,
		Quantity:  qty,
		Side:      side,
		Exchange:  st.cfg.Exchange,
		Timestamp: now,
	}
}

// paretoSize draws a bounded Pareto-distributed trade size per spec.md's
// inverse-CDF formula, rounding to the nearest lot above 100 shares.
func paretoSize(rng *source) int64 {
	u := rng.uniform()
	xMin, xMax, alpha := float64(paretoMin), float64(paretoMax), paretoShape
	ratio := math.Pow(xMin/xMax, alpha)
	size := xMin * math.Pow(1-u+u*ratio, -1/alpha)
	if size > 100 {
		return int64(math.Round(size/lotSize)) * lotSize
	}
	return int64(math.Round(size))
}

type unknownSymbolError string

func (e unknownSymbolError) Error() string {
	return "priceengine: unknown symbol " + string(e)
}

func errUnknownSymbol(symbol string) error {
	return unknownSymbolError(symbol)
}
