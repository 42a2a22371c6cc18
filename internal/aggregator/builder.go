// Package aggregator maintains one CandleBuilder per live (symbol,
// interval) bucket, flushing on bucket close and on a periodic
// flush-completed sweep, and upserting the result into the time-series
// store.
package aggregator

import (
	"time"

	"github.com/shopspring/decimal"

	"finstream/internal/model"
)

// builderState names where a CandleBuilder sits in its lifecycle, per
// §4.3: Empty -> Partial (first trade) -> Flushed (terminal for that
// instance).
type builderState int

const (
	stateEmpty builderState = iota
	statePartial
	stateFlushed
)

// builder is the aggregator's private mutable accumulator for one open
// bucket. model.Candle is its flushed, wire-ready projection.
type builder struct {
	symbol      string
	interval    model.Interval
	bucketStart int64 // epoch seconds, floor-aligned to interval

	state      builderState
	open       decimal.Decimal
	high       decimal.Decimal
	low        decimal.Decimal
	close      decimal.Decimal
	volume     int64
	tradeCount int64
	valueSum   decimal.Decimal // sum(price * qty), full precision
}

func newBuilder(symbol string, interval model.Interval, bucketStart int64) *builder {
	return &builder{
		symbol:      symbol,
		interval:    interval,
		bucketStart: bucketStart,
		state:       stateEmpty,
	}
}

func bucketStartFor(epochSeconds int64, interval model.Interval) int64 {
	width := interval.Seconds()
	if width <= 0 {
		return epochSeconds
	}
	return (epochSeconds / width) * width
}

// addTrade merges one trade into the builder, per §4.3 step 4.
func (b *builder) addTrade(price decimal.Decimal, qty int64) {
	if b.state == stateEmpty {
		b.open = price
		b.high = price
		b.low = price
		b.valueSum = decimal.Zero
	} else {
		if price.GreaterThan(b.high) {
			b.high = price
		}
		if price.LessThan(b.low) {
			b.low = price
		}
	}
	b.close = price
	b.volume += qty
	b.tradeCount++
	b.valueSum = b.valueSum.Add(price.Mul(decimal.NewFromInt(qty)))
	b.state = statePartial
}

func (b *builder) isEmpty() bool {
	return b.tradeCount == 0
}

// vwap returns value_sum / volume, rounded to 8 decimals, falling back to
// close when volume is 0 (an empty builder should never be flushed, but
// the fallback keeps the computation total).
func (b *builder) vwap() decimal.Decimal {
	if b.volume == 0 {
		return b.close
	}
	return b.valueSum.DivRound(decimal.NewFromInt(b.volume), 8)
}

// toCandle projects the builder's accumulated state into a wire Candle.
// The bucket's start-of-interval time is reconstructed from bucketStart.
func (b *builder) toCandle() model.Candle {
	return model.Candle{
		Symbol:     b.symbol,
		Interval:   b.interval,
		Timestamp:  bucketTime(b.bucketStart),
		Open:       b.open,
		High:       b.high,
		Low:        b.low,
		Close:      b.close,
		Volume:     b.volume,
		TradeCount: b.tradeCount,
		VWAP:       b.vwap(),
	}
}

func (b *builder) markFlushed() {
	b.state = stateFlushed
}

func bucketTime(epochSeconds int64) time.Time {
	return time.Unix(epochSeconds, 0).UTC()
}
