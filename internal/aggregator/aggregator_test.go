package aggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finstream/internal/model"
)

type fakeSink struct {
	mu      sync.Mutex
	candles []model.Candle
}

func (f *fakeSink) Upsert(_ context.Context, candle model.Candle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candles = append(f.candles, candle)
	return nil
}

func (f *fakeSink) all() []model.Candle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Candle, len(f.candles))
	copy(out, f.candles)
	return out
}

// forInterval returns the upserted candles of one interval, in upsert
// order; the aggregator builds every interval in model.AllIntervals.
func (f *fakeSink) forInterval(iv model.Interval) []model.Candle {
	var out []model.Candle
	for _, c := range f.all() {
		if c.Interval == iv {
			out = append(out, c)
		}
	}
	return out
}

func tradeAt(symbol string, epoch int64, price, qty float64) model.Trade {
	return model.Trade{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(price),
		Quantity:  int64(qty),
		Side:      model.SideBuy,
		Exchange:  "SIM",
		Timestamp: time.Unix(epoch, 0).UTC(),
	}
}

// Scenario 1: bucket boundary. 1700000000 is 20s past a minute boundary,
// so the 1m buckets here start at 1699999980 and 1700000040; the trades sit
// 30s, 59s, 60s and 61s after the first of them.
func TestBucketBoundary(t *testing.T) {
	sink := &fakeSink{}
	agg := New(sink, Config{})
	ctx := context.Background()

	agg.AddTrade(ctx, tradeAt("X", 1700000010, 100, 1))
	agg.AddTrade(ctx, tradeAt("X", 1700000039, 101, 1))
	agg.AddTrade(ctx, tradeAt("X", 1700000040, 102, 1))
	agg.AddTrade(ctx, tradeAt("X", 1700000041, 103, 1))

	agg.mu.Lock()
	b := agg.builders[model.Interval1m]["X"]
	agg.mu.Unlock()
	if b.bucketStart != 1700000040 {
		t.Fatalf("current builder bucket = %d, want 1700000040", b.bucketStart)
	}

	agg.FlushAll(ctx)
	candles := sink.forInterval(model.Interval1m)
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
	if candles[0].Timestamp.Unix() != 1699999980 {
		t.Errorf("first candle bucket = %d, want 1699999980", candles[0].Timestamp.Unix())
	}
	if candles[0].TradeCount != 2 {
		t.Errorf("first candle trade_count = %d, want 2", candles[0].TradeCount)
	}
	if candles[1].Timestamp.Unix() != 1700000040 {
		t.Errorf("second candle bucket = %d, want 1700000040", candles[1].Timestamp.Unix())
	}
	if candles[1].TradeCount != 2 {
		t.Errorf("second candle trade_count = %d, want 2", candles[1].TradeCount)
	}
}

// Scenario 2: VWAP.
func TestVWAP(t *testing.T) {
	sink := &fakeSink{}
	agg := New(sink, Config{})
	ctx := context.Background()

	agg.AddTrade(ctx, tradeAt("Y", 1700000000, 100, 10))
	agg.AddTrade(ctx, tradeAt("Y", 1700000001, 110, 20))
	agg.AddTrade(ctx, tradeAt("Y", 1700000002, 120, 30))
	agg.FlushAll(ctx)

	candles := sink.forInterval(model.Interval1m)
	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1", len(candles))
	}
	c := candles[0]
	if !c.Open.Equal(decimal.NewFromInt(100)) {
		t.Errorf("open = %s, want 100", c.Open)
	}
	if !c.High.Equal(decimal.NewFromInt(120)) {
		t.Errorf("high = %s, want 120", c.High)
	}
	if !c.Low.Equal(decimal.NewFromInt(100)) {
		t.Errorf("low = %s, want 100", c.Low)
	}
	if !c.Close.Equal(decimal.NewFromInt(120)) {
		t.Errorf("close = %s, want 120", c.Close)
	}
	if c.Volume != 60 {
		t.Errorf("volume = %d, want 60", c.Volume)
	}
	if c.TradeCount != 3 {
		t.Errorf("trade_count = %d, want 3", c.TradeCount)
	}
	want := decimal.NewFromFloat(113.333333)
	diff := c.VWAP.Sub(want).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(0.001)) {
		t.Errorf("vwap = %s, want ~113.3333", c.VWAP)
	}
}

// Scenario 5: shutdown flush across two 5m buckets before the second
// closes.
func TestShutdownFlush(t *testing.T) {
	sink := &fakeSink{}
	agg := New(sink, Config{})
	ctx := context.Background()

	bucketWidth := model.Interval5m.Seconds()
	bucket1 := int64(1700000000)
	bucket2 := bucket1 + bucketWidth

	agg.AddTrade(ctx, tradeAt("Z", bucket1+10, 50, 5))
	agg.AddTrade(ctx, tradeAt("Z", bucket1+20, 51, 5))
	agg.AddTrade(ctx, tradeAt("Z", bucket1+30, 52, 5))
	agg.AddTrade(ctx, tradeAt("Z", bucket2+5, 53, 5))
	agg.AddTrade(ctx, tradeAt("Z", bucket2+10, 54, 5))

	agg.FlushAll(ctx)

	candles := sink.forInterval(model.Interval5m)
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}
}

// Scenario 6: upserting the same candle twice converges to one row with
// the later values.
func TestUpsertIdempotence(t *testing.T) {
	sink := &fakeSink{}
	agg := New(sink, Config{})
	ctx := context.Background()

	agg.AddTrade(ctx, tradeAt("W", 1700000000, 10, 1))
	agg.FlushCompleted(ctx, time.Unix(1700000000, 0)) // bucket still open, skipped
	agg.AddTrade(ctx, tradeAt("W", 1700000001, 11, 1))
	agg.FlushAll(ctx)
	agg.FlushAll(ctx) // second flush of the same (now-flushed) builder is a no-op

	candles := sink.forInterval(model.Interval1m)
	if len(candles) != 1 {
		t.Fatalf("got %d candles, want 1 (upsert idempotence)", len(candles))
	}
	if !candles[0].Close.Equal(decimal.NewFromInt(11)) {
		t.Errorf("close = %s, want 11", candles[0].Close)
	}
}

func TestEmptyBuilderSkippedOnFlush(t *testing.T) {
	sink := &fakeSink{}
	agg := New(sink, Config{})
	agg.FlushCompleted(context.Background(), time.Now())
	if len(sink.all()) != 0 {
		t.Fatal("expected no candles flushed for an empty watchlist")
	}
}
