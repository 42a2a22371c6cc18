package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTradeRoundTrip(t *testing.T) {
	orig := Trade{
		TradeID:   "T1",
		Symbol:    "AAPL",
		Price:     decimal.NewFromFloat(150.25),
		Quantity:  100,
		Side:      SideBuy,
		Exchange:  "SIM",
		Timestamp: time.Date(2024, 1, 1, 12, 30, 0, 123456000, time.UTC),
		TraceID:   "trace-1",
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Trade
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Price.Equal(orig.Price) {
		t.Errorf("price = %s, want %s", got.Price, orig.Price)
	}
	if !got.Timestamp.Equal(orig.Timestamp) {
		t.Errorf("timestamp = %s, want %s", got.Timestamp, orig.Timestamp)
	}
	if got.TradeID != orig.TradeID || got.Symbol != orig.Symbol || !got.Price.Equal(orig.Price) ||
		got.Quantity != orig.Quantity || got.Side != orig.Side || got.Exchange != orig.Exchange ||
		!got.Timestamp.Equal(orig.Timestamp) || got.TraceID != orig.TraceID {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	orig := Quote{
		Symbol:    "AAPL",
		BidPrice:  decimal.NewFromFloat(150.00),
		BidSize:   500,
		AskPrice:  decimal.NewFromFloat(150.05),
		AskSize:   500,
		Exchange:  "SIM",
		Timestamp: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC),
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Quote
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Symbol != orig.Symbol || !got.BidPrice.Equal(orig.BidPrice) || got.BidSize != orig.BidSize ||
		!got.AskPrice.Equal(orig.AskPrice) || got.AskSize != orig.AskSize || got.Exchange != orig.Exchange ||
		!got.Timestamp.Equal(orig.Timestamp) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestQuoteValidateRejectsInvertedBook(t *testing.T) {
	tick := decimal.NewFromFloat(0.01)
	q := Quote{Symbol: "X", BidPrice: decimal.NewFromFloat(10), AskPrice: decimal.NewFromFloat(9.99)}
	if err := q.Validate(tick); err == nil {
		t.Fatal("expected error for ask below bid")
	}
}

func TestQuoteValidateRejectsNarrowSpread(t *testing.T) {
	tick := decimal.NewFromFloat(0.01)
	q := Quote{Symbol: "X", BidPrice: decimal.NewFromFloat(10), AskPrice: decimal.NewFromFloat(10.001)}
	if err := q.Validate(tick); err == nil {
		t.Fatal("expected error for spread below tick size")
	}
}

func TestQuoteValidateAccepts(t *testing.T) {
	tick := decimal.NewFromFloat(0.01)
	q := Quote{Symbol: "X", BidPrice: decimal.NewFromFloat(10), AskPrice: decimal.NewFromFloat(10.02)}
	if err := q.Validate(tick); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCandleRoundTrip(t *testing.T) {
	orig := Candle{
		Symbol:     "AAPL",
		Interval:   Interval1m,
		Timestamp:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:       decimal.NewFromFloat(100),
		High:       decimal.NewFromFloat(105),
		Low:        decimal.NewFromFloat(99),
		Close:      decimal.NewFromFloat(102),
		Volume:     1000,
		TradeCount: 10,
		VWAP:       decimal.NewFromFloat(101.5),
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Candle
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Symbol != orig.Symbol || got.Interval != orig.Interval || !got.Timestamp.Equal(orig.Timestamp) ||
		!got.Open.Equal(orig.Open) || !got.High.Equal(orig.High) || !got.Low.Equal(orig.Low) ||
		!got.Close.Equal(orig.Close) || got.Volume != orig.Volume || got.TradeCount != orig.TradeCount ||
		!got.VWAP.Equal(orig.VWAP) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestAlertRoundTrip(t *testing.T) {
	orig := Alert{
		AlertID:   "A1",
		AlertType: AlertPriceSpike,
		Symbol:    "AAPL",
		Severity:  SeverityCritical,
		Message:   "spike",
		Details:   map[string]any{"z_score": 5.2},
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Alert
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.AlertID != orig.AlertID || got.Severity != orig.Severity {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, orig)
	}
}

func TestIntervalSeconds(t *testing.T) {
	cases := map[Interval]int64{
		Interval1m:  60,
		Interval5m:  300,
		Interval15m: 900,
		Interval1h:  3600,
		Interval4h:  14400,
		Interval1d:  86400,
	}
	for iv, want := range cases {
		if got := iv.Seconds(); got != want {
			t.Errorf("%s.Seconds() = %d, want %d", iv, got, want)
		}
	}
}
