package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// timeLayout renders timestamps as ISO-8601 with microsecond resolution and
// no trailing Z, matching the wire schema external consumers expect.
const timeLayout = "2006-01-02T15:04:05.000000"

// Side is the aggressor side of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Interval is a supported candle bucket width.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Seconds returns the bucket width of the interval in seconds.
func (iv Interval) Seconds() int64 {
	switch iv {
	case Interval1m:
		return 60
	case Interval5m:
		return 5 * 60
	case Interval15m:
		return 15 * 60
	case Interval1h:
		return 60 * 60
	case Interval4h:
		return 4 * 60 * 60
	case Interval1d:
		return 24 * 60 * 60
	default:
		return 0
	}
}

// AllIntervals is the set of buckets the aggregator maintains per symbol.
var AllIntervals = []Interval{Interval1m, Interval5m, Interval15m, Interval1h, Interval4h, Interval1d}

// AlertType classifies the kind of anomaly that triggered an alert.
type AlertType string

const (
	AlertPriceSpike    AlertType = "PRICE_SPIKE"
	AlertVolumeAnomaly AlertType = "VOLUME_ANOMALY"
	AlertSpreadAnomaly AlertType = "SPREAD_ANOMALY"
	AlertCustom        AlertType = "CUSTOM"
)

// Severity ranks how serious an alert is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Trade is a single execution print on the synthetic tape.
type Trade struct {
	TradeID   string          `json:"trade_id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Side      Side            `json:"side"`
	Exchange  string          `json:"exchange"`
	Timestamp time.Time       `json:"-"`
	TraceID   string          `json:"trace_id,omitempty"`
}

type tradeWire struct {
	TradeID   string          `json:"trade_id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Side      Side            `json:"side"`
	Exchange  string          `json:"exchange"`
	Timestamp string          `json:"timestamp"`
	TraceID   string          `json:"trace_id,omitempty"`
}

func (t Trade) MarshalJSON() ([]byte, error) {
	w := tradeWire{
		TradeID:   t.TradeID,
		Symbol:    t.Symbol,
		Price:     t.Price,
		Quantity:  t.Quantity,
		Side:      t.Side,
		Exchange:  t.Exchange,
		Timestamp: t.Timestamp.UTC().Format(timeLayout),
		TraceID:   t.TraceID,
	}
	return json.Marshal(w)
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var w tradeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(timeLayout, w.Timestamp)
	if err != nil {
		return fmt.Errorf("trade: parse timestamp: %w", err)
	}
	*t = Trade{
		TradeID:   w.TradeID,
		Symbol:    w.Symbol,
		Price:     w.Price,
		Quantity:  w.Quantity,
		Side:      w.Side,
		Exchange:  w.Exchange,
		Timestamp: ts,
		TraceID:   w.TraceID,
	}
	return nil
}

// Quote is a top-of-book bid/ask snapshot.
type Quote struct {
	Symbol    string          `json:"symbol"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	BidSize   int64           `json:"bid_size"`
	AskPrice  decimal.Decimal `json:"ask_price"`
	AskSize   int64           `json:"ask_size"`
	Exchange  string          `json:"exchange"`
	Timestamp time.Time       `json:"-"`
}

type quoteWire struct {
	Symbol    string          `json:"symbol"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	BidSize   int64           `json:"bid_size"`
	AskPrice  decimal.Decimal `json:"ask_price"`
	AskSize   int64           `json:"ask_size"`
	Exchange  string          `json:"exchange"`
	Timestamp string          `json:"timestamp"`
}

func (q Quote) MarshalJSON() ([]byte, error) {
	w := quoteWire{
		Symbol:    q.Symbol,
		BidPrice:  q.BidPrice,
		BidSize:   q.BidSize,
		AskPrice:  q.AskPrice,
		AskSize:   q.AskSize,
		Exchange:  q.Exchange,
		Timestamp: q.Timestamp.UTC().Format(timeLayout),
	}
	return json.Marshal(w)
}

func (q *Quote) UnmarshalJSON(data []byte) error {
	var w quoteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(timeLayout, w.Timestamp)
	if err != nil {
		return fmt.Errorf("quote: parse timestamp: %w", err)
	}
	*q = Quote{
		Symbol:    w.Symbol,
		BidPrice:  w.BidPrice,
		BidSize:   w.BidSize,
		AskPrice:  w.AskPrice,
		AskSize:   w.AskSize,
		Exchange:  w.Exchange,
		Timestamp: ts,
	}
	return nil
}

// Validate enforces the publish-path invariant: ask >= bid and the spread
// clears the configured tick size.
func (q Quote) Validate(tickSize decimal.Decimal) error {
	if q.AskPrice.LessThan(q.BidPrice) {
		return fmt.Errorf("quote %s: ask %s below bid %s", q.Symbol, q.AskPrice, q.BidPrice)
	}
	if q.AskPrice.Sub(q.BidPrice).LessThan(tickSize) {
		return fmt.Errorf("quote %s: spread %s below tick size %s", q.Symbol, q.AskPrice.Sub(q.BidPrice), tickSize)
	}
	return nil
}

// Candle is an OHLCV bar for one (symbol, interval, bucket).
type Candle struct {
	Symbol     string          `json:"symbol"`
	Interval   Interval        `json:"interval"`
	Timestamp  time.Time       `json:"-"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	Volume     int64           `json:"volume"`
	TradeCount int64           `json:"trade_count"`
	VWAP       decimal.Decimal `json:"vwap"`
}

type candleWire struct {
	Symbol     string          `json:"symbol"`
	Interval   Interval        `json:"interval"`
	Timestamp  string          `json:"timestamp"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	Volume     int64           `json:"volume"`
	TradeCount int64           `json:"trade_count"`
	VWAP       decimal.Decimal `json:"vwap"`
}

func (c Candle) MarshalJSON() ([]byte, error) {
	w := candleWire{
		Symbol:     c.Symbol,
		Interval:   c.Interval,
		Timestamp:  c.Timestamp.UTC().Format(timeLayout),
		Open:       c.Open,
		High:       c.High,
		Low:        c.Low,
		Close:      c.Close,
		Volume:     c.Volume,
		TradeCount: c.TradeCount,
		VWAP:       c.VWAP,
	}
	return json.Marshal(w)
}

func (c *Candle) UnmarshalJSON(data []byte) error {
	var w candleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(timeLayout, w.Timestamp)
	if err != nil {
		return fmt.Errorf("candle: parse timestamp: %w", err)
	}
	*c = Candle{
		Symbol:     w.Symbol,
		Interval:   w.Interval,
		Timestamp:  ts,
		Open:       w.Open,
		High:       w.High,
		Low:        w.Low,
		Close:      w.Close,
		Volume:     w.Volume,
		TradeCount: w.TradeCount,
		VWAP:       w.VWAP,
	}
	return nil
}

// Alert is an anomaly-detector notification.
type Alert struct {
	AlertID   string         `json:"alert_id"`
	AlertType AlertType      `json:"alert_type"`
	Symbol    string         `json:"symbol"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"-"`
}

type alertWire struct {
	AlertID   string         `json:"alert_id"`
	AlertType AlertType      `json:"alert_type"`
	Symbol    string         `json:"symbol"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func (a Alert) MarshalJSON() ([]byte, error) {
	w := alertWire{
		AlertID:   a.AlertID,
		AlertType: a.AlertType,
		Symbol:    a.Symbol,
		Severity:  a.Severity,
		Message:   a.Message,
		Details:   a.Details,
		Timestamp: a.Timestamp.UTC().Format(timeLayout),
	}
	return json.Marshal(w)
}

func (a *Alert) UnmarshalJSON(data []byte) error {
	var w alertWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(timeLayout, w.Timestamp)
	if err != nil {
		return fmt.Errorf("alert: parse timestamp: %w", err)
	}
	*a = Alert{
		AlertID:   w.AlertID,
		AlertType: w.AlertType,
		Symbol:    w.Symbol,
		Severity:  w.Severity,
		Message:   w.Message,
		Details:   w.Details,
		Timestamp: ts,
	}
	return nil
}
