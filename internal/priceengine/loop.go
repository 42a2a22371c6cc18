package priceengine

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"finstream/internal/model"
)

// Publisher is the engine's only collaborator: a durable, at-least-once
// sink for trade and quote events. internal/eventlog.Producer satisfies
// this.
type Publisher interface {
	PublishTrade(ctx context.Context, trade model.Trade) error
	PublishQuote(ctx context.Context, quote model.Quote) error
}

// IDGenerator mints unique trade IDs; RunConfig.NextTradeID lets a caller
// supply its own, such as a deterministic sequence.
type IDGenerator func() string

// RunConfig controls the cadences of the engine's trade, quote and stats
// ticks, which Run serves from one select loop.
type RunConfig struct {
	TradeInterval time.Duration // default 100ms
	QuoteInterval time.Duration // default 200ms
	StatsInterval time.Duration // default 60s
	NextTradeID   IDGenerator
}

func (c *RunConfig) setDefaults() {
	if c.TradeInterval <= 0 {
		c.TradeInterval = 100 * time.Millisecond
	}
	if c.QuoteInterval <= 0 {
		c.QuoteInterval = 200 * time.Millisecond
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = 60 * time.Second
	}
	if c.NextTradeID == nil {
		c.NextTradeID = defaultIDGenerator()
	}
}

func defaultIDGenerator() IDGenerator {
	var seq uint64
	return func() string {
		n := atomic.AddUint64(&seq, 1)
		return "T" + time.Now().UTC().Format("20060102150405") + "-" + itoa(n)
	}
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Run serves the trade, quote and stats tickers from a single select loop
// and blocks until ctx is cancelled. A trade tick advances every watchlist
// symbol's GBM state and publishes the resulting trades; a quote tick
// publishes each symbol's current top of book without advancing it; a
// stats tick logs each symbol's state. A publish error is logged and the
// loop sleeps 1s before resuming, per the engine's retry/backoff contract.
func (e *Engine) Run(ctx context.Context, pub Publisher, cfg RunConfig) {
	cfg.setDefaults()

	tradeTicker := time.NewTicker(cfg.TradeInterval)
	quoteTicker := time.NewTicker(cfg.QuoteInterval)
	statsTicker := time.NewTicker(cfg.StatsInterval)
	defer tradeTicker.Stop()
	defer quoteTicker.Stop()
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[priceengine] shutting down")
			return

		case <-tradeTicker.C:
			for _, symbol := range e.symbols {
				if err := e.Tick(symbol); err != nil {
					log.Printf("[priceengine] tick %s: %v", symbol, err)
					time.Sleep(time.Second)
					continue
				}
				trades, err := e.Trades(symbol, time.Now(), cfg.NextTradeID)
				if err != nil {
					log.Printf("[priceengine] trades %s: %v", symbol, err)
					time.Sleep(time.Second)
					continue
				}
				for _, trade := range trades {
					if err := pub.PublishTrade(ctx, trade); err != nil {
						log.Printf("[priceengine] publish trade %s: %v", symbol, err)
						time.Sleep(time.Second)
					}
				}
			}

		case <-quoteTicker.C:
			for _, symbol := range e.symbols {
				quote, err := e.Quote(symbol, time.Now())
				if err != nil {
					log.Printf("[priceengine] quote %s: %v", symbol, err)
					continue
				}
				if err := pub.PublishQuote(ctx, quote); err != nil {
					log.Printf("[priceengine] publish quote %s: %v", symbol, err)
					time.Sleep(time.Second)
				}
			}

		case <-statsTicker.C:
			for _, symbol := range e.symbols {
				st := e.states[symbol]
				log.Printf("[priceengine] stats symbol=%s price=%s sigma=%.4f volume=%d trades=%d",
					symbol, st.state.Price, st.sigma, st.state.Volume, st.state.TradeCount)
			}
		}
	}
}
