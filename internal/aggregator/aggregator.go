package aggregator

import (
	"context"
	"log"
	"sync"
	"time"

	"finstream/internal/model"
)

// Sink persists a completed or in-progress candle, keyed so repeated
// flushes of the same bucket converge to the same row.
type Sink interface {
	Upsert(ctx context.Context, candle model.Candle) error
}

// Aggregator holds builders[interval][symbol] and flushes them on bucket
// close and on a periodic sweep. Running with goroutines (rather than the
// cooperative single-thread-per-process model the source assumes) means
// the consumer loop and the flush loop can observe the builder map
// concurrently, so access is serialized behind mu.
type Aggregator struct {
	mu       sync.Mutex
	builders map[model.Interval]map[string]*builder

	sink          Sink
	flushInterval time.Duration

	processedSinceCommit int
	commitBatch          int
	onCommit             func()
}

// Config configures the aggregator's flush cadence and commit batching.
type Config struct {
	FlushInterval time.Duration // default 5s
	CommitBatch   int           // default 100
}

func (c *Config) setDefaults() {
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.CommitBatch <= 0 {
		c.CommitBatch = 100
	}
}

// New creates an Aggregator that keeps builders for every interval in
// model.AllIntervals, persisting flushed candles through sink.
func New(sink Sink, cfg Config) *Aggregator {
	cfg.setDefaults()
	builders := make(map[model.Interval]map[string]*builder, len(model.AllIntervals))
	for _, iv := range model.AllIntervals {
		builders[iv] = make(map[string]*builder)
	}
	return &Aggregator{
		builders:      builders,
		sink:          sink,
		flushInterval: cfg.FlushInterval,
		commitBatch:   cfg.CommitBatch,
	}
}

// OnCommit registers a callback invoked every time the processed-trade
// counter crosses CommitBatch, the hook point for acking consumer offsets.
func (a *Aggregator) OnCommit(fn func()) {
	a.onCommit = fn
}

// AddTrade merges trade into every configured interval's builder for its
// symbol, flushing and replacing a builder whenever the trade lands in a
// later bucket than the builder currently covers (§4.3 steps 1-4).
func (a *Aggregator) AddTrade(ctx context.Context, trade model.Trade) {
	a.mu.Lock()
	defer a.mu.Unlock()

	epochSeconds := trade.Timestamp.Unix()
	for _, interval := range model.AllIntervals {
		bucketStart := bucketStartFor(epochSeconds, interval)
		bySymbol := a.builders[interval]
		b, ok := bySymbol[trade.Symbol]
		if !ok {
			b = newBuilder(trade.Symbol, interval, bucketStart)
			bySymbol[trade.Symbol] = b
		} else if b.bucketStart != bucketStart {
			a.flushLocked(ctx, b)
			b = newBuilder(trade.Symbol, interval, bucketStart)
			bySymbol[trade.Symbol] = b
		}
		b.addTrade(trade.Price, trade.Quantity)
	}

	a.processedSinceCommit++
	if a.processedSinceCommit >= a.commitBatch {
		a.processedSinceCommit = 0
		if a.onCommit != nil {
			a.onCommit()
		}
	}
}

// flushLocked upserts b's current state and marks it flushed. Caller must
// hold mu. Empty builders are skipped per §4.3's flush-completed contract,
// and so are builders already flushed with no trade merged in since.
func (a *Aggregator) flushLocked(ctx context.Context, b *builder) {
	if b.isEmpty() || b.state == stateFlushed {
		return
	}
	candle := b.toCandle()
	if err := a.sink.Upsert(ctx, candle); err != nil {
		log.Printf("[aggregator] upsert %s %s @ %d failed: %v", b.symbol, b.interval, b.bucketStart, err)
		return
	}
	b.markFlushed()
}

// FlushCompleted sweeps every (interval, symbol) builder and flushes any
// whose bucket has closed, replacing it with a fresh builder for the
// bucket containing now. Runs on the aggregator's periodic cadence.
func (a *Aggregator) FlushCompleted(ctx context.Context, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	nowEpoch := now.Unix()
	for interval, bySymbol := range a.builders {
		width := interval.Seconds()
		for symbol, b := range bySymbol {
			if nowEpoch < b.bucketStart+width {
				continue
			}
			a.flushLocked(ctx, b)
			bySymbol[symbol] = newBuilder(symbol, interval, bucketStartFor(nowEpoch, interval))
		}
	}
}

// FlushAll flushes every non-empty builder regardless of bucket
// completion, run once at shutdown.
func (a *Aggregator) FlushAll(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, bySymbol := range a.builders {
		for _, b := range bySymbol {
			a.flushLocked(ctx, b)
		}
	}
}

// Run starts the periodic flush-completed sweep and blocks until ctx is
// cancelled, flushing all remaining builders on the way out.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[aggregator] shutting down, flushing all builders")
			a.FlushAll(context.Background())
			return
		case <-ticker.C:
			a.FlushCompleted(ctx, time.Now())
		}
	}
}
