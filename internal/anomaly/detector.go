package anomaly

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"finstream/internal/model"
)

// Sink is where detected alerts are published. eventlog.Producer and
// pubsub.Publisher both satisfy it directly; cmd/detector combines the two
// with FanoutSink.
type Sink interface {
	PublishAlert(ctx context.Context, alert model.Alert) error
}

// Config tunes the detector's thresholds; zero values fall back to §4.4's
// defaults.
type Config struct {
	Alpha            float64
	MinSamples       int64
	Cooldown         time.Duration
	SpikeThreshold   float64
	VolumeMultiplier float64
	SpreadMultiplier float64
}

func (c *Config) setDefaults() {
	if c.Alpha <= 0 {
		c.Alpha = defaultAlpha
	}
	if c.MinSamples <= 0 {
		c.MinSamples = defaultMinSamples
	}
	if c.Cooldown <= 0 {
		c.Cooldown = defaultCooldown
	}
	if c.SpikeThreshold <= 0 {
		c.SpikeThreshold = spikeThreshold
	}
	if c.VolumeMultiplier <= 0 {
		c.VolumeMultiplier = volumeMultiplier
	}
	if c.SpreadMultiplier <= 0 {
		c.SpreadMultiplier = spreadMultiplier
	}
}

// Detector maintains per-symbol statistics and a per-(symbol, alert_type)
// cooldown registry. Running trade and quote monitor loops concurrently
// means stats access must be serialized; a single mutex guards both maps
// since the watchlist is small and contention is not a concern in
// practice (see internal/aggregator for the same tradeoff on the builder
// map).
type Detector struct {
	mu    sync.Mutex
	stats map[string]*symbolStats
	last  map[string]map[model.AlertType]time.Time

	cfg  Config
	sink Sink
}

func New(sink Sink, cfg Config) *Detector {
	cfg.setDefaults()
	return &Detector{
		stats: make(map[string]*symbolStats),
		last:  make(map[string]map[model.AlertType]time.Time),
		cfg:   cfg,
		sink:  sink,
	}
}

func (d *Detector) statsFor(symbol string) *symbolStats {
	st, ok := d.stats[symbol]
	if !ok {
		st = newSymbolStats(d.cfg.Alpha, d.cfg.MinSamples)
		d.stats[symbol] = st
	}
	return st
}

func (d *Detector) inCooldown(symbol string, alertType model.AlertType, now time.Time) bool {
	bySymbol, ok := d.last[symbol]
	if !ok {
		return false
	}
	last, ok := bySymbol[alertType]
	if !ok {
		return false
	}
	return now.Sub(last) < d.cfg.Cooldown
}

func (d *Detector) recordAlert(symbol string, alertType model.AlertType, now time.Time) {
	bySymbol, ok := d.last[symbol]
	if !ok {
		bySymbol = make(map[model.AlertType]time.Time)
		d.last[symbol] = bySymbol
	}
	bySymbol[alertType] = now
}

// OnTrade folds trade into symbol's statistics and, once warmed up, checks
// for a price spike and (failing that) a volume anomaly, per §4.4. At most
// one alert is emitted per trade; price takes precedence over volume.
func (d *Detector) OnTrade(ctx context.Context, trade model.Trade) {
	d.mu.Lock()
	st := d.statsFor(trade.Symbol)

	price, _ := trade.Price.Float64()
	volume := float64(trade.Quantity)

	st.prices.Push(price)
	st.volumes.Push(volume)
	st.tradeCount++

	st.price.Update(price)
	st.volume.Update(volume)

	var alert *model.Alert
	if st.tradeCount >= d.cfg.MinSamples {
		alert = d.checkPriceSpike(trade.Symbol, st, price, trade.Timestamp)
		if alert == nil {
			alert = d.checkVolumeAnomaly(trade.Symbol, st, volume, trade.Timestamp)
		}
	}

	st.lastPrice = price
	st.lastVolume = volume
	st.lastUpdate = trade.Timestamp
	d.mu.Unlock()

	if alert != nil {
		if err := d.sink.PublishAlert(ctx, *alert); err != nil {
			log.Printf("[anomaly] publish alert %s/%s: %v", alert.Symbol, alert.AlertType, err)
		}
	}
}

func (d *Detector) checkPriceSpike(symbol string, st *symbolStats, price float64, now time.Time) *model.Alert {
	if d.inCooldown(symbol, model.AlertPriceSpike, now) {
		return nil
	}
	z := st.price.ZScore(price)
	if z < d.cfg.SpikeThreshold {
		return nil
	}
	ema := st.price.Mean()
	pctChange := 0.0
	if ema != 0 {
		pctChange = (price - ema) / ema * 100
	}
	severity := severityForZScore(z)
	d.recordAlert(symbol, model.AlertPriceSpike, now)
	return &model.Alert{
		AlertID:   fmt.Sprintf("%s-price-%d", symbol, now.UnixNano()),
		AlertType: model.AlertPriceSpike,
		Symbol:    symbol,
		Severity:  severity,
		Message:   fmt.Sprintf("%s price %.4f deviates %.2f sigma from EMA %.4f", symbol, price, z, ema),
		Details: map[string]any{
			"z_score":    z,
			"ema":        ema,
			"pct_change": pctChange,
		},
		Timestamp: now,
	}
}

func (d *Detector) checkVolumeAnomaly(symbol string, st *symbolStats, volume float64, now time.Time) *model.Alert {
	if d.inCooldown(symbol, model.AlertVolumeAnomaly, now) {
		return nil
	}
	volumeEMA := st.volume.Value()
	if volumeEMA == 0 {
		return nil
	}
	ratio := volume / volumeEMA
	if ratio < d.cfg.VolumeMultiplier {
		return nil
	}
	severity := severityForRatio(ratio, 20, 10, 7)
	d.recordAlert(symbol, model.AlertVolumeAnomaly, now)
	return &model.Alert{
		AlertID:   fmt.Sprintf("%s-volume-%d", symbol, now.UnixNano()),
		AlertType: model.AlertVolumeAnomaly,
		Symbol:    symbol,
		Severity:  severity,
		Message:   fmt.Sprintf("%s volume %.0f is %.2fx its EMA %.2f", symbol, volume, ratio, volumeEMA),
		Details: map[string]any{
			"ratio":      ratio,
			"volume_ema": volumeEMA,
		},
		Timestamp: now,
	}
}

// OnQuote folds the spread into symbol's statistics and checks for a
// spread anomaly, per §4.4's quote path.
func (d *Detector) OnQuote(ctx context.Context, quote model.Quote) {
	d.mu.Lock()
	st := d.statsFor(quote.Symbol)

	spread, _ := quote.AskPrice.Sub(quote.BidPrice).Float64()
	st.spreads.Push(spread)
	spreadEMA := st.spread.Update(spread)

	var alert *model.Alert
	if st.spreads.Len() >= int(d.cfg.MinSamples) && spreadEMA > 0 {
		if !d.inCooldown(quote.Symbol, model.AlertSpreadAnomaly, quote.Timestamp) {
			ratio := spread / spreadEMA
			if ratio >= d.cfg.SpreadMultiplier {
				severity := severityForRatio(ratio, 10, 5, 4)
				d.recordAlert(quote.Symbol, model.AlertSpreadAnomaly, quote.Timestamp)
				alert = &model.Alert{
					AlertID:   fmt.Sprintf("%s-spread-%d", quote.Symbol, quote.Timestamp.UnixNano()),
					AlertType: model.AlertSpreadAnomaly,
					Symbol:    quote.Symbol,
					Severity:  severity,
					Message:   fmt.Sprintf("%s spread %.4f is %.2fx its EMA %.4f", quote.Symbol, spread, ratio, spreadEMA),
					Details: map[string]any{
						"ratio":      ratio,
						"spread_ema": spreadEMA,
					},
					Timestamp: quote.Timestamp,
				}
			}
		}
	}
	d.mu.Unlock()

	if alert != nil {
		if err := d.sink.PublishAlert(ctx, *alert); err != nil {
			log.Printf("[anomaly] publish alert %s/%s: %v", alert.Symbol, alert.AlertType, err)
		}
	}
}

func severityForZScore(z float64) model.Severity {
	switch {
	case z >= 5:
		return model.SeverityCritical
	case z >= 4:
		return model.SeverityHigh
	case z >= 3.5:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func severityForRatio(ratio, critical, high, medium float64) model.Severity {
	switch {
	case ratio >= critical:
		return model.SeverityCritical
	case ratio >= high:
		return model.SeverityHigh
	case ratio >= medium:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
