// Package anomaly is the streaming anomaly detector: per-symbol EMA
// statistics over trades and quotes drive z-score and ratio-based
// detection, with severity classification and a per-(symbol, alert_type)
// cooldown.
package anomaly

import (
	"time"

	"finstream/internal/stats"
)

const (
	defaultAlpha       = 0.01
	defaultMinSamples  = 100
	defaultCooldown    = 60 * time.Second
	priceRingCapacity  = 1000
	volumeRingCapacity = 1000
	spreadRingCapacity = 500

	spikeThreshold   = 3.0
	volumeMultiplier = 5.0
	spreadMultiplier = 3.0
)

// symbolStats is the detector's per-symbol accumulator, mirroring the
// SymbolStats data model: bounded rings plus EMA mean/variance trackers.
type symbolStats struct {
	prices  *stats.Ring
	volumes *stats.Ring
	spreads *stats.Ring

	price  *stats.MeanVariance
	volume *stats.EMA
	spread *stats.EMA

	lastPrice  float64
	lastVolume float64
	lastUpdate time.Time
	tradeCount int64
}

func newSymbolStats(alpha float64, minSamples int64) *symbolStats {
	return &symbolStats{
		prices:  stats.NewRing(priceRingCapacity),
		volumes: stats.NewRing(volumeRingCapacity),
		spreads: stats.NewRing(spreadRingCapacity),
		price:   stats.NewMeanVariance(alpha, minSamples),
		volume:  stats.NewEMA(alpha),
		spread:  stats.NewEMA(alpha),
	}
}
