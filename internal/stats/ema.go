package stats

import "math"

// EMA tracks a simple exponential moving average: ema <- alpha*x + (1-alpha)*ema,
// seeded with the first sample.
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
}

func NewEMA(alpha float64) *EMA {
	return &EMA{alpha: alpha}
}

// Update folds in a new sample and returns the updated average.
func (e *EMA) Update(x float64) float64 {
	if !e.seeded {
		e.value = x
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

func (e *EMA) Value() float64 {
	return e.value
}

func (e *EMA) Seeded() bool {
	return e.seeded
}

// MeanVariance tracks an EMA mean together with an EMA variance, per
// spec.md's recurrence (`var <- alpha*(x-ema)^2 + (1-alpha)*var`). The naive
// form is downward-biased for the first ~1/alpha samples because it starts
// from var=0; this tracker instead runs an exact Welford online variance
// during warm-up (the first `warmupSamples` updates) and hands off to the
// EMA recurrence once warm-up completes, seeding it from the Welford
// estimate so there is no discontinuity or bias at the switch-over.
type MeanVariance struct {
	alpha         float64
	warmupSamples int64

	count int64
	mean  float64 // EMA mean, always updated via the EMA recurrence
	// variance currently reported to callers
	variance float64

	// Welford accumulator, used only during warm-up
	welfordMean float64
	m2          float64
}

func NewMeanVariance(alpha float64, warmupSamples int64) *MeanVariance {
	if warmupSamples <= 0 {
		warmupSamples = 1
	}
	return &MeanVariance{alpha: alpha, warmupSamples: warmupSamples}
}

// Update folds in a new sample, updating both the EMA mean and the
// (warm-up-corrected) variance estimate.
func (m *MeanVariance) Update(x float64) {
	m.count++
	if m.count == 1 {
		m.mean = x
		m.welfordMean = x
		m.variance = 0
		return
	}

	// EMA mean always follows spec.md's recurrence.
	m.mean = m.alpha*x + (1-m.alpha)*m.mean

	if m.count <= m.warmupSamples {
		delta := x - m.welfordMean
		m.welfordMean += delta / float64(m.count)
		delta2 := x - m.welfordMean
		m.m2 += delta * delta2
		m.variance = m.m2 / float64(m.count)
		return
	}
	m.variance = m.alpha*(x-m.mean)*(x-m.mean) + (1-m.alpha)*m.variance
}

func (m *MeanVariance) Mean() float64 {
	return m.mean
}

func (m *MeanVariance) Variance() float64 {
	if m.variance < 0 {
		return 0
	}
	return m.variance
}

func (m *MeanVariance) StdDev() float64 {
	return math.Sqrt(m.Variance())
}

func (m *MeanVariance) Count() int64 {
	return m.count
}

// ZScore returns the standardized distance of x from the current mean, 0
// when the standard deviation is 0.
func (m *MeanVariance) ZScore(x float64) float64 {
	sd := m.StdDev()
	if sd == 0 {
		return 0
	}
	return math.Abs(x-m.mean) / sd
}
