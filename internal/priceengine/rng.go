package priceengine

import "math/rand"

// source wraps math/rand.Rand so the engine's RNG draws are centralized and
// the same seed always produces the same tick sequence, per symbol.
type source struct {
	r *rand.Rand
}

func newSource(seed int64) *source {
	return &source{r: rand.New(rand.NewSource(seed))}
}

// normal draws from a standard normal distribution.
func (s *source) normal() float64 {
	return s.r.NormFloat64()
}

// uniform draws from [0, 1).
func (s *source) uniform() float64 {
	return s.r.Float64()
}

// uniformRange draws from [lo, hi).
func (s *source) uniformRange(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}
