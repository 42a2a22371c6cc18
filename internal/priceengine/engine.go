// Package priceengine simulates a synthetic market: one geometric Brownian
// motion generator per configured symbol, with mean-reverting volatility and
// a consistent bid/ask/book model, emitting Trade and Quote events.
package priceengine

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/shopspring/decimal"

	"finstream/internal/model"
)

const (
	kappa          = 0.1
	sigmaNoiseStd  = 0.001
	sigmaMin       = 0.05
	sigmaMax       = 1.0
	paretoShape    = 1.5
	paretoMin      = 1
	paretoMax      = 10000
	lotSize        = 100
	buyPressureMin = 0.3
	buyPressureMax = 0.7
)

// dt is one simulated trading second, expressed as a fraction of a trading
// year (252 sessions of 6.5 hours).
var dt = 1.0 / (252.0 * 6.5 * 3600.0)

// symbolState is the engine's private mutable state for one symbol,
// layered on top of the public, wire-adjacent model.PriceState.
type symbolState struct {
	cfg         model.SymbolConfig
	state       model.PriceState
	sigma       float64
	buyPressure float64
	rng         *source
}

// Engine advances GBM price state for a fixed watchlist of symbols and
// turns ticks into Trade/Quote events.
type Engine struct {
	symbols []string
	states  map[string]*symbolState
}

// New builds an engine for the given symbol configs, deterministically
// seeded from baseSeed. Each symbol gets its own RNG substream derived from
// baseSeed and the symbol name, so adding or removing a symbol never
// perturbs another symbol's sequence.
func New(configs []model.SymbolConfig, baseSeed int64) *Engine {
	e := &Engine{states: make(map[string]*symbolState, len(configs))}
	for _, cfg := range configs {
		st := &symbolState{
			cfg:         cfg,
			sigma:       cfg.Volatility,
			buyPressure: 0.5,
			rng:         newSource(baseSeed ^ symbolSeed(cfg.Symbol)),
		}
		st.state = model.PriceState{
			Symbol:      cfg.Symbol,
			Price:       cfg.InitialPrice,
			Sigma:       cfg.Volatility,
			High:        cfg.InitialPrice,
			Low:         cfg.InitialPrice,
			BidSizes:    make([]int64, cfg.BidLevels),
			AskSizes:    make([]int64, cfg.AskLevels),
			BuyPressure: 0.5,
		}
		e.states[cfg.Symbol] = st
		e.symbols = append(e.symbols, cfg.Symbol)
	}
	return e
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64())
}

// Symbols returns the watchlist in configuration order.
func (e *Engine) Symbols() []string {
	return e.symbols
}

// State returns a snapshot of the current PriceState for a symbol.
func (e *Engine) State(symbol string) (model.PriceState, bool) {
	st, ok := e.states[symbol]
	if !ok {
		return model.PriceState{}, false
	}
	return st.state, true
}

// SetRegime overrides a symbol's long-run volatility target and drift,
// taking effect from the next Tick's mean-reversion step onward. Used by
// internal/regime to apply operator-configured regime changes without
// restarting the engine.
func (e *Engine) SetRegime(symbol string, volatility, drift float64) bool {
	st, ok := e.states[symbol]
	if !ok {
		return false
	}
	st.cfg.Volatility = volatility
	st.cfg.Drift = drift
	return true
}

// Tick advances one symbol's GBM state by one Δt step: volatility
// mean-reversion, the log-normal price step, spread/book generation, and
// rolling high/low bookkeeping. It does not emit trades; call Trades after
// Tick to draw the batch of trade prints for this step.
func (e *Engine) Tick(symbol string) error {
	st, ok := e.states[symbol]
	if !ok {
		return fmt.Errorf("priceengine: unknown symbol %q", symbol)
	}
	st.stepVolatility()
	st.stepPrice()
	st.stepBook()
	return nil
}

func (st *symbolState) stepVolatility() {
	eps := st.rng.normal() * sigmaNoiseStd
	sigma := st.sigma + kappa*(st.cfg.Volatility-st.sigma) + eps
	if sigma < sigmaMin {
		sigma = sigmaMin
	}
	if sigma > sigmaMax {
		sigma = sigmaMax
	}
	st.sigma = sigma
	st.state.Sigma = sigma
}

func (st *symbolState) stepPrice() {
	price, _ := st.state.Price.Float64()
	mu := st.cfg.Drift
	sigma := st.sigma
	dW := st.rng.normal()

	drift := mu*dt - 0.5*sigma*sigma*dt
	diffusion := sigma * math.Sqrt(dt) * dW
	next := price * math.Exp(drift+diffusion)

	tick := st.cfg.TickSize
	nextDec := decimal.NewFromFloat(next)
	if nextDec.LessThan(tick) {
		nextDec = tick
	}
	nextDec = roundToTick(nextDec, tick)

	st.state.Price = nextDec
	if st.state.High.IsZero() || nextDec.GreaterThan(st.state.High) {
		st.state.High = nextDec
	}
	if st.state.Low.IsZero() || nextDec.LessThan(st.state.Low) {
		st.state.Low = nextDec
	}
}

func (st *symbolState) stepBook() {
	tick := st.cfg.TickSize
	price, _ := st.state.Price.Float64()
	sigmaComponent := 0.0001 * price * st.sigma
	spreadFloat := 2*tickFloat(tick) + sigmaComponent + st.rng.uniformRange(0, tickFloat(tick))
	spread := decimal.NewFromFloat(spreadFloat)

	half := spread.Div(decimal.NewFromInt(2))
	bid := roundToTick(st.state.Price.Sub(half), tick)
	ask := roundToTick(st.state.Price.Add(half), tick)
	if ask.Sub(bid).LessThan(tick) {
		ask = bid.Add(tick)
	}

	st.state.BidPrice = bid
	st.state.AskPrice = ask
	st.state.Spread = ask.Sub(bid)

	for i := range st.state.BidSizes {
		st.state.BidSizes[i] = perturbSize(st.rng, st.cfg.LevelDepth)
	}
	for i := range st.state.AskSizes {
		st.state.AskSizes[i] = perturbSize(st.rng, st.cfg.LevelDepth)
	}
}

func perturbSize(rng *source, base int64) int64 {
	delta := int64(rng.uniformRange(-100, 100))
	size := base + delta
	if size < 100 {
		size = 100
	}
	return size
}

func tickFloat(tick decimal.Decimal) float64 {
	f, _ := tick.Float64()
	return f
}

// roundToTick rounds price to the nearest multiple of tick using half-up
// rounding, matching the test suite's convention.
func roundToTick(price, tick decimal.Decimal) decimal.Decimal {
	if tick.IsZero() {
		return price
	}
	units := price.DivRound(tick, 8).Round(0)
	return units.Mul(tick)
}
