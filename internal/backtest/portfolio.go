// Package backtest runs batches of single-day short simulations, folds the
// outcomes into an equity curve, and derives aggregate performance metrics.
package backtest

import "gapfade/internal/domain"

// Portfolio folds trade outcomes sequentially into a running equity value
// and an append-only equity curve. The fold order is the batch input order
// by contract: drawdown statistics are defined relative to it, and the
// runner never re-sorts requests by date.
type Portfolio struct {
	equity float64
	curve  []float64
}

// NewPortfolio creates a Portfolio with the given starting equity. The
// curve begins with the starting equity before any trade is folded in.
func NewPortfolio(initialEquity float64) *Portfolio {
	return &Portfolio{
		equity: initialEquity,
		curve:  []float64{initialEquity},
	}
}

// Apply folds one outcome into the running equity and appends the new
// equity to the curve.
func (p *Portfolio) Apply(o *domain.TradeOutcome) {
	p.equity += o.ProfitLoss
	p.curve = append(p.curve, p.equity)
}

// Equity returns the current equity value.
func (p *Portfolio) Equity() float64 { return p.equity }

// Curve returns the equity curve accumulated so far. The slice is the
// Portfolio's backing store; callers must not mutate it.
func (p *Portfolio) Curve() []float64 { return p.curve }
