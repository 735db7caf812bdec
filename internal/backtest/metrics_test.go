package backtest

import (
	"math"
	"testing"

	"gapfade/internal/domain"
)

func outcomesFromPnl(pnls ...float64) []domain.TradeOutcome {
	out := make([]domain.TradeOutcome, len(pnls))
	for i, p := range pnls {
		out[i] = domain.TradeOutcome{Ticker: "T", Date: "2024-01-02", ProfitLoss: p}
	}
	return out
}

func curveFromPnl(initial float64, pnls ...float64) []float64 {
	curve := []float64{initial}
	e := initial
	for _, p := range pnls {
		e += p
		curve = append(curve, e)
	}
	return curve
}

func TestComputeMetricsBasic(t *testing.T) {
	outs := outcomesFromPnl(1000, -500, 2000, -500)
	curve := curveFromPnl(20000, 1000, -500, 2000, -500)

	m := ComputeMetrics(outs, curve)

	if m.Wins != 2 || m.Losses != 2 {
		t.Errorf("wins/losses = %d/%d, want 2/2", m.Wins, m.Losses)
	}
	if m.ExpectedValue != 500 {
		t.Errorf("ExpectedValue = %v, want 500", m.ExpectedValue)
	}
	if m.WinLossRatio != 1 {
		t.Errorf("WinLossRatio = %v, want 1", m.WinLossRatio)
	}
	if m.AvgProfit != 1500 {
		t.Errorf("AvgProfit = %v, want 1500", m.AvgProfit)
	}
	if m.AvgLoss != -500 {
		t.Errorf("AvgLoss = %v, want -500", m.AvgLoss)
	}
	if m.RiskRewardRatio != 3 {
		t.Errorf("RiskRewardRatio = %v, want 3", m.RiskRewardRatio)
	}
}

func TestComputeMetricsWinLossRatioFallback(t *testing.T) {
	// 3 wins, 0 losses: the ratio falls back to the win count.
	outs := outcomesFromPnl(100, 200, 300)
	m := ComputeMetrics(outs, curveFromPnl(20000, 100, 200, 300))

	if m.Losses != 0 {
		t.Fatalf("Losses = %d, want 0", m.Losses)
	}
	if m.WinLossRatio != 3 {
		t.Errorf("WinLossRatio = %v, want 3", m.WinLossRatio)
	}
	if m.RiskRewardRatio != 0 {
		t.Errorf("RiskRewardRatio = %v, want 0 with no losses", m.RiskRewardRatio)
	}
}

func TestComputeMetricsZeroPnlIsLoss(t *testing.T) {
	// ProfitLoss == 0 counts as a loss by convention.
	m := ComputeMetrics(outcomesFromPnl(0), curveFromPnl(20000, 0))
	if m.Wins != 0 || m.Losses != 1 {
		t.Errorf("wins/losses = %d/%d, want 0/1", m.Wins, m.Losses)
	}
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(nil, []float64{20000})
	if m.ExpectedValue != 0 || m.Wins != 0 || m.Losses != 0 || m.MaxDrawdown != 0 {
		t.Errorf("empty metrics = %+v, want zeros", m)
	}
}

func TestMaxDrawdownProperties(t *testing.T) {
	cases := []struct {
		name  string
		curve []float64
		want  float64
	}{
		{"non-decreasing is zero", []float64{100, 100, 150, 200}, 0},
		{"single dip", []float64{100, 80, 120}, -0.2},
		{"dip from later peak", []float64{100, 200, 150, 180}, -0.25},
		{"monotone decline", []float64{100, 90, 50}, -0.5},
		{"empty", nil, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := maxDrawdown(c.curve)
			if math.Abs(got-c.want) > 1e-12 {
				t.Errorf("maxDrawdown(%v) = %v, want %v", c.curve, got, c.want)
			}
			if got > 0 {
				t.Errorf("maxDrawdown must never be positive, got %v", got)
			}
		})
	}
}

func TestPortfolioFold(t *testing.T) {
	p := NewPortfolio(20000)

	if got := p.Curve(); len(got) != 1 || got[0] != 20000 {
		t.Fatalf("initial curve = %v, want [20000]", got)
	}

	p.Apply(&domain.TradeOutcome{ProfitLoss: 1500})
	p.Apply(&domain.TradeOutcome{ProfitLoss: -6000})

	if p.Equity() != 15500 {
		t.Errorf("Equity = %v, want 15500", p.Equity())
	}
	want := []float64{20000, 21500, 15500}
	got := p.Curve()
	if len(got) != len(want) {
		t.Fatalf("curve length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("curve[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
