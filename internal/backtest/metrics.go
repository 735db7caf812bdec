package backtest

import "gapfade/internal/domain"

// ComputeMetrics derives aggregate statistics from a completed outcome list
// and its equity curve. It is a pure recomputation: no state is kept and
// calling it twice on the same inputs gives identical results.
func ComputeMetrics(outcomes []domain.TradeOutcome, curve []float64) domain.AggregateMetrics {
	var m domain.AggregateMetrics

	var total, profitSum, lossSum float64
	for _, o := range outcomes {
		total += o.ProfitLoss
		if o.ProfitLoss > 0 {
			m.Wins++
			profitSum += o.ProfitLoss
		} else {
			m.Losses++
			lossSum += o.ProfitLoss
		}
	}

	if n := m.Wins + m.Losses; n > 0 {
		m.ExpectedValue = total / float64(n)
	}

	// Division-by-zero fallback: an all-winner sample reports the win count
	// itself as the ratio.
	if m.Losses > 0 {
		m.WinLossRatio = float64(m.Wins) / float64(m.Losses)
	} else {
		m.WinLossRatio = float64(m.Wins)
	}

	if m.Wins > 0 {
		m.AvgProfit = profitSum / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = lossSum / float64(m.Losses)
	}
	if m.AvgLoss != 0 {
		m.RiskRewardRatio = m.AvgProfit / -m.AvgLoss
	}

	m.MaxDrawdown = maxDrawdown(curve)
	return m
}

// maxDrawdown returns the most negative fractional decline of equity from
// its running peak: min over t of (equity_t - peak_t) / peak_t. It is 0 for
// a non-decreasing curve and always <= 0.
func maxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0]
	worst := 0.0
	for _, e := range curve {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			if dd := (e - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
