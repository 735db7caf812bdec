package journal

import (
	"sort"
	"time"
)

// Summary is the top-line ledger rollup.
type Summary struct {
	StartingBalance float64 `json:"starting_balance"`
	TotalRealized   float64 `json:"total_realized"`
	TotalLocateCost float64 `json:"total_locate_cost"`
	NetPnL          float64 `json:"net_pnl"`
	CurrentBalance  float64 `json:"current_balance"`
	TotalTrades     int     `json:"total_trades"`
	WinRatePct      float64 `json:"win_rate_pct"`
}

// PeriodStats summarizes one calendar week or month of trading.
type PeriodStats struct {
	PeriodStart   string             `json:"period_start"` // "2006-01-02"
	TotalTrades   int                `json:"total_trades"`
	TotalPnL      float64            `json:"total_pnl"`
	PortfolioPct  float64            `json:"portfolio_pct"` // P&L / starting balance * 100
	WinRatePct    float64            `json:"win_rate_pct"`
	AvgWin        float64            `json:"avg_win"`
	AvgLoss       float64            `json:"avg_loss"`
	LargestWin    float64            `json:"largest_win"`
	LargestLoss   float64            `json:"largest_loss"`
	BestDay       string             `json:"best_day"` // weekday with highest avg P&L
	SymbolPnL     map[string]float64 `json:"symbol_pnl"`
	WeekdayAvgPnL map[string]float64 `json:"weekday_avg_pnl"`
}

// DailyPnL is the most recent trading day's result.
type DailyPnL struct {
	Date      string  `json:"date"`
	PnL       float64 `json:"pnl"`
	ReturnPct float64 `json:"return_pct"` // against starting balance
}

// Summarize computes the ledger's top-line numbers. Net P&L subtracts
// locate fees from realized results; a zero-realized trade counts as a
// loss for the win rate.
func (l *Ledger) Summarize() Summary {
	trades := l.Trades()
	locates := l.Locates()
	balance := l.StartingBalance()

	s := Summary{
		StartingBalance: balance,
		TotalTrades:     len(trades),
	}
	wins := 0
	for _, t := range trades {
		s.TotalRealized += t.Realized
		if t.Realized > 0 {
			wins++
		}
	}
	for _, lc := range locates {
		s.TotalLocateCost += lc.TotalCost
	}
	s.NetPnL = s.TotalRealized - s.TotalLocateCost
	s.CurrentBalance = balance + s.NetPnL
	if len(trades) > 0 {
		s.WinRatePct = float64(wins) / float64(len(trades)) * 100
	}
	return s
}

// LatestDailyPnL returns the realized P&L of the most recent trading day in
// the ledger, or nil when the ledger is empty.
func (l *Ledger) LatestDailyPnL() *DailyPnL {
	trades := l.Trades()
	if len(trades) == 0 {
		return nil
	}

	latest := trades[0].Date
	for _, t := range trades {
		if t.Date > latest {
			latest = t.Date
		}
	}

	var pnl float64
	for _, t := range trades {
		if t.Date == latest {
			pnl += t.Realized
		}
	}

	balance := l.StartingBalance()
	out := &DailyPnL{Date: latest, PnL: pnl}
	if balance != 0 {
		out.ReturnPct = pnl / balance * 100
	}
	return out
}

// WeeklyStats summarizes the calendar week (Monday through Sunday)
// containing day ("2006-01-02"). Returns nil when the week has no trades
// or the date is malformed.
func (l *Ledger) WeeklyStats(day string) *PeriodStats {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil
	}
	offset := (int(d.Weekday()) + 6) % 7 // days since Monday
	start := d.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)
	return l.periodStats(start, end)
}

// MonthlyStats summarizes the calendar month containing day ("2006-01-02").
// Returns nil when the month has no trades or the date is malformed.
func (l *Ledger) MonthlyStats(day string) *PeriodStats {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil
	}
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return l.periodStats(start, end)
}

func (l *Ledger) periodStats(start, end time.Time) *PeriodStats {
	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")

	var inPeriod []Trade
	for _, t := range l.Trades() {
		if t.Date >= startStr && t.Date <= endStr {
			inPeriod = append(inPeriod, t)
		}
	}
	if len(inPeriod) == 0 {
		return nil
	}

	stats := &PeriodStats{
		PeriodStart:   startStr,
		TotalTrades:   len(inPeriod),
		SymbolPnL:     make(map[string]float64),
		WeekdayAvgPnL: make(map[string]float64),
	}

	var (
		winSum, lossSum float64
		wins, losses    int
		daySum          = make(map[string]float64)
		dayCount        = make(map[string]int)
	)
	for _, t := range inPeriod {
		stats.TotalPnL += t.Realized
		stats.SymbolPnL[t.Symbol] += t.Realized

		if t.Realized > 0 {
			wins++
			winSum += t.Realized
			if t.Realized > stats.LargestWin {
				stats.LargestWin = t.Realized
			}
		} else {
			losses++
			lossSum += t.Realized
			if t.Realized < stats.LargestLoss {
				stats.LargestLoss = t.Realized
			}
		}

		if d, err := time.Parse("2006-01-02", t.Date); err == nil {
			name := d.Weekday().String()
			daySum[name] += t.Realized
			dayCount[name]++
		}
	}

	balance := l.StartingBalance()
	if balance != 0 {
		stats.PortfolioPct = stats.TotalPnL / balance * 100
	}
	stats.WinRatePct = float64(wins) / float64(len(inPeriod)) * 100
	if wins > 0 {
		stats.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		stats.AvgLoss = lossSum / float64(losses)
	}

	// Best weekday by average P&L, ties broken by name for determinism.
	names := make([]string, 0, len(daySum))
	for name := range daySum {
		stats.WeekdayAvgPnL[name] = daySum[name] / float64(dayCount[name])
		names = append(names, name)
	}
	sort.Strings(names)
	best := ""
	for _, name := range names {
		if best == "" || stats.WeekdayAvgPnL[name] > stats.WeekdayAvgPnL[best] {
			best = name
		}
	}
	stats.BestDay = best

	return stats
}
