// Package sim replays one trading day's minute bars against the opening-fade
// short rule and produces at most one trade outcome.
//
// The rule, unchanged from the original dashboard: short 30% of the intended
// size at the open of the first bar inside the entry window, short the
// remaining 70% on the first close below the session VWAP, cover everything
// at the stop (1.15x entry) or at the close of the final session minute.
package sim

import (
	"gapfade/internal/domain"
	"gapfade/internal/indicators"
	"gapfade/internal/util"
)

// State enumerates the phases of the day replay. The machine only ever moves
// forward: AwaitingEntry -> Monitoring -> one of the terminal states.
type State int

const (
	// StateAwaitingEntry scans for the first bar inside the entry window.
	StateAwaitingEntry State = iota

	// StateMonitoring holds an open short and watches for the second-tranche
	// signal, the stop, and the session close.
	StateMonitoring

	// StateClosedStop is terminal: the stop was touched and the position was
	// covered at the stop price.
	StateClosedStop

	// StateClosedSession is terminal: the position was covered at the close
	// of the final session minute.
	StateClosedSession

	// StateNoOutcome is terminal: the day produced no trade (no entry bar,
	// no closing bar, or degenerate prices).
	StateNoOutcome
)

// String returns the state name for logs and test failures.
func (s State) String() string {
	switch s {
	case StateAwaitingEntry:
		return "awaiting-entry"
	case StateMonitoring:
		return "monitoring"
	case StateClosedStop:
		return "closed-stop"
	case StateClosedSession:
		return "closed-session"
	case StateNoOutcome:
		return "no-outcome"
	default:
		return "unknown"
	}
}

// Params are the strategy constants. DefaultParams matches the original
// rule; the backtest config can override any of them.
type Params struct {
	RiskBudget     float64     // currency lost exactly when the stop is hit
	StopMultiple   float64     // stop price as a multiple of entry (above it; this is a short)
	InitialTranche float64     // fraction of total size shorted at entry
	EntryWindow    util.Window // first bar here is the entry bar
	CoverWindow    util.Window // last bar here is the session-end cover bar
}

// DefaultParams returns the original rule's constants: $6000 risk budget,
// stop at 1.15x entry, 30% opening tranche, entry [09:35,09:45), cover in
// the 15:59 minute.
func DefaultParams() Params {
	return Params{
		RiskBudget:     6000,
		StopMultiple:   1.15,
		InitialTranche: 0.3,
		EntryWindow:    util.EntryWindow,
		CoverWindow:    util.CoverWindow,
	}
}

// Machine is the explicit state machine for a single ticker/date replay.
// Feed it bars in timestamp order via Step, then call Finish.
type Machine struct {
	ticker string
	date   string
	params Params

	state State

	entryPrice   float64
	stopPrice    float64
	riskPerShare float64
	totalShares  float64
	shares       float64 // shares actually shorted so far
	secondFired  bool

	coverBar    domain.Bar // last bar seen inside the cover window
	hasCoverBar bool

	outcome *domain.TradeOutcome
}

// NewMachine creates a Machine in StateAwaitingEntry.
func NewMachine(ticker, date string, params Params) *Machine {
	return &Machine{
		ticker: ticker,
		date:   date,
		params: params,
		state:  StateAwaitingEntry,
	}
}

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// Step advances the machine with the next bar and its session VWAP. Bars
// must arrive in strictly increasing timestamp order. Calls after a
// terminal state are no-ops.
func (m *Machine) Step(b domain.Bar, vwap float64) {
	if m.state == StateClosedStop || m.state == StateClosedSession || m.state == StateNoOutcome {
		return
	}

	// Bars past the regular session never participate.
	if util.MinuteOfDay(b.Timestamp) > util.SessionEnd {
		return
	}

	if m.state == StateAwaitingEntry {
		if !m.params.EntryWindow.Contains(b.Timestamp) {
			// Past the window with no entry bar: the day is a non-event.
			if util.MinuteOfDay(b.Timestamp) >= m.params.EntryWindow.End {
				m.state = StateNoOutcome
			}
			return
		}
		m.enter(b)
		if m.state != StateMonitoring {
			return
		}
		// The entry bar is itself monitored: a same-bar VWAP cross or stop
		// touch counts.
	}

	m.monitor(b, vwap)
}

// enter opens the initial tranche at the entry bar's open and sizes the
// position off the fixed risk budget.
func (m *Machine) enter(b domain.Bar) {
	entry := b.Open
	stop := entry * m.params.StopMultiple
	riskPerShare := stop - entry

	// Degenerate prices (stop not above entry) are treated as unusable data,
	// not as an error.
	if entry <= 0 || riskPerShare <= 0 {
		m.state = StateNoOutcome
		return
	}

	m.entryPrice = entry
	m.stopPrice = stop
	m.riskPerShare = riskPerShare
	m.totalShares = m.params.RiskBudget / riskPerShare
	m.shares = m.params.InitialTranche * m.totalShares
	m.state = StateMonitoring
}

// monitor applies the second-tranche signal and the stop to one bar, and
// remembers the session-end cover bar.
func (m *Machine) monitor(b domain.Bar, vwap float64) {
	// Second tranche: first close under the session VWAP, at most once.
	if !m.secondFired && indicators.Defined(vwap) && b.Close < vwap {
		m.shares += (1 - m.params.InitialTranche) * m.totalShares
		m.secondFired = true
	}

	// Stop: any touch of the stop price covers the whole position at the
	// stop, losing exactly the risk budget regardless of shares on.
	if b.High >= m.stopPrice {
		m.outcome = &domain.TradeOutcome{
			Ticker:     m.ticker,
			Date:       m.date,
			EntryPrice: m.entryPrice,
			ExitPrice:  m.stopPrice,
			ReturnPct:  (m.entryPrice - m.stopPrice) / m.entryPrice * 100,
			ProfitLoss: -m.params.RiskBudget,
			Shares:     m.shares,
			ExitReason: domain.ExitStop,
		}
		m.state = StateClosedStop
		return
	}

	if m.params.CoverWindow.Contains(b.Timestamp) {
		m.coverBar = b
		m.hasCoverBar = true
	}
}

// Finish terminates the replay after the last bar and returns the outcome,
// or nil when the day produced none. A position still open without a bar in
// the cover window is an incomplete day and yields no outcome.
func (m *Machine) Finish() *domain.TradeOutcome {
	switch m.state {
	case StateClosedStop:
		return m.outcome

	case StateMonitoring:
		if !m.hasCoverBar {
			m.state = StateNoOutcome
			return nil
		}
		exit := m.coverBar.Close
		m.outcome = &domain.TradeOutcome{
			Ticker:     m.ticker,
			Date:       m.date,
			EntryPrice: m.entryPrice,
			ExitPrice:  exit,
			ReturnPct:  (m.entryPrice - exit) / m.entryPrice * 100,
			ProfitLoss: m.shares * (m.entryPrice - exit),
			Shares:     m.shares,
			ExitReason: domain.ExitSessionEnd,
		}
		m.state = StateClosedSession
		return m.outcome

	case StateClosedSession:
		return m.outcome

	default:
		m.state = StateNoOutcome
		return nil
	}
}

// Evaluate replays a full day in one call: it computes the session VWAP,
// drives a Machine over every bar, and returns the outcome (nil when the
// day is unusable). The bar series must be time-ordered and exchange-local.
func Evaluate(ticker, date string, bars []domain.Bar, params Params) *domain.TradeOutcome {
	if len(bars) == 0 {
		return nil
	}

	vwap := indicators.CumulativeVWAP(bars)
	m := NewMachine(ticker, date, params)
	for i, b := range bars {
		m.Step(b, vwap[i])
	}
	return m.Finish()
}
