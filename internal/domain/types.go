// Package domain defines the core types shared across the gapfade platform:
// market data bars, backtest requests and outcomes, and aggregate metrics.
package domain

import (
	"fmt"
	"time"
)

// Bar is a single OHLCV bar. Timestamp is exchange-local (America/New_York
// for US equities) at minute resolution for intraday data.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64 // provider-supplied per-bar VWAP, if the feed has one
}

// TypicalPrice returns (high + low + close) / 3, the price proxy used for
// the session VWAP.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3.0
}

// TradeRequest identifies one simulation unit: a single ticker on a single
// trading day. Date is formatted "2006-01-02". Requests are immutable once
// issued; the batch runner processes them strictly in the given order.
type TradeRequest struct {
	Ticker string
	Date   string
}

// String returns "TICKER 2006-01-02", used in logs and progress output.
func (r TradeRequest) String() string {
	return fmt.Sprintf("%s %s", r.Ticker, r.Date)
}

// ExitReason records how a simulated short position was unwound.
type ExitReason string

const (
	// ExitStop means the protective stop above entry was touched and the
	// position was covered at the stop price.
	ExitStop ExitReason = "stop"

	// ExitSessionEnd means the position survived to the final minute of the
	// regular session and was covered at that bar's close.
	ExitSessionEnd ExitReason = "session-end"
)

// TradeOutcome is the result of replaying one trading day for one ticker.
// Absence of an outcome (unusable data, no entry bar, incomplete day) is
// expressed as a nil *TradeOutcome, never as a zero-P&L outcome.
type TradeOutcome struct {
	Ticker     string     `json:"ticker"`
	Date       string     `json:"date"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	ReturnPct  float64    `json:"return_pct"`  // (entry - exit) / entry * 100; positive for a winning short
	ProfitLoss float64    `json:"profit_loss"` // currency; fixed -risk budget on a stop exit
	Shares     float64    `json:"shares"`      // total shares actually shorted across tranches
	ExitReason ExitReason `json:"exit_reason"`
}

// AggregateMetrics summarizes a completed batch run. It is derived from the
// full outcome list and equity curve and carries no persisted identity.
type AggregateMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`      // fractional decline from running equity peak, <= 0
	ExpectedValue   float64 `json:"expected_value"`    // mean P&L per trade
	WinLossRatio    float64 `json:"win_loss_ratio"`    // wins/losses, or wins when losses == 0
	RiskRewardRatio float64 `json:"risk_reward_ratio"` // avgProfit / |avgLoss|, 0 when avgLoss == 0
	AvgProfit       float64 `json:"avg_profit"`        // mean P&L of winning trades, 0 if none
	AvgLoss         float64 `json:"avg_loss"`          // mean P&L of losing trades, 0 if none
	Wins            int     `json:"wins"`              // outcomes with ProfitLoss > 0
	Losses          int     `json:"losses"`            // outcomes with ProfitLoss <= 0
}
