package domain

import (
	"testing"
	"time"
)

func TestTypicalPrice(t *testing.T) {
	b := Bar{High: 12, Low: 9, Close: 10.5}
	want := (12.0 + 9.0 + 10.5) / 3.0
	if got := b.TypicalPrice(); got != want {
		t.Errorf("TypicalPrice() = %v, want %v", got, want)
	}
}

func TestTradeRequestString(t *testing.T) {
	r := TradeRequest{Ticker: "GME", Date: "2024-03-15"}
	if got := r.String(); got != "GME 2024-03-15" {
		t.Errorf("String() = %q, want %q", got, "GME 2024-03-15")
	}
}

func TestZeroValues(t *testing.T) {
	// Zero-value Bar must be inert: no symbol, no timestamp, zero OHLCV.
	bar := Bar{}
	if bar.Symbol != "" {
		t.Error("expected empty Symbol for zero-value Bar")
	}
	if !bar.Timestamp.IsZero() {
		t.Error("expected zero Timestamp for zero-value Bar")
	}
	if bar.Open != 0 || bar.High != 0 || bar.Low != 0 || bar.Close != 0 || bar.Volume != 0 {
		t.Error("expected zero OHLCV values for zero-value Bar")
	}

	// Exit reason constants are stable wire/DB values.
	if ExitStop != "stop" {
		t.Errorf("ExitStop = %q, want %q", ExitStop, "stop")
	}
	if ExitSessionEnd != "session-end" {
		t.Errorf("ExitSessionEnd = %q, want %q", ExitSessionEnd, "session-end")
	}
}

func TestBarTimestampLocality(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading ET location: %v", err)
	}
	ts := time.Date(2024, 3, 15, 9, 35, 0, 0, loc)
	b := Bar{Timestamp: ts}
	h, m, _ := b.Timestamp.Clock()
	if h != 9 || m != 35 {
		t.Errorf("Clock() = %02d:%02d, want 09:35", h, m)
	}
}
