package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gapfade/internal/domain"
)

var et = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}()

// syntheticDay builds a full regular session of minute bars: entry-window
// open at entryOpen, flat most of the day, final-minute close at lastClose.
// The price path stays well under the stop and above VWAP until the end, so
// only the initial tranche is on unless lastClose dips under the VWAP.
func syntheticDay(entryOpen, flat, lastClose float64) []domain.Bar {
	var bars []domain.Bar
	for minute := 9*60 + 30; minute < 16*60; minute++ {
		h, m := minute/60, minute%60
		b := domain.Bar{
			Symbol:    "SYN",
			Timestamp: time.Date(2024, 3, 15, h, m, 0, 0, et),
			Open:      flat, High: flat, Low: flat, Close: flat,
			Volume: 1000,
		}
		if h == 9 && m == 35 {
			b.Open = entryOpen
		}
		if h == 15 && m == 59 {
			b.Open, b.High, b.Low, b.Close = lastClose, flat, lastClose, lastClose
		}
		bars = append(bars, b)
	}
	return bars
}

// fakeProvider serves canned days keyed by ticker, with optional per-ticker
// errors and artificial latency to scramble worker completion order.
type fakeProvider struct {
	mu    sync.Mutex
	days  map[string][]domain.Bar
	fail  map[string]error
	sleep map[string]time.Duration
	calls map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		days:  make(map[string][]domain.Bar),
		fail:  make(map[string]error),
		sleep: make(map[string]time.Duration),
		calls: make(map[string]int),
	}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) MinuteBars(_ context.Context, ticker, _ string) ([]domain.Bar, error) {
	f.mu.Lock()
	f.calls[ticker]++
	d := f.sleep[ticker]
	err := f.fail[ticker]
	bars := f.days[ticker]
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if err != nil {
		return nil, err
	}
	return bars, nil
}

func reqs(tickers ...string) []domain.TradeRequest {
	rs := make([]domain.TradeRequest, len(tickers))
	for i, tk := range tickers {
		rs[i] = domain.TradeRequest{Ticker: tk, Date: "2024-03-15"}
	}
	return rs
}

func TestRunPreservesInputOrder(t *testing.T) {
	fp := newFakeProvider()
	// Distinct entry opens so each outcome is identifiable, and the first
	// requests are the slowest so they complete last.
	for i, tk := range []string{"AAA", "BBB", "CCC", "DDD"} {
		open := 10.0 + float64(i)
		fp.days[tk] = syntheticDay(open, open, open-1)
		fp.sleep[tk] = time.Duration(3-i) * 20 * time.Millisecond
	}

	r := NewRunner(fp, Config{MaxWorkers: 4, RetryDelay: time.Millisecond})
	res := r.Run(context.Background(), reqs("AAA", "BBB", "CCC", "DDD"))

	if len(res.Outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(res.Outcomes))
	}
	for i, want := range []string{"AAA", "BBB", "CCC", "DDD"} {
		if res.Outcomes[i].Ticker != want {
			t.Errorf("outcome[%d].Ticker = %s, want %s", i, res.Outcomes[i].Ticker, want)
		}
		if wantEntry := 10.0 + float64(i); res.Outcomes[i].EntryPrice != wantEntry {
			t.Errorf("outcome[%d].EntryPrice = %v, want %v", i, res.Outcomes[i].EntryPrice, wantEntry)
		}
	}

	// The curve must equal a sequential fold over the ordered outcomes.
	if len(res.EquityCurve) != 5 {
		t.Fatalf("curve length = %d, want 5", len(res.EquityCurve))
	}
	e := 20000.0
	for i, o := range res.Outcomes {
		e += o.ProfitLoss
		if res.EquityCurve[i+1] != e {
			t.Errorf("curve[%d] = %v, want %v", i+1, res.EquityCurve[i+1], e)
		}
	}
}

func TestRunSkipsUnusableRequests(t *testing.T) {
	fp := newFakeProvider()
	fp.days["GOOD"] = syntheticDay(10, 10, 9)
	fp.days["EMPTY"] = nil
	fp.fail["DOWN"] = errors.New("connection refused")

	r := NewRunner(fp, Config{MaxWorkers: 2, FetchRetries: 2, RetryDelay: time.Millisecond})
	res := r.Run(context.Background(), reqs("EMPTY", "GOOD", "DOWN"))

	if len(res.Outcomes) != 1 || res.Outcomes[0].Ticker != "GOOD" {
		t.Fatalf("outcomes = %+v, want only GOOD", res.Outcomes)
	}
	if res.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", res.Skipped)
	}
	if res.Requested != 3 {
		t.Errorf("Requested = %d, want 3", res.Requested)
	}

	// The failing fetch is retried up to the budget, then skipped.
	if fp.calls["DOWN"] != 2 {
		t.Errorf("DOWN fetched %d times, want 2", fp.calls["DOWN"])
	}

	// Skipped requests contribute nothing to the curve or the counts.
	if len(res.EquityCurve) != 2 {
		t.Errorf("curve length = %d, want 2", len(res.EquityCurve))
	}
	if n := res.Metrics.Wins + res.Metrics.Losses; n != 1 {
		t.Errorf("wins+losses = %d, want 1", n)
	}
}

func TestRunCancelledReturnsPartial(t *testing.T) {
	fp := newFakeProvider()
	for i := 0; i < 20; i++ {
		tk := fmt.Sprintf("T%02d", i)
		fp.days[tk] = syntheticDay(10, 10, 9)
		fp.sleep[tk] = 5 * time.Millisecond
	}
	var tickers []string
	for i := 0; i < 20; i++ {
		tickers = append(tickers, fmt.Sprintf("T%02d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	var done atomic.Int64
	r := NewRunner(fp, Config{
		MaxWorkers:   1,
		RetryDelay:   time.Millisecond,
		FetchRetries: 1,
		Progress: func(d, _ int) {
			if done.Store(int64(d)); d == 3 {
				cancel()
			}
		},
	})

	res := r.Run(ctx, reqs(tickers...))

	if !res.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if len(res.Outcomes) >= 20 {
		t.Errorf("got %d outcomes, want fewer than 20 after cancellation", len(res.Outcomes))
	}
	if len(res.Outcomes) < 3 {
		t.Errorf("got %d outcomes, want at least the 3 completed before cancel", len(res.Outcomes))
	}
	// Partial results still fold into a valid curve.
	if len(res.EquityCurve) != len(res.Outcomes)+1 {
		t.Errorf("curve length = %d, want %d", len(res.EquityCurve), len(res.Outcomes)+1)
	}
}

func TestRunEmitsProgress(t *testing.T) {
	fp := newFakeProvider()
	fp.days["ONE"] = syntheticDay(10, 10, 9)
	fp.days["TWO"] = nil // skipped requests still count as processed

	var calls atomic.Int64
	var lastTotal atomic.Int64
	r := NewRunner(fp, Config{
		MaxWorkers: 2,
		RetryDelay: time.Millisecond,
		Progress: func(_, total int) {
			calls.Add(1)
			lastTotal.Store(int64(total))
		},
	})
	r.Run(context.Background(), reqs("ONE", "TWO"))

	if calls.Load() != 2 {
		t.Errorf("progress called %d times, want 2", calls.Load())
	}
	if lastTotal.Load() != 2 {
		t.Errorf("progress total = %d, want 2", lastTotal.Load())
	}
}
