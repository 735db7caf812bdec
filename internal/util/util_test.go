package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("09:35-09:45")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	if w.Start != 9*60+35 || w.End != 9*60+45 {
		t.Errorf("ParseWindow = %+v, want start=575 end=585", w)
	}
	if w.String() != "09:35-09:45" {
		t.Errorf("String() = %q, want %q", w.String(), "09:35-09:45")
	}

	for _, bad := range []string{"", "09:35", "09:35-", "9:75-10:00", "10:00-09:00", "aa:bb-cc:dd"} {
		if _, err := ParseWindow(bad); err == nil {
			t.Errorf("ParseWindow(%q) succeeded, want error", bad)
		}
	}
}

func TestWindowContains(t *testing.T) {
	loc := ETLocation()
	at := func(h, m int) time.Time {
		return time.Date(2024, 3, 15, h, m, 0, 0, loc)
	}

	cases := []struct {
		h, m int
		want bool
	}{
		{9, 34, false}, // one minute before the entry window opens
		{9, 35, true},  // inclusive start
		{9, 44, true},  // last minute inside
		{9, 45, false}, // exclusive end
		{12, 0, false},
	}
	for _, c := range cases {
		if got := EntryWindow.Contains(at(c.h, c.m)); got != c.want {
			t.Errorf("EntryWindow.Contains(%02d:%02d) = %v, want %v", c.h, c.m, got, c.want)
		}
	}

	if !CoverWindow.Contains(at(15, 59)) {
		t.Error("CoverWindow should contain 15:59")
	}
	if CoverWindow.Contains(at(16, 0)) {
		t.Error("CoverWindow should not contain 16:00")
	}
	if !InSession(at(16, 0)) {
		t.Error("InSession should include the 16:00 close minute")
	}
	if InSession(at(9, 29)) {
		t.Error("InSession should exclude pre-market")
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	sentinel := errors.New("still failing")
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Retry error = %v, want wrapped %v", err, sentinel)
	}
}

func TestRetryRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 5, time.Hour, func() error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry error = %v, want context.Canceled", err)
	}
}

func TestRateLimiterFirstTokenImmediate(t *testing.T) {
	rl := NewRateLimiter(60)
	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("first Wait should not block")
	}
}
