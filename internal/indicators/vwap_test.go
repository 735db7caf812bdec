package indicators

import (
	"testing"
	"time"

	"gapfade/internal/domain"
)

func bar(minuteOffset int, h, l, c float64, vol int64) domain.Bar {
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	return domain.Bar{
		Timestamp: base.Add(time.Duration(minuteOffset) * time.Minute),
		Open:      c, High: h, Low: l, Close: c,
		Volume: vol,
	}
}

func TestCumulativeVWAPKnownValues(t *testing.T) {
	// typical prices: 10, 20; volumes: 100, 300.
	bars := []domain.Bar{
		bar(0, 10, 10, 10, 100),
		bar(1, 20, 20, 20, 300),
	}
	got := CumulativeVWAP(bars)

	if got[0] != 10 {
		t.Errorf("vwap[0] = %v, want 10", got[0])
	}
	// (10*100 + 20*300) / 400 = 17.5
	if got[1] != 17.5 {
		t.Errorf("vwap[1] = %v, want 17.5", got[1])
	}
}

func TestCumulativeVWAPZeroVolumePrefix(t *testing.T) {
	bars := []domain.Bar{
		bar(0, 10, 10, 10, 0),
		bar(1, 10, 10, 10, 0),
		bar(2, 12, 12, 12, 50),
		bar(3, 12, 12, 12, 0), // zero volume after the first trade keeps VWAP defined
	}
	got := CumulativeVWAP(bars)

	if Defined(got[0]) || Defined(got[1]) {
		t.Error("VWAP must be undefined while cumulative volume is zero")
	}
	if !Defined(got[2]) || got[2] != 12 {
		t.Errorf("vwap[2] = %v, want 12", got[2])
	}
	if !Defined(got[3]) || got[3] != 12 {
		t.Errorf("vwap[3] = %v, want 12 (carried forward)", got[3])
	}
}

func TestCumulativeVWAPCausality(t *testing.T) {
	bars := []domain.Bar{
		bar(0, 10, 8, 9, 100),
		bar(1, 11, 9, 10, 200),
		bar(2, 15, 11, 14, 500),
	}

	full := CumulativeVWAP(bars)
	prefix := CumulativeVWAP(bars[:2])

	// vwap at bar i must not change when later bars are appended.
	for i := range prefix {
		if full[i] != prefix[i] {
			t.Errorf("vwap[%d] changed from %v to %v when a later bar was added", i, prefix[i], full[i])
		}
	}
}

func TestCumulativeVWAPEmpty(t *testing.T) {
	if got := CumulativeVWAP(nil); len(got) != 0 {
		t.Errorf("CumulativeVWAP(nil) returned %d entries, want 0", len(got))
	}
}
