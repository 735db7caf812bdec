// Package indicators computes derived series over ordered intraday bars.
package indicators

import (
	"math"

	"gapfade/internal/domain"
)

// CumulativeVWAP computes the running session VWAP over a time-ordered bar
// series in a single forward pass:
//
//	vwap[i] = sum(typical[0..i] * volume[0..i]) / sum(volume[0..i])
//
// where typical = (high+low+close)/3. The value at index i depends only on
// bars 0..i, so the series is safe to trade against bar-by-bar.
//
// Entries before the first nonzero-volume bar have no defined VWAP and are
// returned as NaN; use Defined to test them. Once cumulative volume is
// positive the VWAP stays defined for every later bar.
func CumulativeVWAP(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	var cumVolume, cumDollarVolume float64

	for i, b := range bars {
		v := float64(b.Volume)
		cumVolume += v
		cumDollarVolume += b.TypicalPrice() * v

		if cumVolume == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cumDollarVolume / cumVolume
	}
	return out
}

// Defined reports whether a VWAP entry carries a value. Entries are
// undefined while the session's cumulative volume is zero.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
