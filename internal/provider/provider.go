// Package provider fetches one day's minute bars for a ticker from an
// external market-data source and normalizes them to exchange-local time.
package provider

import (
	"context"

	"gapfade/internal/domain"
)

// BarProvider returns the regular-session minute bars for one ticker on one
// trading day (date "2006-01-02"), time-ordered and stamped in the
// exchange's local timezone. An unavailable symbol/date yields an empty
// slice and nil error; transport failures are returned as errors and mapped
// to "no data" by the caller after its retry budget is spent.
type BarProvider interface {
	Name() string
	MinuteBars(ctx context.Context, ticker, date string) ([]domain.Bar, error)
}
