// Package store persists minute-bar days (Parquet) and completed backtest
// runs (SQLite).
package store

import (
	"context"
	"time"

	"gapfade/internal/domain"
)

// BarCache persists fetched minute-bar days so that repeated backtests over
// the same symbols replay from disk instead of the provider.
type BarCache interface {
	// ReadDay returns the cached bars for symbol on date ("2006-01-02"), or
	// an empty slice when the day is not cached.
	ReadDay(ctx context.Context, symbol, date string) ([]domain.Bar, error)

	// WriteDay caches one day's bars for symbol, replacing any previous
	// entry for the same symbol/date.
	WriteDay(ctx context.Context, symbol, date string, bars []domain.Bar) error
}

// Run is a persisted backtest run: its configuration snapshot, summary
// metrics, and the ordered outcome list.
type Run struct {
	ID            int64                   `json:"id"`
	CreatedAt     time.Time               `json:"created_at"`
	Provider      string                  `json:"provider"`
	InitialEquity float64                 `json:"initial_equity"`
	FinalEquity   float64                 `json:"final_equity"`
	Requested     int                     `json:"requested"`
	Skipped       int                     `json:"skipped"`
	Metrics       domain.AggregateMetrics `json:"metrics"`
	Outcomes      []domain.TradeOutcome   `json:"outcomes,omitempty"`
}

// ResultStore persists and retrieves backtest runs.
type ResultStore interface {
	// SaveRun inserts a run with its outcomes and returns the new run ID.
	SaveRun(ctx context.Context, run *Run) (int64, error)

	// GetRun retrieves a run with its outcomes in sequence order. Returns
	// nil when no run with that ID exists.
	GetRun(ctx context.Context, id int64) (*Run, error)

	// ListRuns returns run headers (no outcomes), most recent first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
