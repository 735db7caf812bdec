package httpapi

import (
	"gapfade/internal/journal"
	"gapfade/internal/store"
)

// RunsResponse wraps the run listing.
type RunsResponse struct {
	Runs []store.Run `json:"runs"`
}

// TradesResponse wraps the journal trade listing.
type TradesResponse struct {
	Trades []journal.Trade `json:"trades"`
}
