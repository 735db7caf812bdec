package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"gapfade/internal/domain"
	"gapfade/internal/util"
)

var _ BarProvider = (*PolygonProvider)(nil)

// aggsResponse is the Polygon aggregates payload. Results hold epoch
// milliseconds in "t" and may carry fractional volumes on adjusted data.
type aggsResponse struct {
	Ticker       string    `json:"ticker"`
	ResultsCount int       `json:"resultsCount"`
	Status       string    `json:"status"`
	Results      []aggsBar `json:"results"`
}

type aggsBar struct {
	Timestamp    int64   `json:"t"`
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	VWAP         float64 `json:"vw,omitempty"`
	Transactions int64   `json:"n,omitempty"`
}

// PolygonProvider fetches intraday minute bars from the Polygon aggregates
// API. Polygon returns extended-hours bars too; MinuteBars trims them to
// the regular session.
type PolygonProvider struct {
	client *resty.Client
	log    *slog.Logger
}

// NewPolygonProvider creates a PolygonProvider with the given API key.
// baseURL overrides the default https://api.polygon.io when non-empty.
func NewPolygonProvider(apiKey, baseURL string) *PolygonProvider {
	if baseURL == "" {
		baseURL = "https://api.polygon.io"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetQueryParam("apiKey", apiKey).
		SetTimeout(2 * time.Minute).
		SetRetryCount(0) // retries are the caller's concern

	return &PolygonProvider{
		client: client,
		log:    slog.Default().With("provider", "polygon"),
	}
}

// Name returns the provider identifier.
func (p *PolygonProvider) Name() string { return "polygon" }

// MinuteBars fetches one regular session of minute bars for ticker on date.
func (p *PolygonProvider) MinuteBars(ctx context.Context, ticker, date string) ([]domain.Bar, error) {
	loc := util.ETLocation()
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", date, err)
	}
	sessionOpen := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, loc)
	sessionClose := time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, loc)

	symbol := strings.ToUpper(ticker)
	var out aggsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"ticker": symbol,
			"date":   date,
		}).
		SetQueryParams(map[string]string{
			"adjusted": "true",
			"sort":     "asc",
			"limit":    "50000",
		}).
		SetResult(&out).
		Get("/v2/aggs/ticker/{ticker}/range/1/minute/{date}/{date}")
	if err != nil {
		return nil, fmt.Errorf("aggs %s %s: %w", symbol, date, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("aggs %s %s: status %s", symbol, date, resp.Status())
	}
	if out.Status != "OK" && out.Status != "DELAYED" {
		return nil, fmt.Errorf("aggs %s %s: response status %q", symbol, date, out.Status)
	}

	bars := make([]domain.Bar, 0, len(out.Results))
	for _, r := range out.Results {
		ts := time.UnixMilli(r.Timestamp).In(loc)
		if ts.Before(sessionOpen) || ts.After(sessionClose) {
			continue
		}
		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  ts,
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			Volume:     int64(r.Volume),
			TradeCount: r.Transactions,
			VWAP:       r.VWAP,
		})
	}

	p.log.Debug("fetched minute bars", "symbol", symbol, "date", date, "bars", len(bars))
	return bars, nil
}
