package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"gapfade/internal/domain"
	"gapfade/internal/util"
)

var _ BarProvider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches intraday minute bars from the Alpaca market-data
// API, limited to the regular session (09:30-16:00 ET).
type AlpacaProvider struct {
	client *marketdata.Client
	feed   string
	log    *slog.Logger
}

// NewAlpacaProvider creates an AlpacaProvider with the given credentials.
// feed selects the Alpaca data feed ("sip" or "iex"); dataURL overrides the
// default market-data endpoint when non-empty.
func NewAlpacaProvider(apiKey, apiSecret, dataURL, feed string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if feed == "" {
		feed = "sip"
	}

	return &AlpacaProvider{
		client: marketdata.NewClient(opts),
		feed:   feed,
		log:    slog.Default().With("provider", "alpaca"),
	}
}

// Name returns the provider identifier.
func (p *AlpacaProvider) Name() string { return "alpaca" }

// MinuteBars fetches one regular session of minute bars for ticker on date.
func (p *AlpacaProvider) MinuteBars(ctx context.Context, ticker, date string) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	loc := util.ETLocation()
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", date, err)
	}
	sessionOpen := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, loc)
	sessionClose := time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, loc)

	symbol := strings.ToUpper(ticker)
	alpacaBars, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneMin,
		Start:     sessionOpen,
		End:       sessionClose,
		Feed:      marketdata.Feed(p.feed),
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s %s: %w", symbol, date, err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		ts := ab.Timestamp.In(loc)
		if ts.Before(sessionOpen) || ts.After(sessionClose) {
			continue
		}
		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  ts,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}

	p.log.Debug("fetched minute bars", "symbol", symbol, "date", date, "bars", len(bars))
	return bars, nil
}
