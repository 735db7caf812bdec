// Command gapfade-backtest replays the opening-fade short rule over a CSV of
// ticker/date requests, prints the outcome table, and persists the run.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"

	"gapfade/internal/backtest"
	"gapfade/internal/config"
	"gapfade/internal/domain"
	"gapfade/internal/provider"
	"gapfade/internal/sim"
	"gapfade/internal/store"
	"gapfade/internal/util"
)

func main() {
	input := flag.String("input", "", "CSV of requests, one ticker,YYYY-MM-DD per line (required)")
	providerName := flag.String("provider", "", "bar provider: alpaca or polygon (default from config)")
	workers := flag.Int("workers", 0, "fan-out width (default from config)")
	noSave := flag.Bool("no-save", false, "skip persisting the run to the results database")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfgPath := "config/gapfade.yaml"
	if p := os.Getenv("GAPFADE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	requests, err := readRequests(*input)
	if err != nil {
		log.Fatalf("reading requests: %v", err)
	}
	if len(requests) == 0 {
		log.Fatalf("no requests in %s", *input)
	}

	if *providerName != "" {
		cfg.Backtest.Provider = *providerName
	}
	if *workers > 0 {
		cfg.Backtest.MaxWorkers = *workers
	}

	src, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("building provider: %v", err)
	}

	entryWindow, err := util.ParseWindow(cfg.Backtest.EntryWindow)
	if err != nil {
		log.Fatalf("invalid entry window: %v", err)
	}

	runner := backtest.NewRunner(src, backtest.Config{
		Params: sim.Params{
			RiskBudget:     cfg.Backtest.RiskBudget,
			StopMultiple:   cfg.Backtest.StopMultiple,
			InitialTranche: cfg.Backtest.InitialTranche,
			EntryWindow:    entryWindow,
			CoverWindow:    util.CoverWindow,
		},
		InitialEquity: cfg.Backtest.InitialEquity,
		MaxWorkers:    cfg.Backtest.MaxWorkers,
		FetchRetries:  cfg.Backtest.FetchRetries,
		Progress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rprocessed %d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result := runner.Run(ctx, requests)
	if result.Cancelled {
		fmt.Fprintln(os.Stderr, "\ninterrupted, partial results follow")
	}

	printOutcomes(os.Stdout, result)
	printSummary(os.Stdout, cfg.Backtest.InitialEquity, result)

	if !*noSave && !result.Cancelled {
		id, err := saveRun(ctx, cfg, result)
		if err != nil {
			log.Fatalf("saving run: %v", err)
		}
		fmt.Printf("\nsaved as run %d in %s\n", id, cfg.Storage.SQLitePath)
	}
}

// readRequests parses the input CSV. Blank lines and lines starting with #
// are skipped; a header line "ticker,date" is tolerated.
func readRequests(path string) ([]domain.TradeRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	r.Comment = '#'
	r.TrimLeadingSpace = true

	var requests []domain.TradeRequest
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ticker := strings.ToUpper(strings.TrimSpace(rec[0]))
		date := strings.TrimSpace(rec[1])
		if strings.EqualFold(ticker, "ticker") {
			continue
		}
		requests = append(requests, domain.TradeRequest{Ticker: ticker, Date: date})
	}
	return requests, nil
}

// buildProvider assembles the configured bar source: vendor client, rate
// limit, then the parquet read-through cache on the outside so cache hits
// skip the limiter.
func buildProvider(cfg *config.Config) (provider.BarProvider, error) {
	var src provider.BarProvider
	switch cfg.Backtest.Provider {
	case "alpaca":
		src = provider.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.Feed)
	case "polygon":
		src = provider.NewPolygonProvider(cfg.Polygon.APIKey, cfg.Polygon.BaseURL)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Backtest.Provider)
	}

	if cfg.Backtest.RateLimitPerMin > 0 {
		src = provider.NewRateLimitedProvider(src, cfg.Backtest.RateLimitPerMin)
	}
	cache := store.NewParquetCache(cfg.Storage.DataDir)
	return provider.NewCachedProvider(src, cache), nil
}

func printOutcomes(w io.Writer, result *backtest.BatchResult) {
	if len(result.Outcomes) == 0 {
		fmt.Fprintln(w, "no trades")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Ticker", "Date", "Entry", "Exit", "Shares", "Return %", "P&L", "Exit Via")
	for _, o := range result.Outcomes {
		table.Append(
			o.Ticker,
			o.Date,
			fmt.Sprintf("%.2f", o.EntryPrice),
			fmt.Sprintf("%.2f", o.ExitPrice),
			fmt.Sprintf("%.0f", o.Shares),
			fmt.Sprintf("%.2f", o.ReturnPct),
			fmt.Sprintf("%.2f", o.ProfitLoss),
			string(o.ExitReason),
		)
	}
	table.Render()
}

func printSummary(w io.Writer, initialEquity float64, result *backtest.BatchResult) {
	final := initialEquity
	if n := len(result.EquityCurve); n > 0 {
		final = result.EquityCurve[n-1]
	}
	m := result.Metrics

	fmt.Fprintf(w, "\nrequested %d, trades %d, skipped %d\n",
		result.Requested, len(result.Outcomes), result.Skipped)
	fmt.Fprintf(w, "equity %.2f -> %.2f\n", initialEquity, final)
	fmt.Fprintf(w, "max drawdown %.2f%%  expected value %.2f\n", m.MaxDrawdown*100, m.ExpectedValue)
	fmt.Fprintf(w, "wins %d  losses %d  win/loss %.2f  risk/reward %.2f\n",
		m.Wins, m.Losses, m.WinLossRatio, m.RiskRewardRatio)
	fmt.Fprintf(w, "avg profit %.2f  avg loss %.2f\n", m.AvgProfit, m.AvgLoss)
}

func saveRun(ctx context.Context, cfg *config.Config, result *backtest.BatchResult) (int64, error) {
	results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return 0, err
	}
	defer results.Close()

	final := cfg.Backtest.InitialEquity
	if n := len(result.EquityCurve); n > 0 {
		final = result.EquityCurve[n-1]
	}

	return results.SaveRun(ctx, &store.Run{
		Provider:      cfg.Backtest.Provider,
		InitialEquity: cfg.Backtest.InitialEquity,
		FinalEquity:   final,
		Requested:     result.Requested,
		Skipped:       result.Skipped,
		Metrics:       result.Metrics,
		Outcomes:      result.Outcomes,
	})
}
