package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gapfade/internal/domain"
	"gapfade/internal/provider"
	"gapfade/internal/sim"
	"gapfade/internal/util"
)

// Config holds the batch execution knobs. Zero values fall back to the
// platform defaults.
type Config struct {
	Params        sim.Params
	InitialEquity float64
	MaxWorkers    int           // fan-out width for fetch+evaluate
	FetchRetries  int           // attempts per bar fetch before giving up on a request
	RetryDelay    time.Duration // initial backoff between fetch attempts
	Progress      func(done, total int)
}

// BatchResult is the complete output of one batch run: the outcome list in
// input order (skipped requests omitted), the equity curve, and the derived
// metrics. It is directly consumable by rendering and export collaborators.
type BatchResult struct {
	Outcomes    []domain.TradeOutcome
	EquityCurve []float64
	Metrics     domain.AggregateMetrics
	Requested   int
	Skipped     int
	Cancelled   bool
}

// Runner replays a list of trade requests against a bar provider. The
// per-request work (fetch, VWAP, strategy replay) fans out across a worker
// pool; results are re-joined in request order before the sequential
// portfolio fold, which keeps the equity-curve order contract intact.
type Runner struct {
	provider provider.BarProvider
	cfg      Config
	log      *slog.Logger
}

// NewRunner creates a Runner over the given provider.
func NewRunner(p provider.BarProvider, cfg Config) *Runner {
	if cfg.Params == (sim.Params{}) {
		cfg.Params = sim.DefaultParams()
	}
	if cfg.InitialEquity == 0 {
		cfg.InitialEquity = 20000
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.FetchRetries <= 0 {
		cfg.FetchRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	return &Runner{
		provider: p,
		cfg:      cfg,
		log:      slog.Default().With("component", "backtest"),
	}
}

// Run processes every request and returns the accumulated result. Requests
// with unusable data are skipped silently; they never appear in the outcome
// list, the curve, or the metrics. Cancellation via ctx stops the fan-out at
// the next iteration boundary and the partial result is still returned —
// a cancelled batch is not an error.
func (r *Runner) Run(ctx context.Context, requests []domain.TradeRequest) *BatchResult {
	total := len(requests)

	// One slot per request: the fan-out writes results by index, so the
	// join back into input order is free.
	slots := make([]*domain.TradeOutcome, total)

	workCh := make(chan int, total)
	for i := range requests {
		workCh <- i
	}
	close(workCh)

	var (
		wg        sync.WaitGroup
		processed atomic.Int64
		runStart  = time.Now()
	)

	workers := min(r.cfg.MaxWorkers, total)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if ctx.Err() != nil {
					return
				}

				req := requests[idx]
				slots[idx] = r.evaluate(ctx, req)

				done := int(processed.Add(1))
				r.log.Debug("request done",
					"progress", fmt.Sprintf("%d/%d", done, total),
					"request", req.String(),
					"skipped", slots[idx] == nil,
				)
				if r.cfg.Progress != nil {
					r.cfg.Progress(done, total)
				}
			}
		}()
	}

	wg.Wait()

	// Sequential fold in input order. This part is order-dependent and must
	// never be parallelized.
	portfolio := NewPortfolio(r.cfg.InitialEquity)
	outcomes := make([]domain.TradeOutcome, 0, total)
	for _, o := range slots {
		if o == nil {
			continue
		}
		portfolio.Apply(o)
		outcomes = append(outcomes, *o)
	}

	result := &BatchResult{
		Outcomes:    outcomes,
		EquityCurve: portfolio.Curve(),
		Metrics:     ComputeMetrics(outcomes, portfolio.Curve()),
		Requested:   total,
		Skipped:     total - len(outcomes),
		Cancelled:   ctx.Err() != nil,
	}

	r.log.Info("batch complete",
		"requested", total,
		"trades", len(outcomes),
		"skipped", result.Skipped,
		"equity", portfolio.Equity(),
		"elapsed", time.Since(runStart).Round(time.Millisecond),
	)
	return result
}

// evaluate runs one request end to end: fetch bars (with bounded retries),
// then replay the day. Every failure mode maps to a nil outcome — empty
// fetch, exhausted retries, and unusable days are all skipped, never fatal.
func (r *Runner) evaluate(ctx context.Context, req domain.TradeRequest) *domain.TradeOutcome {
	var bars []domain.Bar
	err := util.Retry(ctx, r.cfg.FetchRetries, r.cfg.RetryDelay, func() error {
		var ferr error
		bars, ferr = r.provider.MinuteBars(ctx, req.Ticker, req.Date)
		return ferr
	})
	if err != nil {
		r.log.Warn("bar fetch failed", "request", req.String(), "err", err)
		return nil
	}
	if len(bars) == 0 {
		r.log.Debug("no bars", "request", req.String())
		return nil
	}

	return sim.Evaluate(req.Ticker, req.Date, bars, r.cfg.Params)
}
