package provider

import (
	"context"

	"gapfade/internal/domain"
	"gapfade/internal/util"
)

var _ BarProvider = (*RateLimitedProvider)(nil)

// RateLimitedProvider throttles upstream fetches to a per-minute budget so
// concurrent batch workers stay inside the data vendor's API limits.
type RateLimitedProvider struct {
	upstream BarProvider
	limiter  *util.RateLimiter
}

// NewRateLimitedProvider wraps upstream with a perMinute request budget.
func NewRateLimitedProvider(upstream BarProvider, perMinute int) *RateLimitedProvider {
	return &RateLimitedProvider{
		upstream: upstream,
		limiter:  util.NewRateLimiter(perMinute),
	}
}

// Name returns the upstream provider's identifier.
func (p *RateLimitedProvider) Name() string { return p.upstream.Name() }

// MinuteBars waits for a request token, then delegates upstream.
func (p *RateLimitedProvider) MinuteBars(ctx context.Context, ticker, date string) ([]domain.Bar, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.upstream.MinuteBars(ctx, ticker, date)
}
