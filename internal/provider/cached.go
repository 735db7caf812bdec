package provider

import (
	"context"
	"log/slog"
	"strings"

	"gapfade/internal/domain"
	"gapfade/internal/store"
)

var _ BarProvider = (*CachedProvider)(nil)

// CachedProvider wraps a BarProvider with a read-through bar cache. A cache
// hit never touches the upstream source; a successful fetch is written back
// before being returned. Cache write failures are logged, not fatal.
type CachedProvider struct {
	upstream BarProvider
	cache    store.BarCache
	log      *slog.Logger
}

// NewCachedProvider wraps upstream with cache.
func NewCachedProvider(upstream BarProvider, cache store.BarCache) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		cache:    cache,
		log:      slog.Default().With("provider", "cached", "upstream", upstream.Name()),
	}
}

// Name returns the upstream provider's identifier.
func (p *CachedProvider) Name() string { return p.upstream.Name() }

// MinuteBars serves from the cache when possible and fetches upstream
// otherwise.
func (p *CachedProvider) MinuteBars(ctx context.Context, ticker, date string) ([]domain.Bar, error) {
	symbol := strings.ToUpper(ticker)

	cached, err := p.cache.ReadDay(ctx, symbol, date)
	if err != nil {
		p.log.Warn("cache read failed", "symbol", symbol, "date", date, "err", err)
	} else if len(cached) > 0 {
		return cached, nil
	}

	bars, err := p.upstream.MinuteBars(ctx, symbol, date)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := p.cache.WriteDay(ctx, symbol, date, bars); err != nil {
			p.log.Warn("cache write failed", "symbol", symbol, "date", date, "err", err)
		}
	}
	return bars, nil
}
