package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"gapfade/internal/domain"
	"gapfade/internal/util"
)

// Compile-time interface check.
var _ BarCache = (*ParquetCache)(nil)

// ParquetCache implements BarCache with one Parquet file per symbol/day.
type ParquetCache struct {
	DataDir string
}

// NewParquetCache creates a ParquetCache rooted at the given data directory.
func NewParquetCache(dataDir string) *ParquetCache {
	return &ParquetCache{DataDir: dataDir}
}

// BarRecord is the Parquet schema for cached minute bars.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

// ReadDay reads the cached bars for one symbol/day. A missing file is an
// empty day, not an error. Timestamps are restored to exchange-local time.
func (c *ParquetCache) ReadDay(_ context.Context, symbol, date string) ([]domain.Bar, error) {
	records, err := readParquetFile[BarRecord](c.dayPath(symbol, date))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cached bars for %s/%s: %w", symbol, date, err)
	}

	loc := util.ETLocation()

	bars := make([]domain.Bar, 0, len(records))
	for _, r := range records {
		bars = append(bars, domain.Bar{
			Symbol:     r.Symbol,
			Timestamp:  time.UnixMilli(r.Timestamp).In(loc),
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			Volume:     r.Volume,
			TradeCount: r.TradeCount,
			VWAP:       r.VWAP,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

// WriteDay writes one day's bars, replacing any existing file for the
// symbol/day. Bars are stored sorted by timestamp.
func (c *ParquetCache) WriteDay(_ context.Context, symbol, date string, bars []domain.Bar) error {
	records := make([]BarRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, BarRecord{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  b.Timestamp.UnixMilli(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
			TradeCount: b.TradeCount,
			VWAP:       b.VWAP,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })

	if err := writeParquetFile(c.dayPath(symbol, date), records); err != nil {
		return fmt.Errorf("writing cached bars for %s/%s: %w", symbol, date, err)
	}
	return nil
}

// dayPath returns the cache file path.
// Layout: <dataDir>/us/minute/<SYMBOL>/<YYYY-MM-DD>.parquet
func (c *ParquetCache) dayPath(symbol, date string) string {
	return filepath.Join(c.DataDir, "us", "minute", strings.ToUpper(symbol), date+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}
