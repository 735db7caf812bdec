// Package journal keeps a hand-entered trade ledger alongside the simulated
// runs: realized P&L per trade, locate costs, and a starting balance. The
// ledger persists as a single JSON file so it stays portable and editable.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultStartingBalance seeds a fresh ledger.
const DefaultStartingBalance = 50000

// Trade is one closed round-trip entered by hand.
type Trade struct {
	Date     string  `json:"date"` // "2006-01-02"
	Symbol   string  `json:"symbol"`
	Type     string  `json:"type"` // "Long" or "Short"
	Realized float64 `json:"realized"`
}

// Locate is a borrow-locate fee paid to short a hard-to-borrow symbol.
type Locate struct {
	Date      string  `json:"date"`
	Symbol    string  `json:"symbol"`
	TotalCost float64 `json:"totalCost"`
}

// Data is the on-disk ledger document.
type Data struct {
	Trades          []Trade  `json:"trades"`
	Locates         []Locate `json:"locates"`
	StartingBalance float64  `json:"starting_balance"`
}

// Ledger is a concurrency-safe view over one ledger file. All mutating
// operations persist before returning.
type Ledger struct {
	mu   sync.Mutex
	path string
	data Data
}

// Open loads the ledger at path, creating an empty one in memory when the
// file does not exist yet. The file is only written on the first mutation.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		data: Data{
			Trades:          []Trade{},
			Locates:         []Locate{},
			StartingBalance: DefaultStartingBalance,
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger %q: %w", path, err)
	}
	if err := json.Unmarshal(raw, &l.data); err != nil {
		return nil, fmt.Errorf("parsing ledger %q: %w", path, err)
	}
	if l.data.StartingBalance == 0 {
		l.data.StartingBalance = DefaultStartingBalance
	}
	if l.data.Trades == nil {
		l.data.Trades = []Trade{}
	}
	if l.data.Locates == nil {
		l.data.Locates = []Locate{}
	}
	return l, nil
}

// AddTrade validates and appends a trade, optionally recording a locate fee
// for the same symbol and day when locateCost > 0.
func (l *Ledger) AddTrade(t Trade, locateCost float64) error {
	if _, err := time.Parse("2006-01-02", t.Date); err != nil {
		return fmt.Errorf("invalid trade date %q: %w", t.Date, err)
	}
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.Symbol == "" {
		return fmt.Errorf("trade symbol is required")
	}
	if t.Type != "Long" && t.Type != "Short" {
		return fmt.Errorf("trade type must be Long or Short, got %q", t.Type)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.data.Trades = append(l.data.Trades, t)
	if locateCost > 0 {
		l.data.Locates = append(l.data.Locates, Locate{
			Date:      t.Date,
			Symbol:    t.Symbol,
			TotalCost: locateCost,
		})
	}
	return l.save()
}

// DeleteTrade removes the trade at index (in Trades order). Locates are
// left untouched; they are an independent cost record.
func (l *Ledger) DeleteTrade(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.data.Trades) {
		return fmt.Errorf("trade index %d out of range [0,%d)", index, len(l.data.Trades))
	}
	l.data.Trades = append(l.data.Trades[:index], l.data.Trades[index+1:]...)
	return l.save()
}

// SetStartingBalance updates the balance all percentage stats are computed
// against.
func (l *Ledger) SetStartingBalance(balance float64) error {
	if balance <= 0 {
		return fmt.Errorf("starting balance must be positive, got %v", balance)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data.StartingBalance = balance
	return l.save()
}

// Trades returns a copy of all trades sorted by date ascending, insertion
// order within a day.
func (l *Ledger) Trades() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Trade, len(l.data.Trades))
	copy(out, l.data.Trades)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Locates returns a copy of all locate entries.
func (l *Ledger) Locates() []Locate {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Locate, len(l.data.Locates))
	copy(out, l.data.Locates)
	return out
}

// StartingBalance returns the configured starting balance.
func (l *Ledger) StartingBalance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data.StartingBalance
}

// save writes the document atomically: temp file in the same directory,
// then rename. Caller holds l.mu.
func (l *Ledger) save() error {
	raw, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing ledger %q: %w", l.path, err)
	}
	return nil
}
