package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gapfade/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at       DATETIME NOT NULL,
    provider         TEXT     NOT NULL DEFAULT '',
    initial_equity   REAL     NOT NULL,
    final_equity     REAL     NOT NULL,
    requested        INTEGER  NOT NULL,
    skipped          INTEGER  NOT NULL,
    max_drawdown     REAL     NOT NULL DEFAULT 0,
    expected_value   REAL     NOT NULL DEFAULT 0,
    win_loss_ratio   REAL     NOT NULL DEFAULT 0,
    risk_reward      REAL     NOT NULL DEFAULT 0,
    avg_profit       REAL     NOT NULL DEFAULT 0,
    avg_loss         REAL     NOT NULL DEFAULT 0,
    wins             INTEGER  NOT NULL DEFAULT 0,
    losses           INTEGER  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    ticker      TEXT    NOT NULL,
    date        TEXT    NOT NULL,
    entry_price REAL    NOT NULL,
    exit_price  REAL    NOT NULL,
    return_pct  REAL    NOT NULL,
    profit_loss REAL    NOT NULL,
    shares      REAL    NOT NULL,
    exit_reason TEXT    NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

// SQLiteStore implements ResultStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// the schema, and returns a ready-to-use store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", dbPath, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run and its outcomes in one transaction and returns the
// new run ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			created_at, provider, initial_equity, final_equity, requested, skipped,
			max_drawdown, expected_value, win_loss_ratio, risk_reward,
			avg_profit, avg_loss, wins, losses
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt, run.Provider, run.InitialEquity, run.FinalEquity,
		run.Requested, run.Skipped,
		run.Metrics.MaxDrawdown, run.Metrics.ExpectedValue,
		run.Metrics.WinLossRatio, run.Metrics.RiskRewardRatio,
		run.Metrics.AvgProfit, run.Metrics.AvgLoss,
		run.Metrics.Wins, run.Metrics.Losses,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (
			run_id, seq, ticker, date, entry_price, exit_price,
			return_pct, profit_loss, shares, exit_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing outcome insert: %w", err)
	}
	defer stmt.Close()

	for seq, o := range run.Outcomes {
		if _, err := stmt.ExecContext(ctx, runID, seq, o.Ticker, o.Date,
			o.EntryPrice, o.ExitPrice, o.ReturnPct, o.ProfitLoss,
			o.Shares, string(o.ExitReason)); err != nil {
			return 0, fmt.Errorf("inserting outcome %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// GetRun retrieves a run with its outcomes in sequence order, or nil when
// the ID is unknown.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, provider, initial_equity, final_equity,
		       requested, skipped, max_drawdown, expected_value,
		       win_loss_ratio, risk_reward, avg_profit, avg_loss, wins, losses
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, date, entry_price, exit_price, return_pct,
		       profit_loss, shares, exit_reason
		FROM outcomes WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("loading outcomes for run %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.TradeOutcome
		var reason string
		if err := rows.Scan(&o.Ticker, &o.Date, &o.EntryPrice, &o.ExitPrice,
			&o.ReturnPct, &o.ProfitLoss, &o.Shares, &reason); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.ExitReason = domain.ExitReason(reason)
		run.Outcomes = append(run.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcomes: %w", err)
	}
	return run, nil
}

// ListRuns returns run headers (without outcomes), most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, provider, initial_equity, final_equity,
		       requested, skipped, max_drawdown, expected_value,
		       win_loss_ratio, risk_reward, avg_profit, avg_loss, wins, losses
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	err := sc.Scan(&run.ID, &run.CreatedAt, &run.Provider,
		&run.InitialEquity, &run.FinalEquity, &run.Requested, &run.Skipped,
		&run.Metrics.MaxDrawdown, &run.Metrics.ExpectedValue,
		&run.Metrics.WinLossRatio, &run.Metrics.RiskRewardRatio,
		&run.Metrics.AvgProfit, &run.Metrics.AvgLoss,
		&run.Metrics.Wins, &run.Metrics.Losses)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
