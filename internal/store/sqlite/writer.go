package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"banknifty-backtest/internal/metrics"
	"banknifty-backtest/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/banknifty.db"
}

// Writer persists daily bars and the run/trade journal. A single
// connection keeps SQLite's writer lock uncontended.
type Writer struct {
	db   *sql.DB
	prom *metrics.Metrics // optional
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// SetMetrics attaches Prometheus instrumentation.
func (w *Writer) SetMetrics(m *metrics.Metrics) { w.prom = m }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars_daily (
			symbol   TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			open     INTEGER NOT NULL,
			high     INTEGER NOT NULL,
			low      INTEGER NOT NULL,
			close    INTEGER NOT NULL,
			volume   INTEGER NOT NULL,
			PRIMARY KEY (symbol, ts)
		);

		CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id           TEXT    PRIMARY KEY,
			strategy         TEXT    NOT NULL,
			symbol           TEXT    NOT NULL,
			bars             INTEGER NOT NULL,
			trades           INTEGER NOT NULL,
			total_pnl        INTEGER NOT NULL,
			max_drawdown_pct REAL    NOT NULL,
			initial_capital  INTEGER NOT NULL,
			final_capital    INTEGER NOT NULL,
			created_at       INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE TABLE IF NOT EXISTS backtest_trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT    NOT NULL,
			strategy    TEXT    NOT NULL,
			entry_ts    INTEGER NOT NULL,
			entry_price INTEGER NOT NULL,
			exit_ts     INTEGER NOT NULL,
			exit_price  INTEGER NOT NULL,
			qty         INTEGER NOT NULL,
			reason      TEXT    NOT NULL,
			pnl         INTEGER NOT NULL,
			commission  INTEGER NOT NULL,
			bars_held   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS paper_fills (
			order_id   TEXT    PRIMARY KEY,
			strategy   TEXT    NOT NULL,
			symbol     TEXT    NOT NULL,
			side       TEXT    NOT NULL,
			qty        INTEGER NOT NULL,
			price      INTEGER NOT NULL,
			reason     TEXT    NOT NULL,
			filled_at  INTEGER NOT NULL
		);
	`)
	return err
}

// WriteBars upserts a bar slice in a single transaction. Re-importing an
// overlapping date range replaces rows instead of duplicating them.
func (w *Writer) WriteBars(bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars_daily (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	start := time.Now()
	for _, b := range bars {
		_, err := stmt.Exec(b.Symbol, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if w.prom != nil {
		w.prom.SQLiteCommitDur.Observe(time.Since(start).Seconds())
	}

	log.Printf("[sqlite] committed %d bars in %v", len(bars), time.Since(start))
	return nil
}

// WriteRun journals a completed run header and its full trade log in one
// transaction, so a run either appears whole or not at all.
func (w *Writer) WriteRun(runID, symbol string, bars int, report model.PerformanceReport, trades []model.Trade) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO backtest_runs
			(run_id, strategy, symbol, bars, trades, total_pnl, max_drawdown_pct, initial_capital, final_capital)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, report.Strategy, symbol, bars, report.Trades, report.TotalPnL,
		report.MaxDrawdownPct, report.InitialCapital, report.FinalCapital)
	if err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO backtest_trades
			(run_id, strategy, entry_ts, entry_price, exit_ts, exit_price, qty, reason, pnl, commission, bars_held)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.Exec(runID, t.Strategy, t.EntryDate.Unix(), t.EntryPrice,
			t.ExitDate.Unix(), t.ExitPrice, t.Qty, string(t.Reason), t.PnL, t.Commission, t.BarsHeld)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// WritePaperFill records a simulated fill from the forward tester.
func (w *Writer) WritePaperFill(orderID, strategy, symbol, side string, qty, price int64, reason string, filledAt time.Time) error {
	_, err := w.db.Exec(`
		INSERT OR REPLACE INTO paper_fills (order_id, strategy, symbol, side, qty, price, reason, filled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, orderID, strategy, symbol, side, qty, price, reason, filledAt.Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert paper fill: %w", err)
	}
	return nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
