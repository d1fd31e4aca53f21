package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"banknifty-backtest/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for bar replay and run review.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadBars reads daily bars for a symbol after the given unix timestamp.
// Results are ordered by timestamp ascending for correct replay order.
func (r *Reader) ReadBars(symbol string, afterTS int64) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT symbol, ts, open, high, low, close, volume
		FROM bars_daily
		WHERE symbol = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars_daily: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var tsUnix int64
		if err := rows.Scan(&b.Symbol, &tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars_daily: %w", err)
		}
		b.Date = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LastBarTimestamp returns the newest stored bar timestamp for a symbol.
// Returns 0 if no bars exist, so callers can backfill from scratch.
func (r *Reader) LastBarTimestamp(symbol string) (int64, error) {
	var ts sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(ts) FROM bars_daily WHERE symbol = ?`,
		symbol,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// ReadTrades returns the journalled trade log for one run, ordered by
// entry timestamp.
func (r *Reader) ReadTrades(runID string) ([]model.Trade, error) {
	rows, err := r.db.Query(`
		SELECT strategy, entry_ts, entry_price, exit_ts, exit_price, qty, reason, pnl, commission, bars_held
		FROM backtest_trades
		WHERE run_id = ?
		ORDER BY entry_ts ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query backtest_trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var entryTS, exitTS int64
		var reason string
		if err := rows.Scan(&t.Strategy, &entryTS, &t.EntryPrice, &exitTS, &t.ExitPrice,
			&t.Qty, &reason, &t.PnL, &t.Commission, &t.BarsHeld); err != nil {
			return nil, fmt.Errorf("sqlite scan backtest_trades: %w", err)
		}
		t.EntryDate = time.Unix(entryTS, 0).UTC()
		t.ExitDate = time.Unix(exitTS, 0).UTC()
		t.Reason = model.ExitReason(reason)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
