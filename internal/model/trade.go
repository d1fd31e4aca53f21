package model

import "time"

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop-loss"
	ExitTakeProfit ExitReason = "take-profit"
	ExitTimeLimit  ExitReason = "time-limit"
	ExitSignal     ExitReason = "signal-reversal"
	// ExitEndOfData closes a position still open when the bar sequence
	// ends, keeping the trade log a total partition of time.
	ExitEndOfData ExitReason = "end-of-data"
)

// Trade is a closed round trip. Immutable once created; owned by the
// simulator's trade log and consumed by the analyzer.
type Trade struct {
	Strategy   string     `json:"strategy"`
	EntryDate  time.Time  `json:"entry_date"`
	EntryPrice int64      `json:"entry_price"` // paise
	ExitDate   time.Time  `json:"exit_date"`
	ExitPrice  int64      `json:"exit_price"` // paise
	Qty        int64      `json:"qty"`
	Reason     ExitReason `json:"reason"`
	PnL        int64      `json:"pnl"`        // paise, net of commission
	Commission int64      `json:"commission"` // paise, both legs
	BarsHeld   int        `json:"bars_held"`
}

// PnLRupees returns the realized P&L in rupees.
func (t *Trade) PnLRupees() float64 { return float64(t.PnL) / 100.0 }

// ReturnPct returns the price move from entry to exit as a percentage.
func (t *Trade) ReturnPct() float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return (float64(t.ExitPrice)/float64(t.EntryPrice) - 1) * 100
}

// Win reports whether the trade closed with a strictly positive P&L.
func (t *Trade) Win() bool { return t.PnL > 0 }
