// Package model defines the value types shared across the backtester:
// daily bars, closed trades, and performance reports.
//
// All prices are stored in paise (int64) to avoid floating-point drift.
// Indicator and statistics code converts to rupees at the edge.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bar represents one trading day's observation for a single instrument.
// Immutable once recorded: the pipeline never mutates bars in place.
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`   // trading day (UTC, midnight-aligned)
	Open   int64     `json:"open"`   // paise
	High   int64     `json:"high"`   // paise
	Low    int64     `json:"low"`    // paise
	Close  int64     `json:"close"`  // paise
	Volume int64     `json:"volume"` // contracts/shares traded that day
}

// OpenRupees returns the open price in rupees.
func (b *Bar) OpenRupees() float64 { return float64(b.Open) / 100.0 }

// HighRupees returns the high price in rupees.
func (b *Bar) HighRupees() float64 { return float64(b.High) / 100.0 }

// LowRupees returns the low price in rupees.
func (b *Bar) LowRupees() float64 { return float64(b.Low) / 100.0 }

// CloseRupees returns the close price in rupees.
func (b *Bar) CloseRupees() float64 { return float64(b.Close) / 100.0 }

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// ValidateBars checks that the sequence is non-empty and strictly
// increasing by date. Returns a descriptive error naming the first
// offending index; callers wrap it into their own error kinds.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("empty bar sequence")
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s) not after bar %d (%s)",
				i, bars[i].Date.Format("2006-01-02"),
				i-1, bars[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}
