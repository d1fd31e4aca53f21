package papertrade

import (
	"log"
	"sync"
)

// RiskLimits defines configurable risk management thresholds for the
// paper account. One instrument, one position at a time.
type RiskLimits struct {
	MaxQty         int64   `json:"max_qty"`          // max qty per entry
	MaxDailyLoss   int64   `json:"max_daily_loss"`   // max daily loss in paise
	MaxDrawdownPct float64 `json:"max_drawdown_pct"` // max drawdown percentage (0-100)
}

// DefaultRiskLimits returns conservative default limits.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxQty:         100,
		MaxDailyLoss:   500000, // ₹5,000
		MaxDrawdownPct: 5.0,
	}
}

// RiskManager validates entries against risk limits and tracks equity.
type RiskManager struct {
	mu     sync.RWMutex
	limits RiskLimits

	dailyPnL   int64
	equity     int64
	peakEquity int64
}

// NewRiskManager creates a RiskManager with the given limits and starting equity.
func NewRiskManager(limits RiskLimits, initialEquity int64) *RiskManager {
	return &RiskManager{
		limits:     limits,
		equity:     initialEquity,
		peakEquity: initialEquity,
	}
}

// CanEnter checks if a new entry would violate any risk limit.
// Returns true if the entry is allowed, false with a reason if not.
func (rm *RiskManager) CanEnter(qty int64) (bool, string) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if qty > rm.limits.MaxQty {
		return false, "position size exceeds limit"
	}
	if rm.dailyPnL < -rm.limits.MaxDailyLoss {
		return false, "max daily loss reached"
	}
	if rm.peakEquity > 0 {
		drawdown := float64(rm.peakEquity-rm.equity) / float64(rm.peakEquity) * 100
		if drawdown > rm.limits.MaxDrawdownPct {
			return false, "max drawdown exceeded"
		}
	}
	return true, ""
}

// RecordPnL updates daily P&L and equity tracking.
func (rm *RiskManager) RecordPnL(pnl int64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.dailyPnL += pnl
	rm.equity += pnl
	if rm.equity > rm.peakEquity {
		rm.peakEquity = rm.equity
	}

	log.Printf("[risk] daily P&L: %d, equity: %d, peak: %d", rm.dailyPnL, rm.equity, rm.peakEquity)
}

// ResetDaily resets the daily P&L counter (call at market open).
func (rm *RiskManager) ResetDaily() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.dailyPnL = 0
}

// Equity returns the current paper-account equity in paise.
func (rm *RiskManager) Equity() int64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.equity
}
