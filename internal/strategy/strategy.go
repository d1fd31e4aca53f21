// Package strategy defines the trading signal contract and the built-in
// Bank Nifty rule sets (momentum breakout, MA crossover).
//
// A Strategy consumes daily bars in order and emits at most one Signal
// per bar. Signals depend only on bars already seen — never on future
// data. Exits driven by price thresholds (stop-loss, take-profit, time
// stop) are the simulator's job; a strategy only declares those rules.
package strategy

import (
	"errors"

	"banknifty-backtest/internal/model"
)

// ErrInvalidConfig is wrapped by all strategy configuration errors.
var ErrInvalidConfig = errors.New("invalid strategy configuration")

// SignalType is the discrete action a strategy emits for a bar.
type SignalType int

const (
	SignalNone SignalType = iota
	SignalEnterLong
	SignalExitLong
)

func (s SignalType) String() string {
	switch s {
	case SignalEnterLong:
		return "ENTER_LONG"
	case SignalExitLong:
		return "EXIT_LONG"
	default:
		return "NONE"
	}
}

// Signal is one rule evaluation's outcome at a bar.
type Signal struct {
	Type   SignalType `json:"type"`
	Reason string     `json:"reason"`
}

// NoSignal is the zero outcome — emitted whenever indicators are still
// undefined or no rule fires.
var NoSignal = Signal{Type: SignalNone}

// ExitRules declares the simulator-enforced exit thresholds for a
// strategy. Zero values disable the corresponding rule.
type ExitRules struct {
	StopLossPct    float64 // fraction below entry, e.g. 0.02
	TakeProfitPct  float64 // fraction above entry; 0 = disabled
	MaxHoldingDays int     // bars held before a forced exit; 0 = disabled
	ExitOnSignal   bool    // honor EXIT_LONG signals
}

// Strategy is the interface all rule sets implement.
type Strategy interface {
	// Name returns the unique strategy name.
	Name() string

	// OnBar consumes the next daily bar and returns the signal decided
	// on data up to and including this bar.
	OnBar(bar model.Bar) Signal

	// Warmup returns the number of bars consumed before any signal can
	// fire; callers must supply strictly more bars than this.
	Warmup() int

	// Exits declares the exit thresholds the simulator enforces.
	Exits() ExitRules
}
