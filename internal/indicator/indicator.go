// Package indicator provides technical indicator calculations over daily
// bar data.
//
// All indicators implement the Indicator interface, receiving bars and
// producing float64 values in rupees. Every indicator is a pure,
// deterministic function of the bars fed to it; values are undefined
// (Ready()==false) until the lookback window has enough data, and
// downstream consumers must not evaluate rules on undefined values.
package indicator

import "banknifty-backtest/internal/model"

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name including its period,
	// e.g. "SMA_20", "RSI_14".
	Name() string

	// Update feeds the next bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current calculated value. Meaningless until
	// Ready() reports true.
	Value() float64

	// Ready returns true once enough bars have accumulated.
	Ready() bool
}
