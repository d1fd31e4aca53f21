package backtest

import "errors"

// Error kinds detected before or at the first offending bar. Once one is
// raised, the whole run is failed — a partial trade log is never valid.
var (
	// ErrMalformedInput marks a non-monotonic or empty bar sequence.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInsufficientHistory marks a bar sequence shorter than the
	// strategy's longest indicator lookback.
	ErrInsufficientHistory = errors.New("insufficient history")
)
