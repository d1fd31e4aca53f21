package backtest

import (
	"context"
	"fmt"
	"time"

	"banknifty-backtest/internal/logger"
	"banknifty-backtest/internal/model"
	"banknifty-backtest/internal/strategy"
)

// Result bundles everything a single backtest run produces.
type Result struct {
	Strategy string
	Bars     int
	Trades   []model.Trade
	Report   model.PerformanceReport
	Duration time.Duration
}

// Run executes one strategy over one bar series and analyzes the
// outcome. The bar series must be valid in full before a single bar is
// processed: a malformed series fails the whole run rather than being
// repaired or partially consumed.
func Run(ctx context.Context, bars []model.Bar, strat strategy.Strategy, cfg SimConfig) (*Result, error) {
	start := time.Now()

	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(bars) <= strat.Warmup() {
		return nil, fmt.Errorf("%w: %d bars, strategy %s needs more than %d",
			ErrInsufficientHistory, len(bars), strat.Name(), strat.Warmup())
	}

	sim := NewSimulator(strat.Name(), strat.Exits(), cfg)
	trades := sim.Run(bars, strat)
	report := Analyze(strat.Name(), trades, cfg.InitialCapital)

	res := &Result{
		Strategy: strat.Name(),
		Bars:     len(bars),
		Trades:   trades,
		Report:   report,
		Duration: time.Since(start),
	}

	logger.FromContext(ctx).Info("backtest complete",
		"strategy", strat.Name(),
		"bars", len(bars),
		"trades", len(trades),
		"total_pnl_rupees", float64(report.TotalPnL)/100.0,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
