package backtest

import "banknifty-backtest/internal/model"

// Analyze computes a PerformanceReport from a closed trade log. Pure
// function: fully recomputed on every call, never incrementally updated,
// so the result is reproducible regardless of call order.
//
// Win rate and the per-subset averages are undefined (Valid=false) when
// their subsets are empty — a zero-trade run must not report a zero win
// rate. Breakeven trades count against the win rate but appear in
// neither average.
func Analyze(strategyName string, trades []model.Trade, initialCapital int64) model.PerformanceReport {
	report := model.PerformanceReport{
		Strategy:       strategyName,
		Trades:         len(trades),
		InitialCapital: initialCapital,
		FinalCapital:   initialCapital,
	}

	var winSum, lossSum int64
	for _, t := range trades {
		report.TotalPnL += t.PnL
		switch {
		case t.PnL > 0:
			report.Wins++
			winSum += t.PnL
		case t.PnL < 0:
			report.Losses++
			lossSum += t.PnL
		}
		// breakeven trades count toward neither tally; the win rate
		// denominator still includes them
	}
	report.FinalCapital = initialCapital + report.TotalPnL

	if len(trades) > 0 {
		report.WinRate = model.DefinedStat(float64(report.Wins) / float64(len(trades)))
	}
	if report.Wins > 0 {
		report.AvgWin = model.DefinedStat(float64(winSum) / float64(report.Wins) / 100.0)
	}
	if report.Losses > 0 {
		report.AvgLoss = model.DefinedStat(float64(lossSum) / float64(report.Losses) / 100.0)
	}

	report.MaxDrawdownPct = maxDrawdown(trades, initialCapital)
	return report
}

// maxDrawdown walks the equity curve built by applying trades in
// chronological order to the capital baseline and returns the largest
// peak-to-trough decline as a percentage of the peak.
func maxDrawdown(trades []model.Trade, initialCapital int64) float64 {
	equity := initialCapital
	peak := initialCapital
	worst := 0.0
	for _, t := range trades {
		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := float64(peak-equity) / float64(peak) * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
