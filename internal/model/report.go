package model

// Stat is a statistic that may be undefined (e.g. average win over zero
// winning trades). Undefined stats carry Valid=false instead of NaN or a
// silent zero, so report consumers must check before use.
type Stat struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// DefinedStat builds a defined Stat.
func DefinedStat(v float64) Stat { return Stat{Value: v, Valid: true} }

// PerformanceReport aggregates a trade sequence. Always recomputed in
// full from the trade log — never incrementally updated.
type PerformanceReport struct {
	Strategy string `json:"strategy"`
	Trades   int    `json:"trades"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`

	WinRate Stat `json:"win_rate"` // fraction 0..1, undefined for 0 trades
	AvgWin  Stat `json:"avg_win"`  // rupees, undefined when no winners
	AvgLoss Stat `json:"avg_loss"` // rupees (negative), undefined when no losers

	TotalPnL       int64   `json:"total_pnl"` // paise
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	InitialCapital int64 `json:"initial_capital"` // paise
	FinalCapital   int64 `json:"final_capital"`   // paise
}

// TotalReturnPct returns the overall return on initial capital.
func (r *PerformanceReport) TotalReturnPct() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return (float64(r.FinalCapital)/float64(r.InitialCapital) - 1) * 100
}
