// Package backtest replays a daily bar sequence through a strategy,
// simulates position management, and computes performance statistics.
//
// One run is a pure function of (bars, strategy, run config): no shared
// mutable state, no suspension points, fully deterministic. Parallel
// evaluation happens by giving each worker its own strategy and
// simulator over the same read-only bar slice.
package backtest

import (
	"banknifty-backtest/internal/model"
	"banknifty-backtest/internal/strategy"
)

// SimConfig holds capital and cost parameters for a simulated run.
type SimConfig struct {
	InitialCapital int64   // paise
	PositionPct    float64 // fraction of current capital deployed per entry
	CommissionFlat int64   // paise per leg (entry and exit each)
	CommissionBps  int64   // basis points of traded value, both legs
}

// DefaultSimConfig mirrors the brokerage assumptions used for Bank Nifty:
// ₹1,00,000 starting capital, 95% deployment, ₹20 flat + 0.01% per leg.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		InitialCapital: 100000_00,
		PositionPct:    0.95,
		CommissionFlat: 20_00,
		CommissionBps:  1,
	}
}

// position is the open-trade state while the simulator is LONG.
type position struct {
	entryIdx    int
	entryPrice  int64 // paise
	qty         int64
	stopPrice   int64 // 0 = no stop
	targetPrice int64 // 0 = no target
}

// Simulator is the FLAT/LONG state machine for one strategy instance.
// At most one position is open at a time; entry signals while LONG are
// ignored (no pyramiding).
type Simulator struct {
	name   string
	exits  strategy.ExitRules
	cfg    SimConfig
	trades []model.Trade

	capital int64
	long    bool
	pos     position

	// signals act on the NEXT bar's open to avoid lookahead bias
	pendingEntry bool
	pendingExit  bool
}

// NewSimulator creates a simulator for the given strategy name and exit
// rules.
func NewSimulator(name string, exits strategy.ExitRules, cfg SimConfig) *Simulator {
	return &Simulator{
		name:    name,
		exits:   exits,
		cfg:     cfg,
		capital: cfg.InitialCapital,
	}
}

// Run replays the full bar sequence through strat and returns the closed
// trade log. A position still open after the final bar is closed at that
// bar's close with reason end-of-data, so the log remains a total,
// non-overlapping partition of time.
func (s *Simulator) Run(bars []model.Bar, strat strategy.Strategy) []model.Trade {
	for i := range bars {
		s.step(i, bars, strat)
	}
	if s.long {
		last := len(bars) - 1
		s.closePosition(last, bars, bars[last].Close, model.ExitEndOfData)
	}
	return s.trades
}

func (s *Simulator) step(i int, bars []model.Bar, strat strategy.Strategy) {
	bar := bars[i]
	enteredThisBar := false

	// 1. Fill a pending entry at this bar's open.
	if s.pendingEntry && !s.long {
		s.openPosition(i, bar)
		enteredThisBar = true
	}
	s.pendingEntry = false

	// 2. Exit checks, fixed priority, one exit per bar. The entry bar
	//    itself is exempt; rule checks start on subsequent bars.
	if s.long && !enteredThisBar {
		if s.checkExits(i, bar, bars) {
			s.pendingExit = false
		}
	}

	// 3. Feed the bar to the strategy and record the signal's intent.
	sig := strat.OnBar(bar)
	switch sig.Type {
	case strategy.SignalEnterLong:
		if !s.long {
			s.pendingEntry = true
		}
	case strategy.SignalExitLong:
		if s.long && s.exits.ExitOnSignal {
			s.pendingExit = true
		}
	}
}

// checkExits applies the exit rules in priority order. Returns true if
// the position was closed on this bar.
func (s *Simulator) checkExits(i int, bar model.Bar, bars []model.Bar) bool {
	// (1) stop-loss breach: intrabar low at or below the stop.
	if s.pos.stopPrice > 0 && bar.Low <= s.pos.stopPrice {
		s.closePosition(i, bars, s.pos.stopPrice, model.ExitStopLoss)
		return true
	}
	// (2) take-profit breach: intrabar high at or above the target.
	if s.pos.targetPrice > 0 && bar.High >= s.pos.targetPrice {
		s.closePosition(i, bars, s.pos.targetPrice, model.ExitTakeProfit)
		return true
	}
	// (3) time stop: held too long, out at the close.
	if s.exits.MaxHoldingDays > 0 && i-s.pos.entryIdx >= s.exits.MaxHoldingDays {
		s.closePosition(i, bars, bar.Close, model.ExitTimeLimit)
		return true
	}
	// (4) reversal signal from the previous bar: out at this bar's open.
	if s.pendingExit {
		s.closePosition(i, bars, bar.Open, model.ExitSignal)
		return true
	}
	return false
}

func (s *Simulator) openPosition(i int, bar model.Bar) {
	entryPrice := bar.Open
	deploy := int64(float64(s.capital) * s.cfg.PositionPct)
	qty := deploy / entryPrice
	if qty <= 0 {
		return // capital too small for one unit, skip the entry
	}

	pos := position{
		entryIdx:   i,
		entryPrice: entryPrice,
		qty:        qty,
	}
	if s.exits.StopLossPct > 0 {
		pos.stopPrice = int64(float64(entryPrice) * (1 - s.exits.StopLossPct))
	}
	if s.exits.TakeProfitPct > 0 {
		pos.targetPrice = int64(float64(entryPrice) * (1 + s.exits.TakeProfitPct))
	}
	s.pos = pos
	s.long = true
}

func (s *Simulator) closePosition(i int, bars []model.Bar, exitPrice int64, reason model.ExitReason) {
	entryValue := s.pos.entryPrice * s.pos.qty
	exitValue := exitPrice * s.pos.qty
	commission := 2*s.cfg.CommissionFlat + (entryValue+exitValue)*s.cfg.CommissionBps/10000

	gross := (exitPrice - s.pos.entryPrice) * s.pos.qty
	pnl := gross - commission
	s.capital += pnl

	s.trades = append(s.trades, model.Trade{
		Strategy:   s.name,
		EntryDate:  bars[s.pos.entryIdx].Date,
		EntryPrice: s.pos.entryPrice,
		ExitDate:   bars[i].Date,
		ExitPrice:  exitPrice,
		Qty:        s.pos.qty,
		Reason:     reason,
		PnL:        pnl,
		Commission: commission,
		BarsHeld:   i - s.pos.entryIdx,
	})

	s.long = false
	s.pos = position{}
}

// Capital returns the running capital after all closed trades.
func (s *Simulator) Capital() int64 { return s.capital }
