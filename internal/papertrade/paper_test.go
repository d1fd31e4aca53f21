package papertrade

import "testing"

func TestExecutor_SlippageDirection(t *testing.T) {
	e := NewExecutor(10) // 0.10%

	buy := e.Execute("ma-crossover", "BANKNIFTY", SideBuy, 10, 100_000, "entry signal")
	if buy.Price != 100_100 {
		t.Errorf("buy fill = %d, want 100100 (ref + 10bp)", buy.Price)
	}
	if buy.Slippage != 100 {
		t.Errorf("buy slippage = %d, want 100", buy.Slippage)
	}

	sell := e.Execute("ma-crossover", "BANKNIFTY", SideSell, 10, 100_000, "stop-loss")
	if sell.Price != 99_900 {
		t.Errorf("sell fill = %d, want 99900 (ref - 10bp)", sell.Price)
	}
}

func TestExecutor_SequentialOrderIDs(t *testing.T) {
	e := NewExecutor(0)
	a := e.Execute("s", "BANKNIFTY", SideBuy, 1, 100, "r")
	b := e.Execute("s", "BANKNIFTY", SideSell, 1, 100, "r")

	if a.OrderID != "PAPER-1" || b.OrderID != "PAPER-2" {
		t.Errorf("order ids = %s, %s", a.OrderID, b.OrderID)
	}
	if got := len(e.Fills()); got != 2 {
		t.Errorf("fills = %d, want 2", got)
	}
}

func TestRiskManager_BlocksAfterDailyLoss(t *testing.T) {
	rm := NewRiskManager(RiskLimits{MaxQty: 100, MaxDailyLoss: 1000, MaxDrawdownPct: 50}, 100_000)

	if ok, _ := rm.CanEnter(10); !ok {
		t.Fatal("fresh account should be allowed to enter")
	}

	rm.RecordPnL(-1500)
	if ok, reason := rm.CanEnter(10); ok {
		t.Error("entry allowed past the daily loss limit")
	} else if reason != "max daily loss reached" {
		t.Errorf("reason = %q", reason)
	}

	rm.ResetDaily()
	if ok, _ := rm.CanEnter(10); !ok {
		t.Error("daily reset should re-enable entries")
	}
}

func TestRiskManager_BlocksOversizedEntry(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100_000_00)
	if ok, reason := rm.CanEnter(DefaultRiskLimits().MaxQty + 1); ok {
		t.Error("oversized entry allowed")
	} else if reason != "position size exceeds limit" {
		t.Errorf("reason = %q", reason)
	}
}

func TestRiskManager_DrawdownGate(t *testing.T) {
	rm := NewRiskManager(RiskLimits{MaxQty: 1000, MaxDailyLoss: 1 << 40, MaxDrawdownPct: 5}, 100_000)

	rm.RecordPnL(-6000) // 6% down from peak
	if ok, reason := rm.CanEnter(10); ok {
		t.Error("entry allowed past the drawdown limit")
	} else if reason != "max drawdown exceeded" {
		t.Errorf("reason = %q", reason)
	}
}
