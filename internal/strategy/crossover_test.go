package strategy

import (
	"testing"
	"time"

	"banknifty-backtest/internal/model"
)

func barsFromCloses(closes []int64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.Bar{
			Symbol: "BANKNIFTY", Date: day.AddDate(0, 0, i),
			Open: c, High: c, Low: c, Close: c, Volume: 100000,
		}
	}
	return bars
}

// risingCloses builds a monotonically rising close series in paise.
func risingCloses(n int, startPaise, endPaise int64) []int64 {
	closes := make([]int64, n)
	for i := 0; i < n; i++ {
		closes[i] = startPaise + (endPaise-startPaise)*int64(i)/int64(n-1)
	}
	return closes
}

func TestCrossover_RisingSeries_SingleEntryNoExit(t *testing.T) {
	// 100 → 200 rupees over 60 bars, 20/50: exactly one ENTER_LONG once
	// both MAs are defined and fast first exceeds slow, zero EXIT_LONG.
	strat, err := NewMACrossover(CrossoverConfig{FastWindow: 20, SlowWindow: 50, StopLossPct: 0.02})
	if err != nil {
		t.Fatal(err)
	}

	bars := barsFromCloses(risingCloses(60, 10000, 20000))
	enters, exits := 0, 0
	firstEnter := -1
	for i, b := range bars {
		switch strat.OnBar(b).Type {
		case SignalEnterLong:
			enters++
			if firstEnter == -1 {
				firstEnter = i
			}
		case SignalExitLong:
			exits++
		}
	}

	if enters != 1 {
		t.Errorf("expected exactly 1 ENTER_LONG, got %d", enters)
	}
	if exits != 0 {
		t.Errorf("expected 0 EXIT_LONG, got %d", exits)
	}
	// Both MAs define at bar 49 (0-based); the first evaluation with a
	// prior state is bar 50.
	if firstEnter != 50 {
		t.Errorf("ENTER_LONG at bar %d, want 50", firstEnter)
	}
}

func TestCrossover_NoLookahead(t *testing.T) {
	// The signal at bar i must be unaffected by perturbing bars > i.
	closes := risingCloses(60, 10000, 20000)

	run := func(cs []int64, upTo int) []SignalType {
		strat, err := NewMACrossover(CrossoverConfig{FastWindow: 20, SlowWindow: 50, StopLossPct: 0.02})
		if err != nil {
			t.Fatal(err)
		}
		out := make([]SignalType, 0, upTo+1)
		for _, b := range barsFromCloses(cs)[:upTo+1] {
			out = append(out, strat.OnBar(b).Type)
		}
		return out
	}

	const i = 52
	baseline := run(closes, i)

	perturbed := make([]int64, len(closes))
	copy(perturbed, closes)
	for j := i + 1; j < len(perturbed); j++ {
		perturbed[j] = 5000 // crash after bar i
	}
	withFuture := run(perturbed, i)

	for k := range baseline {
		if baseline[k] != withFuture[k] {
			t.Fatalf("bar %d: signal changed from %v to %v when only future bars differ",
				k, baseline[k], withFuture[k])
		}
	}
}

func TestCrossover_DeathCrossEmitsExit(t *testing.T) {
	// Rise long enough to cross up, then collapse so fast drops below slow.
	closes := risingCloses(60, 10000, 20000)
	for i := 0; i < 30; i++ {
		closes = append(closes, 8000)
	}

	strat, err := NewMACrossover(CrossoverConfig{FastWindow: 5, SlowWindow: 15, StopLossPct: 0.02})
	if err != nil {
		t.Fatal(err)
	}

	sawEnter, sawExit := false, false
	for _, b := range barsFromCloses(closes) {
		switch strat.OnBar(b).Type {
		case SignalEnterLong:
			sawEnter = true
		case SignalExitLong:
			if !sawEnter {
				t.Fatal("EXIT_LONG before any ENTER_LONG")
			}
			sawExit = true
		}
	}
	if !sawEnter || !sawExit {
		t.Errorf("expected both crossings, got enter=%v exit=%v", sawEnter, sawExit)
	}
}

func TestCrossover_UndefinedIndicatorsEmitNone(t *testing.T) {
	strat, err := NewMACrossover(CrossoverConfig{FastWindow: 20, SlowWindow: 50, StopLossPct: 0.02})
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range barsFromCloses(risingCloses(50, 10000, 20000)) {
		if sig := strat.OnBar(b); sig.Type != SignalNone {
			t.Fatalf("bar %d: expected NONE during warmup, got %v", i, sig.Type)
		}
	}
}

func TestCrossoverConfig_Validate(t *testing.T) {
	cases := []struct {
		name string
		cfg  CrossoverConfig
		ok   bool
	}{
		{"valid", CrossoverConfig{20, 50, 0.02}, true},
		{"fast equals slow", CrossoverConfig{50, 50, 0.02}, false},
		{"fast above slow", CrossoverConfig{60, 50, 0.02}, false},
		{"zero fast", CrossoverConfig{0, 50, 0.02}, false},
		{"negative slow", CrossoverConfig{20, -1, 0.02}, false},
		{"zero stop", CrossoverConfig{20, 50, 0}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
