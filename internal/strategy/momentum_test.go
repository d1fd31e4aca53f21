package strategy

import (
	"errors"
	"testing"
	"time"

	"banknifty-backtest/internal/model"
)

func momentumTestConfig() MomentumConfig {
	return MomentumConfig{
		BreakoutWindow:   5,
		VolumeWindow:     5,
		VolumeMultiplier: 1.5,
		TrendWindow:      10,
		RSIWindow:        5,
		RSIFloor:         30,
		RSICeiling:       90,
		StopLossPct:      0.02,
		TakeProfitPct:    0.06,
		MaxHoldingDays:   7,
	}
}

// oscillatingBars alternates closes between 100 and 101 rupees with a
// steady volume, keeping RSI near 50 and the trailing high at 101.
func oscillatingBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := int64(10000)
		if i%2 == 1 {
			c = 10100
		}
		bars[i] = model.Bar{
			Symbol: "BANKNIFTY", Date: day.AddDate(0, 0, i),
			Open: c, High: c, Low: c, Close: c, Volume: 100000,
		}
	}
	return bars
}

func TestMomentum_AllConditionsFire(t *testing.T) {
	strat, err := NewMomentumBreakout(momentumTestConfig())
	if err != nil {
		t.Fatal(err)
	}

	bars := oscillatingBars(12)
	for i, b := range bars {
		if sig := strat.OnBar(b); sig.Type != SignalNone {
			t.Fatalf("bar %d: expected NONE before breakout, got %v", i, sig.Type)
		}
	}

	// Breakout bar: close well above the 5-day high, 3x volume.
	breakout := model.Bar{
		Symbol: "BANKNIFTY",
		Date:   bars[len(bars)-1].Date.AddDate(0, 0, 1),
		Open:   10200, High: 10500, Low: 10150, Close: 10500, Volume: 300000,
	}
	sig := strat.OnBar(breakout)
	if sig.Type != SignalEnterLong {
		t.Fatalf("expected ENTER_LONG on breakout bar, got %v (%s)", sig.Type, sig.Reason)
	}
}

func TestMomentum_NoVolumeSurgeNoEntry(t *testing.T) {
	strat, err := NewMomentumBreakout(momentumTestConfig())
	if err != nil {
		t.Fatal(err)
	}

	bars := oscillatingBars(12)
	for _, b := range bars {
		strat.OnBar(b)
	}

	// Same breakout price action, but ordinary volume.
	quiet := model.Bar{
		Symbol: "BANKNIFTY",
		Date:   bars[len(bars)-1].Date.AddDate(0, 0, 1),
		Open:   10200, High: 10500, Low: 10150, Close: 10500, Volume: 100000,
	}
	if sig := strat.OnBar(quiet); sig.Type != SignalNone {
		t.Errorf("expected NONE without volume surge, got %v", sig.Type)
	}
}

func TestMomentum_UndefinedIndicatorsEmitNone(t *testing.T) {
	strat, err := NewMomentumBreakout(momentumTestConfig())
	if err != nil {
		t.Fatal(err)
	}
	// Even an obvious breakout bar inside the warmup window emits NONE.
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		b := model.Bar{
			Symbol: "BANKNIFTY", Date: day.AddDate(0, 0, i),
			Open: 10000, High: 20000, Low: 10000, Close: 20000, Volume: 900000,
		}
		if sig := strat.OnBar(b); sig.Type != SignalNone {
			t.Fatalf("bar %d: expected NONE during warmup, got %v", i, sig.Type)
		}
	}
}

func TestMomentum_Warmup(t *testing.T) {
	strat, err := NewMomentumBreakout(momentumTestConfig())
	if err != nil {
		t.Fatal(err)
	}
	// trend_window=10 dominates breakout 5+1, volume 5, rsi 5+1.
	if got := strat.Warmup(); got != 10 {
		t.Errorf("Warmup() = %d, want 10", got)
	}
}

func TestMomentumConfig_Validate(t *testing.T) {
	valid := momentumTestConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	broken := []func(*MomentumConfig){
		func(c *MomentumConfig) { c.BreakoutWindow = 0 },
		func(c *MomentumConfig) { c.VolumeWindow = -1 },
		func(c *MomentumConfig) { c.VolumeMultiplier = 0 },
		func(c *MomentumConfig) { c.TrendWindow = 0 },
		func(c *MomentumConfig) { c.RSIWindow = 0 },
		func(c *MomentumConfig) { c.RSIFloor = 80; c.RSICeiling = 70 },
		func(c *MomentumConfig) { c.StopLossPct = 0 },
		func(c *MomentumConfig) { c.TakeProfitPct = -0.01 },
		func(c *MomentumConfig) { c.MaxHoldingDays = 0 },
	}
	for i, mutate := range broken {
		cfg := momentumTestConfig()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("case %d: expected validation error", i)
			continue
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: error not wrapping ErrInvalidConfig: %v", i, err)
		}
	}
}
