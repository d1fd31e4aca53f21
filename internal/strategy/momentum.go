package strategy

import (
	"fmt"

	"banknifty-backtest/internal/indicator"
	"banknifty-backtest/internal/model"
)

// MomentumConfig holds the momentum breakout parameters.
type MomentumConfig struct {
	BreakoutWindow   int     `yaml:"breakout_window"`   // trailing high lookback
	VolumeWindow     int     `yaml:"volume_window"`     // rolling volume average
	VolumeMultiplier float64 `yaml:"volume_multiplier"` // surge threshold
	TrendWindow      int     `yaml:"trend_window"`      // trend filter SMA
	RSIWindow        int     `yaml:"rsi_window"`
	RSIFloor         float64 `yaml:"rsi_floor"`
	RSICeiling       float64 `yaml:"rsi_ceiling"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	MaxHoldingDays   int     `yaml:"max_holding_days"`
}

// DefaultMomentumConfig returns the tuned Bank Nifty parameters:
// 30-day breakout, 1.2x volume surge, 100-day trend, RSI 30-75 band,
// 2% stop / 6% target / 7-day time stop.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		BreakoutWindow:   30,
		VolumeWindow:     20,
		VolumeMultiplier: 1.2,
		TrendWindow:      100,
		RSIWindow:        14,
		RSIFloor:         30,
		RSICeiling:       75,
		StopLossPct:      0.02,
		TakeProfitPct:    0.06,
		MaxHoldingDays:   7,
	}
}

// Validate reports the first configuration problem found.
func (c MomentumConfig) Validate() error {
	switch {
	case c.BreakoutWindow <= 0:
		return fmt.Errorf("%w: breakout_window must be positive, got %d", ErrInvalidConfig, c.BreakoutWindow)
	case c.VolumeWindow <= 0:
		return fmt.Errorf("%w: volume_window must be positive, got %d", ErrInvalidConfig, c.VolumeWindow)
	case c.VolumeMultiplier <= 0:
		return fmt.Errorf("%w: volume_multiplier must be positive, got %g", ErrInvalidConfig, c.VolumeMultiplier)
	case c.TrendWindow <= 0:
		return fmt.Errorf("%w: trend_window must be positive, got %d", ErrInvalidConfig, c.TrendWindow)
	case c.RSIWindow <= 0:
		return fmt.Errorf("%w: rsi_window must be positive, got %d", ErrInvalidConfig, c.RSIWindow)
	case c.RSIFloor >= c.RSICeiling:
		return fmt.Errorf("%w: rsi_floor %g must be below rsi_ceiling %g", ErrInvalidConfig, c.RSIFloor, c.RSICeiling)
	case c.StopLossPct <= 0:
		return fmt.Errorf("%w: stop_loss_pct must be positive, got %g", ErrInvalidConfig, c.StopLossPct)
	case c.TakeProfitPct <= 0:
		return fmt.Errorf("%w: take_profit_pct must be positive, got %g", ErrInvalidConfig, c.TakeProfitPct)
	case c.MaxHoldingDays <= 0:
		return fmt.Errorf("%w: max_holding_days must be positive, got %d", ErrInvalidConfig, c.MaxHoldingDays)
	}
	return nil
}

// MomentumBreakout implements the triple-confirmation breakout entry:
//
//	1. Close above the trailing N-day high (previous bars only)
//	2. Volume above the rolling average times a surge multiplier
//	3. Close above the long trend SMA
//	4. RSI inside a healthy band (not overbought, not washed out)
//
// It emits entries only; the 2% stop / 6% target / 7-day time stop are
// declared via Exits() and enforced by the simulator.
type MomentumBreakout struct {
	cfg MomentumConfig

	high   *indicator.TrailingHigh
	volAvg *indicator.VolumeAvg
	trend  *indicator.SMA
	rsi    *indicator.RSI
}

// NewMomentumBreakout creates the strategy after validating cfg.
func NewMomentumBreakout(cfg MomentumConfig) (*MomentumBreakout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MomentumBreakout{
		cfg:    cfg,
		high:   indicator.NewTrailingHigh(cfg.BreakoutWindow),
		volAvg: indicator.NewVolumeAvg(cfg.VolumeWindow),
		trend:  indicator.NewSMA(cfg.TrendWindow),
		rsi:    indicator.NewRSI(cfg.RSIWindow),
	}, nil
}

func (m *MomentumBreakout) Name() string { return "momentum-breakout" }

// Warmup is governed by the slowest indicator. TrailingHigh and RSI need
// one bar beyond their window; the max below accounts for that.
func (m *MomentumBreakout) Warmup() int {
	w := m.cfg.BreakoutWindow + 1
	if m.cfg.VolumeWindow > w {
		w = m.cfg.VolumeWindow
	}
	if m.cfg.TrendWindow > w {
		w = m.cfg.TrendWindow
	}
	if m.cfg.RSIWindow+1 > w {
		w = m.cfg.RSIWindow + 1
	}
	return w
}

func (m *MomentumBreakout) Exits() ExitRules {
	return ExitRules{
		StopLossPct:    m.cfg.StopLossPct,
		TakeProfitPct:  m.cfg.TakeProfitPct,
		MaxHoldingDays: m.cfg.MaxHoldingDays,
	}
}

func (m *MomentumBreakout) OnBar(bar model.Bar) Signal {
	m.high.Update(bar)
	m.volAvg.Update(bar)
	m.trend.Update(bar)
	m.rsi.Update(bar)

	if !m.high.Ready() || !m.volAvg.Ready() || !m.trend.Ready() || !m.rsi.Ready() {
		return NoSignal
	}

	close := bar.CloseRupees()
	breakout := close > m.high.Value()
	volumeSurge := float64(bar.Volume) > m.volAvg.Value()*m.cfg.VolumeMultiplier
	uptrend := close > m.trend.Value()
	rsiHealthy := m.rsi.Value() > m.cfg.RSIFloor && m.rsi.Value() < m.cfg.RSICeiling

	if breakout && volumeSurge && uptrend && rsiHealthy {
		return Signal{
			Type: SignalEnterLong,
			Reason: fmt.Sprintf("breakout above %d-day high %.2f, vol %.0f > %.0f, RSI %.1f",
				m.cfg.BreakoutWindow, m.high.Value(),
				float64(bar.Volume), m.volAvg.Value()*m.cfg.VolumeMultiplier,
				m.rsi.Value()),
		}
	}
	return NoSignal
}
