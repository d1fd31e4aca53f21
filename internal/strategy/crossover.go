package strategy

import (
	"fmt"

	"banknifty-backtest/internal/indicator"
	"banknifty-backtest/internal/model"
)

// CrossoverConfig holds the MA crossover parameters.
type CrossoverConfig struct {
	FastWindow  int     `yaml:"fast_window"`
	SlowWindow  int     `yaml:"slow_window"`
	StopLossPct float64 `yaml:"stop_loss_pct"`
}

// DefaultCrossoverConfig returns the tuned Bank Nifty parameters
// (20/50 crossover, 2% stop).
func DefaultCrossoverConfig() CrossoverConfig {
	return CrossoverConfig{
		FastWindow:  20,
		SlowWindow:  50,
		StopLossPct: 0.02,
	}
}

// Validate reports the first configuration problem found.
func (c CrossoverConfig) Validate() error {
	switch {
	case c.FastWindow <= 0:
		return fmt.Errorf("%w: fast_window must be positive, got %d", ErrInvalidConfig, c.FastWindow)
	case c.SlowWindow <= 0:
		return fmt.Errorf("%w: slow_window must be positive, got %d", ErrInvalidConfig, c.SlowWindow)
	case c.FastWindow >= c.SlowWindow:
		return fmt.Errorf("%w: fast_window %d must be below slow_window %d", ErrInvalidConfig, c.FastWindow, c.SlowWindow)
	case c.StopLossPct <= 0:
		return fmt.Errorf("%w: stop_loss_pct must be positive, got %g", ErrInvalidConfig, c.StopLossPct)
	}
	return nil
}

// MACrossover implements the moving-average crossover rule set.
//
// ENTER_LONG on the bar where the fast MA transitions from at-or-below
// the slow MA to strictly above it (golden cross). EXIT_LONG on the
// opposite transition (death cross). "Is above" alone never signals —
// only the transition does, so the first bar where both MAs are defined
// cannot itself be a crossover.
type MACrossover struct {
	cfg  CrossoverConfig
	fast *indicator.SMA
	slow *indicator.SMA

	// Previous MA values for crossover detection
	prevFast float64
	prevSlow float64
	havePrev bool
}

// NewMACrossover creates the strategy after validating cfg.
func NewMACrossover(cfg CrossoverConfig) (*MACrossover, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MACrossover{
		cfg:  cfg,
		fast: indicator.NewSMA(cfg.FastWindow),
		slow: indicator.NewSMA(cfg.SlowWindow),
	}, nil
}

func (s *MACrossover) Name() string { return "ma-crossover" }

// Warmup: the slow MA defines first, then one more bar establishes the
// prior relationship a crossover is detected against.
func (s *MACrossover) Warmup() int { return s.cfg.SlowWindow }

func (s *MACrossover) Exits() ExitRules {
	return ExitRules{
		StopLossPct:  s.cfg.StopLossPct,
		ExitOnSignal: true,
	}
}

func (s *MACrossover) OnBar(bar model.Bar) Signal {
	s.fast.Update(bar)
	s.slow.Update(bar)

	if !s.fast.Ready() || !s.slow.Ready() {
		return NoSignal
	}

	fastMA := s.fast.Value()
	slowMA := s.slow.Value()

	// First defined bar: no prior state to compare, so it can never be a
	// crossover itself. The pre-warmup state counts as "not above": seed
	// a flat baseline so a fast MA already above the slow MA registers
	// as its first-exceed transition on the next evaluation.
	if !s.havePrev {
		s.prevFast = slowMA
		s.prevSlow = slowMA
		s.havePrev = true
		return NoSignal
	}

	sig := NoSignal
	switch {
	case s.prevFast <= s.prevSlow && fastMA > slowMA:
		// Golden cross: fast crosses above slow
		sig = Signal{
			Type: SignalEnterLong,
			Reason: fmt.Sprintf("golden cross: SMA_%d %.2f > SMA_%d %.2f",
				s.cfg.FastWindow, fastMA, s.cfg.SlowWindow, slowMA),
		}
	case s.prevFast >= s.prevSlow && fastMA < slowMA:
		// Death cross: fast crosses below slow
		sig = Signal{
			Type: SignalExitLong,
			Reason: fmt.Sprintf("death cross: SMA_%d %.2f < SMA_%d %.2f",
				s.cfg.FastWindow, fastMA, s.cfg.SlowWindow, slowMA),
		}
	}

	s.prevFast = fastMA
	s.prevSlow = slowMA
	return sig
}
