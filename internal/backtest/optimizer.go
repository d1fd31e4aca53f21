package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"banknifty-backtest/internal/metrics"
	"banknifty-backtest/internal/model"
	"banknifty-backtest/internal/strategy"
)

// ParamRange enumerates an inclusive integer sweep in fixed steps.
type ParamRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
	Step int `yaml:"step"`
}

func (r ParamRange) values() []int {
	if r.Step <= 0 || r.To < r.From {
		return []int{r.From}
	}
	var vs []int
	for v := r.From; v <= r.To; v += r.Step {
		vs = append(vs, v)
	}
	return vs
}

// OptimizeConfig describes a crossover parameter sweep. Stop-loss values
// are in basis points so the grid stays integral.
type OptimizeConfig struct {
	Fast       ParamRange `yaml:"fast"`
	Slow       ParamRange `yaml:"slow"`
	StopLossBp ParamRange `yaml:"stop_loss_bp"`
	Workers    int        `yaml:"workers"`

	// Prom, when set, records per-cell sweep metrics.
	Prom *metrics.Metrics `yaml:"-"`
}

// OptimizeResult is one grid cell's outcome, ranked by total PnL.
type OptimizeResult struct {
	Config strategy.CrossoverConfig
	Report model.PerformanceReport
}

// Optimize sweeps the crossover grid over the given bars and returns
// every combination's report sorted by total PnL, best first. Cells with
// fast >= slow are skipped before dispatch. Each worker builds its own
// strategy and simulator, so runs never share mutable state and the
// ranking is identical no matter how many workers run.
func Optimize(ctx context.Context, bars []model.Bar, oc OptimizeConfig, sim SimConfig) ([]OptimizeResult, error) {
	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var grid []strategy.CrossoverConfig
	for _, fast := range oc.Fast.values() {
		for _, slow := range oc.Slow.values() {
			if fast >= slow {
				continue
			}
			for _, bp := range oc.StopLossBp.values() {
				grid = append(grid, strategy.CrossoverConfig{
					FastWindow:  fast,
					SlowWindow:  slow,
					StopLossPct: float64(bp) / 10000.0,
				})
			}
		}
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: optimizer grid is empty", strategy.ErrInvalidConfig)
	}

	workers := oc.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(grid) {
		workers = len(grid)
	}

	jobs := make(chan strategy.CrossoverConfig)
	results := make([]OptimizeResult, 0, len(grid))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cc := range jobs {
				strat, err := strategy.NewMACrossover(cc)
				if err != nil {
					continue
				}
				if len(bars) <= strat.Warmup() {
					continue
				}
				start := time.Now()
				s := NewSimulator(strat.Name(), strat.Exits(), sim)
				trades := s.Run(bars, strat)
				report := Analyze(strat.Name(), trades, sim.InitialCapital)
				if oc.Prom != nil {
					oc.Prom.SweepCells.Inc()
					oc.Prom.RunsTotal.WithLabelValues(strat.Name()).Inc()
					oc.Prom.BarsProcessed.Add(float64(len(bars)))
					oc.Prom.RunDuration.Observe(time.Since(start).Seconds())
					for _, tr := range trades {
						oc.Prom.TradesTotal.WithLabelValues(strat.Name(), string(tr.Reason)).Inc()
					}
				}
				mu.Lock()
				results = append(results, OptimizeResult{Config: cc, Report: report})
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, cc := range grid {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- cc:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Report.TotalPnL != b.Report.TotalPnL {
			return a.Report.TotalPnL > b.Report.TotalPnL
		}
		if a.Config.FastWindow != b.Config.FastWindow {
			return a.Config.FastWindow < b.Config.FastWindow
		}
		return a.Config.SlowWindow < b.Config.SlowWindow
	})
	return results, nil
}
