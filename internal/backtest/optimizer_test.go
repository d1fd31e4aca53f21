package backtest

import (
	"context"
	"errors"
	"testing"
)

func sweepConfig() OptimizeConfig {
	return OptimizeConfig{
		Fast:       ParamRange{From: 5, To: 15, Step: 5},
		Slow:       ParamRange{From: 10, To: 30, Step: 10},
		StopLossBp: ParamRange{From: 200, To: 200, Step: 0},
		Workers:    4,
	}
}

func TestOptimize_SkipsDegenerateCells(t *testing.T) {
	bars := risingBars(120, 100_00, 180_00)

	results, err := Optimize(context.Background(), bars, sweepConfig(), DefaultSimConfig())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	// fast {5,10,15} x slow {10,20,30} minus fast >= slow leaves 7 cells
	if len(results) != 7 {
		t.Fatalf("got %d results, want 7", len(results))
	}
	for _, r := range results {
		if r.Config.FastWindow >= r.Config.SlowWindow {
			t.Errorf("degenerate cell survived: fast %d >= slow %d",
				r.Config.FastWindow, r.Config.SlowWindow)
		}
	}
}

func TestOptimize_RankedByTotalPnL(t *testing.T) {
	bars := risingBars(120, 100_00, 180_00)

	results, err := Optimize(context.Background(), bars, sweepConfig(), DefaultSimConfig())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Report.TotalPnL > results[i-1].Report.TotalPnL {
			t.Errorf("results out of order at %d: %d after %d",
				i, results[i].Report.TotalPnL, results[i-1].Report.TotalPnL)
		}
	}
}

func TestOptimize_DeterministicAcrossWorkerCounts(t *testing.T) {
	bars := risingBars(120, 100_00, 180_00)

	serial := sweepConfig()
	serial.Workers = 1
	parallel := sweepConfig()
	parallel.Workers = 8

	a, err := Optimize(context.Background(), bars, serial, DefaultSimConfig())
	if err != nil {
		t.Fatalf("serial sweep: %v", err)
	}
	b, err := Optimize(context.Background(), bars, parallel, DefaultSimConfig())
	if err != nil {
		t.Fatalf("parallel sweep: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("result counts diverged: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Config != b[i].Config || a[i].Report != b[i].Report {
			t.Errorf("cell %d diverged across worker counts", i)
		}
	}
}

func TestOptimize_EmptyGridRejected(t *testing.T) {
	bars := risingBars(60, 100_00, 200_00)
	oc := OptimizeConfig{
		Fast: ParamRange{From: 50, To: 50},
		Slow: ParamRange{From: 10, To: 10},
	}

	_, err := Optimize(context.Background(), bars, oc, DefaultSimConfig())
	if err == nil {
		t.Fatal("expected an error for an all-degenerate grid")
	}
}

func TestOptimize_MalformedBarsRejected(t *testing.T) {
	_, err := Optimize(context.Background(), nil, sweepConfig(), DefaultSimConfig())
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestOptimize_CancelledContextAborts(t *testing.T) {
	bars := risingBars(120, 100_00, 180_00)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Optimize(ctx, bars, sweepConfig(), DefaultSimConfig()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}