package backtest

import (
	"context"
	"errors"
	"testing"

	"banknifty-backtest/internal/model"
	"banknifty-backtest/internal/strategy"
)

func risingBars(n int, fromPaise, toPaise int64) []model.Bar {
	bars := make([]model.Bar, n)
	step := (toPaise - fromPaise) / int64(n-1)
	for i := range bars {
		c := fromPaise + int64(i)*step
		bars[i] = model.Bar{
			Symbol: "BANKNIFTY",
			Date:   tradingDay(i),
			Open:   c, High: c + 50, Low: c - 50, Close: c,
			Volume: 100000,
		}
	}
	return bars
}

func mustCrossover(t *testing.T, cfg strategy.CrossoverConfig) strategy.Strategy {
	t.Helper()
	strat, err := strategy.NewMACrossover(cfg)
	if err != nil {
		t.Fatalf("NewMACrossover: %v", err)
	}
	return strat
}

func TestRun_RisingSeriesProducesSingleLongTrade(t *testing.T) {
	bars := risingBars(60, 100_00, 200_00)
	strat := mustCrossover(t, strategy.DefaultCrossoverConfig())

	res, err := Run(context.Background(), bars, strat, DefaultSimConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("expected exactly 1 trade on a monotonic rise, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != model.ExitEndOfData {
		t.Errorf("exit reason = %s, want %s: nothing but data exhaustion should close it", tr.Reason, model.ExitEndOfData)
	}
	// golden cross fires on bar 50; the fill lands on bar 51's open
	if !tr.EntryDate.Equal(bars[51].Date) {
		t.Errorf("entry date = %v, want %v", tr.EntryDate, bars[51].Date)
	}
	if res.Report.TotalPnL <= 0 {
		t.Errorf("total PnL = %d on a rising market, want positive", res.Report.TotalPnL)
	}
}

func TestRun_EmptySeriesIsMalformed(t *testing.T) {
	strat := mustCrossover(t, strategy.DefaultCrossoverConfig())

	_, err := Run(context.Background(), nil, strat, DefaultSimConfig())
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestRun_OutOfOrderDatesAreMalformed(t *testing.T) {
	bars := risingBars(60, 100_00, 200_00)
	bars[10].Date, bars[11].Date = bars[11].Date, bars[10].Date
	strat := mustCrossover(t, strategy.DefaultCrossoverConfig())

	_, err := Run(context.Background(), bars, strat, DefaultSimConfig())
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestRun_ShortSeriesIsInsufficientHistory(t *testing.T) {
	bars := risingBars(50, 100_00, 200_00) // exactly the slow window, one short
	strat := mustCrossover(t, strategy.DefaultCrossoverConfig())

	_, err := Run(context.Background(), bars, strat, DefaultSimConfig())
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}
	if errors.Is(err, ErrMalformedInput) {
		t.Fatal("error kinds must stay distinct")
	}
}

func TestRun_Deterministic(t *testing.T) {
	bars := risingBars(120, 100_00, 180_00)
	cfg := DefaultSimConfig()

	first, err := Run(context.Background(), bars, mustCrossover(t, strategy.DefaultCrossoverConfig()), cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Run(context.Background(), bars, mustCrossover(t, strategy.DefaultCrossoverConfig()), cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Report != second.Report {
		t.Errorf("identical inputs diverged:\n%+v\n%+v", first.Report, second.Report)
	}
	if len(first.Trades) != len(second.Trades) {
		t.Errorf("trade counts diverged: %d vs %d", len(first.Trades), len(second.Trades))
	}
}
