package indicator

import (
	"math"
	"testing"
	"time"

	"banknifty-backtest/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func bar(closePaise int64) model.Bar {
	return model.Bar{
		Symbol: "BANKNIFTY",
		Date:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:   closePaise, High: closePaise + 5000, Low: closePaise - 5000,
		Close: closePaise, Volume: 100000,
	}
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

// ────────────────────────────────────────────────────────────
// SMA
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Hand-calculated SMA(3) for a known price series (in rupees):
	// Prices: 100, 102, 104, 103, 105
	// SMA after bar 3: (100+102+104)/3 = 102.0000
	// SMA after bar 4: (102+104+103)/3 = 103.0000
	// SMA after bar 5: (104+103+105)/3 = 104.0000

	sma := NewSMA(3)
	prices := []int64{10000, 10200, 10400, 10300, 10500} // paise
	expected := []float64{0, 0, 102.0, 103.0, 104.0}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		sma.Update(bar(p))
		if sma.Ready() != ready[i] {
			t.Errorf("bar %d: Ready()=%v, want %v", i, sma.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "SMA(3)", sma.Value(), expected[i], 0.0001)
		}
	}
}

func TestSMA_Name(t *testing.T) {
	if got := NewSMA(20).Name(); got != "SMA_20" {
		t.Errorf("Name() = %q, want SMA_20", got)
	}
}

// ────────────────────────────────────────────────────────────
// EMA
// ────────────────────────────────────────────────────────────

func TestEMA_SeedIsSMA(t *testing.T) {
	// EMA(3) seed after 3 bars = SMA of first 3 closes.
	ema := NewEMA(3)
	for _, p := range []int64{10000, 10200, 10400} {
		ema.Update(bar(p))
	}
	if !ema.Ready() {
		t.Fatal("EMA(3) should be ready after 3 bars")
	}
	assertClose(t, "EMA(3) seed", ema.Value(), 102.0, 0.0001)

	// Next bar: EMA = 103*0.5 + 102*0.5 = 102.5 (multiplier 2/(3+1)=0.5)
	ema.Update(bar(10300))
	assertClose(t, "EMA(3) step", ema.Value(), 102.5, 0.0001)
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_AllGainsPinsAt100(t *testing.T) {
	// Monotonically rising closes → average loss 0 → RSI must be pinned
	// at 100, never a division by zero.
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Update(bar(int64(10000 + i*100)))
	}
	if !rsi.Ready() {
		t.Fatal("RSI(5) should be ready after 10 bars")
	}
	assertClose(t, "RSI all gains", rsi.Value(), 100.0, 0.0001)
}

func TestRSI_Correctness_Period2(t *testing.T) {
	// Prices: 100, 101, 100, 101 (rupees)
	// Deltas: +1, -1, +1
	// After 3 bars (2 deltas): avgGain=0.5, avgLoss=0.5 → RS=1 → RSI=50
	// Bar 4 delta +1: avgGain=(0.5*1+1)/2=0.75, avgLoss=(0.5*1+0)/2=0.25
	//   RS=3 → RSI = 100 - 100/4 = 75
	rsi := NewRSI(2)
	prices := []int64{10000, 10100, 10000, 10100}
	for _, p := range prices {
		rsi.Update(bar(p))
	}
	if !rsi.Ready() {
		t.Fatal("RSI(2) should be ready")
	}
	assertClose(t, "RSI(2)", rsi.Value(), 75.0, 0.0001)
}

func TestRSI_NotReadyBeforeWarmup(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 14; i++ {
		rsi.Update(bar(10000))
		if rsi.Ready() {
			t.Fatalf("RSI(14) ready after only %d bars", i+1)
		}
	}
	rsi.Update(bar(10000))
	if !rsi.Ready() {
		t.Error("RSI(14) should be ready after 15 bars")
	}
}

// ────────────────────────────────────────────────────────────
// TrailingHigh
// ────────────────────────────────────────────────────────────

func TestTrailingHigh_ExcludesCurrentBar(t *testing.T) {
	// Highs (rupees): 101, 102, 103, 150, 104
	// After bar 4, HIGH_3 = max(101,102,103) = 103 — NOT the current
	// bar's 150.
	th := NewTrailingHigh(3)
	highs := []int64{10100, 10200, 10300, 15000, 10400}
	for i, h := range highs {
		b := bar(h - 5000) // bar() adds 5000 paise to form High
		th.Update(b)
		switch i {
		case 0, 1, 2:
			if th.Ready() {
				t.Errorf("bar %d: should not be ready", i)
			}
		case 3:
			if !th.Ready() {
				t.Fatal("bar 3: should be ready")
			}
			assertClose(t, "HIGH_3 at bar 3", th.Value(), 103.0, 0.0001)
		case 4:
			// Window is now bars 1..3: max(102,103,150) = 150
			assertClose(t, "HIGH_3 at bar 4", th.Value(), 150.0, 0.0001)
		}
	}
}

// ────────────────────────────────────────────────────────────
// VolumeAvg
// ────────────────────────────────────────────────────────────

func TestVolumeAvg_RollingMean(t *testing.T) {
	va := NewVolumeAvg(3)
	vols := []int64{100, 200, 300, 400}
	for i, v := range vols {
		b := bar(10000)
		b.Volume = v
		va.Update(b)
		if i == 2 {
			assertClose(t, "VOLAVG_3", va.Value(), 200.0, 0.0001)
		}
		if i == 3 {
			assertClose(t, "VOLAVG_3 rolled", va.Value(), 300.0, 0.0001)
		}
	}
}

// ────────────────────────────────────────────────────────────
// RealizedVol
// ────────────────────────────────────────────────────────────

func TestRealizedVol_FlatSeriesIsZero(t *testing.T) {
	rv := NewRealizedVol(5)
	for i := 0; i < 10; i++ {
		rv.Update(bar(10000))
	}
	if !rv.Ready() {
		t.Fatal("RealizedVol(5) should be ready")
	}
	assertClose(t, "RVOL flat", rv.Value(), 0.0, 0.0001)
}

func TestRealizedVol_WarmupLength(t *testing.T) {
	// Needs period returns = period+1 bars.
	rv := NewRealizedVol(4)
	for i := 0; i < 4; i++ {
		rv.Update(bar(int64(10000 + i*50)))
		if rv.Ready() {
			t.Fatalf("ready after only %d bars", i+1)
		}
	}
	rv.Update(bar(10250))
	if !rv.Ready() {
		t.Error("should be ready after 5 bars")
	}
}
