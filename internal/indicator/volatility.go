package indicator

import (
	"math"
	"strconv"

	"banknifty-backtest/internal/model"
)

// tradingDaysPerYear annualizes daily return volatility.
const tradingDaysPerYear = 252

// RealizedVol calculates annualized realized volatility: the sample
// standard deviation of daily log close returns over a rolling window,
// scaled by sqrt(252). Reported as a percentage (e.g. 18.5 = 18.5%).
type RealizedVol struct {
	period    int
	buf       []float64 // circular buffer of log returns
	idx       int
	count     int // returns received (bars seen - 1)
	prevClose float64
	seen      int
	current   float64
}

// NewRealizedVol creates a realized-volatility indicator over the given
// number of daily returns.
func NewRealizedVol(period int) *RealizedVol {
	return &RealizedVol{
		period: period,
		buf:    make([]float64, period),
	}
}

func (r *RealizedVol) Name() string { return "RVOL_" + strconv.Itoa(r.period) }

func (r *RealizedVol) Update(bar model.Bar) {
	price := bar.CloseRupees()
	r.seen++

	if r.seen == 1 {
		r.prevClose = price
		return
	}

	ret := math.Log(price / r.prevClose)
	r.prevClose = price

	r.buf[r.idx] = ret
	r.idx = (r.idx + 1) % r.period
	if r.count < r.period {
		r.count++
	}

	if r.count < r.period {
		return
	}

	// Sample stddev over the window, annualized.
	mean := 0.0
	for _, v := range r.buf {
		mean += v
	}
	mean /= float64(r.period)

	variance := 0.0
	for _, v := range r.buf {
		d := v - mean
		variance += d * d
	}
	variance /= float64(r.period - 1)

	r.current = math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear) * 100
}

func (r *RealizedVol) Value() float64 { return r.current }
func (r *RealizedVol) Ready() bool    { return r.count >= r.period }
