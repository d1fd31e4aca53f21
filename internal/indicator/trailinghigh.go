package indicator

import (
	"strconv"

	"banknifty-backtest/internal/model"
)

// TrailingHigh tracks the highest high over the previous N bars,
// excluding the bar most recently fed. After Update(bar i), Value()
// is the max high of bars i-N .. i-1, which is what breakout rules
// compare the current close against.
type TrailingHigh struct {
	period  int
	buf     []float64 // circular buffer of prior highs
	idx     int
	seen    int // total bars fed
	current float64
}

// NewTrailingHigh creates a trailing-high indicator over the given window.
func NewTrailingHigh(period int) *TrailingHigh {
	return &TrailingHigh{
		period: period,
		buf:    make([]float64, period),
	}
}

func (t *TrailingHigh) Name() string { return "HIGH_" + strconv.Itoa(t.period) }

func (t *TrailingHigh) Update(bar model.Bar) {
	if t.seen >= t.period {
		// Window of prior bars is full — compute its max before the
		// current bar's high enters. Linear scan is fine at daily
		// frequency.
		m := t.buf[0]
		for _, v := range t.buf[1:] {
			if v > m {
				m = v
			}
		}
		t.current = m
	}

	t.buf[t.idx] = bar.HighRupees()
	t.idx = (t.idx + 1) % t.period
	t.seen++
}

func (t *TrailingHigh) Value() float64 { return t.current }

// Ready requires period prior bars, so the first defined value appears
// on bar period+1.
func (t *TrailingHigh) Ready() bool { return t.seen > t.period }
