package indicator

import "banknifty-backtest/internal/model"

// Series is a named derived sequence aligned one-to-one with a bar
// sequence. Entries before the lookback window has enough data carry
// Defined=false — explicitly unavailable, not zero.
type Series struct {
	Name    string
	Values  []float64
	Defined []bool
}

// Compute drives a fresh indicator across the full bar sequence and
// returns the bar-aligned series. The indicator must not have been fed
// any bars yet.
func Compute(ind Indicator, bars []model.Bar) Series {
	s := Series{
		Name:    ind.Name(),
		Values:  make([]float64, len(bars)),
		Defined: make([]bool, len(bars)),
	}
	for i := range bars {
		ind.Update(bars[i])
		if ind.Ready() {
			s.Values[i] = ind.Value()
			s.Defined[i] = true
		}
	}
	return s
}

// At returns the value at index i and whether it is defined.
func (s *Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s.Values) || !s.Defined[i] {
		return 0, false
	}
	return s.Values[i], true
}

// Len returns the series length.
func (s *Series) Len() int { return len(s.Values) }
