package indicator

import (
	"strconv"

	"banknifty-backtest/internal/model"
)

// VolumeAvg calculates the rolling arithmetic mean of daily volume.
// Same circular-buffer scheme as SMA, fed from Volume instead of Close.
// Zero-volume bars are averaged as-is; they are a data artifact, not an
// error.
type VolumeAvg struct {
	period  int
	buf     []float64
	idx     int
	count   int
	sum     float64
	current float64
}

// NewVolumeAvg creates a rolling volume average over the given period.
func NewVolumeAvg(period int) *VolumeAvg {
	return &VolumeAvg{
		period: period,
		buf:    make([]float64, period),
	}
}

func (v *VolumeAvg) Name() string { return "VOLAVG_" + strconv.Itoa(v.period) }

func (v *VolumeAvg) Update(bar model.Bar) {
	vol := float64(bar.Volume)

	if v.count >= v.period {
		v.sum -= v.buf[v.idx]
	}

	v.buf[v.idx] = vol
	v.sum += vol
	v.idx = (v.idx + 1) % v.period
	v.count++

	if v.count >= v.period {
		v.current = v.sum / float64(v.period)
	}
}

func (v *VolumeAvg) Value() float64 { return v.current }
func (v *VolumeAvg) Ready() bool    { return v.count >= v.period }
