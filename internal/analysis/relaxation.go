package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/springnet/internal/sim"
)

// DecayRate fits KE(t) ~ exp(-rate*t) over the frames with positive kinetic
// energy and returns rate and the R² of the log-linear fit.
func DecayRate(frames []sim.Frame) (rate, r2 float64, err error) {
	var ts, logs []float64
	for _, f := range frames {
		if f.KineticEnergy > 0 {
			ts = append(ts, f.Time)
			logs = append(logs, math.Log(f.KineticEnergy))
		}
	}
	if len(ts) < 3 {
		return 0, 0, ErrTooShort
	}

	alpha, slope := stat.LinearRegression(ts, logs, nil, false)
	r2 = stat.RSquared(ts, logs, nil, alpha, slope)
	return -slope, r2, nil
}

// SettleTime is the time of the first frame after which kinetic energy stays
// below threshold. ok is false when the run never settles.
func SettleTime(frames []sim.Frame, threshold float64) (t float64, ok bool) {
	settled := -1
	for i, f := range frames {
		if f.KineticEnergy < threshold {
			if settled < 0 {
				settled = i
			}
		} else {
			settled = -1
		}
	}
	if settled < 0 {
		return 0, false
	}
	return frames[settled].Time, true
}
