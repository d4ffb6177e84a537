package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: series too short")

// PowerSpectrum returns the magnitude of each non-negative frequency bin of
// data after removing its mean, and the bin frequencies in cycles per unit
// of dt.
func PowerSpectrum(data []float64, dt float64) (power, freqs []float64, err error) {
	n := len(data)
	if n < 4 {
		return nil, nil, ErrTooShort
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	power = make([]float64, len(coeff))
	freqs = make([]float64, len(coeff))
	for i, c := range coeff {
		power[i] = cmplx.Abs(c)
		freqs[i] = fft.Freq(i) / dt
	}
	return power, freqs, nil
}

// DominantPeriod is the period of the strongest non-zero frequency in data,
// or 0 when the series carries no oscillation.
func DominantPeriod(data []float64, dt float64) (float64, error) {
	power, freqs, err := PowerSpectrum(data, dt)
	if err != nil {
		return 0, err
	}
	best := 1
	for i := 2; i < len(power); i++ {
		if power[i] > power[best] {
			best = i
		}
	}
	if power[best] < 1e-12 {
		return 0, nil
	}
	return 1 / freqs[best], nil
}
