package indicator

import "math"

// DMI holds the directional movement values: +DI, -DI, and ADX.
type DMI struct {
	PlusDI  float64
	MinusDI float64
	ADX     float64
}

// DMIADX computes the Directional Movement Index and ADX over period.
// Directional movement is smoothed by the rolling-mean true range, and
// ADX is the rolling mean of |+DI - -DI| / (+DI + -DI) * 100.
// Requires 2*period candles; undefined intermediate values collapse to 0.
func DMIADX(highs, lows, closes []float64, period int) (DMI, bool) {
	n := len(highs)
	if period < 1 || n < 2*period || len(lows) != n || len(closes) != n {
		return DMI{}, false
	}

	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up < 0 {
			up = 0
		}
		if down < 0 {
			down = 0
		}
		// Only the dominant direction counts per bar.
		if up > down {
			plusDM[i-1] = up
		} else if down > up {
			minusDM[i-1] = down
		}
	}

	tr := trueRanges(highs, lows, closes)[1:]
	atr := rollingMean(tr, period)
	plusSm := rollingMean(plusDM, period)
	minusSm := rollingMean(minusDM, period)

	dx := make([]float64, len(tr))
	plusDI := make([]float64, len(tr))
	minusDI := make([]float64, len(tr))
	for i := range dx {
		dx[i] = math.NaN()
		plusDI[i] = math.NaN()
		minusDI[i] = math.NaN()
		if math.IsNaN(atr[i]) || atr[i] == 0 {
			continue
		}
		plusDI[i] = 100 * plusSm[i] / atr[i]
		minusDI[i] = 100 * minusSm[i] / atr[i]
		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	last := len(tr) - 1
	out := DMI{}
	if !math.IsNaN(plusDI[last]) {
		out.PlusDI = plusDI[last]
	}
	if !math.IsNaN(minusDI[last]) {
		out.MinusDI = minusDI[last]
	}
	if adx := trailingMeanNaN(dx, period); !math.IsNaN(adx) {
		out.ADX = adx
	}
	return out, true
}
