package indicator

import "math"

// StochRSI holds the smoothed %K and %D lines of the stochastic RSI.
type StochRSI struct {
	K float64
	D float64
}

// StochasticRSI rescales the RSI to its own rolling min/max over
// stochPeriod, then smooths the result with kPeriod and dPeriod moving
// averages. Requires rsiPeriod+stochPeriod closes.
func StochasticRSI(closes []float64, rsiPeriod, stochPeriod, kPeriod, dPeriod int) (StochRSI, bool) {
	if len(closes) < rsiPeriod+stochPeriod {
		return StochRSI{}, false
	}
	rsi := rsiSeries(closes, rsiPeriod)

	stoch := make([]float64, len(rsi))
	for i := range stoch {
		stoch[i] = math.NaN()
		if i < stochPeriod-1 {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		valid := true
		for j := i - stochPeriod + 1; j <= i; j++ {
			if math.IsNaN(rsi[j]) {
				valid = false
				break
			}
			lo = math.Min(lo, rsi[j])
			hi = math.Max(hi, rsi[j])
		}
		if !valid || hi == lo {
			continue
		}
		stoch[i] = (rsi[i] - lo) / (hi - lo) * 100
	}

	k := trailingMeanNaN(stoch, kPeriod)
	d := trailingMeanNaN(stoch, dPeriod)
	if math.IsNaN(k) {
		k = 50
	}
	if math.IsNaN(d) {
		d = 50
	}
	return StochRSI{K: k, D: d}, true
}

// trailingMeanNaN returns the mean of the trailing n values, or NaN when
// any of them is NaN or the series is too short.
func trailingMeanNaN(vals []float64, n int) float64 {
	if n < 1 || len(vals) < n {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals[len(vals)-n:] {
		if math.IsNaN(v) {
			return math.NaN()
		}
		sum += v
	}
	return sum / float64(n)
}
