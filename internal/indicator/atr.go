package indicator

import "math"

// ATR returns the Average True Range: the rolling mean over period of
// max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	tr := trueRanges(highs, lows, closes)
	w := window(tr, period)
	if w == nil {
		return 0, false
	}
	return mean(w), true
}

// trueRanges computes the true-range column. The first element has no
// previous close and falls back to high-low.
func trueRanges(highs, lows, closes []float64) []float64 {
	n := len(highs)
	if n == 0 || len(lows) != n || len(closes) != n {
		return nil
	}
	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}
