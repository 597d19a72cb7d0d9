// Package indicator provides technical indicator calculations over candle
// columns (close/high/low/volume slices).
//
// Every function is pure and stateless: given the same input series it
// returns the same value, and a series shorter than the required window
// yields ok=false instead of an error or a panic. The signal engine maps
// ok=false to its neutral defaults.
package indicator

import "math"

// mean returns the arithmetic mean of vals. Returns 0 for an empty slice.
func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev returns the sample standard deviation (n-1 denominator) of vals.
func stddev(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}
	m := mean(vals)
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// window returns the trailing n elements of vals, or nil if too short.
func window(vals []float64, n int) []float64 {
	if n <= 0 || len(vals) < n {
		return nil
	}
	return vals[len(vals)-n:]
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// SMA returns the simple moving average of the trailing period values.
func SMA(vals []float64, period int) (float64, bool) {
	w := window(vals, period)
	if w == nil {
		return 0, false
	}
	return mean(w), true
}

// EMA returns the exponential moving average over the whole series,
// seeded at the first value with multiplier 2/(period+1).
func EMA(vals []float64, period int) (float64, bool) {
	if period <= 0 || len(vals) == 0 {
		return 0, false
	}
	s := emaSeries(vals, period)
	return s[len(s)-1], true
}

// emaSeries computes the full recursive EMA series seeded at vals[0].
func emaSeries(vals []float64, period int) []float64 {
	out := make([]float64, len(vals))
	k := 2.0 / float64(period+1)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = vals[i]*k + out[i-1]*(1-k)
	}
	return out
}

// rollingMean computes the trailing-window mean series. Positions with
// fewer than period values available hold NaN.
func rollingMean(vals []float64, period int) []float64 {
	out := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= period {
			sum -= vals[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
