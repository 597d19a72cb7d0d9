package indicator

import "math"

// ParabolicSAR computes the full SAR series using the acceleration-factor
// trend-following envelope. afStep is the acceleration increment and afMax
// its cap (typically 0.02 and 0.2). Requires at least 10 candles.
func ParabolicSAR(highs, lows, closes []float64, afStep, afMax float64) ([]float64, bool) {
	n := len(closes)
	if n < 10 || len(highs) != n || len(lows) != n {
		return nil, false
	}

	sar := make([]float64, n)
	sar[0] = closes[0]
	ep := highs[0]
	af := afStep
	uptrend := true

	for i := 1; i < n; i++ {
		next := sar[i-1] + af*(ep-sar[i-1])
		if uptrend {
			// SAR may not rise above the prior two lows.
			next = math.Min(next, math.Min(lows[i-1], lows[i]))
			if lows[i] < next {
				// Trend reversal: SAR jumps to the extreme point.
				uptrend = false
				next = ep
				ep = lows[i]
				af = afStep
			} else if highs[i] > ep {
				ep = highs[i]
				af = math.Min(af+afStep, afMax)
			}
		} else {
			next = math.Max(next, math.Max(highs[i-1], highs[i]))
			if highs[i] > next {
				uptrend = true
				next = ep
				ep = highs[i]
				af = afStep
			} else if lows[i] < ep {
				ep = lows[i]
				af = math.Min(af+afStep, afMax)
			}
		}
		sar[i] = next
	}
	return sar, true
}
