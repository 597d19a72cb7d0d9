package indicator

import "math"

// RSI returns the Relative Strength Index over the trailing period close
// deltas, using rolling-mean averaging of gains and losses.
// Requires period+1 closes. avg_loss == 0 yields 100 by definition.
func RSI(closes []float64, period int) (float64, bool) {
	if period < 1 || len(closes) < period+1 {
		return 0, false
	}
	gains, losses := gainLoss(closes)
	avgGain := mean(gains[len(gains)-period:])
	avgLoss := mean(losses[len(losses)-period:])
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// rsiSeries computes the rolling-mean RSI at every index. Positions with
// insufficient history hold NaN. Used by StochasticRSI.
func rsiSeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 1 || len(closes) < period+1 {
		return out
	}
	gains, losses := gainLoss(closes)
	avgGains := rollingMean(gains, period)
	avgLosses := rollingMean(losses, period)
	for i := period; i < len(closes); i++ {
		ag, al := avgGains[i-1], avgLosses[i-1]
		if math.IsNaN(ag) || math.IsNaN(al) {
			continue
		}
		if al == 0 {
			out[i] = 100
			continue
		}
		rs := ag / al
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// gainLoss splits close deltas into gain and loss columns. Both returned
// slices have len(closes)-1 entries; losses are stored positive.
func gainLoss(closes []float64) (gains, losses []float64) {
	n := len(closes) - 1
	gains = make([]float64, n)
	losses = make([]float64, n)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}
	return gains, losses
}
