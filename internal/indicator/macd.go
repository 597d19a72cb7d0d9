package indicator

// MACDResult holds the MACD line, its signal EMA, and the histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes the moving average convergence/divergence from fast and
// slow EMAs of the closes plus a signal EMA of the MACD line itself.
// Requires at least slow+signal closes for a stable reading.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, bool) {
	if len(closes) < slow+signal {
		return MACDResult{}, false
	}
	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := emaSeries(macdLine, signal)
	last := len(closes) - 1
	return MACDResult{
		MACD:      macdLine[last],
		Signal:    signalLine[last],
		Histogram: macdLine[last] - signalLine[last],
	}, true
}
