package indicator

// WilliamsR returns Williams %R over the trailing period: -100 when the
// close sits at the period low, 0 at the period high.
func WilliamsR(highs, lows, closes []float64, period int) (float64, bool) {
	hw := window(highs, period)
	lw := window(lows, period)
	if hw == nil || lw == nil || len(closes) == 0 {
		return 0, false
	}
	hi := maxOf(hw)
	lo := minOf(lw)
	if hi == lo {
		return 0, false
	}
	close := closes[len(closes)-1]
	return -100 * (hi - close) / (hi - lo), true
}

// CCI returns the Commodity Channel Index:
// (TP - SMA(TP)) / (0.015 * mean absolute deviation of TP) over period,
// where TP is the typical price (high+low+close)/3.
func CCI(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period < 1 || n < period || len(highs) != n || len(lows) != n {
		return 0, false
	}
	tp := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	w := window(tp, period)
	m := mean(w)
	mad := 0.0
	for _, v := range w {
		d := v - m
		if d < 0 {
			d = -d
		}
		mad += d
	}
	mad /= float64(period)
	if mad == 0 {
		return 0, false
	}
	return (tp[n-1] - m) / (0.015 * mad), true
}
