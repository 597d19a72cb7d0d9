package indicator

// BollingerBands holds the upper, middle, and lower band values.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger computes middle = SMA(period) of closes and upper/lower at
// k sample standard deviations around it.
func Bollinger(closes []float64, period int, k float64) (BollingerBands, bool) {
	w := window(closes, period)
	if w == nil {
		return BollingerBands{}, false
	}
	middle := mean(w)
	sd := stddev(w)
	return BollingerBands{
		Upper:  middle + k*sd,
		Middle: middle,
		Lower:  middle - k*sd,
	}, true
}
