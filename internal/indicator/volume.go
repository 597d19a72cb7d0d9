package indicator

import "math"

// VolumeAverage returns the latest volume and the mean of the period
// volumes before it. Requires period+1 volumes.
func VolumeAverage(volumes []float64, period int) (current, avg float64, ok bool) {
	if period < 1 || len(volumes) < period+1 {
		return 0, 0, false
	}
	current = volumes[len(volumes)-1]
	avg = mean(volumes[len(volumes)-1-period : len(volumes)-1])
	return current, avg, true
}

// OBV computes the On-Balance Volume series: cumulative volume added on
// up closes and subtracted on down closes, starting at 0.
func OBV(closes, volumes []float64) ([]float64, bool) {
	n := len(closes)
	if n < 2 || len(volumes) != n {
		return nil, false
	}
	obv := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv[i] = obv[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			obv[i] = obv[i-1] - volumes[i]
		default:
			obv[i] = obv[i-1]
		}
	}
	return obv, true
}

// OBVRatio returns the percentage distance of the current OBV from its
// period moving average: (obv - ma) / |ma| * 100.
func OBVRatio(closes, volumes []float64, period int) (float64, bool) {
	obv, ok := OBV(closes, volumes)
	if !ok || len(obv) < period {
		return 0, false
	}
	ma, _ := SMA(obv, period)
	if ma == 0 {
		return 0, false
	}
	return (obv[len(obv)-1] - ma) / math.Abs(ma) * 100, true
}
