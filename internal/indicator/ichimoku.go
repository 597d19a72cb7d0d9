package indicator

// Ichimoku holds the five Ichimoku Cloud lines evaluated at the latest
// candle (spans are not displaced; callers compare price to the cloud).
type Ichimoku struct {
	Tenkan  float64 // conversion line (9)
	Kijun   float64 // base line (26)
	SenkouA float64 // leading span A
	SenkouB float64 // leading span B (52)
	Chikou  float64 // lagging span (latest close)
}

// CloudTop returns the upper boundary of the cloud.
func (ic Ichimoku) CloudTop() float64 {
	if ic.SenkouA > ic.SenkouB {
		return ic.SenkouA
	}
	return ic.SenkouB
}

// CloudBottom returns the lower boundary of the cloud.
func (ic Ichimoku) CloudBottom() float64 {
	if ic.SenkouA < ic.SenkouB {
		return ic.SenkouA
	}
	return ic.SenkouB
}

// IchimokuCloud computes the standard 9/26/52 Ichimoku lines.
// Requires 52 candles.
func IchimokuCloud(highs, lows, closes []float64) (Ichimoku, bool) {
	n := len(closes)
	if n < 52 || len(highs) != n || len(lows) != n {
		return Ichimoku{}, false
	}
	mid := func(period int) float64 {
		return (maxOf(window(highs, period)) + minOf(window(lows, period))) / 2
	}
	tenkan := mid(9)
	kijun := mid(26)
	return Ichimoku{
		Tenkan:  tenkan,
		Kijun:   kijun,
		SenkouA: (tenkan + kijun) / 2,
		SenkouB: mid(52),
		Chikou:  closes[n-1],
	}, true
}
