package indicator

// PivotPoints holds the classic 7-point floor-trader pivot levels derived
// from the previous period's high, low, and close.
type PivotPoints struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	S1    float64
	S2    float64
	S3    float64
}

// Pivots computes classic pivot levels from one completed candle.
func Pivots(high, low, close float64) PivotPoints {
	p := (high + low + close) / 3
	return PivotPoints{
		Pivot: p,
		R1:    2*p - low,
		R2:    p + (high - low),
		R3:    high + 2*(p-low),
		S1:    2*p - high,
		S2:    p - (high - low),
		S3:    low - 2*(high-p),
	}
}
