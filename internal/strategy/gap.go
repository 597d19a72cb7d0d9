package strategy

import "github.com/twbeatles/upbit-autotrader/internal/model"

// gapKind classifies the open of the current candle against the previous
// close.
type gapKind int

const (
	noGap gapKind = iota
	gapUp
	gapDown
)

// analyzeGap returns the gap classification and the gap percentage.
func analyzeGap(s model.Series, threshold float64) (gapKind, float64) {
	prev, ok := s.At(1)
	cur, ok2 := s.At(0)
	if !ok || !ok2 || prev.Close == 0 {
		return noGap, 0
	}
	ratio := (cur.Open - prev.Close) / prev.Close * 100
	switch {
	case ratio > threshold:
		return gapUp, ratio
	case ratio < -threshold:
		return gapDown, ratio
	default:
		return noGap, ratio
	}
}

// gapAdjustedK scales the breakout coefficient when the session opened
// with a gap beyond the configured threshold.
func gapAdjustedK(s model.Series, p Parameters) float64 {
	kind, _ := analyzeGap(s, p.GapThreshold)
	switch kind {
	case gapUp:
		return p.K * p.GapUpFactor
	case gapDown:
		return p.K * p.GapDownFactor
	default:
		return p.K
	}
}
