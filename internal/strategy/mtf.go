package strategy

import (
	"github.com/twbeatles/upbit-autotrader/internal/indicator"
	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// Trend is a coarse direction classification over one candle interval.
type Trend string

const (
	TrendUp       Trend = "UP"
	TrendDown     Trend = "DOWN"
	TrendSideways Trend = "SIDEWAYS"
)

// DetectTrend classifies the series direction: UP when price sits above a
// rising period-MA, DOWN when below a falling one, SIDEWAYS otherwise
// (including insufficient history).
func DetectTrend(s model.Series, period int) Trend {
	closes := s.Closes()
	if len(closes) < period+1 {
		return TrendSideways
	}
	ma, ok := indicator.SMA(closes, period)
	maPrev, ok2 := indicator.SMA(closes[:len(closes)-1], period)
	if !ok || !ok2 {
		return TrendSideways
	}
	price := closes[len(closes)-1]
	switch {
	case price > ma && ma > maPrev:
		return TrendUp
	case price < ma && ma < maPrev:
		return TrendDown
	default:
		return TrendSideways
	}
}

// mtfAligned reports whether both configured intervals trend UP. Missing
// series fail the check: an enabled filter never passes on absent data.
func mtfAligned(ctx EntryContext, p Parameters) (bool, Trend, Trend) {
	if ctx.LongSeries.Len() == 0 || ctx.ShortSeries.Len() == 0 {
		return false, TrendSideways, TrendSideways
	}
	long := DetectTrend(ctx.LongSeries, p.TrendPeriod)
	short := DetectTrend(ctx.ShortSeries, p.TrendPeriod)
	return long == TrendUp && short == TrendUp, long, short
}
