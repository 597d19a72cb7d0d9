package strategy

import "fmt"

// volatilityBreakout buys when the observed price breaks above
//
//	target = open + (prevHigh - prevLow) * k
//
// with k optionally scaled by the opening gap, then vets the breakout
// through the configured filter set, confirmation ticks, multi-timeframe
// alignment, and the entry score per the acceptance policy. It has no
// strategy-specific exit: the shared risk exits cover it entirely.
type volatilityBreakout struct{}

func (volatilityBreakout) Name() string { return "volatility_breakout" }

func (volatilityBreakout) CheckBuy(ctx EntryContext, p Parameters) Decision {
	if ctx.Series.Len() < 2 {
		return hold("insufficient candles")
	}
	cur, _ := ctx.Series.At(0)
	prev, _ := ctx.Series.At(1)

	k := p.K
	if p.UseGapAdjust {
		k = gapAdjustedK(ctx.Series, p)
	}
	target := cur.Open + (prev.High-prev.Low)*k
	if ctx.Price < target {
		return hold(fmt.Sprintf("price %.2f below target %.2f", ctx.Price, target))
	}

	snap := buildSnapshot(ctx.Series, p)
	snap.Target = target
	snap.K = k

	score, scoreReasons := entryScore(ctx.Price, target, snap, p)

	if p.EntryPolicy != PolicyScore {
		if ok, reason := checkHardFilters(ctx.Price, snap, p); !ok {
			return hold(reason)
		}
	}
	if p.EntryPolicy != PolicyFilters && score < p.EntryThreshold {
		return hold(fmt.Sprintf("score %.0f below threshold %.0f", score, p.EntryThreshold))
	}

	if p.UseBreakoutConfirm {
		if !breakoutConfirmed(ctx.Recent, target, p.ConfirmTicks) {
			return hold(fmt.Sprintf("breakout not held for %d ticks", p.ConfirmTicks))
		}
	}
	if p.UseMTF {
		aligned, long, short := mtfAligned(ctx, p)
		if !aligned {
			return hold(fmt.Sprintf("trend not aligned (long %s, short %s)", long, short))
		}
	}

	reasons := append([]string{fmt.Sprintf("target %.2f broken (k=%.3f)", target, k)}, scoreReasons...)
	return Decision{Action: ActionBuy, Score: score, Reasons: reasons}
}

func (volatilityBreakout) CheckSell(ctx ExitContext, p Parameters) Decision {
	return hold()
}

// checkHardFilters applies every enabled entry filter in a fixed order and
// returns the first failure. A filter whose indicator could not be computed
// from the available history fails rather than passing by default.
func checkHardFilters(price float64, snap Snapshot, p Parameters) (bool, string) {
	if p.UseMAFilter {
		if !snap.MAOK {
			return false, fmt.Sprintf("insufficient data for MA%d filter", p.MAPeriod)
		}
		if price < snap.MA {
			return false, fmt.Sprintf("price %.2f below MA%d %.2f", price, p.MAPeriod, snap.MA)
		}
	}
	if p.UseRSIFilter {
		if !snap.RSIOK {
			return false, "insufficient data for RSI filter"
		}
		if snap.RSI >= p.RSIUpper {
			return false, fmt.Sprintf("RSI %.1f at or above %.1f", snap.RSI, p.RSIUpper)
		}
	}
	if p.UseMACDFilter {
		if !snap.MACDOK {
			return false, "insufficient data for MACD filter"
		}
		if snap.MACD.MACD <= snap.MACD.Signal {
			return false, "MACD below signal line"
		}
	}
	if p.UseVolumeFilter {
		if !snap.VolumeOK {
			return false, "insufficient data for volume filter"
		}
		if snap.CurrentVolume < snap.AvgVolume*p.VolumeMultiplier {
			return false, fmt.Sprintf("volume %.1f below %.1fx average", snap.CurrentVolume, p.VolumeMultiplier)
		}
	}
	if p.UseBollingerFilter {
		if !snap.BandsOK {
			return false, "insufficient data for Bollinger filter"
		}
		if price > snap.Bands.Upper {
			return false, fmt.Sprintf("price %.2f above upper band %.2f", price, snap.Bands.Upper)
		}
	}
	if p.UseStochRSIFilter {
		if !snap.StochOK {
			return false, "insufficient data for StochRSI filter"
		}
		if snap.StochRSI.K > p.StochRSIUpper {
			return false, fmt.Sprintf("StochRSI K %.1f above %.1f", snap.StochRSI.K, p.StochRSIUpper)
		}
	}
	if p.UseADXFilter {
		if !snap.DMIOK {
			return false, "insufficient data for ADX filter"
		}
		if snap.DMI.ADX < p.ADXMin {
			return false, fmt.Sprintf("ADX %.1f below %.1f", snap.DMI.ADX, p.ADXMin)
		}
	}
	return true, ""
}

// breakoutConfirmed reports whether the trailing n tick observations all
// held at or above the target.
func breakoutConfirmed(recent []float64, target float64, n int) bool {
	if n <= 0 {
		return true
	}
	if len(recent) < n {
		return false
	}
	for _, v := range recent[len(recent)-n:] {
		if v < target {
			return false
		}
	}
	return true
}
