package strategy

import (
	"fmt"

	"github.com/twbeatles/upbit-autotrader/internal/indicator"
	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// goldenCross buys when the short MA crosses above the long MA on the most
// recent candle, and sells on the opposite cross (dead cross). The shared
// risk exits still run first.
type goldenCross struct{}

func (goldenCross) Name() string { return "golden_cross" }

func (goldenCross) CheckBuy(ctx EntryContext, p Parameters) Decision {
	short, long, shortPrev, longPrev, ok := crossMAs(ctx.Series, p)
	if !ok {
		return hold("insufficient candles for MA cross")
	}
	if shortPrev <= longPrev && short > long {
		return Decision{
			Action:  ActionBuy,
			Reasons: []string{fmt.Sprintf("golden cross: MA%d %.2f over MA%d %.2f", p.ShortMAPeriod, short, p.LongMAPeriod, long)},
		}
	}
	return hold()
}

func (goldenCross) CheckSell(ctx ExitContext, p Parameters) Decision {
	short, long, shortPrev, longPrev, ok := crossMAs(ctx.Series, p)
	if !ok {
		return hold()
	}
	if shortPrev >= longPrev && short < long {
		return Decision{
			Action:   ActionSell,
			Fraction: 1,
			Reason:   model.ReasonDeadCross,
			Reasons:  []string{fmt.Sprintf("dead cross: MA%d %.2f under MA%d %.2f", p.ShortMAPeriod, short, p.LongMAPeriod, long)},
		}
	}
	return hold()
}

// crossMAs computes the short and long SMAs at the latest candle and one
// candle back.
func crossMAs(s model.Series, p Parameters) (short, long, shortPrev, longPrev float64, ok bool) {
	closes := s.Closes()
	if len(closes) < p.LongMAPeriod+1 {
		return 0, 0, 0, 0, false
	}
	short, ok1 := indicator.SMA(closes, p.ShortMAPeriod)
	long, ok2 := indicator.SMA(closes, p.LongMAPeriod)
	prev := closes[:len(closes)-1]
	shortPrev, ok3 := indicator.SMA(prev, p.ShortMAPeriod)
	longPrev, ok4 := indicator.SMA(prev, p.LongMAPeriod)
	return short, long, shortPrev, longPrev, ok1 && ok2 && ok3 && ok4
}
