package strategy

import (
	"fmt"

	"github.com/twbeatles/upbit-autotrader/internal/indicator"
	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// rsiReversal buys oversold dips (RSI crossing back up through the
// oversold line) and sells into overbought strength. Mean-reversion rather
// than momentum, so it skips the breakout target entirely.
type rsiReversal struct{}

func (rsiReversal) Name() string { return "rsi_reversal" }

func (rsiReversal) CheckBuy(ctx EntryContext, p Parameters) Decision {
	closes := ctx.Series.Closes()
	cur, ok := indicator.RSI(closes, p.RSIPeriod)
	if !ok {
		return hold("insufficient candles for RSI")
	}
	prev, okPrev := indicator.RSI(closes[:len(closes)-1], p.RSIPeriod)
	if !okPrev {
		return hold("insufficient candles for RSI")
	}
	if prev < p.RSIOversold && cur >= p.RSIOversold {
		return Decision{
			Action:  ActionBuy,
			Reasons: []string{fmt.Sprintf("RSI recovered %.1f -> %.1f through oversold %.1f", prev, cur, p.RSIOversold)},
		}
	}
	return hold()
}

func (rsiReversal) CheckSell(ctx ExitContext, p Parameters) Decision {
	cur, ok := indicator.RSI(ctx.Series.Closes(), p.RSIPeriod)
	if !ok {
		return hold()
	}
	if cur >= p.RSIOverbought {
		return Decision{
			Action:   ActionSell,
			Fraction: 1,
			Reason:   model.ReasonOverbought,
			Reasons:  []string{fmt.Sprintf("RSI %.1f above overbought %.1f", cur, p.RSIOverbought)},
		}
	}
	return hold()
}
