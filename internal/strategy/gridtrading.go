package strategy

import (
	"fmt"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// gridTrading lays GridCount buy levels below the previous close, spaced
// GridSpacing percent apart, and enters on the first level the price
// reaches. Each entry is closed on its own GridTakeProfit percent gain;
// the cooldown then returns the ticker to WATCHING for the next level.
// The shared risk exits still run first.
type gridTrading struct{}

func (gridTrading) Name() string { return "grid_trading" }

func (gridTrading) CheckBuy(ctx EntryContext, p Parameters) Decision {
	closes := ctx.Series.Closes()
	if len(closes) < 2 {
		return hold("insufficient candles for grid base")
	}
	base := closes[len(closes)-2]

	for i := 0; i < p.GridCount; i++ {
		level := base * (1 - p.GridSpacing/100*float64(i+1))
		if ctx.Price <= level {
			return Decision{
				Action:  ActionBuy,
				Score:   70,
				Reasons: []string{fmt.Sprintf("grid level %d reached at %.2f (base %.2f)", i+1, level, base)},
			}
		}
	}
	return hold()
}

func (gridTrading) CheckSell(ctx ExitContext, p Parameters) Decision {
	rate := ctx.Position.ProfitRate(ctx.Price)
	if rate >= p.GridTakeProfit {
		return Decision{
			Action:   ActionSell,
			Fraction: 1,
			Reason:   model.ReasonTakeProfit,
			Reasons:  []string{fmt.Sprintf("grid take profit +%.2f%%", rate)},
		}
	}
	return hold()
}
