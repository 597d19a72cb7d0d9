// Package strategy implements the signal engine: the single deterministic
// decision core shared by the live driver and the backtest simulator.
//
// The engine is stateless and safe to call concurrently across tickers.
// All position state it needs arrives in the ExitContext; all market data
// in the EntryContext. Neither evaluation path touches the clock, the
// network, or any configuration source.
package strategy

import (
	"fmt"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// Action is the classified decision for one evaluation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Decision is the engine's output for one evaluation instant.
type Decision struct {
	Action   Action
	Fraction float64 // (0,1] of quantity for SELL; 1 = full close
	Score    float64 // 0-100 entry score (entry evaluations only)
	Reason   model.CloseReason
	Reasons  []string // ordered human-readable contributing factors

	// PartialLevel is the ladder trigger rate that produced a partial
	// SELL, so the caller can mark it executed. Zero otherwise.
	PartialLevel float64
}

// hold is the neutral decision.
func hold(reasons ...string) Decision {
	return Decision{Action: ActionHold, Reasons: reasons}
}

// EntryContext carries everything an entry evaluation may read.
type EntryContext struct {
	Series model.Series // primary-interval candles, oldest first
	Price  float64      // current observed price

	// Recent holds the trailing observed tick prices (oldest first,
	// including Price) for breakout confirmation. May be nil.
	Recent []float64

	// LongSeries and ShortSeries feed multi-timeframe trend alignment.
	// Zero-length series disable the check for this evaluation.
	LongSeries  model.Series
	ShortSeries model.Series

	Now time.Time
}

// ExitContext carries everything an exit evaluation may read. Position is
// passed by value: the engine never mutates lifecycle state.
type ExitContext struct {
	Position model.Position
	Series   model.Series
	Price    float64
	Now      time.Time
}

// Strategy is the fixed two-method contract each strategy kind implements.
// CheckSell covers only strategy-specific exits; the shared risk exits
// (stop-loss, trailing stop, time exit, partials) live in the engine so
// every kind applies them identically.
type Strategy interface {
	Name() string
	CheckBuy(ctx EntryContext, p Parameters) Decision
	CheckSell(ctx ExitContext, p Parameters) Decision
}

// Engine evaluates one configured strategy kind.
type Engine struct {
	strat Strategy
}

// New builds an engine for the configured kind.
func New(p Parameters) (*Engine, error) {
	switch p.Kind {
	case KindVolatilityBreakout:
		return &Engine{strat: volatilityBreakout{}}, nil
	case KindGoldenCross:
		return &Engine{strat: goldenCross{}}, nil
	case KindRSIReversal:
		return &Engine{strat: rsiReversal{}}, nil
	case KindGridTrading:
		return &Engine{strat: gridTrading{}}, nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", p.Kind)
	}
}

// Name returns the active strategy kind's name.
func (e *Engine) Name() string { return e.strat.Name() }

// EvaluateEntry classifies a potential entry.
func (e *Engine) EvaluateEntry(ctx EntryContext, p Parameters) Decision {
	return e.strat.CheckBuy(ctx, p)
}

// EvaluateExit classifies a potential exit for an open position.
// Rule precedence is fixed: stop-loss, trailing stop, time exit, partial
// take-profit, then any strategy-specific exit.
func (e *Engine) EvaluateExit(ctx ExitContext, p Parameters) Decision {
	pos := ctx.Position
	if pos.EntryPrice == 0 {
		return hold()
	}
	profitRate := pos.ProfitRate(ctx.Price)

	// 1. Stop-loss — highest priority, checked before anything else.
	if profitRate <= -p.LossCut {
		return Decision{
			Action:   ActionSell,
			Fraction: 1,
			Reason:   model.ReasonStopLoss,
			Reasons:  []string{fmt.Sprintf("profit %.2f%% breached loss cut -%.2f%%", profitRate, p.LossCut)},
		}
	}

	// 2. Trailing stop — armed only after max profit reached ts_start.
	if pos.MaxProfitRate >= p.TrailingStart && pos.HighSinceEntry > 0 {
		drop := (pos.HighSinceEntry - ctx.Price) / pos.HighSinceEntry * 100
		if drop >= p.TrailingStop {
			return Decision{
				Action:   ActionSell,
				Fraction: 1,
				Reason:   model.ReasonTrailingStop,
				Reasons:  []string{fmt.Sprintf("retraced %.2f%% from high %.2f", drop, pos.HighSinceEntry)},
			}
		}
	}

	// 3. Time exit.
	if p.UseTimeExit && p.MaxHoldingHours > 0 {
		held := pos.HoldingDuration(ctx.Now).Hours()
		if held > p.MaxHoldingHours {
			return Decision{
				Action:   ActionSell,
				Fraction: 1,
				Reason:   model.ReasonTimeExit,
				Reasons:  []string{fmt.Sprintf("held %.1fh > max %.1fh", held, p.MaxHoldingHours)},
			}
		}
	}

	// 4. Partial take-profit ladder. Each level fires at most once.
	for _, lv := range p.PartialLadder {
		if pos.LevelExecuted(lv.TriggerRate) {
			continue
		}
		if profitRate >= lv.TriggerRate {
			return Decision{
				Action:       ActionSell,
				Fraction:     lv.SellFraction,
				Reason:       model.ReasonPartial,
				PartialLevel: lv.TriggerRate,
				Reasons:      []string{fmt.Sprintf("partial take-profit at +%.1f%%", lv.TriggerRate)},
			}
		}
	}

	// 5. Strategy-specific exits (dead cross, RSI overbought, ...).
	return e.strat.CheckSell(ctx, p)
}

// MaxLookback returns the longest indicator window the configured strategy
// can request, in candles. The backtest simulator skips this many candles
// as warm-up before the first evaluation.
func MaxLookback(p Parameters) int {
	max := 2 // breakout target needs the previous candle
	grow := func(n int) {
		if n > max {
			max = n
		}
	}
	if p.UseMAFilter {
		grow(p.MAPeriod + 1)
	}
	if p.UseRSIFilter || p.Kind == KindRSIReversal {
		grow(p.RSIPeriod + 1)
	}
	if p.UseMACDFilter {
		grow(p.MACDSlow + p.MACDSignal)
	}
	if p.UseVolumeFilter {
		grow(p.VolumePeriod + 1)
	}
	if p.UseBollingerFilter {
		grow(p.BBPeriod)
	}
	if p.UseStochRSIFilter {
		grow(p.RSIPeriod + 14)
	}
	if p.UseADXFilter {
		grow(2*p.ADXPeriod + 1)
	}
	if p.EntryPolicy != PolicyFilters {
		// Scoring reads RSI, MACD, volume, and Bollinger regardless of
		// the hard-filter toggles.
		grow(p.RSIPeriod + 1)
		grow(p.MACDSlow + p.MACDSignal)
		grow(p.VolumePeriod + 1)
		grow(p.BBPeriod)
	}
	if p.Kind == KindGoldenCross {
		grow(p.LongMAPeriod + 1)
	}
	return max
}
