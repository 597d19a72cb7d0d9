// Package analytics turns closed trades and equity curves into the
// performance figures reported after a backtest or a live session.
package analytics

import (
	"math"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// PeriodsPerYearDaily is the conventional annualization factor for daily
// equity samples.
const PeriodsPerYearDaily = 365

// Stats is the aggregate performance of one trade set plus equity curve.
type Stats struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"` // %
	TotalProfit  float64 `json:"total_profit"`
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`    // positive magnitude
	ProfitFactor float64 `json:"profit_factor"` // 0 when there are no losers
	BestTrade    float64 `json:"best_trade"`
	WorstTrade   float64 `json:"worst_trade"`
	MaxDrawdown  float64 `json:"max_drawdown"` // %
	Sharpe       float64 `json:"sharpe"`
	Sortino      float64 `json:"sortino"`
	AvgHoldHours float64 `json:"avg_hold_hours"`
}

// Compute derives the full stat block. equity is the ordered mark-to-market
// curve; periodsPerYear annualizes the ratios (use PeriodsPerYearDaily for
// daily candles, 365*6 for 4-hour ones, and so on).
func Compute(trades []model.Trade, equity []float64, periodsPerYear float64) Stats {
	st := Stats{TotalTrades: len(trades)}

	var holdHours float64
	for i, t := range trades {
		st.TotalProfit += t.Profit
		if t.Win() {
			st.Wins++
			st.GrossProfit += t.Profit
		} else {
			st.Losses++
			st.GrossLoss += -t.Profit
		}
		if i == 0 || t.Profit > st.BestTrade {
			st.BestTrade = t.Profit
		}
		if i == 0 || t.Profit < st.WorstTrade {
			st.WorstTrade = t.Profit
		}
		holdHours += t.ExitTime.Sub(t.EntryTime).Hours()
	}
	if st.TotalTrades > 0 {
		st.WinRate = float64(st.Wins) / float64(st.TotalTrades) * 100
		st.AvgHoldHours = holdHours / float64(st.TotalTrades)
	}
	if st.GrossLoss > 0 {
		st.ProfitFactor = st.GrossProfit / st.GrossLoss
	}

	st.MaxDrawdown = MaxDrawdown(equity)
	returns := pctChanges(equity)
	st.Sharpe = Sharpe(returns, periodsPerYear)
	st.Sortino = Sortino(returns, periodsPerYear)
	return st
}

// MaxDrawdown returns the largest peak-to-trough decline, in percent.
func MaxDrawdown(equity []float64) float64 {
	peak, mdd := 0.0, 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > mdd {
				mdd = dd
			}
		}
	}
	return mdd
}

// Sharpe is the annualized mean/stddev ratio of per-period returns, 0 when
// the deviation vanishes.
func Sharpe(returns []float64, periodsPerYear float64) float64 {
	m, sd := meanStd(returns)
	if sd == 0 {
		return 0
	}
	return m / sd * math.Sqrt(periodsPerYear)
}

// Sortino is Sharpe with only the downside deviation in the denominator.
func Sortino(returns []float64, periodsPerYear float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	m, _ := meanStd(returns)
	_, dd := meanStd(downside)
	if dd == 0 {
		return 0
	}
	return m / dd * math.Sqrt(periodsPerYear)
}

// pctChanges converts an equity curve to per-period fractional returns.
func pctChanges(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, equity[i]/equity[i-1]-1)
	}
	return out
}

// meanStd returns the mean and sample standard deviation.
func meanStd(vals []float64) (mean, sd float64) {
	n := len(vals)
	if n == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}
