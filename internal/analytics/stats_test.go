package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func trade(ticker string, profit, rate float64, exit time.Time, holdHours float64) model.Trade {
	return model.Trade{
		Ticker:     ticker,
		EntryTime:  exit.Add(-time.Duration(holdHours * float64(time.Hour))),
		ExitTime:   exit,
		Profit:     profit,
		ProfitRate: rate,
		Reason:     model.ReasonTrailingStop,
	}
}

func TestCompute_Basics(t *testing.T) {
	trades := []model.Trade{
		trade("KRW-BTC", 100, 2, t0, 4),
		trade("KRW-BTC", -50, -1, t0.Add(24*time.Hour), 8),
		trade("KRW-BTC", 200, 4, t0.Add(48*time.Hour), 6),
	}
	st := Compute(trades, nil, PeriodsPerYearDaily)

	assert.Equal(t, 3, st.TotalTrades)
	assert.Equal(t, 2, st.Wins)
	assert.Equal(t, 1, st.Losses)
	assert.InDelta(t, 66.6667, st.WinRate, 0.001)
	assert.InDelta(t, 250, st.TotalProfit, 1e-9)
	assert.InDelta(t, 300, st.GrossProfit, 1e-9)
	assert.InDelta(t, 50, st.GrossLoss, 1e-9)
	assert.InDelta(t, 6.0, st.ProfitFactor, 1e-9)
	assert.InDelta(t, 200, st.BestTrade, 1e-9)
	assert.InDelta(t, -50, st.WorstTrade, 1e-9)
	assert.InDelta(t, 6.0, st.AvgHoldHours, 1e-9)
}

func TestCompute_NoLosersMeansZeroProfitFactor(t *testing.T) {
	trades := []model.Trade{
		trade("KRW-BTC", 100, 2, t0, 4),
		trade("KRW-BTC", 50, 1, t0.Add(time.Hour), 4),
	}
	st := Compute(trades, nil, PeriodsPerYearDaily)
	assert.Zero(t, st.ProfitFactor)
	assert.InDelta(t, 100, st.WinRate, 1e-9)
}

func TestCompute_Empty(t *testing.T) {
	st := Compute(nil, nil, PeriodsPerYearDaily)
	assert.Zero(t, st.TotalTrades)
	assert.Zero(t, st.WinRate)
	assert.Zero(t, st.Sharpe)
	assert.Zero(t, st.MaxDrawdown)
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 120, trough 90: (120-90)/120 = 25%.
	equity := []float64{100, 120, 110, 90, 100, 115}
	assert.InDelta(t, 25, MaxDrawdown(equity), 1e-9)

	// Monotonic rise never draws down.
	assert.Zero(t, MaxDrawdown([]float64{100, 101, 102}))
	assert.Zero(t, MaxDrawdown(nil))
}

func TestSharpe(t *testing.T) {
	// Constant returns have zero deviation: ratio is defined as 0.
	assert.Zero(t, Sharpe([]float64{0.01, 0.01, 0.01}, 365))
	assert.Zero(t, Sharpe(nil, 365))

	// Hand check: returns {0.02, -0.01, 0.02}, mean 0.01, sample sd
	// sqrt(3e-4/2) = 0.0122474; Sharpe = 0.01/0.0122474*sqrt(365).
	got := Sharpe([]float64{0.02, -0.01, 0.02}, 365)
	want := 0.01 / 0.012247448713915889 * math.Sqrt(365)
	assert.InDelta(t, want, got, 1e-9)
}

func TestSortino(t *testing.T) {
	// One downside sample: sample deviation of a single value is 0.
	assert.Zero(t, Sortino([]float64{0.02, -0.01, 0.02}, 365))

	// Two distinct downside samples give a finite ratio.
	got := Sortino([]float64{0.03, -0.01, -0.03, 0.02}, 365)
	require.NotZero(t, got)

	// All-positive returns have no downside: 0 by definition.
	assert.Zero(t, Sortino([]float64{0.01, 0.02}, 365))
}

func TestDaily(t *testing.T) {
	trades := []model.Trade{
		trade("KRW-BTC", 100, 2, t0.Add(2*time.Hour), 4),
		trade("KRW-ETH", -40, -1, t0.Add(5*time.Hour), 4),
		trade("KRW-BTC", 60, 1, t0.Add(26*time.Hour), 4),
	}
	days := Daily(trades)
	require.Len(t, days, 2)

	assert.Equal(t, "2024-03-01", days[0].Date)
	assert.Equal(t, 2, days[0].Trades)
	assert.Equal(t, 1, days[0].Wins)
	assert.InDelta(t, 60, days[0].Profit, 1e-9)
	assert.InDelta(t, 50, days[0].WinRate, 1e-9)

	assert.Equal(t, "2024-03-02", days[1].Date)
	assert.Equal(t, 1, days[1].Trades)
}

func TestByTicker(t *testing.T) {
	trades := []model.Trade{
		trade("KRW-BTC", 100, 2, t0, 4),
		trade("KRW-ETH", 300, 6, t0, 4),
		trade("KRW-BTC", -20, -0.5, t0, 4),
	}
	sums := ByTicker(trades)
	require.Len(t, sums, 2)

	// Sorted by profit, ETH first.
	assert.Equal(t, "KRW-ETH", sums[0].Ticker)
	assert.InDelta(t, 300, sums[0].Profit, 1e-9)
	assert.InDelta(t, 100, sums[0].WinRate, 1e-9)

	assert.Equal(t, "KRW-BTC", sums[1].Ticker)
	assert.Equal(t, 2, sums[1].Trades)
	assert.InDelta(t, 80, sums[1].Profit, 1e-9)
	assert.InDelta(t, 50, sums[1].WinRate, 1e-9)
	assert.InDelta(t, 0.75, sums[1].AvgProfitRate, 1e-9)
}
