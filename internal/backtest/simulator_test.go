package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twbeatles/upbit-autotrader/internal/model"
	"github.com/twbeatles/upbit-autotrader/internal/strategy"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func params() strategy.Parameters {
	p := strategy.Defaults()
	p.Interval = model.IntervalDay
	p.UseMAFilter = false
	p.UseRSIFilter = false
	p.UseMACDFilter = false
	p.UseVolumeFilter = false
	p.UseBollingerFilter = false
	p.UseStochRSIFilter = false
	p.UseADXFilter = false
	p.UseGapAdjust = false
	p.UseBreakoutConfirm = false
	p.UseMTF = false
	p.UseTimeExit = false
	p.PartialLadder = nil
	return p
}

func daySeries(candles ...model.Candle) model.Series {
	for i := range candles {
		candles[i].TS = t0.Add(time.Duration(i) * 24 * time.Hour)
	}
	return model.Series{Ticker: "KRW-BTC", Interval: model.IntervalDay, Candles: candles}
}

// trendSeries breaks out on day 2 at close 110 and trails out on day 5 at
// 115: entry target 106 + 6*0.4 = 108.4, running high 118, 2.54% retrace.
func trendSeries() model.Series {
	return daySeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
		model.Candle{Open: 106, High: 112, Low: 105, Close: 110, Volume: 100},
		model.Candle{Open: 110, High: 115, Low: 109, Close: 114, Volume: 100},
		model.Candle{Open: 114, High: 119, Low: 113, Close: 118, Volume: 100},
		model.Candle{Open: 117, High: 118, Low: 114, Close: 115, Volume: 100},
		model.Candle{Open: 114, High: 116, Low: 113, Close: 114, Volume: 100},
	)
}

func TestRun_BreakoutRoundTrip(t *testing.T) {
	res, err := Run(context.Background(), trendSeries(), Config{
		Params:         params(),
		InitialBalance: 1_000_000,
	})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, model.ReasonTrailingStop, tr.Reason)
	assert.InDelta(t, 110, tr.EntryPrice, 1e-9)
	assert.InDelta(t, 115, tr.ExitPrice, 1e-9)
	assert.Equal(t, t0.Add(2*24*time.Hour), tr.EntryTime)
	assert.Equal(t, t0.Add(5*24*time.Hour), tr.ExitTime)

	// 100,000 KRW at 110, out at 115, no commission.
	assert.InDelta(t, 100_000.0/110*5, tr.Profit, 1e-6)
	assert.InDelta(t, 1_000_000+tr.Profit, res.FinalBalance, 1e-6)
	assert.InDelta(t, res.FinalBalance, res.EquityCurve[len(res.EquityCurve)-1].Equity, 1e-6)

	assert.Equal(t, 2, res.WarmUp)
	assert.Equal(t, 5, res.Evaluated)
	assert.Len(t, res.EquityCurve, 5)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := Config{Params: params(), InitialBalance: 1_000_000, CommissionRate: 0.0005}
	a, err := Run(context.Background(), trendSeries(), cfg)
	require.NoError(t, err)
	b, err := Run(context.Background(), trendSeries(), cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_ForcedCloseAtEnd(t *testing.T) {
	// Truncated before the trailing stop: the position is still open on
	// the last candle and must be closed at its close.
	s := daySeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
		model.Candle{Open: 106, High: 112, Low: 105, Close: 110, Volume: 100},
		model.Candle{Open: 110, High: 115, Low: 109, Close: 114, Volume: 100},
		model.Candle{Open: 114, High: 119, Low: 113, Close: 118, Volume: 100},
	)
	res, err := Run(context.Background(), s, Config{Params: params(), InitialBalance: 1_000_000})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, model.ReasonForcedClose, res.Trades[0].Reason)
	assert.InDelta(t, 118, res.Trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, 1_000_000+100_000.0/110*8, res.FinalBalance, 1e-6)
}

func TestRun_CommissionOnBothSides(t *testing.T) {
	cfg := Config{Params: params(), InitialBalance: 1_000_000, CommissionRate: 0.0005}
	res, err := Run(context.Background(), trendSeries(), cfg)
	require.NoError(t, err)

	free, err := Run(context.Background(), trendSeries(), Config{Params: params(), InitialBalance: 1_000_000})
	require.NoError(t, err)
	assert.Less(t, res.FinalBalance, free.FinalBalance)
	require.Len(t, res.Trades, 1)
	assert.Less(t, res.Trades[0].Profit, free.Trades[0].Profit)
}

func TestRun_InsufficientCandles(t *testing.T) {
	s := daySeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
	)
	res, err := Run(context.Background(), s, Config{Params: params(), InitialBalance: 1_000_000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warm-up")

	// Even a run that cannot start yields a structured zero-trade result.
	require.NotNil(t, res)
	assert.Empty(t, res.Trades)
	assert.Equal(t, 1_000_000.0, res.FinalBalance)
	assert.Zero(t, res.Return())
}

func TestRun_RejectsInvalidSeries(t *testing.T) {
	s := daySeries(
		model.Candle{Open: 100, High: 90, Low: 100, Close: 95, Volume: 100}, // high < low
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
	)
	res, err := Run(context.Background(), s, Config{Params: params(), InitialBalance: 1_000_000})
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.Trades)

	res, err = Run(context.Background(), trendSeries(), Config{Params: params(), InitialBalance: 0})
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.Trades)
}

func TestRun_NoLookAhead(t *testing.T) {
	// The entry decision on day 2 must be identical whether or not the
	// future candles exist.
	full := trendSeries()
	cut := daySeries(full.Candles[0], full.Candles[1], full.Candles[2])
	for i := range cut.Candles {
		cut.Candles[i].TS = full.Candles[i].TS
	}

	a, err := Run(context.Background(), full, Config{Params: params(), InitialBalance: 1_000_000})
	require.NoError(t, err)
	b, err := Run(context.Background(), cut, Config{Params: params(), InitialBalance: 1_000_000})
	require.NoError(t, err)

	require.Len(t, a.Trades, 1)
	require.Len(t, b.Trades, 1)
	assert.Equal(t, a.Trades[0].EntryTime, b.Trades[0].EntryTime)
	assert.InDelta(t, a.Trades[0].EntryPrice, b.Trades[0].EntryPrice, 1e-9)
}
