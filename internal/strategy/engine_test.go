package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func mkSeries(candles ...model.Candle) model.Series {
	for i := range candles {
		candles[i].TS = t0.Add(time.Duration(i) * 4 * time.Hour)
	}
	return model.Series{Ticker: "KRW-BTC", Interval: model.IntervalMinute240, Candles: candles}
}

// flatSeries builds n identical candles at the given close.
func flatSeries(n int, close float64) model.Series {
	cs := make([]model.Candle, n)
	for i := range cs {
		cs[i] = model.Candle{Open: close, High: close, Low: close, Close: close, Volume: 100}
	}
	return mkSeries(cs...)
}

// bareParams is the breakout configuration with every optional gate off.
func bareParams() Parameters {
	p := Defaults()
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
	p.EntryPolicy = PolicyFilters
	return p
}

func TestBreakout_BuysAtTarget(t *testing.T) {
	p := bareParams()
	eng, err := New(p)
	require.NoError(t, err)

	// prev range 100-110, cur open 104, k=0.4: target = 104 + 10*0.4 = 108
	s := mkSeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
	)

	d := eng.EvaluateEntry(EntryContext{Series: s, Price: 108, Now: t0}, p)
	assert.Equal(t, ActionBuy, d.Action)

	d = eng.EvaluateEntry(EntryContext{Series: s, Price: 107.99, Now: t0}, p)
	assert.Equal(t, ActionHold, d.Action)
}

func TestBreakout_RSIFilterBlocksAtUpperThreshold(t *testing.T) {
	p := bareParams()
	p.UseRSIFilter = true
	p.RSIPeriod = 2
	p.RSIUpper = 75

	eng, err := New(p)
	require.NoError(t, err)

	// Closes 100 -> 106 -> 104: deltas +6/-2, avg gain 3, avg loss 1,
	// RSI exactly 75. Target = 100 + (106-96)*0.4 = 104, broken at 104.
	s := mkSeries(
		model.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 100},
		model.Candle{Open: 100, High: 106, Low: 96, Close: 106, Volume: 100},
		model.Candle{Open: 100, High: 105, Low: 99, Close: 104, Volume: 100},
	)

	// At the threshold the filter must reject the entry.
	d := eng.EvaluateEntry(EntryContext{Series: s, Price: 104, Now: t0}, p)
	assert.Equal(t, ActionHold, d.Action)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0], "RSI")

	// Strictly below it the same setup buys.
	p.RSIUpper = 75.1
	d = eng.EvaluateEntry(EntryContext{Series: s, Price: 104, Now: t0}, p)
	assert.Equal(t, ActionBuy, d.Action)
}

func TestBreakout_EnabledFilterFailsOnInsufficientData(t *testing.T) {
	p := bareParams()
	p.UseRSIFilter = true // needs 15 candles, series has 2
	eng, err := New(p)
	require.NoError(t, err)

	s := mkSeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
	)
	d := eng.EvaluateEntry(EntryContext{Series: s, Price: 108, Now: t0}, p)
	assert.Equal(t, ActionHold, d.Action)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0], "insufficient data")
}

func TestBreakout_ScorePolicy(t *testing.T) {
	p := bareParams()
	p.EntryPolicy = PolicyScore

	s := mkSeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
	)

	// Only the target-break factor (weight 30) can contribute here.
	p.EntryThreshold = 25
	eng, _ := New(p)
	d := eng.EvaluateEntry(EntryContext{Series: s, Price: 108, Now: t0}, p)
	assert.Equal(t, ActionBuy, d.Action)
	assert.InDelta(t, 30, d.Score, 1e-9)

	p.EntryThreshold = 60
	eng, _ = New(p)
	d = eng.EvaluateEntry(EntryContext{Series: s, Price: 108, Now: t0}, p)
	assert.Equal(t, ActionHold, d.Action)
}

func TestBreakout_ConfirmationTicks(t *testing.T) {
	p := bareParams()
	p.UseBreakoutConfirm = true
	p.ConfirmTicks = 3
	eng, _ := New(p)

	s := mkSeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
	)

	held := EntryContext{Series: s, Price: 108.5, Recent: []float64{108.1, 108.3, 108.5}, Now: t0}
	assert.Equal(t, ActionBuy, eng.EvaluateEntry(held, p).Action)

	dipped := EntryContext{Series: s, Price: 108.5, Recent: []float64{107.9, 108.3, 108.5}, Now: t0}
	assert.Equal(t, ActionHold, eng.EvaluateEntry(dipped, p).Action)

	tooFew := EntryContext{Series: s, Price: 108.5, Recent: []float64{108.5}, Now: t0}
	assert.Equal(t, ActionHold, eng.EvaluateEntry(tooFew, p).Action)
}

func TestBreakout_MTFRequiresBothSeries(t *testing.T) {
	p := bareParams()
	p.UseMTF = true
	eng, _ := New(p)

	s := mkSeries(
		model.Candle{Open: 100, High: 110, Low: 100, Close: 105, Volume: 100},
		model.Candle{Open: 104, High: 109, Low: 103, Close: 108, Volume: 100},
	)
	d := eng.EvaluateEntry(EntryContext{Series: s, Price: 108, Now: t0}, p)
	assert.Equal(t, ActionHold, d.Action)
}

func TestGapAdjustedK(t *testing.T) {
	p := bareParams()
	p.UseGapAdjust = true

	gapUpSeries := mkSeries(
		model.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		model.Candle{Open: 104, High: 105, Low: 103, Close: 104, Volume: 100}, // +4% gap
	)
	assert.InDelta(t, p.K*p.GapUpFactor, gapAdjustedK(gapUpSeries, p), 1e-12)

	gapDownSeries := mkSeries(
		model.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		model.Candle{Open: 96, High: 97, Low: 95, Close: 96, Volume: 100}, // -4% gap
	)
	assert.InDelta(t, p.K*p.GapDownFactor, gapAdjustedK(gapDownSeries, p), 1e-12)

	flat := mkSeries(
		model.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
		model.Candle{Open: 100.5, High: 101, Low: 100, Close: 100.5, Volume: 100},
	)
	assert.InDelta(t, p.K, gapAdjustedK(flat, p), 1e-12)
}

func openPosition(entry float64) model.Position {
	return model.Position{
		Ticker:         "KRW-BTC",
		State:          model.StateHolding,
		EntryPrice:     entry,
		Quantity:       1,
		Invested:       entry,
		HighSinceEntry: entry,
		EntryTime:      t0,
	}
}

func TestExit_StopLoss(t *testing.T) {
	p := bareParams()
	eng, _ := New(p)
	pos := openPosition(100)

	d := eng.EvaluateExit(ExitContext{Position: pos, Price: 97, Now: t0.Add(time.Hour)}, p)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonStopLoss, d.Reason)
	assert.Equal(t, 1.0, d.Fraction)

	d = eng.EvaluateExit(ExitContext{Position: pos, Price: 97.01, Now: t0.Add(time.Hour)}, p)
	assert.Equal(t, ActionHold, d.Action)
}

func TestExit_StopLossBeatsTrailingStop(t *testing.T) {
	p := bareParams()
	eng, _ := New(p)

	// Position ran to +10% then collapsed through the loss cut. Both rules
	// match; stop-loss must win.
	pos := openPosition(100)
	pos.HighSinceEntry = 110
	pos.MaxProfitRate = 10

	d := eng.EvaluateExit(ExitContext{Position: pos, Price: 96, Now: t0.Add(time.Hour)}, p)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonStopLoss, d.Reason)
}

func TestExit_TrailingStop(t *testing.T) {
	p := bareParams()
	p.PartialLadder = nil
	eng, _ := New(p)

	pos := openPosition(100)
	pos.HighSinceEntry = 110
	pos.MaxProfitRate = 10

	// 2% retrace from 110 is 107.8
	d := eng.EvaluateExit(ExitContext{Position: pos, Price: 107.8, Now: t0.Add(time.Hour)}, p)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonTrailingStop, d.Reason)

	d = eng.EvaluateExit(ExitContext{Position: pos, Price: 107.9, Now: t0.Add(time.Hour)}, p)
	assert.Equal(t, ActionHold, d.Action)
}

func TestExit_TrailingStopNotArmedBelowStart(t *testing.T) {
	p := bareParams()
	p.PartialLadder = nil
	eng, _ := New(p)

	// Max profit 4% never reached ts_start 5%; a 2% retrace must not fire.
	pos := openPosition(100)
	pos.HighSinceEntry = 104
	pos.MaxProfitRate = 4

	d := eng.EvaluateExit(ExitContext{Position: pos, Price: 101.9, Now: t0.Add(time.Hour)}, p)
	assert.Equal(t, ActionHold, d.Action)
}

func TestExit_TimeExit(t *testing.T) {
	p := bareParams()
	p.PartialLadder = nil
	eng, _ := New(p)
	pos := openPosition(100)

	d := eng.EvaluateExit(ExitContext{Position: pos, Price: 101, Now: t0.Add(25 * time.Hour)}, p)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonTimeExit, d.Reason)

	d = eng.EvaluateExit(ExitContext{Position: pos, Price: 101, Now: t0.Add(23 * time.Hour)}, p)
	assert.Equal(t, ActionHold, d.Action)
}

func TestExit_PartialLadderFiresOncePerLevel(t *testing.T) {
	p := bareParams()
	eng, _ := New(p)
	pos := openPosition(100)

	d := eng.EvaluateExit(ExitContext{Position: pos, Price: 103.5, Now: t0.Add(time.Hour)}, p)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonPartial, d.Reason)
	assert.Equal(t, 0.3, d.Fraction)
	assert.Equal(t, 3.0, d.PartialLevel)

	// Same price after the level is marked: nothing left to fire.
	pos.MarkLevelExecuted(3.0)
	d = eng.EvaluateExit(ExitContext{Position: pos, Price: 103.5, Now: t0.Add(time.Hour)}, p)
	assert.Equal(t, ActionHold, d.Action)

	// Higher rung still fires.
	d = eng.EvaluateExit(ExitContext{Position: pos, Price: 105.5, Now: t0.Add(time.Hour)}, p)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, 5.0, d.PartialLevel)
}

func TestGoldenCross(t *testing.T) {
	p := bareParams()
	p.Kind = KindGoldenCross
	p.ShortMAPeriod = 2
	p.LongMAPeriod = 4
	eng, err := New(p)
	require.NoError(t, err)

	// Downtrend then a sharp reversal: short MA crosses over long MA on
	// the final candle.
	closes := []float64{110, 108, 106, 104, 102, 100, 112}
	cs := make([]model.Candle, len(closes))
	for i, c := range closes {
		cs[i] = model.Candle{Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	s := mkSeries(cs...)

	d := eng.EvaluateEntry(EntryContext{Series: s, Price: 112, Now: t0}, p)
	assert.Equal(t, ActionBuy, d.Action)

	// Mirror image: dead cross on the final candle sells.
	for i, c := range []float64{100, 102, 104, 106, 108, 110, 98} {
		cs[i] = model.Candle{Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	down := mkSeries(cs...)
	pos := openPosition(110)
	pos.MaxProfitRate = 0
	pd := bareParams()
	pd.Kind = KindGoldenCross
	pd.ShortMAPeriod = 2
	pd.LongMAPeriod = 4
	pd.PartialLadder = nil
	pd.LossCut = 50 // keep risk exits out of the way
	pd.UseTimeExit = false
	engSell, _ := New(pd)
	d = engSell.EvaluateExit(ExitContext{Position: pos, Series: down, Price: 98, Now: t0.Add(time.Hour)}, pd)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonDeadCross, d.Reason)
}

func TestRSIReversal(t *testing.T) {
	p := bareParams()
	p.Kind = KindRSIReversal
	p.RSIPeriod = 3
	eng, err := New(p)
	require.NoError(t, err)

	// Steady decline pins RSI near 0, then a strong up candle lifts it
	// back through the oversold line.
	closes := []float64{110, 105, 100, 95, 90, 85, 100}
	cs := make([]model.Candle, len(closes))
	for i, c := range closes {
		cs[i] = model.Candle{Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	d := eng.EvaluateEntry(EntryContext{Series: mkSeries(cs...), Price: 100, Now: t0}, p)
	assert.Equal(t, ActionBuy, d.Action)

	// All-gains series pins RSI at 100: overbought exit.
	up := flatSeries(0, 0)
	for i, c := range []float64{90, 92, 94, 96, 98, 100} {
		up.Candles = append(up.Candles, model.Candle{TS: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c, Volume: 100})
	}
	pd := bareParams()
	pd.Kind = KindRSIReversal
	pd.RSIPeriod = 3
	pd.PartialLadder = nil
	pd.UseTimeExit = false
	engSell, _ := New(pd)
	pos := openPosition(95)
	d = engSell.EvaluateExit(ExitContext{Position: pos, Series: up, Price: 100, Now: t0.Add(time.Hour)}, pd)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonOverbought, d.Reason)
}

func TestGridTrading(t *testing.T) {
	p := bareParams()
	p.Kind = KindGridTrading
	p.GridCount = 5
	p.GridSpacing = 2.0
	p.GridTakeProfit = 1.0
	eng, err := New(p)
	require.NoError(t, err)

	// Base = previous close 100: levels at 98, 96, 94, 92, 90.
	s := mkSeries(
		model.Candle{Open: 99, High: 101, Low: 98, Close: 100, Volume: 100},
		model.Candle{Open: 100, High: 100, Low: 95, Close: 95, Volume: 100},
	)

	d := eng.EvaluateEntry(EntryContext{Series: s, Price: 98, Now: t0}, p)
	require.Equal(t, ActionBuy, d.Action)
	assert.Equal(t, 70.0, d.Score)

	// Just above the first level: no entry.
	d = eng.EvaluateEntry(EntryContext{Series: s, Price: 98.01, Now: t0}, p)
	assert.Equal(t, ActionHold, d.Action)

	// Each entry closes on its own take-profit percentage.
	pd := p
	pd.PartialLadder = nil
	pd.UseTimeExit = false
	engSell, _ := New(pd)
	pos := openPosition(100)
	d = engSell.EvaluateExit(ExitContext{Position: pos, Series: s, Price: 101.1, Now: t0.Add(time.Hour)}, pd)
	require.Equal(t, ActionSell, d.Action)
	assert.Equal(t, model.ReasonTakeProfit, d.Reason)

	d = engSell.EvaluateExit(ExitContext{Position: pos, Series: s, Price: 100.9, Now: t0.Add(time.Hour)}, pd)
	assert.Equal(t, ActionHold, d.Action)
}

func TestMaxLookback(t *testing.T) {
	p := bareParams()
	assert.Equal(t, 2, MaxLookback(p))

	p.UseRSIFilter = true
	p.RSIPeriod = 14
	assert.Equal(t, 15, MaxLookback(p))

	p.UseMACDFilter = true
	assert.Equal(t, 35, MaxLookback(p)) // slow 26 + signal 9

	gc := bareParams()
	gc.Kind = KindGoldenCross
	gc.LongMAPeriod = 20
	assert.Equal(t, 21, MaxLookback(gc))
}

func TestParametersValidate(t *testing.T) {
	p := Defaults()
	require.NoError(t, p.Validate())

	bad := Defaults()
	bad.K = 0
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.PartialLadder = []PartialLevel{{TriggerRate: 5, SellFraction: 0.3}, {TriggerRate: 3, SellFraction: 0.3}}
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.PartialLadder = []PartialLevel{{TriggerRate: 3, SellFraction: 1.5}}
	assert.Error(t, bad.Validate())

	bad = Defaults()
	bad.EntryPolicy = "sometimes"
	assert.Error(t, bad.Validate())

	grid := Defaults()
	grid.Kind = KindGridTrading
	require.NoError(t, grid.Validate())
	grid.GridSpacing = 0
	assert.Error(t, grid.Validate())
}

func TestDetectTrend(t *testing.T) {
	rising := make([]model.Candle, 8)
	for i := range rising {
		c := 100 + float64(i)*2
		rising[i] = model.Candle{Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	assert.Equal(t, TrendUp, DetectTrend(mkSeries(rising...), 5))

	falling := make([]model.Candle, 8)
	for i := range falling {
		c := 120 - float64(i)*2
		falling[i] = model.Candle{Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	assert.Equal(t, TrendDown, DetectTrend(mkSeries(falling...), 5))

	assert.Equal(t, TrendSideways, DetectTrend(flatSeries(3, 100), 5))
}
