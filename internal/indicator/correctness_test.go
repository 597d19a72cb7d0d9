package indicator

import (
	"math"
	"testing"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func seq(from, to, step float64) []float64 {
	var out []float64
	for v := from; (step > 0 && v <= to) || (step < 0 && v >= to); v += step {
		out = append(out, v)
	}
	return out
}

// ────────────────────────────────────────────────────────────
// SMA / EMA
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness(t *testing.T) {
	// Last 3 of {100, 102, 104, 103, 105} → (104+103+105)/3 = 104
	v, ok := SMA([]float64{100, 102, 104, 103, 105}, 3)
	if !ok {
		t.Fatal("SMA: not ok")
	}
	assertClose(t, "SMA(3)", v, 104.0, 0.0001)
}

func TestSMA_Insufficient(t *testing.T) {
	if _, ok := SMA([]float64{100, 102}, 3); ok {
		t.Error("SMA(3) on 2 values: expected ok=false")
	}
}

func TestEMA_Correctness(t *testing.T) {
	// Seeded at first value, k = 2/(3+1) = 0.5:
	// ema: 1, 1.5, 2.25
	v, ok := EMA([]float64{1, 2, 3}, 3)
	if !ok {
		t.Fatal("EMA: not ok")
	}
	assertClose(t, "EMA(3)", v, 2.25, 0.0001)
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness(t *testing.T) {
	// Deltas of {100,102,101,103,104,102,105}: +2,-1,+2,+1,-2,+3
	// Last 3: +1,-2,+3 → avgGain = 4/3, avgLoss = 2/3 → RS = 2
	// RSI = 100 - 100/3 = 66.6667
	v, ok := RSI([]float64{100, 102, 101, 103, 104, 102, 105}, 3)
	if !ok {
		t.Fatal("RSI: not ok")
	}
	assertClose(t, "RSI(3)", v, 66.666667, 0.0001)
}

func TestRSI_AllGains_Returns100(t *testing.T) {
	v, ok := RSI([]float64{1, 2, 3, 4, 5}, 3)
	if !ok {
		t.Fatal("RSI: not ok")
	}
	assertClose(t, "RSI all gains", v, 100.0, 0.0001)
}

func TestRSI_Bounds(t *testing.T) {
	// RSI ∈ [0, 100] for arbitrary series and any period ≥ 1.
	series := []float64{50, 48, 52, 49, 53, 47, 55, 44, 60, 41, 62, 40}
	for period := 1; period <= 10; period++ {
		if v, ok := RSI(series, period); ok {
			if v < 0 || v > 100 {
				t.Errorf("RSI(%d) = %.4f out of [0,100]", period, v)
			}
		}
	}
}

func TestRSI_Insufficient(t *testing.T) {
	if _, ok := RSI([]float64{100, 101}, 14); ok {
		t.Error("RSI(14) on 2 closes: expected ok=false")
	}
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestMACD_SignFollowsTrend(t *testing.T) {
	up := seq(100, 180, 2)
	down := seq(180, 100, -2)

	res, ok := MACD(up, 12, 26, 9)
	if !ok {
		t.Fatal("MACD up: not ok")
	}
	if res.MACD <= 0 {
		t.Errorf("MACD on rising series: got %.4f, want > 0", res.MACD)
	}

	res, ok = MACD(down, 12, 26, 9)
	if !ok {
		t.Fatal("MACD down: not ok")
	}
	if res.MACD >= 0 {
		t.Errorf("MACD on falling series: got %.4f, want < 0", res.MACD)
	}
}

func TestMACD_HistogramIsDifference(t *testing.T) {
	res, ok := MACD(seq(100, 180, 2), 12, 26, 9)
	if !ok {
		t.Fatal("MACD: not ok")
	}
	assertClose(t, "histogram", res.Histogram, res.MACD-res.Signal, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Bollinger
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness(t *testing.T) {
	// {10,12,14,16,18}: mean = 14, sample stddev = sqrt(40/4) = 3.162278
	bb, ok := Bollinger([]float64{10, 12, 14, 16, 18}, 5, 2)
	if !ok {
		t.Fatal("Bollinger: not ok")
	}
	assertClose(t, "middle", bb.Middle, 14.0, 0.0001)
	assertClose(t, "upper", bb.Upper, 14+2*3.1622777, 0.0001)
	assertClose(t, "lower", bb.Lower, 14-2*3.1622777, 0.0001)
}

// ────────────────────────────────────────────────────────────
// ATR
// ────────────────────────────────────────────────────────────

func TestATR_Correctness(t *testing.T) {
	highs := []float64{10, 11, 14}
	lows := []float64{8, 9, 10}
	closes := []float64{9, 10, 13}
	// TR: 2, max(2,2,0)=2, max(4,4,0)=4 → ATR(3) = 8/3
	v, ok := ATR(highs, lows, closes, 3)
	if !ok {
		t.Fatal("ATR: not ok")
	}
	assertClose(t, "ATR(3)", v, 8.0/3.0, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Williams %R / CCI
// ────────────────────────────────────────────────────────────

func TestWilliamsR_Correctness(t *testing.T) {
	v, ok := WilliamsR([]float64{10, 12, 14}, []float64{8, 9, 10}, []float64{9, 10, 13}, 3)
	if !ok {
		t.Fatal("WilliamsR: not ok")
	}
	// -100 * (14-13) / (14-8) = -16.6667
	assertClose(t, "W%R", v, -16.666667, 0.0001)
}

func TestCCI_Correctness(t *testing.T) {
	v, ok := CCI([]float64{10, 11, 12}, []float64{8, 9, 10}, []float64{9, 10, 11}, 3)
	if !ok {
		t.Fatal("CCI: not ok")
	}
	// TP = {9,10,11}, SMA = 10, MAD = 2/3 → (11-10)/(0.015*2/3) = 100
	assertClose(t, "CCI", v, 100.0, 0.0001)
}

// ────────────────────────────────────────────────────────────
// OBV
// ────────────────────────────────────────────────────────────

func TestOBV_Correctness(t *testing.T) {
	obv, ok := OBV([]float64{1, 2, 3, 2}, []float64{10, 10, 10, 10})
	if !ok {
		t.Fatal("OBV: not ok")
	}
	want := []float64{0, 10, 20, 10}
	for i := range want {
		assertClose(t, "OBV", obv[i], want[i], 1e-9)
	}
}

func TestOBVRatio_Correctness(t *testing.T) {
	// OBV = {0,10,20,10}, SMA(2) = 15 → (10-15)/15*100 = -33.3333
	v, ok := OBVRatio([]float64{1, 2, 3, 2}, []float64{10, 10, 10, 10}, 2)
	if !ok {
		t.Fatal("OBVRatio: not ok")
	}
	assertClose(t, "OBV ratio", v, -33.333333, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Stochastic RSI
// ────────────────────────────────────────────────────────────

func TestStochasticRSI_Bounds(t *testing.T) {
	closes := []float64{
		50, 48, 52, 49, 53, 47, 55, 44, 60, 41, 62, 40, 58, 45, 57,
		46, 56, 48, 54, 49, 53, 50, 52, 51, 55, 47, 59, 43, 61, 42,
	}
	sr, ok := StochasticRSI(closes, 14, 14, 3, 3)
	if !ok {
		t.Fatal("StochasticRSI: not ok")
	}
	if sr.K < 0 || sr.K > 100 || sr.D < 0 || sr.D > 100 {
		t.Errorf("StochRSI out of bounds: K=%.2f D=%.2f", sr.K, sr.D)
	}
}

func TestStochasticRSI_Insufficient(t *testing.T) {
	if _, ok := StochasticRSI([]float64{1, 2, 3}, 14, 14, 3, 3); ok {
		t.Error("expected ok=false on short series")
	}
}

// ────────────────────────────────────────────────────────────
// DMI / ADX
// ────────────────────────────────────────────────────────────

func TestDMIADX_TrendDirection(t *testing.T) {
	// Steadily rising market: +DI should dominate and -DI stay at zero.
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100.0 + float64(i)*2
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}
	d, ok := DMIADX(highs, lows, closes, 14)
	if !ok {
		t.Fatal("DMIADX: not ok")
	}
	if d.PlusDI <= d.MinusDI {
		t.Errorf("rising market: +DI %.2f should exceed -DI %.2f", d.PlusDI, d.MinusDI)
	}
	if d.ADX < 0 || d.ADX > 100 {
		t.Errorf("ADX %.2f out of [0,100]", d.ADX)
	}
}

// ────────────────────────────────────────────────────────────
// Ichimoku / Pivots / SAR
// ────────────────────────────────────────────────────────────

func TestIchimoku_FlatSeries(t *testing.T) {
	n := 60
	flat := make([]float64, n)
	for i := range flat {
		flat[i] = 100
	}
	ic, ok := IchimokuCloud(flat, flat, flat)
	if !ok {
		t.Fatal("Ichimoku: not ok")
	}
	for label, v := range map[string]float64{
		"tenkan": ic.Tenkan, "kijun": ic.Kijun,
		"senkouA": ic.SenkouA, "senkouB": ic.SenkouB, "chikou": ic.Chikou,
	} {
		assertClose(t, "ichimoku "+label, v, 100.0, 1e-9)
	}
}

func TestIchimoku_Insufficient(t *testing.T) {
	short := make([]float64, 40)
	if _, ok := IchimokuCloud(short, short, short); ok {
		t.Error("expected ok=false below 52 candles")
	}
}

func TestPivots_Correctness(t *testing.T) {
	pp := Pivots(110, 90, 100)
	assertClose(t, "pivot", pp.Pivot, 100, 1e-9)
	assertClose(t, "r1", pp.R1, 110, 1e-9)
	assertClose(t, "r2", pp.R2, 120, 1e-9)
	assertClose(t, "r3", pp.R3, 130, 1e-9)
	assertClose(t, "s1", pp.S1, 90, 1e-9)
	assertClose(t, "s2", pp.S2, 80, 1e-9)
	assertClose(t, "s3", pp.S3, 70, 1e-9)
}

func TestParabolicSAR_StaysBelowRisingPrice(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100.0 + float64(i)*3
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}
	sar, ok := ParabolicSAR(highs, lows, closes, 0.02, 0.2)
	if !ok {
		t.Fatal("SAR: not ok")
	}
	if last := sar[len(sar)-1]; last >= closes[n-1] {
		t.Errorf("uptrend SAR %.2f should sit below price %.2f", last, closes[n-1])
	}
}

func TestParabolicSAR_Insufficient(t *testing.T) {
	short := []float64{1, 2, 3}
	if _, ok := ParabolicSAR(short, short, short, 0.02, 0.2); ok {
		t.Error("expected ok=false below 10 candles")
	}
}
