package strategy

import (
	"github.com/twbeatles/upbit-autotrader/internal/indicator"
	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// Snapshot bundles the indicator values computed for one ticker at one
// evaluation instant. It is derived data: built, consumed by the decision,
// and discarded — never persisted on its own.
type Snapshot struct {
	Target float64 // breakout target price
	K      float64 // breakout coefficient after gap adjustment

	MA   float64
	MAOK bool

	RSI   float64
	RSIOK bool

	MACD   indicator.MACDResult
	MACDOK bool

	Bands   indicator.BollingerBands
	BandsOK bool

	CurrentVolume float64
	AvgVolume     float64
	VolumeOK      bool

	StochRSI indicator.StochRSI
	StochOK  bool

	DMI   indicator.DMI
	DMIOK bool

	ATR   float64
	ATROK bool
}

// buildSnapshot computes every indicator the breakout entry path can read.
// Indicators whose windows exceed the available history come back with
// their OK flag false; the caller decides whether that fails a filter.
func buildSnapshot(s model.Series, p Parameters) Snapshot {
	closes := s.Closes()
	highs := s.Highs()
	lows := s.Lows()
	volumes := s.Volumes()

	snap := Snapshot{K: p.K}
	snap.MA, snap.MAOK = indicator.SMA(closes, p.MAPeriod)
	snap.RSI, snap.RSIOK = indicator.RSI(closes, p.RSIPeriod)
	snap.MACD, snap.MACDOK = indicator.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	snap.Bands, snap.BandsOK = indicator.Bollinger(closes, p.BBPeriod, p.BBStdDev)
	snap.CurrentVolume, snap.AvgVolume, snap.VolumeOK = indicator.VolumeAverage(volumes, p.VolumePeriod)
	snap.StochRSI, snap.StochOK = indicator.StochasticRSI(closes, p.RSIPeriod, 14, 3, 3)
	snap.DMI, snap.DMIOK = indicator.DMIADX(highs, lows, closes, p.ADXPeriod)
	snap.ATR, snap.ATROK = indicator.ATR(highs, lows, closes, 14)
	return snap
}
