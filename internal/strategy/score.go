package strategy

import "fmt"

// entryScore computes the 0-100 weighted entry score for the breakout
// strategy. Each satisfied factor contributes its configured weight; the
// returned reasons list one line per contribution.
func entryScore(price, target float64, snap Snapshot, p Parameters) (float64, []string) {
	w := p.EntryWeights
	score := 0.0
	var reasons []string
	add := func(pts float64, format string, args ...any) {
		score += pts
		reasons = append(reasons, fmt.Sprintf("+%.0f %s", pts, fmt.Sprintf(format, args...)))
	}

	if price >= target {
		add(w.TargetBreak, "target break (%.2f >= %.2f)", price, target)
	}
	if snap.MAOK && price >= snap.MA {
		add(w.MAFilter, "above MA%d", p.MAPeriod)
	}
	if snap.RSIOK {
		switch {
		case snap.RSI >= 30 && snap.RSI <= 70:
			add(w.RSIOptimal, "RSI %.1f optimal", snap.RSI)
		case snap.RSI < 30:
			add(w.RSIOptimal/2, "RSI %.1f oversold", snap.RSI)
		}
	}
	if snap.MACDOK && snap.MACD.MACD > snap.MACD.Signal {
		add(w.MACDGolden, "MACD golden cross")
	}
	if snap.VolumeOK && snap.CurrentVolume >= snap.AvgVolume*p.VolumeMultiplier {
		add(w.VolumeConfirm, "volume %.1fx average", snap.CurrentVolume/snap.AvgVolume)
	}
	if snap.BandsOK {
		switch {
		case price >= snap.Bands.Lower && price <= snap.Bands.Middle:
			add(w.BBPosition, "lower Bollinger half")
		case price > snap.Bands.Middle && price <= snap.Bands.Upper:
			add(w.BBPosition/2, "upper Bollinger half")
		}
	}
	return score, reasons
}
