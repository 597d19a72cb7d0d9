// Package model defines the core market-data and position types shared by
// the signal engine, the position state machine, and the backtest simulator.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Interval identifies a candle timeframe using Upbit's interval keys.
type Interval string

const (
	IntervalMinute1   Interval = "minute1"
	IntervalMinute5   Interval = "minute5"
	IntervalMinute15  Interval = "minute15"
	IntervalMinute30  Interval = "minute30"
	IntervalMinute60  Interval = "minute60"
	IntervalMinute240 Interval = "minute240"
	IntervalDay       Interval = "day"
)

// Duration returns the wall-clock length of one candle at this interval.
func (iv Interval) Duration() time.Duration {
	switch iv {
	case IntervalMinute1:
		return time.Minute
	case IntervalMinute5:
		return 5 * time.Minute
	case IntervalMinute15:
		return 15 * time.Minute
	case IntervalMinute30:
		return 30 * time.Minute
	case IntervalMinute60:
		return time.Hour
	case IntervalMinute240:
		return 4 * time.Hour
	case IntervalDay:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Candle is one OHLCV bar for a single ticker. Immutable once produced.
type Candle struct {
	TS     time.Time `json:"ts"` // bucket open time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Series is an ordered-by-timestamp candle sequence for one ticker at one
// fixed interval. Append-only during live operation, fixed during backtest.
type Series struct {
	Ticker   string   `json:"ticker"`
	Interval Interval `json:"interval"`
	Candles  []Candle `json:"candles"`
}

// Len returns the number of candles in the series.
func (s Series) Len() int { return len(s.Candles) }

// Last returns the most recent candle. ok is false for an empty series.
func (s Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// At returns the i-th candle counted from the end: At(0) is the last
// candle, At(1) the one before it. ok is false when out of range.
func (s Series) At(fromEnd int) (Candle, bool) {
	idx := len(s.Candles) - 1 - fromEnd
	if idx < 0 {
		return Candle{}, false
	}
	return s.Candles[idx], true
}

// Prefix returns a view of the first n candles. The backtest simulator uses
// this to present data "as of" a step without copying; callers must not
// mutate the shared backing array.
func (s Series) Prefix(n int) Series {
	if n > len(s.Candles) {
		n = len(s.Candles)
	}
	return Series{Ticker: s.Ticker, Interval: s.Interval, Candles: s.Candles[:n]}
}

// Closes returns the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high column.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

// Lows returns the low column.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}

// Volumes returns the volume column.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// Validate checks the series invariant: strictly increasing timestamps and
// non-negative prices. Gaps are tolerated; ordering violations are not.
func (s Series) Validate() error {
	for i, c := range s.Candles {
		if c.High < c.Low {
			return fmt.Errorf("candle %d: high %.4f < low %.4f", i, c.High, c.Low)
		}
		if i > 0 && !c.TS.After(s.Candles[i-1].TS) {
			return fmt.Errorf("candle %d: timestamp %s not after previous %s",
				i, c.TS.Format(time.RFC3339), s.Candles[i-1].TS.Format(time.RFC3339))
		}
	}
	return nil
}
