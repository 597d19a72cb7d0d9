// Package position implements the per-ticker lifecycle state machine and
// the portfolio risk gate that sits in front of every entry.
package position

import (
	"fmt"
	"sync"
	"time"
)

// RiskGate enforces the portfolio-level entry limits: the sticky daily
// loss cut and the concurrent holdings cap. Once the daily loss trips,
// entries stay blocked until the next daily reset even if later wins pull
// the realized P&L back above the line.
type RiskGate struct {
	mu sync.RWMutex

	maxDailyLossPct float64
	maxHoldings     int

	day         time.Time // start of the current trading day
	startEquity float64   // equity at daily reset
	realizedPnL float64   // realized KRW since reset
	tripped     bool
}

// NewRiskGate creates a gate with the given limits, starting a fresh day
// at the given equity.
func NewRiskGate(maxDailyLossPct float64, maxHoldings int, now time.Time, equity float64) *RiskGate {
	return &RiskGate{
		maxDailyLossPct: maxDailyLossPct,
		maxHoldings:     maxHoldings,
		day:             now.Truncate(24 * time.Hour),
		startEquity:     equity,
	}
}

// CanEnter checks whether a new entry is allowed right now. Returns false
// with a reason when a limit blocks it.
func (g *RiskGate) CanEnter(openHoldings int) (bool, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.tripped {
		return false, "daily loss limit reached"
	}
	if g.maxHoldings > 0 && openHoldings >= g.maxHoldings {
		return false, fmt.Sprintf("max holdings %d reached", g.maxHoldings)
	}
	return true, ""
}

// RecordPnL folds a realized profit or loss into the daily tally and trips
// the gate when the loss limit is crossed.
func (g *RiskGate) RecordPnL(pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.realizedPnL += pnl
	if g.tripped || g.startEquity <= 0 || g.maxDailyLossPct <= 0 {
		return
	}
	lossPct := -g.realizedPnL / g.startEquity * 100
	if lossPct >= g.maxDailyLossPct {
		g.tripped = true
	}
}

// MaybeReset rolls the gate to a new day when now has crossed the day
// boundary. Safe to call on every tick.
func (g *RiskGate) MaybeReset(now time.Time, equity float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := now.Truncate(24 * time.Hour)
	if !day.After(g.day) {
		return
	}
	g.day = day
	g.startEquity = equity
	g.realizedPnL = 0
	g.tripped = false
}

// Tripped reports whether the daily loss cut has fired today.
func (g *RiskGate) Tripped() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tripped
}

// DailyPnL returns the realized P&L since the last daily reset.
func (g *RiskGate) DailyPnL() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.realizedPnL
}
