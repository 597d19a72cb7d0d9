package model

import "time"

// PositionState is the per-ticker lifecycle state.
type PositionState string

const (
	// StateWatching: no position, eligible to buy.
	StateWatching PositionState = "WATCHING"
	// StatePendingBuy: buy order submitted, awaiting fill confirmation.
	StatePendingBuy PositionState = "PENDING_BUY"
	// StateHolding: position open; partial sells keep this state.
	StateHolding PositionState = "HOLDING"
	// StatePendingSell: sell order submitted, awaiting fill confirmation.
	StatePendingSell PositionState = "PENDING_SELL"
	// StateCooldown: recently sold, buying disabled until the timer elapses.
	StateCooldown PositionState = "COOLDOWN"
)

// Position is the live state for one ticker. Owned exclusively by the
// position manager and mutated only through its transition function.
type Position struct {
	Ticker         string        `json:"ticker"`
	State          PositionState `json:"state"`
	EntryPrice     float64       `json:"entry_price"`
	Quantity       float64       `json:"quantity"`
	Invested       float64       `json:"invested"` // KRW spent at entry, net of partials
	HighSinceEntry float64       `json:"high_since_entry"`
	MaxProfitRate  float64       `json:"max_profit_rate"` // % — highest unrealized profit seen
	EntryTime      time.Time     `json:"entry_time"`
	CooldownUntil  time.Time     `json:"cooldown_until,omitempty"`

	// ExecutedLevels records partial take-profit trigger rates already
	// fired for this position, so each ladder level fires at most once.
	ExecutedLevels []float64 `json:"executed_levels,omitempty"`
}

// ProfitRate returns the unrealized profit percentage at the given price.
func (p *Position) ProfitRate(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// LevelExecuted reports whether a partial take-profit level already fired.
func (p *Position) LevelExecuted(rate float64) bool {
	for _, r := range p.ExecutedLevels {
		if r == rate {
			return true
		}
	}
	return false
}

// MarkLevelExecuted records a partial take-profit level as fired.
func (p *Position) MarkLevelExecuted(rate float64) {
	if !p.LevelExecuted(rate) {
		p.ExecutedLevels = append(p.ExecutedLevels, rate)
	}
}

// HoldingDuration returns how long the position has been open as of now.
func (p *Position) HoldingDuration(now time.Time) time.Duration {
	if p.EntryTime.IsZero() {
		return 0
	}
	return now.Sub(p.EntryTime)
}
