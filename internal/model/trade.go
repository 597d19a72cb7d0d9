package model

import "time"

// CloseReason explains why a position (or part of one) was closed.
type CloseReason string

const (
	ReasonStopLoss     CloseReason = "stop-loss"
	ReasonTrailingStop CloseReason = "trailing-stop"
	ReasonTimeExit     CloseReason = "time-exit"
	ReasonPartial      CloseReason = "partial"
	ReasonForcedClose  CloseReason = "forced-close"
	ReasonManual       CloseReason = "manual"
	ReasonDeadCross    CloseReason = "dead-cross"
	ReasonOverbought   CloseReason = "rsi-overbought"
	ReasonTakeProfit   CloseReason = "take-profit"
)

// Trade is a closed-position record. Created once, immutable thereafter.
type Trade struct {
	Ticker     string      `json:"ticker"`
	EntryTime  time.Time   `json:"entry_time"`
	EntryPrice float64     `json:"entry_price"`
	ExitTime   time.Time   `json:"exit_time"`
	ExitPrice  float64     `json:"exit_price"`
	Quantity   float64     `json:"quantity"`
	Profit     float64     `json:"profit"`      // realized KRW, net of commission
	ProfitRate float64     `json:"profit_rate"` // %
	Reason     CloseReason `json:"reason"`
}

// Win reports whether the trade closed with positive realized profit.
func (t *Trade) Win() bool { return t.Profit > 0 }

// TradeRecord is the append-only journal record emitted to the trade log
// sink for every fill (entries, partials, and full closes).
type TradeRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Ticker    string    `json:"ticker"`
	Type      string    `json:"type"` // BUY, SELL, PARTIAL
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Amount    float64   `json:"amount"` // KRW value of the fill
	Profit    float64   `json:"profit"` // realized KRW (0 for BUY)
	Reason    string    `json:"reason"`
}
