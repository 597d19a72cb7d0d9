package model

import "time"

// Quote is one observed price for a ticker, from the websocket stream or a
// REST poll.
type Quote struct {
	Ticker string    `json:"ticker"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"`
}
