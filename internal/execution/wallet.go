package execution

import (
	"sync"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// Wallet tracks simulated KRW cash for paper trading. It implements
// model.TradeSink so fills adjust the balance as they are journaled.
type Wallet struct {
	mu   sync.Mutex
	cash float64
}

// NewWallet creates a wallet holding the given KRW cash.
func NewWallet(cash float64) *Wallet {
	return &Wallet{cash: cash}
}

// Record applies a fill to the cash balance: buys spend, sells credit.
func (w *Wallet) Record(rec model.TradeRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch rec.Type {
	case "BUY":
		w.cash -= rec.Amount
	case "SELL", "PARTIAL":
		w.cash += rec.Amount
	}
	return nil
}

// Balance returns the current KRW cash.
func (w *Wallet) Balance() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cash
}
