// Package execution provides order gateway implementations. The paper
// gateway here serves dry runs and tests; the live Upbit gateway lives in
// internal/marketdata/upbit.
package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// PriceFunc supplies the current market price for a ticker.
type PriceFunc func(ticker string) float64

// PaperGateway simulates Upbit market orders without broker calls: every
// order fills instantly at the supplied price, with configurable
// commission and slippage.
type PaperGateway struct {
	mu       sync.Mutex
	price    PriceFunc
	orders   map[string]model.OrderStatus
	orderSeq int64

	commissionRate float64 // e.g. 0.0005 = 0.05%
	slippageBps    float64 // basis points applied against the taker
}

// NewPaperGateway creates a paper gateway filling at prices from fn.
func NewPaperGateway(fn PriceFunc, commissionRate, slippageBps float64) *PaperGateway {
	return &PaperGateway{
		price:          fn,
		orders:         make(map[string]model.OrderStatus),
		commissionRate: commissionRate,
		slippageBps:    slippageBps,
	}
}

// MarketBuy fills the full KRW amount at the current price plus slippage.
func (p *PaperGateway) MarketBuy(ctx context.Context, ticker string, krwAmount float64) (string, error) {
	px := p.price(ticker)
	if px <= 0 {
		return "", fmt.Errorf("paper buy %s: no price", ticker)
	}
	px *= 1 + p.slippageBps/10000
	fee := krwAmount * p.commissionRate
	qty := (krwAmount - fee) / px
	return p.fill(qty, px, fee), nil
}

// MarketSell fills the full quantity at the current price minus slippage.
func (p *PaperGateway) MarketSell(ctx context.Context, ticker string, quantity float64) (string, error) {
	px := p.price(ticker)
	if px <= 0 {
		return "", fmt.Errorf("paper sell %s: no price", ticker)
	}
	px *= 1 - p.slippageBps/10000
	fee := px * quantity * p.commissionRate
	return p.fill(quantity, px, fee), nil
}

// Order returns the stored fill; paper orders are always done.
func (p *PaperGateway) Order(ctx context.Context, orderID string) (model.OrderStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.orders[orderID]
	if !ok {
		return model.OrderStatus{}, fmt.Errorf("paper order %s: not found", orderID)
	}
	return st, nil
}

func (p *PaperGateway) fill(qty, price, fee float64) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orderSeq++
	id := fmt.Sprintf("PAPER-%d", p.orderSeq)
	p.orders[id] = model.OrderStatus{
		ID:        id,
		State:     model.OrderDone,
		FilledQty: qty,
		AvgPrice:  price,
		Fee:       fee,
	}
	return id
}
