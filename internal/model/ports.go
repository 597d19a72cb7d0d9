package model

import "context"

// ── Collaborator port interfaces ──
// These decouple the decision core from the exchange and from persistence.
// The live driver and the backtest simulator differ only in which
// implementations they plug in here.

// MarketData provides candle history and current prices. Implementations
// may fail transiently; callers treat failure as "no signal this tick".
type MarketData interface {
	// Candles fetches the most recent count candles for ticker at interval,
	// ordered oldest first.
	Candles(ctx context.Context, ticker string, interval Interval, count int) (Series, error)

	// CurrentPrice fetches the latest traded price for ticker.
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
}

// OrderState is the lifecycle state of a submitted order.
type OrderState string

const (
	OrderWait   OrderState = "wait"
	OrderDone   OrderState = "done"
	OrderCancel OrderState = "cancel"
)

// OrderStatus is a fill-confirmation snapshot for a submitted order.
type OrderStatus struct {
	ID        string     `json:"id"`
	State     OrderState `json:"state"`
	FilledQty float64    `json:"filled_qty"`
	AvgPrice  float64    `json:"avg_price"`
	Fee       float64    `json:"fee"`
}

// OrderGateway submits market orders and reports fills. Retry and backoff
// are the gateway's responsibility, never the core's.
type OrderGateway interface {
	// MarketBuy spends krwAmount at market and returns the order ID.
	MarketBuy(ctx context.Context, ticker string, krwAmount float64) (string, error)

	// MarketSell sells quantity at market and returns the order ID.
	MarketSell(ctx context.Context, ticker string, quantity float64) (string, error)

	// Order polls the current status of a submitted order.
	Order(ctx context.Context, orderID string) (OrderStatus, error)
}

// TradeSink consumes immutable trade records. The core only ever writes;
// it never reads the log back.
type TradeSink interface {
	Record(rec TradeRecord) error
}

// MultiSink fans a record out to several sinks, returning the first error.
type MultiSink []TradeSink

func (m MultiSink) Record(rec TradeRecord) error {
	var firstErr error
	for _, s := range m {
		if err := s.Record(rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
