package position

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/model"
	"github.com/twbeatles/upbit-autotrader/internal/strategy"
)

// MinOrderKRW is Upbit's minimum market order value.
const MinOrderKRW = 5000

// Tick is one evaluation event for a single ticker: the observed price plus
// every series the strategy may read, stamped with the event time. The
// manager never consults the wall clock; all time flows in here.
type Tick struct {
	Ticker string
	Price  float64
	Series model.Series

	Recent      []float64
	LongSeries  model.Series
	ShortSeries model.Series

	Now     time.Time
	Balance float64 // available KRW
}

// pendingOrder tracks an order submitted but not yet confirmed filled.
type pendingOrder struct {
	orderID      string
	sell         bool
	reason       model.CloseReason
	partialLevel float64
	submitted    time.Time
}

// Manager owns every per-ticker position and drives the lifecycle
//
//	WATCHING -> PENDING_BUY -> HOLDING -> PENDING_SELL -> COOLDOWN -> WATCHING
//
// through engine decisions and gateway fills. All mutation happens under
// one mutex; callers may tick different tickers from different goroutines.
type Manager struct {
	mu      sync.Mutex
	engine  *strategy.Engine
	params  strategy.Parameters
	gateway model.OrderGateway
	sink    model.TradeSink
	gate    *RiskGate
	log     *slog.Logger

	positions map[string]*model.Position
	pending   map[string]pendingOrder

	winStreak  int
	lossStreak int
	closed     []model.Trade
}

// NewManager wires the state machine to its collaborators. sink may be nil
// when no journal is configured.
func NewManager(eng *strategy.Engine, p strategy.Parameters, gw model.OrderGateway, sink model.TradeSink, gate *RiskGate, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		engine:    eng,
		params:    p,
		gateway:   gw,
		sink:      sink,
		gate:      gate,
		log:       log,
		positions: make(map[string]*model.Position),
		pending:   make(map[string]pendingOrder),
	}
}

// OnTick advances the ticker's state machine by one evaluation. Errors are
// transient (gateway failures); the tick can simply be retried by the next
// price event.
func (m *Manager) OnTick(ctx context.Context, t Tick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gate.MaybeReset(t.Now, t.Balance+m.investedLocked())

	pos := m.positionLocked(t.Ticker)
	switch pos.State {
	case model.StatePendingBuy, model.StatePendingSell:
		return m.resolveLocked(ctx, pos, t.Now)

	case model.StateCooldown:
		if t.Now.Before(pos.CooldownUntil) {
			return nil
		}
		pos.State = model.StateWatching
		pos.CooldownUntil = time.Time{}
		fallthrough

	case model.StateWatching:
		return m.tryEnterLocked(ctx, pos, t)

	case model.StateHolding:
		return m.tryExitLocked(ctx, pos, t)
	}
	return nil
}

func (m *Manager) tryEnterLocked(ctx context.Context, pos *model.Position, t Tick) error {
	if ok, reason := m.gate.CanEnter(m.holdingCountLocked()); !ok {
		m.log.Debug("entry blocked", "ticker", t.Ticker, "reason", reason)
		return nil
	}

	d := m.engine.EvaluateEntry(strategy.EntryContext{
		Series:      t.Series,
		Price:       t.Price,
		Recent:      t.Recent,
		LongSeries:  t.LongSeries,
		ShortSeries: t.ShortSeries,
		Now:         t.Now,
	}, m.params)
	if d.Action != strategy.ActionBuy {
		return nil
	}

	amount := BetAmount(t.Balance, m.winStreak, m.lossStreak, m.params)
	if amount < MinOrderKRW {
		m.log.Warn("bet below exchange minimum, skipping entry",
			"ticker", t.Ticker, "amount", amount)
		return nil
	}

	orderID, err := m.gateway.MarketBuy(ctx, t.Ticker, amount)
	if err != nil {
		return fmt.Errorf("market buy %s: %w", t.Ticker, err)
	}
	pos.State = model.StatePendingBuy
	m.pending[t.Ticker] = pendingOrder{orderID: orderID, submitted: t.Now}
	m.log.Info("buy submitted",
		"ticker", t.Ticker, "amount", amount, "score", d.Score, "order", orderID)

	return m.resolveLocked(ctx, pos, t.Now)
}

func (m *Manager) tryExitLocked(ctx context.Context, pos *model.Position, t Tick) error {
	if t.Price > pos.HighSinceEntry {
		pos.HighSinceEntry = t.Price
	}
	if rate := pos.ProfitRate(t.Price); rate > pos.MaxProfitRate {
		pos.MaxProfitRate = rate
	}

	d := m.engine.EvaluateExit(strategy.ExitContext{
		Position: *pos,
		Series:   t.Series,
		Price:    t.Price,
		Now:      t.Now,
	}, m.params)
	if d.Action != strategy.ActionSell {
		return nil
	}

	qty := pos.Quantity * d.Fraction
	orderID, err := m.gateway.MarketSell(ctx, t.Ticker, qty)
	if err != nil {
		return fmt.Errorf("market sell %s: %w", t.Ticker, err)
	}
	pos.State = model.StatePendingSell
	m.pending[t.Ticker] = pendingOrder{
		orderID:      orderID,
		sell:         true,
		reason:       d.Reason,
		partialLevel: d.PartialLevel,
		submitted:    t.Now,
	}
	m.log.Info("sell submitted",
		"ticker", t.Ticker, "qty", qty, "reason", string(d.Reason), "order", orderID)

	return m.resolveLocked(ctx, pos, t.Now)
}

// resolveLocked polls the pending order and applies the fill when done. A
// still-waiting order leaves the state untouched for the next tick.
func (m *Manager) resolveLocked(ctx context.Context, pos *model.Position, now time.Time) error {
	po, ok := m.pending[pos.Ticker]
	if !ok {
		// Pending state without an order cannot make progress; recover.
		pos.State = model.StateWatching
		return nil
	}

	st, err := m.gateway.Order(ctx, po.orderID)
	if err != nil {
		return fmt.Errorf("poll order %s: %w", po.orderID, err)
	}
	switch {
	case st.State == model.OrderWait:
		return nil
	case st.State == model.OrderCancel, st.FilledQty == 0:
		// A terminal order that filled nothing must never mutate the
		// position; treat it as cancelled whatever the reported state.
		delete(m.pending, pos.Ticker)
		if po.sell {
			pos.State = model.StateHolding
		} else {
			pos.State = model.StateWatching
		}
		m.log.Warn("order voided", "ticker", pos.Ticker, "order", po.orderID, "state", st.State)
		return nil
	}

	delete(m.pending, pos.Ticker)
	if po.sell {
		m.applySellFillLocked(pos, po, st, now)
	} else {
		m.applyBuyFillLocked(pos, st, now)
	}
	return nil
}

func (m *Manager) applyBuyFillLocked(pos *model.Position, st model.OrderStatus, now time.Time) {
	pos.State = model.StateHolding
	pos.EntryPrice = st.AvgPrice
	pos.Quantity = st.FilledQty
	pos.Invested = st.AvgPrice*st.FilledQty + st.Fee
	pos.HighSinceEntry = st.AvgPrice
	pos.MaxProfitRate = 0
	pos.EntryTime = now
	pos.ExecutedLevels = nil

	m.record(model.TradeRecord{
		Timestamp: now,
		Ticker:    pos.Ticker,
		Type:      "BUY",
		Price:     st.AvgPrice,
		Quantity:  st.FilledQty,
		Amount:    pos.Invested,
	})
	m.log.Info("position opened",
		"ticker", pos.Ticker, "price", st.AvgPrice, "qty", st.FilledQty)
}

func (m *Manager) applySellFillLocked(pos *model.Position, po pendingOrder, st model.OrderStatus, now time.Time) {
	proceeds := st.AvgPrice*st.FilledQty - st.Fee
	costBasis := pos.EntryPrice * st.FilledQty
	profit := proceeds - costBasis

	partial := po.reason == model.ReasonPartial && st.FilledQty < pos.Quantity
	if partial {
		pos.Quantity -= st.FilledQty
		pos.Invested -= costBasis
		pos.State = model.StateHolding
		if po.partialLevel > 0 {
			pos.MarkLevelExecuted(po.partialLevel)
		}
		m.gate.RecordPnL(profit)
		m.record(model.TradeRecord{
			Timestamp: now,
			Ticker:    pos.Ticker,
			Type:      "PARTIAL",
			Price:     st.AvgPrice,
			Quantity:  st.FilledQty,
			Amount:    proceeds,
			Profit:    profit,
			Reason:    string(po.reason),
		})
		m.log.Info("partial close",
			"ticker", pos.Ticker, "level", po.partialLevel, "profit", profit)
		return
	}

	trade := model.Trade{
		Ticker:     pos.Ticker,
		EntryTime:  pos.EntryTime,
		EntryPrice: pos.EntryPrice,
		ExitTime:   now,
		ExitPrice:  st.AvgPrice,
		Quantity:   st.FilledQty,
		Profit:     profit,
		ProfitRate: pos.ProfitRate(st.AvgPrice),
		Reason:     po.reason,
	}
	m.closed = append(m.closed, trade)
	if trade.Win() {
		m.winStreak++
		m.lossStreak = 0
	} else {
		m.lossStreak++
		m.winStreak = 0
	}
	m.gate.RecordPnL(profit)
	m.record(model.TradeRecord{
		Timestamp: now,
		Ticker:    pos.Ticker,
		Type:      "SELL",
		Price:     st.AvgPrice,
		Quantity:  st.FilledQty,
		Amount:    proceeds,
		Profit:    profit,
		Reason:    string(po.reason),
	})
	m.log.Info("position closed",
		"ticker", pos.Ticker, "profit", profit, "rate", trade.ProfitRate,
		"reason", string(po.reason))

	pos.State = model.StateCooldown
	pos.CooldownUntil = now.Add(time.Duration(m.params.CooldownMinutes) * time.Minute)
	pos.EntryPrice = 0
	pos.Quantity = 0
	pos.Invested = 0
	pos.HighSinceEntry = 0
	pos.MaxProfitRate = 0
	pos.EntryTime = time.Time{}
	pos.ExecutedLevels = nil
}

// CloseAll market-sells every open holding, used at shutdown. Pending
// orders are polled to completion first where possible.
func (m *Manager) CloseAll(ctx context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, pos := range m.positions {
		if pos.State == model.StatePendingBuy || pos.State == model.StatePendingSell {
			if err := m.resolveLocked(ctx, pos, now); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if pos.State != model.StateHolding {
			continue
		}
		orderID, err := m.gateway.MarketSell(ctx, pos.Ticker, pos.Quantity)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		pos.State = model.StatePendingSell
		m.pending[pos.Ticker] = pendingOrder{
			orderID:   orderID,
			sell:      true,
			reason:    model.ReasonForcedClose,
			submitted: now,
		}
		if err := m.resolveLocked(ctx, pos, now); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Position returns a copy of the ticker's current position.
func (m *Manager) Position(ticker string) model.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.positionLocked(ticker)
}

// Holdings returns copies of every position currently in HOLDING.
func (m *Manager) Holdings() []model.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Position
	for _, p := range m.positions {
		if p.State == model.StateHolding {
			out = append(out, *p)
		}
	}
	return out
}

// ClosedTrades returns the closed-trade history accumulated this run.
func (m *Manager) ClosedTrades() []model.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Trade, len(m.closed))
	copy(out, m.closed)
	return out
}

// Streaks returns the current consecutive win and loss counts.
func (m *Manager) Streaks() (wins, losses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winStreak, m.lossStreak
}

func (m *Manager) positionLocked(ticker string) *model.Position {
	pos, ok := m.positions[ticker]
	if !ok {
		pos = &model.Position{Ticker: ticker, State: model.StateWatching}
		m.positions[ticker] = pos
	}
	return pos
}

func (m *Manager) holdingCountLocked() int {
	n := 0
	for _, p := range m.positions {
		if p.State == model.StateHolding || p.State == model.StatePendingBuy {
			n++
		}
	}
	return n
}

func (m *Manager) investedLocked() float64 {
	total := 0.0
	for _, p := range m.positions {
		total += p.Invested
	}
	return total
}

func (m *Manager) record(rec model.TradeRecord) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Record(rec); err != nil {
		m.log.Error("trade journal write failed", "err", err)
	}
}
