// Package trader runs the live evaluation loop: it drains quotes from the
// websocket ring, keeps a per-ticker price window, and periodically feeds
// the position manager one Tick per ticker.
package trader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/metrics"
	"github.com/twbeatles/upbit-autotrader/internal/model"
	"github.com/twbeatles/upbit-autotrader/internal/position"
	"github.com/twbeatles/upbit-autotrader/internal/ringbuf"
	"github.com/twbeatles/upbit-autotrader/internal/strategy"
)

// PriceCache is the subset of the Redis cache the trader reads and writes.
// A nil cache degrades to REST-only operation.
type PriceCache interface {
	SetPrice(ctx context.Context, ticker string, price float64) error
	Series(ctx context.Context, ticker string, iv model.Interval) (model.Series, bool, error)
}

// BalanceFunc reports available KRW. Live mode queries the exchange;
// paper mode reads the simulated wallet.
type BalanceFunc func(ctx context.Context) (float64, error)

// Config wires the trader's collaborators.
type Config struct {
	Tickers []string
	Params  strategy.Parameters

	Market  model.MarketData
	Ring    *ringbuf.Ring
	Cache   PriceCache // optional
	Manager *position.Manager
	Balance BalanceFunc

	EvalInterval time.Duration
	Metrics      *metrics.Metrics  // optional
	OnQuote      func(model.Quote) // optional observer, called per quote
	Logger       *slog.Logger
}

// Trader is the live loop. Create with New, drive with Run.
type Trader struct {
	cfg Config
	log *slog.Logger

	mu     sync.Mutex
	last   map[string]float64
	recent map[string][]float64
}

func New(cfg Config) *Trader {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EvalInterval <= 0 {
		cfg.EvalInterval = 10 * time.Second
	}
	return &Trader{
		cfg:    cfg,
		log:    cfg.Logger,
		last:   make(map[string]float64),
		recent: make(map[string][]float64),
	}
}

// Run drains quotes and evaluates tickers until ctx is cancelled, then
// closes every open position at the last seen prices.
func (t *Trader) Run(ctx context.Context) error {
	go t.drain(ctx)

	ticker := time.NewTicker(t.cfg.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return t.shutdown()
		case now := <-ticker.C:
			t.evaluateAll(ctx, now)
		}
	}
}

// drain is the single consumer of the quote ring.
func (t *Trader) drain(ctx context.Context) {
	idle := time.NewTicker(5 * time.Millisecond)
	defer idle.Stop()

	for {
		q, ok := t.cfg.Ring.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-idle.C:
			}
			continue
		}
		t.observe(ctx, q)
	}
}

func (t *Trader) observe(ctx context.Context, q model.Quote) {
	t.mu.Lock()
	t.last[q.Ticker] = q.Price
	window := t.cfg.Params.ConfirmTicks
	if window < 1 {
		window = 1
	}
	r := append(t.recent[q.Ticker], q.Price)
	if len(r) > window {
		r = r[len(r)-window:]
	}
	t.recent[q.Ticker] = r
	t.mu.Unlock()

	if m := t.cfg.Metrics; m != nil {
		m.QuotesTotal.Inc()
	}
	if t.cfg.OnQuote != nil {
		t.cfg.OnQuote(q)
	}
	if t.cfg.Cache != nil {
		cctx, cancel := context.WithTimeout(ctx, time.Second)
		if err := t.cfg.Cache.SetPrice(cctx, q.Ticker, q.Price); err != nil {
			t.log.Debug("price cache write failed", "ticker", q.Ticker, "err", err)
		}
		cancel()
	}
}

func (t *Trader) evaluateAll(ctx context.Context, now time.Time) {
	balance, err := t.cfg.Balance(ctx)
	if err != nil {
		t.log.Warn("balance lookup failed, skipping cycle", "err", err)
		t.countAPIError()
		return
	}

	for _, tk := range t.cfg.Tickers {
		start := time.Now()
		if err := t.evaluate(ctx, tk, now, balance); err != nil {
			t.log.Warn("evaluation failed", "ticker", tk, "err", err)
		}
		if m := t.cfg.Metrics; m != nil {
			m.EvalDur.Observe(time.Since(start).Seconds())
		}
	}

	if m := t.cfg.Metrics; m != nil {
		m.OpenPositions.Set(float64(len(t.cfg.Manager.Holdings())))
	}
}

func (t *Trader) evaluate(ctx context.Context, ticker string, now time.Time, balance float64) error {
	price, recent := t.snapshot(ticker)
	if price == 0 {
		p, err := t.cfg.Market.CurrentPrice(ctx, ticker)
		if err != nil {
			t.countAPIError()
			return err
		}
		price = p
		recent = []float64{p}
	}

	p := t.cfg.Params
	series, err := t.series(ctx, ticker, p.Interval, strategy.MaxLookback(p)+5)
	if err != nil {
		return err
	}

	tick := position.Tick{
		Ticker:  ticker,
		Price:   price,
		Series:  series,
		Recent:  recent,
		Now:     now,
		Balance: balance,
	}

	if p.UseMTF {
		long, err := t.series(ctx, ticker, p.MTFLongInterval, p.TrendPeriod+5)
		if err != nil {
			return err
		}
		short, err := t.series(ctx, ticker, p.MTFShortInterval, p.TrendPeriod+5)
		if err != nil {
			return err
		}
		tick.LongSeries = long
		tick.ShortSeries = short
	}

	return t.cfg.Manager.OnTick(ctx, tick)
}

// series prefers the cache, falling back to the REST client on miss.
func (t *Trader) series(ctx context.Context, ticker string, iv model.Interval, count int) (model.Series, error) {
	if t.cfg.Cache != nil {
		s, ok, err := t.cfg.Cache.Series(ctx, ticker, iv)
		if err == nil && ok && s.Len() >= count {
			return s, nil
		}
	}
	s, err := t.cfg.Market.Candles(ctx, ticker, iv, count)
	if err != nil {
		t.countAPIError()
	}
	return s, err
}

func (t *Trader) snapshot(ticker string) (float64, []float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.recent[ticker]
	out := make([]float64, len(r))
	copy(out, r)
	return t.last[ticker], out
}

func (t *Trader) shutdown() error {
	t.log.Info("shutting down, closing open positions")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return t.cfg.Manager.CloseAll(ctx, time.Now())
}

func (t *Trader) countAPIError() {
	if m := t.cfg.Metrics; m != nil {
		m.APIErrors.Inc()
	}
}
