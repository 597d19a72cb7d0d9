// Package backtest replays historical candles through the signal engine
// and the position state machine, with instant paper fills. The replay is
// fully deterministic: time flows only from candle timestamps and every
// evaluation sees exactly the candles closed so far.
package backtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/execution"
	"github.com/twbeatles/upbit-autotrader/internal/model"
	"github.com/twbeatles/upbit-autotrader/internal/position"
	"github.com/twbeatles/upbit-autotrader/internal/strategy"
)

// Config drives one simulation run.
type Config struct {
	Params         strategy.Parameters
	InitialBalance float64
	CommissionRate float64 // applied to both sides of every fill

	// Sink, when set, receives every fill record exactly as live trading
	// would journal it.
	Sink model.TradeSink

	// Logger defaults to a discard logger; the simulator itself stays
	// silent unless one is supplied.
	Logger *slog.Logger
}

// EquityPoint is one mark-to-market sample of total account value.
type EquityPoint struct {
	TS     time.Time `json:"ts"`
	Equity float64   `json:"equity"`
}

// Result is the full outcome of one simulation.
type Result struct {
	Ticker         string        `json:"ticker"`
	InitialBalance float64       `json:"initial_balance"`
	FinalBalance   float64       `json:"final_balance"`
	Trades         []model.Trade `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	WarmUp         int           `json:"warm_up"`   // candles skipped before the first evaluation
	Evaluated      int           `json:"evaluated"` // candles actually evaluated
}

// Return is the total return percentage over the run.
func (r *Result) Return() float64 {
	if r.InitialBalance == 0 {
		return 0
	}
	return (r.FinalBalance - r.InitialBalance) / r.InitialBalance * 100
}

// balanceSink tracks cash through fills: buys spend, sells credit.
type balanceSink struct {
	balance float64
	next    model.TradeSink
}

func (b *balanceSink) Record(rec model.TradeRecord) error {
	switch rec.Type {
	case "BUY":
		b.balance -= rec.Amount
	case "SELL", "PARTIAL":
		b.balance += rec.Amount
	}
	if b.next != nil {
		return b.next.Record(rec)
	}
	return nil
}

// Run simulates the configured strategy over one candle series. The series
// must be valid, ordered, and longer than the warm-up window; a run that
// cannot start still returns a structured zero-trade result alongside the
// error, so callers never see a partial.
func Run(ctx context.Context, s model.Series, cfg Config) (*Result, error) {
	empty := &Result{
		Ticker:         s.Ticker,
		InitialBalance: cfg.InitialBalance,
		FinalBalance:   cfg.InitialBalance,
		Trades:         []model.Trade{},
		EquityCurve:    []EquityPoint{},
	}
	if err := cfg.Params.Validate(); err != nil {
		return empty, err
	}
	if err := s.Validate(); err != nil {
		return empty, fmt.Errorf("backtest %s: %w", s.Ticker, err)
	}
	warm := strategy.MaxLookback(cfg.Params)
	empty.WarmUp = warm
	if s.Len() <= warm {
		return empty, fmt.Errorf("backtest %s: %d candles, need more than the %d-candle warm-up",
			s.Ticker, s.Len(), warm)
	}
	if cfg.InitialBalance <= 0 {
		return empty, fmt.Errorf("backtest %s: initial balance must be positive", s.Ticker)
	}

	eng, err := strategy.New(cfg.Params)
	if err != nil {
		return empty, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Paper fills at the close of the candle being evaluated.
	price := 0.0
	gw := execution.NewPaperGateway(func(string) float64 { return price }, cfg.CommissionRate, 0)
	sink := &balanceSink{balance: cfg.InitialBalance, next: cfg.Sink}
	gate := position.NewRiskGate(cfg.Params.MaxDailyLossPct, cfg.Params.MaxHoldings,
		s.Candles[0].TS, cfg.InitialBalance)
	mgr := position.NewManager(eng, cfg.Params, gw, sink, gate, log)

	res := &Result{
		Ticker:         s.Ticker,
		InitialBalance: cfg.InitialBalance,
		WarmUp:         warm,
		EquityCurve:    make([]EquityPoint, 0, s.Len()-warm),
	}

	closes := s.Closes()
	for i := warm; i < s.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := s.Candles[i]
		price = c.Close

		if err := mgr.OnTick(ctx, position.Tick{
			Ticker:  s.Ticker,
			Price:   c.Close,
			Series:  s.Prefix(i + 1),
			Recent:  recentCloses(closes[:i+1], cfg.Params.ConfirmTicks),
			Now:     c.TS,
			Balance: sink.balance,
		}); err != nil {
			return nil, err
		}
		res.Evaluated++

		equity := sink.balance + mgr.Position(s.Ticker).Quantity*c.Close
		res.EquityCurve = append(res.EquityCurve, EquityPoint{TS: c.TS, Equity: equity})
	}

	// Close whatever is still open at the final candle's close.
	last := s.Candles[s.Len()-1]
	price = last.Close
	if err := mgr.CloseAll(ctx, last.TS); err != nil {
		return nil, err
	}
	res.FinalBalance = sink.balance
	if n := len(res.EquityCurve); n > 0 {
		res.EquityCurve[n-1].Equity = sink.balance
	}
	res.Trades = mgr.ClosedTrades()
	return res, nil
}

// recentCloses returns the trailing n closes, standing in for live tick
// observations during replay.
func recentCloses(closes []float64, n int) []float64 {
	if n <= 0 || len(closes) == 0 {
		return nil
	}
	if n > len(closes) {
		n = len(closes)
	}
	return closes[len(closes)-n:]
}
