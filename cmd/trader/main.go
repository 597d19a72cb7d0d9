// cmd/trader runs the live (or paper) trading loop against Upbit: websocket
// quotes feed the ring buffer, a poller keeps candles fresh in SQLite and
// Redis, and the position manager trades the volatility breakout strategy.
//
// Usage:
//
//	UPBIT_ACCESS_KEY=... UPBIT_SECRET_KEY=... PAPER_TRADING=false go run ./cmd/trader
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/twbeatles/upbit-autotrader/config"
	"github.com/twbeatles/upbit-autotrader/internal/execution"
	"github.com/twbeatles/upbit-autotrader/internal/logger"
	"github.com/twbeatles/upbit-autotrader/internal/marketdata/upbit"
	"github.com/twbeatles/upbit-autotrader/internal/metrics"
	"github.com/twbeatles/upbit-autotrader/internal/model"
	"github.com/twbeatles/upbit-autotrader/internal/position"
	"github.com/twbeatles/upbit-autotrader/internal/ringbuf"
	amqpsink "github.com/twbeatles/upbit-autotrader/internal/sink/amqp"
	redisstore "github.com/twbeatles/upbit-autotrader/internal/store/redis"
	sqlitestore "github.com/twbeatles/upbit-autotrader/internal/store/sqlite"
	"github.com/twbeatles/upbit-autotrader/internal/strategy"
	"github.com/twbeatles/upbit-autotrader/internal/trader"
)

func main() {
	cfg := config.Load()
	slogger := logger.Init("trader", logger.ParseLevel(cfg.LogLevel))

	params, err := loadParams(cfg.ParamsPath)
	if err != nil {
		log.Fatalf("[trader] params: %v", err)
	}
	tickers := cfg.ParseTickers()
	if len(tickers) == 0 {
		log.Fatal("[trader] no tickers configured")
	}
	slogger.Info("starting", "strategy", params.Kind, "tickers", tickers, "paper", cfg.Paper)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("signal received, stopping")
		cancel()
	}()

	// ---- Persistence ----
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		log.Fatalf("[trader] data dir create failed: %v", err)
	}
	store, err := sqlitestore.Open(cfg.SQLitePath, slogger)
	if err != nil {
		log.Fatalf("[trader] sqlite open failed: %v", err)
	}
	defer store.Close()

	// ---- Observability ----
	prom := metrics.New()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, slogger)
	metricsSrv.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsSrv.Stop(stopCtx)
		stopCancel()
	}()

	// ---- Cache (optional; trading continues without it) ----
	cache, err := redisstore.NewCache(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, slogger)
	if err != nil {
		slogger.Warn("redis unavailable, running without cache", "err", err)
		cache = nil
	} else {
		defer cache.Close()
		cache.OnBreakerChange(func(_, to string) {
			prom.RedisBreakerState.Set(breakerStateValue(to))
		})
		health.StartLivenessChecker(ctx, cache.Client(), store.DB(), 15*time.Second)
	}
	if cache == nil {
		health.StartLivenessChecker(ctx, nil, store.DB(), 15*time.Second)
	}

	// ---- Exchange ----
	client := upbit.NewClient(cfg.UpbitAccessKey, cfg.UpbitSecretKey, slogger)

	// ---- Journal sinks ----
	sinks := model.MultiSink{store}
	if cfg.AMQPURI != "" {
		pub, err := amqpsink.NewPublisher(cfg.AMQPURI, slogger)
		if err != nil {
			log.Fatalf("[trader] amqp connect failed: %v", err)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	// ---- Gateway and balance source ----
	var (
		gateway model.OrderGateway
		balance trader.BalanceFunc
		equity  float64
	)
	if cfg.Paper {
		wallet := execution.NewWallet(cfg.PaperBalance)
		sinks = append(sinks, wallet)
		gateway = execution.NewPaperGateway(func(ticker string) float64 {
			pctx, pcancel := context.WithTimeout(ctx, 3*time.Second)
			defer pcancel()
			px, err := client.CurrentPrice(pctx, ticker)
			if err != nil {
				slogger.Warn("paper fill price lookup failed", "ticker", ticker, "err", err)
				return 0
			}
			return px
		}, 0.0005, 5)
		balance = func(context.Context) (float64, error) { return wallet.Balance(), nil }
		equity = cfg.PaperBalance
	} else {
		cfg.RequireKeys()
		gateway = client
		balance = func(ctx context.Context) (float64, error) { return client.Balance(ctx, "KRW") }
		eq, err := client.Balance(ctx, "KRW")
		if err != nil {
			log.Fatalf("[trader] balance fetch failed: %v", err)
		}
		equity = eq
	}

	// ---- Position manager ----
	engine, err := strategy.New(params)
	if err != nil {
		log.Fatalf("[trader] engine init failed: %v", err)
	}
	gate := position.NewRiskGate(params.MaxDailyLossPct, params.MaxHoldings, time.Now(), equity)
	manager := position.NewManager(engine, params, gateway, countingSink{sinks, prom}, gate, slogger)

	// ---- Market data pipeline ----
	ring := ringbuf.New(4096)
	stream := upbit.NewStream(tickers, ring, slogger)
	stream.OnReconnect = func() {
		prom.WSReconnects.Inc()
		health.SetWSConnected(true)
	}
	go func() {
		if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
			slogger.Error("websocket stream stopped", "err", err)
		}
		health.SetWSConnected(false)
	}()
	go watchGauges(ctx, ring, gate, prom)

	var cacher upbit.SeriesCacher
	if cache != nil {
		cacher = cache
	}
	poller := upbit.NewPoller(client, store, cacher, tickers,
		params.Interval, strategy.MaxLookback(params)+10, cfg.PollInterval, slogger)
	go poller.Run(ctx)

	// ---- Run ----
	tr := trader.New(trader.Config{
		Tickers:      tickers,
		Params:       params,
		Market:       client,
		Ring:         ring,
		Cache:        cacheOrNil(cache),
		Manager:      manager,
		Balance:      balance,
		EvalInterval: cfg.EvalInterval,
		Metrics:      prom,
		OnQuote:      func(q model.Quote) { health.SetLastQuoteTime(q.TS) },
		Logger:       slogger,
	})
	if err := tr.Run(ctx); err != nil {
		slogger.Error("shutdown close failed", "err", err)
	}
	slogger.Info("stopped", "daily_pnl", gate.DailyPnL())
}

func loadParams(path string) (strategy.Parameters, error) {
	if path == "" {
		return strategy.Defaults(), nil
	}
	return strategy.LoadParameters(path)
}

// cacheOrNil avoids handing the trader a typed nil interface.
func cacheOrNil(c *redisstore.Cache) trader.PriceCache {
	if c == nil {
		return nil
	}
	return c
}

func breakerStateValue(state string) float64 {
	switch state {
	case "open":
		return 1
	case "half-open":
		return 2
	default:
		return 0
	}
}

// watchGauges converts the ring's monotonic drop count into counter
// increments and mirrors realized daily PnL into its gauge.
func watchGauges(ctx context.Context, ring *ringbuf.Ring, gate *position.RiskGate, prom *metrics.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	var seen uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := ring.Dropped()
			if now > seen {
				prom.QuotesDropped.Add(float64(now - seen))
				seen = now
			}
			prom.DailyPnL.Set(gate.DailyPnL())
		}
	}
}

// countingSink journals through the wrapped sinks and bumps fill metrics.
type countingSink struct {
	next model.TradeSink
	prom *metrics.Metrics
}

func (s countingSink) Record(rec model.TradeRecord) error {
	switch rec.Type {
	case "BUY":
		s.prom.OrdersTotal.WithLabelValues("buy").Inc()
	case "SELL", "PARTIAL":
		s.prom.OrdersTotal.WithLabelValues("sell").Inc()
	}
	if rec.Type == "SELL" && rec.Reason != "" {
		s.prom.TradesClosed.WithLabelValues(rec.Reason).Inc()
	}
	return s.next.Record(rec)
}
