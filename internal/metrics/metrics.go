// Package metrics exposes Prometheus metrics and a JSON health endpoint
// for the live trader.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trader.
type Metrics struct {
	QuotesTotal   prometheus.Counter
	QuotesDropped prometheus.Counter
	WSReconnects  prometheus.Counter

	OrdersTotal  *prometheus.CounterVec // labels: side
	TradesClosed *prometheus.CounterVec // labels: reason
	APIErrors    prometheus.Counter

	OpenPositions prometheus.Gauge
	DailyPnL      prometheus.Gauge
	EvalDur       prometheus.Histogram

	RedisBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
}

// New registers and returns all trader metrics.
func New() *Metrics {
	m := &Metrics{
		QuotesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_quotes_total",
			Help: "Total price quotes received from the websocket",
		}),
		QuotesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_quotes_dropped_total",
			Help: "Quotes dropped by a full ring buffer",
		}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_ws_reconnects_total",
			Help: "Websocket reconnections",
		}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_total",
			Help: "Orders submitted to the exchange",
		}, []string{"side"}),
		TradesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_trades_closed_total",
			Help: "Positions closed, by close reason",
		}, []string{"reason"}),
		APIErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_api_errors_total",
			Help: "Upbit API call failures",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_open_positions",
			Help: "Positions currently held",
		}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_daily_pnl_krw",
			Help: "Realized profit and loss since the daily reset",
		}),
		EvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_eval_duration_seconds",
			Help:    "Time spent evaluating one ticker",
			Buckets: prometheus.DefBuckets,
		}),
		RedisBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_redis_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
	}

	prometheus.MustRegister(
		m.QuotesTotal, m.QuotesDropped, m.WSReconnects,
		m.OrdersTotal, m.TradesClosed, m.APIErrors,
		m.OpenPositions, m.DailyPnL, m.EvalDur,
		m.RedisBreakerState,
	)
	return m
}

// HealthStatus tracks liveness of the trader's dependencies.
type HealthStatus struct {
	mu sync.RWMutex

	StartedAt       time.Time
	WSConnected     bool
	LastQuoteTime   time.Time
	RedisConnected  bool
	RedisLatencyMs  float64
	SQLiteOK        bool
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
}

// NewHealthStatus creates a health tracker.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// SetWSConnected records the websocket connection state.
func (h *HealthStatus) SetWSConnected(v bool) {
	h.mu.Lock()
	h.WSConnected = v
	h.mu.Unlock()
}

// SetLastQuoteTime records the arrival time of the latest quote.
func (h *HealthStatus) SetLastQuoteTime(t time.Time) {
	h.mu.Lock()
	h.LastQuoteTime = t
	h.mu.Unlock()
}

// CheckRedis pings Redis and records connectivity plus latency.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records connectivity plus latency.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker probes the given dependencies every interval until
// ctx is cancelled. Nil dependencies are skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckSQLite(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP reports health as JSON; 503 when a dependency is down.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.WSConnected || !h.RedisConnected || !h.SQLiteOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	quoteAge := ""
	if !h.LastQuoteTime.IsZero() {
		quoteAge = time.Since(h.LastQuoteTime).Round(time.Millisecond).String()
	}

	body := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		WSConnected     bool    `json:"ws_connected"`
		QuoteAge        string  `json:"quote_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
	}{
		Status:          status,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		WSConnected:     h.WSConnected,
		QuoteAge:        quoteAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// Server exposes /metrics and /healthz.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// NewServer builds the observability HTTP server.
func NewServer(addr string, health *HealthStatus, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", health)
	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: log,
	}
}

// Start serves in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("metrics server failed", "err", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("metrics server shutdown", "err", err)
	}
}
