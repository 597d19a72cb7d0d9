package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Upbit credentials (unused in paper mode)
	UpbitAccessKey string
	UpbitSecretKey string

	// Trading
	Tickers      string // comma-separated, e.g. "KRW-BTC,KRW-ETH"
	ParamsPath   string // strategy parameter JSON, "" for defaults
	Paper        bool
	PaperBalance float64 // starting KRW for paper mode
	EvalInterval time.Duration
	PollInterval time.Duration
	CandleUnit   int // minute-candle unit for the working series

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	AMQPURI       string
	MetricsAddr   string
	LogLevel      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		UpbitAccessKey: getEnv("UPBIT_ACCESS_KEY", ""),
		UpbitSecretKey: getEnv("UPBIT_SECRET_KEY", ""),

		Tickers:      getEnv("TICKERS", "KRW-BTC,KRW-ETH,KRW-XRP"),
		ParamsPath:   getEnv("PARAMS_PATH", ""),
		Paper:        getEnvBool("PAPER_TRADING", true),
		PaperBalance: getEnvFloat("PAPER_BALANCE", 1_000_000),
		EvalInterval: getEnvDuration("EVAL_INTERVAL", 10*time.Second),
		PollInterval: getEnvDuration("CANDLE_POLL_INTERVAL", time.Minute),
		CandleUnit:   getEnvInt("CANDLE_UNIT", 60),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/trader.db"),
		AMQPURI:       getEnv("AMQP_URI", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// RequireKeys aborts unless Upbit credentials are present. Called by the
// live trader before touching private endpoints; paper mode skips it.
func (c *Config) RequireKeys() {
	if c.UpbitAccessKey == "" || c.UpbitSecretKey == "" {
		log.Fatal("[config] UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY must be set for live trading")
	}
}

// ParseTickers splits the Tickers string into a cleaned slice.
func (c *Config) ParseTickers() []string {
	parts := strings.Split(c.Tickers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid bool for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid duration for %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
