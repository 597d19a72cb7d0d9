// Package redis caches latest prices and candle series so restarts and
// sibling processes avoid refetching the exchange API, and publishes price
// updates over pub/sub. Every call runs through a circuit breaker: a dead
// Redis degrades the cache to a miss, never blocks trading.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

const (
	priceTTL  = 5 * time.Minute
	seriesTTL = 30 * time.Minute
)

// Config configures the cache connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Cache is a thin typed layer over one Redis connection.
type Cache struct {
	client  *goredis.Client
	breaker *Breaker
	log     *slog.Logger
}

// NewCache connects and pings the server.
func NewCache(cfg Config, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := &Cache{
		client:  client,
		breaker: NewBreaker(5, 10*time.Second),
		log:     log,
	}
	c.breaker.OnStateChange = func(from, to string) {
		log.Warn("redis breaker state change", "from", from, "to", to)
	}
	log.Info("redis connected", "addr", cfg.Addr)
	return c, nil
}

// Client exposes the connection for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// OnBreakerChange registers an extra observer for breaker transitions,
// chained after the built-in log line.
func (c *Cache) OnBreakerChange(fn func(from, to string)) {
	base := c.breaker.OnStateChange
	c.breaker.OnStateChange = func(from, to string) {
		base(from, to)
		fn(from, to)
	}
}

func priceKey(ticker string) string     { return "price:" + ticker }
func priceChannel(ticker string) string { return "pub:price:" + ticker }

func seriesKey(t string, iv model.Interval) string {
	return "candles:" + t + ":" + string(iv)
}

// SetPrice stores the latest traded price and publishes it.
func (c *Cache) SetPrice(ctx context.Context, ticker string, price float64) error {
	return c.breaker.Do(func() error {
		val := strconv.FormatFloat(price, 'f', -1, 64)
		if err := c.client.Set(ctx, priceKey(ticker), val, priceTTL).Err(); err != nil {
			return err
		}
		return c.client.Publish(ctx, priceChannel(ticker), val).Err()
	})
}

// Price returns the cached latest price; ok is false on a miss.
func (c *Cache) Price(ctx context.Context, ticker string) (price float64, ok bool, err error) {
	err = c.breaker.Do(func() error {
		val, gerr := c.client.Get(ctx, priceKey(ticker)).Result()
		if gerr == goredis.Nil {
			return nil
		}
		if gerr != nil {
			return gerr
		}
		p, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("redis price parse: %w", perr)
		}
		price, ok = p, true
		return nil
	})
	return price, ok, err
}

// SetSeries caches a candle series as JSON.
func (c *Cache) SetSeries(ctx context.Context, s model.Series) error {
	return c.breaker.Do(func() error {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		return c.client.Set(ctx, seriesKey(s.Ticker, s.Interval), data, seriesTTL).Err()
	})
}

// Series returns a cached candle series; ok is false on a miss.
func (c *Cache) Series(ctx context.Context, ticker string, iv model.Interval) (s model.Series, ok bool, err error) {
	err = c.breaker.Do(func() error {
		data, gerr := c.client.Get(ctx, seriesKey(ticker, iv)).Bytes()
		if gerr == goredis.Nil {
			return nil
		}
		if gerr != nil {
			return gerr
		}
		if uerr := json.Unmarshal(data, &s); uerr != nil {
			return fmt.Errorf("redis series decode: %w", uerr)
		}
		ok = true
		return nil
	})
	return s, ok, err
}

// Close closes the connection.
func (c *Cache) Close() error { return c.client.Close() }
