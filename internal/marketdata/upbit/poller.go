package upbit

import (
	"context"
	"log/slog"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// SeriesSaver persists fetched candle series (the SQLite store).
type SeriesSaver interface {
	SaveCandles(ctx context.Context, s model.Series) error
}

// SeriesCacher caches fetched candle series (the Redis cache).
type SeriesCacher interface {
	SetSeries(ctx context.Context, s model.Series) error
}

// Poller periodically refreshes candle history for a set of tickers,
// fanning each fetched series into the store and the cache. Either sink
// may be nil.
type Poller struct {
	md       model.MarketData
	store    SeriesSaver
	cache    SeriesCacher
	tickers  []string
	interval model.Interval
	count    int
	every    time.Duration
	log      *slog.Logger
}

// NewPoller builds a poller fetching count candles per ticker at interval,
// refreshing every period.
func NewPoller(md model.MarketData, store SeriesSaver, cache SeriesCacher,
	tickers []string, interval model.Interval, count int, every time.Duration, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		md:       md,
		store:    store,
		cache:    cache,
		tickers:  tickers,
		interval: interval,
		count:    count,
		every:    every,
		log:      log,
	}
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)
	t := time.NewTicker(p.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	for _, ticker := range p.tickers {
		if ctx.Err() != nil {
			return
		}
		s, err := p.md.Candles(ctx, ticker, p.interval, p.count)
		if err != nil {
			p.log.Warn("candle refresh failed", "ticker", ticker, "err", err)
			continue
		}
		if p.store != nil {
			if err := p.store.SaveCandles(ctx, s); err != nil {
				p.log.Error("candle persist failed", "ticker", ticker, "err", err)
			}
		}
		if p.cache != nil {
			if err := p.cache.SetSeries(ctx, s); err != nil {
				p.log.Warn("candle cache failed", "ticker", ticker, "err", err)
			}
		}
	}
}
