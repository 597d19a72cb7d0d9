package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/twbeatles/upbit-autotrader/internal/model"
	"github.com/twbeatles/upbit-autotrader/internal/ringbuf"
)

const (
	wsURL          = "wss://api.upbit.com/websocket/v1"
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 60 * time.Second
)

// Stream subscribes to Upbit's ticker websocket and pushes quotes into a
// ring buffer. It reconnects with backoff until the context is cancelled.
type Stream struct {
	codes []string
	ring  *ringbuf.Ring
	log   *slog.Logger

	// OnReconnect fires after every successful (re)connection.
	OnReconnect func()
}

// NewStream creates a stream for the given market codes.
func NewStream(codes []string, ring *ringbuf.Ring, log *slog.Logger) *Stream {
	if log == nil {
		log = slog.Default()
	}
	return &Stream{codes: codes, ring: ring, log: log}
}

// Run connects and streams until ctx is cancelled. Connection errors are
// logged and retried with capped exponential backoff.
func (s *Stream) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("websocket disconnected, reconnecting", "err", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

// tickerPayload is the subset of Upbit's ticker frame the trader reads.
type tickerPayload struct {
	Code       string  `json:"code"`
	TradePrice float64 `json:"trade_price"`
	Timestamp  int64   `json:"timestamp"` // ms
}

func (s *Stream) stream(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	defer conn.Close()

	sub := []any{
		map[string]string{"ticket": uuid.NewString()},
		map[string]any{"type": "ticker", "codes": s.codes},
		map[string]string{"format": "DEFAULT"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("ws subscribe: %w", err)
	}
	s.log.Info("websocket subscribed", "codes", len(s.codes))
	if s.OnReconnect != nil {
		s.OnReconnect()
	}

	// Server expects periodic pings; reads time out if the feed stalls.
	go func() {
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, nil,
					time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ws read: %w", err)
		}
		var p tickerPayload
		if err := json.Unmarshal(data, &p); err != nil || p.Code == "" {
			continue
		}
		s.ring.Push(model.Quote{
			Ticker: p.Code,
			Price:  p.TradePrice,
			TS:     time.UnixMilli(p.Timestamp).UTC(),
		})
	}
}
