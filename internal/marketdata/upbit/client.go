// Package upbit implements the Upbit REST and websocket APIs behind the
// MarketData and OrderGateway ports.
package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

const defaultBaseURL = "https://api.upbit.com/v1"

// Client talks to the Upbit REST API. Public endpoints work without keys;
// MarketBuy, MarketSell, Order, and Balance need them.
type Client struct {
	http *http.Client
	base string
	sign *signer
	log  *slog.Logger
}

// NewClient creates a client. Keys may be empty for market-data-only use.
func NewClient(accessKey, secretKey string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		base: defaultBaseURL,
		sign: &signer{accessKey: accessKey, secretKey: secretKey},
		log:  log,
	}
}

// candlePayload is Upbit's candle JSON shape.
type candlePayload struct {
	Market   string  `json:"market"`
	DateTime string  `json:"candle_date_time_utc"`
	Open     float64 `json:"opening_price"`
	High     float64 `json:"high_price"`
	Low      float64 `json:"low_price"`
	Close    float64 `json:"trade_price"`
	Volume   float64 `json:"candle_acc_trade_volume"`
}

// Candles fetches the most recent count candles, oldest first.
func (c *Client) Candles(ctx context.Context, ticker string, interval model.Interval, count int) (model.Series, error) {
	out := model.Series{Ticker: ticker, Interval: interval}

	path := "/candles/days"
	if unit, ok := minuteUnit(interval); ok {
		path = "/candles/minutes/" + strconv.Itoa(unit)
	}
	q := url.Values{}
	q.Set("market", ticker)
	q.Set("count", strconv.Itoa(count))

	var payload []candlePayload
	if err := c.get(ctx, path, q, false, &payload); err != nil {
		return out, fmt.Errorf("candles %s %s: %w", ticker, interval, err)
	}

	out.Candles = make([]model.Candle, 0, len(payload))
	for _, p := range payload {
		ts, err := time.Parse("2006-01-02T15:04:05", p.DateTime)
		if err != nil {
			return out, fmt.Errorf("candles %s: bad timestamp %q: %w", ticker, p.DateTime, err)
		}
		out.Candles = append(out.Candles, model.Candle{
			TS:     ts.UTC(),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	// Upbit returns newest first.
	sort.Slice(out.Candles, func(i, j int) bool {
		return out.Candles[i].TS.Before(out.Candles[j].TS)
	})
	return out, out.Validate()
}

// CurrentPrice fetches the latest traded price.
func (c *Client) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	q := url.Values{}
	q.Set("markets", ticker)
	var payload []struct {
		TradePrice float64 `json:"trade_price"`
	}
	if err := c.get(ctx, "/ticker", q, false, &payload); err != nil {
		return 0, fmt.Errorf("ticker %s: %w", ticker, err)
	}
	if len(payload) == 0 {
		return 0, fmt.Errorf("ticker %s: empty response", ticker)
	}
	return payload[0].TradePrice, nil
}

// Markets lists all KRW-quoted markets.
func (c *Client) Markets(ctx context.Context) ([]string, error) {
	var payload []struct {
		Market string `json:"market"`
	}
	if err := c.get(ctx, "/market/all", nil, false, &payload); err != nil {
		return nil, fmt.Errorf("market list: %w", err)
	}
	var out []string
	for _, m := range payload {
		if strings.HasPrefix(m.Market, "KRW-") {
			out = append(out, m.Market)
		}
	}
	return out, nil
}

// Balance returns the available balance for one currency ("KRW", "BTC").
func (c *Client) Balance(ctx context.Context, currency string) (float64, error) {
	var payload []struct {
		Currency string `json:"currency"`
		Balance  string `json:"balance"`
	}
	if err := c.get(ctx, "/accounts", nil, true, &payload); err != nil {
		return 0, fmt.Errorf("accounts: %w", err)
	}
	for _, a := range payload {
		if a.Currency != currency {
			continue
		}
		v, err := strconv.ParseFloat(a.Balance, 64)
		if err != nil {
			return 0, fmt.Errorf("accounts: bad balance %q: %w", a.Balance, err)
		}
		return v, nil
	}
	return 0, nil
}

// MarketBuy spends krwAmount at market (side bid, ord_type price).
func (c *Client) MarketBuy(ctx context.Context, ticker string, krwAmount float64) (string, error) {
	params := url.Values{}
	params.Set("market", ticker)
	params.Set("side", "bid")
	params.Set("ord_type", "price")
	params.Set("price", strconv.FormatFloat(krwAmount, 'f', -1, 64))
	return c.placeOrder(ctx, params)
}

// MarketSell sells quantity at market (side ask, ord_type market).
func (c *Client) MarketSell(ctx context.Context, ticker string, quantity float64) (string, error) {
	params := url.Values{}
	params.Set("market", ticker)
	params.Set("side", "ask")
	params.Set("ord_type", "market")
	params.Set("volume", strconv.FormatFloat(quantity, 'f', -1, 64))
	return c.placeOrder(ctx, params)
}

// orderPayload is the subset of Upbit's order JSON the core reads.
type orderPayload struct {
	UUID           string `json:"uuid"`
	State          string `json:"state"`
	ExecutedVolume string `json:"executed_volume"`
	PaidFee        string `json:"paid_fee"`
	Trades         []struct {
		Price  string `json:"price"`
		Volume string `json:"volume"`
	} `json:"trades"`
}

// Order polls one order's status.
func (c *Client) Order(ctx context.Context, orderID string) (model.OrderStatus, error) {
	q := url.Values{}
	q.Set("uuid", orderID)
	var p orderPayload
	if err := c.get(ctx, "/order", q, true, &p); err != nil {
		return model.OrderStatus{}, fmt.Errorf("order %s: %w", orderID, err)
	}
	return p.toStatus()
}

func (p *orderPayload) toStatus() (model.OrderStatus, error) {
	st := model.OrderStatus{ID: p.UUID}

	var vol float64
	if p.ExecutedVolume != "" {
		v, err := strconv.ParseFloat(p.ExecutedVolume, 64)
		if err != nil {
			return st, fmt.Errorf("order %s: bad volume %q", p.UUID, p.ExecutedVolume)
		}
		vol = v
	}
	st.FilledQty = vol

	switch p.State {
	case "done", "cancel":
		// Upbit reports fully executed market orders as "cancel" when the
		// remainder was voided; the parsed executed volume decides. Upbit
		// serializes volumes as decimal strings, "0.0" for a voided order.
		st.State = model.OrderDone
		if p.State == "cancel" && vol == 0 {
			st.State = model.OrderCancel
		}
	default:
		st.State = model.OrderWait
	}

	if p.PaidFee != "" {
		if fee, err := strconv.ParseFloat(p.PaidFee, 64); err == nil {
			st.Fee = fee
		}
	}

	// Volume-weighted average over partial fills.
	var cost, qty float64
	for _, t := range p.Trades {
		price, perr := strconv.ParseFloat(t.Price, 64)
		v, verr := strconv.ParseFloat(t.Volume, 64)
		if perr != nil || verr != nil {
			continue
		}
		cost += price * v
		qty += v
	}
	if qty > 0 {
		st.AvgPrice = cost / qty
	}
	return st, nil
}

func (c *Client) placeOrder(ctx context.Context, params url.Values) (string, error) {
	token, err := c.sign.token(params)
	if err != nil {
		return "", fmt.Errorf("sign order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/orders", strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var p orderPayload
	if err := c.do(req, &p); err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	return p.UUID, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, private bool, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if private {
		token, err := c.sign.token(q)
		if err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upbit %s: status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("upbit %s: decode: %w", req.URL.Path, err)
	}
	return nil
}

// minuteUnit maps minute intervals to Upbit's candle unit path segment.
func minuteUnit(iv model.Interval) (int, bool) {
	switch iv {
	case model.IntervalMinute1:
		return 1, true
	case model.IntervalMinute5:
		return 5, true
	case model.IntervalMinute15:
		return 15, true
	case model.IntervalMinute30:
		return 30, true
	case model.IntervalMinute60:
		return 60, true
	case model.IntervalMinute240:
		return 240, true
	}
	return 0, false
}
