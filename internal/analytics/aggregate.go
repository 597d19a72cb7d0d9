package analytics

import (
	"sort"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// DailySummary aggregates all trades closed on one calendar day (UTC).
type DailySummary struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Profit  float64 `json:"profit"`
	WinRate float64 `json:"win_rate"` // %
}

// Daily groups trades by exit date, oldest first.
func Daily(trades []model.Trade) []DailySummary {
	byDay := make(map[string]*DailySummary)
	for _, t := range trades {
		day := t.ExitTime.UTC().Format("2006-01-02")
		s, ok := byDay[day]
		if !ok {
			s = &DailySummary{Date: day}
			byDay[day] = s
		}
		s.Trades++
		s.Profit += t.Profit
		if t.Win() {
			s.Wins++
		}
	}
	out := make([]DailySummary, 0, len(byDay))
	for _, s := range byDay {
		if s.Trades > 0 {
			s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// TickerSummary aggregates all trades for one ticker.
type TickerSummary struct {
	Ticker        string  `json:"ticker"`
	Trades        int     `json:"trades"`
	Wins          int     `json:"wins"`
	Profit        float64 `json:"profit"`
	WinRate       float64 `json:"win_rate"`        // %
	AvgProfitRate float64 `json:"avg_profit_rate"` // %
}

// ByTicker groups trades per ticker, most profitable first.
func ByTicker(trades []model.Trade) []TickerSummary {
	byTicker := make(map[string]*TickerSummary)
	rateSums := make(map[string]float64)
	for _, t := range trades {
		s, ok := byTicker[t.Ticker]
		if !ok {
			s = &TickerSummary{Ticker: t.Ticker}
			byTicker[t.Ticker] = s
		}
		s.Trades++
		s.Profit += t.Profit
		rateSums[t.Ticker] += t.ProfitRate
		if t.Win() {
			s.Wins++
		}
	}
	out := make([]TickerSummary, 0, len(byTicker))
	for tk, s := range byTicker {
		if s.Trades > 0 {
			s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
			s.AvgProfitRate = rateSums[tk] / float64(s.Trades)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}
