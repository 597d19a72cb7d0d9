// cmd/backtest replays historical candles through the breakout engine with
// instant paper fills, then prints the performance stat block.
//
// Candles come from the local SQLite store; --fetch pulls fresh history
// from the Upbit API into the store first (no keys needed, public endpoint).
//
// Usage:
//
//	go run ./cmd/backtest --ticker=KRW-BTC --interval=day --fetch=200
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twbeatles/upbit-autotrader/internal/analytics"
	"github.com/twbeatles/upbit-autotrader/internal/backtest"
	upbitmd "github.com/twbeatles/upbit-autotrader/internal/marketdata/upbit"
	"github.com/twbeatles/upbit-autotrader/internal/model"
	sqlitestore "github.com/twbeatles/upbit-autotrader/internal/store/sqlite"
	"github.com/twbeatles/upbit-autotrader/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	ticker := flag.String("ticker", "KRW-BTC", "Market to simulate")
	interval := flag.String("interval", "day", "Candle interval (day, minute240, minute60, ...)")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start from (0=all stored candles)")
	fetch := flag.Int("fetch", 0, "Fetch this many fresh candles from Upbit into the store first")
	dbPath := flag.String("db", "data/trader.db", "Path to SQLite database")
	paramsPath := flag.String("params", "", "Strategy parameter JSON (default: built-in defaults)")
	balance := flag.Float64("balance", 1_000_000, "Initial KRW balance")
	fee := flag.Float64("fee", 0.0005, "Commission rate per side")
	daily := flag.Bool("daily", false, "Print the per-day profit breakdown")
	showTrades := flag.Bool("trades", false, "Print the per-trade table")
	jsonOut := flag.String("json", "", "Write the full result as JSON to this file")
	flag.Parse()

	params := strategy.Defaults()
	if *paramsPath != "" {
		p, err := strategy.LoadParameters(*paramsPath)
		if err != nil {
			log.Fatalf("[backtest] params load failed: %v", err)
		}
		params = p
	}
	iv := model.Interval(*interval)
	params.Interval = iv

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	store, err := sqlitestore.Open(*dbPath, nil)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer store.Close()

	if *fetch > 0 {
		client := upbitmd.NewClient("", "", nil)
		s, err := client.Candles(ctx, *ticker, iv, *fetch)
		if err != nil {
			log.Fatalf("[backtest] candle fetch failed: %v", err)
		}
		if err := store.SaveCandles(ctx, s); err != nil {
			log.Fatalf("[backtest] candle persist failed: %v", err)
		}
		log.Printf("[backtest] fetched %d candles for %s", s.Len(), *ticker)
	}

	series, err := store.ReadSeries(ctx, *ticker, iv, *fromTS)
	if err != nil {
		log.Fatalf("[backtest] candle read failed: %v", err)
	}
	if series.Len() == 0 {
		log.Fatalf("[backtest] no candles stored for %s %s; try --fetch", *ticker, iv)
	}

	result, err := backtest.Run(ctx, series, backtest.Config{
		Params:         params,
		InitialBalance: *balance,
		CommissionRate: *fee,
	})
	if err != nil {
		log.Fatalf("[backtest] run failed: %v", err)
	}

	equity := make([]float64, len(result.EquityCurve))
	for i, pt := range result.EquityCurve {
		equity[i] = pt.Equity
	}
	stats := analytics.Compute(result.Trades, equity, periodsPerYear(iv))

	printSummary(result, stats)
	if *showTrades {
		printTrades(result.Trades)
	}
	if *daily {
		printDaily(result.Trades)
	}
	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, result, stats); err != nil {
			log.Fatalf("[backtest] json dump failed: %v", err)
		}
		log.Printf("[backtest] result written to %s", *jsonOut)
	}
}

// periodsPerYear annualizes Sharpe and Sortino for the candle interval.
func periodsPerYear(iv model.Interval) float64 {
	d := iv.Duration()
	if d <= 0 {
		return analytics.PeriodsPerYearDaily
	}
	return float64(365*24*time.Hour) / float64(d)
}

func printSummary(r *backtest.Result, s analytics.Stats) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║           BACKTEST COMPLETE              ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Ticker:          %-22s ║\n", r.Ticker)
	fmt.Printf("║  Candles:         %-22d ║\n", r.WarmUp+r.Evaluated)
	fmt.Printf("║  Evaluated:       %-22d ║\n", r.Evaluated)
	fmt.Printf("║  Trades:          %-22d ║\n", s.TotalTrades)
	fmt.Printf("║  Win rate:        %-21.2f%% ║\n", s.WinRate)
	fmt.Printf("║  Profit factor:   %-22.2f ║\n", s.ProfitFactor)
	fmt.Printf("║  Total return:    %-21.2f%% ║\n", r.Return())
	fmt.Printf("║  Final balance:   %-22.0f ║\n", r.FinalBalance)
	fmt.Printf("║  Max drawdown:    %-21.2f%% ║\n", s.MaxDrawdown)
	fmt.Printf("║  Sharpe:          %-22.2f ║\n", s.Sharpe)
	fmt.Printf("║  Sortino:         %-22.2f ║\n", s.Sortino)
	fmt.Printf("║  Best trade:      %-22.0f ║\n", s.BestTrade)
	fmt.Printf("║  Worst trade:     %-22.0f ║\n", s.WorstTrade)
	fmt.Printf("║  Avg hold:        %-21.1fh ║\n", s.AvgHoldHours)
	fmt.Println("╚══════════════════════════════════════════╝")
}

func printDaily(trades []model.Trade) {
	fmt.Println()
	fmt.Println("  date        trades  wins   profit")
	for _, d := range analytics.Daily(trades) {
		fmt.Printf("  %s  %6d  %4d  %9.0f\n", d.Date, d.Trades, d.Wins, d.Profit)
	}
}

func printTrades(trades []model.Trade) {
	fmt.Println()
	fmt.Println("  entry             exit              entry px    exit px     profit   rate%   reason")
	for _, tr := range trades {
		fmt.Printf("  %s  %s  %9.1f  %9.1f  %9.0f  %6.2f  %s\n",
			tr.EntryTime.Format("2006-01-02 15:04"), tr.ExitTime.Format("2006-01-02 15:04"),
			tr.EntryPrice, tr.ExitPrice, tr.Profit, tr.ProfitRate, tr.Reason)
	}
}

func writeJSON(path string, r *backtest.Result, s analytics.Stats) error {
	out := struct {
		*backtest.Result
		Stats analytics.Stats `json:"stats"`
	}{r, s}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
