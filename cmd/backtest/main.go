// Command backtest replays a window of recent candles through the
// strategy evaluators and reports what a naive long-only take on the
// emitted signals would have done.
//
//	backtest -symbol BTCUSDT -limit 500
//	backtest -symbol ETHUSDT -provider sim -strategies breakout,regression -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradevault-engine/internal/backtest"
	"tradevault-engine/internal/feed"
	"tradevault-engine/internal/model"
	"tradevault-engine/internal/strategy"
	"tradevault-engine/pkg/binance"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to replay (required)")
	limit := flag.Int("limit", 500, "number of recent 1m candles to fetch")
	strategies := flag.String("strategies", "", "comma-separated strategy subset (default all)")
	provider := flag.String("provider", "binance", "candle source: binance or sim")
	restURL := flag.String("rest-url", "", "override the REST endpoint")
	asJSON := flag.Bool("json", false, "emit the report as JSON")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: backtest -symbol BTCUSDT [-limit 500] [-strategies a,b] [-provider sim] [-json]")
		os.Exit(2)
	}

	var source feed.Source
	switch *provider {
	case "sim":
		source = feed.NewSimSource(0, 0)
	default:
		source = binance.NewClient(*restURL, "", "1m", zap.NewNop())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	klines, err := source.RecentKlines(ctx, strings.ToUpper(strings.TrimSpace(*symbol)), *limit)
	if err != nil {
		log.Fatalf("fetch candles: %v", err)
	}
	candles := make([]model.Candle, len(klines))
	for i, k := range klines {
		candles[i] = k.Candle()
	}

	var names []string
	if *strategies != "" {
		names = strings.Split(*strategies, ",")
	}

	report := backtest.Run(strings.ToUpper(strings.TrimSpace(*symbol)), candles, strategy.ForNames(names))

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}
	printReport(report)
}

func printReport(r backtest.Report) {
	if r.Bars == 0 {
		fmt.Printf("%s: no candles\n", r.Symbol)
		return
	}

	from := time.UnixMilli(r.From).UTC().Format("2006-01-02 15:04")
	to := time.UnixMilli(r.To).UTC().Format("2006-01-02 15:04")
	fmt.Printf("%s: %d bars, %s to %s UTC\n\n", r.Symbol, r.Bars, from, to)

	fmt.Printf("%-16s %5s %5s %5s %7s %9s %9s\n",
		"strategy", "buys", "sells", "holds", "trades", "win rate", "return")
	for _, st := range r.Strategies {
		note := ""
		if st.Open {
			note = "  (position still open)"
		}
		fmt.Printf("%-16s %5d %5d %5d %7d %8.1f%% %+8.2f%%%s\n",
			st.Strategy,
			st.Signals["BUY"], st.Signals["SELL"], st.Signals["HOLD"],
			st.Trades, st.WinRate, st.Return, note)
	}
}
