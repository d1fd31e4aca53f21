// cmd/optimize sweeps the crossover parameter grid over stored daily
// bars and prints the leaderboard. A metrics endpoint is exposed during
// the sweep since large grids can run for a while.
//
// Usage:
//
//	go run ./cmd/optimize --db=data/banknifty.db --sweep=sweep.yaml --top=10
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banknifty-backtest/config"
	"banknifty-backtest/internal/backtest"
	"banknifty-backtest/internal/logger"
	"banknifty-backtest/internal/metrics"
	sqlitestore "banknifty-backtest/internal/store/sqlite"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	sweepPath := flag.String("sweep", "", "Sweep YAML file (required)")
	symbol := flag.String("symbol", cfg.Symbol, "Instrument symbol")
	capital := flag.Int64("capital", 100000, "Initial capital in rupees")
	top := flag.Int("top", 10, "How many results to print")
	serveMetrics := flag.Bool("metrics", false, "Expose /metrics during the sweep")
	flag.Parse()

	logger.Init("optimize", slog.LevelInfo)

	if *sweepPath == "" {
		log.Fatal("[optimize] --sweep is required")
	}
	sweep, err := config.LoadSweep(*sweepPath)
	if err != nil {
		log.Fatalf("[optimize] sweep config: %v", err)
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[optimize] sqlite open failed: %v", err)
	}
	defer reader.Close()

	bars, err := reader.ReadBars(*symbol, 0)
	if err != nil {
		log.Fatalf("[optimize] read bars: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if *serveMetrics {
		sweep.Prom = metrics.NewMetrics()
		srv := metrics.NewServer(cfg.MetricsAddr, metrics.NewHealthStatus())
		srv.Start()
		defer func() {
			shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
			srv.Stop(shutdownCtx)
			c()
		}()
	}

	simCfg := backtest.DefaultSimConfig()
	simCfg.InitialCapital = *capital * 100

	start := time.Now()
	results, err := backtest.Optimize(ctx, bars, sweep, simCfg)
	if err != nil {
		log.Fatalf("[optimize] sweep failed: %v", err)
	}

	if *top > len(results) {
		*top = len(results)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                     SWEEP COMPLETE                        ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Bars: %-6d  Cells: %-6d  Elapsed: %-17s ║\n",
		len(bars), len(results), time.Since(start).Round(time.Millisecond))
	fmt.Println("╠═══════╦═══════╦═════════╦════════╦════════════╦═══════════╣")
	fmt.Println("║ fast  ║ slow  ║ stop bp ║ trades ║ total P&L  ║ max DD    ║")
	fmt.Println("╠═══════╬═══════╬═════════╬════════╬════════════╬═══════════╣")
	for _, r := range results[:*top] {
		fmt.Printf("║ %-5d ║ %-5d ║ %-7.0f ║ %-6d ║ ₹%-9.0f ║ %-8.2f%% ║\n",
			r.Config.FastWindow, r.Config.SlowWindow, r.Config.StopLossPct*10000,
			r.Report.Trades, float64(r.Report.TotalPnL)/100, r.Report.MaxDrawdownPct)
	}
	fmt.Println("╚═══════╩═══════╩═════════╩════════╩════════════╩═══════════╝")
}
