// cmd/backtest replays stored daily bars through a strategy and prints
// the performance report. The run is journalled to SQLite and, when a
// Redis address is configured, published for dashboards.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/banknifty.db --strategy=momentum.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"banknifty-backtest/config"
	"banknifty-backtest/internal/backtest"
	"banknifty-backtest/internal/logger"
	redisstore "banknifty-backtest/internal/store/redis"
	sqlitestore "banknifty-backtest/internal/store/sqlite"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	stratPath := flag.String("strategy", "", "Strategy YAML file (default: crossover 20/50)")
	symbol := flag.String("symbol", cfg.Symbol, "Instrument symbol")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start from (0=all)")
	capital := flag.Int64("capital", 100000, "Initial capital in rupees")
	publish := flag.Bool("publish", false, "Publish the run to Redis")
	flag.Parse()

	logger.Init("backtest", slog.LevelInfo)

	strat, err := config.LoadStrategy(*stratPath)
	if err != nil {
		log.Fatalf("[backtest] strategy config: %v", err)
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	bars, err := reader.ReadBars(*symbol, *fromTS)
	if err != nil {
		log.Fatalf("[backtest] read bars: %v", err)
	}

	simCfg := backtest.DefaultSimConfig()
	simCfg.InitialCapital = *capital * 100

	runID := logger.GenerateRunID(strat.Name(), time.Now())
	ctx := logger.WithRunID(context.Background(), runID)

	res, err := backtest.Run(ctx, bars, strat, simCfg)
	if err != nil {
		log.Fatalf("[backtest] run failed: %v", err)
	}

	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[backtest] sqlite writer: %v", err)
	}
	defer writer.Close()
	if err := writer.WriteRun(runID, *symbol, res.Bars, res.Report, res.Trades); err != nil {
		log.Printf("[backtest] journal run: %v", err)
	}

	if *publish {
		pub, err := redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[backtest] redis unavailable, skipping publish: %v", err)
		} else {
			defer pub.Close()
			if err := pub.PublishRun(ctx, runID, *symbol, res.Bars, res.Report, res.Trades); err != nil {
				log.Printf("[backtest] publish run: %v", err)
			}
		}
	}

	printReport(res)
}

func printReport(res *backtest.Result) {
	rep := res.Report

	winRate := "n/a"
	if rep.WinRate.Valid {
		winRate = fmt.Sprintf("%.1f%%", rep.WinRate.Value*100)
	}
	avgWin := "n/a"
	if rep.AvgWin.Valid {
		avgWin = fmt.Sprintf("₹%.2f", rep.AvgWin.Value)
	}
	avgLoss := "n/a"
	if rep.AvgLoss.Valid {
		avgLoss = fmt.Sprintf("₹%.2f", rep.AvgLoss.Value)
	}

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║            BACKTEST COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Strategy:      %-24s ║\n", rep.Strategy)
	fmt.Printf("║  Bars:          %-24d ║\n", res.Bars)
	fmt.Printf("║  Trades:        %-24d ║\n", rep.Trades)
	fmt.Printf("║  Win rate:      %-24s ║\n", winRate)
	fmt.Printf("║  Avg win:       %-24s ║\n", avgWin)
	fmt.Printf("║  Avg loss:      %-24s ║\n", avgLoss)
	fmt.Printf("║  Total P&L:     %-24s ║\n", fmt.Sprintf("₹%.2f", float64(rep.TotalPnL)/100))
	fmt.Printf("║  Max drawdown:  %-24s ║\n", fmt.Sprintf("%.2f%%", rep.MaxDrawdownPct))
	fmt.Printf("║  Return:        %-24s ║\n", fmt.Sprintf("%.2f%%", rep.TotalReturnPct()))
	fmt.Printf("║  Duration:      %-24s ║\n", res.Duration.Round(time.Millisecond))
	fmt.Println("╚══════════════════════════════════════════╝")
}
