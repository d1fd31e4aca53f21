// cmd/papertrade runs the live forward tester: real Bank Nifty daily
// bars from Angel One, simulated fills with slippage, risk limits, and
// an intraday stop watcher on the LTP stream. No real orders are ever
// placed.
//
// Required env: ANGEL_API_KEY, ANGEL_CLIENT_CODE, ANGEL_PASSWORD,
// ANGEL_TOTP_SECRET. Optional: TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID and
// ALERT_WEBHOOK_URL for trade alerts.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banknifty-backtest/config"
	"banknifty-backtest/internal/logger"
	"banknifty-backtest/internal/markethours"
	"banknifty-backtest/internal/metrics"
	"banknifty-backtest/internal/notification"
	"banknifty-backtest/internal/papertrade"
	redisstore "banknifty-backtest/internal/store/redis"
	sqlitestore "banknifty-backtest/internal/store/sqlite"
	"banknifty-backtest/pkg/smartconnect"
)

func main() {
	stratPath := flag.String("strategy", "", "Strategy YAML file (default: crossover 20/50)")
	capital := flag.Int64("capital", 100000, "Starting paper equity in rupees")
	slippage := flag.Int64("slippage", 5, "Simulated slippage in basis points")
	flag.Parse()

	logger.Init("papertrade", slog.LevelInfo)
	log.Println("[papertrade] starting...")
	log.Printf("[papertrade] market: %s", markethours.StatusString(time.Now()))

	cfg := config.LoadWithCreds()

	strat, err := config.LoadStrategy(*stratPath)
	if err != nil {
		log.Fatalf("[papertrade] strategy config: %v", err)
	}
	log.Printf("[papertrade] strategy %s, warmup %d bars", strat.Name(), strat.Warmup())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Broker session ----
	client := smartconnect.NewClient(smartconnect.Config{
		APIKey:     cfg.AngelAPIKey,
		ClientCode: cfg.AngelClientCode,
		Password:   cfg.AngelPassword,
		TOTPSecret: cfg.AngelTOTPSecret,
	})
	if err := client.Login(ctx); err != nil {
		log.Fatalf("[papertrade] login failed: %v", err)
	}
	defer client.Logout(context.Background())
	log.Println("[papertrade] SmartAPI session established")

	// ---- Storage ----
	os.MkdirAll("data", 0o755)
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[papertrade] sqlite init failed: %v", err)
	}
	defer writer.Close()

	reader, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[papertrade] sqlite reader: %v", err)
	}
	defer reader.Close()

	// ---- Redis (optional) ----
	var pub *redisstore.Publisher
	pub, err = redisstore.New(redisstore.PublisherConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[papertrade] WARNING: redis init failed: %v (continuing without redis)", err)
		pub = nil
	} else {
		defer pub.Close()
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetSQLiteOK(true)
	health.SetRedisConnected(pub != nil)
	writer.SetMetrics(prom)
	if pub != nil {
		pub.SetMetrics(prom)
	}
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
		metricsSrv.Stop(stopCtx)
		stopCancel()
	}()

	if pub != nil {
		health.StartLivenessChecker(ctx, pub.Client(), writer.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, writer.DB(), 10*time.Second)
	}

	// ---- Paper execution ----
	exec := papertrade.NewExecutor(*slippage)
	risk := papertrade.NewRiskManager(papertrade.DefaultRiskLimits(), *capital*100)
	notify := notification.FromEnv()

	runnerCfg := papertrade.DefaultRunnerConfig()
	runnerCfg.Symbol = cfg.Symbol
	runnerCfg.ExchangeToken = cfg.ExchangeToken
	runnerCfg.Exchange = cfg.Exchange

	runner := papertrade.NewRunner(runnerCfg, client, strat, exec, risk, writer, reader, pub, notify)
	runner.SetMetrics(prom)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	select {
	case sig := <-sigCh:
		log.Printf("[papertrade] received %v, shutting down...", sig)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			log.Fatalf("[papertrade] runner exited: %v", err)
		}
	}
	log.Println("[papertrade] shutdown complete")
}
