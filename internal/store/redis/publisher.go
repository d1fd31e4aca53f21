// Package redis publishes run results to Redis Streams so dashboards
// and downstream consumers can follow backtests and paper trades live.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"banknifty-backtest/internal/metrics"
	"banknifty-backtest/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: enough history for review without unbounded growth
	runStreamMaxLen   = 1000
	tradeStreamMaxLen = 10000
	defaultLatestTTL  = 30 * time.Minute
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes run summaries, trades, and paper fills to Redis.
type Publisher struct {
	client *goredis.Client
	prom   *metrics.Metrics // optional
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// SetMetrics attaches Prometheus instrumentation.
func (p *Publisher) SetMetrics(m *metrics.Metrics) { p.prom = m }

// New creates a new Redis Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
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

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// runEnvelope is the wire form of one finished run.
type runEnvelope struct {
	RunID    string                  `json:"run_id"`
	Symbol   string                  `json:"symbol"`
	Bars     int                     `json:"bars"`
	Report   model.PerformanceReport `json:"report"`
	Finished time.Time               `json:"finished"`
}

// PublishRun writes a finished run's summary and its trades in one
// pipeline: XADD to backtest:runs, XADD each trade to the strategy's
// trade stream, SET the latest report, and PUBLISH for subscribers.
func (p *Publisher) PublishRun(ctx context.Context, runID, symbol string, bars int, report model.PerformanceReport, trades []model.Trade) error {
	env := runEnvelope{
		RunID:    runID,
		Symbol:   symbol,
		Bars:     bars,
		Report:   report,
		Finished: time.Now().UTC(),
	}
	runData, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	pipe := p.client.Pipeline()

	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "backtest:runs",
		MaxLen: runStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(runData)},
	})

	tradeStream := "backtest:trades:" + report.Strategy
	for _, t := range trades {
		tradeData, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal trade: %w", err)
		}
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: tradeStream,
			MaxLen: tradeStreamMaxLen,
			Approx: true,
			Values: map[string]interface{}{
				"run_id": runID,
				"data":   string(tradeData),
			},
		})
	}

	latestKey := "backtest:latest:" + report.Strategy
	pipe.Set(ctx, latestKey, string(runData), defaultLatestTTL)
	pipe.Publish(ctx, "pub:backtest:"+report.Strategy, string(runData))

	start := time.Now()
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish run %s: %w", runID, err)
	}
	if p.prom != nil {
		p.prom.RedisPublishDur.Observe(time.Since(start).Seconds())
	}
	return nil
}

// PublishPaperFill announces a simulated fill on the paper stream.
func (p *Publisher) PublishPaperFill(ctx context.Context, strategy string, fill interface{}) error {
	data, err := json.Marshal(fill)
	if err != nil {
		return fmt.Errorf("marshal paper fill: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "paper:fills:" + strategy,
		MaxLen: tradeStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	})
	pipe.Publish(ctx, "pub:paper:"+strategy, string(data))

	start := time.Now()
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] paper fill pipeline error: %v", err)
		return err
	}
	if p.prom != nil {
		p.prom.RedisPublishDur.Observe(time.Since(start).Seconds())
	}
	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
