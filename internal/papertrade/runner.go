package papertrade

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"banknifty-backtest/internal/markethours"
	"banknifty-backtest/internal/metrics"
	"banknifty-backtest/internal/model"
	"banknifty-backtest/internal/notification"
	redisstore "banknifty-backtest/internal/store/redis"
	sqlitestore "banknifty-backtest/internal/store/sqlite"
	"banknifty-backtest/internal/strategy"
	"banknifty-backtest/pkg/smartconnect"
)

// RunnerConfig identifies the instrument and sizing for the forward test.
type RunnerConfig struct {
	Symbol        string
	ExchangeToken string
	Exchange      string

	PositionPct  float64 // fraction of equity deployed per entry
	BackfillDays int     // how much history to pull on first start
}

// DefaultRunnerConfig returns the Bank Nifty defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Symbol:        "BANKNIFTY",
		ExchangeToken: "99926009",
		Exchange:      "NSE",
		PositionPct:   0.95,
		BackfillDays:  400,
	}
}

// position is the open paper position.
type position struct {
	qty        int64
	entryPrice int64
	stopPrice  int64
	target     int64
	entryDate  time.Time
	barsHeld   int
}

// Runner drives the daily evaluate-and-fill cycle plus the intraday stop
// watcher. All broker interaction is read-only; fills are simulated.
type Runner struct {
	cfg    RunnerConfig
	client *smartconnect.Client
	strat  strategy.Strategy
	exec   *Executor
	risk   *RiskManager

	writer *sqlitestore.Writer
	reader *sqlitestore.Reader
	pub    *redisstore.Publisher // optional
	notify notification.Notifier
	m      *metrics.Metrics // optional

	mu           sync.Mutex
	long         bool
	pos          position
	pendingEntry bool
	pendingExit  bool
}

// NewRunner wires the forward tester. pub may be nil when Redis is not
// configured; everything else is required.
func NewRunner(cfg RunnerConfig, client *smartconnect.Client, strat strategy.Strategy,
	exec *Executor, risk *RiskManager, writer *sqlitestore.Writer, reader *sqlitestore.Reader,
	pub *redisstore.Publisher, notify notification.Notifier) *Runner {
	return &Runner{
		cfg:    cfg,
		client: client,
		strat:  strat,
		exec:   exec,
		risk:   risk,
		writer: writer,
		reader: reader,
		pub:    pub,
		notify: notify,
	}
}

// SetMetrics attaches Prometheus instrumentation. Optional; the runner
// works without it.
func (r *Runner) SetMetrics(m *metrics.Metrics) { r.m = m }

// Run blocks until ctx is cancelled: one strategy evaluation after each
// session close, a stop watcher while the market is open.
func (r *Runner) Run(ctx context.Context) error {
	// Evaluate immediately on start so a restart mid-week catches up.
	if err := r.EvaluateOnce(ctx); err != nil {
		log.Printf("[papertrade] initial evaluation failed: %v", err)
	}

	go r.watchStops(ctx)

	for {
		next := nextEvaluation(time.Now())
		log.Printf("[papertrade] next evaluation at %s", next.Format(time.RFC3339))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		r.risk.ResetDaily()
		if err := r.EvaluateOnce(ctx); err != nil {
			log.Printf("[papertrade] evaluation failed: %v", err)
		}
	}
}

// nextEvaluation returns 16:00 IST on the next trading day whose session
// has not been evaluated yet (30 minutes after close, giving the feed
// time to finalize the daily candle).
func nextEvaluation(now time.Time) time.Time {
	ist := now.In(markethours.IST)
	eval := markethours.TodayClose(ist).Add(30 * time.Minute)
	if !ist.Before(eval) || !markethours.IsTradingDay(ist) {
		d := ist.AddDate(0, 0, 1)
		for i := 0; i < 10 && !markethours.IsTradingDay(d); i++ {
			d = d.AddDate(0, 0, 1)
		}
		eval = markethours.TodayClose(d).Add(30 * time.Minute)
	}
	return eval
}

// EvaluateOnce syncs bars, replays the strategy over the full history,
// and acts on the state for the latest completed session.
func (r *Runner) EvaluateOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		if r.m != nil {
			r.m.PaperLoopDur.Observe(time.Since(start).Seconds())
		}
	}()

	bars, err := r.syncBars(ctx)
	if err != nil {
		return fmt.Errorf("sync bars: %w", err)
	}
	if len(bars) <= r.strat.Warmup() {
		return fmt.Errorf("only %d bars for %s, need more than %d",
			len(bars), r.strat.Name(), r.strat.Warmup())
	}

	today := bars[len(bars)-1]

	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. Fill yesterday's pending entry at today's open.
	if r.pendingEntry && !r.long {
		r.enterLong(ctx, today)
	}
	r.pendingEntry = false

	// 2. Exit checks on today's completed bar.
	if r.long {
		r.pos.barsHeld++
		r.checkExits(ctx, today)
	}

	// 3. Replay the strategy and record today's signal for tomorrow.
	sig := replay(r.strat, bars)
	switch sig.Type {
	case strategy.SignalEnterLong:
		if !r.long {
			log.Printf("[papertrade] %s signals entry: %s", r.strat.Name(), sig.Reason)
			r.pendingEntry = true
		}
	case strategy.SignalExitLong:
		if r.long && r.strat.Exits().ExitOnSignal {
			log.Printf("[papertrade] %s signals exit: %s", r.strat.Name(), sig.Reason)
			r.pendingExit = true
		}
	}
	return nil
}

// replay drives a fresh pass over the full history and returns the final
// bar's signal. Strategies are stateful, so the runner re-replays rather
// than feeding one incremental bar after a restart.
func replay(strat strategy.Strategy, bars []model.Bar) strategy.Signal {
	sig := strategy.NoSignal
	for _, b := range bars {
		sig = strat.OnBar(b)
	}
	return sig
}

// syncBars tops up the local store from the broker and returns the full
// ordered history.
func (r *Runner) syncBars(ctx context.Context) ([]model.Bar, error) {
	lastTS, err := r.reader.LastBarTimestamp(r.cfg.Symbol)
	if err != nil {
		return nil, err
	}

	from := time.Unix(lastTS, 0).In(markethours.IST).AddDate(0, 0, 1)
	if lastTS == 0 {
		from = time.Now().In(markethours.IST).AddDate(0, 0, -r.cfg.BackfillDays)
	}
	to := markethours.LastCompletedSession(time.Now())

	if !from.After(to) {
		fresh, err := r.client.GetDailyBars(ctx, r.cfg.Exchange, r.cfg.ExchangeToken, r.cfg.Symbol, from, to)
		if err != nil {
			return nil, err
		}
		if err := r.writer.WriteBars(fresh); err != nil {
			return nil, err
		}
		log.Printf("[papertrade] synced %d new bars for %s", len(fresh), r.cfg.Symbol)
	}

	return r.reader.ReadBars(r.cfg.Symbol, 0)
}

func (r *Runner) enterLong(ctx context.Context, bar model.Bar) {
	exits := r.strat.Exits()
	deploy := int64(float64(r.risk.Equity()) * r.cfg.PositionPct)
	qty := deploy / bar.Open
	if qty <= 0 {
		log.Printf("[papertrade] equity too small for one unit at %d", bar.Open)
		return
	}
	if ok, reason := r.risk.CanEnter(qty); !ok {
		log.Printf("[papertrade] entry blocked by risk limits: %s", reason)
		return
	}

	fill := r.exec.Execute(r.strat.Name(), r.cfg.Symbol, SideBuy, qty, bar.Open, "entry signal")
	r.long = true
	r.pos = position{
		qty:        qty,
		entryPrice: fill.Price,
		entryDate:  bar.Date,
	}
	if exits.StopLossPct > 0 {
		r.pos.stopPrice = int64(float64(fill.Price) * (1 - exits.StopLossPct))
	}
	if exits.TakeProfitPct > 0 {
		r.pos.target = int64(float64(fill.Price) * (1 + exits.TakeProfitPct))
	}

	r.journalFill(ctx, fill)
}

// checkExits applies the daily exit rules in stop, target, time, signal
// order against the completed bar.
func (r *Runner) checkExits(ctx context.Context, bar model.Bar) {
	exits := r.strat.Exits()
	switch {
	case r.pos.stopPrice > 0 && bar.Low <= r.pos.stopPrice:
		r.exitLong(ctx, bar.Date, r.pos.stopPrice, string(model.ExitStopLoss))
	case r.pos.target > 0 && bar.High >= r.pos.target:
		r.exitLong(ctx, bar.Date, r.pos.target, string(model.ExitTakeProfit))
	case exits.MaxHoldingDays > 0 && r.pos.barsHeld >= exits.MaxHoldingDays:
		r.exitLong(ctx, bar.Date, bar.Close, string(model.ExitTimeLimit))
	case r.pendingExit:
		r.exitLong(ctx, bar.Date, bar.Open, string(model.ExitSignal))
	}
	r.pendingExit = false
}

// exitLong closes the paper position and records the trade. Callers hold r.mu.
func (r *Runner) exitLong(ctx context.Context, date time.Time, refPrice int64, reason string) {
	fill := r.exec.Execute(r.strat.Name(), r.cfg.Symbol, SideSell, r.pos.qty, refPrice, reason)
	pnl := (fill.Price - r.pos.entryPrice) * r.pos.qty
	r.risk.RecordPnL(pnl)

	trade := model.Trade{
		Strategy:   r.strat.Name(),
		EntryDate:  r.pos.entryDate,
		EntryPrice: r.pos.entryPrice,
		ExitDate:   date,
		ExitPrice:  fill.Price,
		Qty:        r.pos.qty,
		Reason:     model.ExitReason(reason),
		PnL:        pnl,
		BarsHeld:   r.pos.barsHeld,
	}
	if r.notify != nil {
		if err := r.notify.Send(ctx, notification.TradeAlert(trade)); err != nil {
			log.Printf("[papertrade] alert delivery failed: %v", err)
		}
	}

	r.journalFill(ctx, fill)
	r.long = false
	r.pos = position{}
}

func (r *Runner) journalFill(ctx context.Context, fill Fill) {
	if r.m != nil {
		r.m.PaperFillsTotal.WithLabelValues(string(fill.Side)).Inc()
	}
	if err := r.writer.WritePaperFill(fill.OrderID, fill.Strategy, fill.Symbol,
		string(fill.Side), fill.Qty, fill.Price, fill.Reason, fill.FilledAt); err != nil {
		log.Printf("[papertrade] journal fill: %v", err)
	}
	if r.pub != nil {
		if err := r.pub.PublishPaperFill(ctx, fill.Strategy, fill); err != nil {
			log.Printf("[papertrade] publish fill: %v", err)
		}
	}
}

// watchStops runs the intraday LTP watcher whenever the market is open
// and a position with a stop exists. A breached stop exits immediately at
// the traded price instead of waiting for the daily bar.
func (r *Runner) watchStops(ctx context.Context) {
	for {
		if !markethours.IsMarketOpen(time.Now()) {
			if r.m != nil {
				r.m.MarketState.Set(0)
			}
			wait := markethours.TimeUntilOpen(time.Now())
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		if r.m != nil {
			r.m.MarketState.Set(1)
		}

		r.mu.Lock()
		armed := r.long && r.pos.stopPrice > 0
		r.mu.Unlock()
		if !armed {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Minute):
			}
			continue
		}

		sessionCtx, cancel := context.WithDeadline(ctx, markethours.TodayClose(time.Now()))
		r.runStopStream(sessionCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
	}
}

func (r *Runner) runStopStream(ctx context.Context) {
	stream, err := smartconnect.NewLTPStream(r.client, smartconnect.ExchangeNSECM, []string{r.cfg.ExchangeToken})
	if err != nil {
		log.Printf("[papertrade] stop watcher unavailable: %v", err)
		return
	}

	stream.OnReconnect = func() {
		if r.m != nil {
			r.m.WSReconnects.Inc()
		}
	}
	stream.OnTick = func(tick smartconnect.Tick) {
		if r.m != nil {
			r.m.LTPUpdates.Inc()
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.long || r.pos.stopPrice == 0 || tick.LTP > r.pos.stopPrice {
			return
		}
		log.Printf("[papertrade] intraday stop hit at %d (stop %d)", tick.LTP, r.pos.stopPrice)
		r.exitLong(context.Background(), time.Now().In(markethours.IST), tick.LTP, string(model.ExitStopLoss))
	}

	if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[papertrade] stop stream ended: %v", err)
	}
}
