// Package notification delivers paper-trading alerts (entries, exits,
// stop hits) to external channels such as Telegram or a webhook.
package notification

import (
	"context"
	"fmt"
	"log"
	"os"

	"banknifty-backtest/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans one alert out to several backends. Delivery failures are
// collected, not short-circuited, so one dead channel cannot silence the
// others.
type Multi struct {
	backends []Notifier
}

// NewMulti builds a fan-out notifier.
func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend delivery failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// FromEnv assembles the notifier stack from environment variables:
// TELEGRAM_BOT_TOKEN + TELEGRAM_CHAT_ID enable Telegram, ALERT_WEBHOOK_URL
// enables the webhook. With neither set, alerts go to the log only.
func FromEnv() Notifier {
	var backends []Notifier

	if token, chat := os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"); token != "" && chat != "" {
		backends = append(backends, NewTelegramNotifier(token, chat))
	}
	if url := os.Getenv("ALERT_WEBHOOK_URL"); url != "" {
		backends = append(backends, NewWebhookNotifier(url))
	}

	if len(backends) == 0 {
		return NewLogNotifier()
	}
	backends = append(backends, NewLogNotifier())
	return NewMulti(backends...)
}

// TradeAlert formats a closed trade as an alert. Losing exits are
// flagged WARNING so channels can route them louder.
func TradeAlert(t model.Trade) Alert {
	level := AlertInfo
	if t.PnL < 0 {
		level = AlertWarning
	}
	return Alert{
		Level: level,
		Title: fmt.Sprintf("%s closed (%s)", t.Strategy, t.Reason),
		Message: fmt.Sprintf("entry %.2f → exit %.2f x%d, P&L ₹%.2f over %d bars",
			float64(t.EntryPrice)/100, float64(t.ExitPrice)/100, t.Qty, t.PnLRupees(), t.BarsHeld),
	}
}
