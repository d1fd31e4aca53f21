package smartconnect

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamURI         = "wss://smartapisocket.angelone.in/smart-stream"
	heartbeatMessage  = "ping"
	heartbeatInterval = 10 * time.Second

	subscribeAction = 1

	// subscription mode: LTP only, the stop watcher needs nothing more
	modeLTP = 1

	// exchange type for NSE cash market
	ExchangeNSECM = 1
)

// Tick is one last-traded-price update.
type Tick struct {
	Token    string
	LTP      int64 // paise
	Exchange int
	Received time.Time
}

// LTPStream subscribes to SmartAPI's websocket feed in LTP mode and
// delivers ticks to a callback. It reconnects with backoff and
// resubscribes after a drop.
type LTPStream struct {
	authToken  string
	apiKey     string
	clientCode string
	feedToken  string

	exchangeType int
	tokens       []string

	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn

	maxRetries int
	retryDelay time.Duration

	// OnTick is invoked from the read loop for every LTP update.
	OnTick func(Tick)
	// OnReconnect is invoked after a successful reconnect.
	OnReconnect func()
}

// NewLTPStream builds a stream for the given session tokens.
func NewLTPStream(c *Client, exchangeType int, tokens []string) (*LTPStream, error) {
	if c.accessToken == "" || c.feedToken == "" {
		return nil, errors.New("smartconnect: login before opening a stream")
	}
	return &LTPStream{
		authToken:    c.accessToken,
		apiKey:       c.cfg.APIKey,
		clientCode:   c.cfg.ClientCode,
		feedToken:    c.feedToken,
		exchangeType: exchangeType,
		tokens:       tokens,
		dialer:       websocket.DefaultDialer,
		maxRetries:   5,
		retryDelay:   5 * time.Second,
	}, nil
}

// Run connects, subscribes, and pumps ticks until ctx is cancelled or
// retries are exhausted.
func (s *LTPStream) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := s.connect(); err != nil {
			attempts++
			if attempts > s.maxRetries {
				return fmt.Errorf("ltp stream: giving up after %d attempts: %w", attempts, err)
			}
			log.Printf("[ltpstream] connect failed (attempt %d): %v", attempts, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
			continue
		}
		attempts = 0
		if s.OnReconnect != nil {
			s.OnReconnect()
		}

		err := s.pump(ctx)
		s.close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[ltpstream] connection lost: %v, reconnecting", err)
	}
}

func (s *LTPStream) connect() error {
	header := http.Header{}
	header.Add("Authorization", s.authToken)
	header.Add("x-api-key", s.apiKey)
	header.Add("x-client-code", s.clientCode)
	header.Add("x-feed-token", s.feedToken)

	conn, resp, err := s.dialer.Dial(streamURI, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("dial: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	return s.subscribe()
}

func (s *LTPStream) subscribe() error {
	req := map[string]interface{}{
		"correlationID": "ltp-watch",
		"action":        subscribeAction,
		"params": map[string]interface{}{
			"mode": modeLTP,
			"tokenList": []map[string]interface{}{
				{"exchangeType": s.exchangeType, "tokens": s.tokens},
			},
		},
	}
	return s.conn.WriteJSON(req)
}

func (s *LTPStream) pump(ctx context.Context) error {
	done := make(chan error, 1)

	go func() {
		for {
			mt, message, err := s.conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			switch mt {
			case websocket.BinaryMessage:
				if tick, ok := parseLTPFrame(message); ok && s.OnTick != nil {
					s.OnTick(tick)
				}
			case websocket.TextMessage:
				// "pong" heartbeats and error JSON; neither carries ticks
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case <-ticker.C:
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(heartbeatMessage)); err != nil {
				return fmt.Errorf("heartbeat: %w", err)
			}
		}
	}
}

func (s *LTPStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
}

// parseLTPFrame decodes the LTP-mode binary layout: subscription mode at
// byte 0, exchange type at byte 1, token in bytes 2:27 (NUL padded), and
// last traded price in paise as little-endian int64 at bytes 43:51.
func parseLTPFrame(b []byte) (Tick, bool) {
	if len(b) < 51 || b[0] != modeLTP {
		return Tick{}, false
	}
	return Tick{
		Token:    tokenString(b[2:27]),
		LTP:      int64(binary.LittleEndian.Uint64(b[43:51])),
		Exchange: int(b[1]),
		Received: time.Now(),
	}, true
}

func tokenString(b []byte) string {
	for i := 0; i < len(b); i++ {
		if b[i] == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
