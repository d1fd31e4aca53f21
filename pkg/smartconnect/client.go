// Package smartconnect is a slim Angel One SmartAPI client covering what
// the paper trader needs: TOTP login, historical daily candles, and last
// traded price. Prices come back in rupees and are converted to paise at
// this boundary so the rest of the system stays integral.
package smartconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"

	"banknifty-backtest/internal/model"
)

const (
	defaultRoot    = "https://apiconnect.angelone.in"
	defaultTimeout = 7 * time.Second

	routeLogin  = "/rest/auth/angelbroking/user/v1/loginByPassword"
	routeLogout = "/rest/secure/angelbroking/user/v1/logout"
	routeCandle = "/rest/secure/angelbroking/historical/v1/getCandleData"
	routeLTP    = "/rest/secure/angelbroking/order/v1/getLtpData"
)

// Config holds client credentials and connection settings.
type Config struct {
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string

	RootURL string        // default: https://apiconnect.angelone.in
	Timeout time.Duration // default: 7s
	Debug   bool
}

// Client is an authenticated SmartAPI session.
type Client struct {
	cfg        Config
	httpClient *http.Client

	accessToken string
	feedToken   string

	clientLocalIP  string
	clientPublicIP string
	clientMAC      string
}

// NewClient builds an unauthenticated client; call Login before use.
func NewClient(cfg Config) *Client {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRoot
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	localIP := "127.0.0.1"
	if ip, err := getLocalIP(); err == nil {
		localIP = ip
	}

	return &Client{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		clientLocalIP:  localIP,
		clientPublicIP: "106.193.147.98",
		clientMAC:      getMAC(),
	}
}

func getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, address := range addrs {
		if ipNet, ok := address.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if ipNet.IP.To4() != nil {
				return ipNet.IP.String(), nil
			}
		}
	}
	return "", fmt.Errorf("no local IP found")
}

func getMAC() string {
	ifs, _ := net.Interfaces()
	for _, ifc := range ifs {
		if len(ifc.HardwareAddr) > 0 {
			return ifc.HardwareAddr.String()
		}
	}
	return "00:11:22:33:44:55"
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-ClientLocalIP", c.clientLocalIP)
	h.Set("X-ClientPublicIP", c.clientPublicIP)
	h.Set("X-MACAddress", c.clientMAC)
	h.Set("X-PrivateKey", c.cfg.APIKey)
	h.Set("X-UserType", "USER")
	h.Set("X-SourceID", "WEB")
	if c.accessToken != "" {
		h.Set("Authorization", "Bearer "+c.accessToken)
	}
	return h
}

// envelope is the common SmartAPI response shape.
type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, route string, params any) (*envelope, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RootURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = c.headers()

	if c.cfg.Debug {
		log.Printf("[smartconnect] POST %s %s", route, body)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("smartapi %s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("smartapi %s: read body: %w", route, err)
	}
	if c.cfg.Debug {
		log.Printf("[smartconnect] %d %s", resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("smartapi %s: parse response: %w", route, err)
	}
	if !env.Status {
		return &env, fmt.Errorf("smartapi %s: %s (%s)", route, env.Message, env.ErrorCode)
	}
	return &env, nil
}

// Login generates a fresh TOTP code and opens a session. Tokens are held
// on the client for subsequent calls and for the LTP stream.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("totp generation: %w", err)
	}

	env, err := c.post(ctx, routeLogin, map[string]string{
		"clientcode": c.cfg.ClientCode,
		"password":   c.cfg.Password,
		"totp":       code,
	})
	if err != nil {
		return err
	}

	var data struct {
		JWTToken     string `json:"jwtToken"`
		RefreshToken string `json:"refreshToken"`
		FeedToken    string `json:"feedToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("login: parse tokens: %w", err)
	}
	if data.JWTToken == "" || data.FeedToken == "" {
		return fmt.Errorf("login: empty tokens in response")
	}

	c.accessToken = data.JWTToken
	c.feedToken = data.FeedToken
	log.Printf("[smartconnect] session opened for %s", c.cfg.ClientCode)
	return nil
}

// Logout terminates the session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.post(ctx, routeLogout, map[string]string{"clientcode": c.cfg.ClientCode})
	return err
}

// FeedToken returns the market data feed token from the current session.
func (c *Client) FeedToken() string { return c.feedToken }

// AccessToken returns the JWT of the current session.
func (c *Client) AccessToken() string { return c.accessToken }

// GetDailyBars fetches ONE_DAY candles for the token between from and to
// (inclusive, IST trading dates) and converts them to paise bars.
func (c *Client) GetDailyBars(ctx context.Context, exchange, symbolToken, symbol string, from, to time.Time) ([]model.Bar, error) {
	env, err := c.post(ctx, routeCandle, map[string]string{
		"exchange":    exchange,
		"symboltoken": symbolToken,
		"interval":    "ONE_DAY",
		"fromdate":    from.Format("2006-01-02 09:15"),
		"todate":      to.Format("2006-01-02 15:30"),
	})
	if err != nil {
		return nil, err
	}

	// Each candle row is [timestamp, open, high, low, close, volume].
	var rows [][]json.RawMessage
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("candle data: parse rows: %w", err)
	}

	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("candle data: short row %s", row)
		}
		var ts string
		if err := json.Unmarshal(row[0], &ts); err != nil {
			return nil, fmt.Errorf("candle data: parse timestamp: %w", err)
		}
		date, err := time.Parse("2006-01-02T15:04:05-07:00", ts)
		if err != nil {
			return nil, fmt.Errorf("candle data: parse timestamp %q: %w", ts, err)
		}

		var o, h, l, cl, v float64
		for i, dst := range []*float64{&o, &h, &l, &cl, &v} {
			if err := json.Unmarshal(row[i+1], dst); err != nil {
				return nil, fmt.Errorf("candle data: parse field %d: %w", i+1, err)
			}
		}

		bars = append(bars, model.Bar{
			Symbol: symbol,
			Date:   date,
			Open:   toPaise(o),
			High:   toPaise(h),
			Low:    toPaise(l),
			Close:  toPaise(cl),
			Volume: int64(v),
		})
	}
	return bars, nil
}

// GetLTP returns the last traded price in paise.
func (c *Client) GetLTP(ctx context.Context, exchange, tradingSymbol, symbolToken string) (int64, error) {
	env, err := c.post(ctx, routeLTP, map[string]string{
		"exchange":      exchange,
		"tradingsymbol": tradingSymbol,
		"symboltoken":   symbolToken,
	})
	if err != nil {
		return 0, err
	}

	var data struct {
		LTP float64 `json:"ltp"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, fmt.Errorf("ltp: parse response: %w", err)
	}
	return toPaise(data.LTP), nil
}

func toPaise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}
