package smartconnect

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetDailyBars_ConvertsRupeesToPaise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routeCandle {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": true,
			"message": "SUCCESS",
			"data": [
				["2026-08-27T09:15:00+05:30", 54210.55, 54580.10, 54100.00, 54475.25, 123456],
				["2026-08-28T09:15:00+05:30", 54480.00, 54720.45, 54380.90, 54650.00, 98765]
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", RootURL: srv.URL})
	bars, err := c.GetDailyBars(context.Background(), "NSE", "99926009", "BANKNIFTY",
		time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetDailyBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Open != 5421055 || bars[0].Close != 5447525 {
		t.Errorf("bar 0 = %+v, want open 5421055 close 5447525 paise", bars[0])
	}
	if bars[1].Volume != 98765 || bars[1].Symbol != "BANKNIFTY" {
		t.Errorf("bar 1 = %+v", bars[1])
	}
}

func TestGetDailyBars_APIFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "message": "Invalid Token", "errorcode": "AG8001"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", RootURL: srv.URL})
	_, err := c.GetDailyBars(context.Background(), "NSE", "99926009", "BANKNIFTY",
		time.Now().AddDate(0, 0, -5), time.Now())
	if err == nil {
		t.Fatal("expected error from status=false response")
	}
}

func TestParseLTPFrame(t *testing.T) {
	frame := make([]byte, 51)
	frame[0] = modeLTP
	frame[1] = ExchangeNSECM
	copy(frame[2:27], "99926009")
	binary.LittleEndian.PutUint64(frame[43:51], 5465000) // ₹54,650.00

	tick, ok := parseLTPFrame(frame)
	if !ok {
		t.Fatal("expected a valid LTP frame")
	}
	if tick.Token != "99926009" {
		t.Errorf("token = %q, want 99926009", tick.Token)
	}
	if tick.LTP != 5465000 {
		t.Errorf("ltp = %d, want 5465000 paise", tick.LTP)
	}
	if tick.Exchange != ExchangeNSECM {
		t.Errorf("exchange = %d, want %d", tick.Exchange, ExchangeNSECM)
	}
}

func TestParseLTPFrame_RejectsShortOrWrongMode(t *testing.T) {
	if _, ok := parseLTPFrame(make([]byte, 10)); ok {
		t.Error("short frame accepted")
	}
	frame := make([]byte, 51)
	frame[0] = 2 // quote mode
	if _, ok := parseLTPFrame(frame); ok {
		t.Error("non-LTP frame accepted")
	}
}
