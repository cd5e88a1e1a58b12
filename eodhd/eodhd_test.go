package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etnz/papertrade"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/real-time/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "secret" || r.URL.Query().Get("fmt") != "json" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/real-time/") {
		case "AAPL.US":
			w.Write([]byte(`{"code":"AAPL.US","timestamp":1741012200,"close":187.456,"previousClose":185.1}`))
		case "BRK-B.US":
			w.Write([]byte(`{"code":"BRK-B.US","close":"411.2"}`))
		case "DEAD.US":
			w.Write([]byte(`{"code":"DEAD.US","close":"NA"}`))
		case "ZERO.US":
			w.Write([]byte(`{"code":"ZERO.US","close":0}`))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("secret")
	c.BaseURL = srv.URL
	c.HTTP = srv.Client()
	return c
}

func TestClient_Price(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	testCases := []struct {
		symbol string
		want   papertrade.Money
	}{
		{"AAPL", papertrade.M(187.46, "USD")},
		{"aapl", papertrade.M(187.46, "USD")},
		{"BRK-B", papertrade.M(411.2, "USD")},
	}
	for _, tc := range testCases {
		got, err := c.Price(ctx, tc.symbol)
		if err != nil {
			t.Errorf("Price(%q) error = %v", tc.symbol, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("Price(%q) = %v, want %v", tc.symbol, got, tc.want)
		}
	}
}

func TestClient_PriceUnavailable(t *testing.T) {
	c := newTestClient(t)
	for _, symbol := range []string{"DEAD", "ZERO", "NOPE"} {
		if _, err := c.Price(context.Background(), symbol); !errors.Is(err, papertrade.ErrPriceUnavailable) {
			t.Errorf("Price(%q) error = %v, want ErrPriceUnavailable", symbol, err)
		}
	}
}

func TestClient_PriceErrors(t *testing.T) {
	c := newTestClient(t)
	c.APIKey = "wrong"
	_, err := c.Price(context.Background(), "AAPL")
	if err == nil || errors.Is(err, papertrade.ErrPriceUnavailable) {
		t.Errorf("Price() with a bad key error = %v, want a transport error", err)
	}
	if err != nil && strings.Contains(err.Error(), "wrong") {
		t.Errorf("Price() error leaks the api token: %v", err)
	}

	if _, err := c.Price(context.Background(), "A/B"); !errors.Is(err, papertrade.ErrInvalidSymbol) {
		t.Errorf("Price(A/B) error = %v, want ErrInvalidSymbol", err)
	}
}
