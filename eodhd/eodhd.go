// Package eodhd resolves live prices from the eodhd.com real-time API.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/papertrade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://eodhd.com/api"

// Client is a papertrade.PriceSource backed by eodhd.
type Client struct {
	APIKey   string
	BaseURL  string // DefaultBaseURL if empty.
	Exchange string // eodhd exchange code appended to symbols, "US" if empty.
	Currency string // currency prices are quoted in, papertrade.DefaultCurrency if empty.
	HTTP     *http.Client
	Log      *zap.Logger
}

// NewClient returns a client for the US exchange quoting in USD.
func NewClient(apiKey string) *Client {
	return &Client{APIKey: apiKey, HTTP: new(http.Client), Log: zap.NewNop()}
}

// ticker returns the eodhd ticker for symbol, for instance AAPL.US.
func (c *Client) ticker(symbol string) string {
	exchange := c.Exchange
	if exchange == "" {
		exchange = "US"
	}
	return symbol + "." + exchange
}

func (c *Client) addr(symbol string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("api_token", c.APIKey)
	q.Set("fmt", "json")
	return fmt.Sprintf("%s/real-time/%s?%s", base, url.PathEscape(c.ticker(symbol)), q.Encode())
}

// Price returns the last close of symbol rounded to the currency minor unit.
//
// eodhd answers "NA" for symbols it knows but cannot price, those, like
// unknown symbols and non positive prices, yield an error wrapping
// papertrade.ErrPriceUnavailable.
func (c *Client) Price(ctx context.Context, symbol string) (papertrade.Money, error) {
	symbol = papertrade.NormalizeSymbol(symbol)
	if err := papertrade.ValidateSymbol(symbol); err != nil {
		return papertrade.Money{}, fmt.Errorf("%w: %v", papertrade.ErrInvalidSymbol, err)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	logger := c.Log
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := c.Currency
	if currency == "" {
		currency = papertrade.DefaultCurrency
	}

	var jobj any
	status, err := jwget(ctx, client, c.addr(symbol), &jobj)
	if status == http.StatusNotFound {
		return papertrade.Money{}, fmt.Errorf("%s: unknown ticker %s: %w", symbol, c.ticker(symbol), papertrade.ErrPriceUnavailable)
	}
	if err != nil {
		logger.Warn("eodhd request failed", zap.String("symbol", symbol), zap.Error(err))
		return papertrade.Money{}, fmt.Errorf("%s: %w", symbol, err)
	}

	value, err := closeValue(jobj)
	if err != nil {
		return papertrade.Money{}, fmt.Errorf("%s: %v: %w", symbol, err, papertrade.ErrPriceUnavailable)
	}
	price := papertrade.M(value, currency).Round()
	if !price.IsPositive() {
		return papertrade.Money{}, fmt.Errorf("%s: non positive price %v: %w", symbol, value, papertrade.ErrPriceUnavailable)
	}
	logger.Debug("eodhd price", zap.String("symbol", symbol), zap.Stringer("price", price))
	return price, nil
}

// closeValue extracts $.close from a real-time response.
func closeValue(jobj any) (decimal.Decimal, error) {
	const path = "$.close"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// jsonpath may return a list of 1 answer.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("close is %q", v)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("close is not a number: %v", jval)
	}
}
