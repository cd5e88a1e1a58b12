package papertrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// PriceSource resolves the current market price of a symbol.
//
// Implementations return an error wrapping ErrPriceUnavailable when the
// symbol has no price. They never return a zero price.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (Money, error)
}

// Quotes provides prices already resolved by the caller, for valuation.
type Quotes interface {
	Quote(symbol string) (Money, bool)
}

// Prices is a fixed set of prices indexed by symbol. It serves both as
// Quotes and as an offline PriceSource.
type Prices map[string]Money

// Quote returns the price of symbol. Non-positive prices do not count.
func (p Prices) Quote(symbol string) (Money, bool) {
	m, ok := p[symbol]
	if !ok || !m.IsPositive() {
		return Money{}, false
	}
	return m, true
}

// Price implements PriceSource.
func (p Prices) Price(ctx context.Context, symbol string) (Money, error) {
	if err := ctx.Err(); err != nil {
		return Money{}, err
	}
	m, ok := p.Quote(symbol)
	if !ok {
		return Money{}, fmt.Errorf("%s: %w", symbol, ErrPriceUnavailable)
	}
	return m, nil
}

// DecodePrices reads a JSON object mapping symbols to prices in currency,
// for instance {"AAPL": 187.5, "MSFT": "411.20"}. Symbols that are equal once
// normalized, like "aapl" and "AAPL", are an error.
func DecodePrices(r io.Reader, currency string) (Prices, error) {
	var raw map[string]decimal.Decimal
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("cannot decode prices: %w", err)
	}
	prices := make(Prices, len(raw))
	for symbol, value := range raw {
		s := NormalizeSymbol(symbol)
		if err := ValidateSymbol(s); err != nil {
			return nil, err
		}
		if _, dup := prices[s]; dup {
			return nil, fmt.Errorf("symbol %s is priced more than once", s)
		}
		prices[s] = M(value, currency)
	}
	return prices, nil
}
