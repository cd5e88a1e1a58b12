package papertrade

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// NormalizeSide returns the canonical, lower case form of a side. The result
// is not checked, Execute rejects unknown sides.
func NormalizeSide(s string) Side {
	return Side(strings.ToLower(strings.TrimSpace(s)))
}

// ParseSide parses "buy" or "sell", in any case.
func ParseSide(s string) (Side, error) {
	switch side := NormalizeSide(s); side {
	case Buy, Sell:
		return side, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

func (s Side) String() string { return string(s) }

// Order is a request to buy or sell a whole number of shares at a given
// market price. It is consumed once by Execute.
type Order struct {
	Symbol   string
	Side     Side
	Quantity Quantity
	Price    Money // price per share
}

// NewOrder creates an order on the canonical form of symbol.
func NewOrder(symbol string, side Side, quantity Quantity, price Money) Order {
	return Order{
		Symbol:   NormalizeSymbol(symbol),
		Side:     side,
		Quantity: quantity,
		Price:    price,
	}
}

// Amount returns the cash moved by the order: quantity times price.
func (o Order) Amount() Money { return o.Price.Mul(o.Quantity) }

func (o Order) String() string {
	return fmt.Sprintf("%s %v %s @ %v", o.Side, o.Quantity, o.Symbol, o.Price)
}

func (o Order) Equal(p Order) bool {
	return o.Symbol == p.Symbol && o.Side == p.Side && o.Quantity.Equal(p.Quantity) && o.Price.Equal(p.Price)
}

func (o Order) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", o.Symbol)
	w.Append("side", o.Side)
	w.Append("quantity", o.Quantity)
	w.Append("price", o.Price)
	return w.MarshalJSON()
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var temp struct {
		Symbol   string   `json:"symbol"`
		Side     Side     `json:"side"`
		Quantity Quantity `json:"quantity"`
		Price    Money    `json:"price"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*o = Order{Symbol: temp.Symbol, Side: temp.Side, Quantity: temp.Quantity, Price: temp.Price}
	return nil
}
