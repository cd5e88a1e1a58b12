package papertrade

import "github.com/shopspring/decimal"

// USD is a helper for test to create dollars from const
func USD(v float64) Money { return M(v, "USD") }

// EUR is a helper for test to create euros from const
func EUR(v float64) Money { return M(v, "EUR") }

// NO is a helper for test to create money with no currency set
func NO(v float64) Money { return M(v, "") }

// must is a helper for test to execute a sequence of orders that must all be accepted.
func must(l Ledger, orders ...Order) Ledger {
	for _, o := range orders {
		var err error
		l, err = Execute(l, o)
		if err != nil {
			panic(err)
		}
	}
	return l
}

func buy(symbol string, quantity int, price float64) Order {
	return NewOrder(symbol, Buy, Q(quantity), USD(price))
}

func sell(symbol string, quantity int, price float64) Order {
	return NewOrder(symbol, Sell, Q(quantity), USD(price))
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }
