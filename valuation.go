package papertrade

// Valuation is the market value of a ledger at read time. It is derived, never
// persisted.
type Valuation struct {
	Currency   string
	Cash       Money
	Securities Money     // sum of the market values that could be priced.
	Total      Money     // Cash + Securities.
	Holdings   []Holding // sorted by symbol.
}

// Holding is the valuation of one position.
type Holding struct {
	Symbol      string
	Quantity    Quantity
	AverageCost Money
	Cost        Money // Quantity * AverageCost

	// Available is false when no current price could be resolved. Price,
	// MarketValue and UnrealizedGain are then zero and must not be shown as
	// such.
	Available      bool
	Price          Money
	MarketValue    Money
	UnrealizedGain Money
}

// Value computes the valuation of l with current prices from quotes.
//
// A symbol without a quote contributes nothing to the total and is reported
// as unavailable; it is never valued at zero silently.
func Value(l Ledger, quotes Quotes) Valuation {
	cur := l.Currency()
	v := Valuation{
		Currency:   cur,
		Cash:       l.Cash(),
		Securities: M(0, cur),
		Holdings:   make([]Holding, 0, l.Len()),
	}
	for symbol, p := range l.Positions() {
		h := Holding{
			Symbol:         symbol,
			Quantity:       p.Quantity,
			AverageCost:    p.AverageCost,
			Cost:           p.Cost(),
			Price:          M(0, cur),
			MarketValue:    M(0, cur),
			UnrealizedGain: M(0, cur),
		}
		if price, ok := quotes.Quote(symbol); ok && (price.Currency() == "" || price.Currency() == cur) {
			h.Available = true
			h.Price = M(price.Decimal(), cur)
			h.MarketValue = h.Price.Mul(p.Quantity)
			h.UnrealizedGain = h.MarketValue.Sub(h.Cost)
			v.Securities = v.Securities.Add(h.MarketValue)
		}
		v.Holdings = append(v.Holdings, h)
	}
	v.Total = v.Cash.Add(v.Securities)
	return v
}

// Unavailable returns the symbols whose price could not be resolved.
func (v Valuation) Unavailable() []string {
	var symbols []string
	for _, h := range v.Holdings {
		if !h.Available {
			symbols = append(symbols, h.Symbol)
		}
	}
	return symbols
}

// Complete reports whether every holding could be priced.
func (v Valuation) Complete() bool { return len(v.Unavailable()) == 0 }

// Return is the unrealized gain relative to the cost of the position. ok is
// false when the price is unavailable.
func (h Holding) Return() (p Percent, ok bool) {
	if !h.Available {
		return 0, false
	}
	return percentOf(h.UnrealizedGain.Decimal(), h.Cost.Decimal()), true
}

// Return is the performance of the whole account since it was opened with
// StartingCash. It only makes sense for a complete valuation.
func (v Valuation) Return() Percent {
	return percentOf(v.Total.Decimal().Sub(StartingCash), StartingCash)
}
