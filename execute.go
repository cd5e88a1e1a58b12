package papertrade

// averageCostPlaces is the number of decimal places kept in an average cost.
// Weighted means rarely terminate; ten places keep repeated partial fills
// accurate far below a cent.
const averageCostPlaces = 10

// Execute applies order o to ledger l and returns the resulting ledger.
//
// Execute is all-or-nothing: on success the returned ledger satisfies every
// ledger invariant, on failure the error is a *Rejection and the returned
// ledger is l itself. l is never modified.
//
// Checks happen in this order, stopping at the first failure: side, symbol,
// quantity (positive and whole), price (positive and in the ledger currency),
// then cash for a buy or held shares for a sell.
func Execute(l Ledger, o Order) (Ledger, error) {
	if o.Side != Buy && o.Side != Sell {
		return l, reject(o, ErrInvalidSide, "%q", string(o.Side))
	}
	if err := ValidateSymbol(o.Symbol); err != nil {
		return l, reject(o, ErrInvalidSymbol, "%v", err)
	}
	if !o.Quantity.IsPositive() || !o.Quantity.IsWhole() {
		return l, reject(o, ErrInvalidQuantity, "quantity must be a positive whole number, got %v", o.Quantity)
	}
	if !o.Price.IsPositive() {
		return l, reject(o, ErrInvalidPrice, "price must be positive, got %v", o.Price.Decimal())
	}
	if o.Price.Currency() != "" && o.Price.Currency() != l.Currency() {
		return l, reject(o, ErrInvalidPrice, "price currency %s does not match ledger currency %s", o.Price.Currency(), l.Currency())
	}

	price := M(o.Price.Decimal(), l.Currency())
	amount := price.Mul(o.Quantity)
	held, isHeld := l.positions[o.Symbol]

	switch o.Side {
	case Buy:
		if amount.GreaterThan(l.cash) {
			return l, reject(o, ErrInsufficientCash, "cannot buy for %v, cash balance is %v", amount, l.cash)
		}
		p := Position{Quantity: o.Quantity, AverageCost: price}
		if isHeld {
			total := held.Quantity.Add(o.Quantity)
			avg := held.Cost().Add(amount).Decimal().DivRound(total.Decimal(), averageCostPlaces)
			p = Position{Quantity: total, AverageCost: M(avg, l.Currency())}
		}
		return l.with(l.cash.Sub(amount), o.Symbol, &p), nil

	default: // Sell
		if !isHeld || held.Quantity.LessThan(o.Quantity) {
			return l, reject(o, ErrInsufficientShares, "cannot sell %v of %s, position is only %v", o.Quantity, o.Symbol, held.Quantity)
		}
		remaining := held.Quantity.Sub(o.Quantity)
		if remaining.IsZero() {
			return l.with(l.cash.Add(amount), o.Symbol, nil), nil
		}
		p := Position{Quantity: remaining, AverageCost: held.AverageCost}
		return l.with(l.cash.Add(amount), o.Symbol, &p), nil
	}
}

// RealizedGain returns the gain (or loss, when negative) realized by selling
// according to o out of l: quantity * (price - average cost). It is zero for
// a buy or a symbol that is not held.
func RealizedGain(l Ledger, o Order) Money {
	zero := M(0, l.Currency())
	if o.Side != Sell {
		return zero
	}
	held, ok := l.positions[o.Symbol]
	if !ok {
		return zero
	}
	price := M(o.Price.Decimal(), l.Currency())
	return price.Sub(held.AverageCost).Mul(o.Quantity)
}
