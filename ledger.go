package papertrade

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// StartingCash is the allowance of every new ledger, in the ledger currency.
var StartingCash = decimal.NewFromInt(10000)

// Position is the holding of one symbol.
type Position struct {
	Quantity    Quantity // always positive and whole inside a Ledger.
	AverageCost Money    // quantity-weighted mean purchase price.
}

// Cost returns the cost basis of the position.
func (p Position) Cost() Money { return p.AverageCost.Mul(p.Quantity) }

func (p Position) Equal(o Position) bool {
	return p.Quantity.Equal(o.Quantity) && p.AverageCost.Equal(o.AverageCost)
}

// Ledger is a user's cash balance and stock positions.
//
// A Ledger is an immutable value: Execute returns a new Ledger and never
// modifies the one it was given, so a Ledger can be shared freely.
type Ledger struct {
	cash      Money
	positions map[string]Position // never mutated once the Ledger is built.
	revision  uint64
}

// NewLedger returns the ledger of a new user: StartingCash and no position.
func NewLedger(currency string) Ledger {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Ledger{
		cash:      M(StartingCash, currency),
		positions: map[string]Position{},
	}
}

// RestoreLedger rebuilds a ledger from its stored parts. It fails if the
// parts violate any ledger invariant.
func RestoreLedger(cash Money, positions map[string]Position, revision uint64) (Ledger, error) {
	l := Ledger{
		cash:      cash,
		positions: maps.Clone(positions),
		revision:  revision,
	}
	if l.positions == nil {
		l.positions = map[string]Position{}
	}
	if err := l.Check(); err != nil {
		return Ledger{}, err
	}
	return l, nil
}

// Check verifies the ledger invariants.
func (l Ledger) Check() error {
	var errs error
	if l.cash.Currency() == "" {
		errs = errors.Join(errs, errors.New("ledger currency is missing"))
	}
	if l.cash.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("cash balance is negative: %v", l.cash))
	}
	for _, symbol := range l.Symbols() {
		p := l.positions[symbol]
		if err := ValidateSymbol(symbol); err != nil {
			errs = errors.Join(errs, err)
		}
		if !p.Quantity.IsPositive() || !p.Quantity.IsWhole() {
			errs = errors.Join(errs, fmt.Errorf("%s quantity must be a positive whole number, got %v", symbol, p.Quantity))
		}
		if p.AverageCost.IsNegative() {
			errs = errors.Join(errs, fmt.Errorf("%s average cost is negative: %v", symbol, p.AverageCost))
		}
		if p.AverageCost.Currency() != l.cash.Currency() {
			errs = errors.Join(errs, fmt.Errorf("%s average cost currency %q does not match ledger currency %q", symbol, p.AverageCost.Currency(), l.cash.Currency()))
		}
	}
	return errs
}

// Cash returns the cash balance.
func (l Ledger) Cash() Money { return l.cash }

// Currency returns the currency of the ledger.
func (l Ledger) Currency() string { return l.cash.Currency() }

// Revision returns the storage revision the ledger was loaded at, 0 if it
// was never saved.
func (l Ledger) Revision() uint64 { return l.revision }

// WithRevision returns a copy of l at revision r. Only stores need it.
func (l Ledger) WithRevision(r uint64) Ledger {
	l.revision = r
	return l
}

// Position returns the position held in symbol, if any.
func (l Ledger) Position(symbol string) (Position, bool) {
	p, ok := l.positions[symbol]
	return p, ok
}

// Len returns the number of positions.
func (l Ledger) Len() int { return len(l.positions) }

// Symbols returns the symbols held, sorted.
func (l Ledger) Symbols() []string {
	return slices.Sorted(maps.Keys(l.positions))
}

// Positions iterates over positions in symbol order.
func (l Ledger) Positions() iter.Seq2[string, Position] {
	return func(yield func(string, Position) bool) {
		for _, symbol := range l.Symbols() {
			if !yield(symbol, l.positions[symbol]) {
				return
			}
		}
	}
}

// Equal reports whether both ledgers hold the same state at the same revision.
func (l Ledger) Equal(o Ledger) bool {
	return l.revision == o.revision &&
		l.cash.Equal(o.cash) &&
		maps.EqualFunc(l.positions, o.positions, Position.Equal)
}

// with returns a copy of l with a new cash balance and the position of symbol
// replaced, or removed when p is nil.
func (l Ledger) with(cash Money, symbol string, p *Position) Ledger {
	positions := maps.Clone(l.positions)
	if positions == nil {
		positions = map[string]Position{}
	}
	if p == nil {
		delete(positions, symbol)
	} else {
		positions[symbol] = *p
	}
	return Ledger{cash: cash, positions: positions, revision: l.revision}
}

// ledgerDocument is the persisted form of a Ledger.
type ledgerDocument struct {
	Revision  uint64                      `json:"revision"`
	Currency  string                      `json:"currency"`
	Cash      decimal.Decimal             `json:"cash"`
	Positions map[string]positionDocument `json:"positions"`
}

type positionDocument struct {
	Quantity    Quantity        `json:"quantity"`
	AverageCost decimal.Decimal `json:"averageCost"`
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	doc := ledgerDocument{
		Revision:  l.revision,
		Currency:  l.Currency(),
		Cash:      l.cash.Decimal(),
		Positions: make(map[string]positionDocument, len(l.positions)),
	}
	for symbol, p := range l.positions {
		doc.Positions[symbol] = positionDocument{Quantity: p.Quantity, AverageCost: p.AverageCost.Decimal()}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a ledger and checks its invariants.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	positions := make(map[string]Position, len(doc.Positions))
	for symbol, p := range doc.Positions {
		positions[symbol] = Position{Quantity: p.Quantity, AverageCost: M(p.AverageCost, doc.Currency)}
	}
	restored, err := RestoreLedger(M(doc.Cash, doc.Currency), positions, doc.Revision)
	if err != nil {
		return fmt.Errorf("invalid ledger: %w", err)
	}
	*l = restored
	return nil
}
