// Package store provides the in-memory and file based implementations of
// papertrade.Store and papertrade.Journal.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/papertrade"
)

// Memory keeps ledgers and trades in process memory. The zero value is not
// usable, use NewMemory.
type Memory struct {
	currency string

	mu      sync.RWMutex
	ledgers map[string]papertrade.Ledger
	trades  map[string][]papertrade.Trade
}

// NewMemory returns an empty store creating ledgers in currency.
func NewMemory(currency string) *Memory {
	if currency == "" {
		currency = papertrade.DefaultCurrency
	}
	return &Memory{
		currency: currency,
		ledgers:  make(map[string]papertrade.Ledger),
		trades:   make(map[string][]papertrade.Trade),
	}
}

func (m *Memory) Load(ctx context.Context, user string) (papertrade.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return papertrade.Ledger{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.ledgers[user]; ok {
		return l, nil
	}
	return papertrade.NewLedger(m.currency), nil
}

func (m *Memory) Save(ctx context.Context, user string, l papertrade.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.ledgers[user].Revision()
	if current != l.Revision() {
		return fmt.Errorf("revision %d, stored %d: %w", l.Revision(), current, papertrade.ErrConflict)
	}
	// Ledger values are immutable, storing them shares nothing mutable.
	m.ledgers[user] = l.WithRevision(current + 1)
	return nil
}

func (m *Memory) Append(ctx context.Context, user string, t papertrade.Trade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[user] = append(m.trades[user], t)
	return nil
}

func (m *Memory) Trades(ctx context.Context, user string) ([]papertrade.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.trades[user]), nil
}
