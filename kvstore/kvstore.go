// Package kvstore implements papertrade.Store and papertrade.Journal on top of
// an embedded pebble database.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/etnz/papertrade"
)

// keys:
//
//	ledger/<user>                      ledger JSON document
//	trade/<user>/<unix-nanos>/<uuid>   trade JSON, nanos zero padded to sort
func ledgerKey(user string) []byte { return []byte("ledger/" + user) }
func tradePrefix(user string) []byte { return []byte("trade/" + user + "/") }
func tradeKey(user string, t papertrade.Trade) []byte {
	return fmt.Appendf(tradePrefix(user), "%020d/%s", t.Time.UnixNano(), t.ID)
}

func keyUpperBound(prefix []byte) []byte {
	bound := bytes.Clone(prefix)
	bound[len(bound)-1]++
	return bound
}

// Store is a pebble backed ledger store and trade journal.
type Store struct {
	db       *pebble.DB
	currency string

	mu sync.Mutex // serializes revision checks with their write.
}

// Open opens, or creates, the database in dir.
func Open(dir, currency string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}
	if currency == "" {
		currency = papertrade.DefaultCurrency
	}
	return &Store{db: db, currency: currency}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Load(ctx context.Context, user string) (papertrade.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return papertrade.Ledger{}, err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return papertrade.Ledger{}, err
	}
	return s.load(user)
}

func (s *Store) load(user string) (papertrade.Ledger, error) {
	data, closer, err := s.db.Get(ledgerKey(user))
	if errors.Is(err, pebble.ErrNotFound) {
		return papertrade.NewLedger(s.currency), nil
	}
	if err != nil {
		return papertrade.Ledger{}, fmt.Errorf("failed to get ledger: %w", err)
	}
	defer closer.Close()

	var l papertrade.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return papertrade.Ledger{}, fmt.Errorf("failed to unmarshal ledger: %w", err)
	}
	return l, nil
}

func (s *Store) Save(ctx context.Context, user string, l papertrade.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(user)
	if err != nil {
		return err
	}
	if current.Revision() != l.Revision() {
		return fmt.Errorf("revision %d, stored %d: %w", l.Revision(), current.Revision(), papertrade.ErrConflict)
	}
	data, err := json.Marshal(l.WithRevision(l.Revision() + 1))
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	if err := s.db.Set(ledgerKey(user), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, user string, t papertrade.Trade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	if err := s.db.Set(tradeKey(user, t), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// Trades returns the journal of user, oldest first.
func (s *Store) Trades(ctx context.Context, user string) ([]papertrade.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return nil, err
	}
	prefix := tradePrefix(user)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}
	defer iter.Close()

	var trades []papertrade.Trade
	for iter.First(); iter.Valid(); iter.Next() {
		var t papertrade.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trade %s: %w", iter.Key(), err)
		}
		trades = append(trades, t)
	}
	return trades, iter.Error()
}
