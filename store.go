package papertrade

import "context"

// Store persists one Ledger per user.
//
// Load returns NewLedger in the store currency when the user has no ledger
// yet. Save is all-or-nothing: a concurrent reader sees either the previous
// or the new ledger. Save fails with an error wrapping ErrConflict when the
// stored revision differs from l.Revision(), which guarantees that at most one
// load-execute-save cycle commits per user at a time.
type Store interface {
	Load(ctx context.Context, user string) (Ledger, error)
	Save(ctx context.Context, user string, l Ledger) error
}

// Journal records the trades accepted for each user, in execution order.
type Journal interface {
	Append(ctx context.Context, user string, t Trade) error
	Trades(ctx context.Context, user string) ([]Trade, error)
}
