package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/etnz/papertrade"
)

// File stores each user as two files in a directory:
//
//	<user>.json   the ledger document, replaced atomically on save.
//	<user>.jsonl  the trade journal, one JSON trade per line.
//
// Revision checks are serialized within the process only: two processes
// sharing a directory are not protected from each other.
type File struct {
	dir      string
	currency string

	mu sync.Mutex
}

// NewFile returns a store rooted at dir, creating it if needed.
func NewFile(dir, currency string) (*File, error) {
	if currency == "" {
		currency = papertrade.DefaultCurrency
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create store directory: %w", err)
	}
	return &File{dir: dir, currency: currency}, nil
}

func (f *File) ledgerPath(user string) string  { return filepath.Join(f.dir, user+".json") }
func (f *File) journalPath(user string) string { return filepath.Join(f.dir, user+".jsonl") }

func (f *File) Load(ctx context.Context, user string) (papertrade.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return papertrade.Ledger{}, err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return papertrade.Ledger{}, err
	}
	return f.load(user)
}

func (f *File) load(user string) (papertrade.Ledger, error) {
	content, err := os.ReadFile(f.ledgerPath(user))
	if errors.Is(err, fs.ErrNotExist) {
		return papertrade.NewLedger(f.currency), nil
	}
	if err != nil {
		return papertrade.Ledger{}, err
	}
	l, err := papertrade.DecodeLedger(bytes.NewReader(content))
	if err != nil {
		return papertrade.Ledger{}, fmt.Errorf("could not decode ledger file %q: %w", f.ledgerPath(user), err)
	}
	return l, nil
}

func (f *File) Save(ctx context.Context, user string, l papertrade.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load(user)
	if err != nil {
		return err
	}
	if current.Revision() != l.Revision() {
		return fmt.Errorf("revision %d, stored %d: %w", l.Revision(), current.Revision(), papertrade.ErrConflict)
	}

	var buf bytes.Buffer
	if err := papertrade.EncodeLedger(&buf, l.WithRevision(l.Revision()+1)); err != nil {
		return err
	}
	return writeFileAtomic(f.ledgerPath(user), buf.Bytes())
}

// writeFileAtomic writes content to a temporary file in the same directory
// then renames it over path.
func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed.

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (f *File) Append(ctx context.Context, user string, t papertrade.Trade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.journalPath(user), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := papertrade.EncodeTrade(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (f *File) Trades(ctx context.Context, user string) ([]papertrade.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := papertrade.ValidateUser(user); err != nil {
		return nil, err
	}
	file, err := os.Open(f.journalPath(user))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return papertrade.DecodeTrades(file)
}
