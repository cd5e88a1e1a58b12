package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/etnz/papertrade"
	"github.com/google/uuid"
)

// open connects to the database named by PTRADE_TEST_POSTGRES_DSN, or skips.
func open(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("PTRADE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PTRADE_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(context.Background(), dsn, "USD")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// user returns a fresh user id so that runs never collide.
func user() string { return "test-" + uuid.NewString() }

func TestStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	alice := user()

	l, err := s.Load(ctx, alice)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if l.Revision() != 0 || !l.Cash().Equal(papertrade.M(papertrade.StartingCash, "USD")) {
		t.Fatalf("Load() of a new user = %v", l)
	}

	l1, err := papertrade.Execute(l, papertrade.NewOrder("AAPL", papertrade.Buy, papertrade.Q(10), papertrade.M(100, "USD")))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, alice, l1); err != nil {
		t.Fatalf("Save() insert error = %v", err)
	}
	if err := s.Save(ctx, alice, l1); !errors.Is(err, papertrade.ErrConflict) {
		t.Errorf("Save(stale insert) error = %v, want ErrConflict", err)
	}

	loaded, err := s.Load(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := papertrade.Execute(loaded, papertrade.NewOrder("AAPL", papertrade.Sell, papertrade.Q(4), papertrade.M(120, "USD")))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, alice, l2); err != nil {
		t.Fatalf("Save() update error = %v", err)
	}
	if err := s.Save(ctx, alice, l2); !errors.Is(err, papertrade.ErrConflict) {
		t.Errorf("Save(stale update) error = %v, want ErrConflict", err)
	}

	got, err := s.Load(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(l2.WithRevision(2)) {
		t.Errorf("Load() = %v, want %v", got, l2.WithRevision(2))
	}
}

func TestStore_Trades(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	alice := user()
	at := time.Date(2025, time.March, 3, 14, 30, 0, 0, time.UTC)

	l0 := papertrade.NewLedger("USD")
	o := papertrade.NewOrder("MSFT", papertrade.Buy, papertrade.Q(2), papertrade.M(400, "USD"))
	l1, _ := papertrade.Execute(l0, o)
	later := papertrade.NewTrade(at.Add(time.Hour), alice, o, l0, l1)
	earlier := papertrade.NewTrade(at, alice, o, l0, l1)
	for _, tr := range []papertrade.Trade{later, earlier} {
		if err := s.Append(ctx, alice, tr); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := s.Trades(ctx, alice)
	if err != nil {
		t.Fatalf("Trades() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != earlier.ID || got[1].ID != later.ID {
		t.Errorf("Trades() = %+v, want earlier then later", got)
	}
}
