package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etnz/papertrade"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "USD")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	l, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	next, err := papertrade.Execute(l, papertrade.NewOrder("AAPL", papertrade.Buy, papertrade.Q(3), papertrade.M(150, "USD")))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "alice", next); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, "alice", next); !errors.Is(err, papertrade.ErrConflict) {
		t.Errorf("Save(stale) error = %v, want ErrConflict", err)
	}

	got, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Equal(next.WithRevision(1)) {
		t.Errorf("Load() = %v, want %v", got, next.WithRevision(1))
	}
}

func TestStore_Trades(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	at := time.Date(2025, time.March, 3, 14, 30, 0, 0, time.UTC)

	l0 := papertrade.NewLedger("USD")
	var want []papertrade.Trade
	// Appended out of order; Trades sorts by execution time.
	for _, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		o := papertrade.NewOrder("AAPL", papertrade.Buy, papertrade.Q(1), papertrade.M(10, "USD"))
		l1, _ := papertrade.Execute(l0, o)
		tr := papertrade.NewTrade(at.Add(offset), "alice", o, l0, l1)
		if err := s.Append(ctx, "alice", tr); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		want = append(want, tr)
	}
	// Another user sharing a prefix must not leak in.
	if err := s.Append(ctx, "alice2", want[0]); err != nil {
		t.Fatal(err)
	}

	got, err := s.Trades(ctx, "alice")
	if err != nil {
		t.Fatalf("Trades() error = %v", err)
	}
	wantOrder := []papertrade.Trade{want[1], want[2], want[0]}
	if len(got) != len(wantOrder) {
		t.Fatalf("Trades() = %d trades, want %d", len(got), len(wantOrder))
	}
	for i := range wantOrder {
		if got[i].ID != wantOrder[i].ID {
			t.Errorf("Trades()[%d].ID = %v, want %v", i, got[i].ID, wantOrder[i].ID)
		}
	}
}
