package papertrade

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewLedger(t *testing.T) {
	l := NewLedger("")
	if !l.Cash().Equal(USD(10000)) {
		t.Errorf("NewLedger().Cash() = %v, want %v", l.Cash(), USD(10000))
	}
	if l.Len() != 0 {
		t.Errorf("NewLedger().Len() = %d, want 0", l.Len())
	}
	if l.Revision() != 0 {
		t.Errorf("NewLedger().Revision() = %d, want 0", l.Revision())
	}
	if eur := NewLedger("EUR"); eur.Currency() != "EUR" {
		t.Errorf("NewLedger(EUR).Currency() = %q", eur.Currency())
	}
}

func TestRestoreLedger(t *testing.T) {
	testCases := []struct {
		name      string
		cash      Money
		positions map[string]Position
		wantErr   string
	}{
		{
			name:      "valid",
			cash:      USD(12.5),
			positions: map[string]Position{"AAPL": {Quantity: Q(3), AverageCost: USD(99.123)}},
		},
		{
			name:    "negative cash",
			cash:    USD(-1),
			wantErr: "cash balance is negative",
		},
		{
			name:    "missing currency",
			cash:    NO(1),
			wantErr: "currency is missing",
		},
		{
			name:      "zero quantity",
			cash:      USD(1),
			positions: map[string]Position{"AAPL": {Quantity: Q(0), AverageCost: USD(1)}},
			wantErr:   "positive whole number",
		},
		{
			name:      "fractional quantity",
			cash:      USD(1),
			positions: map[string]Position{"AAPL": {Quantity: Q(1.5), AverageCost: USD(1)}},
			wantErr:   "positive whole number",
		},
		{
			name:      "negative average cost",
			cash:      USD(1),
			positions: map[string]Position{"AAPL": {Quantity: Q(1), AverageCost: USD(-1)}},
			wantErr:   "average cost is negative",
		},
		{
			name:      "lower case symbol",
			cash:      USD(1),
			positions: map[string]Position{"aapl": {Quantity: Q(1), AverageCost: USD(1)}},
			wantErr:   "invalid character",
		},
		{
			name:      "mixed currencies",
			cash:      USD(1),
			positions: map[string]Position{"SAP": {Quantity: Q(1), AverageCost: EUR(1)}},
			wantErr:   "does not match ledger currency",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RestoreLedger(tc.cash, tc.positions, 4)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("RestoreLedger() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("RestoreLedger() error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestRestoreLedger_CopiesPositions(t *testing.T) {
	positions := map[string]Position{"AAPL": {Quantity: Q(1), AverageCost: USD(1)}}
	l, err := RestoreLedger(USD(1), positions, 0)
	if err != nil {
		t.Fatalf("RestoreLedger() error = %v", err)
	}
	delete(positions, "AAPL")
	if _, ok := l.Position("AAPL"); !ok {
		t.Error("ledger shares its positions map with the caller")
	}
}

func TestLedger_Positions(t *testing.T) {
	l := must(NewLedger("USD"), buy("MSFT", 1, 10), buy("AAPL", 1, 10), buy("GOOG", 1, 10))
	var got []string
	for symbol := range l.Positions() {
		got = append(got, symbol)
	}
	want := []string{"AAPL", "GOOG", "MSFT"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Positions() order mismatch (-want +got):\n%s", diff)
	}
	if !slices.Equal(l.Symbols(), want) {
		t.Errorf("Symbols() = %v, want %v", l.Symbols(), want)
	}
}

func TestLedger_JSON(t *testing.T) {
	l := must(NewLedger("USD"), buy("AAPL", 3, 100), buy("AAPL", 4, 100.07)).WithRevision(7)

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	got, err := DecodeLedger(&buf)
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	if !got.Equal(l) {
		t.Errorf("DecodeLedger() = %+v, want %+v", got, l)
	}
}

func TestLedger_UnmarshalJSON_Invalid(t *testing.T) {
	data := `{"revision":1,"currency":"USD","cash":-5,"positions":{}}`
	var l Ledger
	if err := json.Unmarshal([]byte(data), &l); err == nil {
		t.Error("json.Unmarshal() accepted a ledger with negative cash")
	}
}
