package papertrade

import (
	"slices"
	"testing"
)

func TestValue(t *testing.T) {
	l := must(NewLedger("USD"), buy("AAPL", 10, 100), buy("MSFT", 2, 300), buy("GOOG", 1, 50))
	// cash = 10000 - 1000 - 600 - 50 = 8350

	v := Value(l, Prices{"AAPL": USD(150), "MSFT": USD(250), "GOOG": USD(0)})

	if !v.Cash.Equal(USD(8350)) {
		t.Errorf("Cash = %v, want 8350", v.Cash.Decimal())
	}
	// AAPL 1500 + MSFT 500, GOOG has no usable price.
	if !v.Securities.Equal(USD(2000)) {
		t.Errorf("Securities = %v, want 2000", v.Securities.Decimal())
	}
	if !v.Total.Equal(USD(10350)) {
		t.Errorf("Total = %v, want 10350", v.Total.Decimal())
	}
	if got, want := v.Unavailable(), []string{"GOOG"}; !slices.Equal(got, want) {
		t.Errorf("Unavailable() = %v, want %v", got, want)
	}
	if v.Complete() {
		t.Error("Complete() = true with an unpriced holding")
	}

	wantHoldings := []struct {
		symbol    string
		available bool
		value     Money
		gain      Money
	}{
		{"AAPL", true, USD(1500), USD(500)},
		{"GOOG", false, USD(0), USD(0)},
		{"MSFT", true, USD(500), USD(-100)},
	}
	if len(v.Holdings) != len(wantHoldings) {
		t.Fatalf("len(Holdings) = %d, want %d", len(v.Holdings), len(wantHoldings))
	}
	for i, want := range wantHoldings {
		h := v.Holdings[i]
		if h.Symbol != want.symbol || h.Available != want.available {
			t.Errorf("Holdings[%d] = %s available=%v, want %s available=%v", i, h.Symbol, h.Available, want.symbol, want.available)
		}
		if !h.MarketValue.Equal(want.value) {
			t.Errorf("%s MarketValue = %v, want %v", h.Symbol, h.MarketValue.Decimal(), want.value.Decimal())
		}
		if !h.UnrealizedGain.Equal(want.gain) {
			t.Errorf("%s UnrealizedGain = %v, want %v", h.Symbol, h.UnrealizedGain.Decimal(), want.gain.Decimal())
		}
	}
}

func TestValue_RoundTrip(t *testing.T) {
	// valuing right after a trade at the trade price preserves the total.
	l0 := NewLedger("USD")
	o := buy("AAPL", 37, 123.45)
	l1 := must(l0, o)

	v := Value(l1, Prices{"AAPL": o.Price})
	if !v.Total.Equal(l0.Cash()) {
		t.Errorf("Total = %v, want %v", v.Total.Decimal(), l0.Cash().Decimal())
	}
	if !v.Cash.Add(o.Amount()).Equal(v.Total) {
		t.Errorf("Cash + Amount = %v, want %v", v.Cash.Add(o.Amount()).Decimal(), v.Total.Decimal())
	}
}

func TestValue_Empty(t *testing.T) {
	v := Value(NewLedger("EUR"), Prices{})
	if !v.Total.Equal(EUR(10000)) {
		t.Errorf("Total = %v, want 10000", v.Total)
	}
	if len(v.Holdings) != 0 || !v.Complete() {
		t.Errorf("Holdings = %v, want none", v.Holdings)
	}
}

func TestValue_ForeignCurrencyQuoteIsUnavailable(t *testing.T) {
	l := must(NewLedger("USD"), buy("SAP", 1, 100))
	v := Value(l, Prices{"SAP": EUR(120)})
	if v.Holdings[0].Available {
		t.Error("a quote in another currency was used to value the position")
	}
}

func TestReturn(t *testing.T) {
	l := must(NewLedger("USD"), buy("AAPL", 10, 100), buy("MSFT", 4, 50))
	v := Value(l, Prices{"AAPL": USD(90), "MSFT": USD(75)})

	testCases := []struct {
		symbol string
		want   Percent
	}{
		{"AAPL", -10},
		{"MSFT", 50},
	}
	for i, tc := range testCases {
		got, ok := v.Holdings[i].Return()
		if v.Holdings[i].Symbol != tc.symbol || !ok || !got.Equal(tc.want) {
			t.Errorf("Holdings[%d].Return() = %v, %v, want %s %v", i, got, ok, tc.symbol, tc.want)
		}
	}
	// 10000 - 1200 cash, 900 + 300 securities.
	if got := v.Return(); !got.Equal(0) {
		t.Errorf("Valuation.Return() = %v, want 0", got)
	}

	partial := Value(l, Prices{"AAPL": USD(90)})
	if _, ok := partial.Holdings[1].Return(); ok {
		t.Error("Return() of an unpriced holding is available")
	}
}

func TestPercent_SignedString(t *testing.T) {
	for p, want := range map[Percent]string{12.3456: "+12.35%", -3: "-3.00%", 0: "-", 0.001: "-"} {
		if got := p.SignedString(); got != want {
			t.Errorf("Percent(%v).SignedString() = %q, want %q", float64(p), got, want)
		}
	}
}
