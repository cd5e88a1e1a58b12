package papertrade

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a ratio expressed in percent, for display only.
type Percent float64

// percentOf returns 100*part/whole, or 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) Percent {
	if whole.IsZero() {
		return 0
	}
	f, _ := part.Mul(decimal.NewFromInt(100)).Div(whole).Float64()
	return Percent(f)
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}
