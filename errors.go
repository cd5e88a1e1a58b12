package papertrade

import (
	"errors"
	"fmt"
)

// Reasons an order is rejected. A *Rejection unwraps to exactly one of them.
var (
	ErrInvalidSide        = errors.New("invalid side")
	ErrInvalidSymbol      = errors.New("invalid symbol")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// ErrPriceUnavailable is returned by a PriceSource that cannot resolve a price.
var ErrPriceUnavailable = errors.New("price unavailable")

// ErrConflict is returned by Store.Save when the stored ledger has moved on
// since the saved ledger was loaded.
var ErrConflict = errors.New("ledger was modified concurrently")

// Rejection is the typed refusal to apply an order. The ledger the order was
// executed against is left untouched.
type Rejection struct {
	Order  Order
	Reason error  // one of the Err* reasons above.
	Detail string // human readable context, may be empty.
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("%s order rejected: %v", r.Order.Side, r.Reason)
	}
	return fmt.Sprintf("%s order rejected: %v: %s", r.Order.Side, r.Reason, r.Detail)
}

func (r *Rejection) Unwrap() error { return r.Reason }

func reject(o Order, reason error, format string, args ...any) *Rejection {
	return &Rejection{Order: o, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is, or wraps, an order rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// ReasonCode returns a stable, machine friendly name for a rejection reason,
// or "" if err is not a rejection.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSide):
		return "invalid-side"
	case errors.Is(err, ErrInvalidSymbol):
		return "invalid-symbol"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid-quantity"
	case errors.Is(err, ErrInvalidPrice):
		return "invalid-price"
	case errors.Is(err, ErrInsufficientCash):
		return "insufficient-cash"
	case errors.Is(err, ErrInsufficientShares):
		return "insufficient-shares"
	default:
		return ""
	}
}

// StorageError reports a failed Store or Journal operation.
type StorageError struct {
	Op   string // "load", "save", "append" or "trades".
	User string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cannot %s ledger of %q: %v", e.Op, e.User, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
