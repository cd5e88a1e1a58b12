package papertrade

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Trade is an accepted order, as recorded in a Journal.
type Trade struct {
	ID           uuid.UUID
	Time         time.Time
	User         string
	Order        Order
	Amount       Money // cash moved: Order.Amount()
	RealizedGain Money // zero for a buy.
	Cash         Money // cash balance after the trade.
}

// NewTrade records the execution of o, accepted against before and leading
// to after.
func NewTrade(at time.Time, user string, o Order, before, after Ledger) Trade {
	return Trade{
		ID:           uuid.New(),
		Time:         at.UTC(),
		User:         user,
		Order:        o,
		Amount:       M(o.Price.Decimal(), before.Currency()).Mul(o.Quantity),
		RealizedGain: RealizedGain(before, o),
		Cash:         after.Cash(),
	}
}

func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("time", t.Time.Format(time.RFC3339Nano))
	w.Append("user", t.User)
	w.Append("order", t.Order)
	w.Append("amount", t.Amount)
	if t.Order.Side == Sell {
		w.Append("realizedGain", t.RealizedGain)
	}
	w.Append("cash", t.Cash)
	return w.MarshalJSON()
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID           uuid.UUID `json:"id"`
		Time         time.Time `json:"time"`
		User         string    `json:"user"`
		Order        Order     `json:"order"`
		Amount       Money     `json:"amount"`
		RealizedGain *Money    `json:"realizedGain"`
		Cash         Money     `json:"cash"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = Trade{
		ID:           temp.ID,
		Time:         temp.Time,
		User:         temp.User,
		Order:        temp.Order,
		Amount:       temp.Amount,
		RealizedGain: M(0, temp.Amount.Currency()),
		Cash:         temp.Cash,
	}
	if temp.RealizedGain != nil {
		t.RealizedGain = *temp.RealizedGain
	}
	return nil
}
