package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/papertrade"
	"github.com/google/subcommands"
)

// orderCmd implements both 'buy' and 'sell'.
type orderCmd struct {
	side papertrade.Side
}

func (c *orderCmd) Name() string { return string(c.side) }
func (c *orderCmd) Synopsis() string {
	return fmt.Sprintf("%s shares at the current market price", c.side)
}
func (c *orderCmd) Usage() string {
	return fmt.Sprintf(`ptrade %[1]s <symbol> <quantity>

  Places a market order to %[1]s <quantity> shares of <symbol> at the current
  price. The order is rejected, and the ledger left untouched, when cash or
  shares are insufficient or the price cannot be resolved.

Usage Examples:
$ ptrade -prices prices.json %[1]s AAPL 10

`, c.side)
}

func (c *orderCmd) SetFlags(f *flag.FlagSet) {}

func (c *orderCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Error: %s requires a symbol and a quantity\n", c.side)
		return subcommands.ExitUsageError
	}
	quantity, err := papertrade.ParseQuantity(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid quantity %q: %v\n", f.Arg(1), err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		trade, err := a.service.Place(ctx, a.cfg.User, f.Arg(0), c.side, quantity)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, describe(trade))
		return nil
	})
}

// describe returns a one line summary of an executed trade.
func describe(t papertrade.Trade) string {
	verb := "Bought"
	if t.Order.Side == papertrade.Sell {
		verb = "Sold"
	}
	s := fmt.Sprintf("%s %v %s at %v for %v. Cash: %v.", verb, t.Order.Quantity, t.Order.Symbol, t.Order.Price, t.Amount, t.Cash)
	if t.Order.Side == papertrade.Sell {
		s += fmt.Sprintf(" Realized gain: %s.", t.RealizedGain.SignedString())
	}
	return s
}
