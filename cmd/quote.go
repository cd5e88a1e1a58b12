package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/papertrade"
	"github.com/google/subcommands"
)

// quoteCmd prints the current price of a symbol.
type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the current price of a symbol" }
func (*quoteCmd) Usage() string {
	return `ptrade quote <symbol>

  Prints the price an order for <symbol> would execute at right now.

Usage Examples:
$ ptrade -prices prices.json quote AAPL

`
}
func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: quote requires a symbol")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) error {
		price, err := a.service.Quote(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %v\n", papertrade.NormalizeSymbol(f.Arg(0)), price)
		return nil
	})
}
