package cmd

import (
	"context"
	"flag"

	"github.com/etnz/papertrade"
	"github.com/etnz/papertrade/renderer"
	"github.com/google/subcommands"
)

// holdingCmd displays the valuation of the ledger.
type holdingCmd struct{}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display positions valued at current prices" }
func (*holdingCmd) Usage() string {
	return `ptrade holding

  Displays cash, positions and their market value at current prices.
  Positions whose price cannot be resolved are shown as n/a and left out of
  the total.
`
}
func (*holdingCmd) SetFlags(*flag.FlagSet) {}

func (*holdingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		v, err := a.service.Portfolio(ctx, a.cfg.User)
		if err != nil {
			return err
		}
		printMarkdown(renderer.RenderHolding(a.cfg.User, v))
		return nil
	})
}

// ledgerCmd prints the stored ledger document.
type ledgerCmd struct{}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "print the ledger as JSON" }
func (*ledgerCmd) Usage() string {
	return `ptrade ledger

  Prints the stored ledger (cash, positions and revision) as JSON.
`
}
func (*ledgerCmd) SetFlags(*flag.FlagSet) {}

func (*ledgerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		l, err := a.service.Ledger(ctx, a.cfg.User)
		if err != nil {
			return err
		}
		return papertrade.EncodeLedger(stdout, l)
	})
}

// historyCmd lists the executed trades.
type historyCmd struct{}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list executed trades" }
func (*historyCmd) Usage() string {
	return `ptrade history

  Lists the executed trades, oldest first.
`
}
func (*historyCmd) SetFlags(*flag.FlagSet) {}

func (*historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(a *app) error {
		trades, err := a.service.History(ctx, a.cfg.User)
		if err != nil {
			return err
		}
		printMarkdown(renderer.RenderTrades(a.cfg.User, trades))
		return nil
	})
}
