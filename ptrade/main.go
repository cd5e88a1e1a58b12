// Command ptrade is a paper trading portfolio: buy and sell at market prices
// against a simulated cash balance.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/papertrade/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	completion().Complete("ptrade")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the command line for shell completion. It is a no-op
// unless invoked by the shell, see `COMP_INSTALL=1 ptrade`.
func completion() *complete.Command {
	global := map[string]complete.Predictor{
		"env":       predict.Files("*"),
		"user":      predict.Something,
		"store":     predict.Set{"memory", "file", "pebble", "postgres"},
		"data":      predict.Dirs("*"),
		"prices":    predict.Files("*.json"),
		"log-level": predict.Set{"debug", "info", "warn", "error"},
		"raw":       predict.Nothing,
	}
	return &complete.Command{
		Flags: global,
		Sub: map[string]*complete.Command{
			"buy":     {Args: predict.Something},
			"sell":    {Args: predict.Something},
			"quote":   {Args: predict.Something},
			"holding": {},
			"ledger":  {},
			"history": {},
			"serve":   {Flags: map[string]complete.Predictor{"listen": predict.Something}},
			"help":    {},
		},
	}
}
