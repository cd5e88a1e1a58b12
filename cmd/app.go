// Package cmd implements the ptrade command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/papertrade"
	"github.com/etnz/papertrade/config"
	"github.com/etnz/papertrade/eodhd"
	"github.com/etnz/papertrade/feed"
	"github.com/etnz/papertrade/kvstore"
	"github.com/etnz/papertrade/logging"
	"github.com/etnz/papertrade/pgstore"
	"github.com/etnz/papertrade/store"
	"github.com/etnz/papertrade/trader"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&orderCmd{side: papertrade.Buy}, "orders")
	c.Register(&orderCmd{side: papertrade.Sell}, "orders")
	c.Register(&quoteCmd{}, "orders")

	c.Register(&holdingCmd{}, "reports")
	c.Register(&ledgerCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")

	c.Register(&serveCmd{}, "server")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
// Empty flags leave the configuration untouched.

var (
	envFile     = flag.String("env", "", "Path to a .env file. Defaults to ./.env when present.")
	userFlag    = flag.String("user", "", "User whose ledger is used (env PTRADE_USER)")
	storeFlag   = flag.String("store", "", "Storage backend: memory, file, pebble or postgres (env PTRADE_STORE)")
	dataDirFlag = flag.String("data", "", "Directory of the file and pebble stores (env PTRADE_DATA_DIR)")
	pricesFlag  = flag.String("prices", "", "JSON file of fixed prices, e.g. {\"AAPL\": 187.5} (env PTRADE_PRICES_FILE)")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn or error (env PTRADE_LOG_LEVEL)")
	rawOutput   = flag.Bool("raw", false, "Print markdown reports as is instead of rendering them")
)

// stdout is where reports are printed.
var stdout io.Writer = os.Stdout

// loadConfig returns the configuration with the global flags applied.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return cfg, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.User, *userFlag)
	override(&cfg.Store, *storeFlag)
	override(&cfg.DataDir, *dataDirFlag)
	override(&cfg.PricesFile, *pricesFlag)
	override(&cfg.LogLevel, *logLevel)
	return cfg, cfg.Validate()
}

// backend is what every store implementation provides.
type backend interface {
	papertrade.Store
	papertrade.Journal
}

// app holds the resources opened for one command run.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	service *trader.Service
	closers []func() error
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// open builds the trader service described by cfg.
func open(ctx context.Context, cfg config.Config) (*app, error) {
	log, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	// closed last, after the resources that may still log.
	a := &app{cfg: cfg, log: log, closers: []func() error{closeLog}}

	b, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	prices, err := a.openPrices(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = trader.New(b, prices,
		trader.WithJournal(b),
		trader.WithLogger(log),
		trader.WithRetries(cfg.Retries),
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (backend, error) {
	cfg := a.cfg
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemory(cfg.Currency), nil
	case config.StoreFile:
		return store.NewFile(cfg.DataDir, cfg.Currency)
	case config.StorePebble:
		s, err := kvstore.Open(filepath.Join(cfg.DataDir, "pebble"), cfg.Currency)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.StorePostgres:
		s, err := pgstore.Open(ctx, cfg.DSN, cfg.Currency)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { s.Close(); return nil })
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// openPrices returns the first configured price source: a prices file, a
// websocket feed, then eodhd. Without any, every price is unavailable.
func (a *app) openPrices(ctx context.Context) (papertrade.PriceSource, error) {
	cfg := a.cfg
	switch {
	case cfg.PricesFile != "":
		f, err := os.Open(cfg.PricesFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return papertrade.DecodePrices(f, cfg.Currency)

	case cfg.FeedURL != "":
		fd, err := feed.Dial(ctx, cfg.FeedURL, nil,
			feed.WithMaxAge(cfg.FeedMaxAge),
			feed.WithCurrency(cfg.Currency),
			feed.WithLogger(a.log),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fd.Close)
		return fd, nil

	case cfg.EODHDKey != "":
		c := eodhd.NewClient(cfg.EODHDKey)
		c.Exchange = cfg.EODHDExchange
		c.Currency = cfg.Currency
		c.Log = a.log
		return c, nil

	default:
		a.log.Warn("no price source configured, orders will be rejected")
		return papertrade.Prices{}, nil
	}
}

// printMarkdown renders md for the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if *rawOutput {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// fail reports err on stderr.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// withApp loads the configuration, opens the app, and runs f.
func withApp(ctx context.Context, f func(*app) error) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	a, err := open(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	if err := f(a); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
