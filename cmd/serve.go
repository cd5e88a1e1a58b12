package cmd

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/papertrade/api"
	"github.com/google/subcommands"
)

type serveCmd struct {
	listen string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the JSON API" }
func (*serveCmd) Usage() string {
	return `ptrade serve [-listen <addr>]

  Serves the JSON API under /api/v1 until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.listen, "listen", "", "Address to listen on (env PTRADE_LISTEN)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return withApp(ctx, func(a *app) error {
		addr := a.cfg.Listen
		if c.listen != "" {
			addr = c.listen
		}
		err := api.NewServer(a.service, a.log, a.cfg.AllowedOrigins).Start(ctx, addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
}
