// Command wealthctl runs portfolio maintenance against the configured backends
// without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wealthscope/internal/app"
	"wealthscope/internal/config"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "wealthctl")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&recalculateCmd{}, "portfolio")
	commander.Register(&backfillCmd{}, "portfolio")
	commander.Register(&refreshPricesCmd{}, "portfolio")
	commander.Register(&summaryCmd{}, "inspect")
	commander.Register(&rateCmd{}, "inspect")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// open loads config and connects; every command shares it.
func open(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	log := logrus.New()
	log.SetLevel(cfg.LogLevel)
	log.SetOutput(os.Stderr)
	decimal.MarshalJSONWithoutQuotes = true

	return app.New(ctx, cfg, log)
}
