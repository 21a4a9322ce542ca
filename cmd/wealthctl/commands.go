package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"wealthscope/internal/app"
)

// run opens the app, hands it to fn and maps the outcome to an exit status.
func run(ctx context.Context, fn func(context.Context, *app.App) error) subcommands.ExitStatus {
	a, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- recalculateCmd ---

type recalculateCmd struct {
	quiet bool
}

func (*recalculateCmd) Name() string     { return "recalculate" }
func (*recalculateCmd) Synopsis() string { return "replays the ledger and rewrites holdings and summary" }
func (*recalculateCmd) Usage() string {
	return `wealthctl recalculate [-q]

Replays every stored transaction, prices the open positions and overwrites the
stored holdings and portfolio summary. Prints the new summary unless -q is set.
`
}
func (c *recalculateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "q", false, "do not print the resulting summary")
}

func (c *recalculateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		res, err := a.Service.Recalculate(ctx)
		if err != nil {
			return err
		}
		if c.quiet {
			return nil
		}
		return printJSON(res.Summary)
	})
}

// --- backfillCmd ---

type backfillCmd struct{}

func (*backfillCmd) Name() string     { return "backfill" }
func (*backfillCmd) Synopsis() string { return "rebuilds derived documents from the full ledger history" }
func (*backfillCmd) Usage() string {
	return `wealthctl backfill

Rebuilds holdings and the summary from the complete transaction and dividend
history. Run it after importing historical records.
`
}
func (*backfillCmd) SetFlags(*flag.FlagSet) {}

func (*backfillCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		if err := a.Service.Backfill(ctx); err != nil {
			return err
		}
		fmt.Println("Historical data backfill completed successfully")
		return nil
	})
}

// --- refreshPricesCmd ---

type refreshPricesCmd struct{}

func (*refreshPricesCmd) Name() string     { return "refresh-prices" }
func (*refreshPricesCmd) Synopsis() string { return "reprices stored holdings without a full replay" }
func (*refreshPricesCmd) Usage() string {
	return `wealthctl refresh-prices

Fetches current quotes for every stored holding and updates price-dependent
fields. Holdings without a usable quote are left untouched.
`
}
func (*refreshPricesCmd) SetFlags(*flag.FlagSet) {}

func (*refreshPricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		n, err := a.Service.RefreshPrices(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("No holdings to update")
			return nil
		}
		fmt.Printf("Updated prices for %d symbols\n", n)
		return nil
	})
}

// --- summaryCmd ---

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "prints the portfolio summary" }
func (*summaryCmd) Usage() string {
	return `wealthctl summary

Prints the stored portfolio summary as JSON, calculating one first if none exists.
`
}
func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		s, err := a.Service.Summary(ctx)
		if err != nil {
			return err
		}
		return printJSON(s)
	})
}

// --- rateCmd ---

type rateCmd struct{}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "prints the USD to CAD exchange rate in use" }
func (*rateCmd) Usage() string {
	return `wealthctl rate

Prints the exchange rate the service would apply right now, falling back to the
built-in rate when the provider is unreachable.
`
}
func (*rateCmd) SetFlags(*flag.FlagSet) {}

func (*rateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		return printJSON(a.Service.ExchangeRate(ctx))
	})
}
