package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
)

// forecastCmd holds the flags for the 'forecast' subcommand.
type forecastCmd struct {
	account  string
	currency string
	window   int
	days     int
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "project balances from history and recurring flows" }
func (*forecastCmd) Usage() string {
	return `fin forecast [-account <name> [-window <days>]] [-currency <code>] [-days <n>]

  With -account, fits a linear trend to the account's balance history over the
  trailing window and projects it forward. Without, projects net worth forward
  by applying every recurrence rule's scheduled cash flows.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account to extrapolate")
	f.StringVar(&c.currency, "currency", "EUR", "Currency of the net worth projection")
	f.IntVar(&c.window, "window", 90, "Trailing history window in days")
	f.IntVar(&c.days, "days", 90, "Projection horizon in days")
}

func (c *forecastCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	snapshot, err := loadSnapshot()
	if err != nil {
		return fail(err)
	}
	clock := finance.SystemClock()
	today := clock.Today()
	horizon := today.Add(c.days)

	if c.account == "" {
		points, err := finance.CashFlowProjection(ctx, snapshot.Ledger, snapshot.Rules, clock, c.currency, horizon)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Net worth projection to %s\n", horizon)
		for _, p := range points {
			fmt.Printf("  %s  %s\n", p.Date, p.Balance)
		}
		return subcommands.ExitSuccess
	}

	account, err := lookupAccount(snapshot.Ledger, c.account)
	if err != nil {
		return fail(err)
	}
	history, err := finance.BalanceHistory(snapshot.Ledger, account.ID, finance.NewRange(today.Add(-c.window), today))
	if err != nil {
		return fail(err)
	}
	trend, err := finance.FitTrend(history)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Trend for %q: %s per month\n", account.Name, trend.MonthlyChange())
	points, err := trend.Points(ctx, today, horizon)
	if err != nil {
		return fail(err)
	}
	for _, p := range points {
		fmt.Printf("  %s  %s\n", p.Date, p.Balance)
	}
	return subcommands.ExitSuccess
}
