package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
)

// scheduleCmd holds the flags for the 'schedule' subcommand.
type scheduleCmd struct {
	days    int
	execute bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "list or execute upcoming recurring occurrences" }
func (*scheduleCmd) Usage() string {
	return `fin schedule [-days <n>] [-execute]

  Lists the occurrences of every recurrence rule due within the next n days.
  With -execute, posts each due occurrence as a concrete transaction and
  advances the rule's next due date.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 30, "Horizon in days")
	f.BoolVar(&c.execute, "execute", false, "Post due occurrences to the ledger")
}

func (c *scheduleCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	snapshot, err := loadSnapshot()
	if err != nil {
		return fail(err)
	}
	clock := finance.SystemClock()
	today := clock.Today()
	window := finance.NewRange(today, today.Add(c.days))

	for _, rule := range snapshot.Rules {
		template := snapshot.Ledger.Transaction(rule.Transaction)
		if template == nil {
			continue
		}
		occurrences, err := rule.Occurrences(ctx, window)
		if err != nil {
			return fail(err)
		}
		for _, on := range occurrences {
			fmt.Printf("  %s  %s (every %d %s)\n", on, template.Description, rule.Interval, rule.Frequency)
		}
		if c.execute && !rule.NextDue.IsZero() && !rule.NextDue.After(today) {
			tx, err := snapshot.Ledger.ExecuteOccurrence(rule, clock)
			if err != nil {
				return fail(err)
			}
			fmt.Printf("  posted %q on %s\n", tx.Description, tx.Date)
		}
	}

	if c.execute {
		if err := saveSnapshot(snapshot); err != nil {
			return fail(err)
		}
	}
	return subcommands.ExitSuccess
}
