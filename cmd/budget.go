package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
)

// budgetCmd holds the flags for the 'budget' subcommand.
type budgetCmd struct {
	name     string
	create   bool
	period   string
	start    string
	rollover bool
	envelope string
	amount   string
	moveTo   string
	next     bool
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "manage envelope budgets" }
func (*budgetCmd) Usage() string {
	return `fin budget -name <name> [-create [-period <period>] [-start <date>] [-rollover]]
           [-envelope <category> -amount <value> [-move-to <category>]] [-next]

  Without further flags, displays the named budget's envelopes with spent and
  available amounts. -create starts a new budget; -envelope with -amount
  allocates an envelope, or with -move-to reallocates between two envelopes;
  -next opens the following period, carrying leftovers when rollover is on.
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Budget name")
	f.BoolVar(&c.create, "create", false, "Create the budget")
	f.StringVar(&c.period, "period", "monthly", "Budget period type")
	f.StringVar(&c.start, "start", "", "Date inside the first period (defaults to today)")
	f.BoolVar(&c.rollover, "rollover", false, "Carry leftovers into the next period")
	f.StringVar(&c.envelope, "envelope", "", "Expense category for the envelope")
	f.StringVar(&c.amount, "amount", "", "Budgeted or transferred amount")
	f.StringVar(&c.moveTo, "move-to", "", "Destination category of a reallocation")
	f.BoolVar(&c.next, "next", false, "Open the following period")
}

func (c *budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	snapshot, err := loadSnapshot()
	if err != nil {
		return fail(err)
	}

	if c.create {
		periodType, err := finance.ParsePeriod(c.period)
		if err != nil {
			return fail(err)
		}
		start, err := parseDateFlag(c.start, finance.SystemClock())
		if err != nil {
			return fail(err)
		}
		budget := finance.NewBudget(c.name, periodType, start, c.rollover)
		snapshot.Budgets = append(snapshot.Budgets, budget)
		if err := saveSnapshot(snapshot); err != nil {
			return fail(err)
		}
		fmt.Printf("Created budget %q for %s\n", budget.Name, budget.Period)
		return subcommands.ExitSuccess
	}

	budget := findBudget(snapshot, c.name)
	if budget == nil {
		return fail(fmt.Errorf("unknown budget %q", c.name))
	}

	switch {
	case c.envelope != "" && c.moveTo != "":
		return c.reallocate(snapshot, budget)
	case c.envelope != "":
		return c.allocate(snapshot, budget)
	case c.next:
		snapshot.Budgets = append(snapshot.Budgets, budget.NextPeriod(snapshot.Ledger))
		if err := saveSnapshot(snapshot); err != nil {
			return fail(err)
		}
		fmt.Printf("Opened next period of %q\n", budget.Name)
		return subcommands.ExitSuccess
	}

	fmt.Printf("Budget %q, %s\n", budget.Name, budget.Period)
	for _, e := range budget.Envelopes() {
		category := snapshot.Ledger.Account(e.Category)
		if category == nil {
			continue
		}
		over := ""
		if e.IsOverBudget(snapshot.Ledger, budget) {
			over = "  OVER"
		}
		fmt.Printf("  %-25s budgeted %10s  spent %10s  available %10s%s\n",
			category.Name, e.Budgeted.Add(e.Rollover), e.Spent(snapshot.Ledger, budget),
			e.Available(snapshot.Ledger, budget), over)
	}
	return subcommands.ExitSuccess
}

func (c *budgetCmd) allocate(snapshot *finance.Snapshot, budget *finance.Budget) subcommands.ExitStatus {
	category, err := lookupAccount(snapshot.Ledger, c.envelope)
	if err != nil {
		return fail(err)
	}
	budgeted, err := parseAmount(c.amount, category)
	if err != nil {
		return fail(err)
	}
	env, err := budget.AddEnvelope(category, budgeted)
	if err != nil {
		return fail(err)
	}
	if err := saveSnapshot(snapshot); err != nil {
		return fail(err)
	}
	fmt.Printf("Allocated %s to %q\n", env.Budgeted, category.Name)
	return subcommands.ExitSuccess
}

func (c *budgetCmd) reallocate(snapshot *finance.Snapshot, budget *finance.Budget) subcommands.ExitStatus {
	from, err := lookupAccount(snapshot.Ledger, c.envelope)
	if err != nil {
		return fail(err)
	}
	to, err := lookupAccount(snapshot.Ledger, c.moveTo)
	if err != nil {
		return fail(err)
	}
	amount, err := parseAmount(c.amount, from)
	if err != nil {
		return fail(err)
	}
	transfer := finance.EnvelopeTransfer{
		Budget: budget,
		From:   budget.Envelope(from.ID),
		To:     budget.Envelope(to.ID),
		Amount: amount,
	}
	if err := transfer.Execute(snapshot.Ledger); err != nil {
		return fail(err)
	}
	if err := saveSnapshot(snapshot); err != nil {
		return fail(err)
	}
	fmt.Printf("Moved %s from %q to %q\n", amount, from.Name, to.Name)
	return subcommands.ExitSuccess
}

// findBudget returns the latest budget with the given name, or nil.
func findBudget(s *finance.Snapshot, name string) *finance.Budget {
	var found *finance.Budget
	for _, b := range s.Budgets {
		if b.Name != name {
			continue
		}
		if found == nil || b.Period.From.After(found.Period.From) {
			found = b
		}
	}
	return found
}
