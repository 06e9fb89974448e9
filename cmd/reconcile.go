package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
)

// reconcileCmd holds the flags for the 'reconcile' subcommand.
type reconcileCmd struct {
	account string
	date    string
	balance string
	commit  bool
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "match an account against a bank statement" }
func (*reconcileCmd) Usage() string {
	return `fin reconcile -account <name> -balance <value> [-d <date>] [-commit]

  Matches the account's unreconciled transactions against a statement. Cleared
  transactions are pre-selected. With -commit, the selection is stamped as
  reconciled; the commit is refused unless the cleared balance equals the
  statement balance exactly.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account to reconcile")
	f.StringVar(&c.date, "d", "", "Statement date (defaults to today)")
	f.StringVar(&c.balance, "balance", "", "Statement ending balance")
	f.BoolVar(&c.commit, "commit", false, "Stamp the selection as reconciled")
}

func (c *reconcileCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	snapshot, err := loadSnapshot()
	if err != nil {
		return fail(err)
	}
	clock := finance.SystemClock()
	statementDate, err := parseDateFlag(c.date, clock)
	if err != nil {
		return fail(err)
	}
	account, err := lookupAccount(snapshot.Ledger, c.account)
	if err != nil {
		return fail(err)
	}
	statementBalance, err := parseAmount(c.balance, account)
	if err != nil {
		return fail(err)
	}

	r, err := finance.NewReconciliation(snapshot.Ledger, account.ID, statementDate, statementBalance)
	if err != nil {
		return fail(err)
	}
	r.SelectSuggested()

	fmt.Printf("Reconciling %q against statement of %s\n", account.Name, statementDate)
	for _, tx := range r.Candidates() {
		mark := " "
		if r.Selected(tx.ID) {
			mark = "x"
		}
		fmt.Printf("  [%s] %s  %-30s %10s\n", mark, tx.Date, tx.Description, tx.NetBalanceChange(account))
	}
	fmt.Printf("statement balance: %s\n", r.StatementBalance)
	fmt.Printf("cleared balance:   %s\n", r.ClearedBalance())
	fmt.Printf("difference:        %s\n", r.Difference())

	if c.commit {
		if err := r.Commit(clock); err != nil {
			return fail(err)
		}
		if err := saveSnapshot(snapshot); err != nil {
			return fail(err)
		}
		fmt.Printf("Reconciled %q through %s\n", account.Name, statementDate)
	}
	return subcommands.ExitSuccess
}
