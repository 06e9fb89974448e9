package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
)

// addAccountCmd holds the flags for the 'add-account' subcommand.
type addAccountCmd struct {
	name     string
	currency string
	class    string
	typ      string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "create a new account in the ledger" }
func (*addAccountCmd) Usage() string {
	return `fin add-account -name <name> [-currency <code>] [-class <class>] [-type <type>]

  Creates an account. Class is one of asset, liability, income, expense,
  equity; type is one of bank, cash, credit-card, loan, investment, savings,
  other.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account name")
	f.StringVar(&c.currency, "currency", "EUR", "ISO 4217 currency code")
	f.StringVar(&c.class, "class", "asset", "Account class")
	f.StringVar(&c.typ, "type", "bank", "Account type")
}

func (c *addAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	class, err := finance.ParseAccountClass(c.class)
	if err != nil {
		return fail(err)
	}
	typ, err := finance.ParseAccountType(c.typ)
	if err != nil {
		return fail(err)
	}
	account, err := finance.NewAccount(c.name, c.currency, class, typ)
	if err != nil {
		return fail(err)
	}

	snapshot, err := loadSnapshot()
	if err != nil {
		return fail(err)
	}
	if err := snapshot.Ledger.AddAccount(account); err != nil {
		return fail(err)
	}
	if err := saveSnapshot(snapshot); err != nil {
		return fail(err)
	}
	fmt.Printf("Created %s account %q (%s)\n", account.Class, account.Name, account.Currency)
	return subcommands.ExitSuccess
}

// balanceCmd holds the flags for the 'balance' subcommand.
type balanceCmd struct {
	date string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "display derived account balances" }
func (*balanceCmd) Usage() string {
	return `fin balance [-d <date>]

  Displays every account's balance derived from its entries, as of the given
  date (defaults to today).
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date for the balances (defaults to today)")
}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	on, err := parseDateFlag(c.date, finance.SystemClock())
	if err != nil {
		return fail(err)
	}
	snapshot, err := loadSnapshot()
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Balances as of %s\n", on)
	for account := range snapshot.Ledger.AllAccounts() {
		if !account.Active {
			continue
		}
		balance, err := snapshot.Ledger.Balance(account.ID, on)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("  %-30s %10s  (%s %s)\n", account.Name, balance, account.Class, account.Type)
	}
	return subcommands.ExitSuccess
}
