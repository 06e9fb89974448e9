package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
	"github.com/shopspring/decimal"
)

// recordTransaction loads the snapshot, appends the transaction built by the
// given function, and saves the snapshot back.
func recordTransaction(build func(*finance.Ledger) (*finance.Transaction, error)) subcommands.ExitStatus {
	snapshot, err := loadSnapshot()
	if err != nil {
		return fail(err)
	}
	tx, err := build(snapshot.Ledger)
	if err != nil {
		return fail(err)
	}
	if err := snapshot.Ledger.Append(tx); err != nil {
		return fail(err)
	}
	if err := saveSnapshot(snapshot); err != nil {
		return fail(err)
	}
	fmt.Printf("Recorded %q on %s\n", tx.Description, tx.Date)
	return subcommands.ExitSuccess
}

// lookupAccount resolves an account by name.
func lookupAccount(l *finance.Ledger, name string) (*finance.Account, error) {
	account := l.AccountByName(name)
	if account == nil {
		return nil, fmt.Errorf("unknown account %q", name)
	}
	return account, nil
}

// parseAmount parses a decimal amount in the given account's currency.
func parseAmount(value string, account *finance.Account) (finance.Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return finance.Money{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return finance.M(d, account.Currency), nil
}

// expenseCmd holds the flags for the 'expense' subcommand.
type expenseCmd struct {
	date        string
	description string
	category    string
	from        string
	amount      string
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record an expense" }
func (*expenseCmd) Usage() string {
	return `fin expense -category <account> -from <account> -amount <value> [-d <date>] [-m <description>]

  Records spending: debits the expense category, credits the paying account.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date (defaults to today)")
	f.StringVar(&c.description, "m", "", "Description")
	f.StringVar(&c.category, "category", "", "Expense category account")
	f.StringVar(&c.from, "from", "", "Paying account")
	f.StringVar(&c.amount, "amount", "", "Amount in the paying account's currency")
}

func (c *expenseCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return recordTransaction(func(l *finance.Ledger) (*finance.Transaction, error) {
		day, err := parseDateFlag(c.date, finance.SystemClock())
		if err != nil {
			return nil, err
		}
		category, err := lookupAccount(l, c.category)
		if err != nil {
			return nil, err
		}
		payment, err := lookupAccount(l, c.from)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(c.amount, payment)
		if err != nil {
			return nil, err
		}
		return finance.NewExpense(day, c.description, category, payment, amount)
	})
}

// incomeCmd holds the flags for the 'income' subcommand.
type incomeCmd struct {
	date        string
	description string
	source      string
	to          string
	amount      string
}

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "record an income" }
func (*incomeCmd) Usage() string {
	return `fin income -source <account> -to <account> -amount <value> [-d <date>] [-m <description>]

  Records earnings: debits the receiving account, credits the income source.
`
}

func (c *incomeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date (defaults to today)")
	f.StringVar(&c.description, "m", "", "Description")
	f.StringVar(&c.source, "source", "", "Income source account")
	f.StringVar(&c.to, "to", "", "Receiving account")
	f.StringVar(&c.amount, "amount", "", "Amount in the receiving account's currency")
}

func (c *incomeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return recordTransaction(func(l *finance.Ledger) (*finance.Transaction, error) {
		day, err := parseDateFlag(c.date, finance.SystemClock())
		if err != nil {
			return nil, err
		}
		source, err := lookupAccount(l, c.source)
		if err != nil {
			return nil, err
		}
		deposit, err := lookupAccount(l, c.to)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(c.amount, deposit)
		if err != nil {
			return nil, err
		}
		return finance.NewIncome(day, c.description, source, deposit, amount)
	})
}

// transferCmd holds the flags for the 'transfer' subcommand.
type transferCmd struct {
	date        string
	description string
	from        string
	to          string
	amount      string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move funds between two accounts" }
func (*transferCmd) Usage() string {
	return `fin transfer -from <account> -to <account> -amount <value> [-d <date>] [-m <description>]

  Moves funds between two accounts sharing the same currency.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date (defaults to today)")
	f.StringVar(&c.description, "m", "", "Description")
	f.StringVar(&c.from, "from", "", "Source account")
	f.StringVar(&c.to, "to", "", "Destination account")
	f.StringVar(&c.amount, "amount", "", "Amount in the accounts' currency")
}

func (c *transferCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return recordTransaction(func(l *finance.Ledger) (*finance.Transaction, error) {
		day, err := parseDateFlag(c.date, finance.SystemClock())
		if err != nil {
			return nil, err
		}
		from, err := lookupAccount(l, c.from)
		if err != nil {
			return nil, err
		}
		to, err := lookupAccount(l, c.to)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(c.amount, from)
		if err != nil {
			return nil, err
		}
		return finance.NewTransfer(day, c.description, from, to, amount)
	})
}
