// Package cmd implements the CLI application to manage a personal ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addAccountCmd{}, "accounts")
	c.Register(&balanceCmd{}, "accounts")

	c.Register(&expenseCmd{}, "transactions")
	c.Register(&incomeCmd{}, "transactions")
	c.Register(&transferCmd{}, "transactions")

	c.Register(&scheduleCmd{}, "recurrence")
	c.Register(&reconcileCmd{}, "reconciliation")
	c.Register(&loanCmd{}, "loans")
	c.Register(&budgetCmd{}, "budgets")
	c.Register(&forecastCmd{}, "forecast")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var snapshotFile = flag.String("snapshot-file", "ledger.jsonl", "Path to the snapshot file (JSONL format)")

// loadSnapshot reads the app snapshot file, returning an empty snapshot when
// the file does not exist yet.
func loadSnapshot() (*finance.Snapshot, error) {
	f, err := os.Open(*snapshotFile)
	if errors.Is(err, fs.ErrNotExist) {
		return finance.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open snapshot file %q: %w", *snapshotFile, err)
	}
	defer f.Close()
	s, err := finance.DecodeSnapshot(f)
	if err != nil {
		return nil, err
	}
	s.Ledger.SetLogger(finance.NewLogger())
	return s, nil
}

// saveSnapshot writes the snapshot back to the app snapshot file.
func saveSnapshot(s *finance.Snapshot) error {
	f, err := os.Create(*snapshotFile)
	if err != nil {
		return fmt.Errorf("could not write snapshot file %q: %w", *snapshotFile, err)
	}
	defer f.Close()
	return finance.EncodeSnapshot(f, s)
}

// parseDateFlag parses a date flag, defaulting to today when empty.
func parseDateFlag(value string, clock finance.Clock) (finance.Date, error) {
	if value == "" {
		return clock.Today(), nil
	}
	return finance.ParseDate(value)
}

// fail prints the error and returns the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
