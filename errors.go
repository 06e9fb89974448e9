package finance

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned by trend fitting when fewer than two
// distinct sample dates are available.
var ErrInsufficientData = errors.New("insufficient data: need at least two distinct sample dates")

// InvalidBalanceError reports a transaction whose debit and credit totals
// differ, or that has too few entries to balance at all.
type InvalidBalanceError struct {
	Currency string
	Debits   Money
	Credits  Money
	Reason   string // set when the entry set is structurally invalid
}

func (e InvalidBalanceError) Error() string {
	if e.Reason != "" {
		return "invalid transaction: " + e.Reason
	}
	return fmt.Sprintf("unbalanced transaction: %s debits %s != credits %s", e.Currency, e.Debits, e.Credits)
}

// DomainError reports invalid input to a financial computation, such as a
// non-positive principal or a degenerate amortization rate.
type DomainError struct {
	Op     string // the computation that rejected the input
	Reason string
}

func (e DomainError) Error() string { return e.Op + ": " + e.Reason }

// InsufficientFundsError reports an envelope transfer exceeding the source
// envelope's available amount.
type InsufficientFundsError struct {
	Available Money
	Requested Money
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s but only %s available", e.Requested, e.Available)
}

// ReconciliationMismatchError reports a commit attempted while the statement
// difference is not zero, or with an empty selection.
type ReconciliationMismatchError struct {
	Difference Money
	Selected   int
}

func (e ReconciliationMismatchError) Error() string {
	if e.Selected == 0 {
		return "reconciliation: no transactions selected"
	}
	return fmt.Sprintf("reconciliation: statement differs from cleared balance by %s", e.Difference)
}

// RecurrenceExhaustedError reports that occurrence generation hit the
// iteration safety cap. It signals a probable configuration bug (a rule
// whose anchor can never be reached), not an infinite schedule.
type RecurrenceExhaustedError struct {
	Limit int
}

func (e RecurrenceExhaustedError) Error() string {
	return fmt.Sprintf("recurrence: occurrence generation exceeded %d iterations", e.Limit)
}
