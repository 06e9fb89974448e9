package finance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the side of an entry in the double-entry model.
type EntryType int

const (
	Debit EntryType = iota
	Credit
)

func (t EntryType) String() string {
	if t == Debit {
		return "debit"
	}
	return "credit"
}

// ParseEntryType parses "debit" or "credit".
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit":
		return Debit, nil
	case "credit":
		return Credit, nil
	default:
		return 0, fmt.Errorf("unknown entry type: %q", s)
	}
}

// ReconciliationStatus tracks how far a transaction has gone through
// statement reconciliation.
type ReconciliationStatus int

const (
	NotReconciled ReconciliationStatus = iota
	Cleared
	Reconciled
)

func (s ReconciliationStatus) String() string {
	switch s {
	case Cleared:
		return "cleared"
	case Reconciled:
		return "reconciled"
	default:
		return "not-reconciled"
	}
}

// ParseReconciliationStatus parses a reconciliation status name.
func ParseReconciliationStatus(s string) (ReconciliationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not-reconciled", "":
		return NotReconciled, nil
	case "cleared":
		return Cleared, nil
	case "reconciled":
		return Reconciled, nil
	default:
		return 0, fmt.Errorf("unknown reconciliation status: %q", s)
	}
}

// Entry is one leg of a transaction: a positive amount posted to one account
// on the debit or credit side. An entry belongs to exactly one transaction
// and references its account by id only.
type Entry struct {
	ID          uuid.UUID
	Transaction uuid.UUID // owning transaction, set by NewTransaction
	Account     uuid.UUID
	Type        EntryType
	Amount      Money // always positive, in the account's currency
}

// NewEntry builds an entry for the given account. The amount must be positive.
func NewEntry(account *Account, typ EntryType, amount Money) Entry {
	return Entry{
		ID:      uuid.New(),
		Account: account.ID,
		Type:    typ,
		Amount:  amount,
	}
}

// Transaction is a dated set of entries whose debits and credits balance.
// Transactions are immutable once reconciled; that invariant is a caller
// contract, not enforced by this type.
type Transaction struct {
	ID           uuid.UUID
	Date         Date
	Description  string
	Reference    string // free-text reference (check number, invoice, ...)
	Recurring    bool   // true for recurring templates, never for posted occurrences
	Status       ReconciliationStatus
	ReconciledOn Date

	entries []Entry
}

// NewTransaction creates a balanced transaction from the given entries.
// It rejects, with an InvalidBalanceError, a set of fewer than two entries,
// a non-positive entry amount, or per-currency debit and credit totals that
// differ. Nothing is created on failure.
func NewTransaction(day Date, description string, entries ...Entry) (*Transaction, error) {
	if err := checkBalanced(entries); err != nil {
		return nil, err
	}
	t := &Transaction{
		ID:          uuid.New(),
		Date:        day,
		Description: description,
		entries:     make([]Entry, len(entries)),
	}
	copy(t.entries, entries)
	for i := range t.entries {
		t.entries[i].Transaction = t.ID
	}
	return t, nil
}

// checkBalanced verifies the double-entry invariant: per currency, the sum of
// debit amounts equals the sum of credit amounts. Amounts in different
// currencies are never summed together.
func checkBalanced(entries []Entry) error {
	if len(entries) < 2 {
		return InvalidBalanceError{Reason: "at least two entries are required"}
	}
	type totals struct{ debits, credits decimal.Decimal }
	perCurrency := make(map[string]totals)
	for _, e := range entries {
		if !e.Amount.IsPositive() {
			return InvalidBalanceError{Reason: fmt.Sprintf("entry amount must be positive, got %s", e.Amount)}
		}
		t := perCurrency[e.Amount.Currency()]
		if e.Type == Debit {
			t.debits = t.debits.Add(e.Amount.Amount())
		} else {
			t.credits = t.credits.Add(e.Amount.Amount())
		}
		perCurrency[e.Amount.Currency()] = t
	}
	for currency, t := range perCurrency {
		if !t.debits.Equal(t.credits) {
			return InvalidBalanceError{
				Currency: currency,
				Debits:   M(t.debits, currency),
				Credits:  M(t.credits, currency),
			}
		}
	}
	return nil
}

// Entries returns a copy of the transaction's entries.
func (t *Transaction) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// ReplaceEntries swaps the transaction's entry set for a new, balanced one.
// Callers must not replace entries of a reconciled transaction.
func (t *Transaction) ReplaceEntries(entries ...Entry) error {
	if err := checkBalanced(entries); err != nil {
		return err
	}
	t.entries = make([]Entry, len(entries))
	copy(t.entries, entries)
	for i := range t.entries {
		t.entries[i].Transaction = t.ID
	}
	return nil
}

// balanced reports whether the stored entry set still satisfies the
// double-entry invariant.
func (t *Transaction) balanced() bool { return checkBalanced(t.entries) == nil }

// NetBalanceChange returns the transaction's signed contribution to the given
// account's balance. An entry increases the balance when its side matches the
// account class's normal side, and decreases it otherwise. This sign flip is
// deliberately centralized here: every balance, reconciliation and budget
// computation goes through it.
func (t *Transaction) NetBalanceChange(account *Account) Money {
	net := M(0, account.Currency)
	for _, e := range t.entries {
		if e.Account != account.ID {
			continue
		}
		if e.Type == account.Class.NormalSide() {
			net = net.Add(e.Amount)
		} else {
			net = net.Sub(e.Amount)
		}
	}
	return net
}

// Touches reports whether any entry of the transaction posts to the account.
func (t *Transaction) Touches(accountID uuid.UUID) bool {
	for _, e := range t.entries {
		if e.Account == accountID {
			return true
		}
	}
	return false
}

// NewExpense records spending: it debits the expense category and credits the
// paying account (bank, cash or credit card).
func NewExpense(day Date, description string, category, payment *Account, amount Money) (*Transaction, error) {
	return NewTransaction(day, description,
		NewEntry(category, Debit, amount),
		NewEntry(payment, Credit, amount),
	)
}

// NewIncome records earnings: it debits the receiving asset account and
// credits the income source.
func NewIncome(day Date, description string, source, deposit *Account, amount Money) (*Transaction, error) {
	return NewTransaction(day, description,
		NewEntry(deposit, Debit, amount),
		NewEntry(source, Credit, amount),
	)
}

// NewTransfer moves funds between two accounts: it debits the destination and
// credits the source. Both accounts must share the amount's currency;
// cross-currency transfers require explicit conversion by the caller.
func NewTransfer(day Date, description string, from, to *Account, amount Money) (*Transaction, error) {
	if from.Currency != to.Currency {
		return nil, DomainError{Op: "transfer", Reason: fmt.Sprintf("accounts use different currencies (%s, %s)", from.Currency, to.Currency)}
	}
	return NewTransaction(day, description,
		NewEntry(to, Debit, amount),
		NewEntry(from, Credit, amount),
	)
}

// NewLoanPayment records one loan installment: the principal part reduces the
// loan liability, the interest part is an expense, and the full payment
// leaves the paying account.
func NewLoanPayment(day Date, description string, loan, payment, interestExpense *Account, principal, interest Money) (*Transaction, error) {
	entries := []Entry{
		NewEntry(loan, Debit, principal),
		NewEntry(payment, Credit, principal.Add(interest)),
	}
	if !interest.IsZero() {
		entries = append(entries, NewEntry(interestExpense, Debit, interest))
	}
	return NewTransaction(day, description, entries...)
}

// NewLoanPayoff settles a loan early: the remaining balance clears the
// liability, an optional penalty is expensed, and the total leaves the
// paying account.
func NewLoanPayoff(day Date, description string, loan, payment, penaltyExpense *Account, remaining, penalty Money) (*Transaction, error) {
	entries := []Entry{
		NewEntry(loan, Debit, remaining),
		NewEntry(payment, Credit, remaining.Add(penalty)),
	}
	if !penalty.IsZero() {
		entries = append(entries, NewEntry(penaltyExpense, Debit, penalty))
	}
	return NewTransaction(day, description, entries...)
}
