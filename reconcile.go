package finance

import (
	"fmt"

	"github.com/google/uuid"
)

// Reconciliation matches an account's transactions against a bank statement.
//
// Candidates are the account's transactions not yet reconciled and dated on
// or before the statement date. The caller selects the subset that appears
// on the statement; Commit is permitted only when the selection's cleared
// balance equals the statement balance exactly.
type Reconciliation struct {
	ledger  *Ledger
	account *Account

	StatementDate    Date
	StatementBalance Money

	candidates []*Transaction
	selected   map[uuid.UUID]bool
}

// NewReconciliation starts a reconciliation of the account against a
// statement. The statement balance must be in the account's currency.
func NewReconciliation(l *Ledger, accountID uuid.UUID, statementDate Date, statementBalance Money) (*Reconciliation, error) {
	account := l.Account(accountID)
	if account == nil {
		return nil, fmt.Errorf("unknown account %s", accountID)
	}
	if statementBalance.Currency() != account.Currency {
		return nil, fmt.Errorf("statement currency %s does not match account currency %s", statementBalance.Currency(), account.Currency)
	}
	r := &Reconciliation{
		ledger:           l,
		account:          account,
		StatementDate:    statementDate,
		StatementBalance: statementBalance,
		selected:         make(map[uuid.UUID]bool),
	}
	for _, tx := range l.Transactions(ByAccount(accountID), ByRecurring(false)) {
		if tx.Status == Reconciled || tx.Date.After(statementDate) {
			continue
		}
		r.candidates = append(r.candidates, tx)
	}
	return r, nil
}

// Candidates returns the transactions eligible for this reconciliation, in
// chronological order.
func (r *Reconciliation) Candidates() []*Transaction { return r.candidates }

// Select marks a candidate transaction as appearing on the statement.
func (r *Reconciliation) Select(id uuid.UUID) error {
	for _, tx := range r.candidates {
		if tx.ID == id {
			r.selected[id] = true
			return nil
		}
	}
	return fmt.Errorf("transaction %s is not a reconciliation candidate", id)
}

// Deselect removes a transaction from the selection.
func (r *Reconciliation) Deselect(id uuid.UUID) { delete(r.selected, id) }

// Selected reports whether the transaction is currently selected.
func (r *Reconciliation) Selected(id uuid.UUID) bool { return r.selected[id] }

// SelectSuggested pre-selects candidates already in cleared status. This is
// a convenience default, not a correctness rule.
func (r *Reconciliation) SelectSuggested() {
	for _, tx := range r.candidates {
		if tx.Status == Cleared {
			r.selected[tx.ID] = true
		}
	}
}

// ClearedBalance is the account's last reconciled balance plus the signed
// contributions of the selected transactions.
func (r *Reconciliation) ClearedBalance() Money {
	balance := r.account.LastReconciledBalance
	for _, tx := range r.candidates {
		if r.selected[tx.ID] {
			balance = balance.Add(tx.NetBalanceChange(r.account))
		}
	}
	return balance
}

// Difference is the statement balance minus the cleared balance. A zero
// difference is the precondition for Commit.
func (r *Reconciliation) Difference() Money {
	return r.StatementBalance.Sub(r.ClearedBalance())
}

// Commit freezes the selected transactions as reconciled, stamps them with
// the reconciliation date from the clock, and advances the account's
// last-reconciled anchor. It fails with a ReconciliationMismatchError, and
// changes nothing, unless the difference is zero and at least one
// transaction is selected.
func (r *Reconciliation) Commit(clock Clock) error {
	difference := r.Difference()
	if len(r.selected) == 0 || !difference.IsZero() {
		return ReconciliationMismatchError{Difference: difference, Selected: len(r.selected)}
	}
	today := clock.Today()
	for _, tx := range r.candidates {
		if r.selected[tx.ID] {
			tx.Status = Reconciled
			tx.ReconciledOn = today
		}
	}
	r.account.LastReconciledBalance = r.StatementBalance
	r.account.LastReconciledDate = r.StatementDate
	return nil
}
