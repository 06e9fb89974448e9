package finance

import (
	"testing"
	"time"
)

// newTestAccount creates an account or fails the test.
func newTestAccount(t *testing.T, name string, class AccountClass, typ AccountType) *Account {
	t.Helper()
	a, err := NewAccount(name, "EUR", class, typ)
	if err != nil {
		t.Fatalf("NewAccount(%q) failed: %v", name, err)
	}
	return a
}

// household is the standard account set used across tests.
type household struct {
	ledger    *Ledger
	checking  *Account
	savings   *Account
	card      *Account
	salary    *Account
	groceries *Account
	rent      *Account
}

// setupHousehold creates a ledger with the standard accounts registered.
func setupHousehold(t *testing.T) household {
	t.Helper()
	h := household{
		ledger:    NewLedger(),
		checking:  newTestAccount(t, "Checking", Asset, Bank),
		savings:   newTestAccount(t, "Savings", Asset, Savings),
		card:      newTestAccount(t, "Credit Card", Liability, CreditCard),
		salary:    newTestAccount(t, "Salary", Income, Other),
		groceries: newTestAccount(t, "Groceries", Expense, Other),
		rent:      newTestAccount(t, "Rent", Expense, Other),
	}
	for _, a := range []*Account{h.checking, h.savings, h.card, h.salary, h.groceries, h.rent} {
		if err := h.ledger.AddAccount(a); err != nil {
			t.Fatalf("AddAccount(%q) failed: %v", a.Name, err)
		}
	}
	return h
}

// mustTx builds a transaction or fails the test.
func mustTx(t *testing.T, day Date, description string, entries ...Entry) *Transaction {
	t.Helper()
	tx, err := NewTransaction(day, description, entries...)
	if err != nil {
		t.Fatalf("NewTransaction(%q) failed: %v", description, err)
	}
	return tx
}

// mustAppend appends transactions or fails the test.
func mustAppend(t *testing.T, l *Ledger, txs ...*Transaction) {
	t.Helper()
	if err := l.Append(txs...); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
}

// day is a shorthand for dates in tests.
func day(y int, m time.Month, d int) Date { return NewDate(y, m, d) }
