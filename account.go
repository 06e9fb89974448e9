package finance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AccountClass is the accounting class of an account. The class fixes the
// account's normal balance side: asset and expense accounts are debit-normal,
// liability, income and equity accounts are credit-normal.
type AccountClass int

const (
	Asset AccountClass = iota
	Liability
	Income
	Expense
	Equity
)

func (c AccountClass) String() string {
	switch c {
	case Asset:
		return "asset"
	case Liability:
		return "liability"
	case Income:
		return "income"
	case Expense:
		return "expense"
	case Equity:
		return "equity"
	default:
		return "unknown"
	}
}

// ParseAccountClass parses a string into an AccountClass.
func ParseAccountClass(s string) (AccountClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asset":
		return Asset, nil
	case "liability":
		return Liability, nil
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	case "equity":
		return Equity, nil
	default:
		return 0, fmt.Errorf("unknown account class: %q", s)
	}
}

// NormalSide returns the entry type that increases an account of this class.
func (c AccountClass) NormalSide() EntryType {
	switch c {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// AccountType describes the practical kind of account, orthogonal to its class.
type AccountType int

const (
	Bank AccountType = iota
	Cash
	CreditCard
	LoanAccount
	Investment
	Savings
	Other
)

func (t AccountType) String() string {
	switch t {
	case Bank:
		return "bank"
	case Cash:
		return "cash"
	case CreditCard:
		return "credit-card"
	case LoanAccount:
		return "loan"
	case Investment:
		return "investment"
	case Savings:
		return "savings"
	default:
		return "other"
	}
}

// ParseAccountType parses a string into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bank":
		return Bank, nil
	case "cash":
		return Cash, nil
	case "credit-card", "credit":
		return CreditCard, nil
	case "loan":
		return LoanAccount, nil
	case "investment":
		return Investment, nil
	case "savings":
		return Savings, nil
	case "other":
		return Other, nil
	default:
		return 0, fmt.Errorf("unknown account type: %q", s)
	}
}

// Account identifies one bookkeeping account. Its balance is never stored: it
// is derived on demand from the entries that reference the account, always in
// the account's own currency.
type Account struct {
	ID       uuid.UUID
	Name     string
	Currency string // ISO 4217
	Class    AccountClass
	Type     AccountType
	Active   bool
	System   bool // created by the application, hidden from pickers

	// Reconciliation anchor, updated only by Reconciliation.Commit.
	LastReconciledBalance Money
	LastReconciledDate    Date
}

// NewAccount creates an active account with a fresh id.
func NewAccount(name, currency string, class AccountClass, typ AccountType) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("account name is missing")
	}
	if err := ValidateCurrency(currency); err != nil {
		return nil, err
	}
	return &Account{
		ID:                    uuid.New(),
		Name:                  name,
		Currency:              currency,
		Class:                 class,
		Type:                  typ,
		Active:                true,
		LastReconciledBalance: M(0, currency),
	}, nil
}
