package finance

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ledger is the in-memory arena of accounts and transactions. Accounts and
// transactions are indexed by id; entries reference accounts by id only, so
// the Account/Entry/Transaction graph carries no back-pointers.
//
// In a Ledger transactions are always in chronological order.
//
// Computations over a Ledger are read-only and safe to run concurrently over
// an immutable snapshot. The mutating operations (Append, AddAccount,
// ExecuteOccurrence, Reconciliation.Commit, EnvelopeTransfer.Execute) must be
// serialized by the caller onto a single writer.
type Ledger struct {
	accounts     map[uuid.UUID]*Account
	transactions []*Transaction
	index        map[uuid.UUID]*Transaction // transactions by id

	log zerolog.Logger
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[uuid.UUID]*Account),
		index:    make(map[uuid.UUID]*Transaction),
		log:      zerolog.Nop(),
	}
}

// SetLogger installs the logger used to report internal invariant defects.
func (l *Ledger) SetLogger(log zerolog.Logger) { l.log = log }

// AddAccount registers an account in the ledger.
func (l *Ledger) AddAccount(a *Account) error {
	if _, ok := l.accounts[a.ID]; ok {
		return fmt.Errorf("account %q already exists", a.Name)
	}
	for _, existing := range l.accounts {
		if existing.Name == a.Name {
			return fmt.Errorf("account name %q already in use", a.Name)
		}
	}
	l.accounts[a.ID] = a
	return nil
}

// Account returns the account with this id, or nil if unknown.
func (l *Ledger) Account(id uuid.UUID) *Account { return l.accounts[id] }

// AccountByName returns the account with this name, or nil if unknown.
func (l *Ledger) AccountByName(name string) *Account {
	for _, a := range l.accounts {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AllAccounts iterates over accounts sorted by name.
func (l *Ledger) AllAccounts() iter.Seq[*Account] {
	return func(yield func(*Account) bool) {
		ids := slices.Collect(maps.Keys(l.accounts))
		slices.SortFunc(ids, func(a, b uuid.UUID) int {
			return strings.Compare(l.accounts[a].Name, l.accounts[b].Name)
		})
		for _, id := range ids {
			if !yield(l.accounts[id]) {
				return
			}
		}
	}
}

// Append appends transactions to this ledger and maintains the chronological
// order. Each transaction must reference accounts known to the ledger.
func (l *Ledger) Append(txs ...*Transaction) error {
	for _, tx := range txs {
		for _, e := range tx.entries {
			acc := l.accounts[e.Account]
			if acc == nil {
				return fmt.Errorf("transaction %q references unknown account %s", tx.Description, e.Account)
			}
			if e.Amount.Currency() != acc.Currency {
				return fmt.Errorf("entry currency %s does not match account %q currency %s", e.Amount.Currency(), acc.Name, acc.Currency)
			}
		}
	}
	for _, tx := range txs {
		l.transactions = append(l.transactions, tx)
		l.index[tx.ID] = tx
	}
	l.stableSort()
	return nil
}

// Transaction returns the transaction with this id, or nil if unknown.
func (l *Ledger) Transaction(id uuid.UUID) *Transaction { return l.index[id] }

// stableSort sorts the ledger by transaction date. The sort is stable, meaning
// transactions on the same day maintain their original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Date.Before(l.transactions[j].Date)
	})
}

// Transactions returns an iterator over transactions accepted by all filters,
// in chronological order.
func (l *Ledger) Transactions(filters ...func(*Transaction) bool) iter.Seq2[int, *Transaction] {
	return func(yield func(int, *Transaction) bool) {
		for i, tx := range l.transactions {
			accept := true
			for _, filter := range filters {
				if !filter(tx) {
					accept = false
					break
				}
			}
			if !accept {
				continue
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// ByAccount returns a predicate that keeps transactions posting to the account.
func ByAccount(id uuid.UUID) func(*Transaction) bool {
	return func(tx *Transaction) bool { return tx.Touches(id) }
}

// ByRange returns a predicate that keeps transactions dated within the range.
func ByRange(r Range) func(*Transaction) bool {
	return func(tx *Transaction) bool { return r.Contains(tx.Date) }
}

// ByRecurring returns a predicate on the recurring-template flag.
func ByRecurring(recurring bool) func(*Transaction) bool {
	return func(tx *Transaction) bool { return tx.Recurring == recurring }
}

// Balance derives the account balance from its entries, on the account's
// normal side, including transactions up to and including asOf. Recurring
// templates never post to balances.
//
// A stored transaction found unbalanced here is a defect: it is logged and
// skipped, never silently repaired.
func (l *Ledger) Balance(accountID uuid.UUID, asOf Date) (Money, error) {
	acc := l.accounts[accountID]
	if acc == nil {
		return Money{}, fmt.Errorf("unknown account %s", accountID)
	}
	balance := M(0, acc.Currency)
	for _, tx := range l.transactions {
		if tx.Date.After(asOf) {
			// The ledger is sorted by date, so it's safe to break.
			break
		}
		if tx.Recurring || !tx.Touches(accountID) {
			continue
		}
		if !tx.balanced() {
			l.log.Error().
				Str("transaction", tx.ID.String()).
				Str("date", tx.Date.String()).
				Msg("stored transaction is unbalanced; skipped from balance")
			continue
		}
		balance = balance.Add(tx.NetBalanceChange(acc))
	}
	return balance, nil
}

// NetWorth sums asset balances minus liability balances for active accounts
// held in the given currency. Accounts in other currencies are excluded:
// cross-currency aggregation requires explicit conversion.
func (l *Ledger) NetWorth(currency string, asOf Date) (Money, error) {
	total := M(0, currency)
	for acc := range l.AllAccounts() {
		if !acc.Active || acc.Currency != currency {
			continue
		}
		var sign int
		switch acc.Class {
		case Asset:
			sign = 1
		case Liability:
			sign = -1
		default:
			continue
		}
		balance, err := l.Balance(acc.ID, asOf)
		if err != nil {
			return Money{}, err
		}
		if sign > 0 {
			total = total.Add(balance)
		} else {
			total = total.Sub(balance)
		}
	}
	return total, nil
}

// OldestTransactionDate returns the date of the earliest transaction in the
// ledger, or the zero date if the ledger is empty.
func (l *Ledger) OldestTransactionDate() Date {
	if len(l.transactions) == 0 {
		return Date{}
	}
	return l.transactions[0].Date
}

// NewestTransactionDate returns the date of the latest transaction in the
// ledger, or the zero date if the ledger is empty.
func (l *Ledger) NewestTransactionDate() Date {
	if len(l.transactions) == 0 {
		return Date{}
	}
	return l.transactions[len(l.transactions)-1].Date
}

// AllCurrencies iterates over all currencies used by the ledger's accounts,
// sorted alphabetically.
func (l *Ledger) AllCurrencies() iter.Seq[string] {
	return func(yield func(string) bool) {
		visited := make(map[string]struct{})
		for _, a := range l.accounts {
			visited[a.Currency] = struct{}{}
		}
		currencies := slices.Collect(maps.Keys(visited))
		slices.Sort(currencies)
		for _, currency := range currencies {
			if !yield(currency) {
				return
			}
		}
	}
}
