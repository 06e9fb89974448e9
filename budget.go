package finance

import (
	"fmt"

	"github.com/google/uuid"
)

// Budget allocates spending targets over one calendar period. It owns a set
// of envelopes, each tied to exactly one expense category account.
type Budget struct {
	ID         uuid.UUID
	Name       string
	Period     Range
	PeriodType Period
	Rollover   bool // carry each envelope's leftover into the next period

	envelopes []*Envelope
}

// NewBudget creates a budget covering the period of the given type that
// contains the start date.
func NewBudget(name string, periodType Period, start Date, rollover bool) *Budget {
	return &Budget{
		ID:         uuid.New(),
		Name:       name,
		Period:     periodType.Range(start),
		PeriodType: periodType,
		Rollover:   rollover,
	}
}

// Envelope is one allocation bucket of a budget, mapped to one expense
// category account. Spent and available amounts are derived from ledger
// entries, never stored.
type Envelope struct {
	ID       uuid.UUID
	Budget   uuid.UUID
	Category uuid.UUID // expense category account
	Budgeted Money
	Rollover Money // carried from the prior period, fixed at creation
}

// AddEnvelope allocates a budgeted amount to an expense category. A category
// may appear at most once per budget.
func (b *Budget) AddEnvelope(category *Account, budgeted Money) (*Envelope, error) {
	if category.Class != Expense {
		return nil, DomainError{Op: "budget", Reason: fmt.Sprintf("envelope category %q is not an expense account", category.Name)}
	}
	if budgeted.IsNegative() {
		return nil, DomainError{Op: "budget", Reason: fmt.Sprintf("budgeted amount must not be negative, got %s", budgeted)}
	}
	for _, e := range b.envelopes {
		if e.Category == category.ID {
			return nil, DomainError{Op: "budget", Reason: fmt.Sprintf("category %q already has an envelope", category.Name)}
		}
	}
	env := &Envelope{
		ID:       uuid.New(),
		Budget:   b.ID,
		Category: category.ID,
		Budgeted: budgeted,
		Rollover: M(0, budgeted.Currency()),
	}
	b.envelopes = append(b.envelopes, env)
	return env, nil
}

// Envelopes returns the budget's envelopes.
func (b *Budget) Envelopes() []*Envelope { return b.envelopes }

// Envelope returns the envelope for the category, or nil if none exists.
func (b *Budget) Envelope(category uuid.UUID) *Envelope {
	for _, e := range b.envelopes {
		if e.Category == category {
			return e
		}
	}
	return nil
}

// Spent sums the envelope category's debit-side contributions from
// non-recurring transactions dated within the budget period. Refunds
// (credits to the category) reduce the figure.
func (e *Envelope) Spent(l *Ledger, b *Budget) Money {
	category := l.Account(e.Category)
	if category == nil {
		return M(0, e.Budgeted.Currency())
	}
	spent := M(0, category.Currency)
	for _, tx := range l.Transactions(ByAccount(e.Category), ByRange(b.Period), ByRecurring(false)) {
		spent = spent.Add(tx.NetBalanceChange(category))
	}
	return spent
}

// Available is what remains to spend: budgeted + rollover - spent. It goes
// negative when the envelope is over budget.
func (e *Envelope) Available(l *Ledger, b *Budget) Money {
	return e.Budgeted.Add(e.Rollover).Sub(e.Spent(l, b))
}

// IsOverBudget reports whether spending exceeded the envelope's allocation.
func (e *Envelope) IsOverBudget(l *Ledger, b *Budget) bool {
	return e.Available(l, b).IsNegative()
}

// NextPeriod creates the budget for the following period, with the same
// envelopes and budgeted amounts. When rollover is enabled, each new
// envelope's rollover is the prior one's available amount at creation time;
// it is held fixed afterwards, even if prior-period transactions are edited
// retroactively.
func (b *Budget) NextPeriod(l *Ledger) *Budget {
	next := &Budget{
		ID:         uuid.New(),
		Name:       b.Name,
		Period:     b.PeriodType.Range(b.Period.To.Add(1)),
		PeriodType: b.PeriodType,
		Rollover:   b.Rollover,
	}
	for _, e := range b.envelopes {
		rollover := M(0, e.Budgeted.Currency())
		if b.Rollover {
			rollover = e.Available(l, b)
		}
		next.envelopes = append(next.envelopes, &Envelope{
			ID:       uuid.New(),
			Budget:   next.ID,
			Category: e.Category,
			Budgeted: e.Budgeted,
			Rollover: rollover,
		})
	}
	return next
}

// EnvelopeTransfer reallocates budgeted amount between two envelopes of the
// same budget. It is a pure budget adjustment: no ledger entry is touched.
type EnvelopeTransfer struct {
	Budget *Budget
	From   *Envelope
	To     *Envelope
	Amount Money
}

// Execute moves the budgeted amount, provided both envelopes belong to the
// transfer's budget and the source has at least the transfer amount
// available. On failure nothing changes.
func (t EnvelopeTransfer) Execute(l *Ledger) error {
	if t.From == nil || t.To == nil || t.Budget == nil {
		return DomainError{Op: "envelope transfer", Reason: "budget and both envelopes are required"}
	}
	if t.From.Budget != t.Budget.ID || t.To.Budget != t.Budget.ID {
		return DomainError{Op: "envelope transfer", Reason: "envelopes belong to different budgets"}
	}
	if t.From.ID == t.To.ID {
		return DomainError{Op: "envelope transfer", Reason: "source and destination are the same envelope"}
	}
	if !t.Amount.IsPositive() {
		return DomainError{Op: "envelope transfer", Reason: fmt.Sprintf("transfer amount must be positive, got %s", t.Amount)}
	}
	available := t.From.Available(l, t.Budget)
	if available.LessThan(t.Amount) {
		return InsufficientFundsError{Available: available, Requested: t.Amount}
	}
	t.From.Budgeted = t.From.Budgeted.Sub(t.Amount)
	t.To.Budgeted = t.To.Budgeted.Add(t.Amount)
	return nil
}
