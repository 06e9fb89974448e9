package finance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmortizationType is the rule governing how a loan payment splits between
// interest and principal. The set is closed: the engine matches exhaustively.
type AmortizationType int

const (
	// French amortization (annuity): level payments, the interest share
	// shrinking as the balance falls.
	French AmortizationType = iota
	// American amortization: level principal, so the nominal payment
	// decreases every period.
	American
	// Bullet amortization: interest-only payments, principal due in full
	// with the last payment.
	Bullet
)

func (t AmortizationType) String() string {
	switch t {
	case French:
		return "french"
	case American:
		return "american"
	case Bullet:
		return "bullet"
	default:
		return "unknown"
	}
}

// ParseAmortizationType parses an amortization type name.
func ParseAmortizationType(s string) (AmortizationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "french", "annuity":
		return French, nil
	case "american", "level-principal":
		return American, nil
	case "bullet", "interest-only":
		return Bullet, nil
	default:
		return 0, fmt.Errorf("unknown amortization type: %q", s)
	}
}

// RateType distinguishes fixed-rate loans from variable-rate ones.
type RateType int

const (
	FixedRate RateType = iota
	VariableRate
)

func (t RateType) String() string {
	if t == VariableRate {
		return "variable"
	}
	return "fixed"
}

// PaymentFrequency is how often loan installments fall due.
type PaymentFrequency int

const (
	MonthlyPayments PaymentFrequency = iota
	QuarterlyPayments
	SemiannualPayments
	AnnualPayments
)

// PeriodsPerYear returns the number of payment periods in a year.
func (f PaymentFrequency) PeriodsPerYear() int {
	switch f {
	case QuarterlyPayments:
		return 4
	case SemiannualPayments:
		return 2
	case AnnualPayments:
		return 1
	default:
		return 12
	}
}

func (f PaymentFrequency) String() string {
	switch f {
	case QuarterlyPayments:
		return "quarterly"
	case SemiannualPayments:
		return "semiannual"
	case AnnualPayments:
		return "annual"
	default:
		return "monthly"
	}
}

// ParsePaymentFrequency parses a payment frequency name.
func ParsePaymentFrequency(s string) (PaymentFrequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return MonthlyPayments, nil
	case "quarterly", "quarter":
		return QuarterlyPayments, nil
	case "semiannual":
		return SemiannualPayments, nil
	case "annual", "yearly", "year":
		return AnnualPayments, nil
	default:
		return 0, fmt.Errorf("unknown payment frequency: %q", s)
	}
}

// Loan describes an amortizing loan. All computations over a Loan are pure:
// they derive schedules and figures without mutating the loan, so they are
// safe to run concurrently.
type Loan struct {
	ID            uuid.UUID
	Name          string
	Principal     Money
	AnnualRate    decimal.Decimal // as a fraction: 0.035 for 3.5%
	RateType      RateType
	Amortization  AmortizationType
	TotalPayments int
	PaymentsMade  int
	Frequency     PaymentFrequency
	Recurrence    uuid.UUID // optional link to the recurring payment, zero if none
}

// Installment is one line of an amortization schedule. Amounts are rounded
// to the loan currency's minor unit; the last installment absorbs rounding
// so that principal components sum exactly to the starting balance.
type Installment struct {
	Number    int
	Payment   Money
	Interest  Money
	Principal Money
	Remaining Money
}

// validate rejects inputs that make the amortization math meaningless.
func (l *Loan) validate() error {
	if !l.Principal.IsPositive() {
		return DomainError{Op: "loan", Reason: fmt.Sprintf("principal must be positive, got %s", l.Principal)}
	}
	if l.TotalPayments <= 0 {
		return DomainError{Op: "loan", Reason: fmt.Sprintf("total payments must be positive, got %d", l.TotalPayments)}
	}
	if l.PaymentsMade < 0 || l.PaymentsMade > l.TotalPayments {
		return DomainError{Op: "loan", Reason: fmt.Sprintf("payments made %d outside [0, %d]", l.PaymentsMade, l.TotalPayments)}
	}
	one := decimal.NewFromInt(1)
	if one.Add(l.periodRate()).Sign() <= 0 {
		return DomainError{Op: "loan", Reason: fmt.Sprintf("per-period rate %s is degenerate", l.periodRate())}
	}
	return nil
}

// periodRate is the per-period interest rate: annual rate over periods per year.
func (l *Loan) periodRate() decimal.Decimal {
	return l.AnnualRate.Div(decimal.NewFromInt(int64(l.Frequency.PeriodsPerYear())))
}

// levelPayment is the standard annuity formula P = r*PV / (1 - (1+r)^-n),
// degenerating to PV/n when the rate is zero.
func levelPayment(balance Money, r decimal.Decimal, n int) (Money, error) {
	periods := decimal.NewFromInt(int64(n))
	if r.IsZero() {
		return balance.Div(periods), nil
	}
	one := decimal.NewFromInt(1)
	compound := one.Add(r).Pow(periods)
	if compound.IsZero() {
		return Money{}, DomainError{Op: "loan payment", Reason: "compound factor vanished"}
	}
	denom := one.Sub(one.Div(compound))
	if denom.IsZero() {
		return Money{}, DomainError{Op: "loan payment", Reason: "rate and term produce a zero annuity denominator"}
	}
	return balance.Mul(r).Div(denom), nil
}

// Payment returns the (first) periodic payment, rounded to the loan
// currency's minor unit. For French amortization every payment equals this
// figure; for American and bullet amortization the nominal payment varies,
// and the first period's payment is returned; use Schedule for the rest.
func (l *Loan) Payment() (Money, error) {
	if err := l.validate(); err != nil {
		return Money{}, err
	}
	schedule, err := l.scheduleFrom(l.Principal, l.TotalPayments)
	if err != nil {
		return Money{}, err
	}
	return schedule[0].Payment, nil
}

// Schedule simulates the full amortization schedule from the original
// principal.
func (l *Loan) Schedule() ([]Installment, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l.scheduleFrom(l.Principal, l.TotalPayments)
}

// scheduleFrom simulates n installments starting from the given balance.
func (l *Loan) scheduleFrom(balance Money, n int) ([]Installment, error) {
	if n <= 0 {
		return nil, nil
	}
	r := l.periodRate()
	schedule := make([]Installment, 0, n)

	var level Money
	if l.Amortization == French {
		payment, err := levelPayment(balance, r, n)
		if err != nil {
			return nil, err
		}
		level = payment.Round()
	}
	var constPrincipal Money
	if l.Amortization == American {
		constPrincipal = balance.Div(decimal.NewFromInt(int64(n))).Round()
	}

	for k := 1; k <= n; k++ {
		interest := balance.Mul(r).Round()

		var principal Money
		switch l.Amortization {
		case French:
			principal = level.Sub(interest)
		case American:
			principal = constPrincipal
		case Bullet:
			principal = M(0, balance.Currency())
		}
		// The last installment clears the remaining balance exactly,
		// absorbing accumulated rounding.
		if k == n {
			principal = balance
		}

		balance = balance.Sub(principal)
		schedule = append(schedule, Installment{
			Number:    k,
			Payment:   principal.Add(interest),
			Interest:  interest,
			Principal: principal,
			Remaining: balance,
		})
	}
	return schedule, nil
}

// TotalInterest sums the interest components over the full schedule. It is
// always derived by simulation: with balance-dependent interest a closed
// form would be amortization-type specific.
func (l *Loan) TotalInterest() (Money, error) {
	schedule, err := l.Schedule()
	if err != nil {
		return Money{}, err
	}
	return sumInterest(schedule, l.Principal.Currency()), nil
}

func sumInterest(schedule []Installment, currency string) Money {
	total := M(0, currency)
	for _, in := range schedule {
		total = total.Add(in.Interest)
	}
	return total
}

// RemainingPayments is the number of installments still due.
func (l *Loan) RemainingPayments() int {
	if n := l.TotalPayments - l.PaymentsMade; n > 0 {
		return n
	}
	return 0
}

// Progress is the share of installments already paid, clamped to [0,100].
func (l *Loan) Progress() Percent {
	if l.TotalPayments <= 0 {
		return 0
	}
	p := Percent(float64(l.PaymentsMade) / float64(l.TotalPayments) * 100)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// RemainingBalance is the balance still owed after the payments made so far.
func (l *Loan) RemainingBalance() (Money, error) {
	if err := l.validate(); err != nil {
		return Money{}, err
	}
	if l.PaymentsMade == 0 {
		return l.Principal, nil
	}
	schedule, err := l.scheduleFrom(l.Principal, l.TotalPayments)
	if err != nil {
		return Money{}, err
	}
	return schedule[l.PaymentsMade-1].Remaining, nil
}

// RateScenario is the outcome of re-pricing the loan at a shifted rate.
type RateScenario struct {
	Delta         decimal.Decimal // shift applied to the annual rate
	Rate          decimal.Decimal // resulting annual rate
	Payment       Money
	TotalInterest Money
}

// RateScenarios recomputes payment and total interest for each rate shift.
// Deltas are applied verbatim: the engine does not clamp negative resulting
// rates, filtering unrealistic scenarios is the caller's call.
func (l *Loan) RateScenarios(deltas []decimal.Decimal) ([]RateScenario, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	scenarios := make([]RateScenario, 0, len(deltas))
	for _, delta := range deltas {
		shifted := *l
		shifted.AnnualRate = l.AnnualRate.Add(delta)
		payment, err := shifted.Payment()
		if err != nil {
			return nil, err
		}
		totalInterest, err := shifted.TotalInterest()
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, RateScenario{
			Delta:         delta,
			Rate:          shifted.AnnualRate,
			Payment:       payment,
			TotalInterest: totalInterest,
		})
	}
	return scenarios, nil
}

// Payoff is the outcome of settling a loan before term.
type Payoff struct {
	Amount        Money // remaining balance plus penalty
	Penalty       Money
	SavedInterest Money // remaining-schedule interest minus the penalty
}

// EarlyPayoff computes the cost of settling the loan now with a penalty
// expressed as a percentage of the remaining balance, and the interest saved
// versus carrying the remaining schedule to term.
func (l *Loan) EarlyPayoff(penaltyPct decimal.Decimal) (Payoff, error) {
	remaining, err := l.RemainingBalance()
	if err != nil {
		return Payoff{}, err
	}
	penalty := remaining.Mul(penaltyPct.Div(decimal.NewFromInt(100))).Round()

	schedule, err := l.scheduleFrom(remaining, l.RemainingPayments())
	if err != nil {
		return Payoff{}, err
	}
	remainingInterest := sumInterest(schedule, remaining.Currency())

	return Payoff{
		Amount:        remaining.Add(penalty),
		Penalty:       penalty,
		SavedInterest: remainingInterest.Sub(penalty),
	}, nil
}
