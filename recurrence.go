package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// occurrenceCap bounds bulk occurrence enumeration, on the order of one year
// of daily occurrences. Exceeding it is a configuration fault, not a long
// schedule.
const occurrenceCap = 366

// nextSearchCap bounds the internal search for a single next occurrence.
// The search starts from an arithmetic estimate, so in practice only a
// handful of iterations run.
const nextSearchCap = 500

// WeekendAdjustment is the policy applied when a computed occurrence falls
// on a Saturday or Sunday.
type WeekendAdjustment int

const (
	NoAdjustment WeekendAdjustment = iota
	MoveBefore                     // shift to the preceding Friday
	MoveAfter                      // shift to the following Monday
)

func (w WeekendAdjustment) String() string {
	switch w {
	case MoveBefore:
		return "before"
	case MoveAfter:
		return "after"
	default:
		return "none"
	}
}

// ParseWeekendAdjustment parses a weekend adjustment policy name.
func ParseWeekendAdjustment(s string) (WeekendAdjustment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return NoAdjustment, nil
	case "before":
		return MoveBefore, nil
	case "after":
		return MoveAfter, nil
	default:
		return 0, fmt.Errorf("unknown weekend adjustment: %q", s)
	}
}

// apply shifts a weekend date to the nearest business day per the policy.
func (w WeekendAdjustment) apply(d Date) Date {
	switch w {
	case MoveBefore:
		for d.IsWeekend() {
			d = d.Add(-1)
		}
	case MoveAfter:
		for d.IsWeekend() {
			d = d.Add(1)
		}
	}
	return d
}

// RecurrenceRule turns one recurring transaction template into concrete
// occurrence dates. Exactly one rule exists per recurring transaction.
//
// The anchor is the day-of-month for monthly, quarterly and yearly rules and
// the weekday for weekly rules. A monthly anchor past the end of a short
// month clamps to that month's last day; the anchor itself is preserved, so
// an anchor of 31 returns to the 31st in longer months.
type RecurrenceRule struct {
	ID          uuid.UUID
	Transaction uuid.UUID // recurring template this rule schedules
	Frequency   Period
	Interval    int // every Interval days/weeks/months/years, >= 1
	AnchorDay   int // day of month, for month-based frequencies
	AnchorWeek  time.Weekday
	Weekend     WeekendAdjustment
	Start       Date
	End         Date // inclusive; zero means no end
	NextDue     Date // cached next occurrence; zero once the rule has ended
}

// NewRecurrenceRule creates a rule for the given recurring template. The
// anchor is taken from the start date (its day of month, or its weekday for
// weekly rules).
func NewRecurrenceRule(template *Transaction, freq Period, interval int, weekend WeekendAdjustment, start, end Date) (*RecurrenceRule, error) {
	if template == nil || !template.Recurring {
		return nil, DomainError{Op: "recurrence rule", Reason: "template transaction must be marked recurring"}
	}
	if interval < 1 {
		return nil, DomainError{Op: "recurrence rule", Reason: fmt.Sprintf("interval must be at least 1, got %d", interval)}
	}
	if !end.IsZero() && end.Before(start) {
		return nil, DomainError{Op: "recurrence rule", Reason: "end date precedes start date"}
	}
	r := &RecurrenceRule{
		ID:          uuid.New(),
		Transaction: template.ID,
		Frequency:   freq,
		Interval:    interval,
		AnchorDay:   start.Day(),
		AnchorWeek:  start.Weekday(),
		Weekend:     weekend,
		Start:       start,
		End:         end,
	}
	if next, ok := r.NextOccurrence(start, true); ok {
		r.NextDue = next
	}
	return r, nil
}

// stepMonths returns the rule's step in months for month-based frequencies,
// or 0 for day-based ones.
func (r *RecurrenceRule) stepMonths() int {
	switch r.Frequency {
	case Monthly:
		return r.Interval
	case Quarterly:
		return 3 * r.Interval
	case Yearly:
		return 12 * r.Interval
	default:
		return 0
	}
}

// stepDays returns the rule's step in days for day-based frequencies, or 0.
func (r *RecurrenceRule) stepDays() int {
	switch r.Frequency {
	case Daily:
		return r.Interval
	case Weekly:
		return 7 * r.Interval
	default:
		return 0
	}
}

// seed returns the first raw (unadjusted) occurrence at or after Start.
func (r *RecurrenceRule) seed() Date {
	switch r.Frequency {
	case Daily:
		return r.Start
	case Weekly:
		delta := (int(r.AnchorWeek) - int(r.Start.Weekday()) + 7) % 7
		return r.Start.Add(delta)
	default:
		first := clampedDay(r.Start.Year(), r.Start.Month(), r.AnchorDay)
		if first.Before(r.Start) {
			return clampedDay(r.Start.Year(), r.Start.Month()+time.Month(r.stepMonths()), r.AnchorDay)
		}
		return first
	}
}

// rawOccurrence returns the k-th unadjusted occurrence, k starting at 0.
func (r *RecurrenceRule) rawOccurrence(k int) Date {
	seed := r.seed()
	if days := r.stepDays(); days > 0 {
		return seed.Add(k * days)
	}
	return clampedDay(seed.Year(), seed.Month()+time.Month(k*r.stepMonths()), r.AnchorDay)
}

// estimateIndex returns a raw occurrence index safely at or before the first
// occurrence relevant to the given date.
func (r *RecurrenceRule) estimateIndex(from Date) int {
	seed := r.seed()
	var k int
	if days := r.stepDays(); days > 0 {
		k = from.Sub(seed)/days - 1
	} else {
		months := (from.Year()-seed.Year())*12 + int(from.Month()-seed.Month())
		k = months/r.stepMonths() - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}

// NextOccurrence computes the next occurrence relative to a reference date.
// It is a pure function of the rule and the reference: when includeDate is
// true and the reference itself is an occurrence (after weekend adjustment),
// the reference is returned; otherwise the result is strictly after the
// reference. The second return value is false once the rule has ended.
func (r *RecurrenceRule) NextOccurrence(from Date, includeDate bool) (Date, bool) {
	start := r.estimateIndex(from)
	for k := start; k < start+nextSearchCap; k++ {
		raw := r.rawOccurrence(k)
		if !r.End.IsZero() && raw.After(r.End) {
			return Date{}, false
		}
		adjusted := r.Weekend.apply(raw)
		// The adjusted date is the semantic occurrence: pushing it past the
		// inclusive end ends the rule, even when the raw date is in range.
		if !r.End.IsZero() && adjusted.After(r.End) {
			return Date{}, false
		}
		if adjusted.After(from) || (includeDate && adjusted == from) {
			return adjusted, true
		}
	}
	// Unreachable for any well-formed rule: the estimate starts at most two
	// steps before the reference date.
	return Date{}, false
}

// Ended reports whether the rule has no occurrence at or after the date.
func (r *RecurrenceRule) Ended(on Date) bool {
	_, ok := r.NextOccurrence(on, true)
	return !ok
}

// Occurrences enumerates the occurrences falling within the range, capped at
// occurrenceCap results. Enumeration never yields dates before the rule's
// start nor after its end, honors context cancellation between iterations,
// and returns a RecurrenceExhaustedError when the cap is hit.
func (r *RecurrenceRule) Occurrences(ctx context.Context, rng Range) ([]Date, error) {
	from := rng.From
	if from.Before(r.Start) {
		from = r.Start
	}
	var out []Date
	o, ok := r.NextOccurrence(from, true)
	for n := 0; ok && !o.After(rng.To); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n >= occurrenceCap {
			return nil, RecurrenceExhaustedError{Limit: occurrenceCap}
		}
		out = append(out, o)
		o, ok = r.NextOccurrence(o, false)
	}
	return out, nil
}

// ExecuteOccurrence materializes the rule's next due occurrence into a
// concrete transaction appended to the ledger, then advances the cached next
// occurrence. The posted transaction copies the template's entries with
// fresh ids and is not marked recurring.
func (l *Ledger) ExecuteOccurrence(rule *RecurrenceRule, clock Clock) (*Transaction, error) {
	template := l.Transaction(rule.Transaction)
	if template == nil {
		return nil, fmt.Errorf("recurrence rule references unknown transaction %s", rule.Transaction)
	}
	if !template.Recurring {
		return nil, DomainError{Op: "execute occurrence", Reason: "transaction is not a recurring template"}
	}

	// The cached next due date may come from a stale or hand-edited snapshot:
	// never trust it, recompute through the rule before posting.
	var due Date
	ok := false
	if !rule.NextDue.IsZero() {
		due, ok = rule.NextOccurrence(rule.NextDue, true)
	}
	if !ok {
		due, ok = rule.NextOccurrence(clock.Today(), true)
	}
	if !ok {
		return nil, DomainError{Op: "execute occurrence", Reason: "rule has ended"}
	}

	entries := template.Entries()
	for i := range entries {
		entries[i].ID = uuid.New()
	}
	tx, err := NewTransaction(due, template.Description, entries...)
	if err != nil {
		return nil, err
	}
	tx.Reference = template.Reference
	if err := l.Append(tx); err != nil {
		return nil, err
	}

	if next, ok := rule.NextOccurrence(due, false); ok {
		rule.NextDue = next
	} else {
		rule.NextDue = Date{}
	}
	return tx, nil
}
