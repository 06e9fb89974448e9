package finance

import (
	"context"
	"errors"
	"testing"
	"time"
)

// setupRecurringExpense registers a recurring rent template and builds a rule
// over it.
func setupRecurringExpense(t *testing.T, freq Period, interval int, weekend WeekendAdjustment, start, end Date) (household, *RecurrenceRule) {
	t.Helper()
	h := setupHousehold(t)
	template, err := NewExpense(start, "rent", h.rent, h.checking, M(900, "EUR"))
	if err != nil {
		t.Fatalf("NewExpense() failed: %v", err)
	}
	template.Recurring = true
	mustAppend(t, h.ledger, template)

	rule, err := NewRecurrenceRule(template, freq, interval, weekend, start, end)
	if err != nil {
		t.Fatalf("NewRecurrenceRule() failed: %v", err)
	}
	return h, rule
}

func TestNewRecurrenceRuleValidation(t *testing.T) {
	h := setupHousehold(t)
	start := day(2025, time.January, 6)
	plain, _ := NewExpense(start, "rent", h.rent, h.checking, M(900, "EUR"))

	var domain DomainError
	if _, err := NewRecurrenceRule(plain, Monthly, 1, NoAdjustment, start, Date{}); !errors.As(err, &domain) {
		t.Errorf("rule over a non-recurring template = %v, want DomainError", err)
	}
	plain.Recurring = true
	if _, err := NewRecurrenceRule(plain, Monthly, 0, NoAdjustment, start, Date{}); !errors.As(err, &domain) {
		t.Errorf("rule with zero interval = %v, want DomainError", err)
	}
	if _, err := NewRecurrenceRule(plain, Monthly, 1, NoAdjustment, start, start.Add(-1)); !errors.As(err, &domain) {
		t.Errorf("rule ending before start = %v, want DomainError", err)
	}
}

func TestBiweeklyOccurrences(t *testing.T) {
	// Every two weeks from Monday 2025-01-06.
	_, rule := setupRecurringExpense(t, Weekly, 2, NoAdjustment, day(2025, time.January, 6), Date{})

	got, err := rule.Occurrences(context.Background(), NewRange(day(2025, time.January, 1), day(2025, time.February, 28)))
	if err != nil {
		t.Fatalf("Occurrences() failed: %v", err)
	}
	want := []Date{
		day(2025, time.January, 6),
		day(2025, time.January, 20),
		day(2025, time.February, 3),
		day(2025, time.February, 17),
	}
	if len(got) != len(want) {
		t.Fatalf("Occurrences() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMonthlyAnchorClampsToMonthEnd(t *testing.T) {
	// Anchored on the 31st: short months clamp, longer months return to the 31st.
	_, rule := setupRecurringExpense(t, Monthly, 1, NoAdjustment, day(2025, time.January, 31), Date{})

	got, err := rule.Occurrences(context.Background(), NewRange(day(2025, time.January, 1), day(2025, time.April, 30)))
	if err != nil {
		t.Fatalf("Occurrences() failed: %v", err)
	}
	want := []Date{
		day(2025, time.January, 31),
		day(2025, time.February, 28),
		day(2025, time.March, 31),
		day(2025, time.April, 30),
	}
	if len(got) != len(want) {
		t.Fatalf("Occurrences() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestWeekendAdjustment(t *testing.T) {
	// 2025-05-31 is a Saturday.
	testCases := []struct {
		name    string
		weekend WeekendAdjustment
		want    Date
	}{
		{"None stays on Saturday", NoAdjustment, day(2025, time.May, 31)},
		{"Before moves to Friday", MoveBefore, day(2025, time.May, 30)},
		{"After moves to Monday", MoveAfter, day(2025, time.June, 2)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, rule := setupRecurringExpense(t, Monthly, 1, tc.weekend, day(2025, time.January, 31), Date{})
			got, ok := rule.NextOccurrence(day(2025, time.May, 1), true)
			if !ok {
				t.Fatal("NextOccurrence() reported an ended rule")
			}
			if got != tc.want {
				t.Errorf("NextOccurrence() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestWeekendAdjustmentAtRuleEnd(t *testing.T) {
	// The rule ends on Saturday 2025-05-31. Moving that occurrence after the
	// weekend would push it past the inclusive end, so the rule ends with
	// April; moving it before keeps it in range.
	t.Run("After ends the rule", func(t *testing.T) {
		_, rule := setupRecurringExpense(t, Monthly, 1, MoveAfter, day(2025, time.January, 31), day(2025, time.May, 31))

		if got, ok := rule.NextOccurrence(day(2025, time.May, 1), true); ok {
			t.Errorf("NextOccurrence() = %s, want ended", got)
		}
		if !rule.Ended(day(2025, time.May, 1)) {
			t.Error("Ended() = false past the last reachable occurrence")
		}
		got, err := rule.Occurrences(context.Background(), NewRange(day(2025, time.January, 1), day(2025, time.December, 31)))
		if err != nil {
			t.Fatalf("Occurrences() failed: %v", err)
		}
		if len(got) != 4 { // Jan 31, Feb 28, Mar 31, Apr 30
			t.Fatalf("Occurrences() = %v, want 4 dates", got)
		}
		if last := got[len(got)-1]; last != day(2025, time.April, 30) {
			t.Errorf("last occurrence = %s, want 2025-04-30", last)
		}
	})

	t.Run("Before stays in range", func(t *testing.T) {
		_, rule := setupRecurringExpense(t, Monthly, 1, MoveBefore, day(2025, time.January, 31), day(2025, time.May, 31))

		got, ok := rule.NextOccurrence(day(2025, time.May, 1), true)
		if !ok {
			t.Fatal("NextOccurrence() reported an ended rule")
		}
		if got != day(2025, time.May, 30) {
			t.Errorf("NextOccurrence() = %s, want 2025-05-30", got)
		}
	})
}

func TestNextOccurrenceIsPureAndMonotonic(t *testing.T) {
	_, rule := setupRecurringExpense(t, Weekly, 2, NoAdjustment, day(2025, time.January, 6), Date{})

	on := day(2025, time.January, 6)
	// Inclusive: the reference itself is an occurrence.
	if got, ok := rule.NextOccurrence(on, true); !ok || got != on {
		t.Errorf("NextOccurrence(inclusive) = %s, want %s", got, on)
	}
	// Exclusive: strictly after the reference.
	if got, ok := rule.NextOccurrence(on, false); !ok || got != day(2025, time.January, 20) {
		t.Errorf("NextOccurrence(exclusive) = %s, want 2025-01-20", got)
	}
	// Pure: asking twice gives the same answer.
	first, _ := rule.NextOccurrence(on, false)
	second, _ := rule.NextOccurrence(on, false)
	if first != second {
		t.Errorf("NextOccurrence() is not idempotent: %s then %s", first, second)
	}
	// Chaining exclusive calls walks strictly forward.
	prev := on
	for i := 0; i < 10; i++ {
		next, ok := rule.NextOccurrence(prev, false)
		if !ok {
			t.Fatal("NextOccurrence() ended unexpectedly")
		}
		if !next.After(prev) {
			t.Fatalf("occurrence %s does not advance past %s", next, prev)
		}
		prev = next
	}
}

func TestRuleEnd(t *testing.T) {
	_, rule := setupRecurringExpense(t, Weekly, 2, NoAdjustment, day(2025, time.January, 6), day(2025, time.February, 10))

	got, err := rule.Occurrences(context.Background(), NewRange(day(2025, time.January, 1), day(2025, time.December, 31)))
	if err != nil {
		t.Fatalf("Occurrences() failed: %v", err)
	}
	if len(got) != 3 { // 01-06, 01-20, 02-03; 02-17 is past the end
		t.Fatalf("Occurrences() = %v, want 3 dates", got)
	}
	if !rule.Ended(day(2025, time.February, 11)) {
		t.Error("Ended() = false after the last occurrence")
	}
	if rule.Ended(day(2025, time.February, 3)) {
		t.Error("Ended() = true while an occurrence remains")
	}
}

func TestOccurrencesCap(t *testing.T) {
	_, rule := setupRecurringExpense(t, Daily, 1, NoAdjustment, day(2025, time.January, 1), Date{})

	_, err := rule.Occurrences(context.Background(), NewRange(day(2025, time.January, 1), day(2026, time.March, 1)))
	var exhausted RecurrenceExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Occurrences() over 400+ days = %v, want RecurrenceExhaustedError", err)
	}
	if exhausted.Limit != occurrenceCap {
		t.Errorf("error limit = %d, want %d", exhausted.Limit, occurrenceCap)
	}
}

func TestOccurrencesHonorsCancellation(t *testing.T) {
	_, rule := setupRecurringExpense(t, Daily, 1, NoAdjustment, day(2025, time.January, 1), Date{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rule.Occurrences(ctx, NewRange(day(2025, time.January, 1), day(2025, time.March, 1))); !errors.Is(err, context.Canceled) {
		t.Errorf("Occurrences() with canceled context = %v, want context.Canceled", err)
	}
}

func TestQuarterlyOccurrences(t *testing.T) {
	_, rule := setupRecurringExpense(t, Quarterly, 1, NoAdjustment, day(2025, time.January, 15), Date{})

	got, err := rule.Occurrences(context.Background(), NewRange(day(2025, time.January, 1), day(2025, time.December, 31)))
	if err != nil {
		t.Fatalf("Occurrences() failed: %v", err)
	}
	want := []Date{
		day(2025, time.January, 15),
		day(2025, time.April, 15),
		day(2025, time.July, 15),
		day(2025, time.October, 15),
	}
	if len(got) != len(want) {
		t.Fatalf("Occurrences() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestExecuteOccurrence(t *testing.T) {
	h, rule := setupRecurringExpense(t, Monthly, 1, NoAdjustment, day(2025, time.January, 31), Date{})
	clock := FixedClock(day(2025, time.January, 31))

	if rule.NextDue != day(2025, time.January, 31) {
		t.Fatalf("NextDue seeded to %s, want 2025-01-31", rule.NextDue)
	}

	tx, err := h.ledger.ExecuteOccurrence(rule, clock)
	if err != nil {
		t.Fatalf("ExecuteOccurrence() failed: %v", err)
	}
	if tx.Recurring {
		t.Error("posted occurrence is marked recurring")
	}
	if tx.Date != day(2025, time.January, 31) {
		t.Errorf("posted on %s, want 2025-01-31", tx.Date)
	}
	if rule.NextDue != day(2025, time.February, 28) {
		t.Errorf("NextDue advanced to %s, want 2025-02-28", rule.NextDue)
	}

	// The occurrence now posts to balances while the template still does not.
	balance, err := h.ledger.Balance(h.rent.ID, day(2025, time.December, 31))
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if !balance.Equal(M(900, "EUR")) {
		t.Errorf("rent balance = %s, want %s", balance, M(900, "EUR"))
	}
}

func TestExecuteOccurrenceDistrustsCachedDueDate(t *testing.T) {
	t.Run("Due date past the end posts nothing", func(t *testing.T) {
		h, rule := setupRecurringExpense(t, Monthly, 1, NoAdjustment, day(2025, time.January, 31), day(2025, time.April, 30))

		// A hand-edited snapshot can carry a next due date past the rule end.
		rule.NextDue = day(2025, time.July, 31)
		_, err := h.ledger.ExecuteOccurrence(rule, FixedClock(day(2025, time.August, 1)))
		var domain DomainError
		if !errors.As(err, &domain) {
			t.Fatalf("ExecuteOccurrence() = %v, want DomainError", err)
		}
		balance, err := h.ledger.Balance(h.rent.ID, day(2025, time.December, 31))
		if err != nil {
			t.Fatalf("Balance() failed: %v", err)
		}
		if !balance.IsZero() {
			t.Errorf("refused execution still posted: rent balance %s", balance)
		}
	})

	t.Run("Off-schedule due date snaps to a real occurrence", func(t *testing.T) {
		h, rule := setupRecurringExpense(t, Monthly, 1, NoAdjustment, day(2025, time.January, 31), Date{})

		// 2025-03-15 is not an occurrence of a rule anchored on the 31st.
		rule.NextDue = day(2025, time.March, 15)
		tx, err := h.ledger.ExecuteOccurrence(rule, FixedClock(day(2025, time.March, 15)))
		if err != nil {
			t.Fatalf("ExecuteOccurrence() failed: %v", err)
		}
		if tx.Date != day(2025, time.March, 31) {
			t.Errorf("posted on %s, want 2025-03-31", tx.Date)
		}
		if rule.NextDue != day(2025, time.April, 30) {
			t.Errorf("NextDue advanced to %s, want 2025-04-30", rule.NextDue)
		}
	})
}
