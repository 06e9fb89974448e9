package finance

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// setupSnapshot builds a snapshot exercising every record type.
func setupSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	h := setupHousehold(t)
	s := &Snapshot{Ledger: h.ledger}

	salary, err := NewIncome(day(2025, time.January, 5), "salary", h.salary, h.checking, M(3000, "EUR"))
	if err != nil {
		t.Fatalf("NewIncome() failed: %v", err)
	}
	salary.Reference = "JAN-2025"
	salary.Status = Reconciled
	salary.ReconciledOn = day(2025, time.February, 2)

	template, err := NewExpense(day(2025, time.February, 1), "rent", h.rent, h.checking, M(900, "EUR"))
	if err != nil {
		t.Fatalf("NewExpense() failed: %v", err)
	}
	template.Recurring = true
	mustAppend(t, h.ledger, salary, template)

	rule, err := NewRecurrenceRule(template, Monthly, 1, MoveAfter, day(2025, time.February, 1), Date{})
	if err != nil {
		t.Fatalf("NewRecurrenceRule() failed: %v", err)
	}
	s.Rules = append(s.Rules, rule)

	s.Loans = append(s.Loans, &Loan{
		Name:          "Mortgage",
		Principal:     M(200000, "EUR"),
		AnnualRate:    decimal.NewFromFloat(0.035),
		Amortization:  French,
		TotalPayments: 240,
		PaymentsMade:  12,
		Frequency:     MonthlyPayments,
	})

	budget := NewBudget("Household", Monthly, day(2025, time.March, 1), true)
	if _, err := budget.AddEnvelope(h.groceries, M(500, "EUR")); err != nil {
		t.Fatalf("AddEnvelope() failed: %v", err)
	}
	s.Budgets = append(s.Budgets, budget)
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := setupSnapshot(t)

	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, s); err != nil {
		t.Fatalf("EncodeSnapshot() failed: %v", err)
	}
	decoded, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("DecodeSnapshot() failed: %v", err)
	}

	// Accounts survive with their identity.
	checking := decoded.Ledger.AccountByName("Checking")
	if checking == nil {
		t.Fatal("Checking account lost in round trip")
	}
	original := s.Ledger.AccountByName("Checking")
	if checking.ID != original.ID || checking.Class != Asset || checking.Currency != "EUR" {
		t.Errorf("account round trip mismatch: %+v", checking)
	}

	// Transactions, including status and entries.
	salary := decoded.Ledger.Transaction(s.Ledger.transactions[0].ID)
	if salary == nil {
		t.Fatal("salary transaction lost in round trip")
	}
	if salary.Status != Reconciled || salary.ReconciledOn != day(2025, time.February, 2) {
		t.Errorf("reconciliation status lost: %s on %s", salary.Status, salary.ReconciledOn)
	}
	if salary.Reference != "JAN-2025" {
		t.Errorf("reference lost: %q", salary.Reference)
	}
	if got := salary.NetBalanceChange(checking); !got.Equal(M(3000, "EUR")) {
		t.Errorf("entries lost: net change %s", got)
	}

	// The rule keeps its anchors and schedule position.
	if len(decoded.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(decoded.Rules))
	}
	rule := decoded.Rules[0]
	if rule.Frequency != Monthly || rule.AnchorDay != 1 || rule.Weekend != MoveAfter {
		t.Errorf("rule round trip mismatch: %+v", rule)
	}
	if rule.NextDue != s.Rules[0].NextDue {
		t.Errorf("NextDue = %s, want %s", rule.NextDue, s.Rules[0].NextDue)
	}

	// The loan still prices identically.
	if len(decoded.Loans) != 1 {
		t.Fatalf("got %d loans, want 1", len(decoded.Loans))
	}
	payment, err := decoded.Loans[0].Payment()
	if err != nil {
		t.Fatalf("Payment() on decoded loan failed: %v", err)
	}
	if !payment.Equal(M(1159.92, "EUR")) {
		t.Errorf("decoded loan payment = %s, want 1159.92", payment)
	}
	if decoded.Loans[0].PaymentsMade != 12 {
		t.Errorf("PaymentsMade = %d, want 12", decoded.Loans[0].PaymentsMade)
	}

	// The budget keeps its envelopes.
	if len(decoded.Budgets) != 1 {
		t.Fatalf("got %d budgets, want 1", len(decoded.Budgets))
	}
	budget := decoded.Budgets[0]
	if budget.Period != (Range{From: day(2025, time.March, 1), To: day(2025, time.March, 31)}) {
		t.Errorf("budget period = %s", budget.Period)
	}
	if len(budget.Envelopes()) != 1 || !budget.Envelopes()[0].Budgeted.Equal(M(500, "EUR")) {
		t.Errorf("envelopes lost: %+v", budget.Envelopes())
	}
	if !budget.Rollover {
		t.Error("rollover flag lost")
	}
}

func TestEncodeSnapshotOrdering(t *testing.T) {
	s := setupSnapshot(t)
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, s); err != nil {
		t.Fatalf("EncodeSnapshot() failed: %v", err)
	}

	// Accounts come first so that decoding can resolve entry references,
	// then transactions in chronological order.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var kinds []string
	for _, line := range lines {
		for _, kind := range []string{recAccount, recTransaction, recRule, recLoan, recBudget} {
			if strings.HasPrefix(line, `{"record":"`+kind+`"`) {
				kinds = append(kinds, kind)
				break
			}
		}
	}
	if len(kinds) != len(lines) {
		t.Fatalf("identified %d records out of %d lines", len(kinds), len(lines))
	}
	last := ""
	rank := map[string]int{recAccount: 0, recTransaction: 1, recRule: 2, recLoan: 3, recBudget: 4}
	for _, kind := range kinds {
		if last != "" && rank[kind] < rank[last] {
			t.Fatalf("record %q appears after %q", kind, last)
		}
		last = kind
	}
}

func TestDecodeSnapshotErrors(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{"Unknown record", `{"record":"widget"}`},
		{"Not JSON", `not json at all`},
		{"Transaction before its account", `{"record":"transaction","id":"8a9c52a6-84b1-4c0e-a155-aa9b98ab8a62","date":"2025-01-05","description":"x","entries":[{"id":"11f3c7c8-43f9-4524-9b29-79ac09d2b9b7","account":"5f9d7b8e-62ab-4fbb-bf07-4a9df51ed9ed","type":"debit","amount":{"currency":"EUR","amount":1}}]}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeSnapshot(strings.NewReader(tc.line)); err == nil {
				t.Error("DecodeSnapshot() accepted an invalid stream")
			}
		})
	}
}

func TestDecodeSnapshotSkipsEmptyLines(t *testing.T) {
	s := setupSnapshot(t)
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, s); err != nil {
		t.Fatalf("EncodeSnapshot() failed: %v", err)
	}
	padded := "\n" + strings.ReplaceAll(buf.String(), "\n", "\n\n")
	if _, err := DecodeSnapshot(strings.NewReader(padded)); err != nil {
		t.Fatalf("DecodeSnapshot() failed on padded input: %v", err)
	}
}
