package finance

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Record types used to identify snapshot lines.
const (
	recAccount     = "account"
	recTransaction = "transaction"
	recRule        = "rule"
	recLoan        = "loan"
	recBudget      = "budget"
)

// Snapshot is the persistable state the engine computes from: the ledger
// plus the recurring schedules, loans and budgets that reference it. The
// persistence collaborator owns where it is stored; this codec owns only the
// JSONL shape, one record per line with a "record" discriminator.
type Snapshot struct {
	Ledger  *Ledger
	Rules   []*RecurrenceRule
	Loans   []*Loan
	Budgets []*Budget
}

// NewSnapshot creates an empty snapshot around a fresh ledger.
func NewSnapshot() *Snapshot {
	return &Snapshot{Ledger: NewLedger()}
}

// MarshalJSON implements the json.Marshaler interface for Account.
func (a *Account) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("record", recAccount)
	w.Append("id", a.ID)
	w.Append("name", a.Name)
	w.Append("currency", a.Currency)
	w.Append("class", a.Class.String())
	w.Append("type", a.Type.String())
	w.Append("active", a.Active)
	w.Optional("system", a.System)
	if !a.LastReconciledDate.IsZero() {
		w.Append("lastReconciledBalance", a.LastReconciledBalance)
		w.Append("lastReconciledDate", a.LastReconciledDate)
	}
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Entry.
func (e Entry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", e.ID)
	w.Append("account", e.Account)
	w.Append("type", e.Type.String())
	w.Append("amount", e.Amount)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("record", recTransaction)
	w.Append("id", t.ID)
	w.Append("date", t.Date)
	w.Append("description", t.Description)
	w.Optional("reference", t.Reference)
	w.Optional("recurring", t.Recurring)
	if t.Status != NotReconciled {
		w.Append("status", t.Status.String())
	}
	w.Optional("reconciledOn", t.ReconciledOn)
	w.Append("entries", t.entries)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for RecurrenceRule.
func (r *RecurrenceRule) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("record", recRule)
	w.Append("id", r.ID)
	w.Append("transaction", r.Transaction)
	w.Append("frequency", r.Frequency.String())
	w.Append("interval", r.Interval)
	w.Append("anchorDay", r.AnchorDay)
	w.Append("anchorWeekday", int(r.AnchorWeek))
	if r.Weekend != NoAdjustment {
		w.Append("weekend", r.Weekend.String())
	}
	w.Append("start", r.Start)
	w.Optional("end", r.End)
	w.Optional("nextDue", r.NextDue)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Loan.
func (l *Loan) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("record", recLoan)
	w.Append("id", l.ID)
	w.Append("name", l.Name)
	w.Append("principal", l.Principal)
	w.Append("annualRate", l.AnnualRate)
	w.Append("rateType", l.RateType.String())
	w.Append("amortization", l.Amortization.String())
	w.Append("totalPayments", l.TotalPayments)
	w.Append("paymentsMade", l.PaymentsMade)
	w.Append("frequency", l.Frequency.String())
	w.Optional("recurrence", l.Recurrence)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Envelope.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", e.ID)
	w.Append("category", e.Category)
	w.Append("budgeted", e.Budgeted)
	w.Append("rollover", e.Rollover)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Budget.
func (b *Budget) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("record", recBudget)
	w.Append("id", b.ID)
	w.Append("name", b.Name)
	w.Append("from", b.Period.From)
	w.Append("to", b.Period.To)
	w.Append("periodType", b.PeriodType.String())
	w.Optional("rollover", b.Rollover)
	w.Append("envelopes", b.envelopes)
	return w.MarshalJSON()
}

// writeRecord marshals one record and writes it as a JSONL line.
func writeRecord(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write snapshot record: %w", err)
	}
	return nil
}

// EncodeSnapshot persists a snapshot to an io.Writer in JSONL format:
// accounts first (sorted by name), then transactions in chronological order,
// then rules, loans and budgets.
func EncodeSnapshot(w io.Writer, s *Snapshot) error {
	for account := range s.Ledger.AllAccounts() {
		if err := writeRecord(w, account); err != nil {
			return err
		}
	}
	s.Ledger.stableSort()
	for _, tx := range s.Ledger.transactions {
		if err := writeRecord(w, tx); err != nil {
			return err
		}
	}
	for _, rule := range s.Rules {
		if err := writeRecord(w, rule); err != nil {
			return err
		}
	}
	for _, loan := range s.Loans {
		if err := writeRecord(w, loan); err != nil {
			return err
		}
	}
	for _, budget := range s.Budgets {
		if err := writeRecord(w, budget); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSnapshot reads a JSONL snapshot from an io.Reader. Accounts must
// appear before the transactions that reference them, which EncodeSnapshot
// guarantees.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	s := NewSnapshot()
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var identifier struct {
			Record string `json:"record"`
		}
		if err := json.Unmarshal(line, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify record in line %q: %w", string(line), err)
		}

		var err error
		switch identifier.Record {
		case recAccount:
			err = s.decodeAccount(line)
		case recTransaction:
			err = s.decodeTransaction(line)
		case recRule:
			err = s.decodeRule(line)
		case recLoan:
			err = s.decodeLoan(line)
		case recBudget:
			err = s.decodeBudget(line)
		default:
			err = fmt.Errorf("unknown snapshot record: %q", identifier.Record)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return s, nil
}

func (s *Snapshot) decodeAccount(line []byte) error {
	var temp struct {
		ID                    uuid.UUID  `json:"id"`
		Name                  string     `json:"name"`
		Currency              string     `json:"currency"`
		Class                 string     `json:"class"`
		Type                  string     `json:"type"`
		Active                bool       `json:"active"`
		System                bool       `json:"system"`
		LastReconciledBalance moneyField `json:"lastReconciledBalance"`
		LastReconciledDate    Date       `json:"lastReconciledDate"`
	}
	if err := json.Unmarshal(line, &temp); err != nil {
		return err
	}
	class, err := ParseAccountClass(temp.Class)
	if err != nil {
		return err
	}
	typ, err := ParseAccountType(temp.Type)
	if err != nil {
		return err
	}
	account := &Account{
		ID:                    temp.ID,
		Name:                  temp.Name,
		Currency:              temp.Currency,
		Class:                 class,
		Type:                  typ,
		Active:                temp.Active,
		System:                temp.System,
		LastReconciledBalance: temp.LastReconciledBalance.Money(),
		LastReconciledDate:    temp.LastReconciledDate,
	}
	if account.LastReconciledBalance.Currency() == "" {
		account.LastReconciledBalance = M(0, account.Currency)
	}
	return s.Ledger.AddAccount(account)
}

func (s *Snapshot) decodeTransaction(line []byte) error {
	var temp struct {
		ID           uuid.UUID `json:"id"`
		Date         Date      `json:"date"`
		Description  string    `json:"description"`
		Reference    string    `json:"reference"`
		Recurring    bool      `json:"recurring"`
		Status       string    `json:"status"`
		ReconciledOn Date      `json:"reconciledOn"`
		Entries      []struct {
			ID      uuid.UUID  `json:"id"`
			Account uuid.UUID  `json:"account"`
			Type    string     `json:"type"`
			Amount  moneyField `json:"amount"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(line, &temp); err != nil {
		return err
	}
	status, err := ParseReconciliationStatus(temp.Status)
	if err != nil {
		return err
	}
	tx := &Transaction{
		ID:           temp.ID,
		Date:         temp.Date,
		Description:  temp.Description,
		Reference:    temp.Reference,
		Recurring:    temp.Recurring,
		Status:       status,
		ReconciledOn: temp.ReconciledOn,
	}
	for _, e := range temp.Entries {
		typ, err := ParseEntryType(e.Type)
		if err != nil {
			return err
		}
		tx.entries = append(tx.entries, Entry{
			ID:          e.ID,
			Transaction: tx.ID,
			Account:     e.Account,
			Type:        typ,
			Amount:      e.Amount.Money(),
		})
	}
	return s.Ledger.Append(tx)
}

func (s *Snapshot) decodeRule(line []byte) error {
	var temp struct {
		ID            uuid.UUID `json:"id"`
		Transaction   uuid.UUID `json:"transaction"`
		Frequency     string    `json:"frequency"`
		Interval      int       `json:"interval"`
		AnchorDay     int       `json:"anchorDay"`
		AnchorWeekday int       `json:"anchorWeekday"`
		Weekend       string    `json:"weekend"`
		Start         Date      `json:"start"`
		End           Date      `json:"end"`
		NextDue       Date      `json:"nextDue"`
	}
	if err := json.Unmarshal(line, &temp); err != nil {
		return err
	}
	frequency, err := ParsePeriod(temp.Frequency)
	if err != nil {
		return err
	}
	weekend, err := ParseWeekendAdjustment(temp.Weekend)
	if err != nil {
		return err
	}
	s.Rules = append(s.Rules, &RecurrenceRule{
		ID:          temp.ID,
		Transaction: temp.Transaction,
		Frequency:   frequency,
		Interval:    temp.Interval,
		AnchorDay:   temp.AnchorDay,
		AnchorWeek:  time.Weekday(temp.AnchorWeekday),
		Weekend:     weekend,
		Start:       temp.Start,
		End:         temp.End,
		NextDue:     temp.NextDue,
	})
	return nil
}

func (s *Snapshot) decodeLoan(line []byte) error {
	var temp struct {
		ID            uuid.UUID       `json:"id"`
		Name          string          `json:"name"`
		Principal     moneyField      `json:"principal"`
		AnnualRate    decimal.Decimal `json:"annualRate"`
		RateType      string          `json:"rateType"`
		Amortization  string          `json:"amortization"`
		TotalPayments int             `json:"totalPayments"`
		PaymentsMade  int             `json:"paymentsMade"`
		Frequency     string          `json:"frequency"`
		Recurrence    uuid.UUID       `json:"recurrence"`
	}
	if err := json.Unmarshal(line, &temp); err != nil {
		return err
	}
	amortization, err := ParseAmortizationType(temp.Amortization)
	if err != nil {
		return err
	}
	frequency, err := ParsePaymentFrequency(temp.Frequency)
	if err != nil {
		return err
	}
	rateType := FixedRate
	if temp.RateType == "variable" {
		rateType = VariableRate
	}
	s.Loans = append(s.Loans, &Loan{
		ID:            temp.ID,
		Name:          temp.Name,
		Principal:     temp.Principal.Money(),
		AnnualRate:    temp.AnnualRate,
		RateType:      rateType,
		Amortization:  amortization,
		TotalPayments: temp.TotalPayments,
		PaymentsMade:  temp.PaymentsMade,
		Frequency:     frequency,
		Recurrence:    temp.Recurrence,
	})
	return nil
}

func (s *Snapshot) decodeBudget(line []byte) error {
	var temp struct {
		ID         uuid.UUID `json:"id"`
		Name       string    `json:"name"`
		From       Date      `json:"from"`
		To         Date      `json:"to"`
		PeriodType string    `json:"periodType"`
		Rollover   bool      `json:"rollover"`
		Envelopes  []struct {
			ID       uuid.UUID  `json:"id"`
			Category uuid.UUID  `json:"category"`
			Budgeted moneyField `json:"budgeted"`
			Rollover moneyField `json:"rollover"`
		} `json:"envelopes"`
	}
	if err := json.Unmarshal(line, &temp); err != nil {
		return err
	}
	periodType, err := ParsePeriod(temp.PeriodType)
	if err != nil {
		return err
	}
	budget := &Budget{
		ID:         temp.ID,
		Name:       temp.Name,
		Period:     Range{From: temp.From, To: temp.To},
		PeriodType: periodType,
		Rollover:   temp.Rollover,
	}
	for _, e := range temp.Envelopes {
		budget.envelopes = append(budget.envelopes, &Envelope{
			ID:       e.ID,
			Budget:   budget.ID,
			Category: e.Category,
			Budgeted: e.Budgeted.Money(),
			Rollover: e.Rollover.Money(),
		})
	}
	s.Budgets = append(s.Budgets, budget)
	return nil
}
