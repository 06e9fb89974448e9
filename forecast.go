package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalancePoint is one dated balance sample or projection point.
type BalancePoint struct {
	Date    Date
	Balance Money
}

// Trend is a fitted linear balance trend. The fit is an ordinary
// least-squares regression over (days since origin, balance) pairs; the
// regression itself runs in float64, projected points are converted back to
// exact money and rounded to the currency's minor unit.
type Trend struct {
	Slope     float64 // currency units per day
	Intercept float64
	Origin    Date
	Currency  string
}

// FitTrend fits a linear trend through the samples. It fails with
// ErrInsufficientData when fewer than two distinct sample dates are
// available, rather than dividing by a zero denominator.
func FitTrend(samples []BalancePoint) (Trend, error) {
	if len(samples) < 2 {
		return Trend{}, ErrInsufficientData
	}
	origin := samples[0].Date
	distinct := make(map[Date]struct{}, len(samples))

	var sx, sy, sxy, sxx float64
	for _, s := range samples {
		distinct[s.Date] = struct{}{}
		x := float64(s.Date.Sub(origin))
		y := s.Balance.Amount().InexactFloat64()
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	if len(distinct) < 2 {
		return Trend{}, ErrInsufficientData
	}
	n := float64(len(samples))
	denom := n*sxx - sx*sx
	if denom == 0 {
		return Trend{}, ErrInsufficientData
	}
	slope := (n*sxy - sx*sy) / denom
	return Trend{
		Slope:     slope,
		Intercept: (sy - slope*sx) / n,
		Origin:    origin,
		Currency:  samples[0].Balance.Currency(),
	}, nil
}

// At projects the trend's balance on a date.
func (t Trend) At(on Date) Money {
	days := float64(on.Sub(t.Origin))
	return M(t.Intercept+t.Slope*days, t.Currency).Round()
}

// MonthlyChange is the estimated balance change over thirty days.
func (t Trend) MonthlyChange() Money {
	return M(t.Slope*30, t.Currency).Round()
}

// Points projects one balance point per calendar month from the given date
// to the horizon, checking for cancellation between iterations.
func (t Trend) Points(ctx context.Context, from, horizon Date) ([]BalancePoint, error) {
	var out []BalancePoint
	for on := from; !on.After(horizon); on = on.AddMonth(1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, BalancePoint{Date: on, Balance: t.At(on)})
	}
	return out, nil
}

// BalanceHistory samples the account's balance for each day of the window,
// typically a trailing 3, 6 or 12 months feeding FitTrend.
func BalanceHistory(l *Ledger, accountID uuid.UUID, window Range) ([]BalancePoint, error) {
	account := l.Account(accountID)
	if account == nil {
		return nil, DomainError{Op: "balance history", Reason: "unknown account"}
	}
	balance, err := l.Balance(accountID, window.From.Add(-1))
	if err != nil {
		return nil, err
	}

	// Per-day deltas within the window; days without activity repeat the
	// running balance.
	deltas := make(map[Date]Money)
	for _, tx := range l.Transactions(ByAccount(accountID), ByRange(window), ByRecurring(false)) {
		deltas[tx.Date] = deltas[tx.Date].Add(tx.NetBalanceChange(account))
	}

	var out []BalancePoint
	for day := range window.Days() {
		if delta, ok := deltas[day]; ok {
			balance = balance.Add(delta)
		}
		out = append(out, BalancePoint{Date: day, Balance: balance})
	}
	return out, nil
}

// CashFlowProjection produces a day-indexed running-balance series from
// today to the horizon, netting the occurrences of the given recurrence
// rules against the current net worth in the given currency. It is
// occurrence-driven, unlike the regression trend: it answers "what will the
// balance be if the scheduled transactions happen", not "where is the
// balance heading".
func CashFlowProjection(ctx context.Context, l *Ledger, rules []*RecurrenceRule, clock Clock, currency string, horizon Date) ([]BalancePoint, error) {
	today := clock.Today()
	balance, err := l.NetWorth(currency, today)
	if err != nil {
		return nil, err
	}

	if !horizon.After(today) {
		return []BalancePoint{{Date: today, Balance: balance}}, nil
	}

	window := Range{From: today.Add(1), To: horizon}
	deltas := make(map[Date]Money)
	for _, rule := range rules {
		template := l.Transaction(rule.Transaction)
		if template == nil || !template.Recurring {
			continue
		}
		impact := netCashImpact(l, template, currency)
		if impact.IsZero() {
			continue
		}
		occurrences, err := rule.Occurrences(ctx, window)
		if err != nil {
			return nil, err
		}
		for _, on := range occurrences {
			deltas[on] = deltas[on].Add(impact)
		}
	}

	out := []BalancePoint{{Date: today, Balance: balance}}
	for day := range window.Days() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if delta, ok := deltas[day]; ok {
			balance = balance.Add(delta)
		}
		out = append(out, BalancePoint{Date: day, Balance: balance})
	}
	return out, nil
}

// netCashImpact is the template's net-worth effect in the given currency:
// asset contributions minus liability contributions. Income and expense
// entries affect net worth only through their asset/liability counterparts.
func netCashImpact(l *Ledger, template *Transaction, currency string) Money {
	impact := M(decimal.Zero, currency)
	seen := make(map[uuid.UUID]struct{})
	for _, e := range template.Entries() {
		if _, ok := seen[e.Account]; ok {
			continue
		}
		seen[e.Account] = struct{}{}
		account := l.Account(e.Account)
		if account == nil || account.Currency != currency {
			continue
		}
		switch account.Class {
		case Asset:
			impact = impact.Add(template.NetBalanceChange(account))
		case Liability:
			impact = impact.Sub(template.NetBalanceChange(account))
		}
	}
	return impact
}
