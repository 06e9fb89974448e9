package finance

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyArithmetic(t *testing.T) {
	a := M(100.50, "EUR")
	b := M(0.25, "EUR")

	if got := a.Add(b); !got.Equal(M(100.75, "EUR")) {
		t.Errorf("Add() = %s", got)
	}
	if got := a.Sub(b); !got.Equal(M(100.25, "EUR")) {
		t.Errorf("Sub() = %s", got)
	}
	if got := a.Neg(); !got.Equal(M(-100.50, "EUR")) {
		t.Errorf("Neg() = %s", got)
	}
	if got := a.Mul(decimal.NewFromInt(2)); !got.Equal(M(201, "EUR")) {
		t.Errorf("Mul() = %s", got)
	}
	if got := M(100, "EUR").Div(decimal.NewFromInt(4)); !got.Equal(M(25, "EUR")) {
		t.Errorf("Div() = %s", got)
	}
}

func TestMoneyZeroValueIsCurrencyWeak(t *testing.T) {
	// The zero Money acts as a neutral accumulator seed: adding a typed value
	// adopts its currency.
	var acc Money
	acc = acc.Add(M(10, "EUR"))
	if acc.Currency() != "EUR" || !acc.Equal(M(10, "EUR")) {
		t.Errorf("accumulated %s %s", acc.Amount(), acc.Currency())
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Add() across currencies did not panic")
		}
	}()
	M(1, "EUR").Add(M(1, "USD"))
}

func TestMoneyRound(t *testing.T) {
	testCases := []struct {
		name string
		in   Money
		want Money
	}{
		{"Half away from zero", M(1.005, "EUR"), M(1.01, "EUR")},
		{"Truncates below half", M(1.004, "EUR"), M(1, "EUR")},
		{"Zero-decimal currency", M(1500.4, "JPY"), M(1500, "JPY")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Round(); !got.Equal(tc.want) {
				t.Errorf("Round(%s) = %s, want %s", tc.in.Amount(), got.Amount(), tc.want.Amount())
			}
		})
	}
}

func TestValidateCurrency(t *testing.T) {
	if err := ValidateCurrency("EUR"); err != nil {
		t.Errorf("ValidateCurrency(EUR) = %v", err)
	}
	if err := ValidateCurrency("ZZZ"); err == nil {
		t.Error("ValidateCurrency(ZZZ) accepted an unknown code")
	}
}

func TestPercentEqual(t *testing.T) {
	if !Percent(25).Equal(25.00005) {
		t.Error("Percent.Equal() too strict")
	}
	if Percent(25).Equal(25.1) {
		t.Error("Percent.Equal() too lax")
	}
}
