package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/mjoffre/finance"
	"github.com/shopspring/decimal"
)

// loanCmd holds the flags for the 'loan' subcommand.
type loanCmd struct {
	principal    string
	currency     string
	rate         float64
	payments     int
	made         int
	frequency    string
	amortization string
	scenarios    bool
	payoff       float64
}

func (*loanCmd) Name() string     { return "loan" }
func (*loanCmd) Synopsis() string { return "amortize a loan, simulate rates, or price a payoff" }
func (*loanCmd) Usage() string {
	return `fin loan -principal <value> -rate <annual %> -payments <n> [-made <n>]
         [-frequency <monthly|quarterly|semiannual|annual>]
         [-amortization <french|american|bullet>] [-scenarios] [-payoff <penalty %>]

  Computes the periodic payment and total interest. With -scenarios, re-prices
  the loan at rate shifts of -1% to +1%. With -payoff, prices an early payoff
  with the given penalty percentage.
`
}

func (c *loanCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.principal, "principal", "", "Loan principal")
	f.StringVar(&c.currency, "currency", "EUR", "Loan currency")
	f.Float64Var(&c.rate, "rate", 0, "Annual rate in percent (e.g. 3.5)")
	f.IntVar(&c.payments, "payments", 0, "Total number of payments")
	f.IntVar(&c.made, "made", 0, "Payments already made")
	f.StringVar(&c.frequency, "frequency", "monthly", "Payment frequency")
	f.StringVar(&c.amortization, "amortization", "french", "Amortization type")
	f.BoolVar(&c.scenarios, "scenarios", false, "Simulate rate scenarios")
	f.Float64Var(&c.payoff, "payoff", -1, "Early payoff penalty in percent")
}

func (c *loanCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	loan, err := c.buildLoan()
	if err != nil {
		return fail(err)
	}

	payment, err := loan.Payment()
	if err != nil {
		return fail(err)
	}
	totalInterest, err := loan.TotalInterest()
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s loan, %d %s payments\n", loan.Amortization, loan.TotalPayments, loan.Frequency)
	fmt.Printf("  payment:        %s\n", payment)
	fmt.Printf("  total interest: %s\n", totalInterest)
	fmt.Printf("  progress:       %s (%d payments left)\n", loan.Progress(), loan.RemainingPayments())

	if c.scenarios {
		deltas := []decimal.Decimal{
			decimal.NewFromFloat(-0.01),
			decimal.NewFromFloat(-0.005),
			decimal.Zero,
			decimal.NewFromFloat(0.005),
			decimal.NewFromFloat(0.01),
		}
		scenarios, err := loan.RateScenarios(deltas)
		if err != nil {
			return fail(err)
		}
		fmt.Println("rate scenarios:")
		for _, s := range scenarios {
			if s.Rate.IsNegative() {
				continue // unrealistic, skip
			}
			fmt.Printf("  %6s%%  payment %s, total interest %s\n",
				s.Delta.Mul(decimal.NewFromInt(100)), s.Payment, s.TotalInterest)
		}
	}

	if c.payoff >= 0 {
		payoff, err := loan.EarlyPayoff(decimal.NewFromFloat(c.payoff))
		if err != nil {
			return fail(err)
		}
		fmt.Printf("early payoff: %s (penalty %s, interest saved %s)\n",
			payoff.Amount, payoff.Penalty, payoff.SavedInterest)
	}
	return subcommands.ExitSuccess
}

func (c *loanCmd) buildLoan() (*finance.Loan, error) {
	principal, err := decimal.NewFromString(c.principal)
	if err != nil {
		return nil, fmt.Errorf("invalid principal %q: %w", c.principal, err)
	}
	frequency, err := finance.ParsePaymentFrequency(c.frequency)
	if err != nil {
		return nil, err
	}
	amortization, err := finance.ParseAmortizationType(c.amortization)
	if err != nil {
		return nil, err
	}
	return &finance.Loan{
		Principal:     finance.M(principal, c.currency),
		AnnualRate:    decimal.NewFromFloat(c.rate).Div(decimal.NewFromInt(100)),
		Amortization:  amortization,
		TotalPayments: c.payments,
		PaymentsMade:  c.made,
		Frequency:     frequency,
	}, nil
}
