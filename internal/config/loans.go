package config

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-simulator/pkg/amortization"
	"github.com/iwvelando/loan-simulator/pkg/datetime"
	"github.com/iwvelando/loan-simulator/pkg/mathutil"
)

// Loan indicates a loan and its parameters. Rates are percentages, e.g. 9.5
// for 9.5% a year.
type Loan struct {
	Principal           float64      `json:"principal"`
	DownPayment         float64      `json:"downPayment,omitempty"`
	AnnualInterestRate  float64      `json:"annualInterestRate,omitempty"`
	MonthlyInterestRate float64      `json:"monthlyInterestRate,omitempty"`
	Term                int          `json:"term"` // months
	System              string       `json:"system"`
	StartDate           string       `json:"startDate,omitempty"`
	ExtraPayment        ExtraPayment `json:"extraPayment"`
}

// ExtraPayment is a one-time principal payment made with the first installment.
type ExtraPayment struct {
	Amount   float64 `json:"amount"`
	Strategy string  `json:"strategy,omitempty"`
}

// FinancedAmount is the principal left after the down payment.
func (loan Loan) FinancedAmount() float64 {
	return loan.Principal - loan.DownPayment
}

// MonthlyRate returns the effective monthly rate as a fraction. A monthly
// rate takes precedence over an annual one, which is converted by
// compounding.
func (loan Loan) MonthlyRate() float64 {
	if loan.MonthlyInterestRate != 0 {
		return mathutil.ToFraction(loan.MonthlyInterestRate)
	}
	return amortization.MonthlyRateFromAnnual(mathutil.ToFraction(loan.AnnualInterestRate))
}

func (loan Loan) rateCount() int {
	count := 0
	if loan.AnnualInterestRate != 0 {
		count++
	}
	if loan.MonthlyInterestRate != 0 {
		count++
	}
	return count
}

// Parameters converts the loan into engine inputs, filling unset fields from
// defaults. The extra payment is nil when no amount is configured.
func (loan Loan) Parameters(defaults Defaults) (amortization.LoanParameters, *amortization.ExtraPayment, error) {
	var params amortization.LoanParameters

	if loan.DownPayment < 0 {
		return params, nil, &amortization.InvalidInputError{Field: "downPayment", Value: loan.DownPayment, Reason: "must not be negative"}
	}
	if loan.rateCount() == 0 {
		return params, nil, &amortization.InvalidInputError{Field: "interestRate", Value: 0, Reason: "annualInterestRate or monthlyInterestRate is required"}
	}

	systemName := loan.System
	if systemName == "" {
		systemName = defaults.System
	}
	system, err := amortization.ParseSystem(systemName)
	if err != nil {
		return params, nil, err
	}

	startDate, err := parseStartDate(loan.StartDate, defaults.StartDate)
	if err != nil {
		return params, nil, err
	}

	params = amortization.LoanParameters{
		Principal:   loan.FinancedAmount(),
		MonthlyRate: loan.MonthlyRate(),
		TermMonths:  loan.Term,
		System:      system,
		StartDate:   startDate,
	}
	if err := params.Validate(); err != nil {
		return params, nil, err
	}

	if loan.ExtraPayment.Amount == 0 {
		return params, nil, nil
	}
	strategyName := loan.ExtraPayment.Strategy
	if strategyName == "" {
		strategyName = defaults.Strategy
	}
	strategy, err := amortization.ParseStrategy(strategyName)
	if err != nil {
		return params, nil, err
	}
	extra := &amortization.ExtraPayment{Amount: loan.ExtraPayment.Amount, Strategy: strategy}
	if err := extra.Validate(); err != nil {
		return params, nil, err
	}
	return params, extra, nil
}

func parseStartDate(value, fallback string) (time.Time, error) {
	if value == "" {
		value = fallback
	}
	if value == "" {
		return time.Time{}, nil
	}
	startDate, err := datetime.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid startDate %q: %w", value, err)
	}
	return startDate, nil
}
