package amortization

import (
	"math"

	"github.com/iwvelando/loan-simulator/pkg/constants"
)

// MonthlyRateFromAnnual converts an effective annual rate (0.095 for 9.5%)
// into the equivalent compounded monthly rate.
func MonthlyRateFromAnnual(annualRate float64) float64 {
	return math.Pow(1+annualRate, 1.0/constants.MonthsPerYear) - 1
}

// AnnualRateFromMonthly is the inverse of MonthlyRateFromAnnual.
func AnnualRateFromMonthly(monthlyRate float64) float64 {
	return math.Pow(1+monthlyRate, constants.MonthsPerYear) - 1
}

// CalculateInstallment returns the constant PRICE installment that fully
// amortizes principal over the given number of periods.
func CalculateInstallment(principal, monthlyRate float64, periods int) float64 {
	power := math.Pow(1+monthlyRate, float64(periods))
	return principal * monthlyRate * power / (power - 1)
}

// CalculateInterest returns the interest accrued on a balance over one period.
func CalculateInterest(balance, monthlyRate float64) float64 {
	return balance * monthlyRate
}

// periodSize returns the constant a system keeps across periods: the flat
// amortization for SAC, the installment for PRICE.
func periodSize(system System, principal, monthlyRate float64, periods int) float64 {
	if system == SystemPRICE {
		return CalculateInstallment(principal, monthlyRate, periods)
	}
	return principal / float64(periods)
}
