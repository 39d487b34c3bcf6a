package amortization

import (
	"github.com/iwvelando/loan-simulator/pkg/datetime"
)

// ComputeBaseline builds the full-term schedule without any extra payment.
func ComputeBaseline(params LoanParameters) (Baseline, error) {
	if err := params.Validate(); err != nil {
		return Baseline{}, err
	}
	return computeBaseline(params), nil
}

func computeBaseline(params LoanParameters) Baseline {
	size := periodSize(params.System, params.Principal, params.MonthlyRate, params.TermMonths)
	baseline := Baseline{
		Schedule:   make([]ScheduleRow, 0, params.TermMonths),
		PeriodSize: size,
	}

	balance := params.Principal
	for month := 1; month <= params.TermMonths; month++ {
		row := nextRow(params, month, balance, size, month == params.TermMonths)
		baseline.Schedule = append(baseline.Schedule, row)
		baseline.TotalInterest += row.Interest
		baseline.TotalPaid += row.Installment
		balance = row.RemainingBalance
		if balance == 0 {
			break
		}
	}
	baseline.FirstInstallment = baseline.Schedule[0].Installment
	return baseline
}

// nextRow computes one period from its opening balance. constant is the flat
// amortization (SAC) or the installment (PRICE). The terminal row amortizes
// whatever balance is left so the schedule closes at exactly zero; any other
// row is capped only when it would overshoot the balance.
func nextRow(params LoanParameters, month int, balance, constant float64, terminal bool) ScheduleRow {
	interest := CalculateInterest(balance, params.MonthlyRate)
	amortization := constant
	if params.System == SystemPRICE {
		amortization = constant - interest
	}
	if terminal || balance-amortization <= 0 {
		amortization = balance
	}

	return ScheduleRow{
		Month:            month,
		DueDate:          datetime.AddMonths(params.StartDate, month),
		Installment:      interest + amortization,
		Interest:         interest,
		Amortization:     amortization,
		RemainingBalance: balance - amortization,
	}
}
