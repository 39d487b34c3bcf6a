package amortization

// Summarize diffs a trajectory against its baseline.
func Summarize(params LoanParameters, baseline Baseline, trajectory Trajectory, extra *ExtraPayment) Metrics {
	metrics := Metrics{
		InterestSaved:                  baseline.TotalInterest - trajectory.TotalInterest,
		MonthsEliminated:               params.TermMonths - trajectory.ActualMonths,
		ProjectedInstallmentAfterExtra: secondInstallment(trajectory.Schedule),
	}
	if metrics.MonthsEliminated < 0 {
		metrics.MonthsEliminated = 0
	}
	// Reducing the installment keeps the end date; only a payoff at period 1
	// shortens the loan.
	if extra.active() && extra.Strategy == StrategyReduceInstallment && trajectory.ActualMonths != 1 {
		metrics.MonthsEliminated = 0
	}

	if extra.active() && extra.Strategy == StrategyReduceInstallment {
		before := baselineSecondInstallment(params, baseline)
		after := 0.0
		if len(trajectory.Schedule) > 1 {
			after = trajectory.Schedule[1].Installment
		}
		if len(baseline.Schedule) > 1 {
			metrics.InstallmentReduction = before - after
		}
	}
	return metrics
}

// secondInstallment is the installment due after the extra payment, falling
// back to period 1 when the loan was settled there.
func secondInstallment(schedule []ScheduleRow) float64 {
	switch len(schedule) {
	case 0:
		return 0
	case 1:
		return schedule[0].Installment
	}
	return schedule[1].Installment
}

func baselineSecondInstallment(params LoanParameters, baseline Baseline) float64 {
	if params.System == SystemPRICE {
		return baseline.PeriodSize
	}
	if len(baseline.Schedule) > 1 {
		return baseline.Schedule[1].Installment
	}
	return 0
}
