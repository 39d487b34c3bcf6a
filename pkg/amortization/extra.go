package amortization

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/loan-simulator/pkg/mathutil"
	"go.uber.org/zap"
)

// termSolveEpsilon keeps ceil from adding a period for a quotient like
// 335.0000000001 that is an exact count up to float error.
const termSolveEpsilon = 1e-9

// plan is how the balance left after period 1 gets amortized: how many more
// periods at most, and the constant used for each of them.
type plan struct {
	periods  int
	constant float64
}

// reamortizer derives the plan for one strategy.
type reamortizer func(params LoanParameters, baseline Baseline, balance float64) (plan, error)

var reamortizers = map[Strategy]reamortizer{
	StrategyReduceTerm:        reduceTerm,
	StrategyReduceInstallment: reduceInstallment,
}

// reduceTerm keeps the original period size and solves for the number of
// periods needed to clear the balance.
func reduceTerm(params LoanParameters, baseline Baseline, balance float64) (plan, error) {
	periods, err := RemainingTerm(params.System, balance, params.MonthlyRate, baseline.PeriodSize)
	if err != nil {
		return plan{}, err
	}
	if limit := params.TermMonths - 1; periods > limit {
		periods = limit
	}
	// A sub-cent residue left after periods-1 rows goes to the terminal row
	// rather than becoming a period of its own.
	if periods > 1 && mathutil.Round(residualBalance(params.System, balance, params.MonthlyRate, baseline.PeriodSize, periods-1)) <= 0 {
		periods--
	}
	return plan{periods: periods, constant: baseline.PeriodSize}, nil
}

// residualBalance is the balance left after paying periods rows of the given
// size.
func residualBalance(system System, balance, monthlyRate, size float64, periods int) float64 {
	if system == SystemPRICE {
		growth := math.Pow(1+monthlyRate, float64(periods))
		return balance*growth - size*(growth-1)/monthlyRate
	}
	return balance - float64(periods)*size
}

// reduceInstallment keeps the original end date and solves for a smaller
// constant over the remaining termMonths-1 periods.
func reduceInstallment(params LoanParameters, _ Baseline, balance float64) (plan, error) {
	periods := params.TermMonths - 1
	if periods < 1 {
		return plan{}, ErrDegenerateAmortization
	}
	return plan{
		periods:  periods,
		constant: periodSize(params.System, balance, params.MonthlyRate, periods),
	}, nil
}

// RemainingTerm returns how many periods of the given size clear balance.
// For SAC size is the flat amortization; for PRICE it is the installment.
// ErrDegenerateAmortization is returned when size is not positive or, for
// PRICE, cannot cover the interest.
func RemainingTerm(system System, balance, monthlyRate, size float64) (int, error) {
	if balance <= 0 {
		return 0, nil
	}
	if size <= 0 || math.IsNaN(size) {
		return 0, ErrDegenerateAmortization
	}

	var periods float64
	switch system {
	case SystemSAC:
		periods = balance / size
	case SystemPRICE:
		arg := 1 - balance*monthlyRate/size
		if arg <= 0 {
			return 0, ErrDegenerateAmortization
		}
		periods = -math.Log(arg) / math.Log(1+monthlyRate)
	default:
		return 0, fmt.Errorf("unsupported system %q", system)
	}

	term := int(math.Ceil(periods - termSolveEpsilon))
	if term < 1 {
		term = 1
	}
	return term, nil
}

// ApplyExtraPayment recomputes the schedule with extra absorbed at period 1.
// A nil or zero extra payment returns the baseline trajectory unchanged.
func ApplyExtraPayment(params LoanParameters, baseline Baseline, extra *ExtraPayment) (Trajectory, error) {
	return NewSimulator(nil).ApplyExtraPayment(params, baseline, extra)
}

// ApplyExtraPayment recomputes the schedule with extra absorbed at period 1.
func (s *Simulator) ApplyExtraPayment(params LoanParameters, baseline Baseline, extra *ExtraPayment) (Trajectory, error) {
	if err := params.Validate(); err != nil {
		return Trajectory{}, err
	}
	if err := extra.Validate(); err != nil {
		return Trajectory{}, err
	}
	return s.applyExtraPayment(params, baseline, extra), nil
}

func (s *Simulator) applyExtraPayment(params LoanParameters, baseline Baseline, extra *ExtraPayment) Trajectory {
	if !extra.active() {
		return passthrough(baseline)
	}

	first := nextRow(params, 1, params.Principal, baseline.PeriodSize, params.TermMonths == 1)
	scheduled := first.Amortization
	applied := extra.Amount
	if headroom := params.Principal - first.Amortization; mathutil.Round(headroom-applied) <= 0 {
		if applied > headroom {
			s.logger.Debug("capping extra payment to the outstanding balance",
				zap.String("op", "amortization.ApplyExtraPayment"),
				zap.Float64("requested", extra.Amount),
				zap.Float64("capped_to_balance", headroom),
			)
		}
		applied = headroom
		first.Amortization = params.Principal
	} else {
		first.Amortization += applied
	}
	first.Installment = first.Interest + first.Amortization
	first.RemainingBalance = params.Principal - first.Amortization

	trajectory := Trajectory{
		Schedule:     []ScheduleRow{first},
		ExtraApplied: applied,
	}

	if first.RemainingBalance > 0 {
		p, err := reamortizers[extra.Strategy](params, baseline, first.RemainingBalance)
		if errors.Is(err, ErrDegenerateAmortization) {
			s.logger.Debug("re-amortization is degenerate, settling the balance at period 1",
				zap.String("op", "amortization.ApplyExtraPayment"),
				zap.String("strategy", string(extra.Strategy)),
				zap.Float64("balance", first.RemainingBalance),
			)
			p = plan{}
		}

		if p.periods == 0 {
			first.Amortization = params.Principal
			first.Installment = first.Interest + first.Amortization
			first.RemainingBalance = 0
			trajectory.Schedule[0] = first
			trajectory.ExtraApplied = params.Principal - scheduled
		}

		balance := first.RemainingBalance
		for k := 1; k <= p.periods && balance > 0; k++ {
			row := nextRow(params, k+1, balance, p.constant, k == p.periods)
			trajectory.Schedule = append(trajectory.Schedule, row)
			balance = row.RemainingBalance
		}
	}

	for _, row := range trajectory.Schedule {
		trajectory.TotalInterest += row.Interest
		trajectory.TotalPaid += row.Installment
	}
	trajectory.ActualMonths = len(trajectory.Schedule)
	return trajectory
}

func passthrough(baseline Baseline) Trajectory {
	schedule := make([]ScheduleRow, len(baseline.Schedule))
	copy(schedule, baseline.Schedule)
	return Trajectory{
		Schedule:      schedule,
		TotalPaid:     baseline.TotalPaid,
		TotalInterest: baseline.TotalInterest,
		ActualMonths:  len(schedule),
	}
}
