package amortization

import (
	"time"

	"go.uber.org/zap"
)

// Simulator runs simulations. It keeps no state besides its logger, so one
// instance may be shared by concurrent callers.
type Simulator struct {
	logger *zap.Logger
}

// NewSimulator creates a simulator. A nil logger is replaced by a no-op one.
func NewSimulator(logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{logger: logger}
}

// Simulate is the engine entry point: it validates the inputs, computes the
// baseline, applies the extra payment and summarizes the difference. The
// strategy is ignored when extraAmount is zero.
func Simulate(principal, monthlyRate float64, termMonths int, system System,
	startDate time.Time, extraAmount float64, strategy Strategy) (SimulationResult, error) {
	params := LoanParameters{
		Principal:   principal,
		MonthlyRate: monthlyRate,
		TermMonths:  termMonths,
		System:      system,
		StartDate:   startDate,
	}
	return NewSimulator(nil).Run(params, &ExtraPayment{Amount: extraAmount, Strategy: strategy})
}

// Run simulates params with an optional extra payment.
func (s *Simulator) Run(params LoanParameters, extra *ExtraPayment) (SimulationResult, error) {
	if err := params.Validate(); err != nil {
		return SimulationResult{}, err
	}
	if err := extra.Validate(); err != nil {
		return SimulationResult{}, err
	}

	baseline := computeBaseline(params)
	trajectory := s.applyExtraPayment(params, baseline, extra)
	metrics := Summarize(params, baseline, trajectory, extra)

	result := SimulationResult{
		System:                         params.System,
		TermMonths:                     params.TermMonths,
		FirstInstallment:               baseline.FirstInstallment,
		BaselineTotalPaid:              baseline.TotalPaid,
		BaselineTotalInterest:          baseline.TotalInterest,
		Schedule:                       trajectory.Schedule,
		TotalPaid:                      trajectory.TotalPaid,
		TotalInterest:                  trajectory.TotalInterest,
		ActualMonths:                   trajectory.ActualMonths,
		ExtraApplied:                   trajectory.ExtraApplied,
		InterestSaved:                  metrics.InterestSaved,
		MonthsEliminated:               metrics.MonthsEliminated,
		InstallmentReduction:           metrics.InstallmentReduction,
		ProjectedInstallmentAfterExtra: metrics.ProjectedInstallmentAfterExtra,
	}
	if extra.active() {
		result.Strategy = extra.Strategy
	}

	s.logger.Debug("simulation computed",
		zap.String("op", "amortization.Run"),
		zap.String("system", string(params.System)),
		zap.String("strategy", string(result.Strategy)),
		zap.Int("term_months", params.TermMonths),
		zap.Int("actual_months", result.ActualMonths),
		zap.Float64("interest_saved", result.InterestSaved),
	)
	return result, nil
}

// CompareStrategies simulates the same extra payment under both strategies.
func CompareStrategies(params LoanParameters, extraAmount float64) (StrategyComparison, error) {
	return NewSimulator(nil).CompareStrategies(params, extraAmount)
}

// CompareStrategies simulates the same extra payment under both strategies.
func (s *Simulator) CompareStrategies(params LoanParameters, extraAmount float64) (StrategyComparison, error) {
	term, err := s.Run(params, &ExtraPayment{Amount: extraAmount, Strategy: StrategyReduceTerm})
	if err != nil {
		return StrategyComparison{}, err
	}
	installment, err := s.Run(params, &ExtraPayment{Amount: extraAmount, Strategy: StrategyReduceInstallment})
	if err != nil {
		return StrategyComparison{}, err
	}
	return StrategyComparison{ReduceTerm: term, ReduceInstallment: installment}, nil
}
