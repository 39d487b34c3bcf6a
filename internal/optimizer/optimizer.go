// Package optimizer searches for the smallest extra payment that reaches a
// scenario's term or installment goal.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/amortization"
	"github.com/iwvelando/loan-simulator/pkg/format"
	"github.com/iwvelando/loan-simulator/pkg/optimization"
	"go.uber.org/zap"
)

// installmentEpsilon absorbs float noise when comparing an installment to its goal.
const installmentEpsilon = 1e-9

type Runner struct {
	logger    *zap.Logger
	conf      *config.Configuration
	simulator *amortization.Simulator
}

type evaluation struct {
	value    float64
	achieved float64
	goal     float64
	target   string
}

func (e evaluation) feasible() bool {
	if e.target == config.OptimizerTargetInstallment {
		return e.achieved <= e.goal+installmentEpsilon
	}
	return e.achieved <= e.goal
}

// Result summarizes optimizer searches keyed by scenario name.
type Result struct {
	Summaries map[string]optimization.Summary
}

// Empty indicates whether any optimizer searches were run.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// Apply attaches optimizer summaries to the provided simulation results.
func (r Result) Apply(results []simulation.Result) {
	if len(r.Summaries) == 0 {
		return
	}
	for i := range results {
		summary, ok := r.Summaries[results[i].Name]
		if !ok {
			continue
		}
		results[i].Optimization = &summary
	}
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf, simulator: amortization.NewSimulator(logger)}, nil
}

// Run executes the optimizer directive of every active scenario.
func (r *Runner) Run() (*Result, error) {
	summaries := make(map[string]optimization.Summary)

	for _, scenario := range r.conf.Scenarios {
		if !scenario.Active || scenario.Optimizer == nil {
			continue
		}
		directive := *scenario.Optimizer
		if err := directive.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		params, _, err := scenario.Parameters(r.conf.Defaults)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}

		summary, err := r.Optimize(scenario.Name, params, &directive)
		if err != nil {
			return nil, err
		}
		summaries[scenario.Name] = summary

		r.logger.Info("optimizer searched extra payment",
			zap.String("op", "optimizer.Run"),
			zap.String("scenario", scenario.Name),
			zap.String("target", summary.Target),
			zap.Float64("goal", summary.Goal),
			zap.Float64("original", summary.Original),
			zap.Float64("achieved", summary.Achieved),
			zap.Float64("extraPayment", summary.Value),
			zap.Int("iterations", summary.Iterations),
			zap.Bool("converged", summary.Converged),
		)
	}

	return &Result{Summaries: summaries}, nil
}

// Optimize finds the smallest extra payment within the directive bounds that
// meets its goal. Both metrics only shrink as the extra payment grows, which
// makes bisection sound.
func (r *Runner) Optimize(name string, params amortization.LoanParameters, directive *config.OptimizerConfig) (optimization.Summary, error) {
	if err := directive.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	strategy, err := amortization.ParseStrategy(directive.Strategy)
	if err != nil {
		return optimization.Summary{}, err
	}

	lower, upper := directive.Bounds(params.Principal)
	if lower >= upper {
		return optimization.Summary{}, fmt.Errorf("optimizer minimum %.2f must be less than maximum %.2f", lower, upper)
	}
	summary := optimization.Summary{
		Scenario: name,
		Target:   directive.Target,
		Strategy: string(strategy),
		Goal:     directive.Goal,
	}

	original, err := r.evaluate(params, strategy, directive, 0)
	if err != nil {
		return summary, err
	}
	summary.Original = original.achieved

	lowerEval, err := r.evaluate(params, strategy, directive, lower)
	if err != nil {
		return summary, err
	}
	if lowerEval.feasible() {
		return finish(summary, lowerEval, 0, true), nil
	}

	upperEval, err := r.evaluate(params, strategy, directive, upper)
	if err != nil {
		return summary, err
	}
	if !upperEval.feasible() {
		summary = finish(summary, upperEval, 0, false)
		summary.Notes = []string{fmt.Sprintf("unable to reach %s within bounds %s to %s",
			formatGoal(directive), format.NumericCurrency(lower), format.NumericCurrency(upper))}
		return summary, nil
	}

	iterations := 0
	best := upperEval
	for iterations < directive.MaxIterations && upperEval.value-lowerEval.value > directive.Tolerance {
		mid := lowerEval.value + (upperEval.value-lowerEval.value)/2
		evalMid, err := r.evaluate(params, strategy, directive, mid)
		if err != nil {
			return summary, err
		}
		iterations++
		if evalMid.feasible() {
			upperEval = evalMid
			best = evalMid
		} else {
			lowerEval = evalMid
		}
	}
	converged := upperEval.value-lowerEval.value <= directive.Tolerance

	// Report a payable amount: round up to the cent, which can only help.
	if cents := math.Ceil(best.value*100) / 100; cents != best.value && cents <= upper {
		rounded, err := r.evaluate(params, strategy, directive, cents)
		if err != nil {
			return summary, err
		}
		if rounded.feasible() {
			best = rounded
		}
	}

	return finish(summary, best, iterations, converged), nil
}

func (r *Runner) evaluate(params amortization.LoanParameters, strategy amortization.Strategy, directive *config.OptimizerConfig, amount float64) (evaluation, error) {
	result, err := r.simulator.Run(params, &amortization.ExtraPayment{Amount: amount, Strategy: strategy})
	if err != nil {
		return evaluation{}, err
	}

	eval := evaluation{value: amount, goal: directive.Goal, target: directive.Target}
	switch directive.Target {
	case config.OptimizerTargetInstallment:
		if len(result.Schedule) > 1 {
			eval.achieved = result.Schedule[1].Installment
		}
	default:
		eval.achieved = float64(result.ActualMonths)
	}
	return eval, nil
}

func finish(summary optimization.Summary, eval evaluation, iterations int, converged bool) optimization.Summary {
	summary.Value = eval.value
	summary.ValueDisplay = format.NumericCurrency(eval.value)
	summary.Achieved = eval.achieved
	summary.Iterations = iterations
	summary.Converged = converged
	return summary
}

func formatGoal(directive *config.OptimizerConfig) string {
	if directive.Target == config.OptimizerTargetInstallment {
		return "an installment of " + format.NumericCurrency(directive.Goal)
	}
	return fmt.Sprintf("a term of %d months", int(directive.Goal))
}
