package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/loan-simulator/pkg/amortization"
)

const (
	OptimizerTargetTerm        = "term"
	OptimizerTargetInstallment = "installment"

	defaultToleranceAmount = 0.01
	defaultMaxIterations   = 50
)

// OptimizerConfig asks for the smallest extra payment that brings the loan to
// a goal: at most Goal months (term) or at most Goal per month after the
// extra payment (installment).
type OptimizerConfig struct {
	Target        string   `yaml:"target,omitempty" mapstructure:"target"`
	Goal          float64  `yaml:"goal,omitempty" mapstructure:"goal"`
	Strategy      string   `yaml:"strategy,omitempty" mapstructure:"strategy"`
	Min           *float64 `yaml:"min,omitempty" mapstructure:"min"`
	Max           *float64 `yaml:"max,omitempty" mapstructure:"max"`
	Tolerance     float64  `yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int      `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// CanonicalOptimizerTarget returns the canonical identifier for an optimizer target.
func CanonicalOptimizerTarget(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return OptimizerTargetTerm
	}
	switch strings.ToLower(trimmed) {
	case "term", "months", "termmonths", "term_months":
		return OptimizerTargetTerm
	case "installment", "payment", "monthly_payment", "monthlypayment":
		return OptimizerTargetInstallment
	default:
		return strings.ToLower(trimmed)
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Target = CanonicalOptimizerTarget(o.Target)

	if strings.TrimSpace(o.Strategy) == "" {
		switch o.Target {
		case OptimizerTargetInstallment:
			o.Strategy = string(amortization.StrategyReduceInstallment)
		default:
			o.Strategy = string(amortization.StrategyReduceTerm)
		}
	}

	if o.Tolerance <= 0 {
		o.Tolerance = defaultToleranceAmount
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	switch o.Target {
	case OptimizerTargetTerm, OptimizerTargetInstallment:
		// supported targets
	default:
		return fmt.Errorf("optimizer target %q is not supported", o.Target)
	}
	if _, err := amortization.ParseStrategy(o.Strategy); err != nil {
		return fmt.Errorf("optimizer strategy: %w", err)
	}
	if o.Goal <= 0 {
		return fmt.Errorf("optimizer goal must be positive, got %.2f", o.Goal)
	}
	if o.Target == OptimizerTargetTerm && o.Goal != float64(int(o.Goal)) {
		return fmt.Errorf("optimizer term goal must be a whole number of months, got %.2f", o.Goal)
	}
	if o.Min != nil && *o.Min < 0 {
		return fmt.Errorf("optimizer minimum %.2f must not be negative", *o.Min)
	}
	if o.Min != nil && o.Max != nil && *o.Min >= *o.Max {
		return fmt.Errorf("optimizer minimum %.2f must be less than maximum %.2f", *o.Min, *o.Max)
	}

	return nil
}

// Bounds returns the search interval for the extra payment. Unset bounds
// default to nothing and the whole financed amount.
func (o *OptimizerConfig) Bounds(financed float64) (float64, float64) {
	lower, upper := 0.0, financed
	if o.Min != nil {
		lower = *o.Min
	}
	if o.Max != nil {
		upper = *o.Max
	}
	return lower, upper
}
