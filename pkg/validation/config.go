// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/datetime"
)

// ValidateExtraPayment checks an extra payment against the amount financed.
func ValidateExtraPayment(scenarioName string, financed, amount float64, strategy string) []string {
	var warnings []string

	if amount > 0 && financed > 0 && amount >= financed {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' extra payment covers the whole financed amount (%.2f >= %.2f) - the loan is settled with the first installment",
			scenarioName, amount, financed))
	}

	if amount == 0 && strategy != "" {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s' sets strategy %s without an extra payment amount - strategy is ignored",
			scenarioName, strategy))
	}

	return warnings
}

// ValidateTerm checks that a term is within the supported range.
func ValidateTerm(scenarioName string, term int) string {
	if term < 1 || term > constants.MaxTermMonths {
		return fmt.Sprintf("Scenario '%s' term of %d months is outside 1..%d - scenario will fail",
			scenarioName, term, constants.MaxTermMonths)
	}
	return ""
}

// ValidateStartDate checks that a start date parses.
func ValidateStartDate(scenarioName, startDate string) string {
	if startDate == "" {
		return ""
	}
	if _, err := datetime.ParseDate(startDate); err != nil {
		return fmt.Sprintf("Scenario '%s' has an unreadable start date: %v", scenarioName, err)
	}
	return ""
}

// ConfigValidator performs comprehensive configuration validation
type ConfigValidator struct {
	DefaultStartDate string
	Scenarios        []ScenarioConfig
}

// ScenarioConfig is the subset of a scenario the validator inspects.
type ScenarioConfig struct {
	Name           string
	Active         bool
	FinancedAmount float64
	Term           int
	StartDate      string
	ExtraAmount    float64
	ExtraStrategy  string
	RateCount      int
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if len(cv.Scenarios) == 0 {
		return append(warnings, "No scenarios configured")
	}

	if warning := ValidateStartDate("defaults", cv.DefaultStartDate); warning != "" {
		warnings = append(warnings, warning)
	}

	seen := make(map[string]bool)
	active := 0
	for _, scenario := range cv.Scenarios {
		if seen[scenario.Name] {
			warnings = append(warnings, fmt.Sprintf("Scenario name '%s' is used more than once", scenario.Name))
		}
		seen[scenario.Name] = true

		if !scenario.Active {
			continue
		}
		active++

		if warning := ValidateTerm(scenario.Name, scenario.Term); warning != "" {
			warnings = append(warnings, warning)
		}
		if warning := ValidateStartDate(scenario.Name, scenario.StartDate); warning != "" {
			warnings = append(warnings, warning)
		}
		if scenario.RateCount > 1 {
			warnings = append(warnings, fmt.Sprintf("Scenario '%s' sets both annual and monthly interest rates - the monthly rate is used",
				scenario.Name))
		}
		warnings = append(warnings, ValidateExtraPayment(scenario.Name, scenario.FinancedAmount, scenario.ExtraAmount, scenario.ExtraStrategy)...)
	}

	if active == 0 {
		warnings = append(warnings, "No active scenarios - nothing will be simulated")
	}

	return warnings
}
