// Package output provides utilities for formatting and displaying simulation results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/amortization"
	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/datetime"
	"github.com/iwvelando/loan-simulator/pkg/format"
	"github.com/iwvelando/loan-simulator/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// csvHeader lists the columns written for every installment.
var csvHeader = []string{"scenario", "system", "strategy", "month", "dueDate", "installment", "interest", "amortization", "remainingBalance"}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []simulation.Result) error {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		sim := result.Simulation
		if _, err := fmt.Fprintf(w, "--- Results for scenario %s ---\n", result.Name); err != nil {
			return err
		}
		if _, err := p.Fprintf(w, "System: %s | Financed: %s | Monthly rate: %s | Term: %d months\n",
			sim.System, format.Currency(constants.CurrencySymbol, result.Parameters.Principal),
			format.Percent(result.Parameters.MonthlyRate, 4), sim.TermMonths); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, Summary(sim)); err != nil {
			return err
		}
		if result.Optimization != nil {
			if _, err := fmt.Fprintf(w, "Optimization:\n  %s\n", OptimizationLine(*result.Optimization)); err != nil {
				return err
			}
			for _, note := range result.Optimization.Notes {
				if _, err := fmt.Fprintf(w, "  note: %s\n", note); err != nil {
					return err
				}
			}
		}

		if _, err := fmt.Fprint(w,
			"Month | Due date   | Installment   | Interest      | Amortization  | Balance\n",
			"_____ | __________ | _____________ | _____________ | _____________ | _______\n",
		); err != nil {
			return err
		}
		for _, row := range sim.Schedule {
			dueDate := datetime.FormatDate(row.DueDate)
			if dueDate == "" {
				dueDate = strings.Repeat("-", len(constants.DateLayout))
			}
			if _, err := p.Fprintf(w, "%5d | %s | %13s | %13s | %13s | %s\n",
				row.Month, dueDate,
				format.Currency(constants.CurrencySymbol, row.Installment),
				format.Currency(constants.CurrencySymbol, row.Interest),
				format.Currency(constants.CurrencySymbol, row.Amortization),
				format.Currency(constants.CurrencySymbol, row.RemainingBalance),
			); err != nil {
				return err
			}
		}
		if i < len(results)-1 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// CsvFormat outputs every installment of every result in comma-separated
// value format, one row per installment.
func CsvFormat(w io.Writer, results []simulation.Result) error {
	if err := writeCsvRow(w, csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		sim := result.Simulation
		for _, row := range sim.Schedule {
			record := []string{
				result.Name,
				string(sim.System),
				string(sim.Strategy),
				fmt.Sprintf("%d", row.Month),
				datetime.FormatDate(row.DueDate),
				format.Plain(row.Installment),
				format.Plain(row.Interest),
				format.Plain(row.Amortization),
				format.Plain(row.RemainingBalance),
			}
			if err := writeCsvRow(w, record); err != nil {
				return err
			}
		}
	}
	return nil
}

// CsvString renders results the way CsvFormat does.
func CsvString(results []simulation.Result) (string, error) {
	var builder strings.Builder
	if err := CsvFormat(&builder, results); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func writeCsvRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(quoted, ","))
	return err
}

// JSONFormat outputs the results as an indented JSON array.
func JSONFormat(w io.Writer, results []simulation.Result) error {
	if results == nil {
		results = []simulation.Result{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

// Summary describes in one sentence what the extra payment achieved.
func Summary(result amortization.SimulationResult) string {
	money := func(amount float64) string {
		return format.Currency(constants.CurrencySymbol, amount)
	}

	if result.Strategy == "" || result.ExtraApplied == 0 {
		return fmt.Sprintf("Without an extra payment the loan runs %d months, starting at %s a month, and costs %s in interest.",
			result.ActualMonths, money(result.FirstInstallment), money(result.TotalInterest))
	}

	if result.ActualMonths == 1 {
		return fmt.Sprintf("An extra payment of %s settles the loan with the first installment and saves %s in interest.",
			money(result.ExtraApplied), money(result.InterestSaved))
	}

	switch result.Strategy {
	case amortization.StrategyReduceInstallment:
		return fmt.Sprintf("An extra payment of %s keeps the %d-month term, lowers the next installment by %s to %s and saves %s in interest.",
			money(result.ExtraApplied), result.ActualMonths, money(result.InstallmentReduction),
			money(result.ProjectedInstallmentAfterExtra), money(result.InterestSaved))
	default:
		return fmt.Sprintf("An extra payment of %s ends the loan after %d months instead of %d (%d months sooner) and saves %s in interest.",
			money(result.ExtraApplied), result.ActualMonths, result.TermMonths, result.MonthsEliminated, money(result.InterestSaved))
	}
}

// OptimizationLine renders an optimizer summary on one line.
func OptimizationLine(summary optimization.Summary) string {
	status := "converged"
	if !summary.Converged {
		status = "not converged"
	}
	var goal, original, achieved string
	if summary.Target == config.OptimizerTargetInstallment {
		goal = format.Currency(constants.CurrencySymbol, summary.Goal)
		original = format.Currency(constants.CurrencySymbol, summary.Original)
		achieved = format.Currency(constants.CurrencySymbol, summary.Achieved)
	} else {
		goal = fmt.Sprintf("%.0f months", summary.Goal)
		original = fmt.Sprintf("%.0f months", summary.Original)
		achieved = fmt.Sprintf("%.0f months", summary.Achieved)
	}
	return fmt.Sprintf("%s goal %s under %s: extra payment %s%s takes %s to %s (%s, %d iterations)",
		summary.Target, goal, summary.Strategy, constants.CurrencySymbol, summary.ValueDisplay,
		original, achieved, status, summary.Iterations)
}
