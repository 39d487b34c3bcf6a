// Package amortization computes SAC and PRICE loan schedules and simulates
// the effect of a one-time extra principal payment made with the first
// installment.
package amortization

import (
	"fmt"
	"strings"
	"time"
)

// System is the amortization system of a loan.
type System string

const (
	// SystemSAC amortizes a constant share of principal every period, so the
	// installment shrinks as interest falls.
	SystemSAC System = "SAC"
	// SystemPRICE (French system) charges a constant installment whose
	// interest/amortization split shifts over time.
	SystemPRICE System = "PRICE"
)

// ParseSystem normalizes a user supplied system name.
func ParseSystem(value string) (System, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(SystemSAC):
		return SystemSAC, nil
	case string(SystemPRICE), "FRENCH":
		return SystemPRICE, nil
	}
	return "", &InvalidInputError{Field: "system", Value: value, Reason: "expected SAC or PRICE"}
}

// Strategy selects how the savings of an extra payment are applied.
type Strategy string

const (
	// StrategyReduceTerm keeps the original period size and shortens the contract.
	StrategyReduceTerm Strategy = "REDUCE_TERM"
	// StrategyReduceInstallment keeps the original end date and shrinks future installments.
	StrategyReduceInstallment Strategy = "REDUCE_INSTALLMENT"
)

// ParseStrategy normalizes a user supplied strategy name. Hyphens and the
// short forms TERM and INSTALLMENT are accepted.
func ParseStrategy(value string) (Strategy, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(value)), "-", "_")
	switch normalized {
	case string(StrategyReduceTerm), "TERM":
		return StrategyReduceTerm, nil
	case string(StrategyReduceInstallment), "INSTALLMENT":
		return StrategyReduceInstallment, nil
	}
	return "", &InvalidInputError{Field: "strategy", Value: value, Reason: "expected REDUCE_TERM or REDUCE_INSTALLMENT"}
}

// LoanParameters describes the financed loan. It is never modified by the
// engine.
type LoanParameters struct {
	Principal   float64   `json:"principal"`
	MonthlyRate float64   `json:"monthlyRate"`
	TermMonths  int       `json:"termMonths"`
	System      System    `json:"system"`
	StartDate   time.Time `json:"startDate"`
}

// ExtraPayment is a lump-sum principal payment made with the first installment.
type ExtraPayment struct {
	Amount   float64  `json:"amount"`
	Strategy Strategy `json:"strategy,omitempty"`
}

// active reports whether the extra payment changes anything.
func (e *ExtraPayment) active() bool {
	return e != nil && e.Amount > 0
}

// ScheduleRow is one installment of a schedule.
type ScheduleRow struct {
	Month            int       `json:"month"`
	DueDate          time.Time `json:"dueDate"`
	Installment      float64   `json:"installment"`
	Interest         float64   `json:"interest"`
	Amortization     float64   `json:"amortization"`
	RemainingBalance float64   `json:"remainingBalance"`
}

// String renders the row for debug logging.
func (r ScheduleRow) String() string {
	return fmt.Sprintf("#%d installment=%.2f interest=%.2f amortization=%.2f balance=%.2f",
		r.Month, r.Installment, r.Interest, r.Amortization, r.RemainingBalance)
}

// Baseline is the full-term schedule without any extra payment.
type Baseline struct {
	Schedule         []ScheduleRow
	TotalPaid        float64
	TotalInterest    float64
	FirstInstallment float64
	// PeriodSize is the flat amortization (SAC) or the installment (PRICE).
	PeriodSize float64
}

// Trajectory is the schedule actually followed once the extra payment is
// applied.
type Trajectory struct {
	Schedule      []ScheduleRow
	TotalPaid     float64
	TotalInterest float64
	ActualMonths  int
	// ExtraApplied is the part of the extra payment the balance could absorb.
	ExtraApplied float64
}

// Metrics compares a trajectory against its baseline.
type Metrics struct {
	InterestSaved                  float64 `json:"interestSaved"`
	MonthsEliminated               int     `json:"monthsEliminated"`
	InstallmentReduction           float64 `json:"installmentReduction"`
	ProjectedInstallmentAfterExtra float64 `json:"projectedInstallmentAfterExtra"`
}

// SimulationResult is everything a caller needs to render a simulation.
type SimulationResult struct {
	System                         System        `json:"system"`
	Strategy                       Strategy      `json:"strategy,omitempty"`
	TermMonths                     int           `json:"termMonths"`
	FirstInstallment               float64       `json:"firstInstallment"`
	BaselineTotalPaid              float64       `json:"baselineTotalPaid"`
	BaselineTotalInterest          float64       `json:"baselineTotalInterest"`
	Schedule                       []ScheduleRow `json:"schedule"`
	TotalPaid                      float64       `json:"totalPaid"`
	TotalInterest                  float64       `json:"totalInterest"`
	ActualMonths                   int           `json:"actualMonths"`
	ExtraApplied                   float64       `json:"extraApplied"`
	InterestSaved                  float64       `json:"interestSaved"`
	MonthsEliminated               int           `json:"monthsEliminated"`
	InstallmentReduction           float64       `json:"installmentReduction"`
	ProjectedInstallmentAfterExtra float64       `json:"projectedInstallmentAfterExtra"`
}

// StrategyComparison holds the same extra payment simulated under both strategies.
type StrategyComparison struct {
	ReduceTerm        SimulationResult `json:"reduceTerm"`
	ReduceInstallment SimulationResult `json:"reduceInstallment"`
}
