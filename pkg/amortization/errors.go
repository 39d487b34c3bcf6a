package amortization

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/mathutil"
)

// ErrInvalidInput is matched by every *InvalidInputError.
var ErrInvalidInput = errors.New("invalid loan input")

// ErrDegenerateAmortization means the original installment no longer covers
// the interest on the reduced balance. The engine recovers from it by
// treating the loan as paid off; it never reaches callers.
var ErrDegenerateAmortization = errors.New("installment does not cover interest on the reduced balance")

// InvalidInputError reports a rejected input before any period is computed.
type InvalidInputError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// Validate checks the loan parameters.
func (p LoanParameters) Validate() error {
	if !mathutil.IsFinite(p.Principal) || p.Principal <= 0 {
		return &InvalidInputError{Field: "principal", Value: p.Principal, Reason: "must be a positive amount"}
	}
	if !mathutil.IsFinite(p.MonthlyRate) || p.MonthlyRate <= 0 || p.MonthlyRate >= 1 {
		return &InvalidInputError{Field: "monthlyRate", Value: p.MonthlyRate, Reason: "must be within (0, 1)"}
	}
	if p.TermMonths < 1 || p.TermMonths > constants.MaxTermMonths {
		return &InvalidInputError{Field: "termMonths", Value: p.TermMonths,
			Reason: fmt.Sprintf("must be between 1 and %d", constants.MaxTermMonths)}
	}
	if p.System != SystemSAC && p.System != SystemPRICE {
		return &InvalidInputError{Field: "system", Value: p.System, Reason: "expected SAC or PRICE"}
	}
	// The annuity factor overflows long before the term cap for absurd rates.
	if p.System == SystemPRICE && math.IsInf(math.Pow(1+p.MonthlyRate, float64(p.TermMonths)), 0) {
		return &InvalidInputError{Field: "monthlyRate", Value: p.MonthlyRate, Reason: "too large for the requested term"}
	}
	return nil
}

// Validate checks the extra payment. A nil or zero payment is always valid
// and its strategy is ignored.
func (e *ExtraPayment) Validate() error {
	if e == nil {
		return nil
	}
	if !mathutil.IsFinite(e.Amount) || e.Amount < 0 {
		return &InvalidInputError{Field: "extraAmount", Value: e.Amount, Reason: "must not be negative"}
	}
	if e.Amount == 0 {
		return nil
	}
	if _, ok := reamortizers[e.Strategy]; !ok {
		return &InvalidInputError{Field: "strategy", Value: e.Strategy, Reason: "expected REDUCE_TERM or REDUCE_INSTALLMENT"}
	}
	return nil
}
