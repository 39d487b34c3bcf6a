package amortization

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSimulate(t *testing.T) {
	start := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	rate := MonthlyRateFromAnnual(0.095)

	result, err := Simulate(300000, rate, 360, SystemSAC, start, 20000, StrategyReduceTerm)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if result.System != SystemSAC || result.Strategy != StrategyReduceTerm {
		t.Errorf("unexpected labels %s/%s", result.System, result.Strategy)
	}
	if result.TermMonths != 360 {
		t.Errorf("TermMonths = %d, expected 360", result.TermMonths)
	}
	if result.ActualMonths != 336 || result.MonthsEliminated != 24 {
		t.Errorf("ActualMonths = %d MonthsEliminated = %d, expected 336 and 24", result.ActualMonths, result.MonthsEliminated)
	}
	if math.Abs(result.InterestSaved-52761.16) > 0.01 {
		t.Errorf("InterestSaved = %.2f, expected 52761.16", result.InterestSaved)
	}
	if math.Abs(result.BaselineTotalInterest-411081.58) > 0.01 {
		t.Errorf("BaselineTotalInterest = %.2f, expected 411081.58", result.BaselineTotalInterest)
	}
	if math.Abs(result.TotalPaid-(300000+result.TotalInterest)) > 1e-6 {
		t.Errorf("TotalPaid %.2f should equal principal plus interest %.2f", result.TotalPaid, result.TotalInterest)
	}
	if result.ExtraApplied != 20000 {
		t.Errorf("ExtraApplied = %.2f, expected 20000", result.ExtraApplied)
	}
	if got := result.Schedule[0].DueDate; !got.Equal(time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first due date = %v, expected 2025-02-15", got)
	}
}

func TestSimulateWithoutExtraMatchesBaseline(t *testing.T) {
	for _, system := range []System{SystemSAC, SystemPRICE} {
		params := housingLoan(system)
		baseline := mustBaseline(t, params)

		result, err := Simulate(params.Principal, params.MonthlyRate, params.TermMonths, system, params.StartDate, 0, StrategyReduceTerm)
		if err != nil {
			t.Fatalf("%s: Simulate() error = %v", system, err)
		}
		if result.Strategy != "" {
			t.Errorf("%s: strategy should be empty without an extra payment, got %s", system, result.Strategy)
		}
		if result.InterestSaved != 0 || result.MonthsEliminated != 0 || result.InstallmentReduction != 0 {
			t.Errorf("%s: expected zero savings, got %+v", system, result)
		}
		if len(result.Schedule) != len(baseline.Schedule) {
			t.Fatalf("%s: expected %d rows, got %d", system, len(baseline.Schedule), len(result.Schedule))
		}
		for i := range baseline.Schedule {
			if result.Schedule[i] != baseline.Schedule[i] {
				t.Fatalf("%s: row %d differs from baseline", system, i+1)
			}
		}
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	params := housingLoan(SystemPRICE)
	extra := &ExtraPayment{Amount: 12345.67, Strategy: StrategyReduceInstallment}
	simulator := NewSimulator(nil)

	first, err := simulator.Run(params, extra)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var wg sync.WaitGroup
	results := make([]SimulationResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = simulator.Run(params, extra)
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		if result.TotalInterest != first.TotalInterest || len(result.Schedule) != len(first.Schedule) {
			t.Errorf("run %d differs: interest %.6f rows %d", i, result.TotalInterest, len(result.Schedule))
		}
	}
}

func TestSimulateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		term      int
		system    System
		extra     float64
		strategy  Strategy
		field     string
	}{
		{"Zero principal", 0, 0.01, 12, SystemSAC, 0, "", "principal"},
		{"Zero rate", 1000, 0, 12, SystemSAC, 0, "", "monthlyRate"},
		{"Zero term", 1000, 0.01, 0, SystemSAC, 0, "", "termMonths"},
		{"Unknown system", 1000, 0.01, 12, "GERMAN", 0, "", "system"},
		{"Negative extra", 1000, 0.01, 12, SystemSAC, -5, StrategyReduceTerm, "extraAmount"},
		{"Extra without strategy", 1000, 0.01, 12, SystemPRICE, 50, "", "strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.principal, tt.rate, tt.term, tt.system, time.Time{}, tt.extra, tt.strategy)
			var inputErr *InvalidInputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected *InvalidInputError, got %v", err)
			}
			if inputErr.Field != tt.field {
				t.Errorf("error field = %s, expected %s", inputErr.Field, tt.field)
			}
		})
	}
}

func TestSimulatorLogsRun(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	simulator := NewSimulator(zap.New(core))

	if _, err := simulator.Run(smallLoan(SystemSAC), &ExtraPayment{Amount: 5000, Strategy: StrategyReduceTerm}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if logs.FilterMessage("capping extra payment to the outstanding balance").Len() != 1 {
		t.Error("expected the extra payment cap to be logged")
	}
	entries := logs.FilterMessage("simulation computed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one summary log entry, got %d", len(entries))
	}
	if op := entries[0].ContextMap()["op"]; op != "amortization.Run" {
		t.Errorf("op field = %v, expected amortization.Run", op)
	}
}

func TestCompareStrategies(t *testing.T) {
	for _, system := range []System{SystemSAC, SystemPRICE} {
		comparison, err := CompareStrategies(housingLoan(system), 20000)
		if err != nil {
			t.Fatalf("%s: CompareStrategies() error = %v", system, err)
		}
		term, installment := comparison.ReduceTerm, comparison.ReduceInstallment
		if term.Strategy != StrategyReduceTerm || installment.Strategy != StrategyReduceInstallment {
			t.Errorf("%s: unexpected strategies %s/%s", system, term.Strategy, installment.Strategy)
		}
		if term.InterestSaved <= installment.InterestSaved {
			t.Errorf("%s: reducing the term should save more interest (%.2f <= %.2f)",
				system, term.InterestSaved, installment.InterestSaved)
		}
		if installment.ActualMonths != 360 || term.ActualMonths >= 360 {
			t.Errorf("%s: unexpected terms %d/%d", system, term.ActualMonths, installment.ActualMonths)
		}
		if installment.InstallmentReduction <= 0 {
			t.Errorf("%s: InstallmentReduction = %.2f, expected positive", system, installment.InstallmentReduction)
		}
		if term.FirstInstallment != installment.FirstInstallment {
			t.Errorf("%s: both strategies share the same baseline", system)
		}
	}

	if _, err := CompareStrategies(LoanParameters{}, 100); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty parameters, got %v", err)
	}
}

func TestParseSystem(t *testing.T) {
	tests := []struct {
		input    string
		expected System
		wantErr  bool
	}{
		{"SAC", SystemSAC, false},
		{" sac ", SystemSAC, false},
		{"price", SystemPRICE, false},
		{"French", SystemPRICE, false},
		{"GERMAN", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSystem(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSystem(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseSystem(%q) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{"REDUCE_TERM", StrategyReduceTerm, false},
		{"reduce-term", StrategyReduceTerm, false},
		{"term", StrategyReduceTerm, false},
		{"REDUCE_INSTALLMENT", StrategyReduceInstallment, false},
		{"Installment", StrategyReduceInstallment, false},
		{"REDUCE_RATE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseStrategy(%q) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}

func BenchmarkSimulate(b *testing.B) {
	params := housingLoan(SystemPRICE)
	extra := &ExtraPayment{Amount: 20000, Strategy: StrategyReduceTerm}
	simulator := NewSimulator(nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := simulator.Run(params, extra); err != nil {
			b.Fatal(err)
		}
	}
}
