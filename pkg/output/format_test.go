package output

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/amortization"
	"github.com/iwvelando/loan-simulator/pkg/optimization"
)

func smallLoanResult(t *testing.T, name, system string, extra config.ExtraPayment) simulation.Result {
	t.Helper()
	scenario := config.Scenario{
		Name:   name,
		Active: true,
		Loan: config.Loan{
			Principal:           1200,
			MonthlyInterestRate: 1,
			Term:                12,
			System:              system,
			StartDate:           "2025-01-31",
			ExtraPayment:        extra,
		},
	}
	result, err := simulation.RunScenario(amortization.NewSimulator(nil), scenario, config.Defaults{})
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}
	return result
}

func TestPrettyFormat(t *testing.T) {
	results := []simulation.Result{
		smallLoanResult(t, "Test Scenario", "SAC", config.ExtraPayment{Amount: 300, Strategy: "REDUCE_TERM"}),
	}

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, results); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Results for scenario Test Scenario ---",
		"System: SAC | Financed: $1,200.00 | Monthly rate: 1.0000% | Term: 12 months",
		"ends the loan after 9 months instead of 12 (3 months sooner)",
		"Month | Due date   | Installment   | Interest      | Amortization  | Balance",
		"_____ | __________ | _____________ | _____________ | _____________ | _______",
		"    1 | 2025-02-28 |       $412.00 |        $12.00 |       $400.00 | $800.00",
		"    9 | 2025-10-31 |       $101.00 |         $1.00 |       $100.00 | $0.00",
	}
	for _, fragment := range expected {
		if !strings.Contains(output, fragment) {
			t.Errorf("PrettyFormat output missing %q\n%s", fragment, output)
		}
	}
	if strings.Contains(output, "   10 | ") {
		t.Errorf("PrettyFormat printed rows past the shortened term")
	}
}

func TestPrettyFormatWithoutStartDate(t *testing.T) {
	scenario := config.Scenario{
		Name:   "No dates",
		Active: true,
		Loan:   config.Loan{Principal: 1200, MonthlyInterestRate: 1, Term: 12, System: "PRICE"},
	}
	result, err := simulation.RunScenario(amortization.NewSimulator(nil), scenario, config.Defaults{})
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, []simulation.Result{result}); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if !strings.Contains(buf.String(), "    1 | ---------- |") {
		t.Errorf("expected a placeholder for unset due dates, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Without an extra payment the loan runs 12 months") {
		t.Errorf("expected the baseline summary, got %q", buf.String())
	}
}

func TestPrettyFormatOptimizationSummary(t *testing.T) {
	result := smallLoanResult(t, "Scenario A", "SAC", config.ExtraPayment{})
	result.Optimization = &optimization.Summary{
		Scenario:     "Scenario A",
		Target:       "term",
		Strategy:     "REDUCE_TERM",
		Goal:         9,
		Original:     12,
		Achieved:     9,
		Value:        300,
		ValueDisplay: "300.00",
		Iterations:   17,
		Converged:    true,
		Notes:        []string{"rounded up to the cent"},
	}

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, []simulation.Result{result}); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Optimization:") {
		t.Fatalf("expected optimization header in output, got %q", output)
	}
	if !strings.Contains(output, "term goal 9 months under REDUCE_TERM: extra payment $300.00 takes 12 months to 9 months (converged, 17 iterations)") {
		t.Fatalf("expected optimization detail line, got %q", output)
	}
	if !strings.Contains(output, "note: rounded up to the cent") {
		t.Fatalf("expected optimization note, got %q", output)
	}
}

// failingWriter accepts failAt writes and rejects every write after that.
type failingWriter struct {
	writes int
	failAt int
}

var errWriteFailed = errors.New("disk full")

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.writes >= f.failAt {
		return 0, errWriteFailed
	}
	f.writes++
	return len(p), nil
}

func TestPrettyFormatReportsEveryWriteError(t *testing.T) {
	optimized := smallLoanResult(t, "Optimized", "PRICE", config.ExtraPayment{})
	optimized.Optimization = &optimization.Summary{
		Scenario: "Optimized",
		Target:   "term",
		Strategy: "REDUCE_TERM",
		Goal:     9,
		Notes:    []string{"unable to reach the goal"},
	}
	results := []simulation.Result{
		smallLoanResult(t, "Plain", "SAC", config.ExtraPayment{Amount: 300, Strategy: "REDUCE_TERM"}),
		optimized,
	}

	counter := &failingWriter{failAt: math.MaxInt}
	if err := PrettyFormat(counter, results); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}

	for failAt := 0; failAt < counter.writes; failAt++ {
		w := &failingWriter{failAt: failAt}
		if err := PrettyFormat(w, results); !errors.Is(err, errWriteFailed) {
			t.Errorf("write %d of %d failed but PrettyFormat returned %v", failAt+1, counter.writes, err)
		}
	}
}

func TestPrettyFormatMultipleScenarios(t *testing.T) {
	results := []simulation.Result{
		smallLoanResult(t, "First", "SAC", config.ExtraPayment{}),
		smallLoanResult(t, "Second", "PRICE", config.ExtraPayment{}),
	}

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, results); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "--- Results for scenario First ---") || !strings.Contains(output, "--- Results for scenario Second ---") {
		t.Errorf("PrettyFormat missing scenario headers")
	}
	if !strings.Contains(output, "$0.00\n\n--- Results for scenario Second ---") {
		t.Errorf("expected a blank line between scenarios")
	}
	if strings.HasSuffix(output, "\n\n") {
		t.Errorf("unexpected trailing blank line")
	}
}

func TestPrettyFormatEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, nil); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestCsvFormat(t *testing.T) {
	results := []simulation.Result{
		smallLoanResult(t, "Scenario A", "SAC", config.ExtraPayment{Amount: 300, Strategy: "REDUCE_TERM"}),
		smallLoanResult(t, `Scenario "B"`, "PRICE", config.ExtraPayment{}),
	}

	output, err := CsvString(results)
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")

	// header + 9 shortened rows + 12 baseline rows
	if len(lines) != 1+9+12 {
		t.Fatalf("expected 22 lines, got %d", len(lines))
	}

	expectedHeader := `"scenario","system","strategy","month","dueDate","installment","interest","amortization","remainingBalance"`
	if lines[0] != expectedHeader {
		t.Errorf("unexpected header %s", lines[0])
	}
	if lines[1] != `"Scenario A","SAC","REDUCE_TERM","1","2025-02-28","412.00","12.00","400.00","800.00"` {
		t.Errorf("unexpected first row %s", lines[1])
	}
	if lines[9] != `"Scenario A","SAC","REDUCE_TERM","9","2025-10-31","101.00","1.00","100.00","0.00"` {
		t.Errorf("unexpected last row of scenario A %s", lines[9])
	}
	if !strings.HasPrefix(lines[10], `"Scenario ""B""","PRICE","","1","2025-02-28","106.62","12.00","94.62",`) {
		t.Errorf("unexpected first row of scenario B %s", lines[10])
	}
}

func TestCsvFormatEmptyResults(t *testing.T) {
	output, err := CsvString(nil)
	if err != nil {
		t.Fatalf("CsvString() error = %v", err)
	}
	if strings.Count(output, "\n") != 1 {
		t.Errorf("expected only the header, got %q", output)
	}
}

func TestJSONFormat(t *testing.T) {
	results := []simulation.Result{
		smallLoanResult(t, "Scenario A", "PRICE", config.ExtraPayment{Amount: 300, Strategy: "REDUCE_INSTALLMENT"}),
	}

	var buf bytes.Buffer
	if err := JSONFormat(&buf, results); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["name"] != "Scenario A" {
		t.Fatalf("unexpected decoded output %v", decoded)
	}
	sim, ok := decoded[0]["simulation"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing simulation object")
	}
	if sim["strategy"] != "REDUCE_INSTALLMENT" || sim["actualMonths"] != float64(12) {
		t.Errorf("unexpected simulation fields %v", sim)
	}
	if schedule, ok := sim["schedule"].([]interface{}); !ok || len(schedule) != 12 {
		t.Errorf("expected 12 schedule rows")
	}

	buf.Reset()
	if err := JSONFormat(&buf, nil); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected an empty array, got %q", buf.String())
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		system   string
		extra    config.ExtraPayment
		expected string
	}{
		{
			name:     "No extra payment",
			system:   "SAC",
			expected: "Without an extra payment the loan runs 12 months, starting at $112.00 a month, and costs $78.00 in interest.",
		},
		{
			name:     "Reduce term",
			system:   "SAC",
			extra:    config.ExtraPayment{Amount: 300, Strategy: "REDUCE_TERM"},
			expected: "An extra payment of $300.00 ends the loan after 9 months instead of 12 (3 months sooner) and saves $30.00 in interest.",
		},
		{
			name:     "Reduce installment",
			system:   "SAC",
			extra:    config.ExtraPayment{Amount: 300, Strategy: "REDUCE_INSTALLMENT"},
			expected: "An extra payment of $300.00 keeps the 12-month term, lowers the next installment by $30.27 to $80.73",
		},
		{
			name:     "Payoff",
			system:   "PRICE",
			extra:    config.ExtraPayment{Amount: 5000, Strategy: "REDUCE_TERM"},
			expected: "An extra payment of $1,105.38 settles the loan with the first installment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := smallLoanResult(t, tt.name, tt.system, tt.extra)
			if got := Summary(result.Simulation); !strings.HasPrefix(got, tt.expected) {
				t.Errorf("Summary() = %q, expected prefix %q", got, tt.expected)
			}
		})
	}
}
