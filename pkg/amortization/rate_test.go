package amortization

import (
	"math"
	"testing"
)

func TestMonthlyRateFromAnnual(t *testing.T) {
	tests := []struct {
		name       string
		annualRate float64
		expected   float64
	}{
		{"Housing finance 9.5%", 0.095, 0.0075915343},
		{"Twelve percent", 0.12, 0.0094887929},
		{"One percent", 0.01, 0.0008295381},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MonthlyRateFromAnnual(tt.annualRate)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("MonthlyRateFromAnnual(%v) = %.10f, expected %.10f", tt.annualRate, result, tt.expected)
			}
		})
	}
}

func TestMonthlyRateIsNotFlatDivision(t *testing.T) {
	monthly := MonthlyRateFromAnnual(0.095)
	if monthly >= 0.095/12 {
		t.Errorf("compounded monthly rate %.6f should be below the flat rate %.6f", monthly, 0.095/12)
	}
}

func TestAnnualRateRoundTrip(t *testing.T) {
	for _, annual := range []float64{0.05, 0.095, 0.2} {
		got := AnnualRateFromMonthly(MonthlyRateFromAnnual(annual))
		if math.Abs(got-annual) > 1e-12 {
			t.Errorf("round trip of %v = %v", annual, got)
		}
	}
}

func TestCalculateInstallment(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		monthlyRate   float64
		periods       int
		expectedRange []float64
	}{
		{
			name:          "Twelve months at one percent",
			principal:     1200,
			monthlyRate:   0.01,
			periods:       12,
			expectedRange: []float64{106.61, 106.62},
		},
		{
			name:          "Thirty year housing loan",
			principal:     300000,
			monthlyRate:   MonthlyRateFromAnnual(0.095),
			periods:       360,
			expectedRange: []float64{2437.61, 2437.62},
		},
		{
			name:          "Single period repays principal plus interest",
			principal:     1000,
			monthlyRate:   0.01,
			periods:       1,
			expectedRange: []float64{1009.99, 1010.01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInstallment(tt.principal, tt.monthlyRate, tt.periods)
			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("CalculateInstallment() = %.4f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestCalculateInterest(t *testing.T) {
	if got := CalculateInterest(200000, 0.005); math.Abs(got-1000) > 1e-9 {
		t.Errorf("CalculateInterest() = %.2f, expected 1000.00", got)
	}
}

func TestRemainingTerm(t *testing.T) {
	tests := []struct {
		name     string
		system   System
		balance  float64
		rate     float64
		size     float64
		expected int
		wantErr  error
	}{
		{name: "SAC exact multiple", system: SystemSAC, balance: 800, rate: 0.01, size: 100, expected: 8},
		{name: "SAC partial period rounds up", system: SystemSAC, balance: 850, rate: 0.01, size: 100, expected: 9},
		{name: "SAC float residue does not add a period", system: SystemSAC, balance: 279166.6666666667, rate: 0.0076, size: 833.3333333333334, expected: 335},
		{name: "PRICE reduced balance", system: SystemPRICE, balance: 805.3815, rate: 0.01, size: 106.6185, expected: 8},
		{name: "Zero balance", system: SystemPRICE, balance: 0, rate: 0.01, size: 106.6185, expected: 0},
		{name: "PRICE installment below interest", system: SystemPRICE, balance: 20000, rate: 0.01, size: 150, wantErr: ErrDegenerateAmortization},
		{name: "PRICE installment equal to interest", system: SystemPRICE, balance: 10000, rate: 0.01, size: 100, wantErr: ErrDegenerateAmortization},
		{name: "SAC zero amortization", system: SystemSAC, balance: 800, rate: 0.01, size: 0, wantErr: ErrDegenerateAmortization},
		{name: "SAC negative amortization", system: SystemSAC, balance: 800, rate: 0.01, size: -100, wantErr: ErrDegenerateAmortization},
		{name: "PRICE negative installment", system: SystemPRICE, balance: 800, rate: 0.01, size: -100, wantErr: ErrDegenerateAmortization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemainingTerm(tt.system, tt.balance, tt.rate, tt.size)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("RemainingTerm() error = %v, expected %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RemainingTerm() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("RemainingTerm() = %d, expected %d", got, tt.expected)
			}
		})
	}
}
