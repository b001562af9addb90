package amortization

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestCalculateMonthlyPayment(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		monthlyRate   float64
		termMonths    int
		expectedRange []float64 // [min, max] expected range
	}{
		{
			name:          "Vehicle financing at 2.5% a month",
			principal:     50000,
			monthlyRate:   0.025,
			termMonths:    36,
			expectedRange: []float64{2122, 2123}, // Around $2122.58
		},
		{
			name:          "Personal credit at 1% a month",
			principal:     10000,
			monthlyRate:   0.01,
			termMonths:    12,
			expectedRange: []float64{888, 889}, // Around $888.49
		},
		{
			name:          "Zero interest loan",
			principal:     12000,
			monthlyRate:   0,
			termMonths:    60,
			expectedRange: []float64{200, 200},
		},
		{
			name:          "Single period",
			principal:     1000,
			monthlyRate:   0.02,
			termMonths:    1,
			expectedRange: []float64{1019.99, 1020.01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonthlyPayment(tt.principal, tt.monthlyRate, tt.termMonths)

			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("CalculateMonthlyPayment() = %.2f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name        string
		balance     float64
		monthlyRate float64
		expected    float64
	}{
		{"Vehicle financing first month", 50000, 0.025, 1250},
		{"Reference rate", 50000, 0.013, 650},
		{"Zero interest", 10000, 0, 0},
		{"Settled balance", 0, 0.03, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInterestPayment(tt.balance, tt.monthlyRate)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("CalculateInterestPayment() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestParseConvention(t *testing.T) {
	tests := []struct {
		input    string
		expected Convention
		wantErr  bool
	}{
		{"price", FixedInstallment, false},
		{"PRICE", FixedInstallment, false},
		{" Sac ", FixedAmortization, false},
		{"german", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			result, err := ParseConvention(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseConvention(%q) error = %v, expected ErrInvalidInput", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConvention(%q) error = %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseConvention(%q) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		convention  Convention
		principal   float64
		monthlyRate float64
		termMonths  int
	}{
		{"Zero term", FixedInstallment, 1000, 0.01, 0},
		{"Negative term", FixedAmortization, 1000, 0.01, -3},
		{"Negative rate", FixedInstallment, 1000, -0.01, 12},
		{"Zero principal", FixedAmortization, 0, 0.01, 12},
		{"Negative principal", FixedInstallment, -1000, 0.01, 12},
		{"NaN rate", FixedInstallment, 1000, math.NaN(), 12},
		{"Infinite principal", FixedAmortization, math.Inf(1), 0.01, 12},
		{"Unknown convention", Convention("bullet"), 1000, 0.01, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := Generate(tt.convention, tt.principal, tt.monthlyRate, tt.termMonths)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Generate() error = %v, expected ErrInvalidInput", err)
			}
			if schedule != nil {
				t.Errorf("Generate() returned %d lines alongside an error", len(schedule))
			}
		})
	}
}

// scheduleCases covers both conventions over ordinary and edge inputs.
var scheduleCases = []struct {
	name        string
	principal   float64
	monthlyRate float64
	termMonths  int
}{
	{"Contract from the consumer credit example", 50000, 0.025, 36},
	{"Reference rate recalculation", 50000, 0.013, 36},
	{"Long mortgage", 350000, 0.0085, 360},
	{"Single period", 1500, 0.04, 1},
	{"Zero rate", 12000, 0, 12},
	{"Odd principal", 60000.37, 0.028, 48},
	{"Tiny principal", 0.5, 0.02, 7},
	{"Large principal", 1e12, 0.02, 41},
	{"Very large principal", 1e14, 0.015, 420},
}

func TestScheduleInvariants(t *testing.T) {
	generator := NewGenerator(zap.NewNop())

	for _, convention := range Conventions {
		for _, tt := range scheduleCases {
			t.Run(fmt.Sprintf("%s/%s", convention, tt.name), func(t *testing.T) {
				schedule, err := generator.Generate(convention, tt.principal, tt.monthlyRate, tt.termMonths)
				if err != nil {
					t.Fatalf("Generate() error = %v", err)
				}

				if len(schedule) != tt.termMonths {
					t.Fatalf("Generate() produced %d lines, expected %d", len(schedule), tt.termMonths)
				}
				if final := schedule.Final(); final.RemainingBalance != 0 {
					t.Errorf("final balance = %v, expected exactly 0", final.RemainingBalance)
				}

				tolerance := 1e-6 * math.Max(1, tt.principal)
				if total := schedule.TotalPrincipal(); math.Abs(total-tt.principal) > tolerance {
					t.Errorf("sum of principal paid = %.6f, expected %.6f", total, tt.principal)
				}

				previous := tt.principal
				for i, line := range schedule {
					if line.Period != i+1 {
						t.Errorf("line %d has period %d", i, line.Period)
					}
					if line.Interest < 0 || line.PrincipalPaid < 0 {
						t.Errorf("period %d: negative component interest=%v principal=%v",
							line.Period, line.Interest, line.PrincipalPaid)
					}
					if line.RemainingBalance > previous {
						t.Errorf("period %d: balance increased from %.6f to %.6f",
							line.Period, previous, line.RemainingBalance)
					}
					if math.Abs(line.Payment-(line.Interest+line.PrincipalPaid)) > tolerance {
						t.Errorf("period %d: payment %.6f != interest %.6f + principal %.6f",
							line.Period, line.Payment, line.Interest, line.PrincipalPaid)
					}
					previous = line.RemainingBalance
				}
			})
		}
	}
}

func TestFixedInstallmentPaymentIsConstant(t *testing.T) {
	schedule, err := Generate(FixedInstallment, 50000, 0.025, 36)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	first := schedule[0].Payment
	for _, line := range schedule {
		if math.Abs(line.Payment-first) > 1e-9 {
			t.Errorf("period %d payment = %.6f, expected %.6f", line.Period, line.Payment, first)
		}
	}

	// Interest falls and principal grows as the balance is repaid.
	if schedule[0].Interest <= schedule[35].Interest {
		t.Errorf("first interest %.2f should exceed last interest %.2f", schedule[0].Interest, schedule[35].Interest)
	}
	if schedule[0].PrincipalPaid >= schedule[35].PrincipalPaid {
		t.Errorf("first principal %.2f should be below last principal %.2f",
			schedule[0].PrincipalPaid, schedule[35].PrincipalPaid)
	}
}

func TestFixedAmortizationPrincipalIsConstant(t *testing.T) {
	schedule, err := Generate(FixedAmortization, 12000, 0.01, 12)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, line := range schedule {
		if line.PrincipalPaid != 1000 {
			t.Errorf("period %d principal = %v, expected 1000", line.Period, line.PrincipalPaid)
		}
	}

	// Interest is charged on the declining balance: 120, 110, ..., 10.
	if math.Abs(schedule[0].Payment-1120) > 1e-9 {
		t.Errorf("first payment = %.2f, expected 1120.00", schedule[0].Payment)
	}
	if math.Abs(schedule[11].Payment-1010) > 1e-9 {
		t.Errorf("last payment = %.2f, expected 1010.00", schedule[11].Payment)
	}
	if total := schedule.TotalInterest(); math.Abs(total-780) > 1e-9 {
		t.Errorf("TotalInterest() = %.2f, expected 780.00", total)
	}
	if total := schedule.TotalPaid(); math.Abs(total-12780) > 1e-9 {
		t.Errorf("TotalPaid() = %.2f, expected 12780.00", total)
	}
}

func TestZeroRateSchedules(t *testing.T) {
	for _, convention := range Conventions {
		t.Run(string(convention), func(t *testing.T) {
			schedule, err := Generate(convention, 12000, 0, 12)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			for _, line := range schedule {
				if line.Interest != 0 {
					t.Errorf("period %d interest = %v, expected 0", line.Period, line.Interest)
				}
				if line.Payment != 1000 {
					t.Errorf("period %d payment = %v, expected 1000", line.Period, line.Payment)
				}
			}
			if total := schedule.TotalInterest(); total != 0 {
				t.Errorf("TotalInterest() = %v, expected 0", total)
			}
		})
	}
}

func TestFixedAmortizationClampsSmallBalance(t *testing.T) {
	// 0.0025 / 3 leaves a balance under the clamp threshold after period 2.
	schedule, err := Generate(FixedAmortization, 0.0025, 0.01, 3)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if schedule[1].RemainingBalance != 0 {
		t.Errorf("period 2 balance = %v, expected clamp to 0", schedule[1].RemainingBalance)
	}
	if schedule[2].RemainingBalance != 0 {
		t.Errorf("final balance = %v, expected 0", schedule[2].RemainingBalance)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	for _, convention := range Conventions {
		first, err := Generate(convention, 60000, 0.028, 48)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		second, err := Generate(convention, 60000, 0.028, 48)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("%s: period %d differs between runs: %+v vs %+v", convention, i+1, first[i], second[i])
			}
		}
	}
}

func TestVerifyDetectsViolations(t *testing.T) {
	valid := Schedule{
		{Period: 1, Payment: 60, Interest: 10, PrincipalPaid: 50, RemainingBalance: 50},
		{Period: 2, Payment: 55, Interest: 5, PrincipalPaid: 50, RemainingBalance: 0},
	}
	if err := Verify(valid, 100, 2); err != nil {
		t.Fatalf("Verify() on a valid schedule error = %v", err)
	}

	tests := []struct {
		name     string
		schedule Schedule
		term     int
	}{
		{"Wrong length", valid, 3},
		{"Non-zero final balance", Schedule{
			{Period: 1, Payment: 60, Interest: 10, PrincipalPaid: 50, RemainingBalance: 50},
			{Period: 2, Payment: 55, Interest: 5, PrincipalPaid: 49, RemainingBalance: 1},
		}, 2},
		{"Increasing balance", Schedule{
			{Period: 1, Payment: 10, Interest: 10, PrincipalPaid: 0, RemainingBalance: 120},
			{Period: 2, Payment: 132, Interest: 12, PrincipalPaid: 120, RemainingBalance: 0},
		}, 2},
		{"Components do not add up", Schedule{
			{Period: 1, Payment: 70, Interest: 10, PrincipalPaid: 50, RemainingBalance: 50},
			{Period: 2, Payment: 55, Interest: 5, PrincipalPaid: 50, RemainingBalance: 0},
		}, 2},
		{"Negative interest", Schedule{
			{Period: 1, Payment: 40, Interest: -10, PrincipalPaid: 50, RemainingBalance: 50},
			{Period: 2, Payment: 55, Interest: 5, PrincipalPaid: 50, RemainingBalance: 0},
		}, 2},
		{"Principal paid short of principal", Schedule{
			{Period: 1, Payment: 60, Interest: 10, PrincipalPaid: 50, RemainingBalance: 50},
			{Period: 2, Payment: 45, Interest: 5, PrincipalPaid: 40, RemainingBalance: 0},
		}, 2},
		{"Balance skips principal paid", Schedule{
			{Period: 1, Payment: 60, Interest: 10, PrincipalPaid: 50, RemainingBalance: 40},
			{Period: 2, Payment: 54, Interest: 4, PrincipalPaid: 50, RemainingBalance: 0},
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Verify(tt.schedule, 100, tt.term); !errors.Is(err, ErrInvariantViolation) {
				t.Errorf("Verify() error = %v, expected ErrInvariantViolation", err)
			}
		})
	}
}

func TestVerifyAllowsClampedRemainder(t *testing.T) {
	schedule := Schedule{
		{Period: 1, Payment: 60, Interest: 10, PrincipalPaid: 50, RemainingBalance: 50},
		{Period: 2, Payment: 54.9995, Interest: 5, PrincipalPaid: 49.9995, RemainingBalance: 0},
	}
	if err := Verify(schedule, 100, 2); err != nil {
		t.Errorf("Verify() error = %v, expected the clamped remainder to be accepted", err)
	}
}

func TestFixedAmortizationAbsorbsFinalDrift(t *testing.T) {
	generator := NewGenerator(zap.NewNop())
	principals := []float64{1e9, 1e10, 1e11, 1e12, 1e13, 1e14}

	for _, principal := range principals {
		for term := 1; term <= 420; term++ {
			schedule, err := generator.Generate(FixedAmortization, principal, 0.02, term)
			if err != nil {
				t.Fatalf("Generate(sac, %g, 0.02, %d) error = %v", principal, term, err)
			}
			if final := schedule.Final(); final.RemainingBalance != 0 {
				t.Fatalf("Generate(sac, %g, 0.02, %d) final balance = %v, expected exactly 0",
					principal, term, final.RemainingBalance)
			}
		}
	}
}
