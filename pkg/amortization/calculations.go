// Package amortization generates loan payment schedules under the fixed
// installment (Price) and fixed amortization (SAC) conventions.
package amortization

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/mathutil"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput is returned for non-positive principal or term, negative
	// rates and unknown conventions.
	ErrInvalidInput = errors.New("invalid amortization input")

	// ErrInvariantViolation signals a schedule that breaks its own arithmetic
	// rules. It indicates a defect, not bad input.
	ErrInvariantViolation = errors.New("amortization invariant violated")
)

// Convention selects how each payment is split between interest and principal.
type Convention string

const (
	// FixedInstallment pays the same total every period (Price table).
	FixedInstallment Convention = "price"

	// FixedAmortization repays the same principal every period (SAC).
	FixedAmortization Convention = "sac"
)

// Conventions lists the supported conventions in display order.
var Conventions = []Convention{FixedInstallment, FixedAmortization}

// ParseConvention maps a case-insensitive name onto a Convention.
func ParseConvention(name string) (Convention, error) {
	switch Convention(strings.ToLower(strings.TrimSpace(name))) {
	case FixedInstallment:
		return FixedInstallment, nil
	case FixedAmortization:
		return FixedAmortization, nil
	}
	return "", fmt.Errorf("%w: unknown amortization convention %q, expected %s or %s",
		ErrInvalidInput, name, FixedInstallment, FixedAmortization)
}

// Description returns the human-readable name of the convention.
func (c Convention) Description() string {
	switch c {
	case FixedInstallment:
		return "fixed installment (Price)"
	case FixedAmortization:
		return "fixed amortization (SAC)"
	}
	return string(c)
}

// Line holds the values for a given payment period.
type Line struct {
	Period           int     `json:"period"`
	Payment          float64 `json:"payment"`
	Interest         float64 `json:"interest"`
	PrincipalPaid    float64 `json:"principalPaid"`
	RemainingBalance float64 `json:"remainingBalance"`
}

// Schedule is the ordered list of payment periods for one loan.
type Schedule []Line

// TotalInterest sums the interest charged over the whole schedule.
func (s Schedule) TotalInterest() float64 {
	total := 0.0
	for _, line := range s {
		total += line.Interest
	}
	return total
}

// TotalPrincipal sums the principal repaid over the whole schedule.
func (s Schedule) TotalPrincipal() float64 {
	total := 0.0
	for _, line := range s {
		total += line.PrincipalPaid
	}
	return total
}

// TotalPaid sums every payment of the schedule.
func (s Schedule) TotalPaid() float64 {
	total := 0.0
	for _, line := range s {
		total += line.Payment
	}
	return total
}

// Final returns the last line, or the zero Line for an empty schedule.
func (s Schedule) Final() Line {
	if len(s) == 0 {
		return Line{}
	}
	return s[len(s)-1]
}

// CalculateMonthlyPayment calculates the fixed installment for a loan using the
// standard annuity formula. monthlyRate is a decimal fraction.
func CalculateMonthlyPayment(principal, monthlyRate float64, termMonths int) float64 {
	if monthlyRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}
	return principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(termMonths)))
}

// CalculateInterestPayment calculates the interest accrued on a balance for one period.
func CalculateInterestPayment(balance, monthlyRate float64) float64 {
	return balance * monthlyRate
}

// ValidateInputs rejects inputs no convention can amortize.
func ValidateInputs(principal, monthlyRate float64, termMonths int) error {
	switch {
	case !mathutil.IsFinite(principal) || principal <= 0:
		return fmt.Errorf("%w: principal must be positive, got %v", ErrInvalidInput, principal)
	case !mathutil.IsFinite(monthlyRate) || monthlyRate < 0:
		return fmt.Errorf("%w: monthly rate must not be negative, got %v", ErrInvalidInput, monthlyRate)
	case termMonths <= 0:
		return fmt.Errorf("%w: term must be at least one month, got %d", ErrInvalidInput, termMonths)
	}
	return nil
}

// Generator builds schedules and reports drift corrections through its logger.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new generator instance
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Generate validates the inputs, builds the schedule for the given convention
// and verifies it before returning.
func (g *Generator) Generate(convention Convention, principal, monthlyRate float64, termMonths int) (Schedule, error) {
	if err := ValidateInputs(principal, monthlyRate, termMonths); err != nil {
		return nil, err
	}

	var schedule Schedule
	switch convention {
	case FixedInstallment:
		schedule = g.fixedInstallment(principal, monthlyRate, termMonths)
	case FixedAmortization:
		schedule = g.fixedAmortization(principal, monthlyRate, termMonths)
	default:
		_, err := ParseConvention(string(convention))
		return nil, err
	}

	if err := Verify(schedule, principal, termMonths); err != nil {
		g.logger.Error("generated schedule failed verification",
			zap.String("op", "amortization.Generate"),
			zap.String("convention", string(convention)),
			zap.Float64("principal", principal),
			zap.Float64("monthlyRate", monthlyRate),
			zap.Int("termMonths", termMonths),
			zap.Error(err),
		)
		return nil, err
	}
	return schedule, nil
}

func (g *Generator) fixedInstallment(principal, monthlyRate float64, termMonths int) Schedule {
	payment := CalculateMonthlyPayment(principal, monthlyRate, termMonths)
	schedule := make(Schedule, 0, termMonths)
	balance := principal

	for period := 1; period <= termMonths; period++ {
		interest := CalculateInterestPayment(balance, monthlyRate)
		principalPaid := payment - interest
		balance -= principalPaid

		if period == termMonths {
			// We will get machine error otherwise so just set to 0.
			if balance != 0 {
				g.logger.Debug(fmt.Sprintf("period %d: absorbing final balance drift of %g", period, balance),
					zap.String("op", "amortization.fixedInstallment"),
				)
			}
			balance = 0
		}

		schedule = append(schedule, Line{
			Period:           period,
			Payment:          payment,
			Interest:         interest,
			PrincipalPaid:    principalPaid,
			RemainingBalance: balance,
		})
	}
	return schedule
}

func (g *Generator) fixedAmortization(principal, monthlyRate float64, termMonths int) Schedule {
	principalPaid := principal / float64(termMonths)
	schedule := make(Schedule, 0, termMonths)
	balance := principal

	for period := 1; period <= termMonths; period++ {
		interest := CalculateInterestPayment(balance, monthlyRate)
		balance -= principalPaid

		// This convention does not reach zero by construction.
		if balance < constants.BalanceEpsilon {
			if balance != 0 && period != termMonths {
				g.logger.Debug(fmt.Sprintf("period %d: clamping balance %g to zero before final period", period, balance),
					zap.String("op", "amortization.fixedAmortization"),
				)
			}
			balance = 0
		}
		if period == termMonths && balance != 0 {
			g.logger.Debug(fmt.Sprintf("period %d: absorbing final balance drift of %g", period, balance),
				zap.String("op", "amortization.fixedAmortization"),
			)
			balance = 0
		}

		schedule = append(schedule, Line{
			Period:           period,
			Payment:          principalPaid + interest,
			Interest:         interest,
			PrincipalPaid:    principalPaid,
			RemainingBalance: balance,
		})
	}
	return schedule
}

// Verify checks the arithmetic invariants every generated schedule must hold.
func Verify(schedule Schedule, principal float64, termMonths int) error {
	if len(schedule) != termMonths {
		return fmt.Errorf("%w: schedule has %d periods, expected %d", ErrInvariantViolation, len(schedule), termMonths)
	}
	if final := schedule.Final(); final.RemainingBalance != 0 {
		return fmt.Errorf("%w: final balance is %v, expected exactly 0", ErrInvariantViolation, final.RemainingBalance)
	}

	tolerance := constants.FloatTolerance * mathutil.Max(1, principal)
	if total := schedule.TotalPrincipal(); !mathutil.WithinTolerance(total, principal, tolerance+float64(termMonths)*constants.BalanceEpsilon) {
		return fmt.Errorf("%w: principal paid sums to %v, expected %v", ErrInvariantViolation, total, principal)
	}

	previous := principal
	for i, line := range schedule {
		switch {
		case line.Period != i+1:
			return fmt.Errorf("%w: line %d carries period %d", ErrInvariantViolation, i+1, line.Period)
		case line.Interest < 0:
			return fmt.Errorf("%w: negative interest %v at period %d", ErrInvariantViolation, line.Interest, line.Period)
		case line.PrincipalPaid < -tolerance:
			return fmt.Errorf("%w: negative principal %v at period %d", ErrInvariantViolation, line.PrincipalPaid, line.Period)
		case line.RemainingBalance < 0:
			return fmt.Errorf("%w: negative balance %v at period %d", ErrInvariantViolation, line.RemainingBalance, line.Period)
		case line.RemainingBalance > previous+tolerance:
			return fmt.Errorf("%w: balance increased from %v to %v at period %d",
				ErrInvariantViolation, previous, line.RemainingBalance, line.Period)
		case !mathutil.WithinTolerance(line.Payment, line.Interest+line.PrincipalPaid, tolerance):
			return fmt.Errorf("%w: payment %v differs from interest plus principal at period %d",
				ErrInvariantViolation, line.Payment, line.Period)
		case !balanceFollows(previous, line, tolerance):
			return fmt.Errorf("%w: balance %v does not follow %v minus principal %v at period %d",
				ErrInvariantViolation, line.RemainingBalance, previous, line.PrincipalPaid, line.Period)
		}
		previous = line.RemainingBalance
	}
	return nil
}

// balanceFollows reports whether line's balance is the previous balance minus
// the principal paid. A zero balance may also absorb a clamped remainder.
func balanceFollows(previous float64, line Line, tolerance float64) bool {
	allowed := tolerance
	if line.RemainingBalance == 0 {
		allowed += constants.BalanceEpsilon
	}
	return mathutil.WithinTolerance(line.RemainingBalance, previous-line.PrincipalPaid, allowed)
}

// Generate builds a verified schedule without logging.
func Generate(convention Convention, principal, monthlyRate float64, termMonths int) (Schedule, error) {
	return NewGenerator(nil).Generate(convention, principal, monthlyRate, termMonths)
}
