// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/datetime"
	"github.com/iwvelando/loan-review/pkg/mathutil"
)

// ValidateContractedRate warns about monthly rates high enough to suggest a
// yearly rate was entered by mistake.
func ValidateContractedRate(monthlyRate float64) string {
	if monthlyRate > constants.HighMonthlyRate {
		return fmt.Sprintf("Contracted rate of %.2f%% a month is above %.0f%%; check that a yearly rate was not entered",
			mathutil.ToPercent(monthlyRate), mathutil.ToPercent(constants.HighMonthlyRate))
	}
	return ""
}

// ValidateTerm warns about terms longer than any consumer product on offer.
func ValidateTerm(termMonths int) string {
	if termMonths > constants.MaxTermMonths {
		return fmt.Sprintf("Term of %d months is longer than %d months", termMonths, constants.MaxTermMonths)
	}
	return ""
}

// ValidateContractDate checks that a reference rate can have been published
// for the contract month.
func ValidateContractDate(contractDate, now time.Time) []string {
	var warnings []string

	if datetime.MonthKey(contractDate) > datetime.MonthKey(now) {
		warnings = append(warnings, fmt.Sprintf("Contract date %s is in the future - no reference rate is published yet",
			datetime.FormatContractDate(contractDate)))
	} else if datetime.MonthKey(contractDate) == datetime.MonthKey(now) {
		warnings = append(warnings, fmt.Sprintf("Contract date %s is in the current month - the reference rate may not be published yet",
			datetime.FormatContractDate(contractDate)))
	}

	if contractDate.Before(constants.EarliestReferenceDate) {
		warnings = append(warnings, fmt.Sprintf("Contract date %s predates the reference series (%s)",
			datetime.FormatContractDate(contractDate), datetime.FormatContractDate(constants.EarliestReferenceDate)))
	}

	return warnings
}

// ValidateTolerance warns about tolerances beyond what courts usually accept.
func ValidateTolerance(label string, tolerance float64) string {
	if tolerance > constants.HighTolerance {
		return fmt.Sprintf("Thesis '%s' tolerance of %.0f%% is above %.0f%%",
			label, mathutil.ToPercent(tolerance), mathutil.ToPercent(constants.HighTolerance))
	}
	return ""
}

// ContractValidator collects warnings for a configured contract.
type ContractValidator struct {
	ContractDate   time.Time
	ContractedRate float64
	TermMonths     int
	Theses         []ThesisConfig
	Now            time.Time
}

// ThesisConfig is the part of a thesis the validator inspects.
type ThesisConfig struct {
	Label     string
	Tolerance float64
}

// ValidateAll validates the entire contract and returns warnings
func (cv *ContractValidator) ValidateAll() []string {
	var warnings []string

	now := cv.Now
	if now.IsZero() {
		now = time.Now()
	}

	if warning := ValidateContractedRate(cv.ContractedRate); warning != "" {
		warnings = append(warnings, warning)
	}
	if warning := ValidateTerm(cv.TermMonths); warning != "" {
		warnings = append(warnings, warning)
	}
	if !cv.ContractDate.IsZero() {
		warnings = append(warnings, ValidateContractDate(cv.ContractDate, now)...)
	}
	for _, thesis := range cv.Theses {
		if warning := ValidateTolerance(thesis.Label, thesis.Tolerance); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return warnings
}
