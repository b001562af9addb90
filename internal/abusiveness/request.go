// Package abusiveness compares a credit contract against the market-average
// reference rate and measures the interest charged above a fair rate under
// one or more tolerance theses.
package abusiveness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/loan-review/internal/ratesource"
	"github.com/iwvelando/loan-review/pkg/amortization"
	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/mathutil"
)

var (
	// ErrInvalidRequest wraps every request validation failure.
	ErrInvalidRequest = errors.New("invalid evaluation request")

	// ErrReferenceRateUnavailable means the contract could not be evaluated,
	// which is different from finding no abusiveness.
	ErrReferenceRateUnavailable = errors.New("reference rate unavailable")

	// ErrUnknownThesis is returned when a report has no thesis with the given label.
	ErrUnknownThesis = errors.New("unknown thesis")
)

// RateProvider looks up the monthly market-average rate for a modality in the
// month of the contract date. The rate is a decimal fraction.
type RateProvider interface {
	ReferenceRate(ctx context.Context, modality string, contractDate time.Time) (float64, error)
}

var _ RateProvider = (*ratesource.Client)(nil)

// Thesis is a named tolerance over the reference rate. A tolerance of 0.5
// accepts contracts up to 1.5 times the reference rate.
type Thesis struct {
	Label     string  `json:"label" mapstructure:"label" yaml:"label"`
	Tolerance float64 `json:"tolerance" mapstructure:"tolerance" yaml:"tolerance"`
}

// LimitRate is the highest rate the thesis accepts for referenceRate.
func (t Thesis) LimitRate(referenceRate float64) float64 {
	return referenceRate * (1 + t.Tolerance)
}

// DefaultTheses returns the zero and fifty percent tolerance theses.
func DefaultTheses() []Thesis {
	return []Thesis{
		{Label: constants.ZeroToleranceLabel, Tolerance: constants.ZeroTolerance},
		{Label: constants.FiftyPercentToleranceLabel, Tolerance: constants.FiftyPercentTolerance},
	}
}

// WithCustomTolerance returns a copy of theses (or the defaults when empty)
// with a thesis labelled "custom" for tolerance. An existing custom thesis is replaced.
func WithCustomTolerance(theses []Thesis, tolerance float64) []Thesis {
	if len(theses) == 0 {
		theses = DefaultTheses()
	}
	result := make([]Thesis, 0, len(theses)+1)
	for _, thesis := range theses {
		if thesis.Label == constants.CustomToleranceLabel {
			continue
		}
		result = append(result, thesis)
	}
	return append(result, Thesis{Label: constants.CustomToleranceLabel, Tolerance: tolerance})
}

// Request holds everything needed for one evaluation. It is passed by value
// and never modified by the comparator.
type Request struct {
	Modality       string                  `json:"modality"`
	ContractDate   time.Time               `json:"contractDate"`
	Principal      float64                 `json:"principal"`
	ContractedRate float64                 `json:"contractedRate"`
	TermMonths     int                     `json:"termMonths"`
	Convention     amortization.Convention `json:"amortization"`
	Theses         []Thesis                `json:"theses,omitempty"`
}

// EffectiveTheses returns a copy of the request theses, or the defaults when none were given.
func (r Request) EffectiveTheses() []Thesis {
	if len(r.Theses) == 0 {
		return DefaultTheses()
	}
	theses := make([]Thesis, len(r.Theses))
	copy(theses, r.Theses)
	return theses
}

// Validate checks the request before any lookup or schedule is computed.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Modality) == "" {
		return fmt.Errorf("%w: modality is required", ErrInvalidRequest)
	}
	if r.ContractDate.IsZero() {
		return fmt.Errorf("%w: contract date is required", ErrInvalidRequest)
	}
	if _, err := amortization.ParseConvention(string(r.Convention)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := amortization.ValidateInputs(r.Principal, r.ContractedRate, r.TermMonths); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	seen := make(map[string]bool)
	for i, thesis := range r.Theses {
		label := strings.TrimSpace(thesis.Label)
		if label == "" {
			return fmt.Errorf("%w: thesis %d has no label", ErrInvalidRequest, i+1)
		}
		if seen[label] {
			return fmt.Errorf("%w: duplicate thesis label %q", ErrInvalidRequest, label)
		}
		seen[label] = true
		if !mathutil.IsFinite(thesis.Tolerance) || thesis.Tolerance < 0 {
			return fmt.Errorf("%w: thesis %q tolerance must be a non-negative number, got %v",
				ErrInvalidRequest, label, thesis.Tolerance)
		}
	}
	return nil
}
