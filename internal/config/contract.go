package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/loan-review/internal/abusiveness"
	"github.com/iwvelando/loan-review/pkg/amortization"
	"github.com/iwvelando/loan-review/pkg/datetime"
	"github.com/iwvelando/loan-review/pkg/format"
	"github.com/iwvelando/loan-review/pkg/mathutil"
	"github.com/iwvelando/loan-review/pkg/validation"
)

// Request converts the configured contract and theses into an evaluation
// request. Percentages become decimal fractions.
func (c *Configuration) Request() (abusiveness.Request, error) {
	contract := c.Contract

	contractDate, err := datetime.ParseContractDate(contract.ContractDate)
	if err != nil {
		return abusiveness.Request{}, fmt.Errorf("%w: %w", abusiveness.ErrInvalidRequest, err)
	}

	principal, err := format.ParseCurrency(contract.Principal)
	if err != nil {
		return abusiveness.Request{}, fmt.Errorf("%w: principal: %w", abusiveness.ErrInvalidRequest, err)
	}

	convention, err := amortization.ParseConvention(contract.Amortization)
	if err != nil {
		return abusiveness.Request{}, fmt.Errorf("%w: %w", abusiveness.ErrInvalidRequest, err)
	}

	req := abusiveness.Request{
		Modality:       strings.TrimSpace(contract.Modality),
		ContractDate:   contractDate,
		Principal:      principal,
		ContractedRate: mathutil.FromPercent(contract.ContractedRate),
		TermMonths:     contract.TermMonths,
		Convention:     convention,
		Theses:         c.theses(),
	}
	if err := req.Validate(); err != nil {
		return abusiveness.Request{}, err
	}
	return req, nil
}

func (c *Configuration) theses() []abusiveness.Thesis {
	var theses []abusiveness.Thesis
	for _, thesis := range c.Theses.List {
		theses = append(theses, abusiveness.Thesis{
			Label:     strings.TrimSpace(thesis.Label),
			Tolerance: mathutil.FromPercent(thesis.Tolerance),
		})
	}
	if c.Theses.CustomTolerance != nil {
		theses = abusiveness.WithCustomTolerance(theses, mathutil.FromPercent(*c.Theses.CustomTolerance))
	}
	return theses
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ContractValidator{
		ContractedRate: mathutil.FromPercent(c.Contract.ContractedRate),
		TermMonths:     c.Contract.TermMonths,
	}
	if date, err := datetime.ParseContractDate(c.Contract.ContractDate); err == nil {
		validator.ContractDate = date
	}
	for _, thesis := range c.theses() {
		validator.Theses = append(validator.Theses, validation.ThesisConfig{
			Label:     thesis.Label,
			Tolerance: thesis.Tolerance,
		})
	}

	return validator.ValidateAll()
}
