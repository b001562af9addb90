// Package testutil provides common utility functions for testing.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/iwvelando/loan-review/internal/abusiveness"
)

// FindThesis finds a thesis result by label in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindThesis(results []abusiveness.ThesisResult, label string) *abusiveness.ThesisResult {
	for i := range results {
		if results[i].Thesis.Label == label {
			return &results[i]
		}
	}
	return nil
}

// Lookup records one call made to a FixedRateProvider.
type Lookup struct {
	Modality     string
	ContractDate time.Time
}

// FixedRateProvider answers every lookup with Rate, or Err when set.
// It is safe for concurrent use.
type FixedRateProvider struct {
	Rate float64
	Err  error

	mu    sync.Mutex
	calls []Lookup
}

// NewFixedRateProvider returns a provider that always answers rate.
func NewFixedRateProvider(rate float64) *FixedRateProvider {
	return &FixedRateProvider{Rate: rate}
}

// NewFailingRateProvider returns a provider that always fails with err.
func NewFailingRateProvider(err error) *FixedRateProvider {
	return &FixedRateProvider{Err: err}
}

// ReferenceRate implements abusiveness.RateProvider.
func (p *FixedRateProvider) ReferenceRate(_ context.Context, modality string, contractDate time.Time) (float64, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Lookup{Modality: modality, ContractDate: contractDate})
	p.mu.Unlock()

	if p.Err != nil {
		return 0, p.Err
	}
	return p.Rate, nil
}

// Calls returns the lookups made so far.
func (p *FixedRateProvider) Calls() []Lookup {
	p.mu.Lock()
	defer p.mu.Unlock()
	calls := make([]Lookup, len(p.calls))
	copy(calls, p.calls)
	return calls
}
