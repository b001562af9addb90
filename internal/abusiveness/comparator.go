package abusiveness

import (
	"context"
	"fmt"

	"github.com/iwvelando/loan-review/pkg/amortization"
	"github.com/iwvelando/loan-review/pkg/mathutil"
	"go.uber.org/zap"
)

// Comparator evaluates contracts against a reference rate provider.
type Comparator struct {
	provider  RateProvider
	generator *amortization.Generator
	logger    *zap.Logger
}

// NewComparator creates a comparator backed by provider.
func NewComparator(logger *zap.Logger, provider RateProvider) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparator{
		provider:  provider,
		generator: amortization.NewGenerator(logger),
		logger:    logger,
	}
}

// Evaluate validates req, looks up the reference rate once and evaluates every
// thesis against the original schedule. When the rate cannot be obtained the
// error wraps ErrReferenceRateUnavailable and no report is returned.
func (c *Comparator) Evaluate(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	convention, _ := amortization.ParseConvention(string(req.Convention))

	referenceRate, err := c.referenceRate(ctx, req)
	if err != nil {
		return nil, err
	}

	original, err := c.generator.Generate(convention, req.Principal, req.ContractedRate, req.TermMonths)
	if err != nil {
		return nil, fmt.Errorf("original schedule: %w", err)
	}

	report := &Report{
		Modality:              req.Modality,
		ContractDate:          req.ContractDate,
		Principal:             req.Principal,
		ContractedRate:        req.ContractedRate,
		TermMonths:            req.TermMonths,
		Convention:            convention,
		ReferenceRate:         referenceRate,
		OriginalSchedule:      original,
		OriginalTotalInterest: original.TotalInterest(),
	}

	for _, thesis := range req.EffectiveTheses() {
		result, err := c.EvaluateThesis(convention, req, referenceRate, report.OriginalTotalInterest, thesis)
		if err != nil {
			return nil, err
		}
		report.Theses = append(report.Theses, result)
	}

	c.logger.Info(fmt.Sprintf("evaluated %s contract against reference rate %.4f%%",
		req.Modality, mathutil.ToPercent(referenceRate)),
		zap.String("op", "abusiveness.Evaluate"),
		zap.String("convention", string(convention)),
		zap.Int("theses", len(report.Theses)),
	)
	return report, nil
}

// EvaluateThesis recalculates the contract at the fair rate of one thesis.
// The fair rate never exceeds the contracted rate and the abusive amount is
// never negative.
func (c *Comparator) EvaluateThesis(convention amortization.Convention, req Request, referenceRate, originalInterest float64, thesis Thesis) (ThesisResult, error) {
	limit := thesis.LimitRate(referenceRate)
	fair := mathutil.Min(req.ContractedRate, limit)

	schedule, err := c.generator.Generate(convention, req.Principal, fair, req.TermMonths)
	if err != nil {
		return ThesisResult{}, fmt.Errorf("thesis %q: %w", thesis.Label, err)
	}

	recalculated := schedule.TotalInterest()
	result := ThesisResult{
		Thesis:                    thesis,
		LimitRate:                 limit,
		FairRate:                  fair,
		Schedule:                  schedule,
		TotalInterestRecalculated: recalculated,
		AbusiveAmount:             mathutil.Max(0, originalInterest-recalculated),
	}

	c.logger.Debug(fmt.Sprintf("thesis %s: fair rate %.4f%%, abusive amount %.2f",
		thesis.Label, mathutil.ToPercent(fair), result.AbusiveAmount),
		zap.String("op", "abusiveness.EvaluateThesis"),
	)
	return result, nil
}

func (c *Comparator) referenceRate(ctx context.Context, req Request) (float64, error) {
	if c.provider == nil {
		return 0, fmt.Errorf("%w: no provider configured", ErrReferenceRateUnavailable)
	}

	rate, err := c.provider.ReferenceRate(ctx, req.Modality, req.ContractDate)
	if err != nil {
		c.logger.Warn("reference rate lookup failed",
			zap.String("op", "abusiveness.referenceRate"),
			zap.String("modality", req.Modality),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: %w", ErrReferenceRateUnavailable, err)
	}
	if !mathutil.IsFinite(rate) || rate <= 0 {
		c.logger.Warn("reference rate provider returned an unusable rate",
			zap.String("op", "abusiveness.referenceRate"),
			zap.String("modality", req.Modality),
			zap.Float64("rate", rate),
		)
		return 0, fmt.Errorf("%w: provider returned %v for %s", ErrReferenceRateUnavailable, rate, req.Modality)
	}
	return rate, nil
}
