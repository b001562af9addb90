package abusiveness

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-review/pkg/amortization"
)

// ThesisResult is the outcome of one tolerance thesis.
type ThesisResult struct {
	Thesis                    Thesis                `json:"thesis"`
	LimitRate                 float64               `json:"limitRate"`
	FairRate                  float64               `json:"fairRate"`
	Schedule                  amortization.Schedule `json:"schedule"`
	TotalInterestRecalculated float64               `json:"totalInterestRecalculated"`
	AbusiveAmount             float64               `json:"abusiveAmount"`
}

// Report aggregates the original schedule and every thesis result of one evaluation.
type Report struct {
	Modality              string                  `json:"modality"`
	ContractDate          time.Time               `json:"contractDate"`
	Principal             float64                 `json:"principal"`
	ContractedRate        float64                 `json:"contractedRate"`
	TermMonths            int                     `json:"termMonths"`
	Convention            amortization.Convention `json:"amortization"`
	ReferenceRate         float64                 `json:"referenceRate"`
	OriginalSchedule      amortization.Schedule   `json:"originalSchedule"`
	OriginalTotalInterest float64                 `json:"originalTotalInterest"`
	Theses                []ThesisResult          `json:"theses"`
}

// ComparisonRow lines up one period of the original and recalculated schedules.
type ComparisonRow struct {
	Period               int     `json:"period"`
	OriginalPayment      float64 `json:"originalPayment"`
	OriginalInterest     float64 `json:"originalInterest"`
	RecalculatedPayment  float64 `json:"recalculatedPayment"`
	RecalculatedInterest float64 `json:"recalculatedInterest"`
	PaymentDifference    float64 `json:"paymentDifference"`
}

// Thesis finds the result for label.
func (r *Report) Thesis(label string) (ThesisResult, bool) {
	for _, result := range r.Theses {
		if result.Thesis.Label == label {
			return result, true
		}
	}
	return ThesisResult{}, false
}

// WithinTolerance reports whether the contracted rate is at or below the
// limit rate of the thesis. The second value is false for unknown labels.
func (r *Report) WithinTolerance(label string) (bool, bool) {
	result, ok := r.Thesis(label)
	if !ok {
		return false, false
	}
	return r.ContractedRate <= result.LimitRate, true
}

// TotalAbusive returns the abusive amount of the thesis, or 0 for unknown labels.
func (r *Report) TotalAbusive(label string) float64 {
	result, _ := r.Thesis(label)
	return result.AbusiveAmount
}

// Comparison returns the per-period comparison between the original schedule
// and the schedule recalculated under label.
func (r *Report) Comparison(label string) ([]ComparisonRow, error) {
	result, ok := r.Thesis(label)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownThesis, label)
	}

	rows := make([]ComparisonRow, 0, len(r.OriginalSchedule))
	for i, line := range r.OriginalSchedule {
		if i >= len(result.Schedule) {
			break
		}
		recalculated := result.Schedule[i]
		rows = append(rows, ComparisonRow{
			Period:               line.Period,
			OriginalPayment:      line.Payment,
			OriginalInterest:     line.Interest,
			RecalculatedPayment:  recalculated.Payment,
			RecalculatedInterest: recalculated.Interest,
			PaymentDifference:    line.Payment - recalculated.Payment,
		})
	}
	return rows, nil
}
