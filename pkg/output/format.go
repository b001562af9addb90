// Package output provides utilities for formatting and displaying abusiveness reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/loan-review/internal/abusiveness"
	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/datetime"
	"github.com/iwvelando/loan-review/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Document is the machine-readable view of a report. WithinFiftyPercent is nil
// when the report has no fifty percent thesis.
type Document struct {
	Report             *abusiveness.Report         `json:"report"`
	ComparisonThesis   string                      `json:"comparisonThesis,omitempty"`
	Comparison         []abusiveness.ComparisonRow `json:"comparison,omitempty"`
	WithinFiftyPercent *bool                       `json:"withinFiftyPercent,omitempty"`
}

// NewDocument builds the document for report, comparing against the fifty
// percent thesis when the report has it and against the last thesis otherwise.
func NewDocument(report *abusiveness.Report) Document {
	doc := Document{Report: report}
	label := comparisonLabel(report)
	if label == "" {
		return doc
	}
	doc.ComparisonThesis = label
	doc.Comparison, _ = report.Comparison(label)
	if within, ok := report.WithinTolerance(constants.FiftyPercentToleranceLabel); ok {
		doc.WithinFiftyPercent = &within
	}
	return doc
}

func comparisonLabel(report *abusiveness.Report) string {
	if _, ok := report.Thesis(constants.FiftyPercentToleranceLabel); ok {
		return constants.FiftyPercentToleranceLabel
	}
	if len(report.Theses) == 0 {
		return ""
	}
	return report.Theses[len(report.Theses)-1].Thesis.Label
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(report *abusiveness.Report) {
	WritePretty(os.Stdout, report)
}

// WritePretty writes the human-readable report to w.
func WritePretty(w io.Writer, report *abusiveness.Report) {
	p := message.NewPrinter(language.BrazilianPortuguese)

	fmt.Fprintf(w, "--- Abusiveness report for %s ---\n", report.Modality)
	fmt.Fprintf(w, "Contract date           | %s\n", datetime.FormatContractDate(report.ContractDate))
	fmt.Fprintf(w, "Principal               | %s\n", format.Currency(report.Principal))
	fmt.Fprintf(w, "Term                    | %d months\n", report.TermMonths)
	fmt.Fprintf(w, "Amortization            | %s\n", report.Convention.Description())
	fmt.Fprintf(w, "Contracted rate         | %s a.m.\n", format.Percent(report.ContractedRate, 4))
	fmt.Fprintf(w, "Reference rate          | %s a.m.\n", format.Percent(report.ReferenceRate, 4))
	fmt.Fprintf(w, "Original total interest | %s\n", format.Currency(report.OriginalTotalInterest))
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Thesis                  | Limit rate | Fair rate  | Recalculated interest | Abusive amount\n")
	fmt.Fprintf(w, "______                  | __________ | _________  | _____________________ | ______________\n")
	for _, result := range report.Theses {
		fmt.Fprintf(w, "%-23s | %-10s | %-10s | %21s | %s\n",
			result.Thesis.Label,
			format.Percent(result.LimitRate, 4),
			format.Percent(result.FairRate, 4),
			format.Currency(result.TotalInterestRecalculated),
			format.Currency(result.AbusiveAmount),
		)
	}

	if within, ok := report.WithinTolerance(constants.FiftyPercentToleranceLabel); ok {
		fifty, _ := report.Thesis(constants.FiftyPercentToleranceLabel)
		if within {
			fmt.Fprintf(w, "\nThe contracted rate is within the %s limit of %s a.m.\n",
				constants.FiftyPercentToleranceLabel, format.Percent(fifty.LimitRate, 4))
		} else {
			fmt.Fprintf(w, "\nThe contracted rate exceeds the %s limit of %s a.m.\n",
				constants.FiftyPercentToleranceLabel, format.Percent(fifty.LimitRate, 4))
		}
	}

	label := comparisonLabel(report)
	rows, err := report.Comparison(label)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "\n--- Comparison with %s ---\n", label)
	fmt.Fprintf(w, "Period | Original payment | Original interest | Recalculated payment | Recalculated interest | Difference\n")
	fmt.Fprintf(w, "______ | ________________ | _________________ | ____________________ | _____________________ | __________\n")
	for _, row := range rows {
		_, _ = p.Fprintf(w, "%6d | R$ %13.2f | R$ %14.2f | R$ %17.2f | R$ %18.2f | R$ %.2f\n",
			row.Period, row.OriginalPayment, row.OriginalInterest,
			row.RecalculatedPayment, row.RecalculatedInterest, row.PaymentDifference)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(report *abusiveness.Report) error {
	return WriteCsv(os.Stdout, report)
}

// WriteCsv writes one row per period with the original schedule followed by
// the payment and interest of every thesis.
func WriteCsv(w io.Writer, report *abusiveness.Report) error {
	writer := csv.NewWriter(w)

	header := []string{"period", "original payment", "original interest", "original balance"}
	for _, result := range report.Theses {
		header = append(header,
			fmt.Sprintf("payment (%s)", result.Thesis.Label),
			fmt.Sprintf("interest (%s)", result.Thesis.Label),
		)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, line := range report.OriginalSchedule {
		record := []string{
			fmt.Sprintf("%d", line.Period),
			fmt.Sprintf("%.2f", line.Payment),
			fmt.Sprintf("%.2f", line.Interest),
			fmt.Sprintf("%.2f", line.RemainingBalance),
		}
		for _, result := range report.Theses {
			recalculated := result.Schedule[i]
			record = append(record,
				fmt.Sprintf("%.2f", recalculated.Payment),
				fmt.Sprintf("%.2f", recalculated.Interest),
			)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	totals := []string{"total", fmt.Sprintf("%.2f", report.OriginalSchedule.TotalPaid()),
		fmt.Sprintf("%.2f", report.OriginalTotalInterest), ""}
	for _, result := range report.Theses {
		totals = append(totals,
			fmt.Sprintf("%.2f", result.Schedule.TotalPaid()),
			fmt.Sprintf("%.2f", result.TotalInterestRecalculated),
		)
	}
	if err := writer.Write(totals); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

// CsvString returns the CSV rendering of report.
func CsvString(report *abusiveness.Report) (string, error) {
	var builder strings.Builder
	if err := WriteCsv(&builder, report); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// JSONFormat outputs the report document as indented JSON.
func JSONFormat(report *abusiveness.Report) error {
	return WriteJSON(os.Stdout, report)
}

// WriteJSON writes the report document to w.
func WriteJSON(w io.Writer, report *abusiveness.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(report))
}
