package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/loan-review/internal/abusiveness"
	"github.com/iwvelando/loan-review/pkg/datetime"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook.
const (
	SummarySheet    = "Summary"
	ScheduleSheet   = "Schedule"
	ComparisonSheet = "Comparison"
)

// builtin excelize number formats
const (
	numFmtCurrency = 4  // #,##0.00
	numFmtPercent  = 10 // 0.00%
)

type workbook struct {
	file    *excelize.File
	header  int
	money   int
	percent int
}

// XLSXFormat writes the report workbook to path.
func XLSXFormat(report *abusiveness.Report, path string) error {
	book, err := newWorkbook(report)
	if err != nil {
		return err
	}
	defer func() { _ = book.file.Close() }()

	if err := book.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteXLSX writes the report workbook to w.
func WriteXLSX(w io.Writer, report *abusiveness.Report) error {
	book, err := newWorkbook(report)
	if err != nil {
		return err
	}
	defer func() { _ = book.file.Close() }()

	if err := book.file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func newWorkbook(report *abusiveness.Report) (*workbook, error) {
	file := excelize.NewFile()
	book := &workbook{file: file}

	var err error
	if book.header, err = file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	}); err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if book.money, err = file.NewStyle(&excelize.Style{NumFmt: numFmtCurrency}); err != nil {
		return nil, fmt.Errorf("failed to create currency style: %w", err)
	}
	if book.percent, err = file.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return nil, fmt.Errorf("failed to create percent style: %w", err)
	}

	if err := file.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	for _, build := range []func(*abusiveness.Report) error{book.summary, book.schedule, book.comparison} {
		if err := build(report); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return book, nil
}

func (b *workbook) summary(report *abusiveness.Report) error {
	rows := [][]interface{}{
		{"Modality", report.Modality},
		{"Contract date", datetime.FormatContractDate(report.ContractDate)},
		{"Principal", report.Principal},
		{"Term (months)", report.TermMonths},
		{"Amortization", report.Convention.Description()},
		{"Contracted rate", report.ContractedRate},
		{"Reference rate", report.ReferenceRate},
		{"Original total interest", report.OriginalTotalInterest},
	}
	for i, row := range rows {
		if err := b.setRow(SummarySheet, 1, i+1, row); err != nil {
			return err
		}
	}
	if err := b.style(SummarySheet, "B3", "B3", b.money); err != nil {
		return err
	}
	if err := b.style(SummarySheet, "B6", "B7", b.percent); err != nil {
		return err
	}
	if err := b.style(SummarySheet, "B8", "B8", b.money); err != nil {
		return err
	}

	start := len(rows) + 2
	if err := b.headerRow(SummarySheet, start,
		"Thesis", "Tolerance", "Limit rate", "Fair rate", "Recalculated interest", "Abusive amount", "Within limit"); err != nil {
		return err
	}
	for i, result := range report.Theses {
		within, _ := report.WithinTolerance(result.Thesis.Label)
		row := start + 1 + i
		if err := b.setRow(SummarySheet, 1, row, []interface{}{
			result.Thesis.Label, result.Thesis.Tolerance, result.LimitRate, result.FairRate,
			result.TotalInterestRecalculated, result.AbusiveAmount, within,
		}); err != nil {
			return err
		}
		if err := b.style(SummarySheet, cell(2, row), cell(4, row), b.percent); err != nil {
			return err
		}
		if err := b.style(SummarySheet, cell(5, row), cell(6, row), b.money); err != nil {
			return err
		}
	}
	return b.file.SetColWidth(SummarySheet, "A", "G", 24)
}

func (b *workbook) schedule(report *abusiveness.Report) error {
	if _, err := b.file.NewSheet(ScheduleSheet); err != nil {
		return err
	}
	if err := b.headerRow(ScheduleSheet, 1, "Period", "Payment", "Interest", "Principal", "Balance"); err != nil {
		return err
	}
	for i, line := range report.OriginalSchedule {
		if err := b.setRow(ScheduleSheet, 1, i+2, []interface{}{
			line.Period, line.Payment, line.Interest, line.PrincipalPaid, line.RemainingBalance,
		}); err != nil {
			return err
		}
	}
	if len(report.OriginalSchedule) > 0 {
		last := len(report.OriginalSchedule) + 1
		if err := b.style(ScheduleSheet, "B2", cell(5, last), b.money); err != nil {
			return err
		}
	}
	return b.finishTable(ScheduleSheet, "E")
}

func (b *workbook) comparison(report *abusiveness.Report) error {
	label := comparisonLabel(report)
	rows, err := report.Comparison(label)
	if err != nil {
		return nil
	}
	if _, err := b.file.NewSheet(ComparisonSheet); err != nil {
		return err
	}
	if err := b.headerRow(ComparisonSheet, 1, "Period", "Original payment", "Original interest",
		fmt.Sprintf("Payment (%s)", label), fmt.Sprintf("Interest (%s)", label), "Difference"); err != nil {
		return err
	}
	for i, row := range rows {
		if err := b.setRow(ComparisonSheet, 1, i+2, []interface{}{
			row.Period, row.OriginalPayment, row.OriginalInterest,
			row.RecalculatedPayment, row.RecalculatedInterest, row.PaymentDifference,
		}); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := b.style(ComparisonSheet, "B2", cell(6, len(rows)+1), b.money); err != nil {
			return err
		}
	}
	return b.finishTable(ComparisonSheet, "F")
}

func (b *workbook) headerRow(sheet string, row int, titles ...string) error {
	values := make([]interface{}, len(titles))
	for i, title := range titles {
		values[i] = title
	}
	if err := b.setRow(sheet, 1, row, values); err != nil {
		return err
	}
	return b.style(sheet, cell(1, row), cell(len(titles), row), b.header)
}

func (b *workbook) setRow(sheet string, col, row int, values []interface{}) error {
	return b.file.SetSheetRow(sheet, cell(col, row), &values)
}

func (b *workbook) style(sheet, from, to string, style int) error {
	return b.file.SetCellStyle(sheet, from, to, style)
}

func (b *workbook) finishTable(sheet, lastCol string) error {
	if err := b.file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return b.file.SetColWidth(sheet, "A", lastCol, 20)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
