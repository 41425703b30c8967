package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/judica-dev/judica/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	criteriaSheet = "Criteria"

	// Filename is the suggested name for a downloaded workbook
	Filename = "judica-evaluation.xlsx"
	// ContentType is the MIME type of an xlsx workbook
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteEvaluation renders one evaluation as an xlsx workbook
func WriteEvaluation(w io.Writer, view models.ResultView, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(criteriaSheet); err != nil {
		return fmt.Errorf("failed to create criteria sheet: %w", err)
	}

	if err := createSummarySheet(f, view, generated); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createCriteriaSheet(f, view); err != nil {
		return fmt.Errorf("failed to create criteria sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

// createSummarySheet writes the verdict, category and rationale
func createSummarySheet(f *excelize.File, view models.ResultView, generated time.Time) error {
	f.SetColWidth(summarySheet, "A", "A", 22)
	f.SetColWidth(summarySheet, "B", "B", 80)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"10B981"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Vertical: "top"},
	})
	if err != nil {
		return err
	}

	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(summarySheet, "A1", "Judica Evaluation")
	f.SetCellStyle(summarySheet, "A1", "B1", headerStyle)
	f.MergeCell(summarySheet, "A1", "B1")

	rows := []struct {
		label string
		value string
	}{
		{"Category:", view.Category},
		{"Overall strength:", view.OverallStrength},
		{"Generated:", generated.Format("2006-01-02 15:04:05")},
		{"Rationale:", view.VerdictRationale},
	}

	row := 3
	for _, r := range rows {
		label := fmt.Sprintf("A%d", row)
		value := fmt.Sprintf("B%d", row)
		f.SetCellValue(summarySheet, label, r.label)
		f.SetCellStyle(summarySheet, label, label, labelStyle)
		f.SetCellValue(summarySheet, value, r.value)
		f.SetCellStyle(summarySheet, value, value, wrapStyle)
		row++
	}

	row++
	f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Note:")
	f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row),
		"Feedback only. This is not legal advice and does not predict case outcomes.")

	return nil
}

// createCriteriaSheet writes one row per criterion with its score band
func createCriteriaSheet(f *excelize.File, view models.ResultView) error {
	f.SetColWidth(criteriaSheet, "A", "A", 28)
	f.SetColWidth(criteriaSheet, "B", "C", 14)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"10B981"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	headers := []string{"Criterion", "Score (0-10)", "Band"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(criteriaSheet, cell, h)
	}
	f.SetCellStyle(criteriaSheet, "A1", "C1", headerStyle)

	for i, score := range view.Scores {
		row := i + 2
		f.SetCellValue(criteriaSheet, fmt.Sprintf("A%d", row), score.Label)
		if n, err := strconv.ParseFloat(score.Value, 64); err == nil {
			f.SetCellValue(criteriaSheet, fmt.Sprintf("B%d", row), n)
		} else {
			f.SetCellValue(criteriaSheet, fmt.Sprintf("B%d", row), score.Value)
		}
		f.SetCellValue(criteriaSheet, fmt.Sprintf("C%d", row), ScoreBand(score.Value))
	}

	return nil
}

// ScoreBand buckets a 0-10 criterion score; non-numeric values have no band
func ScoreBand(value string) string {
	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return ""
	}
	switch {
	case score >= 8:
		return "Strong"
	case score >= 5:
		return "Moderate"
	case score >= 3:
		return "Weak"
	default:
		return "Missing"
	}
}
