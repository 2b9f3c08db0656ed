package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/playground/internal/concept"
)

const reportSheet = "Progress"

// WriteReport renders snap as an XLSX workbook: one row per concept, then a
// summary row. label maps a concept key to its display title; nil uses
// concept.DisplayName.
func WriteReport(w io.Writer, snap Snapshot, label func(key string) string) error {
	if label == nil {
		label = concept.DisplayName
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("naming report sheet: %w", err)
	}

	header := []any{"Concept", "Key", "Completed", "Completed At"}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating report style: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, "A1", "D1", bold); err != nil {
		return fmt.Errorf("styling report header: %w", err)
	}

	row := 2
	for _, c := range snap.Concepts {
		completedAt := ""
		if c.Completed {
			completedAt = c.CompletedAt.Format(time.DateTime)
		}
		values := []any{label(c.Key), c.Key, yesNo(c.Completed), completedAt}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return fmt.Errorf("writing report row %d: %w", row, err)
		}
		row++
	}

	row++
	summary := []any{
		concept.DisplayName(snap.Topic),
		fmt.Sprintf("%.0f%% complete", snap.Ratio*100),
		fmt.Sprintf("score %d", snap.Score),
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(reportSheet, cell, &summary); err != nil {
		return fmt.Errorf("writing report summary: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, cell, cell, bold); err != nil {
		return fmt.Errorf("styling report summary: %w", err)
	}

	if err := f.SetColWidth(reportSheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(reportSheet, "D", "D", 20); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
