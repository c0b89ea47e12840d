package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/hourtree/internal/store"
)

const (
	sessionsSheet = "Sessions"
	totalsSheet   = "Totals"
)

// ToXLSX writes a workbook with a Sessions sheet, one row per session, and a
// Totals sheet with hours per project.
func ToXLSX(sessions []store.WorkSession, paths map[int64]string, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sessionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return fmt.Errorf("create totals sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	rs := rows(sessions, paths)

	if err := writeRow(f, sessionsSheet, 1, []any{"Project", "Project ID", "Start", "End", "Duration (s)", "Hours"}); err != nil {
		return err
	}
	for i, r := range rs {
		var pid any = ""
		if r.ProjectID != nil {
			pid = *r.ProjectID
		}
		values := []any{
			r.Project,
			pid,
			r.Start.Format("2006-01-02 15:04:05"),
			r.End.Format("2006-01-02 15:04:05"),
			r.Seconds,
			float64(r.Seconds) / 3600,
		}
		if err := writeRow(f, sessionsSheet, i+2, values); err != nil {
			return err
		}
	}

	if err := writeRow(f, totalsSheet, 1, []any{"Project", "Hours"}); err != nil {
		return err
	}
	for i, t := range totals(rs) {
		if err := writeRow(f, totalsSheet, i+2, []any{t.Project, float64(t.Seconds) / 3600}); err != nil {
			return err
		}
	}

	for _, sheet := range []string{sessionsSheet, totalsSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, "A", "A", 40); err != nil {
			return fmt.Errorf("size %s columns: %w", sheet, err)
		}
	}
	if err := f.SetColWidth(sessionsSheet, "B", "F", 20); err != nil {
		return fmt.Errorf("size %s columns: %w", sessionsSheet, err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx file: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
