// Package report renders operational reports about live registration wizards.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"simreg/internal/domain"
)

// FunnelSheet is the name of the worksheet holding the funnel table.
const FunnelSheet = "Funnel"

var funnelHeader = []interface{}{"Step", "Screen", "Phase", "Wizards", "Share"}

// FunnelWorkbook builds a workbook with one row per wizard step. The caller
// must Close the returned file.
func FunnelWorkbook(rows []domain.FunnelRow, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), FunnelSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	if err := fillFunnel(f, rows, generatedAt); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func fillFunnel(f *excelize.File, rows []domain.FunnelRow, generatedAt time.Time) error {
	total := 0
	for _, r := range rows {
		total += r.Wizards
	}

	if err := f.SetCellValue(FunnelSheet, "A1", "Generated at"); err != nil {
		return err
	}
	if err := f.SetCellValue(FunnelSheet, "B1", generatedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := f.SetSheetRow(FunnelSheet, "A3", &funnelHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetCellStyle(FunnelSheet, "A3", "E3", bold); err != nil {
		return err
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return fmt.Errorf("creating percent style: %w", err)
	}

	for i, r := range rows {
		rowNum := i + 4
		share := 0.0
		if total > 0 {
			share = float64(r.Wizards) / float64(total)
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		values := []interface{}{int(r.Step), string(r.Screen), r.Step.Phase(), r.Wizards, share}
		if err := f.SetSheetRow(FunnelSheet, cell, &values); err != nil {
			return fmt.Errorf("writing step %d: %w", r.Step, err)
		}
		shareCell, _ := excelize.CoordinatesToCellName(5, rowNum)
		if err := f.SetCellStyle(FunnelSheet, shareCell, shareCell, pct); err != nil {
			return err
		}
	}

	totalRow := len(rows) + 4
	if err := f.SetCellValue(FunnelSheet, fmt.Sprintf("A%d", totalRow), "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(FunnelSheet, fmt.Sprintf("D%d", totalRow), total); err != nil {
		return err
	}
	return f.SetColWidth(FunnelSheet, "B", "B", 30)
}

// WriteFunnel writes the funnel workbook to w.
func WriteFunnel(w io.Writer, rows []domain.FunnelRow, generatedAt time.Time) error {
	f, err := FunnelWorkbook(rows, generatedAt)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing funnel workbook: %w", err)
	}
	return nil
}
