package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ecorecovery/pkg/contracts/domain"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "hasil"

// WriteXLSX writes the records as a workbook with a single sheet. Numeric
// columns are stored as numbers so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, records []domain.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	cols := domain.Columns()
	headerRow := make([]interface{}, len(cols))
	for i, c := range cols {
		headerRow[i] = string(c)
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, rec := range records {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			if v, ok := rec.Number(c); ok {
				row[j] = v
				continue
			}
			row[j], _ = rec.Category(c)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
