package excel

import (
	"fmt"
	"io"

	"carprice/domain/car"

	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name used for exported subsets.
const ExportSheet = "Cars"

// WriteRecords writes records as an XLSX workbook with one header row.
// Undefined numbers are written as empty cells.
func WriteRecords(w io.Writer, records []car.Record, fields []car.Field) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("failed to name export sheet: %w", err)
	}

	header := make([]interface{}, len(fields))
	for i, field := range fields {
		header[i] = string(field)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	kinds := make([]car.Kind, len(fields))
	for i, field := range fields {
		if col, ok := car.Lookup(field); ok {
			kinds[i] = col.Kind
		}
	}

	for i, rec := range records {
		row := make([]interface{}, len(fields))
		for j, field := range fields {
			if kinds[j] == car.Numeric {
				if v, ok := rec.Number(field).Float(); ok {
					row[j] = v
				}
				continue
			}
			row[j] = rec.Category(field)
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if len(fields) > 0 {
		last, err := excelize.CoordinatesToCellName(len(fields), 1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(ExportSheet, "A1:"+last, nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportFields lists the columns written by an export, in catalog order.
func ExportFields() []car.Field {
	fields := make([]car.Field, 0, len(car.Columns))
	for _, c := range car.Columns {
		fields = append(fields, c.Field)
	}
	return fields
}
