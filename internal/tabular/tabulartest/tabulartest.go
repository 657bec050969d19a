// Package tabulartest builds in-memory workbook fixtures for tests.
package tabulartest

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// XLSX builds a single-sheet workbook from rows. Row i is written to spreadsheet row i+1;
// nil or empty rows leave a gap.
func XLSX(t testing.TB, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name for row %d: %v", i+1, err)
		}
		values := row
		if err := f.SetSheetRow(sheet, ref, &values); err != nil {
			t.Fatalf("write row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// DateCell writes an Excel date serial with a date number format
type DateCell struct {
	Serial float64
}

// XLSXWithDates is XLSX but writes DateCell values as numbers styled as dates
func XLSXWithDates(t testing.TB, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("date style: %v", err)
	}
	for i, row := range rows {
		for j, v := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if d, ok := v.(DateCell); ok {
				if err := f.SetCellFloat(sheet, ref, d.Serial, -1, 64); err != nil {
					t.Fatalf("write date cell %s: %v", ref, err)
				}
				if err := f.SetCellStyle(sheet, ref, ref, style); err != nil {
					t.Fatalf("style date cell %s: %v", ref, err)
				}
				continue
			}
			if err := f.SetCellValue(sheet, ref, v); err != nil {
				t.Fatalf("write cell %s: %v", ref, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
