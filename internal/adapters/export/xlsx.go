package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/roundreport/pkg/metrics"
)

// ContentTypeXLSX is the media type of workbooks written by WriteXLSX.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNoTables is returned when WriteXLSX has nothing to write.
var ErrNoTables = errors.New("no tables to export")

// WriteXLSX writes each table to its own sheet: a title row, a bold header
// row, then the data.
func WriteXLSX(w io.Writer, tables ...Table) error {
	if len(tables) == 0 {
		return ErrNoTables
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, t := range tables {
		name := t.Sheet
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSheet(f, name, t, bold); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return err
	}
	metrics.RecordExport("xlsx")
	return nil
}

func writeSheet(f *excelize.File, sheet string, t Table, headerStyle int) error {
	if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
		return err
	}
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}
	if len(t.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Header), 2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A2", last, headerStyle); err != nil {
			return err
		}
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
