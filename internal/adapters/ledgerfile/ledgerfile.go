// Package ledgerfile reads and writes ledgers as CSV files or XLSX workbooks.
package ledgerfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/roundreport/internal/domain/model"
	"github.com/okian/roundreport/pkg/metrics"
)

// Sheet is the worksheet WriteXLSX writes the ledger to.
const Sheet = "ledger"

// Parser decodes a ledger from raw file contents.
type Parser interface {
	Parse(data []byte) (model.Ledger, error)
}

// CSVParser parses comma-separated ledgers with a header row.
type CSVParser struct{}

// XLSXParser parses the first sheet of a workbook with a header row.
type XLSXParser struct{}

// ParserFor picks a parser by file extension.
func ParserFor(filename string) (Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return CSVParser{}, nil
	case ".xlsx":
		return XLSXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Load reads the ledger stored at path.
func Load(ctx context.Context, path string) (model.Ledger, error) {
	p, err := ParserFor(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	l, err := p.Parse(data)
	if err != nil {
		metrics.RecordErrorByComponent("ledgerfile", "parse")
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	metrics.RecordLedgerLoad(strings.TrimPrefix(filepath.Ext(path), "."), float64(time.Since(start).Milliseconds()))
	return l, nil
}

// Parse implements Parser.
func (CSVParser) Parse(data []byte) (model.Ledger, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return parseRows(rows)
}

// Parse implements Parser.
func (XLSXParser) Parse(data []byte) (model.Ledger, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// WriteCSV writes l as CSV with a header row.
func WriteCSV(w io.Writer, l model.Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range l {
		if err := cw.Write(formatRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes l as a single-sheet workbook.
func WriteXLSX(w io.Writer, l model.Ledger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(Sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", toCells(Header)); err != nil {
		return err
	}
	for i, r := range l {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(formatRow(r))); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

func toCells(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
