package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/etnz/backtest/date"
	"github.com/xuri/excelize/v2"
)

// this file contains the tabular helpers shared by every import/export format.
// Tables are located by header names, in any column order and any case, so that
// files produced by spreadsheets or dataframes can be read as-is.

const utf8BOM = "\uFEFF"

// table is a header-indexed view of tabular rows.
type table struct {
	source string // file name or format, for error messages.
	// serialDates accepts Excel serial day numbers in date cells.
	serialDates bool
	cols   map[string]int
	rows   [][]string
}

// newTable uses the first row as header.
func newTable(source string, rows [][]string) (*table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", source)
	}
	t := &table{source: source, cols: make(map[string]int), rows: rows[1:]}
	for i, name := range rows[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, utf8BOM)))
		if _, exists := t.cols[name]; !exists && name != "" {
			t.cols[name] = i
		}
	}
	return t, nil
}

// readCSVTable reads a whole CSV document.
func readCSVTable(source string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: cannot read csv: %w", source, err)
	}
	return newTable(source, rows)
}

// readXLSXTable reads a sheet of a workbook, the first one when sheet is empty.
// Cells are read raw: dates are Excel serial numbers, see table.parseDate.
func readXLSXTable(source string, r io.Reader, sheet string) (*table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot open workbook: %w", source, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheet", source)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%s: cannot read sheet %q: %w", source, sheet, err)
	}
	t, err := newTable(fmt.Sprintf("%s[%s]", source, sheet), rows)
	if err != nil {
		return nil, err
	}
	t.serialDates = true
	return t, nil
}

// column returns the index of the first column matching one of the names.
func (t *table) column(names ...string) (int, error) {
	for _, name := range names {
		if i, ok := t.cols[name]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s: missing column %q", t.source, names[0])
}

// optionalColumn is like column but returns -1 when there is no such column.
func (t *table) optionalColumn(names ...string) int {
	i, err := t.column(names...)
	if err != nil {
		return -1
	}
	return i
}

// cell returns the trimmed cell value, or "" for short rows and missing columns.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// blank reports whether every cell of the row is empty.
func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// errorf formats an error located on the i-th data row (1-based line number, header included).
func (t *table) errorf(i int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %w", t.source, i+2, fmt.Errorf(format, args...))
}

// parseDate parses an ISO date cell, or an Excel serial date number in workbooks.
func (t *table) parseDate(s string) (date.Date, error) {
	d, err := date.Parse(s)
	if err == nil || !t.serialDates {
		return d, err
	}
	serial, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return date.Date{}, err
	}
	tm, ferr := excelize.ExcelDateToTime(serial, false)
	if ferr != nil {
		return date.Date{}, err
	}
	return date.FromTime(tm), nil
}
