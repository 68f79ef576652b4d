package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const netValueSheet = "net_values"

var netValueColumns = []string{"net_value", "value"}

// EncodeNetValues writes the series as a CSV table with columns date and
// net_value, one row per day in ascending order. Values are written with full
// precision so that DecodeNetValues gives back the exact same series.
func EncodeNetValues(w io.Writer, s *NetValueSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "net_value"}); err != nil {
		return fmt.Errorf("cannot write net values header: %w", err)
	}
	for day, v := range s.Values() {
		if err := cw.Write([]string{day.String(), v.Exact()}); err != nil {
			return fmt.Errorf("cannot write net value on %s: %w", day, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeNetValues reads a table written by EncodeNetValues.
func DecodeNetValues(r io.Reader, currency string) (*NetValueSeries, error) {
	t, err := readCSVTable("net values", r)
	if err != nil {
		return nil, err
	}
	dateCol, err := t.column(dateColumns...)
	if err != nil {
		return nil, err
	}
	valueCol, err := t.column(netValueColumns...)
	if err != nil {
		return nil, err
	}

	s := new(NetValueSeries)
	for i, row := range t.rows {
		if blank(row) {
			continue
		}
		day, err := t.parseDate(cell(row, dateCol))
		if err != nil {
			return nil, t.errorf(i, "%w", err)
		}
		if last, _ := s.Last(); s.Len() > 0 && !last.Before(day) {
			return nil, t.errorf(i, "day %s is not after %s", day, last)
		}
		v, err := ParseMoney(cell(row, valueCol), currency)
		if err != nil {
			return nil, t.errorf(i, "invalid net value %q: %w", cell(row, valueCol), err)
		}
		s.h.Append(day, v)
	}
	return s, nil
}

// EncodeNetValuesXLSX writes the series as a single sheet workbook with the
// same columns as EncodeNetValues. Values are stored as spreadsheet numbers.
func EncodeNetValuesXLSX(w io.Writer, s *NetValueSeries) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), netValueSheet); err != nil {
		return fmt.Errorf("cannot name sheet: %w", err)
	}
	if err := f.SetSheetRow(netValueSheet, "A1", &[]any{"date", "net_value"}); err != nil {
		return fmt.Errorf("cannot write net values header: %w", err)
	}
	row := 2
	for day, v := range s.Values() {
		cellName, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(netValueSheet, cellName, &[]any{day.String(), v.Float64()}); err != nil {
			return fmt.Errorf("cannot write net value on %s: %w", day, err)
		}
		row++
	}
	return f.Write(w)
}

// SaveNetValues writes the series into path, as a workbook if path ends with
// .xlsx and as CSV otherwise.
func SaveNetValues(path string, s *NetValueSeries) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", path, err)
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		err = EncodeNetValuesXLSX(f, s)
	} else {
		err = EncodeNetValues(f, s)
	}
	if err != nil {
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	return f.Close()
}

// LoadNetValues reads a CSV net value table from path.
func LoadNetValues(path, currency string) (*NetValueSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open net values %q: %w", path, err)
	}
	defer f.Close()
	s, err := DecodeNetValues(f, currency)
	if err != nil {
		return nil, fmt.Errorf("cannot decode net values %q: %w", path, err)
	}
	return s, nil
}
