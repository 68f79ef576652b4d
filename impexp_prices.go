package backtest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// Column names accepted for price tables.
var (
	stockColumns  = []string{"stk_id", "stock_id", "stock", "ticker", "code"}
	dateColumns   = []string{"date", "trade_date", "day"}
	closeColumns  = []string{"close", "close_price"}
	factorColumns = []string{"cumadj", "cumulative_adjustment_factor", "adj_factor"}
	adjColumns    = []string{"adj_close", "adjusted_close"}
)

// DecodePrices reads a CSV price table into a market whose prices are in currency.
//
// The table has one row per (stock, date) with either an adjusted close column
// or both a close and a cumulative adjustment factor column; in the latter case
// adjusted close = close × factor. Rows without a close are suspended days and
// are skipped.
func DecodePrices(r io.Reader, currency string) (*Market, error) {
	t, err := readCSVTable("prices", r)
	if err != nil {
		return nil, err
	}
	return decodePriceTable(t, currency)
}

// DecodePricesXLSX is like DecodePrices for a workbook sheet (the first one if sheet is empty).
func DecodePricesXLSX(r io.Reader, sheet, currency string) (*Market, error) {
	t, err := readXLSXTable("prices", r, sheet)
	if err != nil {
		return nil, err
	}
	return decodePriceTable(t, currency)
}

// LoadPrices opens a price table file, CSV or XLSX depending on its extension.
func LoadPrices(path, currency string) (*Market, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open price table %q: %w", path, err)
	}
	defer f.Close()

	var m *Market
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		m, err = DecodePricesXLSX(f, "", currency)
	default:
		m, err = DecodePrices(f, currency)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot decode price table %q: %w", path, err)
	}
	return m, nil
}

func decodePriceTable(t *table, currency string) (*Market, error) {
	stockCol, err := t.column(stockColumns...)
	if err != nil {
		return nil, err
	}
	dateCol, err := t.column(dateColumns...)
	if err != nil {
		return nil, err
	}
	adjCol := t.optionalColumn(adjColumns...)
	closeCol, factorCol := -1, -1
	if adjCol < 0 {
		if closeCol, err = t.column(closeColumns...); err != nil {
			return nil, err
		}
		if factorCol, err = t.column(factorColumns...); err != nil {
			return nil, err
		}
	}

	m := NewMarket(currency)
	for i, row := range t.rows {
		if blank(row) {
			continue
		}
		stock := cell(row, stockCol)
		if stock == "" {
			return nil, t.errorf(i, "missing stock id")
		}
		on, err := t.parseDate(cell(row, dateCol))
		if err != nil {
			return nil, t.errorf(i, "%w", err)
		}

		var adj decimal.Decimal
		if adjCol >= 0 {
			s := cell(row, adjCol)
			if s == "" {
				continue
			}
			if adj, err = decimal.NewFromString(s); err != nil {
				return nil, t.errorf(i, "invalid adjusted close %q: %w", s, err)
			}
		} else {
			c, f := cell(row, closeCol), cell(row, factorCol)
			if c == "" {
				continue
			}
			closePrice, err := decimal.NewFromString(c)
			if err != nil {
				return nil, t.errorf(i, "invalid close %q: %w", c, err)
			}
			factor := decimal.NewFromInt(1)
			if f != "" {
				if factor, err = decimal.NewFromString(f); err != nil {
					return nil, t.errorf(i, "invalid adjustment factor %q: %w", f, err)
				}
			}
			adj = closePrice.Mul(factor)
		}
		if adj.IsNegative() {
			return nil, t.errorf(i, "negative price %s for %q", adj, stock)
		}
		m.Append(stock, on, adj)
	}
	return m, nil
}
