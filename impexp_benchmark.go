package backtest

import (
	"fmt"
	"io"
	"os"

	"github.com/etnz/backtest/date"
)

var returnColumns = []string{"returns", "return", "change", "change %"}

// Benchmark holds the daily returns of a reference index, as fractions.
type Benchmark struct {
	returns date.History[float64]
}

// NewBenchmark returns an empty benchmark.
func NewBenchmark() *Benchmark { return new(Benchmark) }

// Append records the return of day, as a fraction (0.0123 for 1.23%).
func (b *Benchmark) Append(on date.Date, fraction float64) { b.returns.Append(on, fraction) }

// Return returns the return on day, if known.
func (b *Benchmark) Return(on date.Date) (float64, bool) {
	if b == nil {
		return 0, false
	}
	return b.returns.Get(on)
}

// Len returns the number of days with a known return.
func (b *Benchmark) Len() int {
	if b == nil {
		return 0
	}
	return b.returns.Len()
}

// DecodeBenchmark reads a CSV table with columns date and returns, where
// returns are percent strings like "1.23%".
func DecodeBenchmark(r io.Reader) (*Benchmark, error) {
	t, err := readCSVTable("benchmark", r)
	if err != nil {
		return nil, err
	}
	dateCol, err := t.column(dateColumns...)
	if err != nil {
		return nil, err
	}
	retCol, err := t.column(returnColumns...)
	if err != nil {
		return nil, err
	}

	b := NewBenchmark()
	for i, row := range t.rows {
		if blank(row) {
			continue
		}
		on, err := t.parseDate(cell(row, dateCol))
		if err != nil {
			return nil, t.errorf(i, "%w", err)
		}
		p, err := ParsePercent(cell(row, retCol))
		if err != nil {
			return nil, t.errorf(i, "%w", err)
		}
		b.Append(on, p.Fraction())
	}
	return b, nil
}

// LoadBenchmark reads a benchmark table file.
func LoadBenchmark(path string) (*Benchmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open benchmark %q: %w", path, err)
	}
	defer f.Close()
	b, err := DecodeBenchmark(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode benchmark %q: %w", path, err)
	}
	return b, nil
}
