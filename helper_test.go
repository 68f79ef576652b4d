package backtest

import (
	"testing"

	"github.com/etnz/backtest/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// CNY is a helper for test to create yuan money from const.
func CNY(v float64) Money { return M(v, "CNY") }

// Trading days of the test market: a Monday to Friday week, then the next Monday.
var (
	day1 = date.MustParse("2024-01-02")
	day2 = date.MustParse("2024-01-03")
	day3 = date.MustParse("2024-01-04")
	day4 = date.MustParse("2024-01-05")
	day5 = date.MustParse("2024-01-08")

	week = date.Range{From: day1, To: day5}
)

// testMarket returns a market where A trades every day and B is suspended on
// day3 and day4.
func testMarket() *Market {
	m := NewMarket("CNY")
	for i, p := range []float64{50, 52, 55, 58, 60} {
		m.Append("A", []date.Date{day1, day2, day3, day4, day5}[i], decimal.NewFromFloat(p))
	}
	m.Append("B", day1, decimal.NewFromInt(10))
	m.Append("B", day2, decimal.NewFromInt(11))
	m.Append("B", day5, decimal.NewFromInt(12))
	return m
}

// assertMoney compares money values, which are not comparable with ==.
func assertMoney(t *testing.T, want, got Money, msgAndArgs ...any) bool {
	t.Helper()
	return assert.True(t, want.Equal(got), append([]any{"want %s, got %s", want.Exact(), got.Exact()}, msgAndArgs...)...)
}

// netValues returns the series as a map of exact strings, for readable diffs.
func netValues(s *NetValueSeries) map[date.Date]string {
	m := make(map[date.Date]string)
	for day, v := range s.Values() {
		m[day] = v.Exact()
	}
	return m
}
