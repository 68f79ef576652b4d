package backtest

import (
	"iter"

	"github.com/etnz/backtest/date"
)

// NetValueSeries maps every trading day of a run to the portfolio net value
// (cash plus market value of positions) on that day.
//
// The set of days is fixed at creation; only values change.
type NetValueSeries struct {
	h date.History[Money]
}

// NewNetValueSeries returns a series over days with every value set to initial.
// Days must be sorted and unique.
func NewNetValueSeries(days []date.Date, initial Money) *NetValueSeries {
	s := new(NetValueSeries)
	for _, day := range days {
		s.h.Append(day, initial)
	}
	return s
}

// Len returns the number of days in the series.
func (s *NetValueSeries) Len() int { return s.h.Len() }

// Has returns true if day is a day of the series.
func (s *NetValueSeries) Has(day date.Date) bool {
	_, ok := s.h.Get(day)
	return ok
}

// Get returns the net value on day.
func (s *NetValueSeries) Get(day date.Date) (Money, bool) { return s.h.Get(day) }

// set overwrites the value of an existing day, and ignores unknown days.
func (s *NetValueSeries) set(day date.Date, v Money) {
	if s.Has(day) {
		s.h.Append(day, v)
	}
}

// Values returns an iterator over date/net value pairs in chronological order.
func (s *NetValueSeries) Values() iter.Seq2[date.Date, Money] { return s.h.Values() }

// Between returns an iterator over the date/net value pairs within r.
func (s *NetValueSeries) Between(r date.Range) iter.Seq2[date.Date, Money] { return s.h.Between(r) }

// Days returns the days of the series.
func (s *NetValueSeries) Days() []date.Date {
	days := make([]date.Date, 0, s.h.Len())
	for day := range s.h.Values() {
		days = append(days, day)
	}
	return days
}

// First returns the first day and value.
func (s *NetValueSeries) First() (date.Date, Money) { return s.h.First() }

// Last returns the last day and value.
func (s *NetValueSeries) Last() (date.Date, Money) { return s.h.Latest() }

// Equal returns true if both series have the same days and values.
func (s *NetValueSeries) Equal(o *NetValueSeries) bool {
	if s.Len() != o.Len() {
		return false
	}
	next, stop := iter.Pull2(o.Values())
	defer stop()
	for day, v := range s.Values() {
		oday, ov, ok := next()
		if !ok || oday != day || !v.Equal(ov) {
			return false
		}
	}
	return true
}
