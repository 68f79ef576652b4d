package backtest

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/etnz/backtest/date"
	"github.com/shopspring/decimal"
)

// PriceRepository supplies adjusted close prices and trading days.
//
// Implementations must be safe for concurrent readers: independent runs share
// one repository.
type PriceRepository interface {
	// Price returns the adjusted close of stock on that exact day, or ErrNoPriceData.
	Price(stock string, on date.Date) (Money, error)
	// LatestPriceAsOf returns the adjusted close of the most recent day on or
	// before 'on', and that day, or ErrNoPriceData if the stock has no earlier price.
	LatestPriceAsOf(stock string, on date.Date) (Money, date.Date, error)
	// TradingDays returns the days with market data within [from, to], ascending.
	TradingDays(from, to date.Date) []date.Date
}

// Market holds adjusted close prices of a set of stocks, one sorted timeline per stock.
//
// A Market is filled once, then only read.
type Market struct {
	cur    string
	prices map[string]*date.History[decimal.Decimal]
	days   date.History[int] // number of records per trading day
}

var _ PriceRepository = (*Market)(nil)

// NewMarket returns a new empty market whose prices are expressed in currency.
func NewMarket(currency string) *Market {
	return &Market{
		cur:    currency,
		prices: make(map[string]*date.History[decimal.Decimal]),
	}
}

// Currency returns the currency of all prices.
func (m *Market) Currency() string { return m.cur }

// Append records the adjusted close of stock on day. An existing record for
// the same (stock, day) is overwritten.
func (m *Market) Append(stock string, on date.Date, adjClose decimal.Decimal) {
	h, ok := m.prices[stock]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.prices[stock] = h
	}
	n := h.Len()
	h.Append(on, adjClose)
	if h.Len() == n {
		return // overwritten, the day is already counted
	}
	count, _ := m.days.Get(on)
	m.days.Append(on, count+1)
}

// Has returns true if stock has at least one price.
func (m *Market) Has(stock string) bool {
	_, ok := m.prices[stock]
	return ok
}

// IsEmpty returns true if the market holds no price at all.
func (m *Market) IsEmpty() bool { return m.days.Len() == 0 }

// Stocks returns all stock ids in lexical order.
func (m *Market) Stocks() []string { return slices.Sorted(maps.Keys(m.prices)) }

// Span returns the range between the first and the last trading day.
func (m *Market) Span() date.Range {
	from, _ := m.days.First()
	to, _ := m.days.Latest()
	return date.Range{From: from, To: to}
}

// Price returns the adjusted close of stock on that exact day.
func (m *Market) Price(stock string, on date.Date) (Money, error) {
	h, ok := m.prices[stock]
	if !ok {
		return Money{}, fmt.Errorf("%w: unknown stock %q", ErrNoPriceData, stock)
	}
	v, ok := h.Get(on)
	if !ok {
		return Money{}, fmt.Errorf("%w: %q has no price on %s", ErrNoPriceData, stock, on)
	}
	return M(v, m.cur), nil
}

// LatestPriceAsOf returns the adjusted close of stock on the most recent day on or before 'on'.
func (m *Market) LatestPriceAsOf(stock string, on date.Date) (Money, date.Date, error) {
	h, ok := m.prices[stock]
	if !ok {
		return Money{}, date.Date{}, fmt.Errorf("%w: unknown stock %q", ErrNoPriceData, stock)
	}
	day, v, ok := h.EntryAsOf(on)
	if !ok {
		return Money{}, date.Date{}, fmt.Errorf("%w: %q has no price on or before %s", ErrNoPriceData, stock, on)
	}
	return M(v, m.cur), day, nil
}

// TradingDays returns all days with at least one price within [from, to].
func (m *Market) TradingDays(from, to date.Date) []date.Date {
	var days []date.Date
	for day := range m.days.Between(date.Range{From: from, To: to}) {
		days = append(days, day)
	}
	return days
}

// Prices returns an iterator over the adjusted closes of stock within r.
func (m *Market) Prices(stock string, r date.Range) iter.Seq2[date.Date, Money] {
	return func(yield func(date.Date, Money) bool) {
		h, ok := m.prices[stock]
		if !ok {
			return
		}
		for day, v := range h.Between(r) {
			if !yield(day, M(v, m.cur)) {
				return
			}
		}
	}
}

// Subset returns a new market restricted to stocks within r.
// An empty stocks list selects every stock.
func (m *Market) Subset(stocks []string, r date.Range) *Market {
	if len(stocks) == 0 {
		stocks = m.Stocks()
	}
	sub := NewMarket(m.cur)
	for _, stock := range stocks {
		h, ok := m.prices[stock]
		if !ok {
			continue
		}
		for day, v := range h.Between(r) {
			sub.Append(stock, day, v)
		}
	}
	return sub
}
