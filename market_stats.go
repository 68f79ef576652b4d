package backtest

import (
	"cmp"
	"slices"

	"github.com/etnz/backtest/date"
)

// TradingDayCount counts the days a stock traded within a range.
type TradingDayCount struct {
	Stock string
	// Trading is the number of days with a price.
	Trading int
	// Suspended is the number of market trading days without a price.
	Suspended int
	// Total is the number of market trading days.
	Total int
}

// CountTradingDays counts trading and suspended days of stocks within r.
// An empty stocks list selects every stock.
func (m *Market) CountTradingDays(stocks []string, r date.Range) []TradingDayCount {
	if len(stocks) == 0 {
		stocks = m.Stocks()
	}
	total := len(m.TradingDays(r.From, r.To))
	counts := make([]TradingDayCount, 0, len(stocks))
	for _, stock := range stocks {
		c := TradingDayCount{Stock: stock, Total: total}
		for range m.Prices(stock, r) {
			c.Trading++
		}
		c.Suspended = total - c.Trading
		counts = append(counts, c)
	}
	return counts
}

// StockReturn is the compounded return of a stock between two days.
type StockReturn struct {
	Stock    string
	From, To date.Date
	Return   Percent
}

// CumulativeReturns returns the compounded return of the adjusted close of
// stocks within r, sorted by return, and truncated to the first topN if
// topN > 0. Stocks without price within r are left out.
func (m *Market) CumulativeReturns(stocks []string, r date.Range, ascending bool, topN int) []StockReturn {
	if len(stocks) == 0 {
		stocks = m.Stocks()
	}
	var returns []StockReturn
	for _, stock := range stocks {
		var (
			sr          = StockReturn{Stock: stock}
			first, last Money
			n           int
		)
		for day, p := range m.Prices(stock, r) {
			if n == 0 {
				sr.From, first = day, p
			}
			sr.To, last = day, p
			n++
		}
		if n == 0 || !first.IsPositive() {
			continue
		}
		sr.Return = PercentOf(last.Div(first) - 1)
		returns = append(returns, sr)
	}

	slices.SortStableFunc(returns, func(a, b StockReturn) int {
		if c := cmp.Compare(a.Return, b.Return); c != 0 {
			if ascending {
				return c
			}
			return -c
		}
		return cmp.Compare(a.Stock, b.Stock)
	})
	if topN > 0 && len(returns) > topN {
		returns = returns[:topN]
	}
	return returns
}
