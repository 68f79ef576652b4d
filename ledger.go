package backtest

import (
	"fmt"
	"maps"
	"slices"
)

// Ledger holds the cash balance and the number of shares held per stock.
//
// Cash is never negative, and a stock is either held with a positive number
// of shares or absent. Every operation is atomic: it is fully applied or the
// ledger is left unchanged.
type Ledger struct {
	cash      Money
	positions map[string]int64
}

// NewLedger returns a ledger with only cash.
func NewLedger(cash Money) *Ledger {
	return &Ledger{
		cash:      cash,
		positions: make(map[string]int64),
	}
}

// Cash returns the cash balance.
func (l *Ledger) Cash() Money { return l.cash }

// Shares returns the number of shares held for stock, 0 if none.
func (l *Ledger) Shares(stock string) int64 { return l.positions[stock] }

// Positions returns a copy of the held positions.
func (l *Ledger) Positions() map[string]int64 { return maps.Clone(l.positions) }

// Stocks returns the held stocks in lexical order.
func (l *Ledger) Stocks() []string { return slices.Sorted(maps.Keys(l.positions)) }

// ApplyBuy buys shares of stock at price.
//
// It fails with ErrInsufficientFunds, leaving the ledger unchanged, if the cost
// is more than the cash balance.
func (l *Ledger) ApplyBuy(stock string, shares int64, price Money) (cash Money, held int64, err error) {
	if shares <= 0 {
		return l.cash, l.positions[stock], fmt.Errorf("%w: cannot buy %d shares", ErrInvalidSignal, shares)
	}
	cost := price.Shares(shares)
	if cost.GreaterThan(l.cash) {
		return l.cash, l.positions[stock], fmt.Errorf("%w: buying %d %s costs %s, cash is %s", ErrInsufficientFunds, shares, stock, cost, l.cash)
	}
	l.cash = l.cash.Sub(cost)
	l.positions[stock] += shares
	return l.cash, l.positions[stock], nil
}

// ApplySell sells up to shares of stock at price, and returns the number of
// shares actually sold. Selling a stock that is not held is a no-op.
func (l *Ledger) ApplySell(stock string, shares int64, price Money) (cash Money, held int64, sold int64) {
	held = l.positions[stock]
	sold = min(shares, held)
	if sold <= 0 {
		return l.cash, held, 0
	}
	l.cash = l.cash.Add(price.Shares(sold))
	held -= sold
	if held == 0 {
		delete(l.positions, stock)
	} else {
		l.positions[stock] = held
	}
	return l.cash, held, sold
}

// Liquidation is the outcome of clearing one position.
//
// When Err is set the price could not be resolved: the shares were dropped
// without proceeds.
type Liquidation struct {
	Stock  string
	Shares int64
	Price  Money
	Err    error
}

// ApplyClear sells every position at the price given by resolve, in stock
// order, and empties the positions.
func (l *Ledger) ApplyClear(resolve func(stock string) (Money, error)) (Money, []Liquidation) {
	liquidations := make([]Liquidation, 0, len(l.positions))
	for _, stock := range l.Stocks() {
		shares := l.positions[stock]
		price, err := resolve(stock)
		liquidations = append(liquidations, Liquidation{Stock: stock, Shares: shares, Price: price, Err: err})
		if err != nil {
			continue
		}
		l.cash = l.cash.Add(price.Shares(shares))
	}
	clear(l.positions)
	return l.cash, liquidations
}

// Value returns cash plus the market value of every position priced by
// resolve. Positions whose price cannot be resolved count for nothing and are
// returned as errors.
func (l *Ledger) Value(resolve func(stock string) (Money, error)) (Money, []error) {
	value := l.cash
	var errs []error
	for _, stock := range l.Stocks() {
		price, err := resolve(stock)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		value = value.Add(price.Shares(l.positions[stock]))
	}
	return value, errs
}
