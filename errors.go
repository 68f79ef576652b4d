package backtest

import (
	"errors"
	"fmt"

	"github.com/etnz/backtest/date"
)

// Anomaly kinds. None of them stops a run: the signal, or the position, is
// skipped and the anomaly is recorded in the Result.
var (
	// ErrNoPriceData means neither the exact day nor any earlier day has a price.
	ErrNoPriceData = errors.New("no price data")
	// ErrInsufficientFunds means a buy costs more than the available cash.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnknownDate means a signal is dated on a day that is not a trading day of the run.
	ErrUnknownDate = errors.New("unknown date")
	// ErrNotTradable means a buy targets a stock with no price on that exact day.
	ErrNotTradable = errors.New("not tradable")
	// ErrInvalidAction means a signal action is none of buy, sell or clear.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidSignal means a buy or sell signal has no stock or a non positive volume.
	ErrInvalidSignal = errors.New("invalid signal")
)

// Fatal errors, returned when a run cannot start.
var (
	ErrEmptyRepository  = errors.New("empty price repository")
	ErrNoTradingDays    = errors.New("no trading day")
	ErrInvalidCapital   = errors.New("initial capital must be positive")
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Anomaly is a non fatal problem met during a run.
type Anomaly struct {
	Kind   error
	On     date.Date
	Stock  string
	Action Action
	Detail string
}

// Name returns the short name of the anomaly kind, suitable as a metric label.
func (a Anomaly) Name() string {
	switch {
	case errors.Is(a.Kind, ErrNoPriceData):
		return "no_price_data"
	case errors.Is(a.Kind, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(a.Kind, ErrUnknownDate):
		return "unknown_date"
	case errors.Is(a.Kind, ErrNotTradable):
		return "not_tradable"
	case errors.Is(a.Kind, ErrInvalidAction):
		return "invalid_action"
	case errors.Is(a.Kind, ErrInvalidSignal):
		return "invalid_signal"
	default:
		return "other"
	}
}

func (a Anomaly) Error() string {
	if a.Stock == "" {
		return fmt.Sprintf("%s: %s %s: %s", a.On, a.Action, a.Kind, a.Detail)
	}
	return fmt.Sprintf("%s: %s %s: %s: %s", a.On, a.Action, a.Stock, a.Kind, a.Detail)
}

func (a Anomaly) Unwrap() error { return a.Kind }
