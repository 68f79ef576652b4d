package backtest

import (
	"fmt"
	"math"
	"slices"

	"github.com/etnz/backtest/date"
)

// Action is the instruction carried by a Signal.
type Action string

const (
	Buy   Action = "buy"
	Sell  Action = "sell"
	Clear Action = "clear"
)

// AllShares is the sell volume meaning "every share held".
const AllShares int64 = math.MaxInt64

// Signal is a dated trading instruction.
//
// Clear signals apply to the whole portfolio and ignore Stock and Volume.
type Signal struct {
	On     date.Date
	Stock  string
	Action Action
	Volume int64
}

// validate checks the shape of buy and sell signals. It does not check the action.
func (s Signal) validate() error {
	switch s.Action {
	case Buy, Sell:
		if s.Stock == "" {
			return fmt.Errorf("%w: %s without a stock", ErrInvalidSignal, s.Action)
		}
		if s.Volume <= 0 {
			return fmt.Errorf("%w: %s volume must be positive, got %d", ErrInvalidSignal, s.Action, s.Volume)
		}
	}
	return nil
}

func (s Signal) String() string {
	switch {
	case s.Action == Clear:
		return fmt.Sprintf("%s clear", s.On)
	case s.Volume == AllShares:
		return fmt.Sprintf("%s %s %s all", s.On, s.Action, s.Stock)
	default:
		return fmt.Sprintf("%s %s %s %d", s.On, s.Action, s.Stock, s.Volume)
	}
}

// SignalLog is an append-only list of signals, in insertion order.
type SignalLog struct {
	signals []Signal
}

// NewSignalLog returns an empty log.
func NewSignalLog() *SignalLog { return &SignalLog{} }

// AddBuy appends one buy signal per stock.
func (l *SignalLog) AddBuy(on date.Date, stocks []string, volume int64) error {
	return l.add(on, Buy, stocks, volume)
}

// AddSell appends one sell signal per stock. Use AllShares to sell every share held.
func (l *SignalLog) AddSell(on date.Date, stocks []string, volume int64) error {
	return l.add(on, Sell, stocks, volume)
}

// AddSellAll appends one signal per stock selling every share held.
func (l *SignalLog) AddSellAll(on date.Date, stocks ...string) error {
	return l.add(on, Sell, stocks, AllShares)
}

// AddClear appends a signal liquidating the whole portfolio.
func (l *SignalLog) AddClear(on date.Date) {
	l.signals = append(l.signals, Signal{On: on, Action: Clear})
}

// add appends every signal or none.
func (l *SignalLog) add(on date.Date, action Action, stocks []string, volume int64) error {
	batch := make([]Signal, 0, len(stocks))
	for _, stock := range stocks {
		s := Signal{On: on, Stock: stock, Action: action, Volume: volume}
		if err := s.validate(); err != nil {
			return err
		}
		batch = append(batch, s)
	}
	l.signals = append(l.signals, batch...)
	return nil
}

// Append appends raw signals without validation. Invalid ones are reported by
// the engine when the log is run.
func (l *SignalLog) Append(signals ...Signal) { l.signals = append(l.signals, signals...) }

// Clear removes all signals.
func (l *SignalLog) Clear() { l.signals = l.signals[:0] }

// Len returns the number of signals.
func (l *SignalLog) Len() int { return len(l.signals) }

// Signals returns a copy of the signals in insertion order.
func (l *SignalLog) Signals() []Signal { return slices.Clone(l.signals) }

// Sorted returns a copy of the signals in ascending date order. Signals on the
// same day keep their insertion order.
func (l *SignalLog) Sorted() []Signal {
	sorted := slices.Clone(l.signals)
	slices.SortStableFunc(sorted, func(a, b Signal) int { return a.On.Compare(b.On) })
	return sorted
}
