package backtest

import (
	"errors"
	"fmt"

	"github.com/etnz/backtest/date"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine replays signal logs against a price repository.
//
// An Engine only holds its configuration: every call to Run starts from a
// fresh ledger, so one Engine can run many logs, and distinct engines can share
// one repository concurrently.
type Engine struct {
	repo    PriceRepository
	span    date.Range
	capital Money
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger receiving run events and anomalies.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine returns an engine running over span with an initial cash of capital.
func NewEngine(repo PriceRepository, span date.Range, capital Money, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, ErrEmptyRepository
	}
	if m, ok := repo.(interface{ IsEmpty() bool }); ok && m.IsEmpty() {
		return nil, ErrEmptyRepository
	}
	if m, ok := repo.(interface{ Currency() string }); ok && m.Currency() != capital.Currency() {
		return nil, fmt.Errorf("%w: capital in %q, prices in %q", ErrCurrencyMismatch, capital.Currency(), m.Currency())
	}
	if span.To.Before(span.From) {
		return nil, fmt.Errorf("invalid range: end %s is before start %s", span.To, span.From)
	}
	if !capital.IsPositive() {
		return nil, fmt.Errorf("%w, got %s", ErrInvalidCapital, capital)
	}
	e := &Engine{
		repo:    repo,
		span:    span,
		capital: capital,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Range returns the range of the runs.
func (e *Engine) Range() date.Range { return e.span }

// Capital returns the initial cash of the runs.
func (e *Engine) Capital() Money { return e.capital }

// Trade is an executed fill.
type Trade struct {
	On     date.Date
	Stock  string
	Action Action
	Shares int64
	Price  Money
	// PriceOn is the day of the price used, before On when the stock was
	// suspended on that day.
	PriceOn date.Date
	Amount  Money
}

// Result is the outcome of a run.
type Result struct {
	RunID          string
	Range          date.Range
	InitialCapital Money
	NetValues      *NetValueSeries
	Cash           Money
	Positions      map[string]int64
	Trades         []Trade
	Anomalies      []Anomaly
	// Signals counts the signals read, by action as written.
	Signals map[Action]int
}

// run is the mutable state of one Engine.Run.
type run struct {
	*Engine
	log    zerolog.Logger
	ledger *Ledger
	days   []date.Date
	next   int // index in days of the first day not valued yet
	res    *Result
}

// Run replays signals and returns the daily net values.
//
// Signals are processed in date order, ties in insertion order. Before a
// signal is applied, every trading day up to and including the signal day is
// valued with the positions held before it. The start day keeps the initial
// capital. After the last signal, days up to the end of the range are valued
// with the final positions.
//
// Problems with single signals are reported as anomalies in the result. An
// error is returned only when the run cannot take place.
func (e *Engine) Run(signals *SignalLog) (*Result, error) {
	days := e.repo.TradingDays(e.span.From, e.span.To)
	if len(days) == 0 {
		return nil, fmt.Errorf("%w within %s", ErrNoTradingDays, e.span)
	}

	id := uuid.NewString()
	r := &run{
		Engine: e,
		log:    e.log.With().Str("run_id", id).Logger(),
		ledger: NewLedger(e.capital),
		days:   days,
		res: &Result{
			RunID:          id,
			Range:          e.span,
			InitialCapital: e.capital,
			NetValues:      NewNetValueSeries(days, e.capital),
			Signals:        make(map[Action]int),
		},
	}
	for r.next < len(days) && !days[r.next].After(e.span.From) {
		r.next++
	}

	sorted := signals.Sorted()
	r.log.Info().Stringer("range", e.span).Str("capital", e.capital.Exact()).Int("signals", len(sorted)).Int("days", len(days)).Msg("run started")

	for _, s := range sorted {
		r.res.Signals[s.Action]++
		if !r.res.NetValues.Has(s.On) {
			r.report(s, s.Stock, ErrUnknownDate, "%s is not a trading day within %s", s.On, e.span)
			continue
		}
		r.backfill(s.On)
		r.apply(s)
	}
	r.backfill(e.span.To)

	r.res.Cash = r.ledger.Cash()
	r.res.Positions = r.ledger.Positions()
	_, last := r.res.NetValues.Last()
	r.log.Info().Str("net_value", last.Exact()).Str("cash", r.res.Cash.Exact()).Int("trades", len(r.res.Trades)).Int("anomalies", len(r.res.Anomalies)).Msg("run finished")
	return r.res, nil
}

// resolve returns the price of stock on day, or its latest price before.
func (r *run) resolve(stock string, on date.Date) (Money, date.Date, error) {
	p, err := r.repo.Price(stock, on)
	if err == nil {
		return p, on, nil
	}
	if !errors.Is(err, ErrNoPriceData) {
		return Money{}, date.Date{}, err
	}
	return r.repo.LatestPriceAsOf(stock, on)
}

// backfill values every trading day not valued yet, up to and including day,
// with the current ledger.
func (r *run) backfill(day date.Date) {
	for ; r.next < len(r.days) && !r.days[r.next].After(day); r.next++ {
		on := r.days[r.next]
		value, errs := r.ledger.Value(func(stock string) (Money, error) {
			p, _, err := r.resolve(stock, on)
			return p, err
		})
		for _, err := range errs {
			r.record(Anomaly{Kind: ErrNoPriceData, On: on, Detail: "valuation: " + err.Error()})
		}
		r.res.NetValues.set(on, value)
	}
}

func (r *run) apply(s Signal) {
	switch s.Action {
	case Buy, Sell:
		if err := s.validate(); err != nil {
			r.report(s, s.Stock, ErrInvalidSignal, "%v", err)
			return
		}
		if s.Action == Buy {
			r.buy(s)
		} else {
			r.sell(s)
		}
	case Clear:
		r.clear(s)
	default:
		r.report(s, s.Stock, ErrInvalidAction, "unknown action %q", s.Action)
	}
}

// buy requires a price on the signal day: suspended stocks cannot be bought.
func (r *run) buy(s Signal) {
	price, err := r.repo.Price(s.Stock, s.On)
	if err != nil {
		r.report(s, s.Stock, ErrNotTradable, "%v", err)
		return
	}
	if _, _, err := r.ledger.ApplyBuy(s.Stock, s.Volume, price); err != nil {
		r.report(s, s.Stock, ErrInsufficientFunds, "%v", err)
		return
	}
	r.trade(s.On, s.Stock, Buy, s.Volume, price, s.On)
}

// sell of a stock not held is a no-op, whether it has a price or not.
func (r *run) sell(s Signal) {
	if r.ledger.Shares(s.Stock) == 0 {
		return
	}
	price, on, err := r.resolve(s.Stock, s.On)
	if err != nil {
		r.report(s, s.Stock, ErrNoPriceData, "%v", err)
		return
	}
	if _, _, sold := r.ledger.ApplySell(s.Stock, s.Volume, price); sold > 0 {
		r.trade(s.On, s.Stock, Sell, sold, price, on)
	}
}

func (r *run) clear(s Signal) {
	priceDays := make(map[string]date.Date)
	_, liquidations := r.ledger.ApplyClear(func(stock string) (Money, error) {
		p, on, err := r.resolve(stock, s.On)
		priceDays[stock] = on
		return p, err
	})
	for _, l := range liquidations {
		if l.Err != nil {
			r.report(s, l.Stock, ErrNoPriceData, "%d shares dropped: %v", l.Shares, l.Err)
			continue
		}
		r.trade(s.On, l.Stock, Sell, l.Shares, l.Price, priceDays[l.Stock])
	}
}

func (r *run) trade(on date.Date, stock string, action Action, shares int64, price Money, priceOn date.Date) {
	t := Trade{
		On:      on,
		Stock:   stock,
		Action:  action,
		Shares:  shares,
		Price:   price,
		PriceOn: priceOn,
		Amount:  price.Shares(shares),
	}
	r.res.Trades = append(r.res.Trades, t)
	r.log.Debug().Stringer("date", on).Str("stock", stock).Str("action", string(action)).Int64("shares", shares).Str("price", price.Exact()).Stringer("price_date", priceOn).Str("cash", r.ledger.Cash().Exact()).Msg("trade")
}

func (r *run) report(s Signal, stock string, kind error, format string, args ...any) {
	r.record(Anomaly{
		Kind:   kind,
		On:     s.On,
		Stock:  stock,
		Action: s.Action,
		Detail: fmt.Sprintf(format, args...),
	})
}

func (r *run) record(a Anomaly) {
	r.res.Anomalies = append(r.res.Anomalies, a)
	r.log.Warn().Str("kind", a.Name()).Stringer("date", a.On).Str("stock", a.Stock).Str("action", string(a.Action)).Str("detail", a.Detail).Msg("anomaly")
}
