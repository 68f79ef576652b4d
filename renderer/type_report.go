package renderer

import (
	"cmp"
	"errors"
	"maps"
	"slices"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
)

// Report is the view of a run and its statistics for rendering.
type Report struct {
	Name           string
	RunID          string
	Range          date.Range
	Signals        int
	InitialCapital backtest.Money
	FinalValue     backtest.Money
	Cash           backtest.Money
	Summary        backtest.Summary
	HasBenchmark   bool

	Positions     []Position
	Trades        []backtest.Trade
	Anomalies     []Anomaly
	AnomalyCounts []AnomalyCount
}

// Position is a held stock at the end of a run.
type Position struct {
	Stock  string
	Shares int64
}

// Anomaly is the printable form of a backtest.Anomaly.
type Anomaly struct {
	Kind   string
	On     date.Date
	Stock  string
	Action backtest.Action
	Detail string
}

// AnomalyCount is the number of anomalies of a kind.
type AnomalyCount struct {
	Kind  string
	Count int
}

// NewReport builds the report of a run.
func NewReport(name string, res *backtest.Result, sum backtest.Summary) *Report {
	r := &Report{
		Name:           name,
		RunID:          res.RunID,
		Range:          res.Range,
		InitialCapital: res.InitialCapital,
		Cash:           res.Cash,
		Summary:        sum,
		HasBenchmark:   sum.BenchmarkDays > 0,
		Trades:         res.Trades,
	}
	for _, n := range res.Signals {
		r.Signals += n
	}
	_, r.FinalValue = res.NetValues.Last()

	for _, stock := range slices.Sorted(maps.Keys(res.Positions)) {
		r.Positions = append(r.Positions, Position{Stock: stock, Shares: res.Positions[stock]})
	}

	counts := make(map[string]int)
	for _, a := range res.Anomalies {
		r.Anomalies = append(r.Anomalies, Anomaly{
			Kind:   kindOf(a),
			On:     a.On,
			Stock:  a.Stock,
			Action: a.Action,
			Detail: a.Detail,
		})
		counts[a.Name()]++
	}
	for kind, n := range counts {
		r.AnomalyCounts = append(r.AnomalyCounts, AnomalyCount{Kind: kind, Count: n})
	}
	slices.SortFunc(r.AnomalyCounts, func(a, b AnomalyCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return r
}

// kindOf returns the message of the sentinel error behind a.
func kindOf(a backtest.Anomaly) string {
	err := a.Kind
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	if err == nil {
		return a.Name()
	}
	return err.Error()
}
