package backtest

import (
	"context"
	"testing"

	"github.com/etnz/backtest/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAll_EqualsSequentialRuns(t *testing.T) {
	m := testMarket()
	var scenarios []Scenario
	for i, stock := range []string{"A", "B", "A", "B"} {
		l := NewSignalLog()
		require.NoError(t, l.AddBuy(day1, []string{stock}, int64(10*(i+1))))
		l.AddClear(day4)
		scenarios = append(scenarios, Scenario{Name: stock, Range: week, Capital: CNY(10_000), Signals: l})
	}
	scenarios = append(scenarios, Scenario{Name: "idle", Range: week, Capital: CNY(1)})

	results, err := RunAll(context.Background(), m, scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	for i, sc := range scenarios {
		e, err := NewEngine(m, sc.Range, sc.Capital)
		require.NoError(t, err)
		signals := sc.Signals
		if signals == nil {
			signals = NewSignalLog()
		}
		want, err := e.Run(signals)
		require.NoError(t, err)
		assert.True(t, want.NetValues.Equal(results[i].NetValues), "scenario %d", i)
		assert.Equal(t, want.Trades, results[i].Trades, "scenario %d", i)
	}
}

func TestRunAll_FatalError(t *testing.T) {
	scenarios := []Scenario{
		{Name: "ok", Range: week, Capital: CNY(1)},
		{Name: "broke", Range: week, Capital: CNY(0)},
		{Name: "no days", Range: date.Range{From: date.MustParse("2020-01-01"), To: date.MustParse("2020-01-02")}, Capital: CNY(1)},
	}
	_, err := RunAll(context.Background(), testMarket(), scenarios, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCapital)
	assert.Contains(t, err.Error(), `"broke"`)
}

func TestRunAll_CurrencyMismatch(t *testing.T) {
	scenarios := []Scenario{{Name: "dollars", Range: week, Capital: M(1000, "USD")}}
	var err error
	assert.NotPanics(t, func() { _, err = RunAll(context.Background(), testMarket(), scenarios, 1) })
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestRunAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunAll(ctx, testMarket(), []Scenario{{Name: "ok", Range: week, Capital: CNY(1)}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
