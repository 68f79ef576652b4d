package backtest

import (
	"bytes"
	"testing"

	"github.com/etnz/backtest/date"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, capital float64, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(testMarket(), week, CNY(capital), opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_Golden(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day1, []string{"A"}, 100))
	require.NoError(t, l.AddSell(day5, []string{"A"}, 100))

	res, err := newTestEngine(t, 10_000_000).Run(l)
	require.NoError(t, err)

	assert.Empty(t, res.Anomalies)
	assertMoney(t, CNY(10_001_000), res.Cash)
	assert.Empty(t, res.Positions)
	assert.Equal(t, map[date.Date]string{
		day1: "10000000", // valued before the buy
		day2: "10000200", // 9,995,000 + 100 × 52
		day3: "10000500", // 9,995,000 + 100 × 55
		day4: "10000800",
		day5: "10001000", // valued before the sell, at the sell price
	}, netValues(res.NetValues))

	require.Len(t, res.Trades, 2)
	assert.Equal(t, Buy, res.Trades[0].Action)
	assertMoney(t, CNY(5000), res.Trades[0].Amount)
	assert.Equal(t, Sell, res.Trades[1].Action)
	assertMoney(t, CNY(6000), res.Trades[1].Amount)
	assert.Equal(t, map[Action]int{Buy: 1, Sell: 1}, res.Signals)
}

func TestEngine_EmptyLog(t *testing.T) {
	res, err := newTestEngine(t, 10_000_000).Run(NewSignalLog())
	require.NoError(t, err)

	assert.Equal(t, 5, res.NetValues.Len())
	for day, v := range res.NetValues.Values() {
		assertMoney(t, CNY(10_000_000), v, "on %s", day)
	}
	assert.Empty(t, res.Trades)
	assert.Empty(t, res.Anomalies)
}

func TestEngine_InsufficientFunds(t *testing.T) {
	var buf bytes.Buffer
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day2, []string{"A"}, 100))

	res, err := newTestEngine(t, 1000, WithLogger(zerolog.New(&buf))).Run(l)
	require.NoError(t, err)

	require.Len(t, res.Anomalies, 1)
	a := res.Anomalies[0]
	assert.ErrorIs(t, a, ErrInsufficientFunds)
	assert.Equal(t, day2, a.On)
	assert.Equal(t, "A", a.Stock)
	assertMoney(t, CNY(1000), res.Cash)
	assert.Empty(t, res.Positions)
	for day, v := range res.NetValues.Values() {
		assertMoney(t, CNY(1000), v, "on %s", day)
	}
	assert.Contains(t, buf.String(), `"kind":"insufficient_funds"`)
	assert.Contains(t, buf.String(), `"run_id":"`+res.RunID+`"`)
}

func TestEngine_UnknownDate(t *testing.T) {
	l := NewSignalLog()
	saturday := date.MustParse("2024-01-06")
	require.NoError(t, l.AddBuy(saturday, []string{"A"}, 10))
	require.NoError(t, l.AddBuy(date.MustParse("2023-12-29"), []string{"A"}, 10))
	require.NoError(t, l.AddBuy(day2, []string{"A"}, 100))

	res, err := newTestEngine(t, 10_000_000).Run(l)
	require.NoError(t, err)

	require.Len(t, res.Anomalies, 2)
	for _, a := range res.Anomalies {
		assert.ErrorIs(t, a, ErrUnknownDate)
		assert.Equal(t, "unknown_date", a.Name())
	}
	assert.Equal(t, map[string]int64{"A": 100}, res.Positions)
	assertMoney(t, CNY(10_000_000-5200), res.Cash)
	v, _ := res.NetValues.Get(day5)
	assertMoney(t, CNY(10_000_000-5200+6000), v)
}

func TestEngine_Idempotent(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day1, []string{"A", "B"}, 100))
	require.NoError(t, l.AddSellAll(day4, "B"))
	l.AddClear(day5)

	e := newTestEngine(t, 10_000_000)
	first, err := e.Run(l)
	require.NoError(t, err)
	second, err := e.Run(l)
	require.NoError(t, err)

	assert.True(t, first.NetValues.Equal(second.NetValues))
	assert.Equal(t, first.Trades, second.Trades)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestEngine_SuspendedValuation(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day2, []string{"B"}, 100))

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	assert.Empty(t, res.Anomalies)
	assert.Equal(t, map[date.Date]string{
		day1: "10000",
		day2: "10000", // valued before the buy
		day3: "10000", // 8,900 + 100 × 11, latest price of day2
		day4: "10000",
		day5: "10100", // 8,900 + 100 × 12
	}, netValues(res.NetValues))
}

func TestEngine_BuyNotTradable(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day3, []string{"B"}, 100))
	require.NoError(t, l.AddBuy(day3, []string{"Z"}, 100))

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	require.Len(t, res.Anomalies, 2)
	assert.ErrorIs(t, res.Anomalies[0], ErrNotTradable)
	assert.Equal(t, "B", res.Anomalies[0].Stock)
	assert.ErrorIs(t, res.Anomalies[1], ErrNotTradable)
	assert.Empty(t, res.Positions)
}

func TestEngine_SellSuspendedUsesLatestPrice(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day1, []string{"B"}, 100))
	require.NoError(t, l.AddSellAll(day4, "B"))

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	sell := res.Trades[1]
	assert.Equal(t, int64(100), sell.Shares)
	assert.Equal(t, day4, sell.On)
	assert.Equal(t, day2, sell.PriceOn)
	assertMoney(t, CNY(11), sell.Price)
	assertMoney(t, CNY(10_000-1000+1100), res.Cash)
}

func TestEngine_SellMoreThanHeld(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day1, []string{"A"}, 100))
	require.NoError(t, l.AddSell(day2, []string{"A"}, 500))
	require.NoError(t, l.AddSell(day3, []string{"A"}, 10)) // nothing left

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	assert.Empty(t, res.Anomalies)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, int64(100), res.Trades[1].Shares)
	assert.Empty(t, res.Positions)
	assertMoney(t, CNY(10_000-5000+5200), res.Cash)
}

func TestEngine_SellNotHeld(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddSell(day1, []string{"A"}, 100)) // priced, never bought
	require.NoError(t, l.AddSell(day2, []string{"Z"}, 100)) // unknown stock
	require.NoError(t, l.AddSellAll(day3, "Z"))

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	assert.Empty(t, res.Anomalies)
	assert.Empty(t, res.Trades)
	assertMoney(t, CNY(10_000), res.Cash)
}

func TestEngine_Clear(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day1, []string{"A", "B"}, 100))
	l.AddClear(day3)

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	assert.Empty(t, res.Anomalies)
	assert.Empty(t, res.Positions)
	// A sold at 55, B at 11 from day2.
	assertMoney(t, CNY(10_000-5000-1000+5500+1100), res.Cash)
	assert.Equal(t, map[date.Date]string{
		day1: "10000",
		day2: "10300", // 4,000 + 5,200 + 1,100
		day3: "10600", // valued before the clear
		day4: "10600",
		day5: "10600",
	}, netValues(res.NetValues))
	require.Len(t, res.Trades, 4)
	assert.Equal(t, day2, res.Trades[3].PriceOn)
}

func TestEngine_InvalidSignals(t *testing.T) {
	l := NewSignalLog()
	l.Append(
		Signal{On: day2, Stock: "A", Action: "hold", Volume: 1},
		Signal{On: day2, Action: Buy, Volume: 10},
		Signal{On: day2, Stock: "A", Action: Sell},
	)
	require.NoError(t, l.AddBuy(day3, []string{"A"}, 1))

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	require.Len(t, res.Anomalies, 3)
	assert.ErrorIs(t, res.Anomalies[0], ErrInvalidAction)
	assert.ErrorIs(t, res.Anomalies[1], ErrInvalidSignal)
	assert.ErrorIs(t, res.Anomalies[2], ErrInvalidSignal)
	assert.Equal(t, map[string]int64{"A": 1}, res.Positions)
	assert.Equal(t, map[Action]int{"hold": 1, Buy: 2, Sell: 1}, res.Signals)
}

func TestEngine_SameDayKeepsInsertionOrder(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddSellAll(day2, "A"))
	require.NoError(t, l.AddBuy(day1, []string{"A"}, 100))
	require.NoError(t, l.AddBuy(day2, []string{"A"}, 50))

	res, err := newTestEngine(t, 10_000).Run(l)
	require.NoError(t, err)

	require.Len(t, res.Trades, 3)
	assert.Equal(t, []Action{Buy, Sell, Buy}, []Action{res.Trades[0].Action, res.Trades[1].Action, res.Trades[2].Action})
	assert.Equal(t, map[string]int64{"A": 50}, res.Positions)
}

func TestNewEngine_Fatal(t *testing.T) {
	_, err := NewEngine(testMarket(), week, CNY(0))
	assert.ErrorIs(t, err, ErrInvalidCapital)

	_, err = NewEngine(NewMarket("CNY"), week, CNY(1))
	assert.ErrorIs(t, err, ErrEmptyRepository)

	_, err = NewEngine(testMarket(), date.Range{From: day5, To: day1}, CNY(1))
	assert.Error(t, err)

	_, err = NewEngine(testMarket(), week, M(10_000, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	e, err := NewEngine(testMarket(), date.Range{From: date.MustParse("2023-01-01"), To: date.MustParse("2023-01-31")}, CNY(1))
	require.NoError(t, err)
	_, err = e.Run(NewSignalLog())
	assert.ErrorIs(t, err, ErrNoTradingDays)
}

func TestEngine_StartOnNonTradingDay(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day1, []string{"A"}, 100))

	e, err := NewEngine(testMarket(), date.Range{From: date.MustParse("2024-01-01"), To: day2}, CNY(10_000))
	require.NoError(t, err)
	res, err := e.Run(l)
	require.NoError(t, err)

	assert.Equal(t, map[date.Date]string{
		day1: "10000",
		day2: "10200",
	}, netValues(res.NetValues))
}
