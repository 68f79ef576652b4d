package backtest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_ApplyBuy(t *testing.T) {
	testCases := []struct {
		name       string
		cash       float64
		shares     int64
		price      float64
		wantCash   float64
		wantShares int64
		wantErr    error
	}{
		{"Enough cash", 10_000_000, 100, 50, 9_995_000, 100, nil},
		{"Exactly the cash", 5000, 100, 50, 0, 100, nil},
		{"Insufficient funds", 4999, 100, 50, 4999, 0, ErrInsufficientFunds},
		{"Zero shares", 5000, 0, 50, 5000, 0, ErrInvalidSignal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger(CNY(tc.cash))
			cash, held, err := l.ApplyBuy("A", tc.shares, CNY(tc.price))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assertMoney(t, CNY(tc.wantCash), cash)
			assertMoney(t, CNY(tc.wantCash), l.Cash())
			assert.Equal(t, tc.wantShares, held)
			assert.Equal(t, tc.wantShares, l.Shares("A"))
		})
	}
}

func TestLedger_ApplyBuyAccumulates(t *testing.T) {
	l := NewLedger(CNY(10_000))
	_, _, err := l.ApplyBuy("A", 10, CNY(100))
	require.NoError(t, err)
	_, held, err := l.ApplyBuy("A", 5, CNY(200))
	require.NoError(t, err)

	assert.Equal(t, int64(15), held)
	assertMoney(t, CNY(8000), l.Cash())
}

func TestLedger_ApplySell(t *testing.T) {
	testCases := []struct {
		name       string
		held       int64
		sell       int64
		wantCash   float64
		wantShares int64
		wantSold   int64
	}{
		{"Partial", 100, 40, 1000 + 40*60, 60, 40},
		{"Everything", 100, 100, 1000 + 100*60, 0, 100},
		{"More than held", 100, 500, 1000 + 100*60, 0, 100},
		{"All shares", 100, AllShares, 1000 + 100*60, 0, 100},
		{"Nothing held", 0, 10, 1000, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger(CNY(1000))
			if tc.held > 0 {
				l.positions["A"] = tc.held
			}
			cash, held, sold := l.ApplySell("A", tc.sell, CNY(60))
			assertMoney(t, CNY(tc.wantCash), cash)
			assert.Equal(t, tc.wantShares, held)
			assert.Equal(t, tc.wantSold, sold)
			if tc.wantShares == 0 {
				assert.NotContains(t, l.Positions(), "A", "empty positions must be removed")
			}
		})
	}
}

func TestLedger_ApplyClear(t *testing.T) {
	l := NewLedger(CNY(1000))
	l.positions["A"] = 100
	l.positions["B"] = 10
	l.positions["C"] = 5

	prices := map[string]Money{"A": CNY(50), "C": CNY(2)}
	cash, liquidations := l.ApplyClear(func(stock string) (Money, error) {
		p, ok := prices[stock]
		if !ok {
			return Money{}, fmt.Errorf("%w: %s", ErrNoPriceData, stock)
		}
		return p, nil
	})

	assertMoney(t, CNY(1000+5000+10), cash)
	assert.Empty(t, l.Positions())
	require.Len(t, liquidations, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{liquidations[0].Stock, liquidations[1].Stock, liquidations[2].Stock})
	assert.NoError(t, liquidations[0].Err)
	assert.ErrorIs(t, liquidations[1].Err, ErrNoPriceData)
	assert.Equal(t, int64(10), liquidations[1].Shares)
}

func TestLedger_Value(t *testing.T) {
	l := NewLedger(CNY(1000))
	l.positions["A"] = 100
	l.positions["B"] = 10

	v, errs := l.Value(func(stock string) (Money, error) {
		if stock == "B" {
			return Money{}, errors.New("no price")
		}
		return CNY(3), nil
	})
	assertMoney(t, CNY(1300), v)
	assert.Len(t, errs, 1)
}

func TestLedger_PositionsIsACopy(t *testing.T) {
	l := NewLedger(CNY(1000))
	l.positions["A"] = 100

	p := l.Positions()
	p["A"] = 1
	delete(p, "A")
	assert.Equal(t, int64(100), l.Shares("A"))
}
