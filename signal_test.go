package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalLog_Add(t *testing.T) {
	testCases := []struct {
		name    string
		add     func(l *SignalLog) error
		wantLen int
		wantErr bool
	}{
		{"Buy several stocks", func(l *SignalLog) error { return l.AddBuy(day1, []string{"A", "B"}, 100) }, 2, false},
		{"Sell all", func(l *SignalLog) error { return l.AddSellAll(day1, "A") }, 1, false},
		{"Buy zero shares", func(l *SignalLog) error { return l.AddBuy(day1, []string{"A"}, 0) }, 0, true},
		{"Sell negative shares", func(l *SignalLog) error { return l.AddSell(day1, []string{"A"}, -1) }, 0, true},
		{"Empty stock is atomic", func(l *SignalLog) error { return l.AddBuy(day1, []string{"A", ""}, 1) }, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewSignalLog()
			err := tc.add(l)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSignal)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantLen, l.Len())
		})
	}
}

func TestSignalLog_Sorted(t *testing.T) {
	l := NewSignalLog()
	require.NoError(t, l.AddBuy(day3, []string{"C"}, 1))
	require.NoError(t, l.AddBuy(day1, []string{"A"}, 1))
	require.NoError(t, l.AddSellAll(day3, "A"))
	require.NoError(t, l.AddBuy(day1, []string{"B"}, 1))

	var got []string
	for _, s := range l.Sorted() {
		got = append(got, s.String())
	}
	assert.Equal(t, []string{
		"2024-01-02 buy A 1",
		"2024-01-02 buy B 1",
		"2024-01-04 buy C 1",
		"2024-01-04 sell A all",
	}, got)
	assert.Equal(t, "C", l.Signals()[0].Stock, "the log itself is not sorted")

	l.Clear()
	assert.Zero(t, l.Len())
}
