package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Signal tables have the columns date, stk_id, action and volume.
var (
	actionColumns = []string{"action", "side"}
	volumeColumns = []string{"volume", "shares", "qty"}
)

// DecodeSignals reads a CSV signal table.
//
// Actions are kept as written (lower cased) so that unknown ones are reported
// when the log is run. An empty sell volume means every share held.
// A malformed date or volume fails the whole decoding.
func DecodeSignals(r io.Reader) (*SignalLog, error) {
	t, err := readCSVTable("signals", r)
	if err != nil {
		return nil, err
	}
	dateCol, err := t.column(dateColumns...)
	if err != nil {
		return nil, err
	}
	actionCol, err := t.column(actionColumns...)
	if err != nil {
		return nil, err
	}
	stockCol := t.optionalColumn(stockColumns...)
	volumeCol := t.optionalColumn(volumeColumns...)

	l := NewSignalLog()
	for i, row := range t.rows {
		if blank(row) {
			continue
		}
		on, err := t.parseDate(cell(row, dateCol))
		if err != nil {
			return nil, t.errorf(i, "%w", err)
		}
		s := Signal{
			On:     on,
			Stock:  cell(row, stockCol),
			Action: Action(strings.ToLower(cell(row, actionCol))),
		}
		if s.Action == Clear {
			s.Stock = ""
		} else if s.Volume, err = parseVolume(cell(row, volumeCol), s.Action); err != nil {
			return nil, t.errorf(i, "%w", err)
		}
		l.Append(s)
	}
	return l, nil
}

// parseVolume accepts integers and integral floats ("100", "100.0").
func parseVolume(s string, action Action) (int64, error) {
	if s == "" {
		if action == Sell {
			return AllShares, nil
		}
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid volume %q: want a whole number of shares", s)
	}
	if f >= math.MaxInt64 {
		return AllShares, nil
	}
	return int64(f), nil
}

// EncodeSignals writes the log in insertion order, in the format read by DecodeSignals.
func EncodeSignals(w io.Writer, l *SignalLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "stk_id", "action", "volume"}); err != nil {
		return fmt.Errorf("cannot write signals header: %w", err)
	}
	for _, s := range l.signals {
		volume := strconv.FormatInt(s.Volume, 10)
		if s.Action == Clear || (s.Action == Sell && s.Volume == AllShares) {
			volume = ""
		}
		if err := cw.Write([]string{s.On.String(), s.Stock, string(s.Action), volume}); err != nil {
			return fmt.Errorf("cannot write signal %s: %w", s, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadSignals reads a signal table file.
func LoadSignals(path string) (*SignalLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open signal table %q: %w", path, err)
	}
	defer f.Close()
	l, err := DecodeSignals(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode signal table %q: %w", path, err)
	}
	return l, nil
}

// Load replaces the content of the log with the signals read from r.
func (l *SignalLog) Load(r io.Reader) error {
	loaded, err := DecodeSignals(r)
	if err != nil {
		return err
	}
	l.signals = loaded.signals
	return nil
}
