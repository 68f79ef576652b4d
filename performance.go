package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/etnz/backtest/date"
)

// DefaultPeriodsPerYear is the number of trading days in a year.
const DefaultPeriodsPerYear = 252

// Analyzer computes summary statistics of a net value series.
type Analyzer struct {
	// Benchmark returns, compared with the daily returns. May be nil.
	Benchmark *Benchmark
	// RiskFree is the risk free rate per period, as a fraction. It is
	// compared with the mean daily excess return.
	RiskFree float64
	// PeriodsPerYear scales daily figures to annual ones. Zero means DefaultPeriodsPerYear.
	PeriodsPerYear int
}

// DailyReturn is the change of the net value from the previous trading day.
type DailyReturn struct {
	On     date.Date
	Return float64
	// Benchmark is the benchmark return on the same day, valid if HasBenchmark.
	Benchmark    float64
	HasBenchmark bool
}

// Excess returns the return over the benchmark.
func (d DailyReturn) Excess() float64 { return d.Return - d.Benchmark }

// Summary holds the performance statistics of a series.
type Summary struct {
	Range      date.Range
	Days       int
	Start, End Money

	TotalReturn      Percent
	AnnualizedReturn Percent
	Volatility       Percent
	Sharpe           float64
	MaxDrawdown      Percent
	// MaxDrawdownOn is the day the max drawdown is reached.
	MaxDrawdownOn date.Date

	// BenchmarkReturn compounds the benchmark returns of the days after the
	// first one, over BenchmarkDays known days.
	BenchmarkReturn Percent
	BenchmarkDays   int

	Returns []DailyReturn
}

// Analyze computes the summary of s.
func (a Analyzer) Analyze(s *NetValueSeries) (Summary, error) {
	if s == nil || s.Len() == 0 {
		return Summary{}, errors.New("cannot analyze an empty net value series")
	}
	n := float64(a.PeriodsPerYear)
	if n <= 0 {
		n = DefaultPeriodsPerYear
	}

	first, start := s.First()
	last, end := s.Last()
	if !start.IsPositive() {
		return Summary{}, fmt.Errorf("cannot analyze a series starting at %s", start)
	}
	sum := Summary{
		Range: date.Range{From: first, To: last},
		Days:  s.Len(),
		Start: start,
		End:   end,
	}

	ratio := end.Div(start)
	sum.TotalReturn = PercentOf(ratio - 1)
	sum.AnnualizedReturn = PercentOf(math.Pow(ratio, n/float64(s.Len())) - 1)

	var (
		returns  = make([]float64, 0, s.Len())
		excess   = make([]float64, 0, s.Len())
		prev     Money
		peak     Money
		drawdown float64
		bench    = 1.0
	)
	for day, v := range s.Values() {
		d := DailyReturn{On: day}
		if day != first && prev.IsPositive() {
			d.Return = v.Div(prev) - 1
		}
		d.Benchmark, d.HasBenchmark = a.Benchmark.Return(day)
		if d.HasBenchmark {
			excess = append(excess, d.Excess())
			if day != first {
				bench *= 1 + d.Benchmark
				sum.BenchmarkDays++
			}
		}
		returns = append(returns, d.Return)
		sum.Returns = append(sum.Returns, d)

		if v.GreaterThan(peak) {
			peak = v
		}
		if peak.IsPositive() {
			if dd := v.Div(peak) - 1; dd < drawdown {
				drawdown = dd
				sum.MaxDrawdownOn = day
			}
		}
		prev = v
	}

	vol := stdev(returns) * math.Sqrt(n)
	sum.Volatility = PercentOf(vol)
	if vol > 0 {
		sum.Sharpe = (mean(excess) - a.RiskFree) / vol
	}
	sum.MaxDrawdown = PercentOf(drawdown)
	sum.BenchmarkReturn = PercentOf(bench - 1)
	return sum, nil
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

// stdev is the sample standard deviation, 0 for less than two values.
func stdev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	m := mean(x)
	var ss float64
	for _, v := range x {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(x)-1))
}

// PeriodReturn is the change of the net value over a calendar period.
type PeriodReturn struct {
	// Range is the calendar period, possibly extending outside the series.
	Range  date.Range
	Start  Money
	End    Money
	Return Percent
}

// PeriodicReturns splits s into calendar periods and returns the change of
// each, from the last value of the previous period (or the first value of s)
// to the last value within the period.
func PeriodicReturns(s *NetValueSeries, p date.Period) []PeriodReturn {
	var (
		out  []PeriodReturn
		pr   PeriodReturn
		base Money
		open bool
	)
	flush := func() {
		if pr.Start.IsPositive() {
			pr.Return = PercentOf(pr.End.Div(pr.Start) - 1)
		}
		out = append(out, pr)
		base = pr.End
	}
	for day, v := range s.Values() {
		if !open {
			base, open = v, true
		}
		if pr.Range.IsZero() || !pr.Range.Contains(day) {
			if !pr.Range.IsZero() {
				flush()
			}
			pr = PeriodReturn{Range: p.Range(day), Start: base}
		}
		pr.End = v
	}
	if open {
		flush()
	}
	return out
}
