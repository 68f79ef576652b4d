package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

// perfCmd holds the flags for the 'perf' subcommand.
type perfCmd struct {
	config configFlags
	period string
}

func (*perfCmd) Name() string     { return "perf" }
func (*perfCmd) Synopsis() string { return "compute performance statistics of a net value table" }
func (*perfCmd) Usage() string {
	return `bt perf [-benchmark <file>] [-rf <rate>] [-periods <n>] [-period <period>] <net_values.csv>

  Computes the annualized return, volatility, Sharpe ratio and max drawdown of
  a net value table written by 'bt run -o'. With -period, also lists the
  returns per week, month, quarter or year.
`
}

func (c *perfCmd) SetFlags(f *flag.FlagSet) {
	c.config.register(f, "currency", "benchmark", "rf", "periods")
	f.StringVar(&c.period, "period", "", "also list the returns per period: weekly, monthly, quarterly or yearly")
}

func (c *perfCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: perf requires exactly one net value table")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig(f, &c.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := cfg.ValidatePartial("Currency", "RiskFree", "PeriodsPerYear"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	var period date.Period
	if c.period != "" {
		if period, err = date.ParsePeriod(c.period); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}

	values, err := backtest.LoadNetValues(f.Arg(0), cfg.Currency)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	benchmark, err := loadBenchmark(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	sum, err := cfg.Analyzer(benchmark).Analyze(values)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	md := renderer.RenderPerformance(f.Arg(0), sum)
	if c.period != "" {
		md += "\n" + renderer.RenderPeriodicReturns(period, backtest.PeriodicReturns(values, period))
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
