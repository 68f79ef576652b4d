package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

// runCmd holds the flags for the 'run' subcommand.
type runCmd struct {
	config configFlags
	trades bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "replay a signal table against historical prices" }
func (*runCmd) Usage() string {
	return `bt run [-start <date>] [-end <date>] [-prices <file>] [-signals <file>] [-o <file>]

  Replays the signals day by day from the start to the end date, values the
  portfolio on every trading day, and prints a performance report.
  Skipped signals are listed as anomalies.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.config.register(f, "start", "end", "capital", "currency", "prices", "sheet", "signals", "benchmark", "o", "rf", "periods", "metrics", "log-level")
	f.BoolVar(&c.trades, "trades", false, "list every trade in the report")
}

func (c *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(f, &c.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	span, _ := cfg.Range()
	log := NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	market, err := loadMarket(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	signals, err := loadSignals(cfg.Signals)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	benchmark, err := loadBenchmark(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	engine, err := backtest.NewEngine(market, span, cfg.Capital(), backtest.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing the backtest: %v\n", err)
		return subcommands.ExitFailure
	}
	res, err := engine.Run(signals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running the backtest: %v\n", err)
		return subcommands.ExitFailure
	}

	if cfg.Output != "" {
		if err := backtest.SaveNetValues(cfg.Output, res.NetValues); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	metrics := newRunMetrics()
	metrics.observe("run", res)
	if err := metrics.write(cfg.MetricsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
		return subcommands.ExitFailure
	}

	sum, err := cfg.Analyzer(benchmark).Analyze(res.NetValues)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderReport(renderer.NewReport(cfg.Signals, res, sum), renderer.ReportRenderOptions{SkipTrades: !c.trades}))
	return subcommands.ExitSuccess
}
