package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
)

// pricesCmd holds the flags for the 'prices' subcommand.
type pricesCmd struct {
	config    configFlags
	stocks    string
	top       int
	ascending bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "describe a price table: trading days and returns per stock" }
func (*pricesCmd) Usage() string {
	return `bt prices [-start <date>] [-end <date>] [-prices <file>] [-stocks <id,id>] [-top <n>] [-asc]

  Counts the trading and suspended days of each stock, and ranks the stocks
  by their compounded return over the range.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	c.config.register(f, "start", "end", "currency", "prices", "sheet")
	f.StringVar(&c.stocks, "stocks", "", "comma separated stock ids, all stocks by default")
	f.IntVar(&c.top, "top", 10, "number of stocks in the return ranking, 0 for all")
	f.BoolVar(&c.ascending, "asc", false, "rank the worst returns first")
}

func (c *pricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	market, err := loadMarket(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	var stocks []string
	if c.stocks != "" {
		stocks = strings.Split(c.stocks, ",")
	}

	var b strings.Builder
	b.WriteString(renderer.RenderTradingDays(market.CountTradingDays(stocks, span)))
	b.WriteString("\n")
	b.WriteString(renderer.RenderCumulativeReturns(market.CumulativeReturns(stocks, span, c.ascending, c.top)))
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
