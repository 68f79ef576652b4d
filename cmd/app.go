// Package cmd implements the CLI application to run backtests.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/etnz/backtest"
	"github.com/google/subcommands"
)

// Commands are the subcommands of the application, by group.
var Commands = map[string][]subcommands.Command{
	"backtest": {&runCmd{}, &sweepCmd{}},
	"analysis": {&perfCmd{}, &pricesCmd{}},
	"help":     {&topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, group := range []string{"backtest", "analysis", "help"} {
		for _, cmd := range Commands[group] {
			c.Register(cmd, group)
		}
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "YAML configuration file, see the BT_* environment variables for the keys")
var envFile = flag.String("env-file", ".env", "File of BT_* environment variables, loaded if it exists")

// loadConfig reads the configuration and overrides it with the flags set on f.
func loadConfig(f *flag.FlagSet, cf *configFlags) (*Config, error) {
	cfg, err := LoadConfig(*envFile, *configFile)
	if err != nil {
		return nil, err
	}
	if err := cf.apply(f, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadMarket loads the configured price table.
func loadMarket(cfg *Config) (*backtest.Market, error) {
	if cfg.PriceSheet == "" {
		return backtest.LoadPrices(cfg.Prices, cfg.Currency)
	}
	f, err := os.Open(cfg.Prices)
	if err != nil {
		return nil, fmt.Errorf("cannot open price table %q: %w", cfg.Prices, err)
	}
	defer f.Close()
	m, err := backtest.DecodePricesXLSX(f, cfg.PriceSheet, cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("cannot decode price table %q: %w", cfg.Prices, err)
	}
	return m, nil
}

// loadBenchmark loads the configured benchmark, nil if there is none.
func loadBenchmark(cfg *Config) (*backtest.Benchmark, error) {
	if cfg.Benchmark == "" {
		return nil, nil
	}
	return backtest.LoadBenchmark(cfg.Benchmark)
}

// loadSignals loads path, or returns an empty log if path is empty.
func loadSignals(path string) (*backtest.SignalLog, error) {
	if path == "" {
		return backtest.NewSignalLog(), nil
	}
	return backtest.LoadSignals(path)
}
