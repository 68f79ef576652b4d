package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/etnz/backtest/renderer"
	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
)

// SweepFile lists the scenarios of a sweep.
//
//	scenarios:
//	  - name: momentum
//	    signals: momentum.csv
//	    initial_capital: 1000000
//	    output: out/momentum.xlsx
//
// Dates and capital default to the configuration. Relative paths are relative
// to the sweep file.
type SweepFile struct {
	Scenarios []SweepScenario `yaml:"scenarios" validate:"required,min=1,unique=Name,dive"`
}

// SweepScenario is one entry of a SweepFile.
type SweepScenario struct {
	Name           string  `yaml:"name" validate:"required"`
	Signals        string  `yaml:"signals" validate:"required"`
	StartDate      string  `yaml:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string  `yaml:"end_date" validate:"omitempty,datetime=2006-01-02"`
	InitialCapital float64 `yaml:"initial_capital" validate:"gte=0"`
	Output         string  `yaml:"output"`
}

// LoadSweepFile reads and validates a sweep file.
func LoadSweepFile(path string) (*SweepFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read sweep file: %w", err)
	}
	var sf SweepFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("cannot parse sweep file %q: %w", path, err)
	}
	if err := validate.Struct(&sf); err != nil {
		return nil, fmt.Errorf("sweep file %q: %w", path, validationError(err))
	}
	dir := filepath.Dir(path)
	for i := range sf.Scenarios {
		sc := &sf.Scenarios[i]
		sc.Signals = resolve(dir, sc.Signals)
		sc.Output = resolve(dir, sc.Output)
	}
	return &sf, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// scenario loads the signals of sc, with cfg supplying the missing settings.
func (sc SweepScenario) scenario(cfg *Config) (backtest.Scenario, error) {
	start, end := cfg.StartDate, cfg.EndDate
	if sc.StartDate != "" {
		start = sc.StartDate
	}
	if sc.EndDate != "" {
		end = sc.EndDate
	}
	span, err := date.ParseRange(start, end)
	if err != nil {
		return backtest.Scenario{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	capital := cfg.Capital()
	if sc.InitialCapital > 0 {
		capital = backtest.M(sc.InitialCapital, cfg.Currency)
	}
	signals, err := backtest.LoadSignals(sc.Signals)
	if err != nil {
		return backtest.Scenario{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return backtest.Scenario{Name: sc.Name, Range: span, Capital: capital, Signals: signals}, nil
}

// sweepCmd holds the flags for the 'sweep' subcommand.
type sweepCmd struct {
	config configFlags
}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "run several signal tables against the same prices" }
func (*sweepCmd) Usage() string {
	return `bt sweep [-parallel <n>] [-prices <file>] <sweep.yaml>

  Runs every scenario of the sweep file concurrently against one price table,
  and prints one summary row per scenario.
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {
	c.config.register(f, "start", "end", "capital", "currency", "prices", "sheet", "benchmark", "rf", "periods", "parallel", "metrics", "log-level")
}

func (c *sweepCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: sweep requires exactly one sweep file")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig(f, &c.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	sf, err := LoadSweepFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	log := NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	market, err := loadMarket(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	benchmark, err := loadBenchmark(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	scenarios := make([]backtest.Scenario, 0, len(sf.Scenarios))
	for _, sc := range sf.Scenarios {
		s, err := sc.scenario(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		scenarios = append(scenarios, s)
	}

	results, err := backtest.RunAll(ctx, market, scenarios, cfg.Parallel, backtest.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running the sweep: %v\n", err)
		return subcommands.ExitFailure
	}

	metrics := newRunMetrics()
	analyzer := cfg.Analyzer(benchmark)
	reports := make([]*renderer.Report, 0, len(results))
	for i, res := range results {
		sc := sf.Scenarios[i]
		if sc.Output != "" {
			if err := backtest.SaveNetValues(sc.Output, res.NetValues); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
		}
		metrics.observe(sc.Name, res)
		sum, err := analyzer.Analyze(res.NetValues)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scenario %q: %v\n", sc.Name, err)
			return subcommands.ExitFailure
		}
		reports = append(reports, renderer.NewReport(sc.Name, res, sum))
	}
	if err := metrics.write(cfg.MetricsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.RenderSweep(reports))
	return subcommands.ExitSuccess
}
