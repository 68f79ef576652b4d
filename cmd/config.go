package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/date"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix of environment variables, like BT_START_DATE.
const envPrefix = "BT"

// Config holds the settings of a backtest.
//
// Settings are read, in increasing order of precedence, from defaults, the
// environment (and an optional .env file), a YAML file and command line flags.
type Config struct {
	StartDate      string  `yaml:"start_date" envconfig:"START_DATE" validate:"required,datetime=2006-01-02"`
	EndDate        string  `yaml:"end_date" envconfig:"END_DATE" validate:"required,datetime=2006-01-02"`
	InitialCapital float64 `yaml:"initial_capital" envconfig:"INITIAL_CAPITAL" default:"10000000" validate:"gt=0"`
	Currency       string  `yaml:"currency" envconfig:"CURRENCY" default:"CNY" validate:"len=3,uppercase"`

	Prices     string `yaml:"prices" envconfig:"PRICES" validate:"required"`
	PriceSheet string `yaml:"price_sheet" envconfig:"PRICE_SHEET"`
	Signals    string `yaml:"signals" envconfig:"SIGNALS"`
	Benchmark  string `yaml:"benchmark" envconfig:"BENCHMARK"`
	Output     string `yaml:"output" envconfig:"OUTPUT"`

	RiskFree       float64 `yaml:"risk_free" envconfig:"RISK_FREE" default:"0" validate:"gte=0"`
	PeriodsPerYear int     `yaml:"periods_per_year" envconfig:"PERIODS_PER_YEAR" default:"252" validate:"gt=0"`
	Parallel       int     `yaml:"parallel" envconfig:"PARALLEL" default:"4" validate:"gte=0"`

	MetricsFile string    `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	Log         LogConfig `yaml:"log" envconfig:"LOG"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"warn" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"console" validate:"oneof=json console"`
}

var validate = validator.New()

// LoadConfig reads the configuration from the environment, then overlays the
// YAML file at path if not empty.
//
// envFile is loaded into the environment first, without overriding variables
// already set. A missing envFile is not an error.
func LoadConfig(envFile, path string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cannot load env file %q: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("cannot load config from env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %q: %w", path, err)
		}
	}
	return &cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return validationError(err)
	}
	r, err := c.Range()
	if err != nil {
		return err
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("invalid config: end_date %s is before start_date %s", r.To, r.From)
	}
	return nil
}

// ValidatePartial checks only the named settings (Go field names, like "RiskFree").
func (c *Config) ValidatePartial(fields ...string) error {
	if err := validate.StructPartial(c, fields...); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s, got %v", e.Field(), e.Tag(), e.Param(), e.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s, got %v", e.Field(), e.Tag(), e.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Range returns the backtest range.
func (c *Config) Range() (date.Range, error) {
	from, err := date.Parse(c.StartDate)
	if err != nil {
		return date.Range{}, fmt.Errorf("invalid start_date: %w", err)
	}
	to, err := date.Parse(c.EndDate)
	if err != nil {
		return date.Range{}, fmt.Errorf("invalid end_date: %w", err)
	}
	return date.Range{From: from, To: to}, nil
}

// Capital returns the initial capital in the configured currency.
func (c *Config) Capital() backtest.Money { return backtest.M(c.InitialCapital, c.Currency) }

// Analyzer returns the performance analyzer configured with benchmark.
func (c *Config) Analyzer(benchmark *backtest.Benchmark) backtest.Analyzer {
	return backtest.Analyzer{Benchmark: benchmark, RiskFree: c.RiskFree, PeriodsPerYear: c.PeriodsPerYear}
}

// configFlags are the command line flags overriding the configuration.
// Flags left unset keep the configured value.
type configFlags struct {
	keys []string
}

type configFlag struct {
	usage string
	set   func(c *Config, s string) error
}

var configFlagDefs = map[string]configFlag{
	"start":     {"start date of the backtest (YYYY-MM-DD)", func(c *Config, s string) error { c.StartDate = s; return nil }},
	"end":       {"end date of the backtest (YYYY-MM-DD)", func(c *Config, s string) error { c.EndDate = s; return nil }},
	"capital":   {"initial capital", func(c *Config, s string) error { return parseFloat(&c.InitialCapital, s) }},
	"currency":  {"currency of prices and capital (ISO 4217)", func(c *Config, s string) error { c.Currency = s; return nil }},
	"prices":    {"price table, CSV or XLSX", func(c *Config, s string) error { c.Prices = s; return nil }},
	"sheet":     {"sheet of the XLSX price table, the first one by default", func(c *Config, s string) error { c.PriceSheet = s; return nil }},
	"signals":   {"signal table (CSV)", func(c *Config, s string) error { c.Signals = s; return nil }},
	"benchmark": {"benchmark returns table (CSV)", func(c *Config, s string) error { c.Benchmark = s; return nil }},
	"o":         {"write the net values to this file, CSV or XLSX", func(c *Config, s string) error { c.Output = s; return nil }},
	"rf":        {"daily risk free rate, as a fraction", func(c *Config, s string) error { return parseFloat(&c.RiskFree, s) }},
	"periods":   {"trading periods per year", func(c *Config, s string) error { return parseInt(&c.PeriodsPerYear, s) }},
	"parallel":  {"maximum number of concurrent runs, 0 for no limit", func(c *Config, s string) error { return parseInt(&c.Parallel, s) }},
	"metrics":   {"write run metrics to this file (prometheus text format)", func(c *Config, s string) error { c.MetricsFile = s; return nil }},
	"log-level": {"log level (trace, debug, info, warn, error, disabled)", func(c *Config, s string) error { c.Log.Level = s; return nil }},
}

// register declares the named configuration flags on f.
func (cf *configFlags) register(f *flag.FlagSet, keys ...string) {
	for _, key := range keys {
		def, ok := configFlagDefs[key]
		if !ok {
			panic("unknown config flag " + key)
		}
		f.String(key, "", def.usage)
	}
	cf.keys = append(cf.keys, keys...)
}

// apply copies the flags actually set on the command line into c.
func (cf *configFlags) apply(f *flag.FlagSet, c *Config) error {
	var err error
	f.Visit(func(fl *flag.Flag) {
		def, ok := configFlagDefs[fl.Name]
		if !ok || err != nil || !slices.Contains(cf.keys, fl.Name) {
			return
		}
		if e := def.set(c, fl.Value.String()); e != nil {
			err = fmt.Errorf("invalid -%s: %w", fl.Name, e)
		}
	})
	return err
}

func parseFloat(p *float64, s string) (err error) {
	*p, err = strconv.ParseFloat(s, 64)
	return
}

func parseInt(p *int, s string) (err error) {
	*p, err = strconv.Atoi(s)
	return
}
