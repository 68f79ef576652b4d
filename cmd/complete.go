package cmd

import (
	"flag"

	"github.com/etnz/backtest/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the subcommands and their flags.
func Completion() *complete.Command {
	sub := make(map[string]*complete.Command)
	for _, group := range Commands {
		for _, c := range group {
			fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(fs)
			cc := &complete.Command{Flags: make(map[string]complete.Predictor)}
			fs.VisitAll(func(f *flag.Flag) { cc.Flags[f.Name] = predictFlag(f.Name) })
			switch c.Name() {
			case "sweep":
				cc.Args = predict.Files("*.yaml")
			case "perf":
				cc.Args = predict.Files("*.csv")
			case "topic":
				topics, _ := docs.GetAllTopics()
				cc.Args = predict.Set(topics)
			}
			sub[c.Name()] = cc
		}
	}
	return &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"config":   predict.Files("*.yaml"),
			"env-file": predict.Files("*"),
		},
	}
}

func predictFlag(name string) complete.Predictor {
	switch name {
	case "prices", "o":
		return predict.Files("*")
	case "signals", "benchmark":
		return predict.Files("*.csv")
	case "metrics":
		return predict.Files("*.prom")
	case "currency":
		return predict.Set{"CNY", "HKD", "USD", "EUR"}
	case "log-level":
		return predict.Set{"trace", "debug", "info", "warn", "error", "disabled"}
	case "period":
		return predict.Set{"weekly", "monthly", "quarterly", "yearly"}
	case "trades", "asc":
		return predict.Nothing
	default:
		return predict.Something
	}
}
