// Command bt runs daily stock backtests.
//
// Shell completion is installed with COMP_INSTALL=1 bt.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/backtest/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Completion().Complete("bt")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
