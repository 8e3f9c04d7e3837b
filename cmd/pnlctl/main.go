// Command pnlctl records trades and reports positions and PnL against the
// store configured for the API server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&recordCmd{}, "trades")
	commander.Register(&tradesCmd{}, "trades")
	commander.Register(&positionsCmd{}, "reports")
	commander.Register(&pnlCmd{}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
