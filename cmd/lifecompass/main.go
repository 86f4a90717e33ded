// Command lifecompass is the operator CLI over the percentile engine.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/lifecompass/finance-bfa-go/internal/config"

	"github.com/google/subcommands"
)

func main() {
	_ = config.LoadDotEnv(".env")

	// Exits when invoked by the shell for completion.
	completion().Complete("lifecompass")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&percentileCmd{out: os.Stdout}, "engine")
	commander.Register(&ratingCmd{out: os.Stdout}, "engine")
	commander.Register(&tableCmd{out: os.Stdout}, "engine")
	commander.Register(&reportCmd{in: os.Stdin, out: os.Stdout}, "engine")
	commander.Register(&tokenCmd{out: os.Stdout}, "dev")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
