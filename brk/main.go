// Command brk manages a single-user brokerage account stored in a JSON file.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/etnz/brokerage/cmd"
	"github.com/etnz/brokerage/logger"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	// a local .env file may hold the BRK_* variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l := logger.New(false)
		l.Warn().Err(err).Msg("cannot load .env file")
	}

	// exits when invoked by the shell for completion.
	cmd.Completion().Complete("brk")

	commander := subcommands.NewCommander(flag.CommandLine, "brk")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	cfg := cmd.LoadConfig()
	if name := flag.Arg(0); cmd.IsExtension(name) {
		if found, code := cmd.RunExtension(cfg, name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	ctx := logger.WithContext(context.Background(), logger.New(cfg.Verbose))
	os.Exit(int(commander.Execute(ctx)))
}
