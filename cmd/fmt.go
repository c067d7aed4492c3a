package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the account file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `brk fmt

  Validates the account file: every transaction of the ledger is replayed and
  its recorded balances are checked. Then writes the file back in its
  canonical form. The file is left untouched if it is not valid.

Usage Examples:
# Formats the default account file.
$ brk fmt

`
}

func (*fmtCmd) SetFlags(f *flag.FlagSet) {}

func (*fmtCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := LoadConfig()
	a, err := DecodeAccount(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := EncodeAccount(ctx, cfg, a); err != nil {
		return failure("saving account", err)
	}
	fmt.Fprintf(os.Stderr, "Account file %q has been formatted.\n", cfg.AccountFile)
	return subcommands.ExitSuccess
}
