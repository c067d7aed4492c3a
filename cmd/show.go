package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/brokerage/renderer"
	"github.com/google/subcommands"
)

type showCmd struct{}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display a single transaction" }
func (*showCmd) Usage() string {
	return `brk show <id>

  Displays every field of the transaction with the given id, including the
  cash balance and the holdings right after it.
`
}

func (*showCmd) SetFlags(f *flag.FlagSet) {}

func (*showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := DecodeAccount(ctx, LoadConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	tx, err := a.Transaction(f.Arg(0))
	if err != nil {
		return failure("showing transaction", err)
	}
	printMarkdown(renderer.RenderTransaction(&renderer.Detail{Currency: a.Currency(), Transaction: tx}))
	return subcommands.ExitSuccess
}
