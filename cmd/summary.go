package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/brokerage/renderer"
	"github.com/google/subcommands"
)

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display equity and profit/loss" }
func (*summaryCmd) Usage() string {
	return `brk summary

  Displays the total equity of the account, the contributed capital, and the
  profit/loss measured against the initial deposit and against the net
  deposits (total deposits minus total withdrawals).
`
}

func (*summaryCmd) SetFlags(f *flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := valuate(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderSummary(v))
	return subcommands.ExitSuccess
}
