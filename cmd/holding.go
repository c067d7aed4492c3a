package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/renderer"
	"github.com/google/subcommands"
)

// valuate loads the account and values it at the configured prices.
func valuate(ctx context.Context) (*brokerage.Valuation, error) {
	cfg := LoadConfig()
	a, err := DecodeAccount(ctx, cfg)
	if err != nil {
		return nil, err
	}
	v, err := a.Valuate()
	if err != nil {
		return nil, fmt.Errorf("cannot value account: %w", err)
	}
	return &v, nil
}

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct{}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display cash and positions at current prices" }
func (*holdingCmd) Usage() string {
	return `brk holding

  Displays the cash balance, every position valued at the current price, and
  the total equity of the account.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	v, err := valuate(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderHolding(v))
	return subcommands.ExitSuccess
}
