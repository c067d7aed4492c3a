package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/brokerage"
	"github.com/google/subcommands"
)

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger as JSON lines" }
func (*exportCmd) Usage() string {
	return `brk export [-o <file>]

  Writes every transaction of the ledger, one JSON object per line, in ledger
  order. Writes to the standard output by default.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file, standard output if empty")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := DecodeAccount(ctx, LoadConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var w io.Writer = stdout
	if c.output != "" {
		out, err := os.Create(c.output)
		if err != nil {
			return failure("creating output file", err)
		}
		defer out.Close()
		w = out
	}
	if err := brokerage.EncodeLedger(w, a.Transactions()); err != nil {
		return failure("exporting ledger", err)
	}
	return subcommands.ExitSuccess
}
