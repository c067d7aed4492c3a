package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/renderer"
	"github.com/google/subcommands"
)

type txCmd struct {
	start  string
	end    string
	types  string
	symbol string
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of the ledger" }
func (*txCmd) Usage() string {
	return `brk tx [-s <start>] [-e <end>] [-types <type,...>] [-symbol <symbol>] [-head <n>] [-tail <n>]

  Lists transactions in ledger order. All the given filters must match. Times
  are RFC 3339 or YYYY-MM-DD; both bounds are inclusive. Types are any of
  deposit, withdraw, buy and sell.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.start, "s", "", "Only transactions at or after this time")
	f.StringVar(&p.end, "e", "", "Only transactions at or before this time")
	f.StringVar(&p.types, "types", "", "Comma separated transaction types to keep")
	f.StringVar(&p.symbol, "symbol", "", "Only trades of this symbol")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

// filters returns the ledger filters selected by the flags.
func (p *txCmd) filters() ([]brokerage.Filter, error) {
	var filters []brokerage.Filter
	if p.start != "" {
		start, err := parseTime(p.start)
		if err != nil {
			return nil, err
		}
		filters = append(filters, brokerage.Since(start))
	}
	if p.end != "" {
		end, err := parseTime(p.end)
		if err != nil {
			return nil, err
		}
		filters = append(filters, brokerage.Until(end))
	}
	if p.types != "" {
		var types []brokerage.TxType
		for _, s := range strings.Split(p.types, ",") {
			t, err := brokerage.ParseTxType(strings.TrimSpace(s))
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		filters = append(filters, brokerage.OfType(types...))
	}
	if p.symbol != "" {
		filters = append(filters, brokerage.BySymbol(p.symbol))
	}
	return filters, nil
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	filters, err := p.filters()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing filters: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := DecodeAccount(ctx, LoadConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	transactions := a.Transactions(filters...)

	if p.head > 0 && len(transactions) > p.head {
		transactions = transactions[:p.head]
	}
	if p.tail > 0 && len(transactions) > p.tail {
		transactions = transactions[len(transactions)-p.tail:]
	}

	printMarkdown(renderer.RenderTransactions(&renderer.Ledger{
		UserID:       a.UserID(),
		Currency:     a.Currency(),
		Transactions: transactions,
	}))
	return subcommands.ExitSuccess
}
