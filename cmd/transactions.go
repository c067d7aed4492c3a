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

// record loads the account, applies op and commits the resulting transaction.
func record(ctx context.Context, op func(a *brokerage.Account) (brokerage.Transaction, error)) subcommands.ExitStatus {
	cfg := LoadConfig()
	a, err := DecodeAccount(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	tx, err := op(a)
	if err != nil {
		return failure("recording transaction", err)
	}
	status := commit(ctx, cfg, a, tx)
	if status == subcommands.ExitSuccess {
		fmt.Fprintf(stdout, "%s (%s)\n", renderer.Transaction(tx, a.Currency()), tx.ID())
	}
	return status
}

// cashFlags are the flags shared by the cash commands.
type cashFlags struct {
	amount string
	note   string
	when   string
}

func (c *cashFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount, an exact decimal like 100 or 12.50")
	f.StringVar(&c.note, "m", "", "An optional note for the transaction")
	f.StringVar(&c.when, "t", "", "Transaction time (RFC 3339 or YYYY-MM-DD), defaults to now")
}

// parse returns the amount and the options of the transaction.
func (c *cashFlags) parse(f *flag.FlagSet) (brokerage.Money, []brokerage.Option, subcommands.ExitStatus) {
	if c.amount == "" {
		f.Usage()
		return brokerage.Money{}, nil, subcommands.ExitUsageError
	}
	amount, err := brokerage.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return brokerage.Money{}, nil, subcommands.ExitUsageError
	}
	opts, err := txOptions(c.when, c.note)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
		return brokerage.Money{}, nil, subcommands.ExitUsageError
	}
	return amount, opts, subcommands.ExitSuccess
}

// --- Deposit Command ---

type depositCmd struct{ cashFlags }

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "add cash to the account" }
func (*depositCmd) Usage() string {
	return `brk deposit -a <amount> [-m <note>] [-t <time>]

  Credits the cash balance of the account.
`
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, opts, status := c.parse(f)
	if status != subcommands.ExitSuccess {
		return status
	}
	return record(ctx, func(a *brokerage.Account) (brokerage.Transaction, error) {
		return a.Deposit(amount, opts...)
	})
}

// --- Withdraw Command ---

type withdrawCmd struct{ cashFlags }

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "remove cash from the account" }
func (*withdrawCmd) Usage() string {
	return `brk withdraw -a <amount> [-m <note>] [-t <time>]

  Debits the cash balance of the account. It fails if the balance is lower
  than the amount.
`
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, opts, status := c.parse(f)
	if status != subcommands.ExitSuccess {
		return status
	}
	return record(ctx, func(a *brokerage.Account) (brokerage.Transaction, error) {
		return a.Withdraw(amount, opts...)
	})
}

// tradeFlags are the flags shared by the trading commands.
type tradeFlags struct {
	symbol   string
	quantity int64
	note     string
	when     string
}

func (c *tradeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Security symbol, e.g. AAPL")
	f.Int64Var(&c.quantity, "q", 0, "Number of shares")
	f.StringVar(&c.note, "m", "", "An optional note for the transaction")
	f.StringVar(&c.when, "t", "", "Transaction time (RFC 3339 or YYYY-MM-DD), defaults to now")
}

func (c *tradeFlags) parse(f *flag.FlagSet) ([]brokerage.Option, subcommands.ExitStatus) {
	if c.symbol == "" || c.quantity <= 0 {
		f.Usage()
		return nil, subcommands.ExitUsageError
	}
	opts, err := txOptions(c.when, c.note)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	return opts, subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares at the current price" }
func (*buyCmd) Usage() string {
	return `brk buy -s <symbol> -q <quantity> [-m <note>] [-t <time>]

  Purchases shares of a security at the price given by the quote service
  (see $BRK_QUOTE_URL) or the built-in price table. The cost is debited from
  the cash balance.
`
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts, status := c.parse(f)
	if status != subcommands.ExitSuccess {
		return status
	}
	return record(ctx, func(a *brokerage.Account) (brokerage.Transaction, error) {
		return a.Buy(c.symbol, c.quantity, opts...)
	})
}

// --- Sell Command ---

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares at the current price" }
func (*sellCmd) Usage() string {
	return `brk sell -s <symbol> -q <quantity> [-m <note>] [-t <time>]

  Sells shares of a security at the current price. The proceeds are credited
  to the cash balance.
`
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts, status := c.parse(f)
	if status != subcommands.ExitSuccess {
		return status
	}
	return record(ctx, func(a *brokerage.Account) (brokerage.Transaction, error) {
		return a.Sell(c.symbol, c.quantity, opts...)
	})
}
