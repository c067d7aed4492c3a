package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/logger"
	"github.com/google/subcommands"
)

type initCmd struct {
	user     string
	initial  string
	currency string
	when     string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "open a new account" }
func (*initCmd) Usage() string {
	return `brk init -u <user> [-i <initial deposit>] [-c <currency>] [-t <time>]

  Creates the account file with an optional initial deposit. The initial
  deposit is the baseline of the profit/loss since opening. An existing
  account file is never overwritten.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id owning the account")
	f.StringVar(&c.initial, "i", "0", "Initial deposit")
	f.StringVar(&c.currency, "c", brokerage.DefaultCurrency, "Account currency (ISO 4217 code)")
	f.StringVar(&c.when, "t", "", "Time of the initial deposit (RFC 3339 or YYYY-MM-DD), defaults to now")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	initial, err := brokerage.ParseMoney(c.initial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing initial deposit: %v\n", err)
		return subcommands.ExitUsageError
	}
	opts, err := txOptions(c.when, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg := LoadConfig()
	if _, err := os.Stat(cfg.AccountFile); !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: account file %q already exists\n", cfg.AccountFile)
		return subcommands.ExitFailure
	}

	a, err := brokerage.NewAccount(c.user, initial, c.currency, opts...)
	if err != nil {
		return failure("creating account", err)
	}
	log := logger.ForAccount(logger.FromContext(ctx), a.UserID(), cfg.AccountFile)
	log.Info().
		Str("currency", a.Currency()).
		Stringer("initial_deposit", a.InitialDeposit()).
		Msg("account created")

	// the initial deposit is saved and published like any other transaction.
	if txs := a.Transactions(); len(txs) > 0 {
		return commit(ctx, cfg, a, txs[0])
	}
	if err := EncodeAccount(ctx, cfg, a); err != nil {
		return failure("saving account", err)
	}
	return subcommands.ExitSuccess
}
