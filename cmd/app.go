// Package cmd implements the brk CLI application to manage a brokerage account.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/events"
	"github.com/etnz/brokerage/logger"
	"github.com/google/subcommands"
)

// Environment variables read by brk. They override the built-in defaults and
// are overridden by the global flags.
const (
	EnvAccountFile  = "BRK_ACCOUNT_FILE"
	EnvVerbose      = "BRK_VERBOSE"
	EnvQuoteURL     = "BRK_QUOTE_URL"
	EnvQuotePath    = "BRK_QUOTE_PATH"
	EnvKafkaBrokers = "BRK_KAFKA_BROKERS"
	EnvKafkaTopic   = "BRK_KAFKA_TOPIC"
)

const (
	defaultAccountFile = "account.json"
	defaultQuotePath   = "$.price"
	publishTimeout     = 10 * time.Second
)

// Commands lists every subcommand with its group.
var Commands = []struct {
	Command subcommands.Command
	Group   string
}{
	{&initCmd{}, "account"},
	{&exportCmd{}, "account"},
	{&fmtCmd{}, "account"},
	{&depositCmd{}, "cash"},
	{&withdrawCmd{}, "cash"},
	{&buyCmd{}, "trading"},
	{&sellCmd{}, "trading"},
	{&holdingCmd{}, "reports"},
	{&summaryCmd{}, "reports"},
	{&txCmd{}, "reports"},
	{&showCmd{}, "reports"},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd.Command, cmd.Group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var accountFile = flag.String("account-file", "", "Path to the account file (default $"+EnvAccountFile+" or "+defaultAccountFile+")")
var verbose = flag.Bool("v", false, "Verbose logging (default $"+EnvVerbose+")")
var raw = flag.Bool("raw", false, "Print reports as plain markdown, without terminal styling")

// getenv and stdout are replaced in tests.
var (
	getenv           = os.Getenv
	stdout io.Writer = os.Stdout
)

// Config is the resolved configuration of a brk invocation.
type Config struct {
	AccountFile  string
	Verbose      bool
	QuoteURL     string // a QuoteService URL template, DefaultPrices if empty
	QuotePath    string
	KafkaBrokers []string // no publishing if empty
	KafkaTopic   string
}

// LoadConfig resolves the configuration from the global flags, then the
// environment, then the defaults.
func LoadConfig() Config {
	c := Config{
		AccountFile: *accountFile,
		Verbose:     *verbose,
		QuoteURL:    getenv(EnvQuoteURL),
		QuotePath:   getenv(EnvQuotePath),
		KafkaTopic:  getenv(EnvKafkaTopic),
	}
	if c.AccountFile == "" {
		c.AccountFile = getenv(EnvAccountFile)
	}
	if c.AccountFile == "" {
		c.AccountFile = defaultAccountFile
	}
	if !c.Verbose {
		c.Verbose, _ = strconv.ParseBool(getenv(EnvVerbose))
	}
	if c.QuotePath == "" {
		c.QuotePath = defaultQuotePath
	}
	for _, b := range strings.Split(getenv(EnvKafkaBrokers), ",") {
		if b = strings.TrimSpace(b); b != "" {
			c.KafkaBrokers = append(c.KafkaBrokers, b)
		}
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = events.DefaultTopic
	}
	return c
}

// Prices returns the price lookup configured for this invocation.
func (c Config) Prices() brokerage.PriceLookup {
	if c.QuoteURL == "" {
		return brokerage.DefaultPrices
	}
	return brokerage.NewQuoteService(c.QuoteURL, c.QuotePath)
}

// Publisher returns the publisher configured for this invocation.
func (c Config) Publisher() events.Publisher {
	if len(c.KafkaBrokers) == 0 {
		return events.Discard
	}
	return events.NewKafkaPublisher(c.KafkaBrokers, c.KafkaTopic)
}

// DecodeAccount loads the account from the configured account file.
func DecodeAccount(ctx context.Context, c Config) (*brokerage.Account, error) {
	f, err := os.Open(c.AccountFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("account file %q does not exist, create it with 'brk init'", c.AccountFile)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := brokerage.DecodeAccount(f, brokerage.WithPrices(c.Prices()))
	if err != nil {
		return nil, fmt.Errorf("cannot load account file %q: %w", c.AccountFile, err)
	}
	log := logger.ForAccount(logger.FromContext(ctx), a.UserID(), c.AccountFile)
	log.Debug().Int("transactions", a.Len()).Msg("account loaded")
	return a, nil
}

// EncodeAccount saves the account to the configured account file. The file
// is replaced atomically: a failed write leaves the previous version intact.
func EncodeAccount(ctx context.Context, c Config, a *brokerage.Account) error {
	dir, base := filepath.Split(c.AccountFile)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot save account: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after the rename

	if err := brokerage.EncodeAccount(tmp, a); err != nil {
		tmp.Close()
		return err
	}
	if err := errors.Join(tmp.Sync(), tmp.Close()); err != nil {
		return fmt.Errorf("cannot save account: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.AccountFile); err != nil {
		return fmt.Errorf("cannot save account: %w", err)
	}
	log := logger.ForAccount(logger.FromContext(ctx), a.UserID(), c.AccountFile)
	log.Debug().Int("transactions", a.Len()).Msg("account saved")
	return nil
}

// commit saves the account after tx was recorded, then publishes tx.
// A publishing failure is only reported: the account file is the reference.
func commit(ctx context.Context, c Config, a *brokerage.Account, tx brokerage.Transaction) subcommands.ExitStatus {
	log := logger.ForAccount(logger.FromContext(ctx), a.UserID(), c.AccountFile)
	if err := EncodeAccount(ctx, c, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving account: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("id", tx.ID()).Str("type", string(tx.What())).Stringer("total", tx.Total()).Msg("transaction recorded")

	p := c.Publisher()
	defer p.Close()
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.Publish(pctx, events.Event{UserID: a.UserID(), Currency: a.Currency(), Transaction: tx}); err != nil {
		log.Warn().Err(err).Str("id", tx.ID()).Msg("transaction not published")
	} else if len(c.KafkaBrokers) > 0 {
		log.Debug().Str("id", tx.ID()).Str("topic", c.KafkaTopic).Msg("transaction published")
	}
	return subcommands.ExitSuccess
}

// parseTime parses a transaction time: RFC 3339, or a YYYY-MM-DD date taken
// at midnight UTC. The empty string is the zero time, meaning now.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, use RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// txOptions returns the options of a transaction recorded at when with note.
func txOptions(when, note string) ([]brokerage.Option, error) {
	t, err := parseTime(when)
	if err != nil {
		return nil, err
	}
	var opts []brokerage.Option
	if !t.IsZero() {
		opts = append(opts, brokerage.At(t))
	}
	if note != "" {
		opts = append(opts, brokerage.WithNote(note))
	}
	return opts, nil
}

// failure reports err on stderr.
func failure(action string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	return subcommands.ExitFailure
}
