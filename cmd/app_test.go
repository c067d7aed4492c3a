package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/brokerage"
	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
)

// setup points the global configuration to a fresh account file and
// captures the standard output. It returns the account file and the output.
func setup(t *testing.T, env map[string]string) (string, *bytes.Buffer) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "account.json")

	oldFile, oldRaw, oldGetenv, oldStdout := *accountFile, *raw, getenv, stdout
	t.Cleanup(func() {
		*accountFile, *raw, getenv, stdout = oldFile, oldRaw, oldGetenv, oldStdout
	})

	out := &bytes.Buffer{}
	*accountFile = file
	*raw = true
	getenv = func(key string) string { return env[key] }
	stdout = out
	return file, out
}

// run parses args for c and executes it.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("%s %v: %v", c.Name(), args, err)
	}
	return c.Execute(context.Background(), fs)
}

func loadFile(t *testing.T, file string) *brokerage.Account {
	t.Helper()
	f, err := os.Open(file)
	if err != nil {
		t.Fatalf("cannot open account file: %v", err)
	}
	defer f.Close()
	a, err := brokerage.DecodeAccount(f)
	if err != nil {
		t.Fatalf("cannot decode account file: %v", err)
	}
	return a
}

func TestLoadConfig(t *testing.T) {
	setup(t, map[string]string{
		EnvAccountFile:  "ignored.json", // the flag wins
		EnvVerbose:      "true",
		EnvQuoteURL:     "https://quotes.example.com/{symbol}",
		EnvKafkaBrokers: "k1:9092, k2:9092,",
	})
	*accountFile = "mine.json"

	got := LoadConfig()
	want := Config{
		AccountFile:  "mine.json",
		Verbose:      true,
		QuoteURL:     "https://quotes.example.com/{symbol}",
		QuotePath:    defaultQuotePath,
		KafkaBrokers: []string{"k1:9092", "k2:9092"},
		KafkaTopic:   "brokerage.transactions",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got.Prices().(*brokerage.QuoteService); !ok {
		t.Errorf("Prices() = %T, want a *QuoteService", got.Prices())
	}

	*accountFile = ""
	got = LoadConfig()
	if got.AccountFile != "ignored.json" {
		t.Errorf("AccountFile = %q, want the environment value", got.AccountFile)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setup(t, nil)
	*accountFile = ""
	got := LoadConfig()
	if got.AccountFile != defaultAccountFile || got.Verbose || len(got.KafkaBrokers) != 0 {
		t.Errorf("LoadConfig() = %+v, want the defaults", got)
	}
	if _, ok := got.Prices().(brokerage.StaticPrices); !ok {
		t.Errorf("Prices() = %T, want the default price table", got.Prices())
	}
}

func TestParseTime(t *testing.T) {
	testCases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "", want: time.Time{}},
		{in: "2025-02-03", want: time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)},
		{in: "2025-02-03T10:11:12+02:00", want: time.Date(2025, time.February, 3, 8, 11, 12, 0, time.UTC)},
		{in: "03/02/2025", wantErr: true},
		{in: "yesterday", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseTime(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) = %v, want an error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTime(%q) unexpected error: %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCommands_EndToEnd(t *testing.T) {
	file, out := setup(t, nil)

	steps := []struct {
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{&initCmd{}, []string{"-u", "alice", "-i", "1000", "-t", "2025-01-02"}, subcommands.ExitSuccess},
		{&initCmd{}, []string{"-u", "alice"}, subcommands.ExitFailure}, // never overwrites
		{&depositCmd{}, []string{"-a", "500.50", "-m", "salary", "-t", "2025-01-03"}, subcommands.ExitSuccess},
		{&buyCmd{}, []string{"-s", "aapl", "-q", "3", "-t", "2025-01-04"}, subcommands.ExitSuccess},
		{&buyCmd{}, []string{"-s", "GOOGL", "-q", "1"}, subcommands.ExitFailure}, // insufficient funds
		{&sellCmd{}, []string{"-s", "TSLA", "-q", "1"}, subcommands.ExitFailure}, // insufficient shares
		{&sellCmd{}, []string{"-s", "AAPL", "-q", "1", "-t", "2025-01-05"}, subcommands.ExitSuccess},
		{&withdrawCmd{}, []string{"-a", "200", "-t", "2025-01-06"}, subcommands.ExitSuccess},
		{&withdrawCmd{}, []string{"-a", "1000000"}, subcommands.ExitFailure},
		{&withdrawCmd{}, []string{"-a", "ten"}, subcommands.ExitUsageError},
		{&depositCmd{}, []string{}, subcommands.ExitUsageError},
		{&buyCmd{}, []string{"-s", "AAPL"}, subcommands.ExitUsageError},
		{&buyCmd{}, []string{"-s", "AAPL", "-q", "1", "-t", "someday"}, subcommands.ExitUsageError},
	}
	for i, s := range steps {
		if got := run(t, s.cmd, s.args...); got != s.want {
			t.Fatalf("step %d: %s %v = %v, want %v", i, s.cmd.Name(), s.args, got, s.want)
		}
	}

	a := loadFile(t, file)
	// 1000 + 500.50 - 450 + 150 - 200
	if got := a.CashBalance().String(); got != "1000.50" {
		t.Errorf("CashBalance() = %s, want 1000.50", got)
	}
	if diff := cmp.Diff(brokerage.Holdings{"AAPL": 2}, a.Holdings()); diff != "" {
		t.Errorf("Holdings() mismatch (-want +got):\n%s", diff)
	}
	if a.Len() != 5 {
		t.Errorf("Len() = %d, want 5", a.Len())
	}
	if !strings.Contains(out.String(), "Bought 3 AAPL at $150.00 for $450.00") {
		t.Errorf("buy confirmation missing from output:\n%s", out)
	}
	if matches, _ := filepath.Glob(file + ".*.tmp"); len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}

	out.Reset()
	if got := run(t, &txCmd{}, "-types", "buy,sell", "-s", "2025-01-05"); got != subcommands.ExitSuccess {
		t.Fatalf("tx = %v", got)
	}
	if s := out.String(); !strings.Contains(s, "| sell |") || strings.Contains(s, "| buy |") {
		t.Errorf("tx output does not match the filters:\n%s", s)
	}
	if got := run(t, &txCmd{}, "-types", "gift"); got != subcommands.ExitUsageError {
		t.Errorf("tx -types gift = %v, want a usage error", got)
	}

	out.Reset()
	if got := run(t, &summaryCmd{}); got != subcommands.ExitSuccess {
		t.Fatalf("summary = %v", got)
	}
	if !strings.Contains(out.String(), "$1,300.50") { // 1000.50 cash + 2 x 150
		t.Errorf("summary does not show the total equity:\n%s", out)
	}

	out.Reset()
	if got := run(t, &holdingCmd{}); got != subcommands.ExitSuccess {
		t.Fatalf("holding = %v", got)
	}
	if !strings.Contains(out.String(), "| AAPL | 2 | $150.00 | $300.00 |") {
		t.Errorf("holding does not show the AAPL position:\n%s", out)
	}

	id := a.Transactions(brokerage.OfType(brokerage.TypeSell))[0].ID()
	out.Reset()
	if got := run(t, &showCmd{}, id); got != subcommands.ExitSuccess {
		t.Fatalf("show = %v", got)
	}
	if !strings.Contains(out.String(), "# Transaction "+id) {
		t.Errorf("show output:\n%s", out)
	}
	if got := run(t, &showCmd{}, "unknown"); got != subcommands.ExitFailure {
		t.Errorf("show unknown = %v, want a failure", got)
	}
	if got := run(t, &showCmd{}); got != subcommands.ExitUsageError {
		t.Errorf("show without id = %v, want a usage error", got)
	}
}

func TestExportCmd(t *testing.T) {
	file, out := setup(t, nil)
	if got := run(t, &initCmd{}, "-u", "bob", "-i", "300"); got != subcommands.ExitSuccess {
		t.Fatalf("init = %v", got)
	}
	if got := run(t, &buyCmd{}, "-s", "AAPL", "-q", "1"); got != subcommands.ExitSuccess {
		t.Fatalf("buy = %v", got)
	}

	exported := filepath.Join(filepath.Dir(file), "ledger.jsonl")
	if got := run(t, &exportCmd{}, "-o", exported); got != subcommands.ExitSuccess {
		t.Fatalf("export = %v", got)
	}
	f, err := os.Open(exported)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	txs, err := brokerage.DecodeLedger(f)
	if err != nil {
		t.Fatalf("DecodeLedger() failed: %v", err)
	}
	want := loadFile(t, file).Transactions()
	if len(txs) != len(want) {
		t.Fatalf("exported %d transactions, want %d", len(txs), len(want))
	}
	for i := range txs {
		if !txs[i].Equal(want[i]) {
			t.Errorf("transaction #%d: got %v, want %v", i, txs[i], want[i])
		}
	}

	out.Reset()
	if got := run(t, &exportCmd{}); got != subcommands.ExitSuccess {
		t.Fatalf("export to stdout = %v", got)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("export wrote %d lines, want 2:\n%s", n, out)
	}
}

func TestCommands_QuoteService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"symbol":%q,"price":"12.34"}}`, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer srv.Close()

	file, _ := setup(t, map[string]string{
		EnvQuoteURL:  srv.URL + "/{symbol}",
		EnvQuotePath: "$.data.price",
	})
	if got := run(t, &initCmd{}, "-u", "carol", "-i", "100"); got != subcommands.ExitSuccess {
		t.Fatalf("init = %v", got)
	}
	if got := run(t, &buyCmd{}, "-s", "NVDA", "-q", "2"); got != subcommands.ExitSuccess {
		t.Fatalf("buy = %v", got)
	}
	if got := loadFile(t, file).CashBalance().String(); got != "75.32" {
		t.Errorf("CashBalance() = %s, want 75.32", got)
	}
}

func TestMissingAccount(t *testing.T) {
	setup(t, nil)
	if got := run(t, &depositCmd{}, "-a", "10"); got != subcommands.ExitFailure {
		t.Errorf("deposit without account = %v, want a failure", got)
	}
	if got := run(t, &holdingCmd{}); got != subcommands.ExitFailure {
		t.Errorf("holding without account = %v, want a failure", got)
	}
}

func TestCompletion(t *testing.T) {
	c := Completion()
	for _, cmd := range Commands {
		if _, ok := c.Sub[cmd.Command.Name()]; !ok {
			t.Errorf("no completion for %q", cmd.Command.Name())
		}
	}
	buy := c.Sub["buy"]
	for _, name := range []string{"s", "q", "m", "t"} {
		if _, ok := buy.Flags[name]; !ok {
			t.Errorf("no completion for buy -%s", name)
		}
	}
	if got := buy.Flags["s"].Predict(""); !cmp.Equal(got, brokerage.DefaultPrices.Symbols()) {
		t.Errorf("buy -s predicts %v, want the known symbols", got)
	}
	if _, ok := c.Flags["account-file"]; !ok {
		t.Errorf("no completion for the -account-file global flag")
	}
}

func TestFmtCmd(t *testing.T) {
	file, _ := setup(t, nil)
	if got := run(t, &initCmd{}, "-u", "dave", "-i", "10"); got != subcommands.ExitSuccess {
		t.Fatalf("init = %v", got)
	}
	want, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}

	// compact, but valid
	var b bytes.Buffer
	if err := json.Compact(&b, want); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := run(t, &fmtCmd{}); got != subcommands.ExitSuccess {
		t.Fatalf("fmt = %v", got)
	}
	got, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("formatted file mismatch (-want +got):\n%s", diff)
	}

	// tampered, left untouched
	tampered := bytes.Replace(want, []byte(`"cash": "10.00"`), []byte(`"cash": "99.00"`), 1)
	if bytes.Equal(tampered, want) {
		t.Fatalf("test setup: cash not found in\n%s", want)
	}
	if err := os.WriteFile(file, tampered, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := run(t, &fmtCmd{}); got != subcommands.ExitFailure {
		t.Errorf("fmt on a tampered file = %v, want a failure", got)
	}
	if got, _ := os.ReadFile(file); !bytes.Equal(got, tampered) {
		t.Errorf("fmt modified an invalid file")
	}
}
