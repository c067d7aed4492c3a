package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// builtins are the commands registered by the subcommands package itself.
var builtins = []string{"help", "flags", "commands"}

// IsExtension reports whether name should be looked up as an external
// brk-<name> binary, that is when it is not a brk subcommand.
func IsExtension(name string) bool {
	if name == "" || strings.HasPrefix(name, "-") {
		return false
	}
	for _, b := range builtins {
		if b == name {
			return false
		}
	}
	for _, c := range Commands {
		if c.Command.Name() == name {
			return false
		}
	}
	return true
}

// RunExtension attempts to find and execute an external brk-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// The resolved configuration is passed down as BRK_* environment variables,
// so extensions work on the same account.
func RunExtension(c Config, subcommand string, args []string) (bool, int) {
	name := "brk-" + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvAccountFile+"="+c.AccountFile,
		EnvVerbose+"="+strconv.FormatBool(c.Verbose),
		EnvQuoteURL+"="+c.QuoteURL,
		EnvQuotePath+"="+c.QuotePath,
		EnvKafkaBrokers+"="+strings.Join(c.KafkaBrokers, ","),
		EnvKafkaTopic+"="+c.KafkaTopic,
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
