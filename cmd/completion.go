package cmd

import (
	"flag"
	"strings"

	"github.com/etnz/brokerage"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// predictors suggests values for the flags that have a known domain.
var predictors = map[string]complete.Predictor{
	"account-file": predict.Files("*.json"),
	"o":            predict.Files("*.jsonl"),
	"s":            predict.Set(brokerage.DefaultPrices.Symbols()),
	"symbol":       predict.Set(brokerage.DefaultPrices.Symbols()),
	"types":        predict.Set(txTypeNames()),
	"c":            predict.Set{"USD", "EUR", "GBP", "JPY", "CHF"},
}

func txTypeNames() []string {
	names := make([]string, 0, len(brokerage.TxTypes))
	for _, t := range brokerage.TxTypes {
		names = append(names, string(t))
	}
	return names
}

// flagsOf returns the completion of the flags defined in set.
func flagsOf(set func(*flag.FlagSet)) map[string]complete.Predictor {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	set(fs)
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := predictors[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}

// Completion returns the shell completion of the brk command line.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub: make(map[string]*complete.Command),
		Flags: flagsOf(func(fs *flag.FlagSet) {
			flag.CommandLine.VisitAll(func(f *flag.Flag) {
				if !strings.HasPrefix(f.Name, "test.") {
					fs.Var(f.Value, f.Name, f.Usage)
				}
			})
		}),
	}
	for _, c := range Commands {
		root.Sub[c.Command.Name()] = &complete.Command{Flags: flagsOf(c.Command.SetFlags)}
	}
	return root
}
