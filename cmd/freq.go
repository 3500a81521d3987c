package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/gridfolio/gridfolio"
)

type freqCmd struct {
	shortest bool
	longest  bool
}

func (*freqCmd) Name() string     { return "freq" }
func (*freqCmd) Synopsis() string { return "parses and compares frequencies" }
func (*freqCmd) Usage() string {
	return `gfo freq [-shortest | -longest] <freq...>

Parses each frequency and prints its canonical form, one per line. Aliases
like 15MIN, HOURLY or YS-APR are accepted.

With -shortest or -longest, prints only the frequency with the shortest or
longest period length instead.

Usage Examples:
$ gfo freq 15MIN HOURLY QS-APR
$ gfo freq -longest 15T H QS

`
}

func (c *freqCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.shortest, "shortest", false, "Print only the shortest frequency.")
	f.BoolVar(&c.longest, "longest", false, "Print only the longest frequency.")
}

func (c *freqCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 || (c.shortest && c.longest) {
		fmt.Fprintln(os.Stderr, "Error: need at least one frequency, and at most one of -shortest/-longest.")
		f.Usage()
		return subcommands.ExitUsageError
	}

	freqs := make([]gridfolio.Frequency, 0, f.NArg())
	for _, arg := range f.Args() {
		freq, err := gridfolio.ParseFrequency(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		freqs = append(freqs, freq)
	}

	switch {
	case c.shortest:
		fmt.Println(gridfolio.Shortest(freqs...))
	case c.longest:
		fmt.Println(gridfolio.Longest(freqs...))
	default:
		for _, freq := range freqs {
			fmt.Println(freq)
		}
	}
	return subcommands.ExitSuccess
}
