package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/gridfolio/gridfolio"
)

type intersectCmd struct {
	flex       bool
	ignoreFreq bool
	ignoreTZ   bool
	ignoreSOD  bool
	tz         string
}

func (*intersectCmd) Name() string     { return "intersect" }
func (*intersectCmd) Synopsis() string { return "reports the common grid of several series" }
func (*intersectCmd) Usage() string {
	return `gfo intersect [-flex] [-ignore-freq] [-ignore-tz] [-ignore-sod] [-tz <zone>] <file.csv...>

Computes the intersection of the grids of several timeseries files and
prints one line per input with its reconciled grid.

By default the intersection is strict: the grids must share frequency,
timezone and start-of-day, and only common timestamps survive. The ignore
flags each tolerate one kind of mismatch; -flex tolerates all three. With
tolerated frequency mismatches every grid is first trimmed to full periods
of the longest frequency, so the outputs cover the same span at their own
frequencies.

Usage Examples:
# Align a quarterly curve with a fiscal-year curve.
$ gfo intersect -ignore-freq offtake_qs.csv price_as.csv

`
}

func (c *intersectCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.flex, "flex", false, "Tolerate frequency, timezone and start-of-day mismatches.")
	f.BoolVar(&c.ignoreFreq, "ignore-freq", false, "Tolerate frequency mismatches.")
	f.BoolVar(&c.ignoreTZ, "ignore-tz", false, "Tolerate timezone mismatches.")
	f.BoolVar(&c.ignoreSOD, "ignore-sod", false, "Tolerate start-of-day mismatches.")
	f.StringVar(&c.tz, "tz", "", "IANA timezone of the timestamps. Empty keeps the series timezone-agnostic.")
}

func (c *intersectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: at least two input files are required.")
		f.Usage()
		return subcommands.ExitUsageError
	}

	grids := make([]gridfolio.Grid, 0, f.NArg())
	for _, name := range f.Args() {
		frame, err := readFrame(name, c.tz)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", name, err)
			return subcommands.ExitFailure
		}
		grids = append(grids, frame.Grid())
	}

	out, err := gridfolio.IntersectFlex(grids,
		c.flex || c.ignoreFreq,
		c.flex || c.ignoreTZ,
		c.flex || c.ignoreSOD)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	for i, name := range f.Args() {
		fmt.Printf("%s: %s\n", name, describeGrid(out[i]))
	}
	return subcommands.ExitSuccess
}
