package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type infoCmd struct {
	tz string
}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "standardizes a series and describes its grid" }
func (*infoCmd) Usage() string {
	return `gfo info [-tz <zone>] <file.csv>

Reads a timeseries file, infers its grid and prints a short report: the
detected frequency, timezone, start-of-day, number of periods, covered
range and total duration in hours.

Use "-" as the file name to read from stdin.

Usage Examples:
# Describe an hourly German spot price file.
$ gfo info -tz Europe/Berlin prices.csv

`
}

func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tz, "tz", "", "IANA timezone of the timestamps. Empty keeps the series timezone-agnostic.")
}

func (c *infoCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one input file is required.")
		f.Usage()
		return subcommands.ExitUsageError
	}

	frame, err := readFrame(f.Arg(0), c.tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	g := frame.Grid()
	var b strings.Builder
	fmt.Fprintf(&b, "# Series %s\n\n", f.Arg(0))
	fmt.Fprintf(&b, "- frequency: `%s` (%s)\n", g.Freq(), g.Freq().Name())
	tz := "agnostic"
	if g.Location() != nil {
		tz = g.Location().String()
	}
	fmt.Fprintf(&b, "- timezone: %s\n", tz)
	fmt.Fprintf(&b, "- start of day: %s\n", g.StartOfDay())
	fmt.Fprintf(&b, "- periods: %d\n", g.Len())
	if !g.IsEmpty() {
		end, err := g.RightEnd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing range: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(&b, "- range: %s to %s (exclusive)\n", g.First(), end)
		durs, err := g.Durations()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing durations: %v\n", err)
			return subcommands.ExitFailure
		}
		var total float64
		for _, q := range durs {
			total += q.BaseFloat()
		}
		fmt.Fprintf(&b, "- total duration: %g h\n", total)
	}
	fmt.Fprintf(&b, "- columns: %s\n", strings.Join(frame.Columns(), ", "))

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
