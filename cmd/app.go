// Package cmd implements the CLI application to work with energy timeseries.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/gridfolio/gridfolio"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&infoCmd{}, "series")
	c.Register(&resampleCmd{}, "series")
	c.Register(&intersectCmd{}, "series")
	c.Register(&mapyearCmd{}, "series")
	c.Register(&fetchCmd{}, "series")

	c.Register(&freqCmd{}, "frequencies")

	c.Register(&topicCmd{}, "documentation")
}

// location resolves a -tz flag value. Empty means timezone-agnostic.
func location(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, nil
	}
	return time.LoadLocation(tz)
}

// readFrame loads a timeseries file in the import/export format.
// The name "-" reads from stdin.
func readFrame(name, tz string) (*gridfolio.Frame, error) {
	loc, err := location(tz)
	if err != nil {
		return nil, err
	}

	var r io.Reader = os.Stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	return gridfolio.ImportSeries(r, loc)
}

// writeFrame writes a frame to the named file, or to stdout for "-".
func writeFrame(name string, f *gridfolio.Frame) error {
	var w io.Writer = os.Stdout
	if name != "-" {
		file, err := os.Create(name)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return gridfolio.ExportSeries(w, f)
}

// describeGrid is the one-line grid summary shared by the report commands.
func describeGrid(g gridfolio.Grid) string {
	tz := "agnostic"
	if g.Location() != nil {
		tz = g.Location().String()
	}
	if g.IsEmpty() {
		return fmt.Sprintf("%s, %s, empty", g.Freq(), tz)
	}
	end, err := g.RightEnd()
	if err != nil {
		return fmt.Sprintf("%s, %s, %d periods", g.Freq(), tz, g.Len())
	}
	return fmt.Sprintf("%s, %s, %d periods, %s to %s",
		g.Freq(), tz, g.Len(),
		g.First().Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
}
