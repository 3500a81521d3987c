package gridfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// this file contains functions to handle the import/export format.
// It should remain human readable, single file and easy to diff.

// stampLayouts are the accepted timestamp formats, tried in order.
var stampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseStamp parses a timestamp in one of the accepted layouts.
//
// When loc is nil the stamp is read as timezone-agnostic: naive layouts are
// interpreted as UTC wall times, and RFC3339 offsets are kept as given.
// When loc is set, the parsed instant is expressed in that location.
func ParseStamp(s string, loc *time.Location) (time.Time, error) {
	parseIn := time.UTC
	if loc != nil {
		parseIn = loc
	}
	for _, layout := range stampLayouts {
		ts, err := time.ParseInLocation(layout, s, parseIn)
		if err != nil {
			continue
		}
		if loc != nil {
			ts = ts.In(loc)
		}
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

// ImportSeries imports a series from 'r' in the import/export format.
//
// The format is a CSV file with a header line. The first column holds the
// timestamps, every further column holds one value series. The grid is
// inferred from the timestamp spacing, so the file must hold at least two
// rows of gapless, sorted timestamps.
//
// The returned frame carries one agnostic-kind column per value column,
// named after the header. Callers that know the dimension of a column
// classify it afterwards (see [Classify]).
func ImportSeries(r io.Reader, loc *time.Location) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv must have a header and at least one row")
	}
	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("csv must have a timestamp column and at least one value column")
	}
	rows := records[1:]

	stamps := make([]time.Time, 0, len(rows))
	cols := make([][]float64, len(header)-1)
	for i := range cols {
		cols[i] = make([]float64, 0, len(rows))
	}

	for n, rec := range rows {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d: got %d fields, want %d", n+2, len(rec), len(header))
		}
		ts, err := ParseStamp(rec[0], loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		stamps = append(stamps, ts)
		for i, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", n+2, header[i+1], err)
			}
			cols[i] = append(cols[i], v)
		}
	}

	g, err := InferGrid(stamps...)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		g = g.Dislocated()
	}

	f := NewFrame(g)
	for i, name := range header[1:] {
		s, err := NewSeries(g, KindAgnostic, cols[i])
		if err != nil {
			return nil, err
		}
		if err := f.AddColumn(name, s); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ExportSeries writes a frame to 'w' in the import/export format.
//
// Timestamps are written in RFC3339 for localized grids and as naive
// "2006-01-02 15:04:05" wall times for timezone-agnostic ones.
func ExportSeries(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)

	names := f.Columns()
	header := append([]string{"timestamp"}, names...)
	if err := cw.Write(header); err != nil {
		return err
	}

	g := f.Grid()
	layout := time.RFC3339
	if g.Location() == nil {
		layout = "2006-01-02 15:04:05"
	}

	series := make([]Series, len(names))
	for i, name := range names {
		series[i], _ = f.Column(name)
	}

	for i, ts := range g.All() {
		rec := make([]string, 0, len(header))
		rec = append(rec, ts.Format(layout))
		for _, s := range series {
			rec = append(rec, strconv.FormatFloat(s.Value(i), 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
