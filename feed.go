package gridfolio

import (
	"fmt"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// FetchSpotFeed downloads a JSON price feed and extracts one series from it.
//
// stampPath and valuePath are jsonpath expressions selecting the array of
// timestamps and the array of prices, for example "$.data[*].timestamp" and
// "$.data[*].price". Responses are cached on disk for a day.
//
// Stamps are parsed with [ParseStamp] in loc (nil for timezone-agnostic) and
// the grid is inferred from their spacing. The values are returned as a
// price series in the default registry's base unit.
func FetchSpotFeed(addr, stampPath, valuePath string, loc *time.Location) (Series, error) {
	var jobj any
	if err := getJSON(feedClient(), addr, &jobj); err != nil {
		return Series{}, fmt.Errorf("cannot fetch feed %q: %w", addr, err)
	}
	return extractSpotFeed(jobj, stampPath, valuePath, loc)
}

func extractSpotFeed(jobj any, stampPath, valuePath string, loc *time.Location) (Series, error) {
	rawStamps, err := jsonpathList(jobj, stampPath)
	if err != nil {
		return Series{}, fmt.Errorf("cannot extract timestamps: %w", err)
	}
	rawValues, err := jsonpathList(jobj, valuePath)
	if err != nil {
		return Series{}, fmt.Errorf("cannot extract values: %w", err)
	}
	if len(rawStamps) != len(rawValues) {
		return Series{}, fmt.Errorf("feed mismatch: %d timestamps but %d values", len(rawStamps), len(rawValues))
	}

	stamps := make([]time.Time, len(rawStamps))
	for i, raw := range rawStamps {
		ts, err := feedStamp(raw, loc)
		if err != nil {
			return Series{}, fmt.Errorf("timestamp %d: %w", i, err)
		}
		stamps[i] = ts
	}

	values := make([]float64, len(rawValues))
	for i, raw := range rawValues {
		v, ok := raw.(float64)
		if !ok {
			return Series{}, fmt.Errorf("value %d: %v is not a number", i, raw)
		}
		values[i] = v
	}

	g, err := InferGrid(stamps...)
	if err != nil {
		return Series{}, err
	}
	if loc == nil {
		g = g.Dislocated()
	}
	return NewSeries(g, KindPrice, values)
}

// jsonpathList evaluates a jsonpath expression and always returns a list.
// jsonpath is never clear about whether it returns a list or a single
// answer, so a single answer is wrapped.
func jsonpathList(jobj any, path string) ([]any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %q: %w", path, err)
	}
	if jlist, ok := jval.([]any); ok {
		return jlist, nil
	}
	return []any{jval}, nil
}

// feedStamp reads one feed timestamp, given either as a string in one of the
// accepted layouts or as a unix epoch number (seconds, or milliseconds for
// values too large to be seconds).
func feedStamp(raw any, loc *time.Location) (time.Time, error) {
	switch v := raw.(type) {
	case string:
		return ParseStamp(v, loc)
	case float64:
		sec := int64(v)
		if sec > 1e11 { // epoch millis
			sec /= 1000
		}
		ts := time.Unix(sec, 0)
		if loc == nil {
			// agnostic grids carry UTC wall times
			return ts.UTC(), nil
		}
		return ts.In(loc), nil
	default:
		return time.Time{}, fmt.Errorf("%v is neither a timestamp string nor an epoch number", raw)
	}
}
