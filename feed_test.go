package gridfolio

import (
	"encoding/json"
	"testing"
	"time"
)

func TestExtractSpotFeed(t *testing.T) {
	raw := `{
		"data": [
			{"timestamp": "2020-06-01T00:00:00+02:00", "price": 30.5},
			{"timestamp": "2020-06-01T01:00:00+02:00", "price": 28.1},
			{"timestamp": "2020-06-01T02:00:00+02:00", "price": 25.0}
		]
	}`
	var jobj any
	if err := json.Unmarshal([]byte(raw), &jobj); err != nil {
		t.Fatal(err)
	}

	s, err := extractSpotFeed(jobj, "$.data[*].timestamp", "$.data[*].price", berlin(t))
	if err != nil {
		t.Fatalf("extractSpotFeed: %v", err)
	}
	if got, want := s.Grid().Freq().String(), "H"; got != want {
		t.Errorf("freq = %q, want %q", got, want)
	}
	if s.Kind() != KindPrice {
		t.Errorf("kind = %v, want price", s.Kind())
	}
	if got, want := s.Value(1), 28.1; got != want {
		t.Errorf("Value(1) = %v, want %v", got, want)
	}
}

func TestExtractSpotFeedEpoch(t *testing.T) {
	jobj := map[string]any{
		"stamps": []any{float64(1590969600), float64(1590973200)},
		"prices": []any{float64(10), float64(20)},
	}
	s, err := extractSpotFeed(jobj, "$.stamps[*]", "$.prices[*]", nil)
	if err != nil {
		t.Fatalf("extractSpotFeed: %v", err)
	}
	if s.Grid().Location() != nil {
		t.Errorf("agnostic feed got location %v", s.Grid().Location())
	}
	want := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	if !s.Grid().First().Equal(want) {
		t.Errorf("First = %v, want %v", s.Grid().First(), want)
	}
}

func TestExtractSpotFeedErrors(t *testing.T) {
	jobj := map[string]any{
		"stamps": []any{"2020-01-01", "2020-01-02"},
		"prices": []any{float64(1)},
	}
	if _, err := extractSpotFeed(jobj, "$.stamps[*]", "$.prices[*]", nil); err == nil {
		t.Error("length mismatch accepted, want error")
	}
	if _, err := extractSpotFeed(jobj, "$.missing[*]", "$.prices[*]", nil); err == nil {
		t.Error("bad jsonpath accepted, want error")
	}
}
