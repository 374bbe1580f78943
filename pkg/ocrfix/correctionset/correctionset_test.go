package correctionset

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/ocrfix/pkg/ocrfix/analytics"
	"github.com/cognicore/ocrfix/pkg/ocrfix/classify"
	"github.com/cognicore/ocrfix/pkg/ocrfix/config"
	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
	"github.com/cognicore/ocrfix/pkg/ocrfix/oracle"
	"github.com/cognicore/ocrfix/pkg/ocrfix/scan"
	"github.com/cognicore/ocrfix/pkg/ocrfix/suggest"
)

func setup(t *testing.T, words ...string) (*classify.Classifier, *suggest.Suggester) {
	t.Helper()
	tables := config.DefaultTables()
	c, err := classify.NewClassifier(tables.GarbagePatterns, tables.PreserveTerms)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	var o oracle.Oracle = oracle.Nop{}
	if len(words) > 0 {
		o = oracle.NewDictionary(oracle.NewWordList(words), nil)
	}
	return c, suggest.New(c, o, tables.KnownCorrections)
}

func repeat(token string, n int, conf float64) []scan.Record {
	out := make([]scan.Record, n)
	for i := range out {
		out[i] = scan.Record{Token: token, Confidence: conf}
	}
	return out
}

func corpus(t *testing.T, c *classify.Classifier, threshold float64) analytics.Stats {
	t.Helper()
	a := analytics.NewAggregator(threshold, c)
	var recs []scan.Record
	recs = append(recs, repeat("vvith", 5, 20)...)
	recs = append(recs, repeat("1ady", 3, 25)...)
	recs = append(recs, repeat("1st", 9, 10)...)
	recs = append(recs, repeat("berk", 20, 10)...)
	recs = append(recs, repeat("+HE+", 4, 5)...)
	recs = append(recs, repeat("1d6", 6, 15)...)
	recs = append(recs, repeat("0f", 6, 15)...)
	recs = append(recs, repeat("thar", 2, 35)...)
	recs = append(recs, repeat("rhe", 1, 30)...)
	recs = append(recs, repeat("xyzzy", 7, 35.2)...)
	a.Add("ch01", recs)
	return a.Snapshot()
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func TestBuildScenarios(t *testing.T) {
	c, s := setup(t, "lady")
	b := NewBuilder(s, 2)
	b.Now = fixedNow

	cs, err := b.Build(context.Background(), corpus(t, c, 40))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := Entries{
		{Source: "vvith", Target: "with"},
		{Source: "+HE+", Target: ""},
		{Source: "1ady", Target: "lady"},
		{Source: "thar", Target: "that"},
	}
	if !reflect.DeepEqual(cs.Corrections, want) {
		t.Fatalf("Corrections = %+v\nwant %+v", cs.Corrections, want)
	}
	for _, absent := range []string{"1st", "berk", "1d6", "0f", "xyzzy", "rhe"} {
		if _, ok := cs.Corrections.Get(absent); ok {
			t.Errorf("%q must not be in the mapping", absent)
		}
	}

	md := cs.Metadata
	if md.Version != "1.0.0" || md.Description != DefaultDescription {
		t.Errorf("metadata = %+v", md)
	}
	if md.Generated != "2024-05-01T12:00:00Z" {
		t.Errorf("Generated = %q", md.Generated)
	}
	if md.WordCount != 9 || md.CorrectionsCount != 4 {
		t.Errorf("word_count=%d corrections_count=%d", md.WordCount, md.CorrectionsCount)
	}
	if _, err := ulid.Parse(md.RunID); err != nil {
		t.Errorf("RunID %q is not a ULID: %v", md.RunID, err)
	}
	if md.Threshold != 40 || md.MinOccurrences != 2 {
		t.Errorf("thresholds = %v / %d", md.Threshold, md.MinOccurrences)
	}
	if !reflect.DeepEqual(cs.GarbagePatterns, config.DefaultTables().GarbagePatterns) {
		t.Errorf("garbage patterns not copied in order: %v", cs.GarbagePatterns)
	}
	if len(cs.PreserveTerms) != len(config.DefaultTables().PreserveTerms) {
		t.Errorf("preserve terms = %v", cs.PreserveTerms)
	}
}

func TestPreserveNeverEmittedEvenWhenSuggesterBypassed(t *testing.T) {
	c, s := setup(t)
	// No classifier on the aggregator: preserved tokens reach the builder.
	a := analytics.NewAggregator(40, nil)
	a.Add("ch01", repeat("Sigil", 50, 1))
	a.Add("ch01", repeat("FACTOL", 50, 1))

	cs, err := NewBuilder(s, 1).Build(context.Background(), a.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range cs.Corrections {
		if c.IsPreserved(e.Source) {
			t.Fatalf("preserved term %q emitted", e.Source)
		}
	}
}

func TestMinOccurrenceMonotonic(t *testing.T) {
	c, s := setup(t, "lady")
	stats := corpus(t, c, 40)
	prev := -1
	for _, min := range []int{10, 6, 5, 3, 2, 1} {
		cs, err := NewBuilder(s, min).Build(context.Background(), stats)
		if err != nil {
			t.Fatal(err)
		}
		n := len(cs.Corrections)
		if prev >= 0 && n < prev {
			t.Fatalf("lowering min-occur to %d shrank mapping from %d to %d", min, prev, n)
		}
		prev = n
	}
}

func TestConfidenceThresholdMonotonic(t *testing.T) {
	c, _ := setup(t)
	prev := int64(-1)
	for _, th := range []float64{100, 40, 30, 20, 10, 1} {
		n := corpus(t, c, th).TotalInstances()
		if prev >= 0 && n > prev {
			t.Fatalf("stricter threshold %v admitted more tokens (%d > %d)", th, n, prev)
		}
		prev = n
	}
}

func TestIdempotentAfterApplying(t *testing.T) {
	c, s := setup(t, "lady")
	first, err := NewBuilder(s, 1).Build(context.Background(), corpus(t, c, 40))
	if err != nil {
		t.Fatal(err)
	}
	mapping := first.Corrections.Map()

	// Rewrite the corpus with the mapping and relearn.
	a := analytics.NewAggregator(40, c)
	var corrected []scan.Record
	for _, ts := range corpus(t, c, 40).Ranked() {
		tok := ts.Token
		if target, ok := mapping[tok]; ok {
			if target == "" {
				continue
			}
			tok = target
		}
		for _, conf := range ts.Confidences {
			corrected = append(corrected, scan.Record{Token: tok, Confidence: conf})
		}
	}
	a.Add("ch01", corrected)

	second, err := NewBuilder(s, 1).Build(context.Background(), a.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	for src, target := range mapping {
		if _, ok := second.Corrections.Get(src); ok {
			t.Errorf("source %q still corrected", src)
		}
		if _, ok := second.Corrections.Get(target); ok && target != "" {
			t.Errorf("target %q oscillates", target)
		}
	}
}

func TestEntriesJSONKeepsOrder(t *testing.T) {
	e := Entries{{"zeta", "z"}, {"<p", ""}, {"alpha", "a"}, {"Facto1", "Factol"}}
	data, err := e.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"zeta":"z","<p":"","alpha":"a","Facto1":"Factol"}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}

	var back Entries
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, e) {
		t.Fatalf("round trip = %+v", back)
	}
	if err := json.Unmarshal([]byte(`["x"]`), &back); err == nil {
		t.Fatal("expected error for non-object corrections")
	}
}

func TestWriteAndLoad(t *testing.T) {
	c, s := setup(t, "lady")
	b := NewBuilder(s, 2)
	b.Now = fixedNow
	cs, err := b.Build(context.Background(), corpus(t, c, 40))
	if err != nil {
		t.Fatal(err)
	}
	cs.Corrections = append(cs.Corrections, Entry{"1200x", "café"})

	dir := t.TempDir()
	for _, name := range []string{"corrections.json", "corrections.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := cs.Write(path); err != nil {
				t.Fatalf("Write: %v", err)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(raw), "café") {
				t.Errorf("non-ASCII should be written verbatim:\n%s", raw)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got.Corrections, cs.Corrections) {
				t.Errorf("corrections = %+v\nwant %+v", got.Corrections, cs.Corrections)
			}
			if got.Metadata != cs.Metadata {
				t.Errorf("metadata = %+v\nwant %+v", got.Metadata, cs.Metadata)
			}
			if !reflect.DeepEqual(got.GarbagePatterns, cs.GarbagePatterns) {
				t.Errorf("garbage patterns = %v", got.GarbagePatterns)
			}
		})
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".corrections-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestJSONLayout(t *testing.T) {
	_, s := setup(t)
	cs := NewBuilder(s, 1).FromDecisions(analytics.Stats{}, []Decision{
		{Token: "vvith", Result: suggest.Result{Kind: suggest.Replace, Text: "with"}},
		{Token: "xyzzy", Result: suggest.Result{Kind: suggest.NoSuggestion}},
	})
	data, err := cs.Encode(false)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"metadata", "corrections", "garbage_patterns", "preserve_terms"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
	if !strings.Contains(string(data), "\n  \"corrections\": {\n    \"vvith\": \"with\"\n  }") {
		t.Errorf("unexpected layout:\n%s", data)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodeValidatesShape(t *testing.T) {
	tests := []struct {
		name string
		data string
		yaml bool
		ok   bool
	}{
		{"minimal json", `{"corrections": {"vvith": "with"}}`, false, true},
		{"minimal yaml", "corrections:\n  vvith: with\n", true, true},
		{"missing corrections", `{"metadata": {}}`, false, false},
		{"non-string target", `{"corrections": {"vvith": 3}}`, false, false},
		{"negative count", `{"metadata": {"word_count": -1}, "corrections": {}}`, false, false},
		{"yaml list corrections", "corrections:\n  - vvith\n", true, false},
		{"not json", `corrections`, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.yaml)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, internalerr.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
