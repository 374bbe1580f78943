package apply

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/ocrfix/pkg/ocrfix/correctionset"
	"github.com/cognicore/ocrfix/pkg/ocrfix/scan"
)

var entries = correctionset.Entries{
	{Source: "vvith", Target: "with"},
	{Source: "+HE+", Target: ""},
	{Source: "thar", Target: "that"},
	{Source: "Pp.", Target: ""},
}

func TestLookup(t *testing.T) {
	a := New(entries)
	tests := []struct {
		tok  string
		want string
		ok   bool
	}{
		{"vvith", "with", true},
		{"vvith.", "with.", true},
		{"thar?!", "that?!", true},
		{"Pp.", "", true},
		{"+HE+", "", true},
		{"+HE+,", ",", true},
		{"with", "", false},
		{"...", "", false},
		{"Vvith", "", false},
	}
	for _, tt := range tests {
		got, ok := a.Lookup(tt.tok)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.tok, got, ok, tt.want, tt.ok)
		}
	}
}

func TestText(t *testing.T) {
	a := New(entries)
	tests := []struct {
		in   string
		want string
		st   Stats
	}{
		{"go vvith me", "go with me", Stats{Replaced: 1}},
		{"vvith. thar", "with. that", Stats{Replaced: 2}},
		{"the +HE+ end", "the end", Stats{Deleted: 1}},
		{"+HE+ start", "start", Stats{Deleted: 1}},
		{"line one\n+HE+ two", "line one\ntwo", Stats{Deleted: 1}},
		{"end +HE+\nnext", "end\nnext", Stats{Deleted: 1}},
		{"keep  spacing  vvith  \n", "keep  spacing  with  \n", Stats{Replaced: 1}},
		{"", "", Stats{}},
	}
	for _, tt := range tests {
		got, st := a.Text(tt.in)
		if got != tt.want || st != tt.st {
			t.Errorf("Text(%q) = %q %+v; want %q %+v", tt.in, got, st, tt.want, tt.st)
		}
	}
}

func TestTextIdempotent(t *testing.T) {
	a := New(entries)
	once, _ := a.Text("vvith +HE+ thar Pp. rest")
	twice, st := a.Text(once)
	if once != twice || st != (Stats{}) {
		t.Fatalf("second pass changed %q to %q (%+v)", once, twice, st)
	}
}

func TestRecords(t *testing.T) {
	a := New(entries)
	got, st := a.Records([]scan.Record{{Token: "vvith", Confidence: 10}, {Token: "+HE+", Confidence: 5}, {Token: "x", Confidence: 1}})
	want := []scan.Record{{Token: "with", Confidence: 10}, {Token: "x", Confidence: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Records = %+v", got)
	}
	if st != (Stats{Replaced: 1, Deleted: 1}) {
		t.Fatalf("stats = %+v", st)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.md")
	if err := os.WriteFile(src, []byte("vvith thar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := New(entries)

	outDir := filepath.Join(dir, "out")
	st, err := a.Files([]string{src}, outDir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if st.Replaced != 2 {
		t.Fatalf("stats = %+v", st)
	}
	got, _ := os.ReadFile(filepath.Join(outDir, "page.md"))
	if string(got) != "with that\n" {
		t.Fatalf("out = %q", got)
	}
	orig, _ := os.ReadFile(src)
	if string(orig) != "vvith thar\n" {
		t.Fatal("source must be untouched when out dir is set")
	}

	if _, err := a.Files([]string{src}, ""); err != nil {
		t.Fatalf("in place: %v", err)
	}
	orig, _ = os.ReadFile(src)
	if string(orig) != "with that\n" {
		t.Fatalf("in place result = %q", orig)
	}

	if _, err := a.Files([]string{filepath.Join(dir, "missing.md")}, ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}
