package config

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tables holds the static data the correction engine is driven by.
// Built once per run and treated as read-only afterwards.
type Tables struct {
	KnownCorrections map[string]string `yaml:"known_corrections"`
	PreserveTerms    []string          `yaml:"preserve_terms"`
	GarbagePatterns  []string          `yaml:"garbage_patterns"`
}

// DefaultTables returns the built-in tables tuned on Planescape material.
func DefaultTables() Tables {
	return Tables{
		KnownCorrections: map[string]string{
			"vou":     "you",
			"eves":    "eyes",
			"Jrom":    "from",
			"Jaction": "faction",
			"rhe":     "the",
			"wilh":    "with",
			"thar":    "that",
			"bcrk":    "berk",
			"Ladv":    "Lady",
			"lll":     "III",
			"tev've":  "they've",
			"1ere's":  "here's",
			"Heen":    "been",
			"vue":     "you",
			"Facto1":  "Factol",
			"St+tAR+": "START",
			"+ee":     "the",
			"Leer":    "beer",
			"eT":      "et",
			"vvho":    "who",
			"vvhat":   "what",
			"vvith":   "with",
			"rnore":   "more",
			"sorne":   "some",
			"tirne":   "time",
			"frorn":   "from",
		},
		PreserveTerms: []string{
			"berk", "basher", "cutter", "blood", "barmy", "factol", "dabus", "sigil",
			"tanar'ri", "baatezu", "yugoloth", "thac0", "godsmen", "harmonium",
			"hardheads", "mercykillers", "guvners", "xaositects", "athar", "sod",
			"cage", "multiverse", "planewalker", "prime", "portal", "modron",
			"tiefling", "aasimar", "githzerai", "githyanki",
		},
		// Conservative on purpose: only unmistakable noise.
		GarbagePatterns: []string{
			`^[¢®©™°±§¶]+$`,
			`^[+*]+[A-Z]+[+*]*$`,
			`^Pp\.$`,
			`^<p$`,
			`^wv$`,
			`^eT$`,
		},
	}
}

// LoadTables loads correction tables from a YAML file
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// Merge layers other on top of t. Known corrections in other win,
// preserve terms are unioned and garbage patterns appended in order.
func (t Tables) Merge(other Tables) Tables {
	out := t.Clone()
	for k, v := range other.KnownCorrections {
		out.KnownCorrections[k] = v
	}

	seenTerm := make(map[string]struct{}, len(out.PreserveTerms))
	for _, term := range out.PreserveTerms {
		seenTerm[strings.ToLower(term)] = struct{}{}
	}
	for _, term := range other.PreserveTerms {
		key := strings.ToLower(term)
		if _, ok := seenTerm[key]; ok {
			continue
		}
		seenTerm[key] = struct{}{}
		out.PreserveTerms = append(out.PreserveTerms, term)
	}

	seenPattern := make(map[string]struct{}, len(out.GarbagePatterns))
	for _, p := range out.GarbagePatterns {
		seenPattern[p] = struct{}{}
	}
	for _, p := range other.GarbagePatterns {
		if _, ok := seenPattern[p]; ok {
			continue
		}
		seenPattern[p] = struct{}{}
		out.GarbagePatterns = append(out.GarbagePatterns, p)
	}
	return out
}

// Clone returns a deep copy.
func (t Tables) Clone() Tables {
	known := make(map[string]string, len(t.KnownCorrections))
	for k, v := range t.KnownCorrections {
		known[k] = v
	}
	return Tables{
		KnownCorrections: known,
		PreserveTerms:    append([]string(nil), t.PreserveTerms...),
		GarbagePatterns:  append([]string(nil), t.GarbagePatterns...),
	}
}

// KnownTargets returns the distinct replacement values of the known corrections, sorted.
func (t Tables) KnownTargets() []string {
	set := make(map[string]struct{}, len(t.KnownCorrections))
	for _, v := range t.KnownCorrections {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// WriteTables writes tables as YAML, e.g. to seed an editable copy of the defaults.
func WriteTables(path string, t Tables) error {
	buf, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	header := []byte("# OCR correction tables\n" +
		"# known_corrections: exact token -> replacement (always wins)\n" +
		"# preserve_terms: domain vocabulary never altered (case-insensitive)\n" +
		"# garbage_patterns: regexps for OCR noise, matched tokens are deleted\n\n")
	return os.WriteFile(path, append(header, buf...), 0o644)
}
