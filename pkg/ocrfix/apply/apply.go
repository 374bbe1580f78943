package apply

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cognicore/ocrfix/pkg/ocrfix/correctionset"
	"github.com/cognicore/ocrfix/pkg/ocrfix/scan"
)

// trailingPunct is stripped before the second lookup and re-attached afterwards.
const trailingPunct = ".,;:!?"

var tokenRE = regexp.MustCompile(`\S+`)

// Stats counts the edits made by an Applier.
type Stats struct {
	Replaced int
	Deleted  int
}

func (s *Stats) add(o Stats) {
	s.Replaced += o.Replaced
	s.Deleted += o.Deleted
}

// Applier rewrites OCR text with a learned correction set.
type Applier struct {
	corrections map[string]string
}

// New creates an Applier for the given corrections.
func New(entries correctionset.Entries) *Applier {
	return &Applier{corrections: entries.Map()}
}

// Lookup returns the rewrite for token. A match on the token with trailing
// punctuation removed keeps that punctuation. An empty result means delete.
func (a *Applier) Lookup(token string) (string, bool) {
	if v, ok := a.corrections[token]; ok {
		return v, true
	}
	core := strings.TrimRight(token, trailingPunct)
	if core == "" || core == token {
		return "", false
	}
	v, ok := a.corrections[core]
	if !ok {
		return "", false
	}
	return v + token[len(core):], true
}

// Text applies the corrections to whitespace-delimited tokens in s. Deleted
// tokens take their preceding same-line whitespace with them.
func (a *Applier) Text(s string) (string, Stats) {
	var (
		b        strings.Builder
		st       Stats
		last     int
		trimNext bool
	)
	for _, loc := range tokenRE.FindAllStringIndex(s, -1) {
		gap, tok := s[last:loc[0]], s[loc[0]:loc[1]]
		last = loc[1]

		repl, ok := a.Lookup(tok)
		if !ok {
			b.WriteString(trimGap(gap, trimNext))
			b.WriteString(tok)
			trimNext = false
			continue
		}
		if repl == "" {
			st.Deleted++
			if strings.ContainsRune(gap, '\n') || b.Len() == 0 {
				b.WriteString(gap)
				trimNext = true
			}
			continue
		}
		st.Replaced++
		b.WriteString(trimGap(gap, trimNext))
		b.WriteString(repl)
		trimNext = false
	}
	b.WriteString(trimGap(s[last:], trimNext))
	return b.String(), st
}

// trimGap drops the spaces that would have followed a deleted line-leading token.
func trimGap(gap string, trim bool) string {
	if !trim {
		return gap
	}
	return strings.TrimLeft(gap, " \t")
}

// Records applies the corrections to scan records. Deleted tokens drop out.
func (a *Applier) Records(records []scan.Record) ([]scan.Record, Stats) {
	var st Stats
	out := make([]scan.Record, 0, len(records))
	for _, rec := range records {
		repl, ok := a.Lookup(rec.Token)
		if !ok {
			out = append(out, rec)
			continue
		}
		if repl == "" {
			st.Deleted++
			continue
		}
		st.Replaced++
		out = append(out, scan.Record{Token: repl, Confidence: rec.Confidence})
	}
	return out, st
}

// File rewrites src into dst. dst may equal src.
func (a *Applier) File(src, dst string) (Stats, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Stats{}, err
	}
	info, err := os.Stat(src)
	if err != nil {
		return Stats{}, err
	}
	out, st := a.Text(string(data))
	if err := os.WriteFile(dst, []byte(out), info.Mode().Perm()); err != nil {
		return st, fmt.Errorf("write %s: %w", dst, err)
	}
	return st, nil
}

// Files rewrites each path, in place when outDir is empty.
func (a *Applier) Files(paths []string, outDir string) (Stats, error) {
	var total Stats
	for _, p := range paths {
		dst := p
		if outDir != "" {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return total, err
			}
			dst = filepath.Join(outDir, filepath.Base(p))
		}
		st, err := a.File(p, dst)
		total.add(st)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
