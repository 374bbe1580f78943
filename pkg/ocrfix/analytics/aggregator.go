package analytics

import (
	"sort"
	"strings"

	"github.com/cognicore/ocrfix/pkg/ocrfix/classify"
	"github.com/cognicore/ocrfix/pkg/ocrfix/scan"
)

// Discards counts records dropped during aggregation, by reason.
type Discards struct {
	HighConfidence int64
	Blank          int64
	Punctuation    int64
	Preserved      int64
}

// Total returns the number of discarded records.
func (d Discards) Total() int64 {
	return d.HighConfidence + d.Blank + d.Punctuation + d.Preserved
}

func (d *Discards) add(o Discards) {
	d.HighConfidence += o.HighConfidence
	d.Blank += o.Blank
	d.Punctuation += o.Punctuation
	d.Preserved += o.Preserved
}

type tokenAcc struct {
	count       int64
	confidences []float64
	chapters    map[string]struct{}
}

// Aggregator accumulates low-confidence token statistics across a corpus.
type Aggregator struct {
	threshold     float64
	classifier    *classify.Classifier
	tokens        map[string]*tokenAcc
	order         []string // first-seen order, used for rank ties
	chapterCounts map[string]int64
	files         int64
	discards      Discards
}

// NewAggregator creates an aggregator that keeps records with confidence
// strictly below threshold. A nil classifier disables the preserve filter.
func NewAggregator(threshold float64, classifier *classify.Classifier) *Aggregator {
	return &Aggregator{
		threshold:     threshold,
		classifier:    classifier,
		tokens:        make(map[string]*tokenAcc),
		chapterCounts: make(map[string]int64),
	}
}

// Add consumes the records of one report file belonging to chapter.
func (a *Aggregator) Add(chapter string, records []scan.Record) {
	a.files++
	for _, rec := range records {
		if !a.keep(rec) {
			continue
		}
		a.observe(rec.Token, chapter, 1, []float64{rec.Confidence})
		a.chapterCounts[chapter]++
	}
}

func (a *Aggregator) keep(rec scan.Record) bool {
	switch {
	case rec.Confidence >= a.threshold:
		a.discards.HighConfidence++
	case strings.TrimSpace(rec.Token) == "":
		a.discards.Blank++
	case classify.IsPurePunctuation(rec.Token):
		a.discards.Punctuation++
	case a.classifier != nil && a.classifier.IsPreserved(rec.Token):
		a.discards.Preserved++
	default:
		return true
	}
	return false
}

func (a *Aggregator) observe(token, chapter string, count int64, confs []float64) {
	acc, ok := a.tokens[token]
	if !ok {
		acc = &tokenAcc{chapters: make(map[string]struct{})}
		a.tokens[token] = acc
		a.order = append(a.order, token)
	}
	acc.count += count
	acc.confidences = append(acc.confidences, confs...)
	if chapter != "" {
		acc.chapters[chapter] = struct{}{}
	}
}

// Merge adds the contributions of another snapshot. Tokens new to this
// aggregator are appended in the other snapshot's first-seen order.
func (a *Aggregator) Merge(s Stats) {
	a.files += s.Files
	a.discards.add(s.Discards)
	for ch, n := range s.ChapterCounts {
		a.chapterCounts[ch] += n
	}
	for _, tok := range s.Order {
		ts := s.Tokens[tok]
		a.observe(tok, "", ts.Count, ts.Confidences)
		for _, ch := range ts.Chapters {
			a.tokens[tok].chapters[ch] = struct{}{}
		}
	}
}

// TokenStat summarizes one low-confidence token.
type TokenStat struct {
	Token       string
	Count       int64
	Confidences []float64
	Chapters    []string // sorted
}

// MeanConfidence returns the average observed confidence.
func (t TokenStat) MeanConfidence() float64 {
	if len(t.Confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range t.Confidences {
		sum += c
	}
	return sum / float64(len(t.Confidences))
}

// Stats exposes the aggregated counts.
type Stats struct {
	Threshold     float64
	Files         int64
	Tokens        map[string]TokenStat
	Order         []string
	ChapterCounts map[string]int64
	Discards      Discards
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Aggregator) Snapshot() Stats {
	tokens := make(map[string]TokenStat, len(a.tokens))
	for tok, acc := range a.tokens {
		chapters := make([]string, 0, len(acc.chapters))
		for ch := range acc.chapters {
			chapters = append(chapters, ch)
		}
		sort.Strings(chapters)
		tokens[tok] = TokenStat{
			Token:       tok,
			Count:       acc.count,
			Confidences: append([]float64(nil), acc.confidences...),
			Chapters:    chapters,
		}
	}
	chapterCounts := make(map[string]int64, len(a.chapterCounts))
	for ch, n := range a.chapterCounts {
		chapterCounts[ch] = n
	}
	return Stats{
		Threshold:     a.threshold,
		Files:         a.files,
		Tokens:        tokens,
		Order:         append([]string(nil), a.order...),
		ChapterCounts: chapterCounts,
		Discards:      a.discards,
	}
}

// Ranked returns tokens by descending count. Ties keep first-seen order.
func (s Stats) Ranked() []TokenStat {
	out := make([]TokenStat, 0, len(s.Order))
	for _, tok := range s.Order {
		out = append(out, s.Tokens[tok])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Top returns at most n ranked tokens.
func (s Stats) Top(n int) []TokenStat {
	ranked := s.Ranked()
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// UniqueTokens returns the number of distinct low-confidence tokens.
func (s Stats) UniqueTokens() int {
	return len(s.Tokens)
}

// TotalInstances returns the number of kept records.
func (s Stats) TotalInstances() int64 {
	var n int64
	for _, ts := range s.Tokens {
		n += ts.Count
	}
	return n
}

// Chapters returns chapter names that contributed at least one token, sorted.
func (s Stats) Chapters() []string {
	out := make([]string, 0, len(s.ChapterCounts))
	for ch := range s.ChapterCounts {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
