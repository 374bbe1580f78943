package correctionset

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/ocrfix/pkg/ocrfix/analytics"
	"github.com/cognicore/ocrfix/pkg/ocrfix/suggest"
)

const (
	DefaultDescription = "OCR correction patterns learned from low-confidence word analysis"
	DefaultVersion     = "1.0.0"
)

// Metadata describes how a correction set was produced.
type Metadata struct {
	Description      string  `json:"description" yaml:"description"`
	Version          string  `json:"version" yaml:"version"`
	Generated        string  `json:"generated" yaml:"generated"`
	WordCount        int     `json:"word_count" yaml:"word_count"`
	CorrectionsCount int     `json:"corrections_count" yaml:"corrections_count"`
	RunID            string  `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Threshold        float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	MinOccurrences   int     `json:"min_occurrences,omitempty" yaml:"min_occurrences,omitempty"`
}

// CorrectionSet is the persisted artifact of a learning run.
type CorrectionSet struct {
	Metadata        Metadata `json:"metadata" yaml:"metadata"`
	Corrections     Entries  `json:"corrections" yaml:"corrections"`
	GarbagePatterns []string `json:"garbage_patterns" yaml:"garbage_patterns"`
	PreserveTerms   []string `json:"preserve_terms" yaml:"preserve_terms"`
}

// Decision records what the suggester said about a ranked token.
type Decision struct {
	Token          string
	Count          int64
	MeanConfidence float64
	Result         suggest.Result
}

// Builder turns aggregated statistics into a correction set.
type Builder struct {
	Suggester      *suggest.Suggester
	MinOccurrences int
	Description    string
	Version        string
	Now            func() time.Time

	entropy *ulid.MonotonicEntropy
}

// NewBuilder creates a builder with default metadata.
func NewBuilder(s *suggest.Suggester, minOccurrences int) *Builder {
	return &Builder{
		Suggester:      s,
		MinOccurrences: minOccurrences,
		Description:    DefaultDescription,
		Version:        DefaultVersion,
		Now:            time.Now,
		entropy:        ulid.Monotonic(rand.Reader, 0),
	}
}

// Decide runs the suggester over every ranked token meeting the occurrence threshold.
func (b *Builder) Decide(ctx context.Context, stats analytics.Stats) []Decision {
	var out []Decision
	for _, ts := range stats.Ranked() {
		if ts.Count < int64(b.MinOccurrences) {
			continue
		}
		out = append(out, Decision{
			Token:          ts.Token,
			Count:          ts.Count,
			MeanConfidence: ts.MeanConfidence(),
			Result:         b.Suggester.Suggest(ctx, ts.Token),
		})
	}
	return out
}

// Build produces the correction set. Only replace and delete outcomes are
// kept, in rank order.
func (b *Builder) Build(ctx context.Context, stats analytics.Stats) (*CorrectionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.FromDecisions(stats, b.Decide(ctx, stats)), nil
}

// FromDecisions assembles a correction set from decisions already made.
func (b *Builder) FromDecisions(stats analytics.Stats, decisions []Decision) *CorrectionSet {
	entries := Entries{}
	for _, d := range decisions {
		target, ok := d.Result.Target()
		if !ok || target == d.Token {
			continue
		}
		entries = append(entries, Entry{Source: d.Token, Target: target})
	}

	now := b.now()
	classifier := b.Suggester.Classifier()
	return &CorrectionSet{
		Metadata: Metadata{
			Description:      b.Description,
			Version:          b.Version,
			Generated:        now.Format(time.RFC3339),
			WordCount:        stats.UniqueTokens(),
			CorrectionsCount: len(entries),
			RunID:            b.newRunID(now),
			Threshold:        stats.Threshold,
			MinOccurrences:   b.MinOccurrences,
		},
		Corrections:     entries,
		GarbagePatterns: classifier.GarbagePatterns(),
		PreserveTerms:   classifier.PreserveTerms(),
	}
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b *Builder) newRunID(t time.Time) string {
	if b.entropy == nil {
		b.entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return ulid.MustNew(ulid.Timestamp(t), b.entropy).String()
}
