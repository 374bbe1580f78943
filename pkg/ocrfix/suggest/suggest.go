package suggest

import (
	"context"
	"regexp"
	"strings"

	"github.com/cognicore/ocrfix/pkg/ocrfix/classify"
	"github.com/cognicore/ocrfix/pkg/ocrfix/oracle"
)

// Kind is the outcome of a suggestion.
type Kind int

const (
	NoSuggestion Kind = iota
	Replace
	Delete
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Delete:
		return "delete"
	default:
		return "none"
	}
}

// Result is the suggestion for one token.
type Result struct {
	Kind Kind
	Text string // replacement, set only for Replace
	Rule string // name of the rule that decided
}

// Target returns the correction-map value: the replacement, "" for delete.
// ok is false when there is nothing to emit.
func (r Result) Target() (string, bool) {
	switch r.Kind {
	case Replace:
		return r.Text, true
	case Delete:
		return "", true
	}
	return "", false
}

// Rule is one step of the decision chain. Apply reports whether the rule
// decided; evaluation stops at the first rule that does.
type Rule struct {
	Name  string
	Apply func(ctx context.Context, token string, cat classify.Category) (Result, bool)
}

// Suggester decides what to do with a single low-confidence token.
type Suggester struct {
	classifier   *classify.Classifier
	oracle       oracle.Oracle
	known        map[string]string
	knownTargets map[string]struct{}
	rules        []Rule
	repairs      []Repair
}

// New builds a Suggester. A nil oracle degrades to oracle.Nop.
func New(classifier *classify.Classifier, o oracle.Oracle, known map[string]string) *Suggester {
	if o == nil {
		o = oracle.Nop{}
	}
	s := &Suggester{
		classifier:   classifier,
		oracle:       o,
		known:        make(map[string]string, len(known)),
		knownTargets: make(map[string]struct{}, len(known)),
		repairs:      DefaultRepairs(),
	}
	for k, v := range known {
		s.known[k] = v
		if v != "" {
			s.knownTargets[v] = struct{}{}
		}
	}
	s.rules = []Rule{
		{Name: "known-correction", Apply: s.knownCorrection},
		{Name: "garbage", Apply: garbage},
		{Name: "protected", Apply: protected},
		{Name: "dictionary", Apply: s.dictionary},
		{Name: "repair", Apply: s.repair},
	}
	return s
}

// Suggest runs the rule chain for token.
func (s *Suggester) Suggest(ctx context.Context, token string) Result {
	cat := s.classifier.Classify(token)
	for _, r := range s.rules {
		if res, ok := r.Apply(ctx, token, cat); ok {
			res.Rule = r.Name
			return res
		}
	}
	return Result{Kind: NoSuggestion}
}

// Rules returns the rule names in evaluation order.
func (s *Suggester) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Classifier returns the classifier the suggester was built with.
func (s *Suggester) Classifier() *classify.Classifier { return s.classifier }

func (s *Suggester) knownCorrection(_ context.Context, token string, _ classify.Category) (Result, bool) {
	v, ok := s.known[token]
	if !ok {
		return Result{}, false
	}
	if v == "" {
		return Result{Kind: Delete}, true
	}
	return Result{Kind: Replace, Text: v}, true
}

func garbage(_ context.Context, _ string, cat classify.Category) (Result, bool) {
	if cat != classify.Garbage {
		return Result{}, false
	}
	return Result{Kind: Delete}, true
}

// protected stops the chain for tokens that are too risky to touch.
func protected(_ context.Context, _ string, cat classify.Category) (Result, bool) {
	switch cat {
	case classify.NumericOrStatLike, classify.TooShort, classify.Preserved:
		return Result{Kind: NoSuggestion}, true
	}
	return Result{}, false
}

// dictionary leaves recognized words alone: low OCR confidence is not a misspelling.
func (s *Suggester) dictionary(ctx context.Context, token string, _ classify.Category) (Result, bool) {
	if s.oracle.IsKnownWord(ctx, token) {
		return Result{Kind: NoSuggestion}, true
	}
	return Result{}, false
}

// repair applies the first applicable character repair and gates the candidate.
// It always decides, so the chain ends here.
func (s *Suggester) repair(ctx context.Context, token string, _ classify.Category) (Result, bool) {
	for _, rp := range s.repairs {
		candidate, ok := rp.Fix(token)
		if !ok {
			continue
		}
		if s.validate(ctx, candidate, rp.DictionaryOnly) {
			return Result{Kind: Replace, Text: candidate}, true
		}
		return Result{Kind: NoSuggestion}, true
	}
	return Result{Kind: NoSuggestion}, true
}

func (s *Suggester) validate(ctx context.Context, candidate string, dictionaryOnly bool) bool {
	if candidate == "" {
		return false
	}
	if s.oracle.IsKnownWord(ctx, candidate) {
		return true
	}
	if dictionaryOnly {
		return false
	}
	_, ok := s.knownTargets[candidate]
	return ok
}

// Repair is a character-level OCR fix. Fix reports whether it applies.
type Repair struct {
	Name string
	Fix  func(token string) (string, bool)
	// DictionaryOnly accepts the candidate only when the oracle knows it.
	DictionaryOnly bool
}

var (
	leadingZero = regexp.MustCompile(`^0[A-Za-z]+$`)
	leadingOne  = regexp.MustCompile(`^1[A-Za-z]+$`)
)

// DefaultRepairs returns the repairs in priority order.
func DefaultRepairs() []Repair {
	return []Repair{
		{Name: "leading-zero", Fix: fixLeadingZero},
		{Name: "leading-one", Fix: fixLeadingOne},
		{Name: "vv-ligature", Fix: fixVV},
		{Name: "rn-ligature", Fix: fixRN, DictionaryOnly: true},
	}
}

func fixLeadingZero(token string) (string, bool) {
	if !leadingZero.MatchString(token) {
		return "", false
	}
	return "o" + token[1:], true
}

// fixLeadingOne skips 1st and 1d*, which are ordinal and dice notation.
func fixLeadingOne(token string) (string, bool) {
	if !leadingOne.MatchString(token) {
		return "", false
	}
	if strings.HasPrefix(token, "1st") || strings.HasPrefix(token, "1d") {
		return "", false
	}
	return "l" + token[1:], true
}

func fixVV(token string) (string, bool) {
	if !strings.Contains(token, "vv") {
		return "", false
	}
	return strings.ReplaceAll(token, "vv", "w"), true
}

// fixRN rewrites rn as m only when a vowel follows, so "-rns" endings survive.
func fixRN(token string) (string, bool) {
	var b strings.Builder
	changed := false
	for i := 0; i < len(token); i++ {
		if token[i] == 'r' && i+2 < len(token) && token[i+1] == 'n' && isVowel(token[i+2]) {
			b.WriteByte('m')
			i++
			changed = true
			continue
		}
		b.WriteByte(token[i])
	}
	if !changed {
		return "", false
	}
	return b.String(), true
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
