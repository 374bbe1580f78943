package classify

import (
	"fmt"
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

// Category is the structural class of a token.
type Category int

const (
	Unclassified Category = iota
	Garbage
	Preserved
	NumericOrStatLike
	TooShort
)

func (c Category) String() string {
	switch c {
	case Garbage:
		return "garbage"
	case Preserved:
		return "preserved"
	case NumericOrStatLike:
		return "numeric"
	case TooShort:
		return "too-short"
	default:
		return "unclassified"
	}
}

// MaxShortLen is the longest token (in runes) considered too short to correct.
const MaxShortLen = 2

// NumericPatterns describe game notation that looks irregular on purpose.
var NumericPatterns = []string{
	`^[+-]?\d+(?:[.,/]\d+)*%?$`,                          // 10, -1, 1,000, 18/00, 25%
	`(?i)^\d*d\d+(?:[+-]\d+)?$`,                          // 1d6, d20, 2d4+1
	`(?i)^\d+(?:st|nd|rd|th)$`,                           // 1st, 22nd
	`(?i)^\d+(?:gp|sp|cp|ep|pp|xp|hp|ft|lb|lbs|yd|mi)$`, // 50gp, 10ft
	`(?i)^[a-z]{1,5}\d+$`,                                // AC5, F10, thac0
	`(?i)^page-\d+$`,                                     // page markers
}

// Classifier assigns a Category to tokens. Safe for concurrent use once built.
type Classifier struct {
	patterns []string
	garbage  []*regexp.Regexp
	numeric  []*regexp.Regexp
	preserve map[string]struct{}
}

// NewClassifier compiles the garbage patterns and indexes the preserve terms.
// Patterns are anchored at the start of the token.
func NewClassifier(garbagePatterns, preserveTerms []string) (*Classifier, error) {
	c := &Classifier{
		patterns: append([]string(nil), garbagePatterns...),
		preserve: make(map[string]struct{}, len(preserveTerms)),
	}
	for _, p := range garbagePatterns {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("%w: garbage pattern %q: %v", internalerr.ErrInvalidConfig, p, err)
		}
		c.garbage = append(c.garbage, re)
	}
	for _, p := range NumericPatterns {
		c.numeric = append(c.numeric, regexp.MustCompile(p))
	}
	for _, term := range preserveTerms {
		c.preserve[fold(term)] = struct{}{}
	}
	return c, nil
}

// Classify returns the first matching category in precedence order:
// garbage, preserved, numeric/stat-like, too short.
func (c *Classifier) Classify(token string) Category {
	switch {
	case c.IsGarbage(token):
		return Garbage
	case c.IsPreserved(token):
		return Preserved
	case c.IsNumericOrStat(token):
		return NumericOrStatLike
	case utf8.RuneCountInString(token) <= MaxShortLen:
		return TooShort
	}
	return Unclassified
}

// IsGarbage reports whether token matches any garbage pattern.
func (c *Classifier) IsGarbage(token string) bool {
	for _, re := range c.garbage {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// IsPreserved reports case-insensitive membership in the preserve set.
func (c *Classifier) IsPreserved(token string) bool {
	_, ok := c.preserve[fold(token)]
	return ok
}

// IsNumericOrStat reports whether token is a number or game notation.
func (c *Classifier) IsNumericOrStat(token string) bool {
	for _, re := range c.numeric {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// GarbagePatterns returns the literal pattern strings in their original order.
func (c *Classifier) GarbagePatterns() []string {
	return append([]string(nil), c.patterns...)
}

// PreserveTerms returns the folded preserve terms, sorted.
func (c *Classifier) PreserveTerms() []string {
	out := make([]string, 0, len(c.preserve))
	for term := range c.preserve {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// IsPurePunctuation reports whether every rune of a non-empty token is
// neither a letter, digit, underscore nor whitespace.
func IsPurePunctuation(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func fold(s string) string {
	return cases.Fold().String(s)
}
