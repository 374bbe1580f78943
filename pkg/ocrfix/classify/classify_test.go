package classify

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(
		[]string{`^[¢®©™°±§¶]+$`, `^[+*]+[A-Z]+[+*]*$`, `^<p$`},
		[]string{"berk", "Sigil", "tanar'ri", "thac0"},
	)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassify(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		token string
		want  Category
	}{
		{"©®", Garbage},
		{"+HE+", Garbage},
		{"<p", Garbage},
		{"berk", Preserved},
		{"BERK", Preserved},
		{"sigil", Preserved},
		{"Tanar'ri", Preserved},
		{"THAC0", Preserved},
		{"1st", NumericOrStatLike},
		{"18/00", NumericOrStatLike},
		{"1,000", NumericOrStatLike},
		{"25%", NumericOrStatLike},
		{"2d4+1", NumericOrStatLike},
		{"d20", NumericOrStatLike},
		{"50gp", NumericOrStatLike},
		{"AC5", NumericOrStatLike},
		{"page-12", NumericOrStatLike},
		{"ab", TooShort},
		{"é", TooShort},
		{"1ady", Unclassified},
		{"vvith", Unclassified},
		{"rnore", Unclassified},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.token); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestPatternsAnchoredAtStart(t *testing.T) {
	c, err := NewClassifier([]string{`wv`}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsGarbage("wvx") {
		t.Error("pattern should match a token prefix")
	}
	if c.IsGarbage("xwv") {
		t.Error("pattern must not match mid-token")
	}
}

func TestInvalidPattern(t *testing.T) {
	if _, err := NewClassifier([]string{`[unclosed`}, nil); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestAccessors(t *testing.T) {
	c := newTestClassifier(t)
	if got := c.PreserveTerms(); !reflect.DeepEqual(got, []string{"berk", "sigil", "tanar'ri", "thac0"}) {
		t.Errorf("PreserveTerms = %v", got)
	}
	patterns := c.GarbagePatterns()
	if len(patterns) != 3 || patterns[2] != `^<p$` {
		t.Errorf("GarbagePatterns = %v", patterns)
	}
	patterns[0] = "mutated"
	if c.GarbagePatterns()[0] == "mutated" {
		t.Error("GarbagePatterns must return a copy")
	}
}

func TestIsPurePunctuation(t *testing.T) {
	tests := map[string]bool{
		"":     false,
		"...":  true,
		"©®":   true,
		"…":    true,
		"a.":   false,
		"_":    false,
		"+HE+": false,
		"1":    false,
		"- -":  false,
	}
	for in, want := range tests {
		if got := IsPurePunctuation(in); got != want {
			t.Errorf("IsPurePunctuation(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	if Garbage.String() != "garbage" || Unclassified.String() != "unclassified" {
		t.Error("unexpected category names")
	}
}
