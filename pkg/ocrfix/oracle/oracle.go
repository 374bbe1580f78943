package oracle

import (
	"context"
	"log/slog"
	"strings"
)

// Oracle reports whether a token is a recognized word of the target language.
type Oracle interface {
	IsKnownWord(ctx context.Context, token string) bool
}

// Backend answers exact membership for a single word form.
type Backend interface {
	Has(ctx context.Context, word string) (bool, error)
}

// Nop is the degraded oracle used when no dictionary backend is wired in.
// It knows no words, so validated repairs (including rn->m) never fire and
// tokens are never recognized as already correct.
type Nop struct{}

// IsKnownWord always reports false.
func (Nop) IsKnownWord(context.Context, string) bool { return false }

// sentencePunct is stripped from the end of a token before the last lookup.
const sentencePunct = ".,;:!?"

// Dictionary is an Oracle backed by a word store.
type Dictionary struct {
	backend Backend
	logger  *slog.Logger
}

// NewDictionary wraps backend. A nil logger falls back to slog.Default().
func NewDictionary(backend Backend, logger *slog.Logger) *Dictionary {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dictionary{backend: backend, logger: logger}
}

// IsKnownWord checks the token as given, lowercased, and with trailing
// sentence punctuation stripped. Backend errors count as unknown.
func (d *Dictionary) IsKnownWord(ctx context.Context, token string) bool {
	for _, form := range Forms(token) {
		ok, err := d.backend.Has(ctx, form)
		if err != nil {
			d.logger.Warn("dictionary lookup failed", "word", form, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// Forms returns the distinct non-empty lookup forms for token, in lookup order.
func Forms(token string) []string {
	candidates := []string{
		token,
		strings.ToLower(token),
		strings.TrimRight(token, sentencePunct),
	}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Multi is the union of several backends; the first positive answer wins.
type Multi []Backend

// Has implements Backend.
func (m Multi) Has(ctx context.Context, word string) (bool, error) {
	var firstErr error
	for _, b := range m {
		ok, err := b.Has(ctx, word)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, firstErr
}

// Select returns a Dictionary over the non-nil backends, or Nop when there are none.
// The choice is logged once so the degraded mode is visible.
func Select(logger *slog.Logger, backends ...Backend) Oracle {
	if logger == nil {
		logger = slog.Default()
	}
	var live Multi
	for _, b := range backends {
		if b != nil {
			live = append(live, b)
		}
	}
	if len(live) == 0 {
		logger.Info("no dictionary backend configured; validated repairs are disabled")
		return Nop{}
	}
	if len(live) == 1 {
		return NewDictionary(live[0], logger)
	}
	return NewDictionary(live, logger)
}
