package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
	"github.com/cognicore/ocrfix/pkg/ocrfix/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun implements store.Store.
func (s *Store) SaveRun(_ context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run id is empty", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.CorrectionsCount = len(r.Corrections)
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(_ context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, id)
	}
	return copyRun(r), nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(_ context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		r.Corrections = nil
		r.Tokens = nil
		out = append(out, r)
	}
	sortRuns(out, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TokenHistory implements store.Store.
func (s *Store) TokenHistory(_ context.Context, token string) ([]store.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sortRuns(runs, false)

	var out []store.Observation
	for _, r := range runs {
		for _, tc := range r.Tokens {
			if tc.Token != token {
				continue
			}
			obs := store.Observation{
				RunID:          r.ID,
				Generated:      r.Generated,
				Count:          tc.Count,
				MeanConfidence: tc.MeanConfidence,
			}
			for _, c := range r.Corrections {
				if c.Source == token {
					obs.Corrected = true
					obs.Target = c.Target
					break
				}
			}
			out = append(out, obs)
		}
	}
	return out, nil
}

func sortRuns(runs []store.Run, newestFirst bool) {
	sort.Slice(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if !a.Generated.Equal(b.Generated) {
			if newestFirst {
				return a.Generated.After(b.Generated)
			}
			return a.Generated.Before(b.Generated)
		}
		if newestFirst {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
}

func copyRun(r store.Run) store.Run {
	r.Corrections = append([]store.Correction(nil), r.Corrections...)
	r.Tokens = append([]store.TokenCount(nil), r.Tokens...)
	return r
}
