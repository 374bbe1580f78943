// Package storetest holds behaviour checks shared by every store.Store implementation.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
	"github.com/cognicore/ocrfix/pkg/ocrfix/store"
)

// Run exercises st. The store must be empty.
func Run(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := store.Run{
		ID:             "01HX0000000000000000000001",
		CorpusRoot:     "converted_harbinger_house",
		Output:         "corrections.json",
		Generated:      base,
		Threshold:      40,
		MinOccurrences: 2,
		Files:          12,
		UniqueTokens:   3,
		TotalInstances: 10,
		Corrections: []store.Correction{
			{Source: "vvith", Target: "with"},
			{Source: "+HE+", Target: ""},
		},
		Tokens: []store.TokenCount{
			{Token: "vvith", Count: 5, MeanConfidence: 20},
			{Token: "+HE+", Count: 3, MeanConfidence: 5},
			{Token: "xyzzy", Count: 2, MeanConfidence: 35.5},
		},
	}
	second := store.Run{
		ID:             "01HX0000000000000000000002",
		Generated:      base.Add(500 * time.Millisecond),
		Threshold:      30,
		MinOccurrences: 1,
		Tokens:         []store.TokenCount{{Token: "vvith", Count: 1, MeanConfidence: 25}},
	}

	if err := st.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun(first): %v", err)
	}
	if err := st.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun(second): %v", err)
	}
	if err := st.SaveRun(ctx, store.Run{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("SaveRun without id: expected ErrInvalidInput, got %v", err)
	}

	got, err := st.GetRun(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.Generated.Equal(first.Generated) {
		t.Errorf("Generated = %v, want %v", got.Generated, first.Generated)
	}
	if got.CorpusRoot != first.CorpusRoot || got.Files != 12 || got.TotalInstances != 10 || got.Threshold != 40 {
		t.Errorf("run fields = %+v", got)
	}
	if !reflect.DeepEqual(got.Corrections, first.Corrections) {
		t.Errorf("Corrections = %+v", got.Corrections)
	}
	if !reflect.DeepEqual(got.Tokens, first.Tokens) {
		t.Errorf("Tokens = %+v", got.Tokens)
	}
	if got.CorrectionsCount != 2 {
		t.Errorf("CorrectionsCount = %d", got.CorrectionsCount)
	}

	if _, err := st.GetRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetRun(missing): expected ErrNotFound, got %v", err)
	}

	runs, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("ListRuns order = %+v", runs)
	}
	if runs[1].CorrectionsCount != 2 || runs[0].CorrectionsCount != 0 {
		t.Errorf("summary counts = %d, %d", runs[1].CorrectionsCount, runs[0].CorrectionsCount)
	}
	if limited, _ := st.ListRuns(ctx, 1); len(limited) != 1 || limited[0].ID != second.ID {
		t.Errorf("ListRuns(1) = %+v", limited)
	}

	hist, err := st.TokenHistory(ctx, "vvith")
	if err != nil {
		t.Fatalf("TokenHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("TokenHistory = %+v", hist)
	}
	if hist[0].RunID != first.ID || !hist[0].Corrected || hist[0].Target != "with" || hist[0].Count != 5 {
		t.Errorf("first observation = %+v", hist[0])
	}
	if hist[1].RunID != second.ID || hist[1].Corrected {
		t.Errorf("second observation = %+v", hist[1])
	}
	if del, _ := st.TokenHistory(ctx, "+HE+"); len(del) != 1 || !del[0].Corrected || del[0].Target != "" {
		t.Errorf("delete observation = %+v", del)
	}

	// Saving again replaces children.
	first.Corrections = first.Corrections[:1]
	first.Tokens = first.Tokens[:1]
	if err := st.SaveRun(ctx, first); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	got, err = st.GetRun(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetRun after re-save: %v", err)
	}
	if len(got.Corrections) != 1 || len(got.Tokens) != 1 {
		t.Errorf("re-save kept stale children: %+v", got)
	}
}
