package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/ocrfix/pkg/ocrfix/store"
	"github.com/cognicore/ocrfix/pkg/ocrfix/store/storetest"
)

func TestStoreBehaviour(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()
	storetest.Run(t, st)
}

func TestReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	st, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	run := store.Run{
		ID:          "01HX0000000000000000000009",
		Generated:   time.Now(),
		Threshold:   40,
		Corrections: []store.Correction{{Source: "1ady", Target: "lady"}},
	}
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	st.Close()

	// Schema creation is idempotent.
	st, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got.Corrections) != 1 || got.Corrections[0].Target != "lady" {
		t.Fatalf("corrections = %+v", got.Corrections)
	}
	if !got.Generated.Equal(run.Generated.UTC()) {
		t.Fatalf("generated = %v, want %v", got.Generated, run.Generated)
	}
}

func TestTimeLayoutSortsChronologically(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(timeLayout)
	b := time.Date(2024, 1, 1, 0, 0, 0, 500, time.UTC).Format(timeLayout)
	if !(a < b) {
		t.Fatalf("%q should sort before %q", a, b)
	}
}
