package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
	"github.com/cognicore/ocrfix/pkg/ocrfix/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	corpus_root TEXT,
	output TEXT,
	generated TEXT NOT NULL,
	threshold REAL NOT NULL,
	min_occurrences INTEGER NOT NULL,
	files INTEGER DEFAULT 0,
	unique_tokens INTEGER DEFAULT 0,
	total_instances INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS corrections (
	run_id TEXT NOT NULL,
	rank INTEGER NOT NULL,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	PRIMARY KEY(run_id, source),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS token_stats (
	run_id TEXT NOT NULL,
	token TEXT NOT NULL,
	rank INTEGER NOT NULL,
	count INTEGER NOT NULL,
	mean_confidence REAL NOT NULL,
	PRIMARY KEY(run_id, token),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_token_stats_token ON token_stats(token);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run id is empty", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO runs (id, corpus_root, output, generated, threshold, min_occurrences, files, unique_tokens, total_instances)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	corpus_root=excluded.corpus_root,
	output=excluded.output,
	generated=excluded.generated,
	threshold=excluded.threshold,
	min_occurrences=excluded.min_occurrences,
	files=excluded.files,
	unique_tokens=excluded.unique_tokens,
	total_instances=excluded.total_instances;
`
	if _, err := tx.ExecContext(ctx, stmt,
		r.ID,
		r.CorpusRoot,
		r.Output,
		r.Generated.UTC().Format(timeLayout),
		r.Threshold,
		r.MinOccurrences,
		r.Files,
		r.UniqueTokens,
		r.TotalInstances,
	); err != nil {
		return err
	}

	if err := replaceCorrections(ctx, tx, r.ID, r.Corrections); err != nil {
		return err
	}
	if err := replaceTokenStats(ctx, tx, r.ID, r.Tokens); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceCorrections(ctx context.Context, tx *sql.Tx, runID string, corrections []store.Correction) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM corrections WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO corrections (run_id, rank, source, target) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range corrections {
		if _, err := stmt.ExecContext(ctx, runID, i, c.Source, c.Target); err != nil {
			return fmt.Errorf("insert correction %q: %w", c.Source, err)
		}
	}
	return nil
}

func replaceTokenStats(ctx context.Context, tx *sql.Tx, runID string, tokens []store.TokenCount) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM token_stats WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO token_stats (run_id, token, rank, count, mean_confidence) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, tc := range tokens {
		if _, err := stmt.ExecContext(ctx, runID, tc.Token, i, tc.Count, tc.MeanConfidence); err != nil {
			return fmt.Errorf("insert token %q: %w", tc.Token, err)
		}
	}
	return nil
}

// GetRun loads a run with its corrections and token stats
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, runSelect+` WHERE r.id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, id)
	}
	if err != nil {
		return store.Run{}, err
	}

	r.Corrections, err = s.loadCorrections(ctx, id)
	if err != nil {
		return store.Run{}, err
	}
	r.Tokens, err = s.loadTokenStats(ctx, id)
	if err != nil {
		return store.Run{}, err
	}
	return r, nil
}

// ListRuns returns run summaries, newest first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, runSelect+` ORDER BY r.generated DESC, r.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TokenHistory returns every recorded observation of token, oldest first
func (s *sqliteStore) TokenHistory(ctx context.Context, token string) ([]store.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.generated, t.count, t.mean_confidence, c.target
FROM token_stats t
JOIN runs r ON r.id = t.run_id
LEFT JOIN corrections c ON c.run_id = t.run_id AND c.source = t.token
WHERE t.token = ?
ORDER BY r.generated ASC, r.id ASC;
`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Observation
	for rows.Next() {
		var (
			obs       store.Observation
			generated string
			target    sql.NullString
		)
		if err := rows.Scan(&obs.RunID, &generated, &obs.Count, &obs.MeanConfidence, &target); err != nil {
			return nil, err
		}
		obs.Generated = parseTime(generated)
		obs.Corrected = target.Valid
		obs.Target = target.String
		out = append(out, obs)
	}
	return out, rows.Err()
}

const runSelect = `
SELECT r.id, r.corpus_root, r.output, r.generated, r.threshold, r.min_occurrences,
	r.files, r.unique_tokens, r.total_instances,
	(SELECT COUNT(*) FROM corrections c WHERE c.run_id = r.id)
FROM runs r`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (store.Run, error) {
	var (
		r         store.Run
		generated string
	)
	err := row.Scan(
		&r.ID, &r.CorpusRoot, &r.Output, &generated, &r.Threshold, &r.MinOccurrences,
		&r.Files, &r.UniqueTokens, &r.TotalInstances, &r.CorrectionsCount,
	)
	if err != nil {
		return store.Run{}, err
	}
	r.Generated = parseTime(generated)
	return r, nil
}

func (s *sqliteStore) loadCorrections(ctx context.Context, runID string) ([]store.Correction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, target FROM corrections WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Correction
	for rows.Next() {
		var c store.Correction
		if err := rows.Scan(&c.Source, &c.Target); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) loadTokenStats(ctx context.Context, runID string) ([]store.TokenCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token, count, mean_confidence FROM token_stats WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TokenCount
	for rows.Next() {
		var tc store.TokenCount
		if err := rows.Scan(&tc.Token, &tc.Count, &tc.MeanConfidence); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// timeLayout has fixed width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
