package store

import (
	"context"
	"time"
)

// Store persists the history of learning runs.
type Store interface {
	Close() error

	// SaveRun inserts or replaces a run and its corrections and token stats.
	SaveRun(ctx context.Context, r Run) error
	// GetRun loads a run with its corrections and token stats. Unknown ids
	// return an error wrapping internalerr.ErrNotFound.
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns run summaries, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// TokenHistory returns every recorded observation of token, oldest first.
	TokenHistory(ctx context.Context, token string) ([]Observation, error)
}

// Run is one recorded learning run.
type Run struct {
	ID             string
	CorpusRoot     string
	Output         string
	Generated      time.Time
	Threshold      float64
	MinOccurrences int
	Files          int64
	UniqueTokens   int
	TotalInstances int64

	// CorrectionsCount is filled by ListRuns, which does not load Corrections.
	CorrectionsCount int
	Corrections      []Correction
	Tokens           []TokenCount
}

// Correction is one emitted mapping entry, in rank order.
type Correction struct {
	Source string
	Target string
}

// TokenCount is the aggregated count of a token in one run.
type TokenCount struct {
	Token          string
	Count          int64
	MeanConfidence float64
}

// Observation is a token's footprint in one run.
type Observation struct {
	RunID          string
	Generated      time.Time
	Count          int64
	MeanConfidence float64
	Corrected      bool
	Target         string
}
