package ocrfix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cognicore/ocrfix/pkg/ocrfix/analytics"
	"github.com/cognicore/ocrfix/pkg/ocrfix/classify"
	"github.com/cognicore/ocrfix/pkg/ocrfix/config"
	"github.com/cognicore/ocrfix/pkg/ocrfix/correctionset"
	"github.com/cognicore/ocrfix/pkg/ocrfix/oracle"
	"github.com/cognicore/ocrfix/pkg/ocrfix/report"
	"github.com/cognicore/ocrfix/pkg/ocrfix/scan"
	"github.com/cognicore/ocrfix/pkg/ocrfix/store"
	"github.com/cognicore/ocrfix/pkg/ocrfix/store/sqlite"
	"github.com/cognicore/ocrfix/pkg/ocrfix/suggest"
)

// Learner runs the correction-dictionary pipeline over one corpus.
type Learner struct {
	scanner        *scan.Scanner
	classifier     *classify.Classifier
	suggester      *suggest.Suggester
	store          store.Store
	threshold      float64
	minOccurrences int
	output         string
	now            func() time.Time
	logger         *slog.Logger
	closers        []io.Closer
}

// Options configures a Learner
type Options struct {
	Scanner        *scan.Scanner
	Classifier     *classify.Classifier
	Suggester      *suggest.Suggester
	Store          store.Store // optional run history
	Threshold      float64
	MinOccurrences int
	Output         string // recorded in the run history
	Now            func() time.Time
	Logger         *slog.Logger
}

// New creates a Learner with the given dependencies
func New(opts Options) *Learner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Learner{
		scanner:        opts.Scanner,
		classifier:     opts.Classifier,
		suggester:      opts.Suggester,
		store:          opts.Store,
		threshold:      opts.Threshold,
		minOccurrences: opts.MinOccurrences,
		output:         opts.Output,
		now:            now,
		logger:         logger,
	}
}

// Open assembles a Learner from run settings: tables, dictionary backends,
// and the optional sqlite history.
func Open(ctx context.Context, root string, s config.Settings, logger *slog.Logger) (*Learner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	loader := &config.Loader{TablesPath: s.TablesPath, Replace: s.ReplaceTables}
	comps, err := loader.Load()
	if err != nil {
		return nil, err
	}

	var (
		backends []oracle.Backend
		closers  []io.Closer
	)
	if s.DictionaryPath != "" {
		wl, err := oracle.LoadWordList(s.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		logger.Info("loaded word list", "path", s.DictionaryPath, "words", wl.Len())
		backends = append(backends, wl)
	}
	if s.RedisAddr != "" {
		rs := oracle.NewRedisSet(redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		}), s.RedisKey)
		if err := rs.Ping(ctx); err != nil {
			// A dead custom dictionary only narrows validation.
			logger.Warn("redis custom dictionary unavailable", "addr", s.RedisAddr, "err", err)
			rs.Close()
		} else {
			backends = append(backends, rs)
			closers = append(closers, rs)
		}
	}

	var st store.Store
	if s.DBPath != "" {
		st, err = sqlite.OpenSQLite(ctx, s.DBPath)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("open run history: %w", err)
		}
	}

	scanner := scan.NewScanner(root)
	scanner.IncludeHOCR = s.IncludeHOCR
	scanner.Logger = logger

	l := New(Options{
		Scanner:        scanner,
		Classifier:     comps.Classifier,
		Suggester:      suggest.New(comps.Classifier, oracle.Select(logger, backends...), comps.Tables.KnownCorrections),
		Store:          st,
		Threshold:      s.Threshold,
		MinOccurrences: s.MinOccurrences,
		Output:         s.Output,
		Logger:         logger,
	})
	l.closers = closers
	return l, nil
}

// Close releases the store and dictionary connections.
func (l *Learner) Close() error {
	var errs []error
	if l.store != nil {
		errs = append(errs, l.store.Close())
	}
	errs = append(errs, closeAll(l.closers))
	return errors.Join(errs...)
}

func closeAll(cs []io.Closer) error {
	var errs []error
	for _, c := range cs {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Result is the outcome of a learning run.
type Result struct {
	Stats     analytics.Stats
	Set       *correctionset.CorrectionSet
	Decisions []correctionset.Decision
	Sources   int
	Skipped   int
}

// Run scans the corpus, aggregates low-confidence tokens and builds the
// correction set. Unreadable reports are logged and skipped.
func (l *Learner) Run(ctx context.Context) (*Result, error) {
	sources, err := l.scanner.Discover(ctx)
	if err != nil {
		return nil, err
	}
	l.logger.Info("analyzing low-confidence words", "root", l.scanner.Root, "reports", len(sources))

	agg := analytics.NewAggregator(l.threshold, l.classifier)
	res := &Result{Sources: len(sources)}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := l.scanner.Read(src)
		if err != nil {
			l.logger.Warn("skipping unreadable report", "path", src.Path, "err", err)
			res.Skipped++
			continue
		}
		agg.Add(src.Chapter, records)
	}
	res.Stats = agg.Snapshot()

	builder := correctionset.NewBuilder(l.suggester, l.minOccurrences)
	builder.Now = l.now
	res.Decisions = builder.Decide(ctx, res.Stats)
	res.Set = builder.FromDecisions(res.Stats, res.Decisions)

	if l.store != nil {
		if err := l.store.SaveRun(ctx, l.runRecord(res)); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}
	return res, nil
}

// Report renders the analysis report for a finished run.
func (l *Learner) Report(ctx context.Context, w io.Writer, res *Result) error {
	return report.Render(ctx, w, report.Input{
		Stats:          res.Stats,
		Threshold:      l.threshold,
		MinOccurrences: l.minOccurrences,
		Suggester:      l.suggester,
	})
}

func (l *Learner) runRecord(res *Result) store.Run {
	generated, err := time.Parse(time.RFC3339, res.Set.Metadata.Generated)
	if err != nil {
		generated = l.now()
	}
	run := store.Run{
		ID:             res.Set.Metadata.RunID,
		CorpusRoot:     l.scanner.Root,
		Output:         l.output,
		Generated:      generated,
		Threshold:      l.threshold,
		MinOccurrences: l.minOccurrences,
		Files:          res.Stats.Files,
		UniqueTokens:   res.Stats.UniqueTokens(),
		TotalInstances: res.Stats.TotalInstances(),
	}
	for _, e := range res.Set.Corrections {
		run.Corrections = append(run.Corrections, store.Correction{Source: e.Source, Target: e.Target})
	}
	for _, ts := range res.Stats.Ranked() {
		run.Tokens = append(run.Tokens, store.TokenCount{
			Token:          ts.Token,
			Count:          ts.Count,
			MeanConfidence: ts.MeanConfidence(),
		})
	}
	return run
}
