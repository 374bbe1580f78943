package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

// Defaults for the converted-corpus layout: <root>/<chapter>/.temp/*-lowconf.txt
const (
	DefaultTempDir = ".temp"
	DefaultPattern = "*-lowconf.txt"
	HOCRPattern    = "*.hocr"
)

// DefaultReservedDirs are chapter-level directories owned by other pipeline stages.
var DefaultReservedDirs = []string{"final", "statblocks", "diagnostics"}

// Format identifies how a source file is parsed.
type Format int

const (
	FormatLowConf Format = iota
	FormatHOCR
)

// Record is one observation of a token with its OCR confidence (0-100).
type Record struct {
	Token      string
	Confidence float64
}

// Source is a discovered report file.
type Source struct {
	Path    string
	Chapter string
	Format  Format
}

// Scanner discovers and parses low-confidence reports under a corpus root.
type Scanner struct {
	Root         string
	TempDir      string
	Pattern      string
	ReservedDirs []string
	IncludeHOCR  bool
	Logger       *slog.Logger
}

// NewScanner returns a scanner with the default layout.
func NewScanner(root string) *Scanner {
	return &Scanner{
		Root:         root,
		TempDir:      DefaultTempDir,
		Pattern:      DefaultPattern,
		ReservedDirs: append([]string(nil), DefaultReservedDirs...),
	}
}

// Discover enumerates report files. Chapters and files are visited in
// lexical order so repeated scans of the same tree agree.
func (s *Scanner) Discover(ctx context.Context) ([]Source, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", internalerr.ErrCorpusMissing, s.Root)
		}
		return nil, fmt.Errorf("stat corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", internalerr.ErrCorpusMissing, s.Root)
	}

	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root: %w", err)
	}

	reserved := make(map[string]struct{}, len(s.ReservedDirs))
	for _, d := range s.ReservedDirs {
		reserved[d] = struct{}{}
	}

	var sources []Source
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		if _, skip := reserved[entry.Name()]; skip {
			continue
		}
		tempDir := filepath.Join(s.Root, entry.Name(), s.tempDir())
		if fi, err := os.Stat(tempDir); err != nil || !fi.IsDir() {
			continue
		}

		found, err := s.glob(tempDir, s.pattern(), entry.Name(), FormatLowConf)
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)

		if s.IncludeHOCR {
			found, err := s.glob(tempDir, HOCRPattern, entry.Name(), FormatHOCR)
			if err != nil {
				return nil, err
			}
			sources = append(sources, found...)
		}
	}
	s.logger().Debug("discovered reports", "root", s.Root, "count", len(sources))
	return sources, nil
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Scanner) glob(dir, pattern, chapter string, format Format) ([]Source, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", internalerr.ErrInvalidConfig, pattern, err)
	}
	sort.Strings(matches)
	out := make([]Source, 0, len(matches))
	for _, m := range matches {
		out = append(out, Source{Path: m, Chapter: chapter, Format: format})
	}
	return out, nil
}

// Read opens and parses one source.
func (s *Scanner) Read(src Source) ([]Record, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if src.Format == FormatHOCR {
		return ParseHOCR(f)
	}
	return ParseLowConf(f)
}

func (s *Scanner) tempDir() string {
	if s.TempDir == "" {
		return DefaultTempDir
	}
	return s.TempDir
}

func (s *Scanner) pattern() string {
	if s.Pattern == "" {
		return DefaultPattern
	}
	return s.Pattern
}

var lowConfLine = regexp.MustCompile(`^(.+?) \(conf: ([\d.]+)\)`)

// ParseLowConfLine parses "<token> (conf: <float>)". Trailing data is ignored.
func ParseLowConfLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, false
	}
	m := lowConfLine.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	conf, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Record{}, false
	}
	return Record{Token: m[1], Confidence: conf}, true
}

// maxLineSize bounds a single report line.
const maxLineSize = 1024 * 1024

// ParseLowConf reads a low-confidence report. Malformed lines are skipped.
func ParseLowConf(r io.Reader) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := strings.ToValidUTF8(sc.Text(), "�")
		if rec, ok := ParseLowConfLine(line); ok {
			records = append(records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return records, err
	}
	return records, nil
}
