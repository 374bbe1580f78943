package statblock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
	"github.com/cognicore/ocrfix/pkg/ocrfix/progress"
)

const (
	CombinedName     = "_all_statblocks.md"
	CombinedHTMLName = "_all_statblocks.html"
	DefaultOutputDir = "extracted_statblocks"
)

// Extractor writes the stat blocks found in an OCR'd markdown file.
type Extractor struct {
	Progress progress.Reporter
	Logger   *slog.Logger
	// HTML also renders the combined document as HTML.
	HTML bool
}

// Result summarizes one extraction.
type Result struct {
	Regions  int
	Blocks   []Block
	Files    []string
	Combined string
}

// Process extracts every stat block in input into outDir.
func (e *Extractor) Process(ctx context.Context, input, outDir string) (*Result, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", internalerr.ErrInputMissing, input)
		}
		return nil, err
	}
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	text := strings.ToValidUTF8(string(data), "�")
	regions := FindRegions(text)
	log := e.logger()
	log.Info("found stat block regions", "input", input, "count", len(regions))

	res := &Result{Regions: len(regions)}
	prog := progress.OrNop(e.Progress)
	prog.Start("Extracting stat blocks", len(regions))
	defer prog.Finish()

	for i, r := range regions {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		prog.Advance(1)

		b, ok := Extract(r.Text)
		if !ok {
			continue
		}
		b.Name = r.Name
		if b.Name == "" {
			b.Name = fmt.Sprintf("Unknown NPC %d", i+1)
		}
		b.Location = fmt.Sprintf("chars %d-%d", r.Start, r.End)

		stem := SafeName(b.Name)
		if stem == "" {
			stem = fmt.Sprintf("statblock_%d", i+1)
		}
		path := filepath.Join(outDir, stem+".md")
		if err := os.WriteFile(path, []byte(b.Markdown()), 0o644); err != nil {
			return res, fmt.Errorf("write %s: %w", path, err)
		}
		res.Blocks = append(res.Blocks, b)
		res.Files = append(res.Files, path)
		log.Debug("extracted stat block", "name", b.Name, "location", b.Location)
	}

	if len(res.Blocks) == 0 {
		return res, nil
	}

	doc := Document(input, res.Blocks)
	res.Combined = filepath.Join(outDir, CombinedName)
	if err := os.WriteFile(res.Combined, []byte(doc), 0o644); err != nil {
		return res, fmt.Errorf("write %s: %w", res.Combined, err)
	}
	if e.HTML {
		html, err := RenderHTML(doc)
		if err != nil {
			return res, err
		}
		if err := os.WriteFile(filepath.Join(outDir, CombinedHTMLName), html, 0o644); err != nil {
			return res, err
		}
	}
	return res, nil
}

// RenderHTML converts a stat-block markdown document to HTML.
func RenderHTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
