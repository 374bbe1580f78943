package report

import (
	"context"
	"fmt"
	"io"

	"github.com/cognicore/ocrfix/pkg/ocrfix/analytics"
	"github.com/cognicore/ocrfix/pkg/ocrfix/suggest"
)

// TopN is how many tokens the report lists.
const TopN = 20

// Input is everything the report prints.
type Input struct {
	Stats          analytics.Stats
	Threshold      float64
	MinOccurrences int
	Suggester      *suggest.Suggester
}

// Render writes the human-readable analysis report.
func Render(ctx context.Context, w io.Writer, in Input) error {
	p := &printer{w: w}

	p.line("")
	p.line("╔════════════════════════════════════════════════════════════╗")
	p.line("║       LOW-CONFIDENCE WORD ANALYSIS REPORT                  ║")
	p.line("╚════════════════════════════════════════════════════════════╝")
	p.line("")
	p.line("Settings:")
	p.printf("  Confidence threshold: < %g%%\n", in.Threshold)
	p.printf("  Minimum occurrences:  %d\n", in.MinOccurrences)
	p.line("")

	p.line("Per-Chapter Low-Confidence Words:")
	for _, ch := range in.Stats.Chapters() {
		p.printf("  %-40s %d words\n", ch, in.Stats.ChapterCounts[ch])
	}
	p.line("")

	p.printf("Report files scanned: %d\n", in.Stats.Files)
	p.printf("Total unique words: %d\n", in.Stats.UniqueTokens())
	p.printf("Total word instances: %d\n", in.Stats.TotalInstances())
	d := in.Stats.Discards
	if d.Total() > 0 {
		p.printf("Discarded: %d above threshold, %d blank, %d punctuation, %d preserved\n",
			d.HighConfidence, d.Blank, d.Punctuation, d.Preserved)
	}
	p.line("")

	p.printf("Most Common Low-Confidence Words (top %d):\n", TopN)
	for _, ts := range in.Stats.Top(TopN) {
		var res suggest.Result
		if in.Suggester != nil {
			res = in.Suggester.Suggest(ctx, ts.Token)
		}
		p.printf("  %4d × %-20s %s  (avg conf %.1f)\n", ts.Count, ts.Token, describe(res), ts.MeanConfidence())
	}
	p.line("")
	return p.err
}

func describe(r suggest.Result) string {
	switch r.Kind {
	case suggest.Replace:
		return "→ " + r.Text
	case suggest.Delete:
		return "→ (delete)"
	}
	return "  (no suggestion)"
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}
