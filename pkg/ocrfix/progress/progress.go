package progress

import (
	"fmt"
	"io"
	"sync"
)

// Reporter receives progress for a bounded unit of work.
type Reporter interface {
	Start(label string, total int)
	Advance(n int)
	Finish()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(string, int) {}
func (Nop) Advance(int)       {}
func (Nop) Finish()           {}

// Writer prints a line each time another tenth of the work completes.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	total   int
	done    int
	printed int // last printed decile
}

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Start(label string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label, p.total, p.done, p.printed = label, total, 0, 0
}

func (p *Writer) Advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	if p.total <= 0 {
		return
	}
	if p.done > p.total {
		p.done = p.total
	}
	decile := p.done * 10 / p.total
	if decile > p.printed {
		p.printed = decile
		fmt.Fprintf(p.w, "%s: %d/%d (%d%%)\n", p.label, p.done, p.total, decile*10)
	}
}

func (p *Writer) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed < 10 {
		fmt.Fprintf(p.w, "%s: done (%d/%d)\n", p.label, p.done, p.total)
	}
	p.printed = 10
}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}
