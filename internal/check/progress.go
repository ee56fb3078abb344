package check

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Progress prints a live run counter when the destination is a
// terminal. On anything else it stays silent.
type Progress struct {
	w     io.Writer
	tty   bool
	total int

	mu     sync.Mutex
	done   int
	failed int
}

// NewProgress creates a progress printer for total runs.
func NewProgress(w io.Writer, total int) *Progress {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Progress{w: w, tty: tty, total: total}
}

// Observe records one finished run and redraws the counter.
func (p *Progress) Observe(passed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if !passed {
		p.failed++
	}
	if !p.tty {
		return
	}
	fmt.Fprintf(p.w, "\rchecked %d/%d runs (%d failed)", p.done, p.total, p.failed)
}

// Finish terminates the counter line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty && p.done > 0 {
		fmt.Fprintln(p.w)
	}
}
