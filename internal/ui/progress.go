package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/imamik/k3smox/internal/bootstrap"
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Progress prints one line per stage transition. It implements
// bootstrap.Observer.
type Progress struct {
	mu  sync.Mutex
	w   io.Writer
	st  styles
	now func() time.Time
	t0  time.Time
}

var _ bootstrap.Observer = (*Progress)(nil)

// NewProgress returns a progress printer writing to w.
func NewProgress(w io.Writer, opts Options) *Progress {
	return &Progress{w: w, st: newStyles(opts.Color), now: time.Now}
}

// Event implements bootstrap.Observer.
func (p *Progress) Event(e bootstrap.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.t0.IsZero() {
		p.t0 = p.now()
	}
	elapsed := p.st.dim.Render(fmt.Sprintf("%6s", p.now().Sub(p.t0).Round(time.Second)))

	var line string
	switch e.Type {
	case bootstrap.EventStageStarted:
		line = fmt.Sprintf("%s %s %s", elapsed, p.st.active.Render(runMark), e.Stage.ID)
	case bootstrap.EventStageHealthy:
		line = fmt.Sprintf("%s %s %s %s", elapsed, p.st.ok.Render(checkMark), e.Stage.ID,
			p.st.dim.Render(e.Duration.Round(time.Millisecond).String()))
	case bootstrap.EventStageFailed:
		line = fmt.Sprintf("%s %s %s: %v", elapsed, p.st.failed.Render(crossMark), e.Stage.ID, e.Err)
	case bootstrap.EventStagePropagated:
		line = fmt.Sprintf("%s %s %s %s", elapsed, p.st.warning.Render(blockMark), e.Stage.ID,
			p.st.dim.Render("blocked by failed dependency"))
	case bootstrap.EventStageSkipped:
		line = fmt.Sprintf("%s %s %s %s", elapsed, p.st.dim.Render(pending), e.Stage.ID,
			p.st.dim.Render("not started"))
	default:
		return
	}
	_, _ = fmt.Fprintln(p.w, line)
}
