package smoke

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Progress displays how far a smoke run has got.
type Progress interface {
	Start(total int)
	Advance(n int)
	// Clear blanks the progress line so a log record can be written on it; the
	// next Advance draws it again.
	Clear()
	Done()
}

type noOpProgress struct{}

func (noOpProgress) Start(int)   {}
func (noOpProgress) Advance(int) {}
func (noOpProgress) Clear()      {}
func (noOpProgress) Done()       {}

// NewNoOpProgress creates a progress indicator that does nothing
func NewNoOpProgress() Progress {
	return noOpProgress{}
}

// LineProgress redraws a single console line in place:
//
//	[15:04:05] [INFO] complete: 12/40 (30%)
type LineProgress struct {
	Out   io.Writer
	Width int // columns blanked when clearing the line
	Now   func() time.Time

	total int
	done  int
}

// NewTerminalProgress draws on f when it is a terminal and does nothing otherwise.
func NewTerminalProgress(f *os.File) Progress {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return NewNoOpProgress()
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		width = 80
	}
	return &LineProgress{Out: f, Width: width}
}

func (p *LineProgress) Start(total int) {
	p.total = total
	p.done = 0
	p.draw()
}

func (p *LineProgress) Advance(n int) {
	p.done = min(p.done+n, p.total)
	p.draw()
}

func (p *LineProgress) Clear() {
	fmt.Fprintf(p.Out, "\r%s\r", strings.Repeat(" ", p.Width))
}

// Done clears the progress line.
func (p *LineProgress) Done() {
	p.Clear()
}

func (p *LineProgress) draw() {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	percent := 100
	if p.total > 0 {
		percent = int(math.Round(float64(p.done) * 100 / float64(p.total)))
	}
	fmt.Fprintf(p.Out, "\r[%s] [INFO] complete: %d/%d (%d%%)", now().Format("15:04:05"), p.done, p.total, percent)
}
