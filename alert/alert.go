// Package alert signals test failures to an operator watching the terminal.
package alert

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Alerter draws attention to a failed case.
type Alerter interface {
	Alert()
}

// Bell rings the terminal bell. Nothing is written when the target is a file
// descriptor that is not a terminal, so redirected output stays clean.
type Bell struct {
	Out io.Writer
}

// NewBell returns a Bell writing to stderr.
func NewBell() *Bell {
	return &Bell{Out: os.Stderr}
}

func (b *Bell) Alert() {
	out := b.Out
	if out == nil {
		out = os.Stderr
	}
	if f, ok := out.(interface{ Fd() uintptr }); ok && !term.IsTerminal(int(f.Fd())) {
		return
	}
	_, _ = io.WriteString(out, "\a")
}

// Nop discards alerts.
type Nop struct{}

func (Nop) Alert() {}
