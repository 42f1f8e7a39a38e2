// Package console writes color-coded, human-readable diagnostics for the
// operator. The output is advisory and carries no machine-readable contract.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// ANSI color indices
const (
	red    = "1"
	green  = "2"
	yellow = "3"
	cyan   = "6"
)

// Console prints colored lines to a terminal-aware output.
type Console struct {
	out *termenv.Output
}

// New returns a Console writing to w. The color profile is detected from w
// unless overridden with termenv.WithProfile.
func New(w io.Writer, opts ...termenv.OutputOption) *Console {
	return &Console{out: termenv.NewOutput(w, opts...)}
}

// Stderr returns a Console on the process standard error.
func Stderr() *Console {
	return New(os.Stderr)
}

func (c *Console) line(color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if color != "" {
		msg = c.out.String(msg).Foreground(c.out.Color(color)).String()
	}
	_, _ = fmt.Fprintln(c.out, msg)
}

// Warn prints a yellow advisory line.
func (c *Console) Warn(format string, args ...interface{}) { c.line(yellow, format, args...) }

// Info prints a cyan guidance line.
func (c *Console) Info(format string, args ...interface{}) { c.line(cyan, format, args...) }

// Plain prints an uncolored line.
func (c *Console) Plain(format string, args ...interface{}) { c.line("", format, args...) }

// Error prints a red line.
func (c *Console) Error(format string, args ...interface{}) { c.line(red, format, args...) }

// Success prints a green line.
func (c *Console) Success(format string, args ...interface{}) { c.line(green, format, args...) }
