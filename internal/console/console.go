// Package console writes levelled, coloured progress lines to the terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	gray = color.New(color.FgHiBlack)
	red  = color.New(color.FgRed)
	bold = color.New(color.Bold)
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
	} else if !term.IsTerminal(int(os.Stderr.Fd())) {
		color.NoColor = true
	}
}

// Logger prints messages whose level does not exceed the configured
// verbosity. Groups indent everything printed until they are closed.
type Logger struct {
	out       io.Writer
	verbosity int
	depth     int
}

// New returns a Logger writing to out. Verbosity is the number of -v flags.
func New(out io.Writer, verbosity int) *Logger {
	return &Logger{out: out, verbosity: verbosity}
}

// Enabled reports whether messages at level would be printed.
func (l *Logger) Enabled(level int) bool {
	return l != nil && l.verbosity >= level
}

// Infof prints a plain line regardless of verbosity.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(fmt.Sprintf(format, args...))
}

// Debugf prints a gray line when verbosity is at least level.
func (l *Logger) Debugf(level int, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.write(gray.Sprint(fmt.Sprintf(format, args...)))
}

// Errorf prints a red line regardless of verbosity.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(red.Sprint(fmt.Sprintf(format, args...)))
}

// Block prints multi-line text in gray when verbosity is at least level.
func (l *Logger) Block(level int, text string) {
	if !l.Enabled(level) {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		l.write(gray.Sprint(line))
	}
}

// Group prints a bold title when verbosity is at least level and indents
// subsequent output until the returned function is called.
func (l *Logger) Group(level int, title string) func() {
	if !l.Enabled(level) {
		return func() {}
	}
	l.write(bold.Sprint(title))
	l.depth++
	return func() { l.depth-- }
}

// ErrorGroup is Group for failures: the title is red and always printed.
func (l *Logger) ErrorGroup(title string) func() {
	if l == nil {
		return func() {}
	}
	l.write(red.Sprint(title))
	l.depth++
	return func() { l.depth-- }
}

func (l *Logger) write(line string) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.out, "%s%s\n", strings.Repeat("  ", l.depth), line)
}
