// Package format renders terminal output: escape codes, bordered boxes and
// side-by-side hunk previews.
package format

import (
	"os"

	"golang.org/x/term"
)

var (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"
	Red   = "\033[31m"
	Green = "\033[32m"
	Cyan  = "\033[36m"
)

func init() {
	_, noColor := os.LookupEnv("NO_COLOR")
	if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		disableColors()
	}
}

func disableColors() {
	Reset, Bold, Dim, Red, Green, Cyan = "", "", "", "", "", ""
}

// Enabled reports whether escape codes are emitted on stdout.
func Enabled() bool {
	return Reset != ""
}

// TermWidth returns the terminal width, defaulting to 80.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
