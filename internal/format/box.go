package format

import (
	"fmt"
	"strings"
)

const minBoxWidth = 30

// Box renders text inside a bordered box, wrapping long lines at word
// boundaries. A non-empty title is embedded in the top border.
func Box(text, title string) string {
	return box(text, title, TermWidth())
}

func box(text, title string, termWidth int) string {
	innerW := max(termWidth-4, minBoxWidth)

	var body []string
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			body = append(body, "")
			continue
		}
		body = append(body, wordWrap(line, innerW)...)
	}

	top := strings.Repeat("─", innerW+2)
	if title != "" {
		lbl := fmt.Sprintf("─ %s ", title)
		top = lbl + strings.Repeat("─", max(innerW+2-runeLen(lbl), 0))
	}

	out := make([]string, 0, len(body)+2)
	out = append(out, "┌"+top+"┐")
	for _, line := range body {
		out = append(out, "│ "+padOrTrunc(line, innerW)+" │")
	}
	out = append(out, "└"+strings.Repeat("─", innerW+2)+"┘")
	return strings.Join(out, "\n")
}

// wordWrap wraps text to width runes, breaking at spaces. A single word
// longer than width is left intact for padOrTrunc to cut.
func wordWrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if runeLen(current)+1+runeLen(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

func padOrTrunc(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w])
	}
	return s + strings.Repeat(" ", w-len(r))
}

func runeLen(s string) int {
	return len([]rune(s))
}
