package format

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/jensroland/git-autocommit/internal/patch"
)

// maxPreviewRows caps how many rows a side-by-side preview shows.
const maxPreviewRows = 40

type rowKind int

const (
	rowEqual rowKind = iota
	rowDelete
	rowInsert
	rowReplace
)

type row struct {
	kind        rowKind
	left, right *string
}

// HunkPreview shows the lines one hunk stages, before and after, with the
// path and ranges in the title.
func HunkPreview(path string, old, new patch.Content, h patch.Hunk) string {
	title := fmt.Sprintf("%s -%s +%s", path, rangeLabel(h.Old), rangeLabel(h.New))
	return sideBySide(pick(old, h.Old), pick(new, h.New), title, TermWidth())
}

func rangeLabel(r patch.LineRange) string {
	if s := r.String(); s != "" {
		return s
	}
	return "∅"
}

// pick returns the lines r selects from c, clipped to c.
func pick(c patch.Content, r patch.LineRange) []string {
	if r.IsEmpty() || r.Start > len(c.Lines) {
		return nil
	}
	end := min(r.End, len(c.Lines))
	var out []string
	for _, l := range c.Lines[r.Start-1 : end] {
		out = append(out, strings.ReplaceAll(l, "\t", "    "))
	}
	return out
}

// diffRows aligns two line slices into rows using a line-mode diff.
func diffRows(oldLines, newLines []string) []row {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(joinLines(oldLines), joinLines(newLines))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var rows []row
	var dels, ins []string
	flush := func() {
		for i := 0; i < max(len(dels), len(ins)); i++ {
			r := row{kind: rowReplace}
			if i < len(dels) {
				r.left = &dels[i]
			}
			if i < len(ins) {
				r.right = &ins[i]
			}
			switch {
			case r.left == nil:
				r.kind = rowInsert
			case r.right == nil:
				r.kind = rowDelete
			}
			rows = append(rows, r)
		}
		dels, ins = nil, nil
	}

	for _, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			for i := range lines {
				rows = append(rows, row{kind: rowEqual, left: &lines[i], right: &lines[i]})
			}
		case diffmatchpatch.DiffDelete:
			dels = append(dels, lines...)
		case diffmatchpatch.DiffInsert:
			ins = append(ins, lines...)
		}
	}
	flush()
	return rows
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}

func sideBySide(oldLines, newLines []string, title string, termWidth int) string {
	colW := max((termWidth-7)/2, 20)
	rows := diffRows(oldLines, newLines)

	hidden := 0
	if len(rows) > maxPreviewRows {
		hidden = len(rows) - maxPreviewRows
		rows = rows[:maxPreviewRows]
	}

	var out []string
	if title != "" {
		out = append(out, Bold+title+Reset)
	}
	lblL, lblR := "─ Before ", "─ After "
	out = append(out, "┌"+lblL+strings.Repeat("─", colW+2-runeLen(lblL))+
		"┬"+lblR+strings.Repeat("─", colW+2-runeLen(lblR))+"┐")

	blank := strings.Repeat(" ", colW)
	cell := func(s *string, colour string) string {
		if s == nil {
			return blank
		}
		return colour + padOrTrunc(*s, colW) + Reset
	}
	for _, r := range rows {
		var left, right string
		switch r.kind {
		case rowEqual:
			left, right = cell(r.left, Dim), cell(r.right, Dim)
		default:
			left, right = cell(r.left, Red), cell(r.right, Green)
		}
		out = append(out, "│ "+left+" │ "+right+" │")
	}

	out = append(out, "└"+strings.Repeat("─", colW+2)+"┴"+strings.Repeat("─", colW+2)+"┘")
	if hidden > 0 {
		out = append(out, fmt.Sprintf("  %s… %d more lines not shown%s", Dim, hidden, Reset))
	}
	return strings.Join(out, "\n")
}
