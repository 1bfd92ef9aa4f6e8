// Package patch builds unified-diff patches that stage a chosen subset of a
// file's changes.
//
// The hunk body is produced by a positional walk over the selected old and
// new line slices. No sequence alignment is attempted: the caller's ranges
// must already describe an aligned before/after pair. Shifted or reordered
// lines inside one hunk come out as delete/add pairs rather than context.
package patch

import (
	"fmt"
	"strconv"
	"strings"
)

const noEOLMarker = `\ No newline at end of file`

// LineRange is an inclusive, 1-based range of lines. A range with Start == 0
// or End < Start is empty and selects no lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsEmpty reports whether the range selects no lines.
func (r LineRange) IsEmpty() bool {
	return r.Start == 0 || r.End < r.Start
}

// String returns "5", "5-7", or "" for an empty range.
func (r LineRange) String() string {
	switch {
	case r.IsEmpty():
		return ""
	case r.Start == r.End:
		return strconv.Itoa(r.Start)
	default:
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	}
}

// Hunk is one block of change addressed by line ranges in the pre-image
// (Old) and post-image (New) of a single file.
type Hunk struct {
	Old LineRange `json:"old"`
	New LineRange `json:"new"`
}

// Content is one side of a file as a slice of lines without terminators.
type Content struct {
	Lines []string
	// Absent marks a side that does not exist: the pre-image of a new file
	// or the post-image of a deleted one.
	Absent bool
	// NoEOL is set when the last line has no trailing newline.
	NoEOL bool
}

// SplitLines turns raw file content into lines. A trailing newline does not
// produce an extra empty line; its absence is reported through NoEOL.
func SplitLines(text string) Content {
	if text == "" {
		return Content{}
	}
	c := Content{}
	if strings.HasSuffix(text, "\n") {
		text = strings.TrimSuffix(text, "\n")
	} else {
		c.NoEOL = true
	}
	c.Lines = strings.Split(text, "\n")
	return c
}

// MalformedRangeError reports a hunk range that cannot address any lines.
type MalformedRangeError struct {
	Path  string
	Hunk  int
	Side  string
	Range LineRange
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("malformed %s range %d,%d in hunk %d of %s",
		e.Side, e.Range.Start, e.Range.End, e.Hunk+1, e.Path)
}

// Validate checks every hunk for negative line numbers.
func Validate(path string, hunks []Hunk) error {
	for i, h := range hunks {
		if h.Old.Start < 0 || h.Old.End < 0 {
			return &MalformedRangeError{Path: path, Hunk: i, Side: "old", Range: h.Old}
		}
		if h.New.Start < 0 || h.New.End < 0 {
			return &MalformedRangeError{Path: path, Hunk: i, Side: "new", Range: h.New}
		}
	}
	return nil
}

// Build returns a patch for path containing only the given hunks, suitable
// for "git apply --cached". Ranges that run past the end of the content are
// clipped. Hunks are emitted in the order given.
func Build(path string, old, new Content, hunks []Hunk) (string, error) {
	if err := Validate(path, hunks); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	switch {
	case old.Absent:
		b.WriteString("new file mode 100644\n")
		fmt.Fprintf(&b, "--- /dev/null\n+++ b/%s\n", path)
	case new.Absent:
		b.WriteString("deleted file mode 100644\n")
		fmt.Fprintf(&b, "--- a/%s\n+++ /dev/null\n", path)
	default:
		fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)
	}

	shift := 0
	for _, h := range hunks {
		text, delta := buildHunk(h, old, new, shift)
		b.WriteString(text)
		shift += delta
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// side is a selected slice of one Content together with whether its last
// element is the unterminated final line of the file.
type side struct {
	lines         []string
	lastNoEOL     bool
	start, length int
}

func selectSide(r LineRange, c Content) side {
	s := side{start: r.Start}
	if r.IsEmpty() || r.Start > len(c.Lines) {
		return s
	}
	end := r.End
	if end > len(c.Lines) {
		end = len(c.Lines)
	}
	s.lines = c.Lines[r.Start-1 : end]
	s.length = len(s.lines)
	s.lastNoEOL = c.NoEOL && end == len(c.Lines)
	return s
}

func (s side) at(i int) (string, bool, bool) {
	if i >= len(s.lines) {
		return "", false, false
	}
	unterminated := s.lastNoEOL && i == len(s.lines)-1
	return s.lines[i], unterminated, true
}

// buildHunk renders one hunk and returns it with the change in line count
// it introduces. shift is the line count change of the hunks before it.
func buildHunk(h Hunk, old, new Content, shift int) (string, int) {
	o := selectSide(h.Old, old)
	n := selectSide(h.New, new)

	// An empty side is anchored after line start. With zero context, git
	// applies an old start of 0 at the top of the file, so an unanchored
	// insertion takes its position from the other side.
	if o.length == 0 && o.start == 0 && n.length > 0 {
		o.start = max(n.start-1-shift, 0)
	}
	if n.length == 0 && n.start == 0 && o.length > 0 {
		n.start = max(o.start-1+shift, 0)
	}

	var body strings.Builder
	emit := func(prefix byte, line string, unterminated bool) {
		body.WriteByte(prefix)
		body.WriteString(line)
		body.WriteByte('\n')
		if unterminated {
			body.WriteString(noEOLMarker)
			body.WriteByte('\n')
		}
	}

	for i := 0; i < max(o.length, n.length); i++ {
		ol, oNoEOL, hasOld := o.at(i)
		nl, nNoEOL, hasNew := n.at(i)
		switch {
		case hasOld && !hasNew:
			emit('-', ol, oNoEOL)
		case hasNew && !hasOld:
			emit('+', nl, nNoEOL)
		case ol != nl || oNoEOL != nNoEOL:
			emit('-', ol, oNoEOL)
			emit('+', nl, nNoEOL)
		default:
			emit(' ', ol, oNoEOL)
		}
	}

	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", o.start, o.length, n.start, n.length)
	return header + body.String(), n.length - o.length
}
