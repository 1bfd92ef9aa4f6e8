package patch

import (
	"errors"
	"strings"
	"testing"
)

func lines(s ...string) Content {
	return Content{Lines: s}
}

// bodyLines returns the lines of the patch after the file header.
func bodyLines(t *testing.T, p string) []string {
	t.Helper()
	idx := strings.Index(p, "@@")
	if idx < 0 {
		t.Fatalf("patch has no hunk header:\n%s", p)
	}
	return strings.Split(strings.TrimSuffix(p[idx:], "\n"), "\n")
}

func countPrefix(ls []string, prefix byte) int {
	n := 0
	for _, l := range ls {
		if strings.HasPrefix(l, "@@") {
			continue
		}
		if len(l) > 0 && l[0] == prefix {
			n++
		}
	}
	return n
}

func TestBuild_Replacement(t *testing.T) {
	old := lines("a", "b", "c", "d")
	new := lines("a", "X", "Y", "d")

	p, err := Build("f.txt", old, new, []Hunk{{Old: LineRange{2, 3}, New: LineRange{2, 3}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := "diff --git a/f.txt b/f.txt\n" +
		"--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -2,2 +2,2 @@\n" +
		"-b\n" +
		"+X\n" +
		"-c\n" +
		"+Y\n"
	if p != want {
		t.Errorf("Build =\n%s\nwant\n%s", p, want)
	}
}

func TestBuild_HeaderCountsMatchSlices(t *testing.T) {
	tests := []struct {
		name     string
		hunk     Hunk
		wantHead string
		del, add int
	}{
		{
			name:     "equal_length_different",
			hunk:     Hunk{Old: LineRange{1, 3}, New: LineRange{1, 3}},
			wantHead: "@@ -1,3 +1,3 @@",
			del:      3, add: 3,
		},
		{
			name:     "old_longer",
			hunk:     Hunk{Old: LineRange{1, 4}, New: LineRange{1, 2}},
			wantHead: "@@ -1,4 +1,2 @@",
			del:      4, add: 2,
		},
		{
			name:     "clipped_past_end",
			hunk:     Hunk{Old: LineRange{3, 40}, New: LineRange{3, 40}},
			wantHead: "@@ -3,2 +3,2 @@",
			del:      2, add: 2,
		},
	}

	old := lines("o1", "o2", "o3", "o4")
	new := lines("n1", "n2", "n3", "n4")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build("f", old, new, []Hunk{tt.hunk})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			body := bodyLines(t, p)
			if body[0] != tt.wantHead {
				t.Errorf("header = %q, want %q", body[0], tt.wantHead)
			}
			if got := countPrefix(body, '-'); got != tt.del {
				t.Errorf("deletions = %d, want %d", got, tt.del)
			}
			if got := countPrefix(body, '+'); got != tt.add {
				t.Errorf("additions = %d, want %d", got, tt.add)
			}
			if got := countPrefix(body, ' '); got != 0 {
				t.Errorf("context lines = %d, want 0", got)
			}
		})
	}
}

func TestBuild_PureInsertion(t *testing.T) {
	old := lines("a", "b")
	new := lines("a", "x", "y", "z", "b")

	p, err := Build("f", old, new, []Hunk{{Old: LineRange{1, 0}, New: LineRange{2, 4}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	body := bodyLines(t, p)
	if body[0] != "@@ -1,0 +2,3 @@" {
		t.Errorf("header = %q", body[0])
	}
	if countPrefix(body, '+') != 3 || countPrefix(body, '-') != 0 || countPrefix(body, ' ') != 0 {
		t.Errorf("unexpected body for pure insertion:\n%s", p)
	}
}

func TestBuild_UnanchoredSideTakesPositionFromOtherSide(t *testing.T) {
	old := lines("1", "2", "3", "4", "5", "6")
	new := lines("1", "two", "extra", "3", "NEW", "4", "6")

	tests := []struct {
		name  string
		hunks []Hunk
		want  string
	}{
		{
			name:  "insertion_mid_file",
			hunks: []Hunk{{New: LineRange{5, 5}}},
			want:  "@@ -4,0 +5,1 @@",
		},
		{
			name:  "insertion_at_top",
			hunks: []Hunk{{New: LineRange{1, 1}}},
			want:  "@@ -0,0 +1,1 @@",
		},
		{
			name: "insertion_after_growing_hunk",
			hunks: []Hunk{
				{Old: LineRange{2, 2}, New: LineRange{2, 3}},
				{New: LineRange{5, 5}},
			},
			want: "@@ -3,0 +5,1 @@",
		},
		{
			name: "deletion_after_growing_hunk",
			hunks: []Hunk{
				{Old: LineRange{2, 2}, New: LineRange{2, 3}},
				{Old: LineRange{5, 5}},
			},
			want: "@@ -5,1 +5,0 @@",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build("f", old, new, tt.hunks)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if !strings.Contains(p, tt.want+"\n") {
				t.Errorf("missing header %q:\n%s", tt.want, p)
			}
		})
	}
}

func TestBuild_PureDeletion(t *testing.T) {
	old := lines("a", "b", "c", "d")
	new := lines("a", "d")

	p, err := Build("f", old, new, []Hunk{{Old: LineRange{2, 3}, New: LineRange{}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	body := bodyLines(t, p)
	if body[0] != "@@ -2,2 +1,0 @@" {
		t.Errorf("header = %q", body[0])
	}
	if countPrefix(body, '-') != 2 || countPrefix(body, '+') != 0 || countPrefix(body, ' ') != 0 {
		t.Errorf("unexpected body for pure deletion:\n%s", p)
	}
}

func TestBuild_NewFile(t *testing.T) {
	new := lines("package main", "", "func main() {}")

	p, err := Build("main.go", Content{Absent: true}, new, []Hunk{{Old: LineRange{}, New: LineRange{1, 3}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p, "new file mode 100644\n") {
		t.Errorf("missing new file mode marker:\n%s", p)
	}
	if !strings.Contains(p, "--- /dev/null\n+++ b/main.go\n") {
		t.Errorf("missing null pre-image header:\n%s", p)
	}
	if !strings.Contains(p, "@@ -0,0 +1,3 @@\n") {
		t.Errorf("old side should report length 0:\n%s", p)
	}
	if strings.Contains(p, "\n\n") {
		t.Errorf("patch should not contain blank lines:\n%q", p)
	}
}

func TestBuild_DeletedFile(t *testing.T) {
	old := lines("a", "b")

	p, err := Build("gone.txt", old, Content{Absent: true}, []Hunk{{Old: LineRange{1, 2}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p, "deleted file mode 100644\n--- a/gone.txt\n+++ /dev/null\n") {
		t.Errorf("missing deleted file header:\n%s", p)
	}
	body := bodyLines(t, p)
	if countPrefix(body, '-') != 2 || countPrefix(body, '+') != 0 {
		t.Errorf("expected two removed lines:\n%s", p)
	}
}

func TestBuild_EqualLinesBecomeContext(t *testing.T) {
	old := lines("a", "b", "c")
	new := lines("a", "B", "c")

	p, err := Build("f", old, new, []Hunk{{Old: LineRange{1, 3}, New: LineRange{1, 3}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n"
	if !strings.HasSuffix(p, want) {
		t.Errorf("Build =\n%s\nwant suffix\n%s", p, want)
	}
}

func TestBuild_MultipleHunks(t *testing.T) {
	old := lines("1", "2", "3", "4", "5", "6")
	new := lines("1", "two", "3", "4", "five", "6")

	p, err := Build("f", old, new, []Hunk{
		{Old: LineRange{2, 2}, New: LineRange{2, 2}},
		{Old: LineRange{5, 5}, New: LineRange{5, 5}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Count(p, "@@ -") != 2 {
		t.Errorf("expected two hunks:\n%s", p)
	}
	first := strings.Index(p, "@@ -2,1 +2,1 @@")
	second := strings.Index(p, "@@ -5,1 +5,1 @@")
	if first < 0 || second < 0 || first > second {
		t.Errorf("hunks missing or out of caller order:\n%s", p)
	}
	if !strings.HasSuffix(p, "+five\n") || strings.HasSuffix(p, "\n\n") {
		t.Errorf("patch should end with exactly one newline:\n%q", p)
	}
}

func TestBuild_BothRangesEmptyIsNoop(t *testing.T) {
	p, err := Build("f", lines("a"), lines("a"), []Hunk{{}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasSuffix(p, "@@ -0,0 +0,0 @@\n") {
		t.Errorf("expected empty hunk, got:\n%s", p)
	}
}

func TestBuild_NoNewlineAtEOF(t *testing.T) {
	old := SplitLines("a\nb\n")
	new := SplitLines("a\nb\nc")

	p, err := Build("f", old, new, []Hunk{{Old: LineRange{2, 2}, New: LineRange{2, 3}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "@@ -2,1 +2,2 @@\n b\n+c\n\\ No newline at end of file\n"
	if !strings.HasSuffix(p, want) {
		t.Errorf("Build =\n%s\nwant suffix\n%s", p, want)
	}
}

func TestBuild_EOLChangeIsNotContext(t *testing.T) {
	old := SplitLines("a\nb")
	new := SplitLines("a\nb\n")

	p, err := Build("f", old, new, []Hunk{{Old: LineRange{2, 2}, New: LineRange{2, 2}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "@@ -2,1 +2,1 @@\n-b\n\\ No newline at end of file\n+b\n"
	if !strings.HasSuffix(p, want) {
		t.Errorf("Build =\n%s\nwant suffix\n%s", p, want)
	}
}

func TestBuild_MalformedRange(t *testing.T) {
	_, err := Build("f", lines("a"), lines("b"), []Hunk{
		{Old: LineRange{1, 1}, New: LineRange{1, 1}},
		{Old: LineRange{-2, 1}, New: LineRange{1, 1}},
	})
	var mre *MalformedRangeError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRangeError, got %v", err)
	}
	if mre.Hunk != 1 || mre.Side != "old" || mre.Path != "f" {
		t.Errorf("unexpected error details: %+v", mre)
	}
	if !strings.Contains(err.Error(), "hunk 2 of f") {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantLines []string
		wantNoEOL bool
	}{
		{name: "empty", in: "", wantLines: nil},
		{name: "terminated", in: "a\nb\n", wantLines: []string{"a", "b"}},
		{name: "unterminated", in: "a\nb", wantLines: []string{"a", "b"}, wantNoEOL: true},
		{name: "blank_line_kept", in: "a\n\n", wantLines: []string{"a", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.in)
			if strings.Join(got.Lines, "|") != strings.Join(tt.wantLines, "|") || len(got.Lines) != len(tt.wantLines) {
				t.Errorf("SplitLines(%q).Lines = %q, want %q", tt.in, got.Lines, tt.wantLines)
			}
			if got.NoEOL != tt.wantNoEOL {
				t.Errorf("SplitLines(%q).NoEOL = %v, want %v", tt.in, got.NoEOL, tt.wantNoEOL)
			}
		})
	}
}

func TestFileChangeSummary(t *testing.T) {
	tests := []struct {
		name string
		fc   FileChange
		want string
	}{
		{name: "whole_file", fc: FileChange{Path: "a.go"}, want: "a.go"},
		{
			name: "ranges",
			fc: FileChange{Path: "a.go", Hunks: []Hunk{
				{New: LineRange{9, 9}},
				{New: LineRange{3, 5}},
			}},
			want: "a.go:3-5,9",
		},
		{
			name: "deletions_only",
			fc:   FileChange{Path: "a.go", Hunks: []Hunk{{Old: LineRange{2, 4}}}},
			want: "a.go:(deletions)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fc.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
