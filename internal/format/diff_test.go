package format

import (
	"strings"
	"testing"

	"github.com/jensroland/git-autocommit/internal/patch"
)

func strs(rows []row) (kinds []rowKind, left, right []string) {
	for _, r := range rows {
		kinds = append(kinds, r.kind)
		l, rr := "", ""
		if r.left != nil {
			l = *r.left
		}
		if r.right != nil {
			rr = *r.right
		}
		left = append(left, l)
		right = append(right, rr)
	}
	return
}

func TestDiffRows(t *testing.T) {
	t.Run("equal", func(t *testing.T) {
		kinds, left, _ := strs(diffRows([]string{"a", "b"}, []string{"a", "b"}))
		if len(kinds) != 2 || kinds[0] != rowEqual || kinds[1] != rowEqual || left[1] != "b" {
			t.Errorf("rows = %v %v", kinds, left)
		}
	})

	t.Run("replace_in_middle", func(t *testing.T) {
		kinds, left, right := strs(diffRows([]string{"a", "b", "c"}, []string{"a", "B", "c"}))
		want := []rowKind{rowEqual, rowReplace, rowEqual}
		if len(kinds) != 3 {
			t.Fatalf("rows = %v", kinds)
		}
		for i := range want {
			if kinds[i] != want[i] {
				t.Errorf("row %d kind = %v, want %v", i, kinds[i], want[i])
			}
		}
		if left[1] != "b" || right[1] != "B" {
			t.Errorf("replace row = %q -> %q", left[1], right[1])
		}
	})

	t.Run("pure_insert", func(t *testing.T) {
		kinds, _, right := strs(diffRows(nil, []string{"x", "y"}))
		if len(kinds) != 2 || kinds[0] != rowInsert || right[1] != "y" {
			t.Errorf("rows = %v %v", kinds, right)
		}
	})

	t.Run("pure_delete", func(t *testing.T) {
		kinds, left, _ := strs(diffRows([]string{"x"}, nil))
		if len(kinds) != 1 || kinds[0] != rowDelete || left[0] != "x" {
			t.Errorf("rows = %v %v", kinds, left)
		}
	})

	t.Run("uneven_replace", func(t *testing.T) {
		kinds, _, _ := strs(diffRows([]string{"a"}, []string{"b", "c"}))
		if len(kinds) != 2 || kinds[0] != rowReplace || kinds[1] != rowInsert {
			t.Errorf("rows = %v", kinds)
		}
	})
}

func TestSideBySide(t *testing.T) {
	out := sideBySide([]string{"old"}, []string{"new"}, "f.txt", 47)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected title, top, row and bottom, got:\n%s", out)
	}
	if !strings.Contains(lines[0], "f.txt") {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Before") || !strings.Contains(lines[1], "After") {
		t.Errorf("header = %q", lines[1])
	}
	if !strings.Contains(lines[2], "old") || !strings.Contains(lines[2], "new") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestSideBySide_Truncates(t *testing.T) {
	var many []string
	for i := 0; i < maxPreviewRows+5; i++ {
		many = append(many, strings.Repeat("x", i+1))
	}
	out := sideBySide(nil, many, "", 80)
	if !strings.Contains(out, "5 more lines not shown") {
		t.Errorf("expected truncation notice, got:\n%s", out)
	}
}

func TestHunkPreview(t *testing.T) {
	old := patch.SplitLines("1\n2\n3\n")
	new := patch.SplitLines("1\n\ttwo\n3\n")

	out := HunkPreview("f.txt", old, new, patch.Hunk{
		Old: patch.LineRange{Start: 2, End: 2},
		New: patch.LineRange{Start: 2, End: 9},
	})
	if !strings.Contains(out, "f.txt -2 +2-9") {
		t.Errorf("title missing ranges:\n%s", out)
	}
	if !strings.Contains(out, "    two") {
		t.Errorf("tabs should be expanded:\n%s", out)
	}
	if strings.Contains(out, "│ 1 ") {
		t.Errorf("lines outside the hunk should not be shown:\n%s", out)
	}

	insert := HunkPreview("g.txt", patch.Content{Absent: true}, new, patch.Hunk{New: patch.LineRange{Start: 1, End: 1}})
	if !strings.Contains(insert, "g.txt -∅ +1") {
		t.Errorf("empty old range should be marked:\n%s", insert)
	}
}
