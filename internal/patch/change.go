package patch

import (
	"github.com/jensroland/git-autocommit/internal/lineset"
)

// FileChange selects changes of one file to stage. No hunks means the whole
// file is staged.
type FileChange struct {
	Path  string `json:"path"`
	Hunks []Hunk `json:"hunks,omitempty"`
}

// WholeFile reports whether the change stages the entire file.
func (fc FileChange) WholeFile() bool {
	return len(fc.Hunks) == 0
}

// NewLines returns the post-image lines covered by the change's hunks.
func (fc FileChange) NewLines() lineset.LineSet {
	var ls lineset.LineSet
	for _, h := range fc.Hunks {
		ls = ls.Union(lineset.FromRange(h.New.Start, h.New.End))
	}
	return ls
}

// Summary renders "path" or "path:3-5,9" for log output.
func (fc FileChange) Summary() string {
	if fc.WholeFile() {
		return fc.Path
	}
	ls := fc.NewLines()
	if ls.IsEmpty() {
		return fc.Path + ":(deletions)"
	}
	return fc.Path + ":" + ls.String()
}
