// Package plan holds the model's answers for the commit and rebase flows,
// the schemas they are checked against, and the prompts that ask for them.
package plan

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jensroland/git-autocommit/internal/patch"
	"github.com/jensroland/git-autocommit/internal/rebase"
)

var (
	//go:embed schema/commit.json
	CommitSchema []byte
	//go:embed schema/rebase.json
	RebaseSchema []byte
	//go:embed prompts/commit.md
	CommitInstructions string
	//go:embed prompts/rebase.md
	RebaseInstructions string
)

// HunkSpec is a hunk as the model writes it.
type HunkSpec struct {
	OldStart int `json:"oldStart"`
	OldEnd   int `json:"oldEnd"`
	NewStart int `json:"newStart"`
	NewEnd   int `json:"newEnd"`
}

// Hunk converts h to patch ranges.
func (h HunkSpec) Hunk() patch.Hunk {
	return patch.Hunk{
		Old: patch.LineRange{Start: h.OldStart, End: h.OldEnd},
		New: patch.LineRange{Start: h.NewStart, End: h.NewEnd},
	}
}

// FileSpec selects a file, or some of its hunks, for staging.
type FileSpec struct {
	Path  string     `json:"path"`
	Hunks []HunkSpec `json:"hunks,omitempty"`
}

// Change converts f to a patch.FileChange.
func (f FileSpec) Change() patch.FileChange {
	fc := patch.FileChange{Path: f.Path}
	for _, h := range f.Hunks {
		fc.Hunks = append(fc.Hunks, h.Hunk())
	}
	return fc
}

// CommitResponse is the model's proposal for the next commit.
type CommitResponse struct {
	Files         []FileSpec `json:"files"`
	CommitMessage string     `json:"commit_message,omitempty"`
	Amend         bool       `json:"amend,omitempty"`
}

// Changes returns the files to stage.
func (r *CommitResponse) Changes() []patch.FileChange {
	changes := make([]patch.FileChange, 0, len(r.Files))
	for _, f := range r.Files {
		changes = append(changes, f.Change())
	}
	return changes
}

// Skip reports whether no commit should be made.
func (r *CommitResponse) Skip() bool {
	return len(r.Files) == 0 || strings.TrimSpace(r.CommitMessage) == ""
}

// RebaseResponse is the model's proposal for the unpushed history.
type RebaseResponse struct {
	Rebases rebase.Plan `json:"rebases"`
}

// CommitContext is what the model sees about the working tree.
type CommitContext struct {
	Status    string
	Diff      string
	Untracked string
	Logs      string
	Head      string
}

// CommitPrompt renders the user message for the commit flow.
func CommitPrompt(c CommitContext) string {
	var parts []string
	section := func(title, body string) {
		parts = append(parts, fmt.Sprintf("# %s:", title), strings.TrimSpace(body), "")
	}
	section("GIT STATUS", c.Status)
	section("GIT DIFF", c.Diff)
	section("UNTRACKED FILES", c.Untracked)
	section("RECENT GIT LOGS", c.Logs)
	section("CURRENT HEAD COMMIT MESSAGE", c.Head)
	return strings.Join(parts, "\n")
}

// RebasePrompt renders the user message for the rebase flow.
func RebasePrompt(unpushed string) string {
	return "UNPUSHED COMMITS:\n" + strings.TrimSpace(unpushed) + "\n"
}
