// Package record appends one JSONL entry per commit or rebase run to the
// run journal under .git/autocommit/runs.
package record

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jensroland/git-autocommit/internal/lineset"
	"github.com/jensroland/git-autocommit/internal/patch"
)

// Kind is the flow that produced a record.
type Kind string

const (
	KindCommit Kind = "commit"
	KindRebase Kind = "rebase"
)

// Status is how a run ended.
type Status string

const (
	StatusApplied Status = "applied"
	StatusDryRun  Status = "dry-run"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// FileEntry is one staged file. Lines is empty when the whole file was
// staged or the selection only deleted lines.
type FileEntry struct {
	Path  string          `json:"path"`
	Lines lineset.LineSet `json:"lines"`
	Whole bool            `json:"whole,omitempty"`
}

// Record is a single journal entry.
type Record struct {
	ID      string      `json:"id"`
	Ts      string      `json:"ts"`
	Kind    Kind        `json:"kind"`
	Status  Status      `json:"status"`
	Model   string      `json:"model"`
	Author  string      `json:"author"`
	Message string      `json:"message,omitempty"`
	Amend   bool        `json:"amend,omitempty"`
	Files   []FileEntry `json:"files,omitempty"`
	Base    string      `json:"base,omitempty"`
	Script  string      `json:"script,omitempty"`
	Changes []string    `json:"changes,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// New starts a record stamped with the current time.
func New(kind Kind, model, author string) Record {
	return Record{
		Ts:     time.Now().UTC().Format(time.RFC3339),
		Kind:   kind,
		Model:  model,
		Author: author,
	}
}

// Files converts staged changes to journal entries.
func Files(changes []patch.FileChange) []FileEntry {
	entries := make([]FileEntry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, FileEntry{
			Path:  c.Path,
			Lines: c.NewLines(),
			Whole: c.WholeFile(),
		})
	}
	return entries
}

// Append writes rec to runsDir/<YYYY-MM>.jsonl, assigning its ID.
func Append(runsDir string, rec Record) (Record, error) {
	ts, err := time.Parse(time.RFC3339, rec.Ts)
	if err != nil {
		return rec, fmt.Errorf("record timestamp %q: %w", rec.Ts, err)
	}
	if rec.ID == "" {
		rec.ID = ContentHash(rec.Ts + " " + string(rec.Kind) + " " + rec.Message + " " + rec.Script)
	}

	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return rec, err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}

	path := filepath.Join(runsDir, ts.Format("2006-01")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return rec, err
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return rec, fmt.Errorf("append to %s: %w", path, err)
	}
	return rec, nil
}

// ContentHash produces a 16-char hex hash of whitespace-normalized text.
func ContentHash(text string) string {
	if text == "" {
		return ""
	}
	normalized := strings.Join(strings.Fields(text), " ")
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)[:16]
}

// CompactChangeSummary generates a human-readable summary of what changed.
// The rebase flow uses it to describe rewritten commit subjects.
func CompactChangeSummary(oldStr, newStr string) string {
	const maxLen = 200

	if oldStr == "" && newStr != "" {
		preview := strings.ReplaceAll(newStr, "\n", " ")
		if len(preview) > maxLen {
			preview = preview[:maxLen]
		}
		return "added: " + preview
	}

	if oldStr != "" && newStr == "" {
		preview := strings.ReplaceAll(oldStr, "\n", " ")
		if len(preview) > maxLen {
			preview = preview[:maxLen]
		}
		return "removed: " + preview
	}

	oldFlat := strings.TrimSpace(strings.ReplaceAll(oldStr, "\n", " "))
	newFlat := strings.TrimSpace(strings.ReplaceAll(newStr, "\n", " "))

	common := 0
	for i := 0; i < min(len(oldFlat), len(newFlat)); i++ {
		if oldFlat[i] != newFlat[i] {
			break
		}
		common++
	}

	oldDisplay, newDisplay := oldFlat, newFlat
	if common > 20 {
		offset := common - 10
		oldDisplay = "…" + oldFlat[offset:]
		newDisplay = "…" + newFlat[offset:]
	}

	if len(oldDisplay) > maxLen {
		oldDisplay = oldDisplay[:maxLen] + "…"
	}
	if len(newDisplay) > maxLen {
		newDisplay = newDisplay[:maxLen] + "…"
	}

	return oldDisplay + " → " + newDisplay
}
