package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// binarySniffLen is how many leading bytes are inspected to detect binaries.
const binarySniffLen = 8000

// Status returns "git status --porcelain".
func (r *Runner) Status(ctx context.Context) (string, error) {
	return r.Run(ctx, "status", "--porcelain")
}

// Diff returns the unstaged diff of tracked files.
func (r *Runner) Diff(ctx context.Context) (string, error) {
	return r.Run(ctx, "diff")
}

// UntrackedFiles lists untracked, non-ignored files with their contents in
// fenced blocks. Binary files are listed without content.
func (r *Runner) UntrackedFiles(ctx context.Context) (string, error) {
	out, err := r.Run(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, file := range strings.Split(out, "\n") {
		if file == "" {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", file)

		data, err := os.ReadFile(filepath.Join(r.Root, file))
		if err != nil {
			return "", fmt.Errorf("read untracked file %s: %w", file, err)
		}
		if IsBinary(data) {
			b.WriteString("(binary file)\n\n")
			continue
		}
		b.WriteString("```\n")
		b.WriteString(strings.ReplaceAll(string(data), "```", "``\\`"))
		b.WriteString("\n```\n\n")
	}
	return b.String(), nil
}

// IsBinary guesses whether data is binary from its leading bytes.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
		// Drop a rune split by the cut so it is not mistaken for binary.
		for i := 0; i < utf8.UTFMax-1 && len(data) > 0; i++ {
			if r, _ := utf8.DecodeLastRune(data); r != utf8.RuneError {
				break
			}
			data = data[:len(data)-1]
		}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	return !utf8.Valid(data)
}

// RecentLogs returns the last n commits as "<sha> <subject>" lines. An
// empty repository yields "".
func (r *Runner) RecentLogs(ctx context.Context, n int) (string, error) {
	out, err := r.Run(ctx, "log", fmt.Sprintf("-n%d", n), "--pretty=format:%H %s")
	if err != nil && isEmptyRepo(err) {
		return "", nil
	}
	return out, err
}

// HeadMessage returns the full message of HEAD, or "" in an empty repository.
func (r *Runner) HeadMessage(ctx context.Context) (string, error) {
	out, err := r.Run(ctx, "log", "-1", "--pretty=%B")
	if err != nil && isEmptyRepo(err) {
		return "", nil
	}
	return out, err
}

// UnpushedCommits returns the commits between the upstream and HEAD with
// their patches. Without an upstream it returns "".
func (r *Runner) UnpushedCommits(ctx context.Context) (string, error) {
	out, err := r.Run(ctx, "log", "-p", "--pretty=format:%H %s", "@{u}..HEAD")
	if err != nil && (isNoUpstream(err) || isEmptyRepo(err)) {
		return "", nil
	}
	return out, err
}

// StageFile runs git add for a file.
func (r *Runner) StageFile(ctx context.Context, relPath string) error {
	_, err := r.Run(ctx, "add", "--", relPath)
	return err
}

// ApplyCached applies a patch to the index only. Hunks without context
// lines are allowed.
func (r *Runner) ApplyCached(ctx context.Context, patchText string) error {
	_, err := r.RunInput(ctx, patchText, "apply", "--cached", "--unidiff-zero", "-")
	return err
}

// Commit commits the index with message, amending HEAD when amend is set.
func (r *Runner) Commit(ctx context.Context, message string, amend bool) error {
	args := []string{"commit", "-m", message}
	if amend {
		args = append(args, "--amend", "--no-edit")
	}
	_, err := r.Run(ctx, args...)
	return err
}

// AbsoluteGitDir returns the absolute path of the repository's git dir.
func (r *Runner) AbsoluteGitDir(ctx context.Context) (string, error) {
	out, err := r.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func isEmptyRepo(err error) bool {
	return stderrContains(err, "does not have any commits yet", "unknown revision or path not in the working tree")
}

func isNoUpstream(err error) bool {
	return stderrContains(err, "no upstream configured", "no such branch", "HEAD does not point to a branch")
}
