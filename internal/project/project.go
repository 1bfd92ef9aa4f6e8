package project

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Paths holds all relevant locations for a repository using git-autocommit.
type Paths struct {
	Root     string // git repo root
	GitDir   string // .git, or the worktree's git dir
	CacheDir string // .git/autocommit/
	RunsDir  string // .git/autocommit/runs/
	LogDir   string // .git/autocommit/logs/
	IndexDB  string // .git/autocommit/index.db
}

// FindRoot returns the git project root, preferring GIT_AUTOCOMMIT_ROOT if set.
func FindRoot() (string, error) {
	if dir := os.Getenv("GIT_AUTOCOMMIT_ROOT"); dir != "" {
		return dir, nil
	}
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("not inside a git repository")
	}
	return strings.TrimSpace(string(out)), nil
}

// NewPaths constructs all path constants from a project root.
func NewPaths(root string) Paths {
	gitDir := resolveGitDir(root)
	cache := filepath.Join(gitDir, "autocommit")
	return Paths{
		Root:     root,
		GitDir:   gitDir,
		CacheDir: cache,
		RunsDir:  filepath.Join(cache, "runs"),
		LogDir:   filepath.Join(cache, "logs"),
		IndexDB:  filepath.Join(cache, "index.db"),
	}
}

// resolveGitDir follows a "gitdir: <path>" pointer file as used by linked
// worktrees. Anything else falls back to root/.git.
func resolveGitDir(root string) string {
	dotGit := filepath.Join(root, ".git")
	info, err := os.Stat(dotGit)
	if err != nil || info.IsDir() {
		return dotGit
	}
	data, err := os.ReadFile(dotGit)
	if err != nil {
		return dotGit
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir: ")
	if !ok {
		return dotGit
	}
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(root, target)
}
