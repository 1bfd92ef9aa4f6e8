package git

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jensroland/git-autocommit/internal/rebase"
)

// Environment passed to the editor hooks while a rebase runs.
const (
	EnvTodoFile     = "GIT_AUTOCOMMIT_TODO"
	EnvMessagesFile = "GIT_AUTOCOMMIT_MESSAGES"
	EnvGitDir       = "GIT_AUTOCOMMIT_GIT_DIR"
)

// RebaseOptions holds the shell commands git runs as its editors. Both
// receive the file to edit as their last argument.
type RebaseOptions struct {
	SequenceEditor string
	Editor         string
}

// Rebase runs "git rebase -i" with script substituted for git's own todo.
// Explicit reword and squash messages are handed to the editor hook so no
// interactive editor is opened. A failed rebase is reported as-is; the
// repository is left in whatever state git left it.
func (r *Runner) Rebase(ctx context.Context, script *rebase.Script, opts RebaseOptions) error {
	if script.Empty() {
		return nil
	}

	gitDir, err := r.AbsoluteGitDir(ctx)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "git-autocommit-rebase-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	todoFile := filepath.Join(dir, "git-rebase-todo")
	if err := os.WriteFile(todoFile, []byte(script.Text()), 0o600); err != nil {
		return fmt.Errorf("write todo: %w", err)
	}

	messagesFile := filepath.Join(dir, "messages.json")
	messages := script.Messages
	if messages == nil {
		messages = map[string]string{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	if err := os.WriteFile(messagesFile, b, 0o600); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}

	base := script.Base
	if base == rebase.RootBase {
		base = "--root"
	}

	runner := r.WithEnv(
		"GIT_SEQUENCE_EDITOR="+opts.SequenceEditor,
		"GIT_EDITOR="+opts.Editor,
		EnvTodoFile+"="+todoFile,
		EnvMessagesFile+"="+messagesFile,
		EnvGitDir+"="+gitDir,
	)
	_, err = runner.Run(ctx, "rebase", "-i", base)
	return err
}

// WriteTodo replaces git's todo file dst with the prepared todo at src. Only
// the first contiguous block of non-blank lines is copied.
func WriteTodo(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read prepared todo: %w", err)
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			break
		}
		kept = append(kept, line)
	}

	out := ""
	if len(kept) > 0 {
		out = strings.Join(kept, "\n") + "\n"
	}
	return os.WriteFile(dst, []byte(out), 0o644)
}

// ApplyEditorMessage is run as git's commit-message editor during a rebase.
// It looks up the command currently being replayed and, when an explicit
// message was planned for that commit, writes it to msgFile. Otherwise the
// message git prepared is accepted untouched. It reports whether msgFile
// was rewritten.
func ApplyEditorMessage(gitDir, messagesFile, msgFile string) (bool, error) {
	data, err := os.ReadFile(messagesFile)
	if err != nil {
		return false, fmt.Errorf("read planned messages: %w", err)
	}
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return false, fmt.Errorf("parse planned messages: %w", err)
	}
	if len(messages) == 0 {
		return false, nil
	}

	action, sha, ok := currentRebaseCommand(gitDir)
	if !ok {
		return false, nil
	}
	switch action {
	case "reword", "r", "squash", "s":
	default:
		return false, nil
	}

	for full, msg := range messages {
		if strings.HasPrefix(full, sha) {
			return true, os.WriteFile(msgFile, []byte(msg+"\n"), 0o644)
		}
	}
	return false, nil
}

// currentRebaseCommand returns the last command git recorded as done.
func currentRebaseCommand(gitDir string) (action, sha string, ok bool) {
	data, err := os.ReadFile(filepath.Join(gitDir, "rebase-merge", "done"))
	if err != nil {
		return "", "", false
	}
	lines := strings.Split(string(data), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", "", false
		}
		return fields[0], strings.ToLower(fields[1]), true
	}
	return "", "", false
}
