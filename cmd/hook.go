package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jensroland/git-autocommit/internal/debug"
	"github.com/jensroland/git-autocommit/internal/git"
	"github.com/jensroland/git-autocommit/internal/project"
)

// hookEditors returns editor commands that call back into this binary.
func hookEditors() (git.RebaseOptions, error) {
	exe, err := os.Executable()
	if err != nil {
		return git.RebaseOptions{}, fmt.Errorf("locate executable: %w", err)
	}
	return editorsFor(exe), nil
}

func editorsFor(exe string) git.RebaseOptions {
	q := shellQuote(exe)
	return git.RebaseOptions{
		SequenceEditor: q + " hook sequence-editor",
		Editor:         q + " hook editor",
	}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// RunHook dispatches the editor hooks git invokes during a rebase.
func RunHook(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: git-autocommit hook <sequence-editor|editor> <file>")
		os.Exit(1)
	}
	if err := runHook(args[0], args[1]); err != nil {
		if root, e := project.FindRoot(); e == nil {
			paths := project.NewPaths(root)
			debug.Log(paths.CacheDir, debug.HookLog, fmt.Sprintf("Fatal error: %v", err), args)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		// A non-zero exit makes git abort the step instead of using a
		// half-written file.
		os.Exit(1)
	}
}

func runHook(kind, file string) error {
	switch kind {
	case "sequence-editor":
		src := os.Getenv(git.EnvTodoFile)
		if src == "" {
			return fmt.Errorf("%s is not set; this hook only runs inside git-autocommit rebase", git.EnvTodoFile)
		}
		return git.WriteTodo(src, file)
	case "editor":
		messages := os.Getenv(git.EnvMessagesFile)
		gitDir := os.Getenv(git.EnvGitDir)
		if messages == "" || gitDir == "" {
			return fmt.Errorf("%s and %s must be set; this hook only runs inside git-autocommit rebase",
				git.EnvMessagesFile, git.EnvGitDir)
		}
		_, err := git.ApplyEditorMessage(gitDir, messages, file)
		return err
	default:
		return fmt.Errorf("unknown hook type: %s", kind)
	}
}
