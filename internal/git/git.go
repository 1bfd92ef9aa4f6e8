package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/jensroland/git-autocommit/internal/console"
)

// traceLevel is the verbosity at which every git invocation is echoed.
const traceLevel = 4

// CommandError is returned when git exits non-zero. Stderr is kept verbatim.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed with exit code %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner runs git in a repository and captures its output.
type Runner struct {
	Root string
	// Env is appended to the process environment of every invocation.
	Env []string
	Log *console.Logger
}

// NewRunner returns a Runner for the repository at root.
func NewRunner(root string, log *console.Logger) *Runner {
	return &Runner{Root: root, Log: log}
}

// WithEnv returns a copy of r that adds env to every invocation.
func (r *Runner) WithEnv(env ...string) *Runner {
	cp := *r
	cp.Env = append(append([]string(nil), r.Env...), env...)
	return &cp
}

// Run executes git with args and returns its stdout.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, nil, args...)
}

// RunInput executes git with args, feeding input on stdin.
func (r *Runner) RunInput(ctx context.Context, input string, args ...string) (string, error) {
	return r.run(ctx, strings.NewReader(input), args...)
}

func (r *Runner) run(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Root
	cmd.Stdin = stdin
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %s: %w", args[0], ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &CommandError{Args: args, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	out := stdout.String()
	if strings.TrimSpace(out) != "" {
		end := r.Log.Group(traceLevel, "> git "+strings.Join(args, " "))
		r.Log.Block(traceLevel, out)
		end()
	}
	return out, nil
}

// stderrContains reports whether err is a CommandError whose stderr
// mentions any of the given fragments.
func stderrContains(err error, fragments ...string) bool {
	var ce *CommandError
	if !errors.As(err, &ce) {
		return false
	}
	for _, f := range fragments {
		if strings.Contains(ce.Stderr, f) {
			return true
		}
	}
	return false
}

// Author returns the git user.name config value.
func Author() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err != nil {
		return "unknown"
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "unknown"
	}
	return name
}

// RevParseTopLevel returns the git repo root.
func RevParseTopLevel() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("not inside a git repository")
	}
	return strings.TrimSpace(string(out)), nil
}
