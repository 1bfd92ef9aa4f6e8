package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/jensroland/git-autocommit/internal/config"
	"github.com/jensroland/git-autocommit/internal/console"
	"github.com/jensroland/git-autocommit/internal/git"
	"github.com/jensroland/git-autocommit/internal/llm"
	"github.com/jensroland/git-autocommit/internal/project"
	"github.com/jensroland/git-autocommit/internal/record"
)

// options are the flags shared by the commit and rebase flows.
type options struct {
	verbosity int
	dryRun    bool
}

// model is the part of llm.Client the flows use.
type model interface {
	Decode(ctx context.Context, instructions, prompt string, schema []byte, out any) error
	Model() string
}

// env carries everything a flow needs.
type env struct {
	paths   project.Paths
	log     *console.Logger
	out     io.Writer
	git     *git.Runner
	repo    *git.Repo
	model   model
	editors git.RebaseOptions
	logs    int
	author  string
}

const usage = `git-autocommit: let a model commit your work and tidy unpushed history.

Usage:
    git-autocommit [-v...] [--dry-run]           # commit, then rebase
    git-autocommit commit [-v...] [--dry-run]    # stage and commit one change
    git-autocommit rebase [-v...] [--dry-run]    # squash/reword/drop unpushed commits
    git-autocommit history [--json] [--stats] [--rebuild] [-n N] [--kind K] [--file PATH]
    git-autocommit log [--rebase|--hook] [--dump] [-n N]
    git-autocommit --version

Verbosity:
    -v      decisions and skipped steps
    -vv     model responses, staged hunks, the rebase todo
    -vvv    git output that feeds the prompt
    -vvvv   every git invocation and the raw model exchange

Configuration (environment or .env in the repository root):
    OPENAI_API_KEY         required
    OPENAI_URI             alternative API base URL
    OPENAI_MODEL           default "sonar"
    AUTOCOMMIT_TIMEOUT     model call timeout, default 2m
    AUTOCOMMIT_LOG_COUNT   recent commits shown to the model, default 10
`

func parseFlowFlags(name string, args []string) options {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	var o options
	fs.CountVarP(&o.verbosity, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Show what would happen without changing the repository")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}
	fs.Parse(args)
	return o
}

// newEnv wires the real collaborators for the repository containing the
// working directory.
func newEnv(o options) (*env, error) {
	root, err := project.FindRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	repo, err := git.OpenRepo(root)
	if err != nil {
		return nil, err
	}
	editors, err := hookEditors()
	if err != nil {
		return nil, err
	}

	log := console.New(os.Stderr, o.verbosity)
	return &env{
		paths:   project.NewPaths(root),
		log:     log,
		out:     os.Stdout,
		git:     git.NewRunner(root, log),
		repo:    repo,
		model:   llm.New(cfg, log),
		editors: editors,
		logs:    cfg.LogCount,
		author:  git.Author(),
	}, nil
}

func (e *env) newRecord(kind record.Kind) record.Record {
	return record.New(kind, e.model.Model(), e.author)
}

// journal appends rec to the run journal. A failed write never fails the
// run that produced it.
func (e *env) journal(rec record.Record) {
	if _, err := record.Append(e.paths.RunsDir, rec); err != nil {
		e.log.Debugf(1, "could not write run journal: %v", err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

// RunAll runs the commit flow, then the rebase flow.
func RunAll(args []string) {
	o := parseFlowFlags("git-autocommit", args)
	e, err := newEnv(o)
	if err != nil {
		fail(err)
	}
	ctx := context.Background()
	if err := runCommit(ctx, e, o); err != nil {
		fail(err)
	}
	if err := runRebase(ctx, e, o); err != nil {
		fail(err)
	}
}

// RunCommit runs only the commit flow.
func RunCommit(args []string) {
	o := parseFlowFlags("git-autocommit commit", args)
	e, err := newEnv(o)
	if err != nil {
		fail(err)
	}
	if err := runCommit(context.Background(), e, o); err != nil {
		fail(err)
	}
}

// RunRebase runs only the rebase flow.
func RunRebase(args []string) {
	o := parseFlowFlags("git-autocommit rebase", args)
	e, err := newEnv(o)
	if err != nil {
		fail(err)
	}
	if err := runRebase(context.Background(), e, o); err != nil {
		fail(err)
	}
}

// Usage prints the top-level help.
func Usage() {
	fmt.Fprint(os.Stderr, usage)
}
