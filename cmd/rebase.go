package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jensroland/git-autocommit/internal/debug"
	"github.com/jensroland/git-autocommit/internal/format"
	"github.com/jensroland/git-autocommit/internal/git"
	"github.com/jensroland/git-autocommit/internal/plan"
	"github.com/jensroland/git-autocommit/internal/rebase"
	"github.com/jensroland/git-autocommit/internal/record"
)

// errUnknownCommits is returned after the offending SHAs were listed.
var errUnknownCommits = errors.New("rebase plan references commits outside the unpushed history")

// runRebase asks the model how to tidy the unpushed commits and runs the
// compiled todo.
func runRebase(ctx context.Context, e *env, o options) error {
	hist, err := e.repo.LinearHistory()
	if err != nil {
		return err
	}
	if hist.Status != git.HistoryOK || len(hist.Commits) == 0 {
		e.log.Debugf(1, "[autorebase] Nothing to rebase, skipping.")
		return nil
	}

	unpushed, err := e.git.UnpushedCommits(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(unpushed) == "" {
		e.log.Debugf(1, "[autorebase] Nothing to rebase, skipping.")
		return nil
	}
	e.log.Block(3, unpushed)

	var resp plan.RebaseResponse
	err = e.model.Decode(ctx, plan.RebaseInstructions, plan.RebasePrompt(unpushed), plan.RebaseSchema, &resp)
	if err != nil {
		debug.Log(e.paths.CacheDir, debug.RebaseLog, fmt.Sprintf("Model call failed: %v", err), nil)
		return fmt.Errorf("autorebase: %w", err)
	}
	debug.Log(e.paths.CacheDir, debug.RebaseLog, "Model response", resp)

	if e.log.Enabled(2) {
		end := e.log.Group(2, "[autorebase] AI Response:")
		b, _ := json.MarshalIndent(resp, "", "  ")
		e.log.Block(2, string(b))
		end()
	}

	if len(resp.Rebases) == 0 {
		e.log.Debugf(1, "[autorebase] No rebase needed.")
		return nil
	}

	rec := e.newRecord(record.KindRebase)
	script, err := rebase.Compile(hist.Commits, resp.Rebases)
	if err != nil {
		rec.Status = record.StatusFailed
		rec.Error = err.Error()
		e.journal(rec)

		var unknown *rebase.UnknownCommitError
		if errors.As(err, &unknown) {
			end := e.log.ErrorGroup("[autorebase] Unknown commits in rebase plan:")
			for _, sha := range unknown.SHAs {
				e.log.Errorf("- %s", sha)
			}
			end()
			return errUnknownCommits
		}
		return err
	}

	if script.Empty() {
		e.log.Debugf(1, "[autorebase] Plan contains less than 2 steps, skipping.")
		rec.Status = record.StatusSkipped
		e.journal(rec)
		return nil
	}

	rec.Base = script.Base
	rec.Script = script.Text()
	rec.Changes = scriptChanges(hist.Commits, resp.Rebases, script)

	if e.log.Enabled(2) {
		e.log.Infof("%s", format.Box(script.Text(), "rebase todo"))
	}

	if o.dryRun {
		fmt.Fprintf(e.out, "%srebase onto %s:%s\n%s", format.Bold, script.Base, format.Reset, script.Text())
		rec.Status = record.StatusDryRun
		e.journal(rec)
		return nil
	}

	if err := e.git.Rebase(ctx, script, e.editors); err != nil {
		rec.Status = record.StatusFailed
		rec.Error = err.Error()
		e.journal(rec)
		debug.Log(e.paths.CacheDir, debug.RebaseLog, fmt.Sprintf("Rebase failed: %v", err), script.Text())
		return err
	}
	rec.Status = record.StatusApplied
	e.journal(rec)

	kept := 0
	for _, d := range script.Directives {
		if d.Action != rebase.ActionNoop {
			kept++
		}
	}
	end := e.log.Group(1, fmt.Sprintf("[autorebase] Rewrote %d commit(s) onto %s", kept, shortBase(script.Base)))
	for _, c := range rec.Changes {
		e.log.Debugf(2, "- %s", c)
	}
	end()
	return nil
}

// scriptChanges describes what the script does to each commit it touches.
func scriptChanges(history []rebase.Commit, p rebase.Plan, script *rebase.Script) []string {
	kept := make(map[string]rebase.Directive, len(script.Directives))
	for _, d := range script.Directives {
		kept[d.SHA] = d
	}

	var changes []string
	for _, c := range history {
		d, ok := kept[c.SHA]
		switch {
		case !ok && planned(p, c.SHA):
			changes = append(changes, fmt.Sprintf("drop %s %s", shortBase(c.SHA), c.Subject))
		case ok && d.Action == rebase.ActionSquash:
			changes = append(changes, fmt.Sprintf("squash %s %s", shortBase(c.SHA), c.Subject))
		case ok && d.Action == rebase.ActionReword:
			summary := c.Subject
			if msg := script.Messages[c.SHA]; msg != "" {
				summary = record.CompactChangeSummary(c.Subject, msg)
			}
			changes = append(changes, fmt.Sprintf("reword %s %s", shortBase(c.SHA), summary))
		}
	}
	return changes
}

func planned(p rebase.Plan, sha string) bool {
	for _, a := range p {
		prefix := strings.ToLower(strings.TrimSpace(a.Commit))
		if prefix != "" && strings.HasPrefix(sha, prefix) {
			return true
		}
	}
	return false
}

func shortBase(sha string) string {
	if len(sha) > 7 && sha != rebase.RootBase {
		return sha[:7]
	}
	return sha
}
