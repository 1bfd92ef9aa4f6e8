package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jensroland/git-autocommit/internal/debug"
	"github.com/jensroland/git-autocommit/internal/format"
	"github.com/jensroland/git-autocommit/internal/patch"
	"github.com/jensroland/git-autocommit/internal/plan"
	"github.com/jensroland/git-autocommit/internal/record"
)

// runCommit asks the model for one commit over the pending changes and
// stages and commits what it selected.
func runCommit(ctx context.Context, e *env, o options) error {
	status, err := e.git.Status(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(status) == "" {
		e.log.Debugf(1, "[autocommit] No changes to commit.")
		return nil
	}

	pc, err := gatherCommitContext(ctx, e, status)
	if err != nil {
		return err
	}

	var resp plan.CommitResponse
	err = e.model.Decode(ctx, plan.CommitInstructions, plan.CommitPrompt(pc), plan.CommitSchema, &resp)
	if err != nil {
		debug.Log(e.paths.CacheDir, debug.CommitLog, fmt.Sprintf("Model call failed: %v", err), nil)
		return fmt.Errorf("autocommit: %w", err)
	}
	debug.Log(e.paths.CacheDir, debug.CommitLog, "Model response", resp)

	if e.log.Enabled(2) {
		end := e.log.Group(2, "[autocommit] AI Response:")
		b, _ := json.MarshalIndent(resp, "", "  ")
		e.log.Block(2, string(b))
		end()
	}

	rec := e.newRecord(record.KindCommit)
	if resp.Skip() {
		e.log.Debugf(1, "[autocommit] No meaningful commit can be made, skipping.")
		rec.Status = record.StatusSkipped
		e.journal(rec)
		return nil
	}

	changes := resp.Changes()
	rec.Message = resp.CommitMessage
	rec.Amend = resp.Amend
	rec.Files = record.Files(changes)

	if err := stageChanges(ctx, e, o, changes); err != nil {
		rec.Status = record.StatusFailed
		rec.Error = err.Error()
		e.journal(rec)
		debug.Log(e.paths.CacheDir, debug.CommitLog, fmt.Sprintf("Staging failed: %v", err), nil)
		return err
	}

	if o.dryRun {
		printCommitPlan(e, resp.CommitMessage, resp.Amend)
		rec.Status = record.StatusDryRun
		e.journal(rec)
		return nil
	}

	if err := e.git.Commit(ctx, resp.CommitMessage, resp.Amend); err != nil {
		rec.Status = record.StatusFailed
		rec.Error = err.Error()
		e.journal(rec)
		return err
	}
	rec.Status = record.StatusApplied
	e.journal(rec)

	end := e.log.Group(1, "[autocommit] "+resp.CommitMessage)
	for _, c := range changes {
		e.log.Debugf(2, "- %s", c.Summary())
	}
	end()
	return nil
}

func gatherCommitContext(ctx context.Context, e *env, status string) (plan.CommitContext, error) {
	pc := plan.CommitContext{Status: status}
	var err error
	if pc.Diff, err = e.git.Diff(ctx); err != nil {
		return pc, err
	}
	if pc.Head, err = e.git.HeadMessage(ctx); err != nil {
		return pc, err
	}
	if pc.Logs, err = e.git.RecentLogs(ctx, e.logs); err != nil {
		return pc, err
	}
	if pc.Untracked, err = e.git.UntrackedFiles(ctx); err != nil {
		return pc, err
	}

	e.log.Block(3, pc.Diff)
	e.log.Block(3, pc.Untracked)
	return pc, nil
}

// stageChanges stages each change, or in dry-run mode prints the patches
// that would be applied.
func stageChanges(ctx context.Context, e *env, o options, changes []patch.FileChange) error {
	for _, c := range changes {
		if c.WholeFile() {
			if o.dryRun {
				fmt.Fprintf(e.out, "stage %s\n", c.Path)
				continue
			}
			if err := e.git.StageFile(ctx, c.Path); err != nil {
				return err
			}
			continue
		}

		text, err := buildPatch(e, c)
		if err != nil {
			return err
		}
		if o.dryRun {
			fmt.Fprintf(e.out, "stage %s\n%s", c.Summary(), text)
			continue
		}
		if err := e.git.ApplyCached(ctx, text); err != nil {
			return fmt.Errorf("stage %s: %w", c.Summary(), err)
		}
	}
	return nil
}

// buildPatch renders the patch for a hunk selection against the index.
func buildPatch(e *env, c patch.FileChange) (string, error) {
	if err := patch.Validate(c.Path, c.Hunks); err != nil {
		return "", err
	}
	old, err := e.repo.IndexedContent(c.Path)
	if err != nil {
		return "", err
	}
	cur, err := e.repo.WorkingTreeContent(c.Path)
	if err != nil {
		return "", err
	}

	if e.log.Enabled(2) {
		for _, h := range c.Hunks {
			e.log.Infof("%s", format.HunkPreview(c.Path, old, cur, h))
		}
	}

	text, err := patch.Build(c.Path, old, cur, c.Hunks)
	if err != nil {
		return "", err
	}
	e.log.Block(3, text)
	return text, nil
}

func printCommitPlan(e *env, message string, amend bool) {
	verb := "commit"
	if amend {
		verb = "amend"
	}
	fmt.Fprintf(e.out, "%s%s:%s %s\n", format.Bold, verb, format.Reset, message)
}
