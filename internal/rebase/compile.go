package rebase

import (
	"strings"

	"github.com/google/uuid"
)

// minPrefixLen is the shortest abbreviated SHA accepted in a plan.
const minPrefixLen = 7

// Compile turns plan into a rebase script over history, which must be
// ordered oldest to newest.
//
// Commits the plan does not mention are kept as picks in their original
// position, and the relative order of history is never changed. A squash
// with nothing before it becomes a pick. If any plan entry names a commit
// outside history, Compile returns an *UnknownCommitError and no script.
// An empty plan, or a window of at most one commit, yields an empty script.
// A larger window whose commits are all dropped yields a single noop.
func Compile(history []Commit, plan Plan) (*Script, error) {
	if len(plan) == 0 {
		return &Script{}, nil
	}

	entries := make(map[string]Action, len(plan))
	root := len(history)
	var unknown []string

	for _, a := range plan {
		if !a.Action.Valid() {
			return nil, &InvalidActionError{Commit: a.Commit, Action: a.Action}
		}
		idx := resolve(history, a.Commit)
		if idx < 0 {
			unknown = append(unknown, a.Commit)
			continue
		}
		// Later entries for the same commit replace earlier ones.
		entries[history[idx].SHA] = a
		root = min(root, idx)
	}

	if len(unknown) > 0 {
		return nil, &UnknownCommitError{SHAs: unknown}
	}

	script := &Script{Base: RootBase}
	if parent := history[root].Parent; parent != "" {
		script.Base = parent
	}

	window := history[root:]
	if len(window) <= 1 {
		return script, nil
	}

	for _, c := range window {
		a, planned := entries[c.SHA]
		if !planned {
			script.Directives = append(script.Directives, Directive{
				Action:  ActionPick,
				SHA:     c.SHA,
				Message: resolveMessage("", c.Subject),
			})
			continue
		}

		action := a.Action
		switch action {
		case ActionDrop:
			continue
		case ActionSquash:
			if len(script.Directives) == 0 {
				action = ActionPick
			}
		}

		explicit := strings.TrimSpace(a.Message)
		script.Directives = append(script.Directives, Directive{
			Action:  action,
			SHA:     c.SHA,
			Message: resolveMessage(explicit, c.Subject),
		})

		if explicit != "" && (action == ActionReword || action == ActionSquash) {
			if script.Messages == nil {
				script.Messages = make(map[string]string)
			}
			script.Messages[c.SHA] = explicit
		}
	}

	if len(script.Directives) == 0 {
		script.Directives = []Directive{{Action: ActionNoop}}
	}
	return script, nil
}

// resolve returns the index of sha in history, matching either the full SHA
// or an unambiguous abbreviation. It returns -1 when there is no match.
func resolve(history []Commit, sha string) int {
	sha = strings.ToLower(strings.TrimSpace(sha))
	if sha == "" {
		return -1
	}
	for i, c := range history {
		if c.SHA == sha {
			return i
		}
	}
	if len(sha) < minPrefixLen {
		return -1
	}
	found := -1
	for i, c := range history {
		if strings.HasPrefix(c.SHA, sha) {
			if found >= 0 {
				return -1
			}
			found = i
		}
	}
	return found
}

// resolveMessage picks the directive text: the explicit message, else the
// original subject, else a unique placeholder. Only the first line is kept.
func resolveMessage(explicit, subject string) string {
	for _, m := range []string{explicit, subject} {
		if line := firstLine(m); line != "" {
			return line
		}
	}
	return uuid.NewString()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
