// Package rebase compiles sparse per-commit rebase actions into a complete,
// linear todo script for "git rebase -i".
package rebase

import (
	"fmt"
	"strings"
)

// ActionType is a rebase todo command.
type ActionType string

const (
	ActionPick   ActionType = "pick"
	ActionReword ActionType = "reword"
	ActionDrop   ActionType = "drop"
	ActionSquash ActionType = "squash"
	// ActionNoop is never planned. Compile emits it when every commit of
	// the window is dropped, since git refuses an empty todo.
	ActionNoop ActionType = "noop"
)

// Valid reports whether the action is one the compiler understands.
func (a ActionType) Valid() bool {
	switch a {
	case ActionPick, ActionReword, ActionDrop, ActionSquash:
		return true
	default:
		return false
	}
}

// Action is one proposed change to a commit.
type Action struct {
	Commit  string     `json:"commit"`
	Action  ActionType `json:"action"`
	Message string     `json:"message,omitempty"`
}

// Plan is the list of actions proposed for a history window. It may omit
// commits, name them in any order, or repeat them.
type Plan []Action

// Commit is one entry of a linear history.
type Commit struct {
	SHA     string
	Subject string
	// Parent is the first parent's SHA, empty for a root commit.
	Parent string
}

// RootBase is the base reported when the rebase must start at the
// repository's first commit.
const RootBase = "root"

// Directive is one line of the rebase todo.
type Directive struct {
	Action  ActionType
	SHA     string
	Message string
}

func (d Directive) String() string {
	if d.Action == ActionNoop {
		return string(ActionNoop)
	}
	return fmt.Sprintf("%s %s %s", d.Action, d.SHA, d.Message)
}

// Script is a compiled rebase todo.
type Script struct {
	// Base is the commit to rebase onto, or RootBase.
	Base       string
	Directives []Directive
	// Messages holds explicit messages by full SHA for reword and squash
	// directives. Directive lines only carry the first line.
	Messages map[string]string
}

// Empty reports whether there is nothing to run.
func (s *Script) Empty() bool {
	return s == nil || len(s.Directives) == 0
}

// Text renders the todo with one directive per line and a single trailing
// newline. An empty script renders as "".
func (s *Script) Text() string {
	if s.Empty() {
		return ""
	}
	lines := make([]string, len(s.Directives))
	for i, d := range s.Directives {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n") + "\n"
}

// UnknownCommitError reports plan entries whose commit is not part of the
// history being rebased.
type UnknownCommitError struct {
	SHAs []string
}

func (e *UnknownCommitError) Error() string {
	return fmt.Sprintf("plan references unknown commit(s): %s", strings.Join(e.SHAs, ", "))
}

// InvalidActionError reports a plan entry with an unsupported action.
type InvalidActionError struct {
	Commit string
	Action ActionType
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid rebase action %q for commit %s", e.Action, e.Commit)
}
