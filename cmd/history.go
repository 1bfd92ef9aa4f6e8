package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/jensroland/git-autocommit/internal/format"
	"github.com/jensroland/git-autocommit/internal/index"
	"github.com/jensroland/git-autocommit/internal/project"
)

// RunHistory lists recent runs from the journal.
func RunHistory(args []string) {
	fs := pflag.NewFlagSet("git-autocommit history", pflag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	stats := fs.Bool("stats", false, "Summarise the journal")
	rebuild := fs.Bool("rebuild", false, "Rebuild the index from the journal first")
	limit := fs.IntP("limit", "n", 20, "Number of runs to show")
	kind := fs.String("kind", "", "Only show commit or rebase runs")
	file := fs.String("file", "", "Only show runs that staged this path")
	fs.Parse(args)

	root, err := project.FindRoot()
	if err != nil {
		fail(err)
	}
	paths := project.NewPaths(root)

	db, err := index.Open(paths, *rebuild)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	if *stats {
		err = cmdStats(os.Stdout, db, *jsonOut)
	} else {
		err = cmdHistory(os.Stdout, db, index.Filter{Kind: *kind, Path: *file, Limit: *limit}, *jsonOut)
	}
	if err != nil {
		fail(err)
	}
}

func cmdHistory(w io.Writer, db *sql.DB, f index.Filter, jsonOutput bool) error {
	runs, err := index.Recent(db, f)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := make([]map[string]any, 0, len(runs))
		for _, r := range runs {
			out = append(out, runJSON(r))
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(w, "%s%-7s%s %s  %s%s%s\n",
			format.Bold, r.Kind, format.Reset, statusLabel(r.Status),
			format.Dim, relativeTime(r.Ts), format.Reset)
		if r.Message != "" {
			amend := ""
			if r.Amend {
				amend = " (amend)"
			}
			fmt.Fprintf(w, "  %s%s\n", firstLine(r.Message), amend)
		}
		for _, fr := range r.Files {
			switch {
			case fr.Whole:
				fmt.Fprintf(w, "  %s- %s%s\n", format.Dim, fr.Path, format.Reset)
			case fr.Lines == "":
				fmt.Fprintf(w, "  %s- %s:(deletions)%s\n", format.Dim, fr.Path, format.Reset)
			default:
				fmt.Fprintf(w, "  %s- %s:%s%s\n", format.Dim, fr.Path, fr.Lines, format.Reset)
			}
		}
		if r.Changes != "" {
			for _, c := range strings.Split(r.Changes, "\n") {
				fmt.Fprintf(w, "  %s- %s%s\n", format.Dim, c, format.Reset)
			}
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  %s%s%s\n", format.Red, firstLine(r.Error), format.Reset)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func runJSON(r *index.RunRow) map[string]any {
	files := make([]map[string]any, 0, len(r.Files))
	for _, f := range r.Files {
		files = append(files, map[string]any{"path": f.Path, "lines": f.Lines, "whole": f.Whole})
	}
	m := map[string]any{
		"id":     r.RunID,
		"ts":     r.Ts,
		"kind":   r.Kind,
		"status": r.Status,
		"model":  r.Model,
		"author": r.Author,
		"files":  files,
	}
	for k, v := range map[string]string{"message": r.Message, "base": r.Base, "script": r.Script, "error": r.Error} {
		if v != "" {
			m[k] = v
		}
	}
	if r.Amend {
		m["amend"] = true
	}
	if r.Changes != "" {
		m["changes"] = strings.Split(r.Changes, "\n")
	}
	return m
}

func statusLabel(status string) string {
	switch status {
	case "applied":
		return format.Green + status + format.Reset
	case "failed":
		return format.Red + status + format.Reset
	default:
		return format.Cyan + status + format.Reset
	}
}

// relativeTime renders an RFC 3339 timestamp as "3 hours ago", falling back
// to the raw value when it cannot be parsed.
func relativeTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
