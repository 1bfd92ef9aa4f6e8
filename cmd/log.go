package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jensroland/git-autocommit/internal/debug"
	"github.com/jensroland/git-autocommit/internal/format"
	"github.com/jensroland/git-autocommit/internal/project"
)

// RunLog prints the tail of a debug log.
func RunLog(args []string) {
	fs := pflag.NewFlagSet("git-autocommit log", pflag.ExitOnError)
	rebaseLog := fs.Bool("rebase", false, "Show the rebase log")
	hookLog := fs.Bool("hook", false, "Show the editor hook log")
	dump := fs.Bool("dump", false, "Show the last entries of every log")
	lines := fs.IntP("lines", "n", 100, "Number of lines to show")
	fs.Parse(args)

	root, err := project.FindRoot()
	if err != nil {
		fail(err)
	}
	paths := project.NewPaths(root)

	if *dump {
		cmdDumpLogs(os.Stdout, paths)
		return
	}
	name := debug.CommitLog
	switch {
	case *rebaseLog:
		name = debug.RebaseLog
	case *hookLog:
		name = debug.HookLog
	}
	cmdLog(os.Stdout, paths, name, *lines)
}

func cmdLog(w io.Writer, paths project.Paths, name string, n int) {
	tail, err := debug.Tail(paths.CacheDir, name, n)
	logFile := debug.Path(paths.CacheDir, name)
	if err != nil {
		fmt.Fprintf(w, "No log file at %s\n", logFile)
		return
	}

	fmt.Fprintf(w, "%s--- %s (last %d lines) ---%s\n\n", format.Dim, logFile, len(tail), format.Reset)
	fmt.Fprintln(w, strings.Join(tail, "\n"))
}

func cmdDumpLogs(w io.Writer, paths project.Paths) {
	for _, name := range []string{debug.CommitLog, debug.RebaseLog, debug.HookLog} {
		entries, err := debug.LastEntries(paths.CacheDir, name, 3)
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "\n%s=== %s (last entries) ===%s\n\n", format.Bold, name, format.Reset)
		for _, entry := range entries {
			fmt.Fprintln(w, entry)
			fmt.Fprintln(w)
		}
	}
}
