package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jensroland/git-autocommit/internal/format"
	"github.com/jensroland/git-autocommit/internal/index"
)

func cmdStats(w io.Writer, db *sql.DB, jsonOutput bool) error {
	s, err := index.Summarize(db)
	if err != nil {
		return err
	}

	if jsonOutput {
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}

	fmt.Fprintf(w, "%sgit-autocommit statistics%s\n\n", format.Bold, format.Reset)
	fmt.Fprintf(w, "  Total runs:   %d\n", s.Total)
	fmt.Fprintf(w, "  First run:    %s\n", orNA(s.First))
	fmt.Fprintf(w, "  Last run:     %s\n", orNA(s.Last))

	printCounts(w, "By kind:", s.ByKind)
	printCounts(w, "By status:", s.ByStatus)
	printCounts(w, "Most staged files:", s.TopFiles)
	printCounts(w, "By author:", s.Authors)
	return nil
}

func printCounts(w io.Writer, title string, counts []index.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s%s%s\n", format.Bold, title, format.Reset)
	for _, c := range counts {
		fmt.Fprintf(w, "    %4d  %s\n", c.Count, c.Label)
	}
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return humanizeTs(s)
}

func humanizeTs(ts string) string {
	if rel := relativeTime(ts); rel != ts {
		return fmt.Sprintf("%s (%s)", ts, rel)
	}
	return ts
}
