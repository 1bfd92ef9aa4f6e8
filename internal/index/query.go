package index

import (
	"database/sql"
	"fmt"
)

// Filter narrows Recent. Zero values match everything.
type Filter struct {
	Kind  string
	Path  string
	Limit int
}

// Recent returns runs newest first, each with its staged files.
func Recent(db *sql.DB, f Filter) ([]*RunRow, error) {
	q := "SELECT " + runColumns + " FROM runs WHERE 1=1"
	var args []any
	if f.Kind != "" {
		q += " AND kind = ?"
		args = append(args, f.Kind)
	}
	if f.Path != "" {
		q += " AND id IN (SELECT run FROM run_files WHERE path = ?)"
		args = append(args, f.Path)
	}
	q += " ORDER BY ts DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRow
	for rows.Next() {
		r, err := ScanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range runs {
		if r.Files, err = files(db, r.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func files(db *sql.DB, run int) ([]FileRow, error) {
	rows, err := db.Query("SELECT path, lines, whole FROM run_files WHERE run = ? ORDER BY rowid", run)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var fr FileRow
		if err := rows.Scan(&fr.Path, &fr.Lines, &fr.Whole); err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

// Count is a label with the number of runs or files carrying it.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats summarises the journal.
type Stats struct {
	Total    int     `json:"total_runs"`
	First    string  `json:"first_run"`
	Last     string  `json:"last_run"`
	ByKind   []Count `json:"by_kind"`
	ByStatus []Count `json:"by_status"`
	TopFiles []Count `json:"top_files"`
	Authors  []Count `json:"top_authors"`
}

// Summarize computes Stats over every indexed run.
func Summarize(db *sql.DB) (*Stats, error) {
	s := &Stats{}
	var first, last sql.NullString
	if err := db.QueryRow("SELECT COUNT(*), MIN(ts), MAX(ts) FROM runs").Scan(&s.Total, &first, &last); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	s.First, s.Last = first.String, last.String

	var err error
	if s.ByKind, err = counts(db, "SELECT kind, COUNT(*) AS cnt FROM runs GROUP BY kind ORDER BY cnt DESC, kind"); err != nil {
		return nil, err
	}
	if s.ByStatus, err = counts(db, "SELECT status, COUNT(*) AS cnt FROM runs GROUP BY status ORDER BY cnt DESC, status"); err != nil {
		return nil, err
	}
	if s.TopFiles, err = counts(db, `SELECT f.path, COUNT(*) AS cnt FROM run_files f
		JOIN runs r ON r.id = f.run WHERE r.status = 'applied'
		GROUP BY f.path ORDER BY cnt DESC, f.path LIMIT 5`); err != nil {
		return nil, err
	}
	if s.Authors, err = counts(db, "SELECT author, COUNT(*) AS cnt FROM runs WHERE author != '' GROUP BY author ORDER BY cnt DESC, author LIMIT 5"); err != nil {
		return nil, err
	}
	return s, nil
}

func counts(db *sql.DB, q string) ([]Count, error) {
	rows, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
