// Package index keeps a SQLite view of the run journal. The JSONL files are
// the source of truth; the database is rebuilt whenever one of them is newer.
package index

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/jensroland/git-autocommit/internal/format"
	"github.com/jensroland/git-autocommit/internal/project"
	"github.com/jensroland/git-autocommit/internal/record"
)

// RunRow mirrors a row from the runs table together with its files.
type RunRow struct {
	ID         int
	RunID      string
	Ts         string
	Kind       string
	Status     string
	Model      string
	Author     string
	Message    string
	Amend      bool
	Base       string
	Script     string
	Changes    string
	Error      string
	SourceFile string
	Files      []FileRow
}

// FileRow mirrors a row from the run_files table.
type FileRow struct {
	Path  string
	Lines string
	Whole bool
}

const runColumns = `id, run_id, ts, kind, status, model, author, message, amend,
	base, script, changes, error, source_file`

// ScanRun scans a *sql.Rows selected with runColumns into a RunRow.
func ScanRun(rows *sql.Rows) (*RunRow, error) {
	r := &RunRow{}
	err := rows.Scan(
		&r.ID, &r.RunID, &r.Ts, &r.Kind, &r.Status, &r.Model, &r.Author,
		&r.Message, &r.Amend, &r.Base, &r.Script, &r.Changes, &r.Error, &r.SourceFile,
	)
	return r, err
}

// IsStale returns true if the index needs rebuilding.
func IsStale(paths project.Paths) bool {
	info, err := os.Stat(paths.IndexDB)
	if err != nil {
		return true
	}
	indexMtime := info.ModTime()

	entries, err := os.ReadDir(paths.RunsDir)
	if err != nil {
		return false
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		fInfo, err := e.Info()
		if err != nil {
			continue
		}
		if fInfo.ModTime().After(indexMtime) {
			return true
		}
	}
	return false
}

// Rebuild drops and recreates the SQLite index from JSONL files.
func Rebuild(paths project.Paths, quiet bool) (*sql.DB, error) {
	_ = os.MkdirAll(paths.CacheDir, 0o755)
	_ = os.Remove(paths.IndexDB)

	db, err := sql.Open("sqlite", paths.IndexDB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			model TEXT,
			author TEXT,
			message TEXT,
			amend INTEGER NOT NULL DEFAULT 0,
			base TEXT,
			script TEXT,
			changes TEXT,
			error TEXT,
			source_file TEXT
		)`,
		`CREATE TABLE run_files (
			run INTEGER NOT NULL REFERENCES runs(id),
			path TEXT NOT NULL,
			lines TEXT,
			whole INTEGER NOT NULL DEFAULT 0
		)`,
		"CREATE INDEX idx_ts ON runs(ts)",
		"CREATE INDEX idx_kind ON runs(kind)",
		"CREATE INDEX idx_path ON run_files(path)",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	recordCount := 0
	fileCount := 0

	if entries, err := os.ReadDir(paths.RunsDir); err == nil {
		// Sort by name for deterministic ordering
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Name() < entries[j].Name()
		})

		tx, err := db.Begin()
		if err != nil {
			db.Close()
			return nil, err
		}

		for _, e := range entries {
			if !strings.HasSuffix(e.Name(), ".jsonl") {
				continue
			}
			fileCount++

			n, err := loadFile(tx, filepath.Join(paths.RunsDir, e.Name()), e.Name())
			if err != nil {
				tx.Rollback()
				db.Close()
				return nil, err
			}
			recordCount += n
		}

		if err := tx.Commit(); err != nil {
			db.Close()
			return nil, err
		}
	}

	if !quiet {
		fmt.Fprintf(os.Stderr, "%sIndex rebuilt: %d runs from %d journal files%s\n\n", format.Dim, recordCount, fileCount, format.Reset)
	}

	return db, nil
}

// loadFile inserts every decodable line of one JSONL file. Lines that are
// not valid records are skipped.
func loadFile(tx *sql.Tx, path, name string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil
	}
	defer f.Close()

	runStmt, err := tx.Prepare(`
		INSERT INTO runs
		(run_id, ts, kind, status, model, author, message, amend, base, script, changes, error, source_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer runStmt.Close()

	fileStmt, err := tx.Prepare("INSERT INTO run_files (run, path, lines, whole) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer fileStmt.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec record.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Ts == "" || rec.Kind == "" {
			continue
		}

		res, err := runStmt.Exec(
			rec.ID, rec.Ts, string(rec.Kind), string(rec.Status), rec.Model, rec.Author,
			rec.Message, rec.Amend, rec.Base, rec.Script, strings.Join(rec.Changes, "\n"),
			rec.Error, name,
		)
		if err != nil {
			return count, fmt.Errorf("insert run from %s: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return count, err
		}
		for _, fe := range rec.Files {
			if _, err := fileStmt.Exec(id, fe.Path, fe.Lines.String(), fe.Whole); err != nil {
				return count, fmt.Errorf("insert file from %s: %w", name, err)
			}
		}
		count++
	}
	return count, scanner.Err()
}

// Open returns a database connection, rebuilding the index if stale.
func Open(paths project.Paths, forceRebuild bool) (*sql.DB, error) {
	if forceRebuild || IsStale(paths) {
		return Rebuild(paths, false)
	}
	db, err := sql.Open("sqlite", paths.IndexDB)
	if err != nil {
		return nil, err
	}
	return db, nil
}
