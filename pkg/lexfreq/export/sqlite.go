package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/lexfreq/pkg/lexfreq/freq"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

// SQLiteSink stores runs in a SQLite database
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

// Name implements Sink.
func (s *SQLiteSink) Name() string { return "sqlite" }

// Close closes the database connection
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	files INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	tokens INTEGER NOT NULL,
	words INTEGER NOT NULL,
	lemmas INTEGER NOT NULL DEFAULT 0,
	inflected INTEGER NOT NULL DEFAULT 0,
	single_form INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS frequencies (
	run_id TEXT NOT NULL,
	key TEXT NOT NULL,
	count INTEGER NOT NULL,
	position INTEGER NOT NULL,
	rank INTEGER,
	PRIMARY KEY(run_id, key),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_frequencies_rank ON frequencies(run_id, rank);

CREATE TABLE IF NOT EXISTS provenance (
	run_id TEXT NOT NULL,
	key TEXT NOT NULL,
	form TEXT NOT NULL,
	PRIMARY KEY(run_id, key, form),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Export implements Sink. Re-exporting a run id replaces it.
func (s *SQLiteSink) Export(ctx context.Context, res *scan.Result, ranked Ranked) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"provenance", "frequencies", "runs"} {
		col := "run_id"
		if table == "runs" {
			col = "id"
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+col+`=?`, res.RunID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	inf := ranked.Inflections
	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, mode, started_at, finished_at, files, failed, tokens, words, lemmas, inflected, single_form)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Mode.String(),
		res.Started.UTC().Format(time.RFC3339Nano), res.Finished.UTC().Format(time.RFC3339Nano),
		res.Files, res.Failed, res.Tokens, res.Words,
		inf.Lemmas, inf.Inflected, inf.SingleForm,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO frequencies (run_id, key, count, position, rank) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	ranks := rankIndex(ranked.Top)
	for i, e := range res.Acc.Table.Entries() {
		var r any
		if n, ok := ranks[e.Key]; ok {
			r = n
		}
		if _, err := stmt.ExecContext(ctx, res.RunID, e.Key, e.Count, i, r); err != nil {
			return fmt.Errorf("insert frequency %q: %w", e.Key, err)
		}
	}

	if prov := res.Acc.Provenance; prov != nil {
		pstmt, err := tx.PrepareContext(ctx, `INSERT INTO provenance (run_id, key, form) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer pstmt.Close()
		for _, k := range prov.Keys() {
			for _, form := range prov.Forms(k) {
				if _, err := pstmt.ExecContext(ctx, res.RunID, k, form); err != nil {
					return fmt.Errorf("insert provenance %q: %w", k, err)
				}
			}
		}
	}

	return tx.Commit()
}

// TopFrequencies returns the ranked entries stored for a run.
func (s *SQLiteSink) TopFrequencies(ctx context.Context, runID string, limit int) ([]freq.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT key, count FROM frequencies
WHERE run_id=? AND rank IS NOT NULL
ORDER BY rank ASC
LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []freq.Entry
	for rows.Next() {
		var e freq.Entry
		if err := rows.Scan(&e.Key, &e.Count); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forms returns the stored provenance of one key.
func (s *SQLiteSink) Forms(ctx context.Context, runID, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT form FROM provenance WHERE run_id=? AND key=? ORDER BY form`, runID, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// rankIndex maps each ranked key to its 1-based rank.
func rankIndex(top []freq.Entry) map[string]int {
	m := make(map[string]int, len(top))
	for i, e := range top {
		m[e.Key] = i + 1
	}
	return m
}
