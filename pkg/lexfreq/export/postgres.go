package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

// PostgresSink stores runs in PostgreSQL using the same layout as SQLiteSink.
type PostgresSink struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection and creates the
// schema if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if err := initPostgresSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresSink{db: db}, nil
}

// Name implements Sink.
func (p *PostgresSink) Name() string { return "postgres" }

// Close closes the connection pool.
func (p *PostgresSink) Close() error {
	return p.db.Close()
}

func initPostgresSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	files INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	tokens BIGINT NOT NULL,
	words BIGINT NOT NULL,
	lemmas INTEGER NOT NULL DEFAULT 0,
	inflected INTEGER NOT NULL DEFAULT 0,
	single_form INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS frequencies (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	key TEXT NOT NULL,
	count BIGINT NOT NULL,
	position INTEGER NOT NULL,
	rank INTEGER,
	PRIMARY KEY(run_id, key)
);

CREATE INDEX IF NOT EXISTS idx_frequencies_rank ON frequencies(run_id, rank);

CREATE TABLE IF NOT EXISTS provenance (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	key TEXT NOT NULL,
	form TEXT NOT NULL,
	PRIMARY KEY(run_id, key, form)
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating postgres schema: %w", err)
	}
	return nil
}

// Export implements Sink. Tables are bulk loaded with COPY inside one
// transaction; re-exporting a run id replaces it.
func (p *PostgresSink) Export(ctx context.Context, res *scan.Result, ranked Ranked) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id=$1`, res.RunID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	inf := ranked.Inflections
	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, mode, started_at, finished_at, files, failed, tokens, words, lemmas, inflected, single_form)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		res.RunID, res.Mode.String(), res.Started.UTC(), res.Finished.UTC(),
		res.Files, res.Failed, res.Tokens, res.Words,
		inf.Lemmas, inf.Inflected, inf.SingleForm,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	ranks := rankIndex(ranked.Top)
	err = copyRows(ctx, tx, pq.CopyIn("frequencies", "run_id", "key", "count", "position", "rank"), func(add func(...any) error) error {
		for i, e := range res.Acc.Table.Entries() {
			var r any
			if n, ok := ranks[e.Key]; ok {
				r = n
			}
			if err := add(res.RunID, e.Key, e.Count, i, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("copy frequencies: %w", err)
	}

	if prov := res.Acc.Provenance; prov != nil {
		err = copyRows(ctx, tx, pq.CopyIn("provenance", "run_id", "key", "form"), func(add func(...any) error) error {
			for _, k := range prov.Keys() {
				for _, form := range prov.Forms(k) {
					if err := add(res.RunID, k, form); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("copy provenance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// copyRows runs one COPY statement, feeding it the rows produced by fill.
func copyRows(ctx context.Context, tx *sql.Tx, query string, fill func(add func(...any) error) error) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	add := func(args ...any) error {
		_, err := stmt.ExecContext(ctx, args...)
		return err
	}
	if err := fill(add); err != nil {
		stmt.Close()
		return err
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}
