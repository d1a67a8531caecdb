package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/lexfreq/pkg/lexfreq/rank"
)

func openTestSQLite(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lexfreq.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestSQLiteSinkExport(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)
	res := lemmasResult()

	if err := sink.Export(ctx, res, Rank(res, 2, rank.TieInsertion)); err != nil {
		t.Fatalf("Export: %v", err)
	}

	top, err := sink.TopFrequencies(ctx, res.RunID, 10)
	if err != nil {
		t.Fatalf("TopFrequencies: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected only ranked rows, got %v", top)
	}
	if top[0].Key != "ir" || top[0].Count != 3 || top[1].Key != "casa" || top[1].Count != 2 {
		t.Errorf("unexpected top %v", top)
	}

	forms, err := sink.Forms(ctx, res.RunID, "casa")
	if err != nil {
		t.Fatalf("Forms: %v", err)
	}
	if len(forms) != 2 || forms[0] != "casa" || forms[1] != "casas" {
		t.Errorf("forms = %v", forms)
	}

	var keys, inflected int
	if err := sink.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM frequencies WHERE run_id=?`, res.RunID).Scan(&keys); err != nil {
		t.Fatal(err)
	}
	if keys != 3 {
		t.Errorf("stored %d keys, want the full table of 3", keys)
	}
	if err := sink.db.QueryRowContext(ctx, `SELECT inflected FROM runs WHERE id=?`, res.RunID).Scan(&inflected); err != nil {
		t.Fatal(err)
	}
	if inflected != 2 {
		t.Errorf("inflected = %d, want 2", inflected)
	}
}

func TestSQLiteSinkReexportReplaces(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)
	res := wordsResult()
	ranked := Rank(res, 10, rank.TieInsertion)

	for i := 0; i < 2; i++ {
		if err := sink.Export(ctx, res, ranked); err != nil {
			t.Fatalf("export %d: %v", i, err)
		}
	}

	var runs, rows int
	if err := sink.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if err := sink.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM frequencies`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if runs != 1 || rows != 5 {
		t.Errorf("runs=%d rows=%d, want 1 and 5", runs, rows)
	}
}

func TestSQLiteSinkSeparateRuns(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)

	w := wordsResult()
	l := lemmasResult()
	if err := sink.Export(ctx, w, Rank(w, 10, rank.TieInsertion)); err != nil {
		t.Fatal(err)
	}
	if err := sink.Export(ctx, l, Rank(l, 10, rank.TieInsertion)); err != nil {
		t.Fatal(err)
	}

	top, err := sink.TopFrequencies(ctx, w.RunID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Key != "el" || top[0].Count != 3 {
		t.Errorf("words top = %v", top)
	}
	forms, err := sink.Forms(ctx, w.RunID, "el")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 0 {
		t.Errorf("words run should store no provenance, got %v", forms)
	}
}
