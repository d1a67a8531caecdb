package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cognicore/lexfreq/pkg/lexfreq/freq"
	"github.com/cognicore/lexfreq/pkg/lexfreq/rank"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// wordsResult is a words run over "el perro y el gato y el ratón".
func wordsResult() *scan.Result {
	acc := freq.NewAccumulator(false)
	for _, w := range []string{"el", "perro", "y", "el", "gato", "y", "el", "ratón"} {
		acc.Record(w)
	}
	return &scan.Result{
		RunID:    "01HZZZZZZZZZZZZZZZZZZZWORD",
		Mode:     scan.ModeWords,
		Started:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Finished: time.Date(2024, 1, 2, 3, 4, 9, 0, time.UTC),
		Files:    1,
		Tokens:   8,
		Words:    8,
		Acc:      acc,
	}
}

// lemmasResult has casa (casas, casa), ir (fue, va, fue) and el (el).
func lemmasResult() *scan.Result {
	acc := freq.NewAccumulator(true)
	for _, tok := range [][2]string{
		{"casas", "casa"}, {"fue", "ir"}, {"el", "el"}, {"casa", "casa"}, {"va", "ir"}, {"fue", "ir"},
	} {
		acc.RecordLemma(tok[0], tok[1], true)
	}
	return &scan.Result{
		RunID:    "01HZZZZZZZZZZZZZZZZZZZLEMM",
		Mode:     scan.ModeLemmas,
		Started:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Finished: time.Date(2024, 1, 2, 3, 4, 9, 0, time.UTC),
		Files:    2,
		Failed:   1,
		Tokens:   6,
		Words:    6,
		Acc:      acc,
	}
}

func TestRank(t *testing.T) {
	ranked := Rank(wordsResult(), 3, rank.TieInsertion)
	want := []freq.Entry{{Key: "el", Count: 3}, {Key: "y", Count: 2}, {Key: "perro", Count: 1}}
	if len(ranked.Top) != len(want) {
		t.Fatalf("top = %v, want %v", ranked.Top, want)
	}
	for i := range want {
		if ranked.Top[i] != want[i] {
			t.Errorf("top[%d] = %v, want %v", i, ranked.Top[i], want[i])
		}
	}
	if ranked.Limit != 3 {
		t.Errorf("limit = %d, want 3", ranked.Limit)
	}
	if ranked.Inflections != (rank.InflectionStats{}) {
		t.Errorf("words run should have no inflection stats, got %+v", ranked.Inflections)
	}

	lr := Rank(lemmasResult(), 0, rank.TieLexical)
	if len(lr.Top) != 3 {
		t.Fatalf("unbounded top should keep all keys, got %v", lr.Top)
	}
	if lr.Top[0].Key != "ir" || lr.Top[1].Key != "casa" {
		t.Errorf("unexpected order %v", lr.Top)
	}
	if lr.Inflections.Lemmas != 3 || lr.Inflections.Inflected != 2 || lr.Inflections.SingleForm != 1 {
		t.Errorf("inflections = %+v", lr.Inflections)
	}
}

type recordingSink struct {
	name   string
	err    error
	calls  int
	closed bool
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Export(ctx context.Context, res *scan.Result, ranked Ranked) error {
	r.calls++
	return r.err
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestMultiContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	first := &recordingSink{name: "first", err: boom}
	second := &recordingSink{name: "second"}
	m := &Multi{Sinks: []Sink{first, second}, Logger: quiet}

	res := wordsResult()
	err := m.Export(context.Background(), res, Rank(res, 10, rank.TieInsertion))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d, %d; want 1, 1", first.calls, second.calls)
	}
}

func TestMultiNoErrors(t *testing.T) {
	s := &recordingSink{name: "only"}
	m := &Multi{Sinks: []Sink{s}, Logger: quiet}
	res := wordsResult()
	if err := m.Export(context.Background(), res, Rank(res, 10, rank.TieInsertion)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCloseAll(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := NewFileSink(t.TempDir(), quiet)
	if err := CloseAll([]Sink{a, b}); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if !a.closed {
		t.Error("closer sink was not closed")
	}
}
