package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/cognicore/lexfreq/pkg/lexfreq/rank"
)

type fakeWriter struct {
	msgs   []kafka.Message
	writes int
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSinkMessages(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, "lexfreq-frequencies", quiet)
	res := lemmasResult()

	if err := sink.Export(context.Background(), res, Rank(res, 2, rank.TieInsertion)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(w.msgs) != 3 {
		t.Fatalf("expected 2 entries and a summary, got %d messages", len(w.msgs))
	}

	var first EntryMessage
	if err := json.Unmarshal(w.msgs[0].Value, &first); err != nil {
		t.Fatal(err)
	}
	if string(w.msgs[0].Key) != "ir" || first.Rank != 1 || first.Count != 3 || first.Mode != "lemmas" {
		t.Errorf("first entry = %+v (key %q)", first, w.msgs[0].Key)
	}
	if len(first.Forms) != 2 {
		t.Errorf("forms = %v", first.Forms)
	}

	last := w.msgs[len(w.msgs)-1]
	if string(last.Key) != res.RunID {
		t.Errorf("summary key = %q, want run id", last.Key)
	}
	var summary SummaryMessage
	if err := json.Unmarshal(last.Value, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Keys != 3 || summary.Top != 2 || summary.Failed != 1 || summary.Inflections.Inflected != 2 {
		t.Errorf("summary = %+v", summary)
	}

	if err := sink.Close(); err != nil || !w.closed {
		t.Errorf("Close: err=%v closed=%v", err, w.closed)
	}
}

func TestKafkaSinkWordsOmitForms(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, "t", quiet)
	res := wordsResult()
	if err := sink.Export(context.Background(), res, Rank(res, 1, rank.TieInsertion)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(w.msgs[0].Value), "forms") {
		t.Errorf("words entry should omit forms: %s", w.msgs[0].Value)
	}
}

func TestKafkaSinkBatches(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, "t", quiet)
	res := wordsResult()
	for i := 0; i < kafkaBatch+10; i++ {
		res.Acc.Record(fmt.Sprintf("w%04d", i))
	}
	ranked := Rank(res, 0, rank.TieInsertion)
	if err := sink.Export(context.Background(), res, ranked); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != len(ranked.Top)+1 {
		t.Errorf("messages = %d, want %d", len(w.msgs), len(ranked.Top)+1)
	}
	if w.writes != 2 {
		t.Errorf("writes = %d, want 2", w.writes)
	}
}

func TestKafkaSinkWriteError(t *testing.T) {
	boom := errors.New("broker down")
	sink := newKafkaSink(&fakeWriter{err: boom}, "t", quiet)
	res := wordsResult()
	if err := sink.Export(context.Background(), res, Rank(res, 10, rank.TieInsertion)); !errors.Is(err, boom) {
		t.Fatalf("expected broker error, got %v", err)
	}
}

func TestKafkaSinkIntegration(t *testing.T) {
	brokers := os.Getenv("LEXFREQ_TEST_KAFKA")
	if brokers == "" {
		t.Skip("LEXFREQ_TEST_KAFKA not set")
	}
	sink := NewKafkaSink(strings.Split(brokers, ","), "lexfreq-test", quiet)
	defer sink.Close()
	res := wordsResult()
	if err := sink.Export(context.Background(), res, Rank(res, 10, rank.TieInsertion)); err != nil {
		t.Fatalf("Export: %v", err)
	}
}
