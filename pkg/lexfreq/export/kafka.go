package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cognicore/lexfreq/pkg/lexfreq/rank"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

// kafkaBatch is the number of messages handed to one WriteMessages call.
const kafkaBatch = 1000

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EntryMessage is the value of one ranked entry message.
type EntryMessage struct {
	RunID string   `json:"run_id"`
	Mode  string   `json:"mode"`
	Rank  int      `json:"rank"`
	Word  string   `json:"word"`
	Count int64    `json:"frequency"`
	Forms []string `json:"forms,omitempty"`
}

// SummaryMessage closes a run on the topic.
type SummaryMessage struct {
	RunID       string               `json:"run_id"`
	Mode        string               `json:"mode"`
	Started     time.Time            `json:"started_at"`
	Finished    time.Time            `json:"finished_at"`
	Files       int                  `json:"files"`
	Failed      int                  `json:"failed"`
	Tokens      int64                `json:"tokens"`
	Words       int64                `json:"words"`
	Keys        int                  `json:"keys"`
	Top         int                  `json:"top"`
	Inflections rank.InflectionStats `json:"inflections"`
}

// KafkaSink publishes the ranked table to a topic: one message per entry,
// keyed by the word, then a summary message keyed by the run id.
type KafkaSink struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaSink creates a synchronous hash-partitioned writer for topic.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaSink(w, topic, logger)
}

func newKafkaSink(w messageWriter, topic string, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{
		writer: w,
		logger: logger.With("component", "export", "sink", "kafka", "topic", topic),
	}
}

// Name implements Sink.
func (k *KafkaSink) Name() string { return "kafka" }

// Close flushes pending writes and closes the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

// Export implements Sink.
func (k *KafkaSink) Export(ctx context.Context, res *scan.Result, ranked Ranked) error {
	mode := res.Mode.String()
	prov := res.Acc.Provenance

	batch := make([]kafka.Message, 0, min(kafkaBatch, len(ranked.Top)+1))
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := k.writer.WriteMessages(ctx, batch...); err != nil {
			k.logger.Error("failed to publish batch", "count", len(batch), "error", err)
			return fmt.Errorf("publishing batch to kafka: %w", err)
		}
		k.logger.Debug("batch published", "count", len(batch))
		batch = batch[:0]
		return nil
	}

	for i, e := range ranked.Top {
		msg := EntryMessage{RunID: res.RunID, Mode: mode, Rank: i + 1, Word: e.Key, Count: e.Count}
		if prov != nil {
			msg.Forms = prov.Forms(e.Key)
		}
		value, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshaling entry %q: %w", e.Key, err)
		}
		batch = append(batch, kafka.Message{Key: []byte(e.Key), Value: value})
		if len(batch) == kafkaBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	summary, err := json.Marshal(SummaryMessage{
		RunID:       res.RunID,
		Mode:        mode,
		Started:     res.Started.UTC(),
		Finished:    res.Finished.UTC(),
		Files:       res.Files,
		Failed:      res.Failed,
		Tokens:      res.Tokens,
		Words:       res.Words,
		Keys:        res.Acc.Table.Len(),
		Top:         len(ranked.Top),
		Inflections: ranked.Inflections,
	})
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	batch = append(batch, kafka.Message{Key: []byte(res.RunID), Value: summary})
	return flush()
}
