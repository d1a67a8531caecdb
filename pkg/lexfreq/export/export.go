// Package export writes the results of a run: the full table, the ranked
// top-N table and, for lemma runs, the provenance map. Each destination is a
// Sink; Multi fans a result out to several.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cognicore/lexfreq/pkg/lexfreq/freq"
	"github.com/cognicore/lexfreq/pkg/lexfreq/rank"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

// Ranked is the end-of-run view handed to sinks.
type Ranked struct {
	Limit       int
	Top         []freq.Entry
	Inflections rank.InflectionStats
}

// Rank builds the ranked view of res.
func Rank(res *scan.Result, limit int, tie rank.TieBreak) Ranked {
	return Ranked{
		Limit:       limit,
		Top:         rank.Top(res.Acc.Table.Entries(), limit, tie),
		Inflections: rank.Inflections(res.Acc.Provenance),
	}
}

// Sink is one export destination.
type Sink interface {
	Name() string
	Export(ctx context.Context, res *scan.Result, ranked Ranked) error
}

// Multi exports to every sink in order. A failing sink does not stop the
// others; all failures are joined.
type Multi struct {
	Sinks  []Sink
	Logger *slog.Logger
}

// Name implements Sink.
func (m *Multi) Name() string { return "multi" }

// Export implements Sink.
func (m *Multi) Export(ctx context.Context, res *scan.Result, ranked Ranked) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var errs []error
	for _, s := range m.Sinks {
		if err := s.Export(ctx, res, ranked); err != nil {
			logger.Error("export failed", "sink", s.Name(), "run_id", res.RunID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		logger.Info("export complete", "sink", s.Name(), "run_id", res.RunID)
	}
	return errors.Join(errs...)
}

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}

// CloseAll closes every sink that holds a connection.
func CloseAll(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
