// Package scan runs the per-file pipeline over a corpus:
// decode → extract → normalize → accumulate.
//
// Files are processed in the order given. A file that fails to decode is
// logged and skipped; the run continues. Cancellation is observed between
// files and returns the partial result.
package scan

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/lexfreq/pkg/lexfreq/decode"
	"github.com/cognicore/lexfreq/pkg/lexfreq/extract"
	"github.com/cognicore/lexfreq/pkg/lexfreq/freq"
	"github.com/cognicore/lexfreq/pkg/lexfreq/metrics"
	"github.com/cognicore/lexfreq/pkg/lexfreq/normalize"
)

// Mode selects which table a run builds.
type Mode int

const (
	// ModeWords counts normalized surface tokens from the flat schema.
	ModeWords Mode = iota
	// ModeLemmas counts lemmas from the sentence schema and tracks provenance.
	ModeLemmas
)

func (m Mode) String() string {
	if m == ModeLemmas {
		return "lemmas"
	}
	return "words"
}

// Schema returns the document layout the mode reads.
func (m Mode) Schema() extract.Schema {
	if m == ModeLemmas {
		return extract.SchemaSentence
	}
	return extract.SchemaFlat
}

// Options configures a Scanner.
type Options struct {
	Mode        Mode
	Extract     extract.Options
	FoldLemmas  bool
	Workers     int
	FileTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Scanner runs one mode over lists of files.
type Scanner struct {
	opts      Options
	extractor extract.Extractor
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a scanner. A nil logger uses slog.Default; a nil Metrics
// gets a private registry.
func New(opts Options) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Scanner{
		opts:      opts,
		extractor: extract.New(opts.Mode.Schema(), opts.Extract),
		logger:    logger.With("component", "scan", "mode", opts.Mode.String()),
		metrics:   m,
	}
}

// FileFailure records a skipped file.
type FileFailure struct {
	Path string
	Err  error
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Mode     Mode
	Started  time.Time
	Finished time.Time
	Files    int
	Failed   int
	Tokens   int64
	Words    int64
	Skipped  int64
	Acc      *freq.Accumulator
	Failures []FileFailure
}

// fileOutcome is what one file contributed.
type fileOutcome struct {
	path    string
	acc     *freq.Accumulator
	stats   extract.Stats
	words   int64
	elapsed time.Duration
	err     error
}

// Run processes files and returns the accumulated result. The error is
// non-nil only when ctx ends the run early; the result then covers the
// files completed so far.
func (s *Scanner) Run(ctx context.Context, files []string) (*Result, error) {
	res := &Result{
		RunID:   ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String(),
		Mode:    s.opts.Mode,
		Started: time.Now(),
		Acc:     freq.NewAccumulator(s.opts.Mode == ModeLemmas),
	}
	s.logger.Info("started running", "run_id", res.RunID, "files", len(files), "workers", s.opts.Workers)

	var err error
	if s.opts.Workers > 1 {
		err = s.runConcurrent(ctx, files, res)
	} else {
		err = s.runSequential(ctx, files, res)
	}

	res.Finished = time.Now()
	s.logger.Info("finished running",
		"run_id", res.RunID,
		"files", res.Files,
		"failed", res.Failed,
		"tokens", res.Tokens,
		"words", res.Words,
		"keys", res.Acc.Table.Len(),
		"seconds", res.Finished.Sub(res.Started).Seconds(),
	)
	if err != nil {
		s.logger.Warn("run cancelled", "run_id", res.RunID, "error", err)
	}
	return res, err
}

func (s *Scanner) runSequential(ctx context.Context, files []string, res *Result) error {
	norm := normalize.New(s.opts.FoldLemmas)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := res.Acc.Table.Len()
		out := s.countFile(ctx, path, res.Acc, norm)
		if isCancel(out.err) {
			return out.err
		}
		s.finish(res, out, before)
	}
	return nil
}

// countFile decodes path and records its tokens into acc. Nothing is
// recorded when decoding or body lookup fails.
func (s *Scanner) countFile(ctx context.Context, path string, acc *freq.Accumulator, norm *normalize.Normalizer) fileOutcome {
	start := time.Now()
	out := fileOutcome{path: path, acc: acc}

	fctx := ctx
	if s.opts.FileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.opts.FileTimeout)
		defer cancel()
	}

	s.logger.Debug("processing file", "file", path)
	doc, err := decode.Open(fctx, path)
	if err != nil {
		out.err = err
		out.elapsed = time.Since(start)
		return out
	}

	lemmas := s.opts.Mode == ModeLemmas
	out.stats, out.err = s.extractor.Extract(doc, func(tok extract.Token) {
		key, ok := norm.Key(tok.Text)
		if !ok {
			return
		}
		out.words++
		if lemmas {
			acc.RecordLemma(key, norm.Lemma(tok.Lemma), tok.HasLemma)
			return
		}
		acc.Record(key)
	})
	out.elapsed = time.Since(start)
	return out
}

// finish logs a file outcome and folds its counters into res.
func (s *Scanner) finish(res *Result, out fileOutcome, before int) {
	s.metrics.FileDuration.Observe(out.elapsed.Seconds())
	if out.err != nil {
		res.Failed++
		res.Failures = append(res.Failures, FileFailure{Path: out.path, Err: out.err})
		s.metrics.FilesTotal.WithLabelValues(metrics.StatusFailed).Inc()
		s.logger.Warn("file not processed", "file", out.path, "kind", failureKind(out.err), "error", out.err)
		return
	}

	res.Files++
	res.Tokens += int64(out.stats.Tokens)
	res.Words += out.words
	res.Skipped += int64(out.stats.Skipped)
	s.metrics.FilesTotal.WithLabelValues(metrics.StatusOK).Inc()
	s.metrics.TokensTotal.Add(float64(out.stats.Tokens))
	s.metrics.WordsTotal.Add(float64(out.words))
	s.metrics.SkippedTotal.Add(float64(out.stats.Skipped))

	after := res.Acc.Table.Len()
	s.metrics.TableKeys.Set(float64(after))
	if out.stats.FirstSkip != nil {
		s.logger.Debug("skipped empty word elements", "file", out.path, "count", out.stats.Skipped, "first", out.stats.FirstSkip)
	}
	s.logger.Info("file processed",
		"file", out.path,
		"seconds", out.elapsed.Seconds(),
		"sentences", out.stats.Sentences,
		"tokens", out.stats.Tokens,
		"words", out.words,
		"added", after-before,
		"keys", after,
	)
}

func failureKind(err error) string {
	var de *decode.DecodeError
	if errors.As(err, &de) {
		return de.Kind.String()
	}
	return "extract"
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled)
}
