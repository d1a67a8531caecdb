package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cognicore/lexfreq/pkg/lexfreq/internalerr"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

// Artifact file names.
const (
	WordFrequencyFile = "word_frequency.json"
	FullFrequencyFile = "full_frequency.json"
	ProvenanceFile    = "check_lems.json"
)

// TopFileName is the ranked table file for a limit, e.g. top_5000.csv.
func TopFileName(limit int) string {
	if limit <= 0 {
		return "top_all.csv"
	}
	return fmt.Sprintf("top_%d.csv", limit)
}

// FileSink writes JSON and CSV artifacts into Dir.
type FileSink struct {
	Dir    string
	logger *slog.Logger
	// marshal is swapped in tests to force the plain-text fallback.
	marshal func(v any) ([]byte, error)
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string, logger *slog.Logger) *FileSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSink{
		Dir:     dir,
		logger:  logger.With("component", "export", "sink", "file"),
		marshal: json.Marshal,
	}
}

// Name implements Sink.
func (f *FileSink) Name() string { return "file" }

// Export implements Sink. An existing output directory is reused.
func (f *FileSink) Export(ctx context.Context, res *scan.Result, ranked Ranked) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", f.Dir, err)
	}

	table := res.Acc.Table
	full := WordFrequencyFile
	if res.Mode == scan.ModeLemmas {
		full = FullFrequencyFile
	}
	if err := f.writeJSON(full, table.Map(), func(b *strings.Builder) {
		for _, e := range table.Entries() {
			fmt.Fprintf(b, "%q: %d\n", e.Key, e.Count)
		}
	}); err != nil {
		return err
	}

	if res.Mode == scan.ModeLemmas && res.Acc.Provenance != nil {
		prov := res.Acc.Provenance
		if err := f.writeJSON(ProvenanceFile, prov.Map(), func(b *strings.Builder) {
			for _, k := range prov.Keys() {
				fmt.Fprintf(b, "%q: %q\n", k, prov.Forms(k))
			}
		}); err != nil {
			return err
		}
	}

	return f.writeCSV(TopFileName(ranked.Limit), ranked)
}

// writeJSON writes v as JSON. When encoding fails the same data is written
// as plain text next to it, with a .txt extension.
func (f *FileSink) writeJSON(name string, v any, plain func(*strings.Builder)) error {
	data, err := f.marshal(v)
	if err == nil {
		return os.WriteFile(filepath.Join(f.Dir, name), data, 0644)
	}

	f.logger.Warn("failed to write file, falling back to plain text",
		"file", name,
		"error", fmt.Errorf("%w: %v", internalerr.ErrSerialization, err),
	)
	var b strings.Builder
	plain(&b)
	txt := strings.TrimSuffix(name, filepath.Ext(name)) + ".txt"
	return os.WriteFile(filepath.Join(f.Dir, txt), []byte(b.String()), 0644)
}

func (f *FileSink) writeCSV(name string, ranked Ranked) error {
	path := filepath.Join(f.Dir, name)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"word", "frequency"}); err != nil {
		return err
	}
	for _, e := range ranked.Top {
		if err := w.Write([]string{e.Key, strconv.FormatInt(e.Count, 10)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}
