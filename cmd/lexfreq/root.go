package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/lexfreq/pkg/lexfreq/config"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

// options holds the command-line flags. Flags left unset do not override
// the config file or environment.
type options struct {
	configPath  string
	root        string
	out         string
	top         int
	workers     int
	tie         string
	metricsAddr string
	sqlite      string
	postgres    string
	redis       string
	kafka       string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lexfreq",
		Short: "Build word and lemma frequency tables from a gzip XML corpus",
		Long: `lexfreq walks a corpus of gzip-compressed XML documents and counts
normalized word tokens (words) or lemmas (lemmas), then writes the full table,
a ranked top-N table and, for lemmas, the surface forms seen per lemma.`,
		SilenceUsage: true,
	}
	root.AddCommand(newModeCmd(scan.ModeWords), newModeCmd(scan.ModeLemmas))
	return root
}

func newModeCmd(mode scan.Mode) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   mode.String(),
		Short: modeShort(mode),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o, mode)
			if err != nil {
				return err
			}
			return run(cfg, mode)
		},
	}
	bindFlags(cmd, o)
	return cmd
}

func bindFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "path to YAML config file")
	f.StringVar(&o.root, "root", "", "corpus root directory")
	f.StringVarP(&o.out, "out", "o", "", "output directory")
	f.IntVar(&o.top, "top", 0, "number of ranked entries to write (default 10000 words, 5000 lemmas)")
	f.IntVarP(&o.workers, "workers", "w", 1, "number of files decoded concurrently")
	f.StringVar(&o.tie, "tie", "", "tie break for equal counts: insertion or lexical")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&o.sqlite, "sqlite", "", "also store the run in this SQLite database")
	f.StringVar(&o.postgres, "postgres", "", "also store the run in PostgreSQL (DSN)")
	f.StringVar(&o.redis, "redis", "", "also publish the table to Redis (host:port)")
	f.StringVar(&o.kafka, "kafka", "", "also publish the ranked table to Kafka (comma-separated brokers)")
}

func modeShort(mode scan.Mode) string {
	if mode == scan.ModeLemmas {
		return "Count lemmas from sentence-structured documents"
	}
	return "Count normalized word tokens"
}

// resolveConfig layers defaults, the config file, LEXFREQ_* variables and
// the flags that were set, then fills per-mode defaults.
func resolveConfig(cmd *cobra.Command, o *options, mode scan.Mode) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("root") {
		cfg.Corpus.Root = o.root
	}
	if f.Changed("out") {
		cfg.Output.Dir = o.out
	}
	if f.Changed("top") {
		cfg.Rank.Top = o.top
	}
	if f.Changed("workers") {
		cfg.Scan.Workers = o.workers
	}
	if f.Changed("tie") {
		cfg.Rank.TieBreak = o.tie
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if f.Changed("sqlite") {
		cfg.SQLite.Path = o.sqlite
	}
	if f.Changed("postgres") {
		cfg.Postgres.DSN = o.postgres
	}
	if f.Changed("redis") {
		cfg.Redis.Addr = o.redis
	}
	if f.Changed("kafka") {
		cfg.Kafka.Brokers = splitList(o.kafka)
	}

	applyModeDefaults(cfg, mode)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyModeDefaults fills the settings whose default depends on the mode.
func applyModeDefaults(cfg *config.Config, mode scan.Mode) {
	if cfg.Rank.Top == 0 {
		cfg.Rank.Top = config.DefaultWordsTop
		if mode == scan.ModeLemmas {
			cfg.Rank.Top = config.DefaultLemmasTop
		}
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output_wf"
		if mode == scan.ModeLemmas {
			cfg.Output.Dir = "outputs"
		}
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = "word_freq.log"
		if mode == scan.ModeLemmas {
			cfg.Logging.File = "lemma_freq.log"
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
