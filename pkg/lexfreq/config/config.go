// Package config loads run configuration from YAML with LEXFREQ_* environment
// overrides. CLI flags are applied on top by cmd/lexfreq.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexfreq/pkg/lexfreq/internalerr"
)

// Default top-N limits per mode.
const (
	DefaultWordsTop  = 10000
	DefaultLemmasTop = 5000
)

// Config is the top-level run configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Extract   ExtractConfig   `yaml:"extract"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Scan      ScanConfig      `yaml:"scan"`
	Rank      RankConfig      `yaml:"rank"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

// CorpusConfig locates the compressed documents.
type CorpusConfig struct {
	Root      string `yaml:"root"`
	Extension string `yaml:"extension"`
}

// ExtractConfig names the markup elements of the two schemas.
type ExtractConfig struct {
	WordTag     string `yaml:"wordTag"`
	SentenceTag string `yaml:"sentenceTag"`
	LemmaAttr   string `yaml:"lemmaAttr"`
}

// NormalizeConfig controls lemma case folding.
type NormalizeConfig struct {
	FoldLemmas bool `yaml:"foldLemmas"`
}

// ScanConfig controls the file loop.
type ScanConfig struct {
	Workers     int           `yaml:"workers"`
	FileTimeout time.Duration `yaml:"fileTimeout"`
}

// RankConfig controls top-N extraction. Zero Top means the mode default.
type RankConfig struct {
	Top      int    `yaml:"top"`
	TieBreak string `yaml:"tieBreak"`
}

// OutputConfig is where the file artifacts go.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig controls structured logging level, format and log file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SQLiteConfig enables the SQLite sink when Path is set.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig enables the Postgres sink when DSN is set.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig enables the Redis sink when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// KafkaConfig enables the Kafka sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root:      "corpora/OPUS_es",
			Extension: ".gz",
		},
		Extract: ExtractConfig{
			WordTag:     "w",
			SentenceTag: "s",
			LemmaAttr:   "lem",
		},
		Normalize: NormalizeConfig{FoldLemmas: true},
		Scan:      ScanConfig{Workers: 1},
		Rank:      RankConfig{TieBreak: "insertion"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Redis: RedisConfig{Prefix: "lexfreq"},
		Kafka: KafkaConfig{Topic: "lexfreq-frequencies"},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Corpus.Root == "" {
		return fmt.Errorf("%w: corpus root is empty", internalerr.ErrInvalidConfig)
	}
	if c.Corpus.Extension == "" {
		return fmt.Errorf("%w: corpus extension is empty", internalerr.ErrInvalidConfig)
	}
	if c.Extract.WordTag == "" || c.Extract.SentenceTag == "" {
		return fmt.Errorf("%w: word and sentence tags are required", internalerr.ErrInvalidConfig)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("%w: scan workers must be >= 1, got %d", internalerr.ErrInvalidConfig, c.Scan.Workers)
	}
	if c.Scan.FileTimeout < 0 {
		return fmt.Errorf("%w: negative file timeout", internalerr.ErrInvalidConfig)
	}
	if c.Rank.Top < 0 {
		return fmt.Errorf("%w: rank top must be >= 0, got %d", internalerr.ErrInvalidConfig, c.Rank.Top)
	}
	switch c.Rank.TieBreak {
	case "", "insertion", "lexical":
	default:
		return fmt.Errorf("%w: unknown tie break %q", internalerr.ErrInvalidConfig, c.Rank.TieBreak)
	}
	return nil
}

// applyEnvOverrides reads LEXFREQ_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEXFREQ_CORPUS_ROOT"); v != "" {
		cfg.Corpus.Root = v
	}
	if v := os.Getenv("LEXFREQ_CORPUS_EXTENSION"); v != "" {
		cfg.Corpus.Extension = v
	}
	if v := os.Getenv("LEXFREQ_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("LEXFREQ_SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Workers = n
		}
	}
	if v := os.Getenv("LEXFREQ_SCAN_FILE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scan.FileTimeout = d
		}
	}
	if v := os.Getenv("LEXFREQ_RANK_TOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Rank.Top = n
		}
	}
	if v := os.Getenv("LEXFREQ_RANK_TIE_BREAK"); v != "" {
		cfg.Rank.TieBreak = v
	}
	if v := os.Getenv("LEXFREQ_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LEXFREQ_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LEXFREQ_LOGGING_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("LEXFREQ_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LEXFREQ_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("LEXFREQ_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("LEXFREQ_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LEXFREQ_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LEXFREQ_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LEXFREQ_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
}
