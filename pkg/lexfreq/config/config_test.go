package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/lexfreq/pkg/lexfreq/internalerr"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Empty path should load defaults: %v", err)
	}
	if cfg.Corpus.Extension != ".gz" {
		t.Errorf("Expected .gz extension, got %q", cfg.Corpus.Extension)
	}
	if cfg.Extract.LemmaAttr != "lem" {
		t.Errorf("Expected lem attribute, got %q", cfg.Extract.LemmaAttr)
	}
	if cfg.Scan.Workers != 1 {
		t.Errorf("Expected 1 worker, got %d", cfg.Scan.Workers)
	}
	if !cfg.Normalize.FoldLemmas {
		t.Error("Lemma folding should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexfreq.yaml")
	data := `
corpus:
  root: /data/opus
extract:
  lemmaAttr: lemma
scan:
  workers: 4
  fileTimeout: 30s
rank:
  top: 200
  tieBreak: lexical
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Valid file should load: %v", err)
	}
	if cfg.Corpus.Root != "/data/opus" {
		t.Errorf("Root not loaded, got %q", cfg.Corpus.Root)
	}
	if cfg.Corpus.Extension != ".gz" {
		t.Errorf("Unset extension should keep default, got %q", cfg.Corpus.Extension)
	}
	if cfg.Extract.LemmaAttr != "lemma" {
		t.Errorf("Lemma attr not loaded, got %q", cfg.Extract.LemmaAttr)
	}
	if cfg.Extract.WordTag != "w" {
		t.Errorf("Word tag should keep default, got %q", cfg.Extract.WordTag)
	}
	if cfg.Scan.Workers != 4 || cfg.Scan.FileTimeout != 30*time.Second {
		t.Errorf("Scan config not loaded: %+v", cfg.Scan)
	}
	if cfg.Rank.Top != 200 || cfg.Rank.TieBreak != "lexical" {
		t.Errorf("Rank config not loaded: %+v", cfg.Rank)
	}
}

func TestLoadNonExistent(t *testing.T) {
	if _, err := Load("/nonexistent/lexfreq.yaml"); err == nil {
		t.Error("Should error on nonexistent file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("scan: [unclosed"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("Should error on malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEXFREQ_CORPUS_ROOT", "/env/root")
	t.Setenv("LEXFREQ_SCAN_WORKERS", "8")
	t.Setenv("LEXFREQ_RANK_TOP", "50")
	t.Setenv("LEXFREQ_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Corpus.Root != "/env/root" {
		t.Errorf("Expected env root, got %q", cfg.Corpus.Root)
	}
	if cfg.Scan.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Scan.Workers)
	}
	if cfg.Rank.Top != 50 {
		t.Errorf("Expected top 50, got %d", cfg.Rank.Top)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("Brokers not split: %v", cfg.Kafka.Brokers)
	}
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv("LEXFREQ_SCAN_WORKERS", "many")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scan.Workers != 1 {
		t.Errorf("Unparseable override should be ignored, got %d", cfg.Scan.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.Corpus.Root = "" }},
		{"empty extension", func(c *Config) { c.Corpus.Extension = "" }},
		{"empty word tag", func(c *Config) { c.Extract.WordTag = "" }},
		{"zero workers", func(c *Config) { c.Scan.Workers = 0 }},
		{"negative timeout", func(c *Config) { c.Scan.FileTimeout = -time.Second }},
		{"negative top", func(c *Config) { c.Rank.Top = -1 }},
		{"unknown tie", func(c *Config) { c.Rank.TieBreak = "random" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
