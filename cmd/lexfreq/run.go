package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognicore/lexfreq/internal/logger"
	"github.com/cognicore/lexfreq/pkg/lexfreq/config"
	"github.com/cognicore/lexfreq/pkg/lexfreq/export"
	"github.com/cognicore/lexfreq/pkg/lexfreq/extract"
	"github.com/cognicore/lexfreq/pkg/lexfreq/metrics"
	"github.com/cognicore/lexfreq/pkg/lexfreq/rank"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
	"github.com/cognicore/lexfreq/pkg/lexfreq/source"
)

// run executes one mode end to end. A run interrupted by a signal still
// exports the files completed so far and then reports the interruption.
func run(cfg *config.Config, mode scan.Mode) error {
	start := time.Now()
	closer, err := logger.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		return err
	}
	defer closer.Close()
	log := logger.WithComponent("lexfreq")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tie, err := rank.ParseTieBreak(cfg.Rank.TieBreak)
	if err != nil {
		return err
	}

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		shutdown := m.StartServer(cfg.Metrics.Addr)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}

	files, err := source.Walk(cfg.Corpus.Root, cfg.Corpus.Extension)
	if err != nil {
		log.Error("failed to enumerate corpus", "root", cfg.Corpus.Root, "error", err)
		return err
	}
	log.Info("corpus enumerated", "root", cfg.Corpus.Root, "files", len(files), "mode", mode.String())

	sc := scan.New(scan.Options{
		Mode: mode,
		Extract: extract.Options{
			WordTag:     cfg.Extract.WordTag,
			SentenceTag: cfg.Extract.SentenceTag,
			LemmaAttr:   cfg.Extract.LemmaAttr,
		},
		FoldLemmas:  cfg.Normalize.FoldLemmas,
		Workers:     cfg.Scan.Workers,
		FileTimeout: cfg.Scan.FileTimeout,
		Logger:      slog.Default(),
		Metrics:     m,
	})
	res, runErr := sc.Run(ctx, files)

	ranked := export.Rank(res, cfg.Rank.Top, tie)
	if mode == scan.ModeLemmas {
		log.Info("lemma inflection stats",
			"lemmas", ranked.Inflections.Lemmas,
			"inflected", ranked.Inflections.Inflected,
			"single_form", ranked.Inflections.SingleForm,
		)
	}

	// Sinks get a context that survives the interrupt so partial results land.
	ectx := context.WithoutCancel(ctx)
	sinks, err := openSinks(ectx, cfg, log)
	if err != nil {
		export.CloseAll(sinks)
		log.Error("failed to open sinks", "error", err)
		return err
	}
	exportErr := (&export.Multi{Sinks: sinks, Logger: log}).Export(ectx, res, ranked)
	if err := export.CloseAll(sinks); err != nil {
		log.Warn("failed to close sinks", "error", err)
	}

	log.Info("run complete",
		"run_id", res.RunID,
		"files", res.Files,
		"failed", res.Failed,
		"keys", res.Acc.Table.Len(),
		"top", len(ranked.Top),
		"out", cfg.Output.Dir,
		"cpu_seconds", processCPUTime().Seconds(),
		"wall_seconds", time.Since(start).Seconds(),
	)

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	return exportErr
}

// openSinks builds the file sink plus every optional sink the config
// enables. On error the sinks opened so far are returned for closing.
func openSinks(ctx context.Context, cfg *config.Config, log *slog.Logger) ([]export.Sink, error) {
	sinks := []export.Sink{export.NewFileSink(cfg.Output.Dir, log)}

	if cfg.SQLite.Path != "" {
		s, err := export.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return sinks, fmt.Errorf("opening sqlite %s: %w", cfg.SQLite.Path, err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Postgres.DSN != "" {
		s, err := export.OpenPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, s)
	}
	if cfg.Redis.Addr != "" {
		s, err := export.OpenRedis(ctx, export.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, s)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, export.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log))
	}
	return sinks, nil
}
