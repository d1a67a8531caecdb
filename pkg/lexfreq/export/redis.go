package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cognicore/lexfreq/pkg/lexfreq/freq"
	"github.com/cognicore/lexfreq/pkg/lexfreq/scan"
)

// redisBatch is the number of members sent per ZADD.
const redisBatch = 500

// RedisOptions configures a RedisSink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL expires the run keys; zero keeps them.
	TTL time.Duration
}

// RedisSink publishes a run's table as a sorted set scored by count.
//
// Keys written, for prefix p, run r and mode m:
//
//	p:r:m        sorted set key → count
//	p:r:m:forms  hash key → JSON array of surface forms (lemma runs)
//	p:r:meta     hash of run counters
type RedisSink struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// OpenRedis creates a client and verifies the connection with a PING.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "lexfreq"
	}
	return &RedisSink{rdb: rdb, prefix: prefix, ttl: opts.TTL}, nil
}

// Name implements Sink.
func (r *RedisSink) Name() string { return "redis" }

// Close closes the client.
func (r *RedisSink) Close() error {
	return r.rdb.Close()
}

// TableKey is the sorted set holding a run's table.
func (r *RedisSink) TableKey(runID string, mode scan.Mode) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, runID, mode)
}

func (r *RedisSink) formsKey(runID string, mode scan.Mode) string {
	return r.TableKey(runID, mode) + ":forms"
}

func (r *RedisSink) metaKey(runID string) string {
	return fmt.Sprintf("%s:%s:meta", r.prefix, runID)
}

// Export implements Sink.
func (r *RedisSink) Export(ctx context.Context, res *scan.Result, ranked Ranked) error {
	table := r.TableKey(res.RunID, res.Mode)
	forms := r.formsKey(res.RunID, res.Mode)
	meta := r.metaKey(res.RunID)

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, table, forms, meta)

	entries := res.Acc.Table.Entries()
	for start := 0; start < len(entries); start += redisBatch {
		end := min(start+redisBatch, len(entries))
		members := make([]redis.Z, 0, end-start)
		for _, e := range entries[start:end] {
			members = append(members, redis.Z{Score: float64(e.Count), Member: e.Key})
		}
		pipe.ZAdd(ctx, table, members...)
	}

	if prov := res.Acc.Provenance; prov != nil && prov.Len() > 0 {
		fields := make(map[string]any, prov.Len())
		for _, k := range prov.Keys() {
			data, err := json.Marshal(prov.Forms(k))
			if err != nil {
				return fmt.Errorf("marshaling forms of %q: %w", k, err)
			}
			fields[k] = string(data)
		}
		pipe.HSet(ctx, forms, fields)
	}

	inf := ranked.Inflections
	pipe.HSet(ctx, meta, map[string]any{
		"mode":        res.Mode.String(),
		"started_at":  res.Started.UTC().Format(time.RFC3339Nano),
		"finished_at": res.Finished.UTC().Format(time.RFC3339Nano),
		"files":       res.Files,
		"failed":      res.Failed,
		"tokens":      res.Tokens,
		"words":       res.Words,
		"keys":        len(entries),
		"top":         len(ranked.Top),
		"lemmas":      inf.Lemmas,
		"inflected":   inf.Inflected,
		"single_form": inf.SingleForm,
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, table, r.ttl)
		pipe.Expire(ctx, forms, r.ttl)
		pipe.Expire(ctx, meta, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing run %s to redis: %w", res.RunID, err)
	}
	return nil
}

// Top reads back the n highest counts of a run. Equal scores come back in
// reverse lexical order, as ZREVRANGE returns them.
func (r *RedisSink) Top(ctx context.Context, runID string, mode scan.Mode, n int) ([]freq.Entry, error) {
	zs, err := r.rdb.ZRevRangeWithScores(ctx, r.TableKey(runID, mode), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]freq.Entry, 0, len(zs))
	for _, z := range zs {
		key, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected member type %T", z.Member)
		}
		out = append(out, freq.Entry{Key: key, Count: int64(z.Score)})
	}
	return out, nil
}

// Forms reads back the stored provenance of one key.
func (r *RedisSink) Forms(ctx context.Context, runID string, mode scan.Mode, key string) ([]string, error) {
	raw, err := r.rdb.HGet(ctx, r.formsKey(runID, mode), key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var forms []string
	if err := json.Unmarshal([]byte(raw), &forms); err != nil {
		return nil, fmt.Errorf("decoding forms of %q: %w", key, err)
	}
	return forms, nil
}

// RunCounter reads one numeric field of the run metadata hash.
func (r *RedisSink) RunCounter(ctx context.Context, runID, field string) (int64, error) {
	raw, err := r.rdb.HGet(ctx, r.metaKey(runID), field).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}
