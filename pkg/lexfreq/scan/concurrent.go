package scan

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cognicore/lexfreq/pkg/lexfreq/freq"
	"github.com/cognicore/lexfreq/pkg/lexfreq/normalize"
)

// runConcurrent counts files on a worker pool. Each file gets its own
// accumulator; the calling goroutine merges them strictly in file order, so
// the run table, including insertion order, equals the sequential result.
// The semaphore bounds how many per-file tables exist at once.
func (s *Scanner) runConcurrent(ctx context.Context, files []string, res *Result) error {
	workers := s.opts.Workers
	window := semaphore.NewWeighted(int64(2 * workers))
	slots := make([]chan fileOutcome, len(files))
	for i := range slots {
		slots[i] = make(chan fileOutcome, 1)
	}

	lctx, stop := context.WithCancel(ctx)
	defer stop()

	order := make(chan int)
	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		defer close(order)
		for i, path := range files {
			if err := window.Acquire(lctx, 1); err != nil {
				return
			}
			g.Go(func() error {
				acc := freq.NewAccumulator(s.opts.Mode == ModeLemmas)
				slots[i] <- s.countFile(lctx, path, acc, normalize.New(s.opts.FoldLemmas))
				return nil
			})
			select {
			case order <- i:
			case <-lctx.Done():
				return
			}
		}
	}()

	var runErr error
	handled := 0
	for i := range order {
		out := <-slots[i]
		window.Release(1)
		if runErr != nil {
			continue
		}
		if err := ctx.Err(); err != nil || isCancel(out.err) {
			runErr = ctx.Err()
			stop()
			continue
		}
		before := res.Acc.Table.Len()
		if out.err == nil {
			res.Acc.Merge(out.acc)
		}
		s.finish(res, out, before)
		handled++
	}
	g.Wait()
	if runErr == nil && handled < len(files) {
		runErr = ctx.Err()
	}
	return runErr
}
