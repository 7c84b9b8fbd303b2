package runner

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/host"
)

// Partition deals tests round-robin into at most n batches.
func Partition(tests []Test, n int) [][]int {
	if n < 1 {
		n = 1
	}
	if n > len(tests) {
		n = len(tests)
	}
	batches := make([][]int, n)
	for i := range tests {
		batches[i%n] = append(batches[i%n], i)
	}
	return batches
}

// RunBatches runs tests over n hosts in parallel, each batch on a host of its
// own from factory. Summaries come back in the order of tests. Only a host
// that cannot be created or closed is an error; test failures are in the
// summaries.
func RunBatches(ctx context.Context, factory host.Factory, n int, tests []Test, config Config, out io.Writer, logger log.Log) ([]report.Summary, error) {
	summaries := make([]report.Summary, len(tests))
	out = report.SyncWriter(out)

	g, gctx := errgroup.WithContext(ctx)
	for b, batch := range Partition(tests, n) {
		b, batch := b, batch
		g.Go(func() (err error) {
			h, err := factory(gctx)
			if err != nil {
				return fmt.Errorf("batch %d: create host: %w", b, err)
			}
			defer func() {
				if cerr := h.Close(); err == nil && cerr != nil {
					err = fmt.Errorf("batch %d: close host: %w", b, cerr)
				}
			}()

			blog := logger.With(log.Int("batch", b))
			harness := New(h, config, out, blog)
			for _, i := range batch {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				summaries[i] = harness.Run(gctx, tests[i])
			}
			blog.Info("batch finished", log.Int("tests", len(batch)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summaries, err
	}
	return summaries, nil
}

// Passed reports whether every summary passed.
func Passed(summaries []report.Summary) bool {
	for _, s := range summaries {
		if !s.Passed {
			return false
		}
	}
	return true
}
