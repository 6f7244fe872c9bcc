package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/uatlabs/widgetuat/internal/model"
)

// runPagesBatch tests pages concurrently, bounded by the configured batch
// size. Each page writes into its own slot so report order matches the
// sorted page order regardless of completion order.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it is simpler and handles the concurrency limit correctly. Task
// failures stay inside results; only cancellation propagates as an error.
func (r *Runner) runPagesBatch(ctx context.Context, keys []string, report *model.RunReport) error {
	r.logger.Info("running page tests in batch",
		"pages", len(keys),
		"concurrency", r.cfg.BatchSize,
	)

	slots := make([][]model.UATResult, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.BatchSize)

	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			slots[i] = r.runPageTest(ctx, key)
			return nil
		})
	}

	err := g.Wait()

	// Keep every completed slot even when the batch was cancelled.
	for _, results := range slots {
		for _, result := range results {
			report.AddResult(result)
		}
	}
	return err
}
