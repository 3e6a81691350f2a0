package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runFanout runs fn for each item in group concurrently on a pool bounded to
// workers slots, per SPEC_FULL.md §5's "bounded worker pool (pool size
// configurable, default = CPU count)". The join point is after every sibling
// completes or any one fails — errgroup cancels ctx for the remaining
// siblings on the first error, matching "no ordering guarantees between
// siblings" plus fail-fast.
func runFanout(ctx context.Context, group []int, workers int, fn func(ctx context.Context, stepIndex int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, max(1, workers))

	for _, idx := range group {
		idx := idx
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()
			return fn(gctx, idx)
		})
	}
	return g.Wait()
}
