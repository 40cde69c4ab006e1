// Package parallel provides the bounded fan-out used by every batch tool call.
package parallel

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Map runs fn for every item with at most maxWorkers calls in flight and
// returns the results in completion order. fn must not fail: per-item
// failures are expected to be folded into R.
//
// A maxWorkers below 1 is treated as 1; it is also capped at len(items).
func Map[T, R any](ctx context.Context, items []T, maxWorkers int, fn func(ctx context.Context, item T) R) []R {
	if len(items) == 0 {
		return nil
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	var (
		mu      sync.Mutex
		results = make([]R, 0, len(items))
	)

	g := new(errgroup.Group)
	g.SetLimit(maxWorkers)
	for _, item := range items {
		item := item
		g.Go(func() error {
			r := fn(ctx, item)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}
