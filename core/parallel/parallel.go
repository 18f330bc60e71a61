// Package parallel splits index ranges over goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// chunkBounds returns the ceiling chunk size for items split over workers.
// workers <= 0 means runtime.NumCPU().
func chunkBounds(items, workers int) (int, int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}
	return workers, (items + workers - 1) / workers
}

// Chunks calls fn concurrently on contiguous [start, end) ranges that together
// cover [0, items). It returns after every call has finished.
func Chunks(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	workers, size := chunkBounds(items, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * size
		end := min(start+size, items)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ChunksAbove runs fn(0, items) on the calling goroutine when items does not
// exceed threshold, and falls back to Chunks otherwise.
func ChunksAbove(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Chunks(items, 0, fn)
}

// ChunksErr is Chunks for work that can fail. The first error cancels the
// context handed to the remaining chunks and is returned.
func ChunksErr(ctx context.Context, items, workers int, fn func(ctx context.Context, start, end int) error) error {
	if items <= 0 {
		return nil
	}
	workers, size := chunkBounds(items, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < items; start += size {
		s, e := start, min(start+size, items)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, s, e)
		})
	}
	return g.Wait()
}
