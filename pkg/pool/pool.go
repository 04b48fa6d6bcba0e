// Package pool runs a function over a slice with a bounded number of goroutines.
package pool

import (
	"context"
	"sync"
)

// MapFunc processes the item at index i and returns its result.
type MapFunc[T, R any] func(ctx context.Context, i int, item T) (R, error)

// Map processes items with at most numWorkers goroutines. results[i] and errs[i]
// belong to items[i]. Items never started because ctx was cancelled get ctx.Err().
func Map[T, R any](ctx context.Context, items []T, numWorkers int, fn MapFunc[T, R]) (results []R, errs []error) {
	results = make([]R, len(items))
	errs = make([]error, len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	taskChan := make(chan int, numWorkers)
	started := make([]bool, len(items))

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskChan {
				if ctx.Err() != nil {
					// drained without calling fn, errs[i] is filled in below
					continue
				}
				started[i] = true
				results[i], errs[i] = fn(ctx, i, items[i])
			}
		}()
	}

OUT:
	for i := range items {
		select {
		case taskChan <- i:
		case <-ctx.Done():
			// Stop feeding tasks if the context is cancelled
			break OUT
		}
	}
	close(taskChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range items {
			if !started[i] {
				errs[i] = err
			}
		}
	}
	return results, errs
}
