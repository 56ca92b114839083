package pool

import (
	"context"
	"sync"
)

// WorkerFunc defines the function signature for a worker that processes an item and may return an error.
type WorkerFunc[T any] func(ctx context.Context, item T) error

// Result is the outcome of one item, reported in input order.
type Result[T any] struct {
	Item T
	Err  error
}

// Run processes items with at most numWorkers goroutines and returns one
// Result per item, in the order of items. Items never started because ctx
// ended carry ctx's error.
func Run[T any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T]) []Result[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	results := make([]Result[T], len(items))
	for i, item := range items {
		results[i].Item = item
	}

	var wg sync.WaitGroup
	taskChan := make(chan int, numWorkers)
	started := make([]bool, len(items))

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskChan {
				if ctx.Err() != nil {
					continue
				}
				started[idx] = true
				results[idx].Err = workerFunc(ctx, items[idx])
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

	for i := range results {
		if !started[i] {
			results[i].Err = ctx.Err()
		}
	}
	return results
}

// Errors returns the non-nil errors of results.
func Errors[T any](results []Result[T]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
