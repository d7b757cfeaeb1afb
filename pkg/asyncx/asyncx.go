// Package asyncx provides small concurrency helpers used across the
// codebase: bounded worker pools, concurrent fan-out and timeouts.
package asyncx

import (
	"context"
	"sync"
	"time"
)

// All runs all fns concurrently and waits for every one to finish.
// Results are returned in input order. If any function returns an error the
// first error is returned; the remaining goroutines are still awaited so
// nothing leaks.
func All[T any](ctx context.Context, fns ...func(context.Context) (T, error)) ([]T, error) {
	results := make([]T, len(fns))
	errs := make([]error, len(fns))

	var wg sync.WaitGroup
	wg.Add(len(fns))

	for i, fn := range fns {
		go func(i int, fn func(context.Context) (T, error)) {
			defer wg.Done()
			results[i], errs[i] = fn(ctx)
		}(i, fn)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Pool applies fn to every item using at most workers goroutines and
// returns the results in input order along with the first error encountered.
//
// Use this instead of plain fan-out when the number of items is large and
// unbounded concurrency would be harmful (DB connections, rate-limited APIs).
func Pool[T any, R any](
	ctx context.Context,
	workers int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}

	type indexed struct {
		i    int
		item T
	}

	work := make(chan indexed, len(items))
	for i, item := range items {
		work <- indexed{i: i, item: item}
	}
	close(work)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)

	for n := 0; n < workers; n++ {
		go func() {
			defer wg.Done()
			for w := range work {
				select {
				case <-ctx.Done():
					errs[w.i] = ctx.Err()
					return
				default:
					results[w.i], errs[w.i] = fn(ctx, w.item)
				}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// WithTimeout runs fn with a deadline of d.
// Returns context.DeadlineExceeded if fn does not finish in time.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type res struct {
		v   T
		err error
	}

	ch := make(chan res, 1)
	go func() {
		v, err := fn(ctx)
		ch <- res{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
