package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/platform/sentinel"
)

// ConcurrentResult counts outcomes by class. Revocation races are expected to
// show exactly one success and the rest as not-found.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	Conflicts int32
	NotFounds int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Conflicts + r.NotFounds
}

// RunConcurrent executes fn in parallel goroutines and collects results.
// Errors are classified as conflict or not found when they carry the sentinel
// or the matching domain code, and as generic errors otherwise.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, conflicts, notFounds atomic.Int32

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
	}
}

// RunConcurrentCollect executes fn in parallel and returns every result
// in index order. Use it when the values matter, not just the error class.
func RunConcurrentCollect[T any](goroutines int, fn func(idx int) (T, error)) ([]T, []error) {
	var wg sync.WaitGroup
	values := make([]T, goroutines)
	errs := make([]error, goroutines)

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			values[idx], errs[idx] = fn(idx)
		}(i)
	}

	wg.Wait()
	return values, errs
}
