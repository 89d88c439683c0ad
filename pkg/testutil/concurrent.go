package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	Conflicts int32
	NotFounds int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Conflicts + r.NotFounds
}

func isConflict(err error) bool {
	if errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrRejected) {
		return true
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeConflict, dErrors.CodeStaleRequest, dErrors.CodeAlreadyAuthorized, dErrors.CodeLedgerRejected:
		return true
	}
	return false
}

// RunConcurrent executes fn in parallel goroutines and buckets the outcomes.
// Lost races (conflict, stale request, rejected write) count as conflicts.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, conflicts, notFounds atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case isConflict(err):
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

// RunConcurrentCtx is RunConcurrent with a shared context.
func RunConcurrentCtx(ctx context.Context, goroutines int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(goroutines, func(idx int) error {
		return fn(ctx, idx)
	})
}
