package parallel

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dd0wney/agrorisk/pkg/logging"
)

// Range is a half-open index interval [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Split divides [0, n) into at most parts contiguous ranges of near-equal
// size, in ascending order.
func Split(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}

	// Use int64 to prevent overflow in intermediate calculation
	size := int((int64(n) + int64(parts) - 1) / int64(parts))
	out := make([]Range, 0, parts)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, Range{Lo: lo, Hi: hi})
	}
	return out
}

// MapChunks splits [0, n) into ranges, runs fn over each range on a worker
// pool and returns the results in range order, so callers that fold them
// left to right get the same answer regardless of scheduling. workers <= 0
// means runtime.NumCPU(). A panic inside fn is returned as an error. If ctx
// is cancelled, ranges that have not started are skipped and ctx.Err() is
// returned.
func MapChunks[T any](ctx context.Context, n, workers int, logger logging.Logger, fn func(ctx context.Context, r Range) T) ([]T, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ranges := Split(n, workers)
	results := make([]T, len(ranges))
	if len(ranges) == 0 {
		return results, ctx.Err()
	}

	pool, err := NewWorkerPool(min(workers, len(ranges)), logger)
	if err != nil {
		return nil, err
	}

	errs := make([]error, len(ranges))
	for i, r := range ranges {
		pool.Submit(func() {
			defer func() {
				if p := recover(); p != nil {
					errs[i] = fmt.Errorf("chunk [%d,%d) panicked: %v", r.Lo, r.Hi, p)
				}
			}()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			results[i] = fn(ctx, r)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
