package planner

import (
	"cmp"
	"context"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/slices"

	"haulplan/internal/model"
)

// BatchResult pairs a plan (or its validation error) with the index of the
// request it answers.
type BatchResult struct {
	Index  int                   `json:"index"`
	Result model.RoutePlanResult `json:"result"`
	Err    error                 `json:"-"`
}

// PlanBatch plans independent requests concurrently on at most workers
// goroutines. Results come back in input order. Requests not yet started
// when ctx is done report ctx.Err().
func (p *Planner) PlanBatch(ctx context.Context, inputs []model.PlanRouteInput, workers int) []BatchResult {
	if workers <= 0 {
		workers = 1
	}
	wp := pool.NewWithResults[BatchResult]().WithMaxGoroutines(workers)
	for i, in := range inputs {
		wp.Go(func() BatchResult {
			if err := ctx.Err(); err != nil {
				return BatchResult{Index: i, Err: err}
			}
			res, err := p.PlanRoute(in)
			return BatchResult{Index: i, Result: res, Err: err}
		})
	}
	out := wp.Wait()
	slices.SortFunc(out, func(a, b BatchResult) int { return cmp.Compare(a.Index, b.Index) })
	return out
}
