package sim

import (
	"context"
	"sync"
)

// Builder creates one independent scheduler with its own store.
type Builder func() (*Scheduler, error)

// Ensemble runs several independent schedulers concurrently. Schedulers never
// share a store, so each one still has a single writer.
type Ensemble struct {
	builders []Builder
	passes   int
}

func NewEnsemble(passes int, builders ...Builder) *Ensemble {
	return &Ensemble{builders: builders, passes: passes}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.builders))
	errs := make([]error, len(e.builders))

	var wg sync.WaitGroup
	for i, build := range e.builders {
		wg.Add(1)
		go func(idx int, build Builder) {
			defer wg.Done()

			s, err := build()
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, e.passes)
		}(i, build)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
