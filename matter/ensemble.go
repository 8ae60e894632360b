package matter

import (
	"context"
	"sync"
)

// Ensemble fans a per-run function out over independent clones of a base
// state, one goroutine per run. Because a Clone shares nothing with its
// origin, runs need no locking; the immutable Tree and the Subsystem are
// shared read-only.
type Ensemble struct {
	sub  *Subsystem
	runs int
}

func NewEnsemble(sub *Subsystem, runs int) *Ensemble {
	return &Ensemble{sub: sub, runs: runs}
}

// Run calls fn once per run with that run's private clone. It returns the
// first error encountered, after all runs finish; a canceled context stops
// runs that have not started yet.
func (e *Ensemble) Run(ctx context.Context, base *State, fn func(run int, s *State) error) error {
	errs := make([]error, e.runs)

	var wg sync.WaitGroup
	for i := 0; i < e.runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			errs[idx] = fn(idx, base.Clone())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
