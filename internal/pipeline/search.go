package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Best is the outcome of a Search.
type Best struct {
	Value    int64
	Settings []int64

	// Trials counts every permutation tried, and Failed those that failed.
	Trials int
	Failed int
}

// Search runs a pipeline for every permutation of settings, and returns the
// one producing the largest value. Among equal values, the permutation
// enumerated first wins.
//
// Unless cfg.SkipFailures is set, any failing permutation aborts the search.
// Even then, the search fails if every permutation does.
func Search(ctx context.Context, prog, settings []int64, cfg Config) (Best, error) {
	if len(settings) == 0 {
		return Best{}, errors.New("no phase settings")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu       sync.Mutex
		best     Best
		bestID   = -1
		firstErr error
	)

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	id := 0
	permute(settings, func(perm []int64) bool {
		if ectx.Err() != nil {
			return false
		}
		trial, perm := id, append([]int64(nil), perm...)
		id++
		eg.Go(func() error {
			v, err := Run(ectx, prog, perm, cfg)

			mu.Lock()
			defer mu.Unlock()
			best.Trials++
			if err != nil {
				err = errors.Wrapf(err, "settings %v", perm)
				if !cfg.SkipFailures || ctx.Err() != nil {
					return err
				}
				best.Failed++
				if firstErr == nil {
					firstErr = err
				}
				cfg.logf("skipping failure: %v", err)
				return nil
			}
			if bestID < 0 || v > best.Value || (v == best.Value && trial < bestID) {
				bestID = trial
				best.Value, best.Settings = v, perm
			}
			return nil
		})
		return true
	})

	if err := eg.Wait(); err != nil {
		return Best{}, err
	}
	if err := ctx.Err(); err != nil {
		return Best{}, err
	}
	if bestID < 0 {
		return best, errors.Wrapf(firstErr, "all %d permutations failed", best.Trials)
	}
	cfg.logf("best of %d (%d failed): %v => %d", best.Trials, best.Failed, best.Settings, best.Value)
	return best, nil
}
