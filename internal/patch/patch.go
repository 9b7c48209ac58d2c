// Package patch searches for a pair of values which, patched into a program
// image before it runs, make the program leave a target value at address 0.
package patch

import (
	"context"
	"runtime"
	"sync"

	"github.com/jcorbin/intcode/internal/intcode"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrNoMatch is returned by Find when no candidate produces the target.
var ErrNoMatch = errors.New("no patch produces the target")

// Config describes a patch search.
type Config struct {
	Target int64

	// Addrs are where the noun and verb are stored; the default is 1 and 2.
	Addrs []uint64

	// Range bounds both noun and verb; the default is 0 through 99.
	Range *Range

	// Workers bounds how many candidates run at once; 0 means GOMAXPROCS.
	Workers int

	// Options apply to every engine after the default Arithmetic
	// capabilities, which they may override.
	Options []intcode.Option

	// Logf, if set, receives a message for every failed candidate.
	Logf func(mess string, args ...interface{})
}

// Range is an inclusive range of candidate values.
type Range struct{ Lo, Hi int64 }

// Match is a noun and verb that produce the target.
type Match struct {
	Noun, Verb int64
}

// Answer combines noun and verb into a single number.
func (m Match) Answer() int64 { return 100*m.Noun + m.Verb }

func (cfg Config) addrs() (noun, verb uint64, err error) {
	switch len(cfg.Addrs) {
	case 0:
		return 1, 2, nil
	case 2:
		return cfg.Addrs[0], cfg.Addrs[1], nil
	}
	return 0, 0, errors.Errorf("need 2 patch addresses, have %d", len(cfg.Addrs))
}

// maxSpan is the widest range whose noun and verb pairs can be numbered
// within an int64.
const maxSpan = 3037000499

// bounds returns the low end of the range and how many values it holds.
func (cfg Config) bounds() (lo, span int64, err error) {
	lo, hi := int64(0), int64(99)
	if cfg.Range != nil {
		lo, hi = cfg.Range.Lo, cfg.Range.Hi
	}
	if hi < lo {
		return 0, 0, errors.Errorf("empty range %d:%d", lo, hi)
	}
	if uint64(hi)-uint64(lo) >= maxSpan {
		return 0, 0, errors.Errorf("range %d:%d too wide", lo, hi)
	}
	return lo, hi - lo + 1, nil
}

// Eval runs prog with noun and verb patched in, returning the value left at
// address 0 once it halts.
func Eval(ctx context.Context, prog []int64, noun, verb int64, cfg Config) (int64, error) {
	na, va, err := cfg.addrs()
	if err != nil {
		return 0, err
	}
	e, err := intcode.New(prog,
		intcode.WithCapabilities(intcode.Arithmetic),
		intcode.Options(cfg.Options...))
	if err != nil {
		return 0, err
	}
	if err := e.Stor(na, noun); err != nil {
		return 0, errors.Wrap(err, "patch noun")
	}
	if err := e.Stor(va, verb); err != nil {
		return 0, errors.Wrap(err, "patch verb")
	}
	if _, err := e.Run(ctx); err != nil {
		return 0, err
	}
	return e.Load(0)
}

// Find tries every noun and verb in range, nouns varying slowest, and returns
// the first that produces cfg.Target. Candidates that fail to run are
// skipped.
func Find(ctx context.Context, prog []int64, cfg Config) (Match, error) {
	if _, _, err := cfg.addrs(); err != nil {
		return Match{}, err
	}
	lo, span, err := cfg.bounds()
	if err != nil {
		return Match{}, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu    sync.Mutex
		found = int64(-1)
	)
	done := func(id int64) bool {
		mu.Lock()
		defer mu.Unlock()
		return found >= 0 && found < id
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for id := int64(0); id < span*span; id++ {
		if ectx.Err() != nil || done(id) {
			break
		}
		id, noun, verb := id, lo+id/span, lo+id%span
		eg.Go(func() error {
			v, err := Eval(ectx, prog, noun, verb, cfg)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				if cfg.Logf != nil {
					cfg.Logf("noun=%d verb=%d failed: %v", noun, verb, err)
				}
				return nil
			}
			if v == cfg.Target {
				mu.Lock()
				if found < 0 || id < found {
					found = id
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Match{}, err
	}
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	if found < 0 {
		return Match{}, errors.Wrapf(ErrNoMatch, "target %d", cfg.Target)
	}
	return Match{Noun: lo + found/span, Verb: lo + found%span}, nil
}
