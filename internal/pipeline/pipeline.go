// Package pipeline connects several intcode engines running the same program
// into a chain or a ring, and searches phase settings for the largest signal
// such a pipeline produces.
package pipeline

import (
	"context"
	"fmt"

	"github.com/jcorbin/intcode/internal/intcode"
	"github.com/jcorbin/intcode/internal/panicerr"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Topology describes how pipeline engines are connected.
type Topology int

const (
	// Chain feeds each engine's output to the next one; the last engine's
	// output goes nowhere but is recorded as the pipeline's answer.
	Chain Topology = iota

	// Ring is a Chain whose last engine feeds back into the first; it needs
	// at least two engines, since a lone engine would block sending to itself.
	Ring
)

func (top Topology) String() string {
	switch top {
	case Chain:
		return "chain"
	case Ring:
		return "ring"
	}
	return fmt.Sprintf("topology%d", int(top))
}

// Config controls how pipelines are built and searched.
type Config struct {
	Topology Topology

	// Seed is the initial signal given to the first engine, after its phase
	// setting.
	Seed int64

	// Options apply to every engine, e.g. to restrict capabilities, limit
	// memory, or enable tracing.
	Options []intcode.Option

	// Workers bounds how many pipelines Search runs at once; 0 means
	// GOMAXPROCS.
	Workers int

	// SkipFailures makes Search leave failed permutations out of the
	// maximum, instead of aborting.
	SkipFailures bool

	// Logf, if set, receives progress messages from Search.
	Logf func(mess string, args ...interface{})
}

func (cfg Config) logf(mess string, args ...interface{}) {
	if cfg.Logf != nil {
		cfg.Logf(mess, args...)
	}
}

// Run runs one engine per phase setting, each with its own copy of prog, all
// concurrently, and returns the last value output by the last engine.
//
// Engine i receives settings[i] as its first input; the first engine then
// receives cfg.Seed. Any engine failing stops the whole pipeline.
func Run(ctx context.Context, prog, settings []int64, cfg Config) (int64, error) {
	engines, err := build(prog, settings, cfg)
	if err != nil {
		return 0, err
	}

	errs := make([]error, len(engines))
	eg, ctx := errgroup.WithContext(ctx)
	for i, e := range engines {
		i, e := i, e
		eg.Go(func() error {
			errs[i] = panicerr.Recover(e.Name(), func() error {
				_, err := e.Run(ctx)
				return err
			})
			return errs[i]
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, rootCause(errs, err)
	}

	last := engines[len(engines)-1]
	v, err := last.Result().Output()
	if err != nil {
		return 0, errors.Wrap(err, last.Name())
	}
	return v, nil
}

func build(prog, settings []int64, cfg Config) ([]*intcode.Engine, error) {
	n := len(settings)
	if n == 0 {
		return nil, errors.New("no phase settings")
	}

	ports := make([]*intcode.Port, n)
	for i, setting := range settings {
		ports[i] = intcode.NewPort(setting)
	}
	ports[0] = intcode.NewPort(settings[0], cfg.Seed)

	var final intcode.Output
	switch cfg.Topology {
	case Chain:
		// nothing will ever write to the first engine
		ports[0].Close()
		final = intcode.Discard
	case Ring:
		if n < 2 {
			return nil, errors.Errorf("ring needs at least 2 engines, have %d", n)
		}
		final = ports[0]
	default:
		return nil, errors.Errorf("invalid topology %v", cfg.Topology)
	}

	opts := intcode.Options(cfg.Options...)
	engines := make([]*intcode.Engine, n)
	for i := range engines {
		out := final
		if i+1 < n {
			out = ports[i+1]
		}
		e, err := intcode.New(prog,
			opts,
			intcode.WithName(fmt.Sprintf("amp-%d", i)),
			intcode.WithInput(ports[i]),
			intcode.WithOutput(out),
		)
		if err != nil {
			return nil, err
		}
		engines[i] = e
	}
	return engines, nil
}

// rootCause picks the engine error that most likely caused any others: one
// engine failing closes its output, and cancels the rest, so that its
// neighbors fail with ErrInputExhausted or a context error in turn.
func rootCause(errs []error, first error) error {
	var exhausted error
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		case errors.Is(err, intcode.ErrInputExhausted):
			if exhausted == nil {
				exhausted = err
			}
		default:
			return err
		}
	}
	if exhausted != nil {
		return exhausted
	}
	return first
}
