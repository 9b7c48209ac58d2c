package intcode

import (
	"context"
	"fmt"

	"github.com/jcorbin/intcode/internal/mem"
	"github.com/pkg/errors"
)

// Memory is the storage an engine executes from.
type Memory interface {
	Load(addr uint64) (int64, error)
	LoadInto(addr uint64, buf []int64) error
	Stor(addr uint64, values ...int64) error
	Size() uint64
}

// State is an engine's lifecycle state.
type State int

// Engine states; every state but Running is final.
const (
	Running State = iota
	Halted
	HungUp
	Failed
)

func (st State) String() string {
	switch st {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case HungUp:
		return "hung up"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state%d", int(st))
}

// EventKind classifies what a single Step did.
type EventKind int

// Step event kinds.
const (
	StepContinue EventKind = iota
	StepOutput
	StepHalt
)

// Event is the outcome of a single Step. For StepOutput, Value is the value
// sent; for StepHalt, Value is the terminal value, if any.
type Event struct {
	Kind  EventKind
	Value int64
}

// Result describes a stopped engine.
type Result struct {
	State State

	// Value is the last value the engine output, whether it halted normally
	// or because its output hung up; HasValue is false if it never did.
	Value    int64
	HasValue bool

	Steps uint64
}

// ErrNoOutput is returned by Result.Output for an engine that stopped
// without ever producing a value.
var ErrNoOutput = errors.New("no output produced")

// Output returns the terminal value, or ErrNoOutput.
func (res Result) Output() (int64, error) {
	if !res.HasValue {
		return 0, ErrNoOutput
	}
	return res.Value, nil
}

// AddressError is returned when a parameter resolves to an address that
// cannot exist: a negative one, or an immediate mode write target.
type AddressError struct {
	Param int
	Mode  Mode
	Addr  int64
}

func (err *AddressError) Error() string {
	if err.Addr >= 0 {
		return fmt.Sprintf("immediate mode write target for parameter %d", err.Param)
	}
	return fmt.Sprintf("negative %v address %d for parameter %d", err.Mode, err.Addr, err.Param)
}

// Engine executes a program image. An engine is not safe for concurrent use;
// run each one on its own goroutine, and connect them with Ports.
type Engine struct {
	name  string
	caps  Capabilities
	logfn func(mess string, args ...interface{})
	in    Input
	out   Output
	mem   Memory

	memLimit uint64
	pageSize uint64
	imageLen uint64

	pc    uint64
	base  int64
	state State
	err   error
	steps uint64

	last    int64
	hasLast bool
}

// checkEvery is how many instructions Run executes between checks for
// context cancellation.
const checkEvery = 1024

// New creates an engine with a private copy of prog.
func New(prog []int64, opts ...Option) (*Engine, error) {
	var none Values
	e := &Engine{
		name:     "intcode",
		caps:     Complete,
		in:       &none,
		out:      Discard,
		imageLen: uint64(len(prog)),
	}
	Options(opts...).apply(e)

	switch e.caps.Memory {
	case FixedMemory:
		e.mem = append(mem.Fixed(nil), prog...)
	default:
		m := &mem.Ints{}
		m.PageSize = e.pageSize
		m.Limit = e.memLimit
		if err := m.Stor(0, prog...); err != nil {
			return nil, errors.Wrapf(err, "%v: load image", e.name)
		}
		e.mem = m
	}
	return e, nil
}

// Name returns the engine name given by WithName.
func (e *Engine) Name() string { return e.name }

// PC returns the address of the next instruction.
func (e *Engine) PC() uint64 { return e.pc }

// RelativeBase returns the current relative base.
func (e *Engine) RelativeBase() int64 { return e.base }

// State returns the engine's lifecycle state.
func (e *Engine) State() State { return e.state }

// Steps returns the number of instructions executed.
func (e *Engine) Steps() uint64 { return e.steps }

// Result describes the engine as it stands.
func (e *Engine) Result() Result {
	return Result{
		State:    e.state,
		Value:    e.last,
		HasValue: e.hasLast,
		Steps:    e.steps,
	}
}

// Load reads a value from engine memory.
func (e *Engine) Load(addr uint64) (int64, error) { return e.mem.Load(addr) }

// Stor writes values into engine memory, e.g. to patch a program before
// running it.
func (e *Engine) Stor(addr uint64, values ...int64) error { return e.mem.Stor(addr, values...) }

// Snapshot returns a copy of memory, from address 0 through the larger of
// the original image and the last non-zero value.
func (e *Engine) Snapshot() ([]int64, error) {
	buf := make([]int64, e.mem.Size())
	if err := e.mem.LoadInto(0, buf); err != nil {
		return nil, err
	}
	n := uint64(len(buf))
	for n > e.imageLen && buf[n-1] == 0 {
		n--
	}
	return buf[:n], nil
}

// Run steps the engine until it stops, returning its Result. Whatever the
// outcome, Run then closes the engine's output and hangs up its input, if
// they support it, so that no neighbor waits on this engine forever.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	defer e.release()
	for i := 0; ; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return e.Result(), err
			}
		}
		ev, err := e.Step(ctx)
		if err != nil {
			return e.Result(), err
		}
		if ev.Kind == StepHalt {
			return e.Result(), nil
		}
	}
}

// Next steps the engine until it outputs a value or stops; ok is false once
// the engine has stopped.
func (e *Engine) Next(ctx context.Context) (value int64, ok bool, err error) {
	for {
		ev, err := e.Step(ctx)
		if err != nil {
			return 0, false, err
		}
		switch ev.Kind {
		case StepOutput:
			return ev.Value, true, nil
		case StepHalt:
			return 0, false, nil
		}
	}
}

func (e *Engine) release() {
	if cl, ok := e.out.(interface{ Close() }); ok {
		cl.Close()
	}
	if hu, ok := e.in.(interface{ Hangup() }); ok {
		hu.Hangup()
	}
}

// Step executes exactly one instruction. Once the engine has stopped, Step
// keeps returning the same halt event, or the same error, without touching
// memory.
//
// Any error other than context cancellation is fatal: the engine enters the
// Failed state. A cancelled Step leaves the engine as it was, so that it may
// be resumed.
func (e *Engine) Step(ctx context.Context) (Event, error) {
	switch e.state {
	case Halted, HungUp:
		return e.haltEvent(), nil
	case Failed:
		return Event{}, e.err
	}

	pc := e.pc
	ev, err := e.step(ctx)
	if err != nil {
		err = errors.Wrapf(err, "%v @%d", e.name, pc)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Event{}, err
		}
		e.state, e.err = Failed, err
		e.logf("fail %v", err)
		return Event{}, err
	}
	e.steps++
	return ev, nil
}

func (e *Engine) haltEvent() Event {
	return Event{Kind: StepHalt, Value: e.last}
}

func (e *Engine) step(ctx context.Context) (Event, error) {
	word, err := e.mem.Load(e.pc)
	if err != nil {
		return Event{}, err
	}
	ins, err := Decode(word)
	if err == nil {
		err = e.caps.check(word, ins)
	}
	if err != nil {
		return Event{}, err
	}
	if e.logfn != nil {
		e.logf("@%d %v", e.pc, ins)
	}

	switch ins.Op {
	case OpAdd, OpMul, OpLessThan, OpEquals:
		a, err := e.read(1, ins.Modes[0])
		if err != nil {
			return Event{}, err
		}
		b, err := e.read(2, ins.Modes[1])
		if err != nil {
			return Event{}, err
		}
		addr, err := e.addr(3, ins.Modes[2])
		if err != nil {
			return Event{}, err
		}
		var v int64
		switch ins.Op {
		case OpAdd:
			v = a + b
		case OpMul:
			v = a * b
		case OpLessThan:
			v = boolInt(a < b)
		case OpEquals:
			v = boolInt(a == b)
		}
		if err := e.mem.Stor(addr, v); err != nil {
			return Event{}, err
		}

	case OpInput:
		addr, err := e.addr(1, ins.Modes[0])
		if err != nil {
			return Event{}, err
		}
		v, err := e.in.Recv(ctx)
		if err != nil {
			return Event{}, err
		}
		if err := e.mem.Stor(addr, v); err != nil {
			return Event{}, err
		}

	case OpOutput:
		v, err := e.read(1, ins.Modes[0])
		if err != nil {
			return Event{}, err
		}
		err = e.out.Send(ctx, v)
		if errors.Is(err, ErrHungUp) {
			e.last, e.hasLast = v, true
			e.state = HungUp
			e.logf("hung up, final output %d", v)
			return e.haltEvent(), nil
		} else if err != nil {
			return Event{}, err
		}
		e.last, e.hasLast = v, true
		e.pc += 2
		return Event{Kind: StepOutput, Value: v}, nil

	case OpJumpIfTrue, OpJumpIfFalse:
		cond, err := e.read(1, ins.Modes[0])
		if err != nil {
			return Event{}, err
		}
		target, err := e.read(2, ins.Modes[1])
		if err != nil {
			return Event{}, err
		}
		if (cond != 0) == (ins.Op == OpJumpIfTrue) {
			if target < 0 {
				return Event{}, &AddressError{Param: 2, Mode: ins.Modes[1], Addr: target}
			}
			e.pc = uint64(target)
			return Event{Kind: StepContinue}, nil
		}

	case OpAdjustBase:
		a, err := e.read(1, ins.Modes[0])
		if err != nil {
			return Event{}, err
		}
		e.base += a

	case OpHalt:
		e.state = Halted
		e.logf("halt")
		return e.haltEvent(), nil
	}

	e.pc += 1 + uint64(ins.Arity())
	return Event{Kind: StepContinue}, nil
}

// read resolves the value of parameter k.
func (e *Engine) read(k int, m Mode) (int64, error) {
	if m == Immediate {
		return e.mem.Load(e.pc + uint64(k))
	}
	addr, err := e.addr(k, m)
	if err != nil {
		return 0, err
	}
	return e.mem.Load(addr)
}

// addr resolves the address named by parameter k.
func (e *Engine) addr(k int, m Mode) (uint64, error) {
	at := e.pc + uint64(k)
	if m == Immediate {
		if !e.caps.ImmediateWrites {
			return 0, &AddressError{Param: k, Mode: m, Addr: int64(at)}
		}
		return at, nil
	}
	p, err := e.mem.Load(at)
	if err != nil {
		return 0, err
	}
	if m == Relative {
		p += e.base
	}
	if p < 0 {
		return 0, &AddressError{Param: k, Mode: m, Addr: p}
	}
	return uint64(p), nil
}

func (e *Engine) logf(mess string, args ...interface{}) {
	if e.logfn != nil {
		e.logfn(e.name+" "+mess, args...)
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
