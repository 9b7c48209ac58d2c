package intcode_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jcorbin/intcode/internal/intcode"
	"github.com/jcorbin/intcode/internal/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineTestCases []engineTestCase

func (ets engineTestCases) run(t *testing.T) {
	for _, et := range ets {
		if !t.Run(et.name, et.run) {
			return
		}
	}
}

func engineTest(name string, prog ...int64) (et engineTestCase) {
	et.name = name
	et.prog = prog
	et.state = intcode.Halted
	return et
}

type engineTestCase struct {
	name    string
	prog    []int64
	opts    []intcode.Option
	input   []int64
	output  []int64
	state   intcode.State
	expect  []func(t *testing.T, e *intcode.Engine)
	wantErr func(t *testing.T, err error)
	timeout time.Duration
}

func (et engineTestCase) withOptions(opts ...intcode.Option) engineTestCase {
	et.opts = append(et.opts, opts...)
	return et
}

func (et engineTestCase) withCaps(caps intcode.Capabilities) engineTestCase {
	return et.withOptions(intcode.WithCapabilities(caps))
}

func (et engineTestCase) withInput(values ...int64) engineTestCase {
	et.input = append(et.input, values...)
	return et
}

func (et engineTestCase) withTimeout(timeout time.Duration) engineTestCase {
	et.timeout = timeout
	return et
}

func (et engineTestCase) expectOutput(values ...int64) engineTestCase {
	et.output = append(et.output, values...)
	return et
}

func (et engineTestCase) expectMemAt(addr uint64, values ...int64) engineTestCase {
	et.expect = append(et.expect, func(t *testing.T, e *intcode.Engine) {
		for i, value := range values {
			at := addr + uint64(i)
			got, err := e.Load(at)
			require.NoError(t, err, "unexpected load @%v error", at)
			assert.Equal(t, value, got, "expected value @%v", at)
		}
	})
	return et
}

func (et engineTestCase) expectMemory(values ...int64) engineTestCase {
	et.expect = append(et.expect, func(t *testing.T, e *intcode.Engine) {
		snap, err := e.Snapshot()
		require.NoError(t, err, "unexpected snapshot error")
		assert.Equal(t, values, snap, "expected memory")
	})
	return et
}

func (et engineTestCase) expectRelativeBase(base int64) engineTestCase {
	et.expect = append(et.expect, func(t *testing.T, e *intcode.Engine) {
		assert.Equal(t, base, e.RelativeBase(), "expected relative base")
	})
	return et
}

func (et engineTestCase) expectState(state intcode.State) engineTestCase {
	et.state = state
	return et
}

func (et engineTestCase) expectError(check func(t *testing.T, err error)) engineTestCase {
	et.wantErr = check
	et.state = intcode.Failed
	return et
}

func (et engineTestCase) expectErrorIs(target error) engineTestCase {
	return et.expectError(func(t *testing.T, err error) {
		assert.True(t, errors.Is(err, target), "expected %v, got %v", target, err)
	})
}

func (et engineTestCase) expectDecodeError(want intcode.DecodeError) engineTestCase {
	return et.expectError(func(t *testing.T, err error) {
		var de *intcode.DecodeError
		if assert.True(t, errors.As(err, &de), "expected a DecodeError, got %v", err) {
			assert.Equal(t, want, *de)
		}
	})
}

func (et engineTestCase) expectAddressError(want intcode.AddressError) engineTestCase {
	return et.expectError(func(t *testing.T, err error) {
		var ae *intcode.AddressError
		if assert.True(t, errors.As(err, &ae), "expected an AddressError, got %v", err) {
			assert.Equal(t, want, *ae)
		}
	})
}

func (et engineTestCase) run(t *testing.T) {
	timeout := et.timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	in := intcode.Values(et.input)
	var out intcode.Collect
	e, err := intcode.New(et.prog, append([]intcode.Option{
		intcode.WithName(et.name),
		intcode.WithLogf(t.Logf),
		intcode.WithInput(&in),
		intcode.WithOutput(&out),
	}, et.opts...)...)
	require.NoError(t, err, "unexpected engine construction error")

	res, err := e.Run(ctx)
	if et.wantErr != nil {
		require.Error(t, err, "expected a run error")
		et.wantErr(t, err)
	} else {
		require.NoError(t, err, "unexpected run error")
	}
	assert.Equal(t, et.state, res.State, "expected final state")
	assert.Equal(t, et.state, e.State(), "expected engine state")
	assert.Equal(t, []int64(et.output), []int64(out), "expected output")
	for _, expect := range et.expect {
		expect(t, e)
	}
}

func Test_Engine_arithmetic(t *testing.T) {
	engineTestCases{
		engineTest("add", 1, 0, 0, 0, 99).
			expectMemory(2, 0, 0, 0, 99),
		engineTest("mul", 2, 3, 0, 3, 99).
			expectMemory(2, 3, 0, 6, 99),
		engineTest("mul into last cell", 2, 4, 4, 5, 99, 0).
			expectMemory(2, 4, 4, 5, 99, 9801),
		engineTest("self modifying", 1, 1, 1, 4, 99, 5, 6, 0, 99).
			expectMemory(30, 1, 1, 4, 2, 5, 6, 0, 99),
		engineTest("two opcode program", 1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50).
			expectMemAt(0, 3500).
			expectMemory(3500, 9, 10, 70, 2, 3, 11, 0, 99, 30, 40, 50),
		engineTest("two opcode program on the arithmetic machine", 1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50).
			withCaps(intcode.Arithmetic).
			expectMemory(3500, 9, 10, 70, 2, 3, 11, 0, 99, 30, 40, 50),
		engineTest("negative add", 1101, -7, 3, 5, 99, 0).
			expectMemAt(5, -4),
	}.run(t)
}

func Test_Engine_modes(t *testing.T) {
	engineTestCases{
		engineTest("immediate mul", 1002, 4, 3, 4, 33).
			expectMemory(1002, 4, 3, 4, 99),
		engineTest("negative immediate", 1101, 100, -1, 4, 0).
			expectMemory(1101, 100, -1, 4, 99),
		engineTest("echo", 3, 0, 4, 0, 99).
			withInput(42).
			expectOutput(42),
		engineTest("immediate output", 104, -9, 99).
			expectOutput(-9),
		engineTest("relative round trip", 109, 50, 203, 5, 204, 5, 99).
			withInput(77).
			expectOutput(77).
			expectMemAt(55, 77).
			expectRelativeBase(50),
		engineTest("relative negative offset", 109, 20, 21101, 2, 3, -4, 204, -4, 99).
			expectOutput(5).
			expectMemAt(16, 5).
			expectRelativeBase(20),
		engineTest("adjust base twice", 109, 7, 109, -3, 204, 0, 99).
			expectOutput(204).
			expectRelativeBase(4),
		engineTest("legacy immediate write", 11101, 1, 1, 3, 99).
			withCaps(intcode.Capabilities{
				Ops:             intcode.Classic.Ops,
				Modes:           intcode.Classic.Modes,
				Memory:          intcode.FixedMemory,
				ImmediateWrites: true,
			}).
			expectMemory(11101, 1, 1, 2, 99),
	}.run(t)
}

func Test_Engine_sparse(t *testing.T) {
	engineTestCases{
		engineTest("quine", 109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99).
			expectOutput(109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99),
		engineTest("large product", 1102, 34915192, 34915192, 7, 4, 7, 99, 0).
			expectOutput(1219070632396864),
		engineTest("large literal", 104, 1125899906842624, 99).
			expectOutput(1125899906842624),
		engineTest("write far past the image", 1101, 7, 8, 1000000, 4, 1000000, 99).
			expectOutput(15).
			expectMemAt(1000000, 15).
			expectMemAt(999999, 0),
		engineTest("read unwritten far address", 4, 5000000000, 99).
			expectOutput(0),
		engineTest("small pages", 1101, 7, 8, 300, 4, 300, 99).
			withOptions(intcode.WithPageSize(4)).
			expectOutput(15),
	}.run(t)
}

func Test_Engine_comparisons(t *testing.T) {
	type inout struct{ in, out int64 }
	for _, tc := range []struct {
		name string
		prog []int64
		ios  []inout
	}{
		{"equal to 8, position", []int64{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8},
			[]inout{{8, 1}, {7, 0}, {-8, 0}}},
		{"less than 8, position", []int64{3, 9, 7, 9, 10, 9, 4, 9, 99, -1, 8},
			[]inout{{7, 1}, {8, 0}, {-3, 1}}},
		{"equal to 8, immediate", []int64{3, 3, 1108, -1, 8, 3, 4, 3, 99},
			[]inout{{8, 1}, {9, 0}}},
		{"less than 8, immediate", []int64{3, 3, 1107, -1, 8, 3, 4, 3, 99},
			[]inout{{-100, 1}, {8, 0}, {9, 0}}},
		{"jump position", []int64{3, 12, 6, 12, 15, 1, 13, 14, 13, 4, 13, 99, -1, 0, 1, 9},
			[]inout{{0, 0}, {5, 1}, {-5, 1}}},
		{"jump immediate", []int64{3, 3, 1105, -1, 9, 1101, 0, 0, 12, 4, 12, 99, 1},
			[]inout{{0, 0}, {-1, 1}}},
		{"around 8", []int64{3, 21, 1008, 21, 8, 20, 1005, 20, 22, 107, 8, 21, 20, 1006, 20, 31,
			1106, 0, 36, 98, 0, 0, 1002, 21, 125, 20, 4, 20, 1105, 1, 46, 104,
			999, 1105, 1, 46, 1101, 1000, 1, 20, 4, 20, 1105, 1, 46, 98, 99},
			[]inout{{7, 999}, {8, 1000}, {9, 1001}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, caps := range []string{"classic", "complete"} {
				t.Run(caps, func(t *testing.T) {
					c, err := intcode.ParseCapabilities(caps)
					require.NoError(t, err)
					var ets engineTestCases
					for _, x := range tc.ios {
						ets = append(ets, engineTest(fmt.Sprintf("in=%d", x.in), tc.prog...).
							withCaps(c).
							withInput(x.in).
							expectOutput(x.out))
					}
					ets.run(t)
				})
			}
		})
	}
}

func Test_Engine_compareValues(t *testing.T) {
	values := []int64{-1 << 40, -5, -3, -1, 0, 1, 3, 1 << 40}
	for _, a := range values {
		for _, b := range values {
			for _, op := range []int64{1107, 1108} {
				e, err := intcode.New([]int64{op, a, b, 7, 4, 7, 99, 9})
				require.NoError(t, err)
				v, ok, err := e.Next(context.Background())
				require.NoError(t, err)
				require.True(t, ok, "expected an output")
				want := int64(0)
				if (op == 1107 && a < b) || (op == 1108 && a == b) {
					want = 1
				}
				assert.Equal(t, want, v, "%v %v %v", intcode.Opcode(op%100), a, b)
			}
		}
	}
}

func Test_Engine_jumps(t *testing.T) {
	prog := func(op, cond int64) []int64 {
		return []int64{op, cond, 7, 104, 1, 99, 0, 104, 2, 99}
	}
	engineTestCases{
		engineTest("jt fires on nonzero", prog(1105, 3)...).expectOutput(2),
		engineTest("jt fires on negative", prog(1105, -1)...).expectOutput(2),
		engineTest("jt falls through on zero", prog(1105, 0)...).expectOutput(1),
		engineTest("jf fires on zero", prog(1106, 0)...).expectOutput(2),
		engineTest("jf falls through on nonzero", prog(1106, 9)...).expectOutput(1),
		engineTest("jump to negative", 1105, 1, -4).
			expectAddressError(intcode.AddressError{Param: 2, Mode: intcode.Immediate, Addr: -4}),
	}.run(t)
}

func Test_Engine_errors(t *testing.T) {
	engineTestCases{
		engineTest("unknown opcode", 42).
			expectDecodeError(intcode.DecodeError{Word: 42, Op: 42}),
		engineTest("negative word", -1).
			expectDecodeError(intcode.DecodeError{Word: -1, Op: -1}),
		engineTest("bad mode digit", 301, 0, 0, 0, 99).
			expectDecodeError(intcode.DecodeError{Word: 301, Op: 1, Param: 1, Digit: 3}),
		engineTest("unsupported opcode", 3, 0, 99).
			withCaps(intcode.Arithmetic).
			withInput(1).
			expectDecodeError(intcode.DecodeError{Word: 3, Op: 3, Unsupported: true}),
		engineTest("unsupported mode", 1101, 1, 1, 0, 99).
			withCaps(intcode.Arithmetic).
			expectDecodeError(intcode.DecodeError{Word: 1101, Op: 1, Param: 1, Digit: 1, Unsupported: true}),
		engineTest("no relative on the classic machine", 109, 1, 99).
			withCaps(intcode.Classic).
			expectDecodeError(intcode.DecodeError{Word: 109, Op: 9, Unsupported: true}),
		engineTest("immediate write target", 11101, 1, 1, 0, 99).
			expectAddressError(intcode.AddressError{Param: 3, Mode: intcode.Immediate, Addr: 3}),
		engineTest("immediate input target", 103, 0, 99).
			withInput(5).
			expectAddressError(intcode.AddressError{Param: 1, Mode: intcode.Immediate, Addr: 1}),
		engineTest("negative position", 4, -1, 99).
			expectAddressError(intcode.AddressError{Param: 1, Mode: intcode.Position, Addr: -1}),
		engineTest("negative relative", 109, -10, 204, 3, 99).
			expectAddressError(intcode.AddressError{Param: 1, Mode: intcode.Relative, Addr: -7}),
		engineTest("input exhausted", 3, 0, 99).
			expectErrorIs(intcode.ErrInputExhausted),
		engineTest("output then exhausted", 104, 1, 3, 0, 99).
			expectOutput(1).
			expectErrorIs(intcode.ErrInputExhausted),
		engineTest("fixed memory bounds", 1, 0, 0, 100, 99).
			withCaps(intcode.Arithmetic).
			expectError(func(t *testing.T, err error) {
				var lim mem.LimitError
				if assert.True(t, errors.As(err, &lim), "expected a LimitError, got %v", err) {
					assert.Equal(t, mem.LimitError{Addr: 100, Op: "stor"}, lim)
				}
			}),
		engineTest("memory limit", 1101, 1, 1, 100, 99).
			withOptions(intcode.WithMemLimit(64)).
			expectError(func(t *testing.T, err error) {
				var lim mem.LimitError
				assert.True(t, errors.As(err, &lim), "expected a LimitError, got %v", err)
			}),
		engineTest("error names the engine and pc", 1101, 1, 1, 5, 42, 99).
			expectError(func(t *testing.T, err error) {
				assert.EqualError(t, err, "error names the engine and pc @4: unknown opcode 42")
			}),
		engineTest("spin until deadline", 1105, 1, 0).
			withTimeout(50 * time.Millisecond).
			expectErrorIs(context.DeadlineExceeded).
			expectState(intcode.Running),
	}.run(t)
}

func Test_Engine_Step(t *testing.T) {
	ctx := context.Background()
	e, err := intcode.New([]int64{1, 0, 0, 0, 104, 7, 99})
	require.NoError(t, err)

	ev, err := e.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, intcode.Event{Kind: intcode.StepContinue}, ev)
	assert.Equal(t, uint64(4), e.PC())

	ev, err = e.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, intcode.Event{Kind: intcode.StepOutput, Value: 7}, ev)
	assert.Equal(t, uint64(6), e.PC())

	for i := 0; i < 3; i++ {
		ev, err = e.Step(ctx)
		require.NoError(t, err)
		assert.Equal(t, intcode.Event{Kind: intcode.StepHalt, Value: 7}, ev)
		assert.Equal(t, uint64(6), e.PC(), "halt does not advance")
	}
	assert.Equal(t, intcode.Result{State: intcode.Halted, Value: 7, HasValue: true, Steps: 3}, e.Result())

	val, err := e.Load(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), val)
}

func Test_Engine_Step_failed(t *testing.T) {
	ctx := context.Background()
	e, err := intcode.New([]int64{42})
	require.NoError(t, err)
	_, err1 := e.Step(ctx)
	_, err2 := e.Step(ctx)
	require.Error(t, err1)
	assert.Equal(t, err1, err2, "a failed engine keeps its error")
	assert.Equal(t, intcode.Failed, e.State())
	_, err = e.Result().Output()
	assert.Equal(t, intcode.ErrNoOutput, err)
}

func Test_Engine_Next(t *testing.T) {
	ctx := context.Background()
	in := intcode.Values{3}
	e, err := intcode.New([]int64{3, 11, 4, 11, 1002, 11, 2, 11, 4, 11, 99, 0}, intcode.WithInput(&in))
	require.NoError(t, err)

	var got []int64
	for {
		v, ok, err := e.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int64{3, 6}, got)
	assert.Equal(t, intcode.Halted, e.State())
}

func Test_Engine_hungUp(t *testing.T) {
	out := intcode.NewPort()
	out.Hangup()
	e, err := intcode.New([]int64{104, 7, 104, 8, 99}, intcode.WithOutput(out))
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err, "a hung up output is not an error")
	assert.Equal(t, intcode.Result{State: intcode.HungUp, Value: 7, HasValue: true, Steps: 1}, res)
	assert.Equal(t, uint64(0), e.PC(), "the refused output is not retired")
}

func Test_Engine_releasesPorts(t *testing.T) {
	ctx := context.Background()
	in, out := intcode.NewPort(1), intcode.NewPort()
	e, err := intcode.New([]int64{3, 0, 99}, intcode.WithInput(in), intcode.WithOutput(out))
	require.NoError(t, err)
	_, err = e.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, intcode.ErrHungUp, in.Send(ctx, 2), "input must be hung up")
	_, err = out.Recv(ctx)
	assert.Equal(t, intcode.ErrInputExhausted, err, "output must be closed")
}

func Test_Engine_cancelledInput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := intcode.NewPort()
	e, err := intcode.New([]int64{3, 5, 4, 5, 99, 0}, intcode.WithInput(in))
	require.NoError(t, err)

	cancel()
	_, err = e.Step(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "expected cancellation, got %v", err)
	assert.Equal(t, intcode.Running, e.State(), "cancellation is not fatal")
	assert.Equal(t, uint64(0), e.PC())

	ctx = context.Background()
	require.NoError(t, in.Send(ctx, 11))
	v, ok, err := e.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(11), v, "resumed engine must see the input")
}

func Test_Engine_privateMemory(t *testing.T) {
	prog := []int64{1101, 2, 3, 0, 99}
	a, err := intcode.New(prog)
	require.NoError(t, err)
	b, err := intcode.New(prog)
	require.NoError(t, err)

	_, err = a.Run(context.Background())
	require.NoError(t, err)

	av, _ := a.Load(0)
	bv, _ := b.Load(0)
	assert.Equal(t, int64(5), av)
	assert.Equal(t, int64(1101), bv, "engines must not share memory")
	assert.Equal(t, int64(1101), prog[0], "the image must not be mutated")
}
