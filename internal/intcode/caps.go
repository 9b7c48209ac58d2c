package intcode

import (
	"strings"

	"github.com/pkg/errors"
)

// MemoryModel selects how an engine stores its image.
type MemoryModel int

// Memory models.
const (
	// SparseMemory is unbounded: any address may be read or written.
	SparseMemory MemoryModel = iota

	// FixedMemory is exactly as long as the program image.
	FixedMemory
)

// Capabilities describes the subset of the machine that an engine supports.
// Earlier, smaller revisions of the machine are just restricted capability
// sets of the complete one.
type Capabilities struct {
	// Ops is a bitmask of supported opcodes, bit n for opcode n.
	// Halt is always supported.
	Ops uint16

	// Modes is a bitmask of supported parameter modes, bit n for mode n.
	// Position mode is always supported.
	Modes uint8

	Memory MemoryModel

	// ImmediateWrites allows an immediate mode write target, which then
	// writes to the parameter's own address. Without it, such instructions
	// fail with an AddressError.
	ImmediateWrites bool
}

// Standard capability sets.
var (
	// Arithmetic is the two-opcode machine: add, mul, and halt over
	// fixed position-mode memory.
	Arithmetic = Capabilities{
		Ops:    opBits(OpAdd, OpMul),
		Memory: FixedMemory,
	}

	// Classic adds I/O, jumps and comparisons, along with immediate mode.
	Classic = Capabilities{
		Ops: opBits(OpAdd, OpMul, OpInput, OpOutput,
			OpJumpIfTrue, OpJumpIfFalse, OpLessThan, OpEquals),
		Modes:  modeBits(Immediate),
		Memory: FixedMemory,
	}

	// Complete is the whole machine over sparse memory.
	Complete = Capabilities{
		Ops: opBits(OpAdd, OpMul, OpInput, OpOutput,
			OpJumpIfTrue, OpJumpIfFalse, OpLessThan, OpEquals,
			OpAdjustBase),
		Modes:  modeBits(Immediate, Relative),
		Memory: SparseMemory,
	}
)

var namedCapabilities = map[string]Capabilities{
	"arithmetic": Arithmetic,
	"classic":    Classic,
	"complete":   Complete,
}

// ParseCapabilities returns a standard capability set by name.
func ParseCapabilities(name string) (Capabilities, error) {
	if caps, ok := namedCapabilities[strings.ToLower(name)]; ok {
		return caps, nil
	}
	return Capabilities{}, errors.Errorf("unknown capability set %q", name)
}

func opBits(ops ...Opcode) (bits uint16) {
	for _, op := range ops {
		bits |= 1 << uint(op)
	}
	return bits
}

func modeBits(modes ...Mode) (bits uint8) {
	for _, m := range modes {
		bits |= 1 << uint(m)
	}
	return bits
}

// HasOp returns true if op is supported.
func (caps Capabilities) HasOp(op Opcode) bool {
	return op == OpHalt || (op.Valid() && caps.Ops&(1<<uint(op)) != 0)
}

// HasMode returns true if m is supported.
func (caps Capabilities) HasMode(m Mode) bool {
	return m == Position || caps.Modes&(1<<uint(m)) != 0
}

func (caps Capabilities) check(word int64, ins Instruction) error {
	if !caps.HasOp(ins.Op) {
		return &DecodeError{Word: word, Op: int64(ins.Op), Unsupported: true}
	}
	for i, m := range ins.Modes[:ins.Arity()] {
		if !caps.HasMode(m) {
			return &DecodeError{Word: word, Op: int64(ins.Op), Param: i + 1, Digit: int64(m), Unsupported: true}
		}
	}
	return nil
}
