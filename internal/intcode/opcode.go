package intcode

import "fmt"

// Opcode identifies an instruction.
type Opcode int

// Intcode opcodes.
const (
	OpAdd Opcode = iota + 1
	OpMul
	OpInput
	OpOutput
	OpJumpIfTrue
	OpJumpIfFalse
	OpLessThan
	OpEquals
	OpAdjustBase

	OpHalt Opcode = 99
)

var opcodes = [...]struct {
	name  string
	arity int
}{
	OpAdd:         {"add", 3},
	OpMul:         {"mul", 3},
	OpInput:       {"in", 1},
	OpOutput:      {"out", 1},
	OpJumpIfTrue:  {"jt", 2},
	OpJumpIfFalse: {"jf", 2},
	OpLessThan:    {"lt", 3},
	OpEquals:      {"eq", 3},
	OpAdjustBase:  {"arb", 1},
}

// Valid returns true if op is a known opcode.
func (op Opcode) Valid() bool {
	return op == OpHalt || (op > 0 && int(op) < len(opcodes))
}

// Arity returns the number of parameters that follow op.
func (op Opcode) Arity() int {
	if op != OpHalt && op.Valid() {
		return opcodes[op].arity
	}
	return 0
}

func (op Opcode) String() string {
	switch {
	case op == OpHalt:
		return "halt"
	case op.Valid():
		return opcodes[op].name
	}
	return fmt.Sprintf("op%d", int(op))
}

// Mode is a parameter addressing mode.
type Mode int

// Parameter modes.
const (
	Position Mode = iota
	Immediate
	Relative
)

func (m Mode) String() string {
	switch m {
	case Position:
		return "pos"
	case Immediate:
		return "imm"
	case Relative:
		return "rel"
	}
	return fmt.Sprintf("mode%d", int(m))
}
