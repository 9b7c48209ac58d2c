package intcode

import (
	"fmt"
	"strings"
)

// Instruction is a decoded instruction word: an opcode, and one mode for each
// of its parameters. Modes past Op.Arity() are always Position.
type Instruction struct {
	Op    Opcode
	Modes [3]Mode
}

// Arity returns the number of parameters that follow the instruction word.
func (ins Instruction) Arity() int { return ins.Op.Arity() }

func (ins Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(ins.Op.String())
	for _, m := range ins.Modes[:ins.Arity()] {
		sb.WriteByte(' ')
		sb.WriteString(m.String())
	}
	return sb.String()
}

// Decode splits an instruction word into its opcode and parameter modes.
func Decode(word int64) (ins Instruction, err error) {
	if word < 0 {
		return ins, &DecodeError{Word: word, Op: -1}
	}
	ins.Op = Opcode(word % 100)
	if !ins.Op.Valid() {
		return ins, &DecodeError{Word: word, Op: word % 100}
	}
	digits := word / 100
	for i := 0; i < ins.Op.Arity(); i++ {
		d := digits % 10
		digits /= 10
		if d > int64(Relative) {
			return ins, &DecodeError{Word: word, Op: int64(ins.Op), Param: i + 1, Digit: d}
		}
		ins.Modes[i] = Mode(d)
	}
	return ins, nil
}

// DecodeError is returned for any instruction word that an engine cannot
// execute. It is always fatal to the engine.
type DecodeError struct {
	Word int64

	// Op is the offending opcode, or -1 if the word holds no opcode at all.
	Op int64

	// Param, if non-zero, is the 1-based parameter whose mode is at fault,
	// and Digit is its mode digit.
	Param int
	Digit int64

	// Unsupported is set when the word is well formed, but uses an opcode
	// or mode outside the engine's Capabilities.
	Unsupported bool
}

func (err *DecodeError) Error() string {
	switch {
	case err.Op < 0:
		return fmt.Sprintf("no opcode in word %d", err.Word)
	case err.Param > 0 && err.Unsupported:
		return fmt.Sprintf("unsupported %v mode for parameter %d of %v",
			Mode(err.Digit), err.Param, Opcode(err.Op))
	case err.Param > 0:
		return fmt.Sprintf("invalid mode digit %d for parameter %d in word %d",
			err.Digit, err.Param, err.Word)
	case err.Unsupported:
		return fmt.Sprintf("unsupported opcode %v", Opcode(err.Op))
	}
	return fmt.Sprintf("unknown opcode %d", err.Op)
}
