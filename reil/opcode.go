package reil

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/reilerrors"
)

// Opcode is one of the seventeen REIL operations.
type Opcode uint8

// REIL Instructions
const (
	ADD   Opcode = iota + 1 // op1 + op2 -> op3
	AND                     // op1 & op2 -> op3
	BISZ                    // op1 == 0 -> op3
	BSH                     // op1 << op2 (op2 signed; negative shifts right) -> op3
	DIV                     // op1 / op2 (unsigned) -> op3
	JCC                     // if op1 != 0 goto op3
	LDM                     // mem[op1] -> op3
	MOD                     // op1 % op2 (unsigned) -> op3
	MUL                     // op1 * op2 -> op3
	NOP                     //
	OR                      // op1 | op2 -> op3
	STM                     // op1 -> mem[op3]
	STR                     // op1 -> op3
	SUB                     // op1 - op2 -> op3
	UNDEF                   // op3 becomes undefined
	UNKN                    // untranslatable native instruction
	XOR                     // op1 ^ op2 -> op3
)

var opcodeNames = map[Opcode]string{
	ADD:   "add",
	AND:   "and",
	BISZ:  "bisz",
	BSH:   "bsh",
	DIV:   "div",
	JCC:   "jcc",
	LDM:   "ldm",
	MOD:   "mod",
	MUL:   "mul",
	NOP:   "nop",
	OR:    "or",
	STM:   "stm",
	STR:   "str",
	SUB:   "sub",
	UNDEF: "undef",
	UNKN:  "unkn",
	XOR:   "xor",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "invalid"
}

// Valid reports whether o is part of the instruction set.
func (o Opcode) Valid() bool {
	_, ok := opcodeNames[o]
	return ok
}

// ParseOpcode maps a mnemonic such as "bisz" or "BISZ" to its opcode.
func ParseOpcode(s string) (Opcode, error) {
	lower := strings.ToLower(s)
	for op, name := range opcodeNames {
		if name == lower {
			return op, nil
		}
	}
	return 0, errors.Wrapf(reilerrors.ErrIUnknownOpcode, "%q", s)
}
