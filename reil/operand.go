package reil

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/colorfulnotion/reil/reilerrors"
)

// OperandSize is the width of a REIL operand in bits.
type OperandSize uint16

const (
	EMPTY OperandSize = 0
	BYTE  OperandSize = 8
	WORD  OperandSize = 16
	DWORD OperandSize = 32
	QWORD OperandSize = 64
	OWORD OperandSize = 128
	// ADDRESS is the size of sub-address operands.
	ADDRESS OperandSize = 64
)

func (s OperandSize) String() string {
	switch s {
	case EMPTY:
		return "EMPTY"
	case BYTE:
		return "BYTE"
	case WORD:
		return "WORD"
	case DWORD:
		return "DWORD"
	case QWORD:
		return "QWORD"
	case OWORD:
		return "OWORD"
	}
	return fmt.Sprintf("SIZE(%d)", uint16(s))
}

// Bytes is the number of bytes an operand of this size occupies in memory.
func (s OperandSize) Bytes() int {
	return int(s) / 8
}

// Mask returns 2^s - 1.
func (s OperandSize) Mask() *uint256.Int {
	one := uint256.NewInt(1)
	m := new(uint256.Int).Lsh(one, uint(s))
	return m.Sub(m, one)
}

// Mask64 returns the mask truncated to 64 bits.
func (s OperandSize) Mask64() uint64 {
	if s >= QWORD {
		return ^uint64(0)
	}
	return (uint64(1) << uint(s)) - 1
}

// Next returns the next larger size, used to hold carries out of s.
func (s OperandSize) Next() OperandSize {
	switch s {
	case BYTE:
		return WORD
	case WORD:
		return DWORD
	case DWORD:
		return QWORD
	}
	return OWORD
}

// ParseOperandSize accepts "byte", "WORD", "b4" style names.
func ParseOperandSize(name string) (OperandSize, error) {
	switch strings.ToLower(name) {
	case "byte", "b1":
		return BYTE, nil
	case "word", "b2":
		return WORD, nil
	case "dword", "b4":
		return DWORD, nil
	case "qword", "b8":
		return QWORD, nil
	case "oword", "b16":
		return OWORD, nil
	}
	return EMPTY, errors.Wrapf(reilerrors.ErrLSizePrefix, "%q", name)
}

// OperandKind tags the variant held by an Operand.
type OperandKind uint8

const (
	KindEmpty OperandKind = iota
	KindRegister
	KindTemporary
	KindLiteral
	KindSubAddress
)

// Operand is a typed reference used by a REIL instruction.
type Operand struct {
	Kind   OperandKind
	Size   OperandSize
	Name   string     // register or temporary name
	Value  uint64     // literal value, masked to Size
	Target SubAddress // jump target for KindSubAddress
}

// Empty is the unused operand slot.
var Empty = Operand{}

// Reg references a native register.
func Reg(name string, size OperandSize) Operand {
	return Operand{Kind: KindRegister, Size: size, Name: name}
}

// Temp references a REIL temporary.
func Temp(name string, size OperandSize) Operand {
	return Operand{Kind: KindTemporary, Size: size, Name: name}
}

// Lit is an integer literal masked to size.
func Lit(value uint64, size OperandSize) Operand {
	return Operand{Kind: KindLiteral, Size: size, Value: value & size.Mask64()}
}

// Sub is a jump target inside the lifted code.
func Sub(target SubAddress) Operand {
	return Operand{Kind: KindSubAddress, Size: ADDRESS, Target: target}
}

func (o Operand) IsEmpty() bool    { return o.Kind == KindEmpty }
func (o Operand) IsLiteral() bool  { return o.Kind == KindLiteral }
func (o Operand) IsRegister() bool { return o.Kind == KindRegister || o.Kind == KindTemporary }

// Resize returns o with a different declared width. Literals are re-masked.
func (o Operand) Resize(size OperandSize) Operand {
	if o.Kind == KindLiteral {
		return Lit(o.Value, size)
	}
	o.Size = size
	return o
}

func (o Operand) String() string {
	switch o.Kind {
	case KindEmpty:
		return ""
	case KindRegister, KindTemporary:
		return fmt.Sprintf("%s %s", o.Size, o.Name)
	case KindLiteral:
		return fmt.Sprintf("%s %d", o.Size, o.Value)
	case KindSubAddress:
		return fmt.Sprintf("%s %s", o.Size, o.Target)
	}
	return "?"
}
