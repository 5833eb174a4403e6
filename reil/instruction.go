package reil

import (
	"fmt"
	"strings"
)

// SubAddress locates a REIL instruction: the native instruction it was
// lifted from and its position inside that instruction's REIL code.
type SubAddress struct {
	Native uint64
	Offset uint8
}

// Encoded packs the sub-address as native*0x100 + offset.
func (a SubAddress) Encoded() uint64 {
	return a.Native<<8 | uint64(a.Offset)
}

// DecodeSubAddress is the inverse of Encoded.
func DecodeSubAddress(v uint64) SubAddress {
	return SubAddress{Native: v >> 8, Offset: uint8(v)}
}

func (a SubAddress) String() string {
	return fmt.Sprintf("%08X.%02X", a.Native, a.Offset)
}

// Instruction is a single REIL instruction. Unused operand slots are Empty.
type Instruction struct {
	Address SubAddress
	Opcode  Opcode
	First   Operand
	Second  Operand
	Third   Operand
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s: %s [%s, %s, %s]", i.Address, i.Opcode, i.First, i.Second, i.Third)
}

// Program is the REIL code of one or more native instructions, in emission order.
type Program []Instruction

// At returns the instructions lifted from the native instruction at address.
func (p Program) At(native uint64) []Instruction {
	var out []Instruction
	for _, inst := range p {
		if inst.Address.Native == native {
			out = append(out, inst)
		}
	}
	return out
}

// Natives lists the distinct native addresses in emission order.
func (p Program) Natives() []uint64 {
	var out []uint64
	seen := make(map[uint64]bool)
	for _, inst := range p {
		if !seen[inst.Address.Native] {
			seen[inst.Address.Native] = true
			out = append(out, inst.Address.Native)
		}
	}
	return out
}

func (p Program) String() string {
	var sb strings.Builder
	for _, inst := range p {
		sb.WriteString(inst.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
