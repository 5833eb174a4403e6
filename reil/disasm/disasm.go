// Package disasm decodes ARM machine code into the operand trees consumed by
// the lifter.
package disasm

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/arch/arm/armasm"

	"github.com/colorfulnotion/reil/reil/tree"
	"github.com/colorfulnotion/reil/reilerrors"
)

const wordSize = "b4"

// Decode decodes one little-endian ARM mode instruction at address.
func Decode(code []byte, address uint64) (*tree.Instruction, error) {
	inst, err := armasm.Decode(code, armasm.ModeARM)
	if err != nil {
		return nil, errors.Wrapf(reilerrors.ErrLDecode, "%08X: %v", address, err)
	}
	mnemonic := inst.Op.String()
	if strings.HasSuffix(mnemonic, ".ZZ") || strings.HasPrefix(mnemonic, "Op(") {
		return nil, errors.Wrapf(reilerrors.ErrLDecode, "%08X: %s", address, mnemonic)
	}
	out := &tree.Instruction{
		Address:  address,
		Mnemonic: strings.ReplaceAll(mnemonic, ".", ""),
	}
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		n, err := operand(arg, address)
		if err != nil {
			return nil, errors.Wrapf(err, "%08X %s", address, inst)
		}
		out.Operands = append(out.Operands, tree.NewSize(wordSize, n))
	}
	return out, nil
}

// DecodeAll decodes consecutive instructions starting at address. Big-endian
// input is byte swapped word by word first.
func DecodeAll(code []byte, address uint64, bigEndian bool) ([]*tree.Instruction, error) {
	if len(code)%4 != 0 {
		return nil, errors.Wrapf(reilerrors.ErrLDecode, "%d bytes is not a whole number of words", len(code))
	}
	var insts []*tree.Instruction
	word := make([]byte, 4)
	for off := 0; off < len(code); off += 4 {
		copy(word, code[off:off+4])
		if bigEndian {
			binary.LittleEndian.PutUint32(word, binary.BigEndian.Uint32(word))
		}
		inst, err := Decode(word, address+uint64(off))
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

func register(r armasm.Reg) *tree.Node {
	return tree.NewRegister(r.String())
}

func immediate(v int64) *tree.Node {
	return tree.NewImmediate(v)
}

func shifted(r armasm.Reg, s armasm.Shift, count uint8) *tree.Node {
	if s == armasm.RotateRightExt {
		return tree.NewOperator(tree.OpRRX, register(r))
	}
	return tree.NewOperator(s.String(), register(r), immediate(int64(count)))
}

func operand(arg armasm.Arg, address uint64) (*tree.Node, error) {
	switch a := arg.(type) {
	case armasm.Reg:
		if a > armasm.PC {
			break
		}
		return register(a), nil
	case armasm.Imm:
		return immediate(int64(a)), nil
	case armasm.ImmAlt:
		return tree.NewOperator(tree.OpROR, immediate(int64(a.Val)), immediate(int64(a.Rot))), nil
	case armasm.Label:
		return immediate(int64(a)), nil
	case armasm.PCRel:
		return immediate(int64(uint32(int64(address) + 8 + int64(a)))), nil
	case armasm.RegShift:
		return shifted(a.Reg, a.Shift, a.Count), nil
	case armasm.RegShiftReg:
		return tree.NewOperator(a.Shift.String(), register(a.Reg), register(a.RegCount)), nil
	case armasm.RegList:
		var regs []*tree.Node
		for k := 0; k < 16; k++ {
			if a&(1<<uint(k)) != 0 {
				regs = append(regs, register(armasm.Reg(k)))
			}
		}
		return tree.NewList(regs...), nil
	case armasm.Mem:
		return memory(a)
	}
	return nil, errors.Wrapf(reilerrors.ErrLOperandShape, "%T %s", arg, arg)
}

func memory(m armasm.Mem) (*tree.Node, error) {
	base := register(m.Base)
	switch m.Mode {
	case armasm.AddrLDM:
		return base, nil
	case armasm.AddrLDM_WB:
		return tree.NewOperator(tree.OpWriteback, base), nil
	}

	var index *tree.Node
	if m.Sign != 0 {
		index = register(m.Index)
		if m.Shift != armasm.ShiftLeft || m.Count != 0 {
			index = shifted(m.Index, m.Shift, m.Count)
		}
		if m.Sign < 0 {
			index = tree.NewOperator(tree.OpNegate, index)
		}
	} else {
		index = immediate(int64(m.Offset))
	}

	switch m.Mode {
	case armasm.AddrOffset:
		if m.Sign == 0 && m.Offset == 0 {
			return tree.NewDeref(base), nil
		}
		return tree.NewDeref(tree.NewOperator(tree.OpSeparator, base, index)), nil
	case armasm.AddrPreIndex:
		return tree.NewOperator(tree.OpWriteback, tree.NewDeref(tree.NewOperator(tree.OpSeparator, base, index))), nil
	case armasm.AddrPostIndex:
		return tree.NewOperator(tree.OpSeparator, tree.NewDeref(base), index), nil
	}
	return nil, errors.Wrapf(reilerrors.ErrLOperandShape, "addressing mode %d", m.Mode)
}
