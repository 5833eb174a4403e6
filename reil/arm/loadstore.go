package arm

import (
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reilerrors"
)

// transferWidth returns the memory width of a single load or store and
// whether a load sign extends.
func transferWidth(op Opcode) (reil.OperandSize, bool) {
	switch op {
	case LDRB, LDRBT, STRB, STRBT, SWPB:
		return reil.BYTE, false
	case LDRSB:
		return reil.BYTE, true
	case LDRH, STRH:
		return reil.WORD, false
	case LDRSH:
		return reil.WORD, true
	}
	return dword, false
}

// truncate narrows a DWORD register value for a store of the given width.
func (l *lifter) truncate(v reil.Operand, size reil.OperandSize) reil.Operand {
	if size == dword {
		return v
	}
	return l.And(v, reil.Lit(size.Mask64(), size), size)
}

// finishTransfer writes the loaded registers and the updated base. A load
// into PC is emitted last since it leaves the instruction.
func (l *lifter) finishTransfer(a addressOperand, updated reil.Operand, targets []string, values []reil.Operand) {
	var pc reil.Operand
	for i, rt := range targets {
		if rt == "PC" {
			pc = values[i]
			continue
		}
		l.write(rt, values[i])
	}
	if !updated.IsEmpty() {
		l.write(a.base, updated)
	}
	if !pc.IsEmpty() {
		l.writeInterworking("PC", pc)
	}
}

func translateLoad(l *lifter) error {
	if err := l.arity(2); err != nil {
		return err
	}
	rt, err := l.reg(0)
	if err != nil {
		return err
	}
	a, err := l.matchAddress(l.ops[1])
	if err != nil {
		return err
	}
	addr, updated := l.emitAddress(a)
	size, signed := transferWidth(l.mn.Opcode)
	v := l.Load(addr, size)
	if signed {
		v = l.signExtend(v, int64(size), dword)
	}
	l.finishTransfer(a, updated, []string{rt}, []reil.Operand{v})
	return nil
}

func translateStore(l *lifter) error {
	if err := l.arity(2); err != nil {
		return err
	}
	rt, err := l.reg(0)
	if err != nil {
		return err
	}
	a, err := l.matchAddress(l.ops[1])
	if err != nil {
		return err
	}
	addr, updated := l.emitAddress(a)
	size, _ := transferWidth(l.mn.Opcode)
	l.Store(l.truncate(l.read(rt), size), addr)
	l.finishTransfer(a, updated, nil, nil)
	return nil
}

// translateDual lifts LDRD and STRD. The second register defaults to the
// one after the first.
func translateDual(l *lifter) error {
	if err := l.arity(2, 3); err != nil {
		return err
	}
	rt, err := l.reg(0)
	if err != nil {
		return err
	}
	var rt2 string
	if len(l.ops) == 3 {
		if rt2, err = l.reg(1); err != nil {
			return err
		}
	} else {
		n := RegisterIndex(rt)
		if n%2 != 0 || n >= 14 {
			return l.fail(reilerrors.ErrLRegister, "%s cannot start a register pair", rt)
		}
		rt2 = registerName(n + 1)
	}
	a, err := l.matchAddress(l.ops[len(l.ops)-1])
	if err != nil {
		return err
	}
	addr, updated := l.emitAddress(a)
	second := l.Add(addr, reil.Lit(4, dword), dword)
	if l.mn.Opcode == STRD {
		l.Store(l.read(rt), addr)
		l.Store(l.read(rt2), second)
		l.finishTransfer(a, updated, nil, nil)
		return nil
	}
	v1 := l.Load(addr, dword)
	v2 := l.Load(second, dword)
	l.finishTransfer(a, updated, []string{rt, rt2}, []reil.Operand{v1, v2})
	return nil
}

// translateStoreExclusive lifts STREX Rd, Rt, [Rn]. Without a monitor the
// store always succeeds and Rd is cleared.
func translateStoreExclusive(l *lifter) error {
	if err := l.arity(3); err != nil {
		return err
	}
	regs, err := l.regs(0, 1)
	if err != nil {
		return err
	}
	a, err := l.matchAddress(l.ops[2])
	if err != nil {
		return err
	}
	if a.writesBack() {
		return l.fail(reilerrors.ErrLOperandShape, "exclusive store with writeback %s", l.ops[2])
	}
	addr, _ := l.emitAddress(a)
	l.Store(l.read(regs[1]), addr)
	l.write(regs[0], reil.Lit(0, dword))
	return nil
}

// translateSwap lifts SWP and SWPB Rt, Rt2, [Rn].
func translateSwap(l *lifter) error {
	if err := l.arity(3); err != nil {
		return err
	}
	regs, err := l.regs(0, 1)
	if err != nil {
		return err
	}
	a, err := l.matchAddress(l.ops[2])
	if err != nil {
		return err
	}
	if a.mode != indexOffset || a.indexed {
		return l.fail(reilerrors.ErrLOperandShape, "swap address %s", l.ops[2])
	}
	addr, _ := l.emitAddress(a)
	size, _ := transferWidth(l.mn.Opcode)
	old := l.Load(addr, size)
	l.Store(l.truncate(l.read(regs[1]), size), addr)
	l.write(regs[0], old)
	return nil
}
