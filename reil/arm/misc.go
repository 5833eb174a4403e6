package arm

import (
	"github.com/colorfulnotion/reil/reil"
	"github.com/colorfulnotion/reil/reilerrors"
)

// twoRegisters decodes "Rd, Rm".
func (l *lifter) twoRegisters() (rd, rm string, err error) {
	if err = l.arity(2); err != nil {
		return
	}
	regs, err := l.regs(0, 1)
	if err != nil {
		return
	}
	return regs[0], regs[1], nil
}

// translateClz counts leading zeros with a binary search over 16, 8, 4, 2
// and 1 bit steps.
func translateClz(l *lifter) error {
	rd, rm, err := l.twoRegisters()
	if err != nil {
		return err
	}
	x := l.read(rm)
	var n reil.Operand = reil.Lit(0, dword)
	for _, s := range []int64{16, 8, 4, 2, 1} {
		empty := l.Bisz(l.Bsh(x, -(32 - s), dword))
		step := l.Mul(empty, reil.Lit(uint64(s), dword), dword)
		n = l.Add(n, step, dword)
		x = l.BshBy(x, step, dword)
	}
	n = l.Add(n, l.Bisz(l.bit(x, 31)), dword)
	l.write(rd, n)
	return nil
}

func (l *lifter) byteAt(x reil.Operand, i int64) reil.Operand {
	return l.bits(x, 8*i, 8, dword)
}

func translateReverse(l *lifter) error {
	rd, rm, err := l.twoRegisters()
	if err != nil {
		return err
	}
	x := l.read(rm)
	var res reil.Operand
	switch l.mn.Opcode {
	case REV:
		res = l.Or(
			l.Or(l.Bsh(l.byteAt(x, 0), 24, dword), l.Bsh(l.byteAt(x, 1), 16, dword), dword),
			l.Or(l.Bsh(l.byteAt(x, 2), 8, dword), l.byteAt(x, 3), dword), dword)
	case REV16:
		even := l.And(l.Bsh(x, 8, dword), reil.Lit(0xFF00FF00, dword), dword)
		odd := l.And(l.Bsh(x, -8, dword), reil.Lit(0x00FF00FF, dword), dword)
		res = l.Or(even, odd, dword)
	case REVSH:
		swapped := l.Or(l.Bsh(l.byteAt(x, 0), 8, dword), l.byteAt(x, 1), dword)
		res = l.signExtend(swapped, 16, dword)
	case RBIT:
		res = x
		for _, s := range []struct {
			shift int64
			mask  uint64
		}{{1, 0x55555555}, {2, 0x33333333}, {4, 0x0F0F0F0F}, {8, 0x00FF00FF}, {16, 0x0000FFFF}} {
			m := reil.Lit(s.mask, dword)
			lo := l.And(l.Bsh(res, -s.shift, dword), m, dword)
			hi := l.Bsh(l.And(res, m, dword), s.shift, dword)
			res = l.Or(lo, hi, dword)
		}
	}
	l.write(rd, res)
	return nil
}

// rotatedOperand decodes "Rm" or "Rm, ROR #n" with n in {0, 8, 16, 24}.
func (l *lifter) rotatedOperand(i int) (reil.Operand, error) {
	op, err := l.matchShifter(l.ops[i])
	if err != nil {
		return reil.Empty, err
	}
	switch {
	case op.kind == shiftNone:
	case op.kind == shiftByImmediate && op.shift == "ROR" && op.amount%8 == 0 && op.amount < 32:
	default:
		return reil.Empty, l.fail(reilerrors.ErrLShiftKind, "extend operand %s", l.ops[i])
	}
	v, _ := l.emitShifter(op, false)
	return v, nil
}

func translateExtend(l *lifter) error {
	op := l.mn.Opcode
	accumulate := false
	switch op {
	case SXTAB, SXTAH, SXTAB16, UXTAB, UXTAH, UXTAB16:
		accumulate = true
	}
	want := 2
	if accumulate {
		want = 3
	}
	if err := l.arity(want); err != nil {
		return err
	}
	rd, err := l.reg(0)
	if err != nil {
		return err
	}
	v, err := l.rotatedOperand(want - 1)
	if err != nil {
		return err
	}

	var ext reil.Operand
	switch op {
	case SXTB, SXTAB:
		ext = l.signExtend(v, 8, dword)
	case SXTH, SXTAH:
		ext = l.signExtend(v, 16, dword)
	case UXTB, UXTAB:
		ext = l.And(v, reil.Lit(0xFF, dword), dword)
	case UXTH, UXTAH:
		ext = l.And(v, reil.Lit(0xFFFF, dword), dword)
	case SXTB16, SXTAB16:
		lo := l.And(l.signExtend(v, 8, dword), reil.Lit(0xFFFF, dword), dword)
		hi := l.And(l.signExtend(l.Bsh(v, -16, dword), 8, dword), reil.Lit(0xFFFF, dword), dword)
		ext = l.Or(lo, l.Bsh(hi, 16, dword), dword)
	case UXTB16, UXTAB16:
		ext = l.And(v, reil.Lit(0x00FF00FF, dword), dword)
	}
	if accumulate {
		rn, err := l.reg(1)
		if err != nil {
			return err
		}
		switch op {
		case SXTAB16, UXTAB16:
			ext = l.addHalves(l.read(rn), ext)
		default:
			ext = l.Add(l.read(rn), ext, dword)
		}
	}
	l.write(rd, ext)
	return nil
}

// addHalves adds the halfwords of a and b independently.
func (l *lifter) addHalves(a, b reil.Operand) reil.Operand {
	half := reil.Lit(0xFFFF, dword)
	lo := l.And(l.Add(a, b, dword), half, dword)
	hi := l.Add(l.Bsh(a, -16, dword), l.Bsh(b, -16, dword), dword)
	return l.Or(lo, l.Bsh(hi, 16, dword), dword)
}

// translatePack lifts PKHBT (Rm shifted left) and PKHTB (Rm shifted right
// arithmetically).
func translatePack(l *lifter) error {
	if err := l.arity(3); err != nil {
		return err
	}
	regs, err := l.regs(0, 1)
	if err != nil {
		return err
	}
	op, err := l.matchShifter(l.ops[2])
	if err != nil {
		return err
	}
	shift := "LSL"
	if l.mn.Opcode == PKHTB {
		shift = "ASR"
	}
	if op.kind != shiftNone && !(op.kind == shiftByImmediate && op.shift == shift) {
		return l.fail(reilerrors.ErrLShiftKind, "pack operand %s", l.ops[2])
	}
	m, _ := l.emitShifter(op, false)
	n := l.read(regs[1])
	var res reil.Operand
	if l.mn.Opcode == PKHBT {
		res = l.Or(l.And(n, reil.Lit(0xFFFF, dword), dword), l.And(m, reil.Lit(0xFFFF0000, dword), dword), dword)
	} else {
		res = l.Or(l.And(n, reil.Lit(0xFFFF0000, dword), dword), l.And(m, reil.Lit(0xFFFF, dword), dword), dword)
	}
	l.write(regs[0], res)
	return nil
}

// bitField decodes the trailing "#lsb, #width" operands.
func (l *lifter) bitField(first int) (lsb, width int64, err error) {
	if lsb, err = l.imm(first); err != nil {
		return
	}
	if width, err = l.imm(first + 1); err != nil {
		return
	}
	if lsb < 0 || width < 1 || lsb+width > 32 {
		err = l.fail(reilerrors.ErrLImmediate, "bit field lsb %d width %d", lsb, width)
	}
	return
}

func translateBitField(l *lifter) error {
	op := l.mn.Opcode
	want := 4
	if op == BFC {
		want = 3
	}
	if err := l.arity(want); err != nil {
		return err
	}
	rd, err := l.reg(0)
	if err != nil {
		return err
	}
	lsb, width, err := l.bitField(want - 2)
	if err != nil {
		return err
	}
	field := lowMask(width) << uint(lsb)
	var res reil.Operand
	switch op {
	case BFC:
		res = l.And(l.read(rd), reil.Lit(^field, dword), dword)
	default:
		rn, err := l.reg(1)
		if err != nil {
			return err
		}
		switch op {
		case BFI:
			kept := l.And(l.read(rd), reil.Lit(^field, dword), dword)
			inserted := l.And(l.Bsh(l.read(rn), lsb, dword), reil.Lit(field, dword), dword)
			res = l.Or(kept, inserted, dword)
		case UBFX:
			res = l.bits(l.read(rn), lsb, width, dword)
		case SBFX:
			res = l.signExtend(l.bits(l.read(rn), lsb, width, dword), width, dword)
		}
	}
	l.write(rd, res)
	return nil
}

func translateMoveWide(l *lifter) error {
	if err := l.arity(2); err != nil {
		return err
	}
	rd, err := l.reg(0)
	if err != nil {
		return err
	}
	v, err := l.imm(1)
	if err != nil {
		return err
	}
	if v < 0 || v > 0xFFFF {
		return l.fail(reilerrors.ErrLImmediate, "%d does not fit in 16 bits", v)
	}
	if l.mn.Opcode == MOVW {
		l.write(rd, reil.Lit(uint64(v), dword))
		return nil
	}
	low := l.And(l.read(rd), reil.Lit(0xFFFF, dword), dword)
	l.write(rd, l.Or(low, reil.Lit(uint64(v)<<16, dword), dword))
	return nil
}
